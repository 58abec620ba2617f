package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/csvcheck/internal/core"
	"github.com/JonMunkholm/csvcheck/internal/logging"
	"github.com/JonMunkholm/csvcheck/internal/web/templates"
)

// statusClientClosedRequest is logged for requests whose client disconnected.
const statusClientClosedRequest = 499

// Upload problems reported before validation runs.
const (
	msgNoFile       = "No file uploaded or empty file"
	msgPartReadFail = "Failed to read file part: %v"
)

// handleValidate validates an uploaded CSV file. Upload problems and
// validation findings are both returned as a report with status 200.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	upload, problem, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("file too large: %w", err), http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if problem != "" {
		s.respondReport(w, r, "", upload.FileName, core.FailReport(problem))
		return
	}

	run, err := s.service.ValidateUpload(withRequestMetadata(r.Context(), r), upload)
	switch {
	case errors.Is(err, core.ErrTooManyUploads):
		w.Header().Set("Retry-After", "5")
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	case errors.Is(err, context.Canceled):
		// Client went away while waiting for a slot; nobody reads the body.
		logging.FromContext(r.Context()).Info("upload abandoned by client", "error", err)
		w.WriteHeader(statusClientClosedRequest)
		return
	case errors.Is(err, context.DeadlineExceeded):
		s.respondError(w, r, err, http.StatusGatewayTimeout)
		return
	case err != nil:
		s.respondError(w, r, err, http.StatusRequestTimeout)
		return
	}

	w.Header().Set(RunIDHeader, run.ID)
	s.respondReport(w, r, run.ID, run.FileName, run.Report)
}

// readUpload returns the first multipart part named "file" or carrying a
// filename. A non-empty problem is an upload error to report to the client;
// a non-nil error means the request itself is unusable.
func readUpload(r *http.Request) (core.Upload, string, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return core.Upload{}, "", fmt.Errorf("invalid form: %w", err)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return core.Upload{}, msgNoFile, nil
		}
		if err != nil {
			return partError(core.Upload{}, err)
		}

		if part.FormName() != "file" && part.FileName() == "" {
			part.Close()
			continue
		}

		upload := core.Upload{FileName: part.FileName()}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return partError(upload, err)
		}
		if len(data) == 0 {
			return upload, msgNoFile, nil
		}

		upload.Data = data
		return upload, "", nil
	}
}

// partError keeps body-limit errors fatal and turns the rest into a report.
func partError(upload core.Upload, err error) (core.Upload, string, error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return upload, "", err
	}
	return upload, fmt.Sprintf(msgPartReadFail, err), nil
}

// respondReport writes report as JSON, or as the HTML report view for browsers.
func (s *Server) respondReport(w http.ResponseWriter, r *http.Request, runID, fileName string, report core.Report) {
	if !wantsHTML(r) {
		writeJSON(w, r, report)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	view := templates.ReportView(templates.ReportViewParams{
		RunID:    runID,
		FileName: fileName,
		Report:   report,
	})
	if err := view.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render report", "error", err)
	}
}
