package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/csvcheck/internal/core"
	"github.com/JonMunkholm/csvcheck/internal/logging"
	"github.com/JonMunkholm/csvcheck/internal/web/templates"
)

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	schema := s.service.Schema()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := templates.UploadPage(templates.UploadPageParams{
		RequiredColumns: schema.Required,
		RowThreshold:    schema.RowThreshold,
		MinAge:          schema.MinAge,
		MaxAge:          schema.MaxAge,
		MaxFileSize:     s.cfg.Upload.MaxFileSize,
	})
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render upload page", "error", err)
	}
}

// handleRecentRuns lists the newest run summaries.
func (s *Server) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", core.DefaultRecentRuns)

	runs, err := s.service.RecentRuns(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, r, runs)
}

// handleUploadStatus returns the current state of the upload limiter.
func (s *Server) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.service.UploadLimiterStatus())
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string                   `json:"status"`
	Database string                   `json:"database"`
	Uploads  core.UploadLimiterStatus `json:"uploads"`
}

// handleHealth reports liveness. A failing database only degrades the
// status; validation keeps working without run history.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Database: "disabled",
		Uploads:  s.service.UploadLimiterStatus(),
	}

	if s.dbCheck != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.dbCheck(ctx); err != nil {
			logging.FromContext(r.Context()).Warn("database health check failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unavailable"
		} else {
			resp.Database = "ok"
		}
	}

	writeJSON(w, r, resp)
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
