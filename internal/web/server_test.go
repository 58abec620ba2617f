package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/csvcheck/internal/config"
	"github.com/JonMunkholm/csvcheck/internal/core"
)

// testConfig mirrors the production defaults with rate limiting off.
func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8000, RequestTimeout: 10 * time.Second, ShutdownTimeout: time.Second},
		Upload: config.UploadConfig{MaxFileSize: 10 << 20, MaxConcurrent: 2, MaxWaitTime: time.Second},
		Security: config.SecurityConfig{
			AllowedOrigins: []string{"*"},
			EnableCSP:      true,
		},
		Logging: config.LoggingConfig{Level: "info", Format: "text"},
	}
}

type memRecorder struct {
	runs []core.RunSummary
}

func (m *memRecorder) RecordRun(_ context.Context, run core.RunSummary) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *memRecorder) RecentRuns(_ context.Context, limit int) ([]core.RunSummary, error) {
	if limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func newTestServer(t *testing.T, cfg *config.Config, rec core.RunRecorder, opts ...Option) *Server {
	t.Helper()
	svc := core.NewService(core.ServiceConfig{
		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
		UploadWaitTime:       cfg.Upload.MaxWaitTime,
	}, rec)
	s := NewServer(svc, cfg, opts...)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

// multipartBody builds a form with the given (field, filename, content) parts.
func multipartBody(t *testing.T, parts ...[3]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		var (
			w   interface{ Write([]byte) (int, error) }
			err error
		)
		if p[1] != "" {
			w, err = mw.CreateFormFile(p[0], p[1])
		} else {
			w, err = mw.CreateFormField(p[0])
		}
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(p[2]))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func validCSV(rows int) string {
	var b strings.Builder
	b.WriteString("id,email,age\n")
	for i := 1; i <= rows; i++ {
		b.WriteString(strings.Join([]string{"u" + string(rune('a'+i)), "user@example.com", "30"}, ","))
		b.WriteString("\n")
	}
	return b.String()
}

func postValidate(t *testing.T, s *Server, body *bytes.Buffer, contentType, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/validate", body)
	req.Header.Set("Content-Type", contentType)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeReport(t *testing.T, rec *httptest.ResponseRecorder) core.Report {
	t.Helper()
	var report core.Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	return report
}

func TestValidate_Pass(t *testing.T) {
	rec := &memRecorder{}
	s := newTestServer(t, testConfig(), rec)

	body, ct := multipartBody(t, [3]string{"file", "users.csv", validCSV(11)})
	resp := postValidate(t, s, body, ct, "")

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	runID := resp.Header().Get(RunIDHeader)
	if runID == "" {
		t.Error("missing run ID header")
	}

	report := decodeReport(t, resp)
	if report.Status != core.StatusPass || len(report.Errors) != 0 {
		t.Errorf("report = %+v, want pass", report)
	}

	if len(rec.runs) != 1 || rec.runs[0].ID != runID || rec.runs[0].FileName != "users.csv" {
		t.Errorf("recorded runs = %+v", rec.runs)
	}
	if rec.runs[0].ClientIP != "192.0.2.1" {
		t.Errorf("ClientIP = %q, want httptest default 192.0.2.1", rec.runs[0].ClientIP)
	}
}

func TestValidate_WireFormat(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	csv := "id,email,age\n" + strings.Repeat("1,a@b.c,30\n", 4) + "5,,30\n" + "6,a@b.c,30\n" + "7,a@b.c,150\n" + strings.Repeat("8,a@b.c,30\n", 4)
	body, ct := multipartBody(t, [3]string{"file", "u.csv", csv})
	resp := postValidate(t, s, body, ct, "")

	want := `{"status":"fail","errors":[` +
		`{"row_index":5,"id":"5","column":"email","error_message":"Email column must not be empty or null."},` +
		`{"row_index":7,"id":"7","column":"age","error_message":"Age 150 is outside the allowed range of 18-100."}]}` + "\n"
	if got := resp.Body.String(); got != want {
		t.Errorf("body =\n%s\nwant\n%s", got, want)
	}
}

func TestValidate_UploadProblems(t *testing.T) {
	tests := []struct {
		name  string
		parts [][3]string
		want  string
	}{
		{"no parts", nil, msgNoFile},
		{"only a text field", [][3]string{{"note", "", "hello"}}, msgNoFile},
		{"empty file", [][3]string{{"file", "empty.csv", ""}}, msgNoFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &memRecorder{}
			s := newTestServer(t, testConfig(), rec)

			body, ct := multipartBody(t, tt.parts...)
			resp := postValidate(t, s, body, ct, "")

			if resp.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.Code)
			}
			report := decodeReport(t, resp)
			if report.Status != core.StatusFail || len(report.Errors) != 1 || report.Errors[0].Message != tt.want {
				t.Errorf("report = %+v, want single %q", report, tt.want)
			}
			if len(rec.runs) != 0 {
				t.Error("validation ran for an upload problem")
			}
		})
	}
}

func TestValidate_PicksFilePart(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	body, ct := multipartBody(t,
		[3]string{"note", "", "ignored"},
		[3]string{"upload", "data.csv", validCSV(11)},
		[3]string{"file", "second.csv", "name\n"},
	)
	resp := postValidate(t, s, body, ct, "")

	if report := decodeReport(t, resp); report.Status != core.StatusPass {
		t.Errorf("report = %+v, want pass from first file part", report)
	}
}

func TestValidate_SchemaFailure(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	body, ct := multipartBody(t, [3]string{"file", "x.csv", "name,email,age\na,b,20\n"})
	report := decodeReport(t, postValidate(t, s, body, ct, ""))

	if len(report.Errors) != 1 || report.Errors[0].Message != "Missing required columns: id" {
		t.Errorf("report = %+v", report)
	}
}

func TestValidate_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 256
	s := newTestServer(t, cfg, nil)

	body, ct := multipartBody(t, [3]string{"file", "big.csv", validCSV(50)})
	resp := postValidate(t, s, body, ct, "")

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", resp.Code)
	}
	var er ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if er.Code != "FILE001" {
		t.Errorf("code = %q, want FILE001", er.Code)
	}
}

func TestValidate_NotMultipart(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	resp := postValidate(t, s, bytes.NewBufferString(validCSV(11)), "text/csv", "")

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
	var er ErrorResponse
	json.NewDecoder(resp.Body).Decode(&er)
	if er.Code != "FILE002" {
		t.Errorf("code = %q, want FILE002", er.Code)
	}
}

// blockingRecorder holds the caller's validation slot until released.
type blockingRecorder struct {
	memRecorder
	entered chan struct{}
	release chan struct{}
}

func (b *blockingRecorder) RecordRun(ctx context.Context, run core.RunSummary) error {
	b.entered <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return nil
}

func TestValidate_Busy(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxConcurrent = 1
	cfg.Upload.MaxWaitTime = 20 * time.Millisecond

	rec := &blockingRecorder{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := newTestServer(t, cfg, rec)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.service.ValidateUpload(context.Background(), core.Upload{Data: []byte(validCSV(11))})
	}()
	<-rec.entered

	body, ct := multipartBody(t, [3]string{"file", "users.csv", validCSV(11)})
	resp := postValidate(t, s, body, ct, "")

	close(rec.release)
	<-done

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.Code)
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	var er ErrorResponse
	json.NewDecoder(resp.Body).Decode(&er)
	if er.Code != "UPL002" {
		t.Errorf("code = %q, want UPL002", er.Code)
	}
}

func TestValidate_ClientGone(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxConcurrent = 1
	cfg.Upload.MaxWaitTime = time.Minute

	rec := &blockingRecorder{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := newTestServer(t, cfg, rec)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.service.ValidateUpload(context.Background(), core.Upload{Data: []byte(validCSV(11))})
	}()
	<-rec.entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body, ct := multipartBody(t, [3]string{"file", "users.csv", validCSV(11)})
	req := httptest.NewRequest(http.MethodPost, "/validate", body).WithContext(ctx)
	req.Header.Set("Content-Type", ct)
	resp := httptest.NewRecorder()
	s.Router().ServeHTTP(resp, req)

	close(rec.release)
	<-done

	if resp.Code != statusClientClosedRequest {
		t.Errorf("status = %d, want %d", resp.Code, statusClientClosedRequest)
	}
	if resp.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", resp.Body.String())
	}
}
func TestValidate_HTMLView(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	body, ct := multipartBody(t, [3]string{"file", "users.csv", validCSV(3)})
	resp := postValidate(t, s, body, ct, "text/html,application/xhtml+xml")

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", got)
	}
	if out := resp.Body.String(); !strings.Contains(out, "File contains 10 or fewer data rows.") {
		t.Errorf("HTML report missing violation: %s", out)
	}
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `enctype="multipart/form-data"`) {
		t.Error("index page missing upload form")
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options header")
	}
}

func TestRecentRuns(t *testing.T) {
	rec := &memRecorder{}
	for i := 0; i < 3; i++ {
		rec.runs = append(rec.runs, core.RunSummary{ID: string(rune('a' + i)), Status: "pass"})
	}
	s := newTestServer(t, testConfig(), rec)

	resp := httptest.NewRecorder()
	s.Router().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/runs?limit=2", nil))

	var runs []core.RunSummary
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("got %d runs, want 2", len(runs))
	}
}

func TestRecentRuns_Disabled(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	resp := httptest.NewRecorder()
	s.Router().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/runs", nil))

	if got := strings.TrimSpace(resp.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name         string
		opts         []Option
		wantStatus   string
		wantDatabase string
	}{
		{"no database", nil, "ok", "disabled"},
		{"database up", []Option{WithDatabaseCheck(func(context.Context) error { return nil })}, "ok", "ok"},
		{"database down", []Option{WithDatabaseCheck(func(context.Context) error { return errors.New("connection refused") })}, "degraded", "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, testConfig(), nil, tt.opts...)

			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var h HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&h); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if h.Status != tt.wantStatus || h.Database != tt.wantDatabase {
				t.Errorf("health = %+v, want %s/%s", h, tt.wantStatus, tt.wantDatabase)
			}
			if h.Uploads.MaxConcurrent != 2 {
				t.Errorf("uploads.max_concurrent = %d, want 2", h.Uploads.MaxConcurrent)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	req := httptest.NewRequest(http.MethodOptions, "/validate", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	s := newTestServer(t, cfg, nil)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		s.Router().ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	var er ErrorResponse
	json.NewDecoder(last.Body).Decode(&er)
	if er.Code != "RATE001" {
		t.Errorf("code = %q, want RATE001", er.Code)
	}
}
