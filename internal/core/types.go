package core

import "time"

// Status is the overall outcome of a validation run.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// Violation is a single validation finding. File-level findings leave RowIndex,
// ID and Column unset.
type Violation struct {
	RowIndex int     `json:"row_index,omitempty"` // 1-based data row, 0 for file-level
	ID       *string `json:"id,omitempty"`        // value of the row's id field, nil if the row is too short
	Column   string  `json:"column,omitempty"`
	Message  string  `json:"error_message"`
}

// FileLevel reports whether the violation concerns the whole file.
func (v Violation) FileLevel() bool {
	return v.RowIndex == 0
}

// Report is the complete output of one validation.
type Report struct {
	Status Status      `json:"status"`
	Errors []Violation `json:"errors"`
}

// Passed reports whether the report has no violations.
func (r Report) Passed() bool {
	return r.Status == StatusPass
}

// newReport builds a report whose status follows from its violations.
func newReport(violations []Violation) Report {
	if violations == nil {
		violations = []Violation{}
	}
	status := StatusPass
	if len(violations) > 0 {
		status = StatusFail
	}
	return Report{Status: status, Errors: violations}
}

// failReport builds a report holding a single file-level violation.
func failReport(message string) Report {
	return newReport([]Violation{{Message: message}})
}

// FailReport returns a failing report with one file-level violation. The HTTP
// layer uses it for upload problems detected before validation runs.
func FailReport(message string) Report {
	return failReport(message)
}

// Upload is one file handed to the Service.
type Upload struct {
	FileName string
	Data     []byte
}

// Run is the result of validating one upload through the Service.
type Run struct {
	ID        string
	FileName  string
	Size      int64
	ClientIP  string
	Report    Report
	Duration  time.Duration
	CreatedAt time.Time
}

// Summary returns the persisted form of the run.
func (r *Run) Summary() RunSummary {
	return RunSummary{
		ID:         r.ID,
		FileName:   r.FileName,
		SizeBytes:  r.Size,
		ClientIP:   r.ClientIP,
		Status:     string(r.Report.Status),
		ErrorCount: len(r.Report.Errors),
		DurationMS: r.Duration.Milliseconds(),
		CreatedAt:  r.CreatedAt,
	}
}

// RunSummary is the metadata recorded for a run. Row contents are never kept.
type RunSummary struct {
	ID         string    `json:"id" db:"id"`
	FileName   string    `json:"fileName" db:"file_name"`
	SizeBytes  int64     `json:"sizeBytes" db:"size_bytes"`
	ClientIP   string    `json:"clientIp,omitempty" db:"client_ip"`
	Status     string    `json:"status" db:"status"`
	ErrorCount int       `json:"errorCount" db:"error_count"`
	DurationMS int64     `json:"durationMs" db:"duration_ms"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
