package core

// validation.go implements the validation engine.
//
// Validation happens at two levels:
//  1. File checks: required columns present, enough data rows. These run as
//     an ordered list of stages; the first stage that fails ends validation
//     with a single file-level violation.
//  2. Row checks: every row is checked against the email and age rules and
//     all violations are accumulated in row order, email before age.

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvcheck/internal/tabular"
)

// Messages produced by the engine.
const (
	msgEmptyEmail     = "Email column must not be empty or null."
	msgMissingColumns = "Missing required columns: %s"
	msgTooFewRows     = "File contains %d or fewer data rows."
	msgInvalidNumber  = "Invalid number format: '%s'"
	msgAgeOutOfRange  = "Age %d is outside the allowed range of %d-%d."
	msgParseFailed    = "Failed to parse CSV: %v"
)

// Engine validates parsed tables against a Schema. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	schema Schema
	stages []stage
}

// NewEngine creates an engine for the given schema.
func NewEngine(schema Schema) *Engine {
	e := &Engine{schema: schema.clone()}
	e.stages = []stage{e.checkColumns, e.checkRowCount}
	return e
}

// Schema returns a copy of the engine's schema.
func (e *Engine) Schema() Schema {
	return e.schema.clone()
}

// validationState is what the stages inspect.
type validationState struct {
	headers []string
	rows    [][]string
	columns columnIndex
}

// stage is one file-level check. A nil report means validation continues; a
// non-nil report is terminal and is returned as-is.
type stage func(st *validationState) *Report

// Validate checks headers and rows and returns the report.
func (e *Engine) Validate(headers []string, rows [][]string) Report {
	st := &validationState{
		headers: headers,
		rows:    rows,
		columns: makeColumnIndex(headers),
	}

	for _, check := range e.stages {
		if report := check(st); report != nil {
			return *report
		}
	}

	return newReport(e.checkRows(st))
}

// checkColumns fails when any required column is absent from the header.
func (e *Engine) checkColumns(st *validationState) *Report {
	var missing []string
	for _, name := range e.schema.Required {
		if _, ok := st.columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	report := failReport(fmt.Sprintf(msgMissingColumns, strings.Join(missing, ", ")))
	return &report
}

// checkRowCount fails when the upload has too few data rows.
func (e *Engine) checkRowCount(st *validationState) *Report {
	if len(st.rows) > e.schema.RowThreshold {
		return nil
	}

	report := failReport(fmt.Sprintf(msgTooFewRows, e.schema.RowThreshold))
	return &report
}

// checkRows applies the row rules to every row. The column lookups cannot
// miss because checkColumns has already run.
func (e *Engine) checkRows(st *validationState) []Violation {
	idPos := st.columns[ColumnID]
	emailPos := st.columns[ColumnEmail]
	agePos := st.columns[ColumnAge]

	var violations []Violation
	for i, row := range st.rows {
		rowIndex := i + 1

		var id *string
		if v, ok := field(row, idPos); ok {
			id = &v
		}

		email, _ := field(row, emailPos)
		if msg, bad := checkEmail(email); bad {
			violations = append(violations, Violation{RowIndex: rowIndex, ID: id, Column: ColumnEmail, Message: msg})
		}

		age, _ := field(row, agePos)
		if msg, bad := e.checkAge(age); bad {
			violations = append(violations, Violation{RowIndex: rowIndex, ID: id, Column: ColumnAge, Message: msg})
		}
	}
	return violations
}

// checkEmail rejects blank values.
func checkEmail(value string) (string, bool) {
	if strings.TrimSpace(value) == "" {
		return msgEmptyEmail, true
	}
	return "", false
}

// checkAge rejects non-numeric values and numbers outside the schema range.
func (e *Engine) checkAge(raw string) (string, bool) {
	n := ParseNumber(raw)
	if !n.Valid {
		return fmt.Sprintf(msgInvalidNumber, raw), true
	}
	if n.Value < e.schema.MinAge || n.Value > e.schema.MaxAge {
		return fmt.Sprintf(msgAgeOutOfRange,
			truncateForDisplay(n.Value),
			truncateForDisplay(e.schema.MinAge),
			truncateForDisplay(e.schema.MaxAge),
		), true
	}
	return "", false
}

// ValidateCSV parses data and validates it with the default schema.
func ValidateCSV(data []byte) Report {
	return defaultEngine.ValidateBytes(data)
}

var defaultEngine = NewEngine(DefaultSchema())

// ValidateBytes parses data and validates the result. A structural parse
// failure becomes a single file-level violation.
func (e *Engine) ValidateBytes(data []byte) Report {
	table, err := tabular.Parse(data)
	if err != nil {
		return failReport(fmt.Sprintf(msgParseFailed, err))
	}
	return e.Validate(table.Headers, table.Rows)
}
