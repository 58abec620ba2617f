// Package tabular decodes delimited text uploads into a header row and data rows.
//
// Parsing is all-or-nothing: undecodable bytes yield a *ParseError and no
// partial table. Quoting is lenient: a quote inside an unquoted field is kept
// as a literal character and an unterminated quoted field runs to the end of
// the input. Rows may carry fewer or more fields than the header; aligning
// them is the caller's job.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
)

// ErrInvalidUTF8 is wrapped by a ParseError when input without a UTF-16 byte
// order mark is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("invalid UTF-8 sequence")

// ParseError reports a structural problem with the input.
type ParseError struct {
	Line   int // 1-based line of the failure, 0 if unknown
	Column int // 1-based column, 0 if unknown
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("line %d, column %d: %v", e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Table is the parsed form of an upload.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Parse decodes data as comma-separated text with the first record treated as
// the header. Empty input produces an empty table, not an error.
func Parse(data []byte) (*Table, error) {
	text, err := decode(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1 // short and long rows are aligned by the engine
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		var csvErr *csv.ParseError
		if errors.As(err, &csvErr) {
			return nil, &ParseError{Line: csvErr.Line, Column: csvErr.Column, Err: csvErr.Err}
		}
		return nil, &ParseError{Err: err}
	}

	if len(records) == 0 {
		return &Table{Headers: []string{}, Rows: [][]string{}}, nil
	}

	return &Table{
		Headers: records[0],
		Rows:    records[1:],
	}, nil
}
