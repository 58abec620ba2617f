package core

// Column names the row rules read.
const (
	ColumnID    = "id"
	ColumnEmail = "email"
	ColumnAge   = "age"
)

// Schema is the fixed set of expectations an upload is checked against.
// It is a plain value: the engine copies it and never mutates it.
type Schema struct {
	Required     []string // column names that must appear in the header
	RowThreshold int      // uploads with this many data rows or fewer are rejected
	MinAge       float64
	MaxAge       float64
}

// DefaultSchema returns the schema every upload is validated against.
func DefaultSchema() Schema {
	return Schema{
		Required:     []string{ColumnID, ColumnEmail, ColumnAge},
		RowThreshold: 10,
		MinAge:       18,
		MaxAge:       100,
	}
}

// clone returns a copy that shares no backing arrays with s.
func (s Schema) clone() Schema {
	s.Required = append([]string(nil), s.Required...)
	return s
}

// columnIndex maps a column name to the position of its first occurrence.
type columnIndex map[string]int

// makeColumnIndex indexes headers by exact, case-sensitive name.
func makeColumnIndex(headers []string) columnIndex {
	idx := make(columnIndex, len(headers))
	for i, h := range headers {
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	return idx
}

// field returns the value at pos, or false when the row is too short.
func field(row []string, pos int) (string, bool) {
	if pos < 0 || pos >= len(row) {
		return "", false
	}
	return row[pos], true
}
