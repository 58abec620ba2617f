package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Number is the result of parsing a cell as a decimal number.
// Valid is false when the text is not a number.
type Number struct {
	Value float64
	Valid bool
}

// ParseNumber parses s as a decimal integer or floating-point number.
//
// Signs, exponents, "inf"/"infinity" and "nan" are accepted. Surrounding
// whitespace, digit separators and hexadecimal forms are not. Magnitudes
// beyond float64 parse as ±Inf.
func ParseNumber(s string) Number {
	if s == "" || !isDecimalLiteral(s) {
		return Number{}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return Number{Value: f, Valid: true}
		}
		return Number{}
	}
	return Number{Value: f, Valid: true}
}

// isDecimalLiteral rejects the strconv extensions that are not plain decimal
// text: underscores and base prefixes.
func isDecimalLiteral(s string) bool {
	if strings.ContainsRune(s, '_') {
		return false
	}
	body := strings.TrimLeft(s, "+-")
	if len(body) >= 2 && body[0] == '0' {
		switch body[1] {
		case 'x', 'X', 'b', 'B', 'o', 'O':
			return false
		}
	}
	return true
}

// truncateForDisplay truncates f toward zero, saturating at the int64 range.
func truncateForDisplay(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(math.Trunc(f))
	}
}
