package tabular

// decode.go normalizes upload bytes before CSV parsing.
//
// Spreadsheet exports frequently begin with a byte order mark. A UTF-8 BOM is
// stripped so the first header name matches exactly; a UTF-16 BOM switches
// decoding to UTF-16. Anything else must already be valid UTF-8. Old Mac
// exports end lines with a lone CR, which is rewritten to LF.

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// decode returns data as UTF-8 text with any byte order mark removed.
func decode(data []byte) ([]byte, error) {
	if !hasUTF16BOM(data) {
		if line, ok := validUTF8(data); !ok {
			return nil, &ParseError{Line: line, Err: ErrInvalidUTF8}
		}
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("decode: %w", err)}
	}
	return normalizeNewlines(out), nil
}

// normalizeNewlines turns every CR not followed by LF into LF. CRLF is left
// for the CSV reader.
func normalizeNewlines(data []byte) []byte {
	if bytes.IndexByte(data, '\r') < 0 {
		return data
	}

	out := make([]byte, len(data))
	copy(out, data)
	for i, b := range out {
		if b == '\r' && (i+1 == len(out) || out[i+1] != '\n') {
			out[i] = '\n'
		}
	}
	return out
}

func hasUTF16BOM(data []byte) bool {
	return bytes.HasPrefix(data, bomUTF16BE) || bytes.HasPrefix(data, bomUTF16LE)
}

// validUTF8 reports whether data is valid UTF-8. When it is not, the 1-based
// line holding the first invalid byte is returned.
func validUTF8(data []byte) (int, bool) {
	if utf8.Valid(data) {
		return 0, true
	}

	line := 1
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			return line, false
		}
		if r == '\n' || (r == '\r' && (len(data) == 1 || data[1] != '\n')) {
			line++
		}
		data = data[size:]
	}
	return line, false
}
