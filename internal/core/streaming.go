package core

// streaming.go turns submitted bytes into text the splitter can trust.
//
// Spreadsheet exports from Windows tools arrive with a UTF-8 BOM or in
// Windows-1252, and pasted text sometimes carries stray invalid bytes.
// Input is bounded, so the whole payload is read before decoding.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrInputTooLarge is returned by ReadInput when the limit is exceeded.
var ErrInputTooLarge = errors.New("file too large")

// limitedReader fails instead of truncating once more than limit bytes are read.
type limitedReader struct {
	r     io.Reader
	limit int64
	read  int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.read += int64(n)
	if l.limit > 0 && l.read > l.limit {
		return n, fmt.Errorf("%w: more than %d bytes", ErrInputTooLarge, l.limit)
	}
	return n, err
}

// ReadInput reads a bounded payload. A limit of zero disables the bound.
func ReadInput(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(&limitedReader{r: r, limit: limit})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// DecodeText strips a UTF-8 BOM and returns the payload as UTF-8. Payloads
// that are not valid UTF-8 but decode cleanly as Windows-1252 are
// transcoded; anything else has invalid bytes replaced with U+FFFD.
func DecodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	if decoded, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil && utf8.Valid(decoded) {
		return string(decoded)
	}
	return strings.ToValidUTF8(string(data), "�")
}
