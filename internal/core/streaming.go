package core

// streaming.go provides the reader wrappers applied to every upload before
// and during parsing:
//
//   - skipBOM: Removes the UTF-8 BOM (0xEF 0xBB 0xBF) added by Windows editors
//   - CountingReader: Tracks bytes read for logs and metrics
//   - sanitizeValue: Replaces invalid UTF-8 in parsed values with '?'

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM returns a reader positioned after a leading UTF-8 BOM, if any.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// sanitizeValue replaces each run of invalid UTF-8 bytes with '?'.
func sanitizeValue(s string) string {
	return strings.ToValidUTF8(s, "?")
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}
