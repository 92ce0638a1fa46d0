package core

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/crudimport/internal/schema"
)

// maxLineSize bounds a single plain-text line.
const maxLineSize = 1 << 20

// FormatForFile picks the parse format from a file name's extension.
// The match is case-insensitive.
func FormatForFile(fileName string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv":
		return FormatCSV, nil
	case ".txt":
		return FormatPlainText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Parse returns a lazy sequence of records read from r.
//
// For CSV the first line is the header and each following line is zipped
// against it; short rows simply lack the trailing keys and extra cells are
// dropped. For plain text every non-blank line becomes one record keyed by
// [schema.PlainTextColumn].
//
// The sequence is finite and can be ranged over once. Read and syntax errors
// are yielded wrapped in ErrCorruptInput and end the sequence.
func Parse(r io.Reader, f Format) (iter.Seq2[RawRecord, error], error) {
	switch f {
	case FormatCSV:
		return parseCSV(skipBOM(r)), nil
	case FormatPlainText:
		return parsePlainText(skipBOM(r)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

func parseCSV(r io.Reader) iter.Seq2[RawRecord, error] {
	return func(yield func(RawRecord, error) bool) {
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true

		header, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(RawRecord{}, fmt.Errorf("%w: header: %v", ErrCorruptInput, err))
			return
		}
		for i := range header {
			header[i] = strings.TrimSpace(sanitizeValue(header[i]))
		}

		for {
			row, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(RawRecord{}, fmt.Errorf("%w: %v", ErrCorruptInput, err))
				return
			}

			line, _ := reader.FieldPos(0)
			n := min(len(row), len(header))
			fields := make([]Field, n)
			for i := 0; i < n; i++ {
				fields[i] = Field{Name: header[i], Value: sanitizeValue(row[i])}
			}

			if !yield(RawRecord{line: line, fields: fields}, nil) {
				return
			}
		}
	}
}

func parsePlainText(r io.Reader) iter.Seq2[RawRecord, error] {
	return func(yield func(RawRecord, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

		line := 0
		for scanner.Scan() {
			line++
			value := strings.TrimSpace(sanitizeValue(scanner.Text()))
			if value == "" {
				continue
			}
			rec := RawRecord{line: line, fields: []Field{{Name: schema.PlainTextColumn, Value: value}}}
			if !yield(rec, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(RawRecord{}, fmt.Errorf("%w: line %d: %v", ErrCorruptInput, line+1, err))
		}
	}
}
