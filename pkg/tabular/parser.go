package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoHeader is returned when the input has no usable header line.
var ErrNoHeader = errors.New("cannot parse: missing or empty header row")

// Parse reads CSV text into rows keyed by the header line.
func Parse(csvText string) ([]Row, error) {
	return ParseReader(strings.NewReader(csvText))
}

// ParseReader reads CSV from r. The first non-empty line is the header.
// Short rows are padded with empty strings and extra cells are dropped;
// only a missing header is an error. A malformed record is kept in place
// and reading resumes on the line after it starts.
func ParseReader(r io.Reader) ([]Row, error) {
	// Notion and Excel exports prefix a BOM that would otherwise stick to the first label.
	bomless := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	b, err := io.ReadAll(bomless)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	text := string(b)

	cr := newReader(text, false)
	headers, err := readHeader(cr)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("failed to read csv: %w", err)
			}
			start, next := lineBounds(text, perr.StartLine)
			record = salvage(text[start:next])
			text = text[next:]
			cr = newReader(text, false)
		}

		row := Row{Headers: headers, Values: make([]string, len(headers))}
		copy(row.Values, record)
		if record != nil && row.IsBlank() {
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func newReader(text string, lazy bool) *csv.Reader {
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = lazy
	return cr
}

// lineBounds returns the byte range of the 1-based line in text, including
// its newline.
func lineBounds(text string, line int) (start, end int) {
	for i := 1; i < line; i++ {
		j := strings.IndexByte(text[start:], '\n')
		if j < 0 {
			return len(text), len(text)
		}
		start += j + 1
	}
	j := strings.IndexByte(text[start:], '\n')
	if j < 0 {
		return start, len(text)
	}
	return start, start + j + 1
}

// salvage reads what it can from a single malformed line. The result may be
// nil, which leaves an all-empty row for the normalizer to flag.
func salvage(line string) []string {
	record, err := newReader(line, true).Read()
	if err != nil {
		return nil
	}
	for i := range record {
		record[i] = strings.TrimRight(record[i], "\r\n")
	}
	return record
}

// readHeader returns the first line with at least one non-blank label.
func readHeader(cr *csv.Reader) ([]string, error) {
	for {
		header, err := cr.Read()
		if err == io.EOF {
			return nil, ErrNoHeader
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoHeader, err)
		}
		headers := make([]string, len(header))
		blank := true
		for i, h := range header {
			headers[i] = trimmed(h)
			if headers[i] != "" {
				blank = false
			}
		}
		if !blank {
			return headers, nil
		}
	}
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
