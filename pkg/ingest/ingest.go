package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrisonrobin/opsboard/pkg/columns"
	"github.com/harrisonrobin/opsboard/pkg/normalize"
	"github.com/harrisonrobin/opsboard/pkg/tabular"
)

// MaxInputSize bounds file and stdin input.
const MaxInputSize = 5 << 20

type Format string

const (
	FormatAuto Format = "auto"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want csv, json or auto)", s)
}

// Detect guesses the format from the first non-space character.
func Detect(text string) Format {
	trimmed := strings.TrimLeft(text, " \t\r\n\ufeff")
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		return FormatJSON
	}
	return FormatCSV
}

// Preview runs the parse, map and normalize stages over text. Only input
// that cannot be parsed at all is an error; bad rows are flagged per result.
func Preview(text string, format Format, d normalize.Defaults, now time.Time) ([]normalize.Result, error) {
	if format == FormatAuto || format == "" {
		format = Detect(text)
	}

	var partials []columns.Partial
	switch format {
	case FormatJSON:
		ps, err := ParseJSON(text)
		if err != nil {
			return nil, err
		}
		partials = ps
	case FormatCSV:
		rows, err := tabular.Parse(text)
		if err != nil {
			return nil, err
		}
		partials = make([]columns.Partial, len(rows))
		for i, row := range rows {
			partials[i] = columns.Map(row)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}

	results := make([]normalize.Result, len(partials))
	for i, p := range partials {
		results[i] = normalize.Normalize(p, d, now)
	}
	return results, nil
}

// FormatForPath picks a format from a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".csv", ".txt":
		return FormatCSV
	}
	return FormatAuto
}

// ReadFile reads an import file. "-" reads stdin.
func ReadFile(path string) (string, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".csv" && ext != ".txt" && ext != ".json" {
			return "", fmt.Errorf("unsupported file type %q (want .csv, .txt or .json)", ext)
		}
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to open import file: %w", err)
		}
		defer f.Close()
		r = f
	}

	b, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read import input: %w", err)
	}
	if len(b) > MaxInputSize {
		return "", fmt.Errorf("import input larger than %d bytes", MaxInputSize)
	}
	return string(b), nil
}
