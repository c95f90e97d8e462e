// Package statictext reads the tab-delimited static input tables (cell
// properties, cell crop flags, mean cuttings, crop parameters) and the daily
// station weather series.
package statictext

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrMissingColumn is returned when a required header column is absent.
	ErrMissingColumn = errors.New("missing column")
	// ErrEmptyValue is returned when a required column is blank in a row.
	ErrEmptyValue = errors.New("empty value")
)

func readRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.Comment = '#'

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	for i, row := range rows {
		for j := range row {
			rows[i][j] = strings.TrimSpace(row[j])
		}
	}
	return rows, nil
}

func readFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := readRows(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// header maps lower-cased column names to their index.
type header map[string]int

func newHeader(row []string) header {
	h := make(header, len(row))
	for i, name := range row {
		h[strings.ToLower(name)] = i
	}
	return h
}

func (h header) index(name string) (int, bool) {
	i, ok := h[strings.ToLower(name)]
	return i, ok
}

func (h header) require(names ...string) error {
	for _, name := range names {
		if _, ok := h.index(name); !ok {
			return fmt.Errorf("%q: %w", name, ErrMissingColumn)
		}
	}
	return nil
}

// field returns the named column of row, or "" when absent or short.
func (h header) field(row []string, name string) string {
	i, ok := h.index(name)
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseFloat parses s, treating an empty string as zero.
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// parseInt accepts integer or decimal notation, truncating decimals.
func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// parseFlag reads a 0/1 style flag. Any non-zero number is true.
func parseFlag(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	switch strings.ToLower(s) {
	case "true", "t", "yes", "y":
		return true, nil
	case "false", "f", "no", "n":
		return false, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false, err
	}
	return f != 0, nil
}

// rowParser accumulates the first parse error for one row.
type rowParser struct {
	line int
	err  error
}

func (p *rowParser) float(col, s string) float64 {
	v, err := parseFloat(s)
	if err != nil {
		p.fail(col, err)
	}
	return v
}

// requiredFloat is float for a column that may not be blank.
func (p *rowParser) requiredFloat(col, s string) float64 {
	if s == "" {
		p.fail(col, ErrEmptyValue)
		return 0
	}
	return p.float(col, s)
}

// floatOr is float with blank mapped to fallback.
func (p *rowParser) floatOr(col, s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	return p.float(col, s)
}

func (p *rowParser) int(col, s string) int {
	v, err := parseInt(s)
	if err != nil {
		p.fail(col, err)
	}
	return v
}

func (p *rowParser) requiredInt(col, s string) int {
	if s == "" {
		p.fail(col, ErrEmptyValue)
		return 0
	}
	return p.int(col, s)
}

func (p *rowParser) flag(col, s string) bool {
	v, err := parseFlag(s)
	if err != nil {
		p.fail(col, err)
	}
	return v
}

func (p *rowParser) fail(col string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("line %d column %s: %w", p.line, col, err)
	}
}
