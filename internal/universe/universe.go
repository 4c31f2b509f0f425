package universe

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoTickers is returned when a universe source yields no tickers.
var ErrNoTickers = errors.New("no tickers")

// LoadTickers reads one ticker per line, ignoring blank lines.
// Order is kept; repeated tickers keep their first position.
func LoadTickers(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tickers []string
	seen := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		t := strings.TrimSpace(sc.Text())
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tickers = append(tickers, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}
	return tickers, nil
}

// LoadCSV returns the raw, non-empty values of column from a CSV file
// with a header row, deduplicated by first occurrence.
func LoadCSV(filePath, column string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, column)
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(r io.Reader, column string) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := -1
	for i, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found", column)
	}

	var values []string
	seen := make(map[string]bool)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if idx >= len(rec) {
			continue
		}
		v := rec[idx]
		if strings.TrimSpace(v) == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values, nil
}

// Normalize trims whitespace and stray quoting characters around a raw ticker.
func Normalize(raw string) string {
	return strings.Trim(raw, " \t\r\n'\",")
}

// AppendTickers appends tickers, one per line, creating the file if needed.
// Existing content is never truncated.
func AppendTickers(filePath string, tickers []string) error {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	for _, t := range tickers {
		if _, err := w.WriteString(t + "\n"); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
