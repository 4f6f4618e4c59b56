package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ssargent/uniclass/pkg/uniclass"
)

const (
	codeColumn  = "Code"
	titleColumn = "Title"

	// maxPreambleRows bounds how far into a file the header row is searched for.
	maxPreambleRows = 20
)

// ErrNoHeader is returned when a CSV file has no row naming both the Code and
// Title columns.
var ErrNoHeader = errors.New("no header row with Code and Title columns")

// RowError describes a CSV row that could not be loaded.
type RowError struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Code string `json:"code"`
	Err  error  `json:"-"`
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s:%d: code %q: %v", e.File, e.Line, e.Code, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Report summarizes a load. Loaded counts distinct codes added; rows resolved
// as duplicates appear in Rows and Duplicates only.
type Report struct {
	Files      []string    `json:"files"`
	Rows       int         `json:"rows"`
	Loaded     int         `json:"loaded"`
	Skipped    []*RowError `json:"skipped,omitempty"`
	Duplicates []Duplicate `json:"duplicates,omitempty"`
}

// CSVFiles returns the *.csv files directly inside dir, sorted by name.
func CSVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables directory: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadDir loads every CSV file in dir into a new catalog.
func LoadDir(dir string, policy Policy, logger *slog.Logger) (*Catalog, *Report, error) {
	paths, err := CSVFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("no CSV files found in %s", dir)
	}
	return LoadFiles(paths, policy, logger)
}

// LoadFiles loads the given CSV files, in order, into a new catalog.
func LoadFiles(paths []string, policy Policy, logger *slog.Logger) (*Catalog, *Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := NewBuilder(policy)
	report := &Report{}

	for _, path := range paths {
		if err := loadFile(path, b, report, logger); err != nil {
			return nil, report, err
		}
	}

	report.Duplicates = b.Duplicates()
	cat := b.Build()
	logger.Info("catalog loaded",
		"files", len(report.Files),
		"rows", report.Rows,
		"entries", cat.Len(),
		"skipped", len(report.Skipped),
		"duplicates", len(report.Duplicates))
	return cat, report, nil
}

func loadFile(path string, b *Builder, report *Report, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()

	report.Files = append(report.Files, path)
	return LoadCSV(f, filepath.Base(path), b, report, logger)
}

// LoadCSV reads Code/Title rows from r into b. Rows before the header row are
// ignored, as are columns other than Code and Title. source names the input in
// entries and errors.
func LoadCSV(r io.Reader, source string, b *Builder, report *Report, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if report == nil {
		report = &Report{}
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	codeIdx, titleIdx, err := findHeader(reader)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}

	policy := b.Policy()
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
		if blank(record) {
			continue
		}
		report.Rows++
		line, _ := reader.FieldPos(0)

		raw := field(record, codeIdx)
		code, err := uniclass.ParseWith(raw, policy.Parse)
		if err != nil {
			rowErr := &RowError{File: source, Line: line, Code: raw, Err: err}
			if policy.Malformed == MalformedAbort {
				return rowErr
			}
			logger.Warn("skipping malformed row",
				"file", source,
				"line", line,
				"code", raw,
				"kind", uniclass.KindName(err),
				"error", err)
			report.Skipped = append(report.Skipped, rowErr)
			continue
		}

		entry := Entry{Code: code, Title: field(record, titleIdx), Source: source}
		inserted, err := b.add(entry)
		if err != nil {
			return &RowError{File: source, Line: line, Code: raw, Err: err}
		}
		if inserted {
			report.Loaded++
		}
	}
}

func findHeader(reader *csv.Reader) (int, int, error) {
	for i := 0; i < maxPreambleRows; i++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, 0, err
		}
		codeIdx, titleIdx := -1, -1
		for j, name := range record {
			name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
			switch {
			case strings.EqualFold(name, codeColumn) && codeIdx < 0:
				codeIdx = j
			case strings.EqualFold(name, titleColumn) && titleIdx < 0:
				titleIdx = j
			}
		}
		if codeIdx >= 0 && titleIdx >= 0 {
			return codeIdx, titleIdx, nil
		}
	}
	return 0, 0, ErrNoHeader
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
