package catalog

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ssargent/uniclass/pkg/uniclass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const systemsCSV = "\ufeffCode,Group,Sub group,Section,Object,Title,NBS Code\n" +
	"Ss_25,25,,,,Wall and barrier systems,\n" +
	"Ss_25_10,25,10,,,Framed wall systems,\n" +
	"Ss_25_10_30,25,10,30,,\"Framed partition systems, internal\",\n" +
	"\n" +
	"Ss_25_10_30_35,25,10,30,35,  Metal stud partition systems  ,NBS-123\n"

func TestLoadCSV_Basic(t *testing.T) {
	b := NewBuilder(Policy{})
	report := &Report{}

	err := LoadCSV(strings.NewReader(systemsCSV), "Ss.csv", b, report, discardLogger())
	require.NoError(t, err)

	cat := b.Build()
	assert.Equal(t, 4, cat.Len())
	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, 4, report.Loaded)

	title, ok := cat.Title(uniclass.MustParse("Ss_25_10_30"))
	assert.True(t, ok)
	assert.Equal(t, "Framed partition systems, internal", title)

	entry, ok := cat.Lookup(uniclass.MustParse("Ss_25_10_30_35"))
	assert.True(t, ok)
	assert.Equal(t, "Metal stud partition systems", entry.Title)
	assert.Equal(t, "Ss.csv", entry.Source)
}

func TestLoadCSV_PreambleAndColumnOrder(t *testing.T) {
	input := "Uniclass 2015,,\n" +
		"Table Pr - Products,,\n" +
		"Title,Notes,Code\n" +
		"Structural products,,Pr_20\n"

	b := NewBuilder(Policy{})
	require.NoError(t, LoadCSV(strings.NewReader(input), "Pr.csv", b, nil, discardLogger()))

	title, ok := b.Build().Title(uniclass.MustParse("Pr_20"))
	assert.True(t, ok)
	assert.Equal(t, "Structural products", title)
}

func TestLoadCSV_NoHeader(t *testing.T) {
	b := NewBuilder(Policy{})
	err := LoadCSV(strings.NewReader("a,b\n1,2\n"), "bad.csv", b, nil, discardLogger())
	assert.ErrorIs(t, err, ErrNoHeader)
}

const malformedCSV = "Code,Title\n" +
	"Ss_25,Wall and barrier systems\n" +
	"Ss_999,Out of range\n" +
	"Qq_1,Unknown table\n" +
	"Ss_25_20,Monolithic wall systems\n"

func TestLoadCSV_MalformedAbort(t *testing.T) {
	b := NewBuilder(Policy{Malformed: MalformedAbort})

	err := LoadCSV(strings.NewReader(malformedCSV), "Ss.csv", b, nil, discardLogger())
	require.Error(t, err)

	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, "Ss.csv", rowErr.File)
	assert.Equal(t, 3, rowErr.Line)
	assert.Equal(t, "Ss_999", rowErr.Code)
	assert.ErrorIs(t, err, uniclass.ErrOutOfRange)
}

func TestLoadCSV_MalformedSkip(t *testing.T) {
	b := NewBuilder(Policy{Malformed: MalformedSkip})
	report := &Report{}

	err := LoadCSV(strings.NewReader(malformedCSV), "Ss.csv", b, report, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, 2, report.Loaded)
	require.Len(t, report.Skipped, 2)
	assert.ErrorIs(t, report.Skipped[0], uniclass.ErrOutOfRange)
	assert.ErrorIs(t, report.Skipped[1], uniclass.ErrInvalidTable)
	assert.Equal(t, 4, report.Skipped[1].Line)
	assert.Equal(t, 2, b.Build().Len())
}

func TestLoadCSV_TrailingSegments(t *testing.T) {
	input := "Code,Title\nSs_25_10_30_35_9,Too deep\n"

	t.Run("rejected by default", func(t *testing.T) {
		b := NewBuilder(Policy{})
		err := LoadCSV(strings.NewReader(input), "Ss.csv", b, nil, discardLogger())
		assert.ErrorIs(t, err, uniclass.ErrTrailingSegments)
	})

	t.Run("ignored when configured", func(t *testing.T) {
		b := NewBuilder(Policy{Parse: uniclass.ParseOptions{IgnoreTrailing: true}})
		require.NoError(t, LoadCSV(strings.NewReader(input), "Ss.csv", b, nil, discardLogger()))
		_, ok := b.Build().Title(uniclass.MustParse("Ss_25_10_30_35"))
		assert.True(t, ok)
	})
}

func writeTables(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}
	return dir
}

func TestLoadDir(t *testing.T) {
	dir := writeTables(t, map[string]string{
		"Uniclass2015_Ss.csv": "Code,Title\nSs_25,Wall and barrier systems\n",
		"Uniclass2015_Pr.csv": "Code,Title\nPr_20,Structural products\nPr_20_93,Unit structure and general products\n",
		"README.txt":          "not a table",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0750))

	cat, report, err := LoadDir(dir, Policy{}, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 3, cat.Len())
	assert.Equal(t, []string{
		filepath.Join(dir, "Uniclass2015_Pr.csv"),
		filepath.Join(dir, "Uniclass2015_Ss.csv"),
	}, report.Files)
	assert.Equal(t, 3, report.Loaded)
}

func TestLoadDir_DuplicatesAcrossFiles(t *testing.T) {
	dir := writeTables(t, map[string]string{
		"a.csv": "Code,Title\nSs_25,From A\n",
		"b.csv": "Code,Title\nSs_25,From B\n",
	})
	code := uniclass.MustParse("Ss_25")

	t.Run("error policy fails the load", func(t *testing.T) {
		_, _, err := LoadDir(dir, Policy{Duplicates: DuplicateError}, discardLogger())
		assert.ErrorIs(t, err, ErrDuplicateCode)

		var rowErr *RowError
		require.True(t, errors.As(err, &rowErr))
		assert.Equal(t, "b.csv", rowErr.File)
		assert.Equal(t, 2, rowErr.Line)
	})

	t.Run("keep-last matches later files", func(t *testing.T) {
		cat, report, err := LoadDir(dir, Policy{Duplicates: DuplicateKeepLast}, discardLogger())
		require.NoError(t, err)
		title, _ := cat.Title(code)
		assert.Equal(t, "From B", title)
		require.Len(t, report.Duplicates, 1)
		assert.Equal(t, "a.csv", report.Duplicates[0].Rejected.Source)
		assert.Equal(t, 2, report.Rows)
		assert.Equal(t, 1, report.Loaded)
	})

	t.Run("keep-first", func(t *testing.T) {
		cat, report, err := LoadDir(dir, Policy{Duplicates: DuplicateKeepFirst}, discardLogger())
		require.NoError(t, err)
		title, _ := cat.Title(code)
		assert.Equal(t, "From A", title)
		assert.Equal(t, 2, report.Rows)
		assert.Equal(t, 1, report.Loaded, "dropped duplicate rows are not loaded")
		assert.Equal(t, cat.Len(), report.Loaded)
	})
}

func TestLoadDir_Errors(t *testing.T) {
	_, _, err := LoadDir(filepath.Join(t.TempDir(), "missing"), Policy{}, discardLogger())
	assert.Error(t, err)

	_, _, err = LoadDir(t.TempDir(), Policy{}, discardLogger())
	assert.ErrorContains(t, err, "no CSV files")
}

func TestShared_LoadsOnce(t *testing.T) {
	var calls atomic.Int32
	shared := NewShared(func() (*Catalog, error) {
		calls.Add(1)
		return FromEntries([]Entry{{Code: uniclass.MustParse("Ss_25"), Title: "Walls"}}, Policy{})
	})

	var wg sync.WaitGroup
	results := make([]*Catalog, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cat, err := shared.Get()
			assert.NoError(t, err)
			results[i] = cat
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, cat := range results {
		assert.Same(t, results[0], cat)
	}
}

func TestShared_CachesError(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	shared := NewShared(func() (*Catalog, error) {
		calls.Add(1)
		return nil, boom
	})

	_, err := shared.Get()
	assert.ErrorIs(t, err, boom)
	_, err = shared.Get()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), calls.Load())
}
