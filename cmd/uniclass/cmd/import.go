package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/uniclass/pkg/catalog"
	"github.com/ssargent/uniclass/pkg/gen"
	"github.com/ssargent/uniclass/pkg/storage"
)

// tableSet is a loaded set of table files.
type tableSet struct {
	files   []string
	digest  string
	catalog *catalog.Catalog
	report  *catalog.Report
}

// tableFiles lists the CSV files in the configured tables directory and
// digests them together with the configured load policy.
func tableFiles(e *env) ([]string, catalog.Policy, string, error) {
	policy, err := e.cfg.Policy()
	if err != nil {
		return nil, catalog.Policy{}, "", err
	}
	files, err := catalog.CSVFiles(e.cfg.TablesDir)
	if err != nil {
		return nil, catalog.Policy{}, "", err
	}
	if len(files) == 0 {
		return nil, catalog.Policy{}, "", fmt.Errorf("no .csv table files in %s", e.cfg.TablesDir)
	}
	digest, err := gen.Digest(files, policy.String())
	if err != nil {
		return nil, catalog.Policy{}, "", err
	}
	return files, policy, digest, nil
}

func loadTables(e *env) (*tableSet, error) {
	files, policy, digest, err := tableFiles(e)
	if err != nil {
		return nil, err
	}
	cat, report, err := catalog.LoadFiles(files, policy, e.logger)
	if err != nil {
		return nil, err
	}
	return &tableSet{files: files, digest: digest, catalog: cat, report: report}, nil
}

// importTables loads the table files and replaces the stored catalog.
func importTables(e *env) (*tableSet, storage.ImportMeta, error) {
	tables, err := loadTables(e)
	if err != nil {
		return nil, storage.ImportMeta{}, err
	}

	store, err := openStore(e.cfg)
	if err != nil {
		return nil, storage.ImportMeta{}, err
	}
	defer store.Close()

	names := make([]string, len(tables.files))
	for i, f := range tables.files {
		names[i] = filepath.Base(f)
	}
	meta, err := store.ReplaceCatalog(tables.catalog, storage.ImportInfo{Files: names, Digest: tables.digest})
	if err != nil {
		return nil, storage.ImportMeta{}, err
	}
	e.logger.Info("catalog imported",
		"import_id", meta.ID.String(),
		"entries", meta.Entries,
		"files", len(names),
		"digest", meta.Digest)
	return tables, meta, nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import the table files into the local store",
		Long: `Load every .csv table file in the tables directory and replace the
catalog held in the local store.

Malformed rows and duplicate codes are handled according to the catalog
section of the configuration.

Examples:
  uniclass import
  uniclass import --tables-dir ./uniclass_tables --data-dir ./data`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, meta, err := importTables(envFrom(cmd))
			if err != nil {
				return err
			}

			r := tables.report
			cmd.Printf("✅ Imported %d entries from %d files\n", meta.Entries, len(r.Files))
			cmd.Printf("Import ID: %s\n", meta.ID)
			cmd.Printf("Digest: %s\n", meta.Digest)
			for _, skipped := range r.Skipped {
				cmd.Printf("Skipped: %v\n", skipped)
			}
			if len(r.Duplicates) > 0 {
				cmd.Printf("Duplicate codes resolved: %d\n", len(r.Duplicates))
			}
			return nil
		},
	}
}
