package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/uniclass/pkg/gen"
	"github.com/ssargent/uniclass/pkg/snapshot"
)

// generator writes one output format from a loaded table set.
type generator struct {
	write    func(w io.Writer, tables *tableSet) error
	upToDate func(path, digest string) (bool, error)
}

func newGenCmd() *cobra.Command {
	genCmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate source code or snapshots from the table files",
		Long: `Generate artifacts from the table files.

Every artifact records a digest of the table files it was built from, the
configured load policy and the generator version. With --if-changed,
generation is skipped when the output already matches all three.`,
	}
	genCmd.PersistentFlags().StringP("out", "o", "", "Output file (required)")
	genCmd.PersistentFlags().Bool("if-changed", false, "Skip generation when the output is up to date")
	_ = genCmd.MarkPersistentFlagRequired("out")

	tsCmd := &cobra.Command{
		Use:   "ts",
		Short: "Generate a TypeScript code to title map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(cmd, generator{
				write: func(w io.Writer, tables *tableSet) error {
					return gen.WriteTypeScript(w, tables.catalog, tables.digest)
				},
				upToDate: gen.UpToDate,
			})
		},
	}

	goCmd := &cobra.Command{
		Use:   "go",
		Short: "Generate a Go code to title lookup table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, _ := cmd.Flags().GetString("package")
			return runGen(cmd, generator{
				write: func(w io.Writer, tables *tableSet) error {
					return gen.WriteGo(w, tables.catalog, gen.GoOptions{Package: pkg, Digest: tables.digest})
				},
				upToDate: gen.UpToDate,
			})
		},
	}
	goCmd.Flags().String("package", "uniclassdata", "Package name of the generated file")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write a compressed catalog snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(cmd, generator{
				write: func(w io.Writer, tables *tableSet) error {
					_, err := snapshot.Write(w, tables.catalog, snapshot.Header{Digest: tables.digest})
					return err
				},
				upToDate: snapshotUpToDate,
			})
		},
	}

	genCmd.AddCommand(tsCmd, goCmd, snapshotCmd)
	return genCmd
}

func runGen(cmd *cobra.Command, g generator) error {
	e := envFrom(cmd)
	out, _ := cmd.Flags().GetString("out")
	ifChanged, _ := cmd.Flags().GetBool("if-changed")

	if ifChanged {
		_, _, digest, err := tableFiles(e)
		if err != nil {
			return err
		}
		ok, err := g.upToDate(out, digest)
		if err != nil {
			return err
		}
		if ok {
			cmd.Printf("%s is up to date\n", out)
			return nil
		}
	}

	tables, err := loadTables(e)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(out, func(w io.Writer) error { return g.write(w, tables) }); err != nil {
		return err
	}
	e.logger.Debug("generated", "out", out, "entries", tables.catalog.Len(), "digest", tables.digest)
	cmd.Printf("✅ Wrote %d entries to %s\n", tables.catalog.Len(), out)
	return nil
}

func snapshotUpToDate(path, digest string) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	h, err := snapshot.ReadHeader(f)
	if errors.Is(err, snapshot.ErrFormat) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return h.Digest == digest, nil
}

// writeFileAtomic writes to a temporary file next to path and renames it into
// place once write succeeds.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
