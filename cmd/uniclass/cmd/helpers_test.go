package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ssargent/uniclass/pkg/api"
	"github.com/ssargent/uniclass/pkg/config"
	"github.com/ssargent/uniclass/pkg/di"
)

const systemsCSV = "Code,Group,Sub group,Section,Object,Title\n" +
	"Ss_25,25,,,,Wall and barrier systems\n" +
	"Ss_25_10,25,10,,,Framed wall systems\n" +
	"Ss_25_10_20,25,10,20,,Framed panel systems\n" +
	"Ss_30,30,,,,Roof floor and paving systems\n"

const productsCSV = "Code,Title\n" +
	"Pr_20,Structural products\n" +
	"Pr_20_93,Unit structure and general products\n"

// fakeStarter records the server configuration instead of listening.
type fakeStarter struct {
	config  api.ServerConfig
	entries int
	calls   int
}

func (f *fakeStarter) StartServer(ctx context.Context, catalogs api.CatalogProvider, config api.ServerConfig) error {
	f.calls++
	f.config = config
	cat, err := catalogs.Get()
	if err != nil {
		return err
	}
	f.entries = cat.Len()
	return nil
}

type fakeFactory struct{ starter *fakeStarter }

func (f fakeFactory) CreateServerStarter() api.ServerStarter { return f.starter }

type testEnv struct {
	dir        string
	configPath string
	dataDir    string
	tablesDir  string
	starter    *fakeStarter
}

// newTestEnv writes table files and a config into a temp dir and installs a
// container whose server never listens.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	te := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.yaml"),
		dataDir:    filepath.Join(dir, "data"),
		tablesDir:  filepath.Join(dir, "tables"),
		starter:    &fakeStarter{},
	}

	require.NoError(t, os.MkdirAll(te.tablesDir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(te.tablesDir, "Ss.csv"), []byte(systemsCSV), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(te.tablesDir, "Pr.csv"), []byte(productsCSV), 0600))

	cfg := config.DefaultConfig()
	cfg.DataDir = te.dataDir
	cfg.TablesDir = te.tablesDir
	require.NoError(t, config.SaveConfig(cfg, te.configPath))

	c := di.NewContainer()
	c.SetServerFactory(fakeFactory{starter: te.starter})
	SetContainer(c)
	t.Cleanup(func() { SetContainer(nil) })
	return te
}

// run executes the root command with the test config appended to args.
func (te *testEnv) run(args ...string) (string, string, error) {
	return runRoot(append(args, "--config", te.configPath)...)
}

func runRoot(args ...string) (string, string, error) {
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (te *testEnv) importTables(t *testing.T) {
	t.Helper()
	_, _, err := te.run("import")
	require.NoError(t, err)
}

func (te *testEnv) config(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig(te.configPath)
	require.NoError(t, err)
	return cfg
}
