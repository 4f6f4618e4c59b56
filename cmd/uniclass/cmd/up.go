/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/uniclass/pkg/config"
	"github.com/ssargent/uniclass/pkg/storage"
)

func newUpCmd() *cobra.Command {
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Bootstrap, import and start the server",
		Long: `Bootstrap uniclass by creating a configuration if none exists and
importing the table files if the store is empty, then start the REST API
server. This is the recommended way to get uniclass running.

Examples:
  uniclass up
  uniclass up --data-dir ./mydata --port 9000
  uniclass up --config ./custom-config.yaml --print-keys`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)
			printKeys, _ := cmd.Flags().GetBool("print-keys")

			if err := bootstrap(cmd, e, printKeys); err != nil {
				return err
			}
			if err := applyServeFlags(cmd, e.cfg); err != nil {
				return err
			}
			e.cfg.Catalog.Source = config.SourceStore
			if err := importIfEmpty(cmd, e); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cmd, e)
		},
	}

	addServerFlags(upCmd)
	upCmd.Flags().Bool("print-keys", false, "Print the generated API key to the console")
	return upCmd
}

// bootstrap writes a configuration with a fresh API key on first run.
func bootstrap(cmd *cobra.Command, e *env, printKeys bool) error {
	if config.ConfigExists(e.configPath) {
		cmd.Printf("✅ Loaded existing configuration from %s\n", e.configPath)
		return nil
	}

	cmd.Printf("🔧 First run detected. Bootstrapping uniclass...\n")
	cfg, err := config.BootstrapConfig(e.configPath, e.cfg.DataDir, true)
	if err != nil {
		return err
	}
	cfg.TablesDir = e.cfg.TablesDir
	cfg.Logging = e.cfg.Logging
	if err := config.SaveConfig(cfg, e.configPath); err != nil {
		return err
	}
	e.cfg = cfg
	cmd.Printf("✅ Configuration created at %s\n", e.configPath)

	if printKeys {
		cmd.Printf("\n🔑 API Key: %s\n", cfg.Security.APIKey)
		cmd.Printf("⚠️  Store this key securely! It is also saved in %s\n", e.configPath)
	}
	return nil
}

// importIfEmpty imports the table files when the store has never been
// populated.
func importIfEmpty(cmd *cobra.Command, e *env) error {
	store, err := openStore(e.cfg)
	if err != nil {
		return err
	}
	_, err = store.LastImport()
	store.Close()
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	cmd.Printf("📥 Store is empty, importing tables from %s\n", e.cfg.TablesDir)
	_, meta, err := importTables(e)
	if err != nil {
		return err
	}
	cmd.Printf("✅ Imported %d entries\n", meta.Entries)
	return nil
}
