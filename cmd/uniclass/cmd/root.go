/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/uniclass/pkg/config"
	"github.com/ssargent/uniclass/pkg/di"
	"github.com/ssargent/uniclass/pkg/storage"
)

var container *di.Container

// SetContainer injects the dependency container used by every command.
func SetContainer(c *di.Container) {
	container = c
}

// env is the resolved configuration shared by subcommands.
type env struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
}

type envKey struct{}

func envFrom(cmd *cobra.Command) *env {
	e, _ := cmd.Context().Value(envKey{}).(*env)
	return e
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "uniclass",
		Short: "Uniclass 2015 classification codes",
		Long: `uniclass parses, validates and looks up Uniclass 2015 classification codes.

Codes look like Ss_25_10_20: a two-letter table followed by up to four
numeric levels. Titles come from the NBS table files, which can be imported
into a local store, compiled into source code or served over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, e))
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: OS-specific location)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Directory holding the catalog store")
	rootCmd.PersistentFlags().String("tables-dir", "", "Directory holding the Uniclass CSV table files")

	rootCmd.AddCommand(
		newInitCmd(),
		newParseCmd(),
		newImportCmd(),
		newLookupCmd(),
		newListCmd(),
		newSearchCmd(),
		newGenCmd(),
		newServeCmd(),
		newUpCmd(),
		newServiceCmd(),
	)
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// loadEnv reads the config file, if any, and applies global flag overrides.
// A missing file at the default location means defaults; a missing file named
// with --config is an error.
func loadEnv(cmd *cobra.Command) (*env, error) {
	configPath, _ := cmd.Flags().GetString("config")
	explicit := configPath != ""
	if !explicit {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if explicit && cmd.Name() != "init" && cmd.Name() != "up" {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("tables-dir") {
		cfg.TablesDir, _ = cmd.Flags().GetString("tables-dir")
	}

	logger, err := cfg.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, configPath: configPath, logger: logger}, nil
}

// storePath is where the pebble catalog store lives inside the data directory.
func storePath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "catalog")
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	if container == nil {
		return nil, errors.New("dependency container not initialized")
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return container.OpenStore(storePath(cfg))
}
