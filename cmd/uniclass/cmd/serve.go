/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/uniclass/pkg/api"
	"github.com/ssargent/uniclass/pkg/catalog"
	"github.com/ssargent/uniclass/pkg/config"
	"github.com/ssargent/uniclass/pkg/snapshot"
)

// catalogLoader returns a loader for the catalog source named in the config.
func catalogLoader(e *env) (func() (*catalog.Catalog, error), error) {
	switch e.cfg.Catalog.Source {
	case config.SourceStore, "":
		return func() (*catalog.Catalog, error) {
			store, err := openStore(e.cfg)
			if err != nil {
				return nil, err
			}
			defer store.Close()
			return store.LoadCatalog()
		}, nil
	case config.SourceTables:
		return func() (*catalog.Catalog, error) {
			tables, err := loadTables(e)
			if err != nil {
				return nil, err
			}
			return tables.catalog, nil
		}, nil
	case config.SourceSnapshot:
		return func() (*catalog.Catalog, error) {
			f, err := os.Open(e.cfg.Catalog.SnapshotPath)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			policy, err := e.cfg.Policy()
			if err != nil {
				return nil, err
			}
			cat, h, err := snapshot.Read(f, policy)
			if err != nil {
				return nil, err
			}
			e.logger.Info("snapshot loaded", "path", e.cfg.Catalog.SnapshotPath, "created", h.Created, "digest", h.Digest)
			return cat, nil
		}, nil
	}
	return nil, fmt.Errorf("unknown catalog source %q", e.cfg.Catalog.Source)
}

// serve loads the catalog and runs the API server until ctx is cancelled.
func serve(ctx context.Context, cmd *cobra.Command, e *env) error {
	if container == nil {
		return errors.New("dependency container not initialized")
	}

	load, err := catalogLoader(e)
	if err != nil {
		return err
	}
	shared := catalog.NewShared(load)
	cat, err := shared.Get()
	if err != nil {
		return fmt.Errorf("failed to load catalog from %s: %w", e.cfg.Catalog.Source, err)
	}

	cmd.Printf("🚀 Starting uniclass server on %s:%d\n", e.cfg.Bind, e.cfg.Port)
	cmd.Printf("📚 Catalog: %d entries from %s\n", cat.Len(), e.cfg.Catalog.Source)

	starter := container.GetServerFactory().CreateServerStarter()
	return starter.StartServer(ctx, shared, api.ServerConfig{
		Port:   e.cfg.Port,
		Bind:   e.cfg.Bind,
		APIKey: e.cfg.Security.APIKey,
		Logger: e.logger,
	})
}

// applyServeFlags copies server flags that were set explicitly onto the config.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("bind") {
		cfg.Bind, _ = cmd.Flags().GetString("bind")
	}
	if cmd.Flags().Changed("api-key") {
		cfg.Security.APIKey, _ = cmd.Flags().GetString("api-key")
	}
	if cmd.Flags().Lookup("source") != nil && cmd.Flags().Changed("source") {
		cfg.Catalog.Source, _ = cmd.Flags().GetString("source")
	}
	if cmd.Flags().Lookup("snapshot") != nil && cmd.Flags().Changed("snapshot") {
		cfg.Catalog.SnapshotPath, _ = cmd.Flags().GetString("snapshot")
		if !cmd.Flags().Changed("source") {
			cfg.Catalog.Source = config.SourceSnapshot
		}
	}
	return cfg.Validate()
}

func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	cmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	cmd.Flags().String("api-key", "", "API key required in the X-API-Key header (empty disables authentication)")
}

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the uniclass REST API server.

The catalog is read from the local store, directly from the table files or
from a snapshot, depending on --source (or catalog.source in the config).

Examples:
  uniclass serve
  uniclass serve --source tables --tables-dir ./uniclass_tables --port 9000
  uniclass serve --snapshot ./uniclass.snap --api-key mysecretkey`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)
			if err := applyServeFlags(cmd, e.cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cmd, e)
		},
	}

	addServerFlags(serveCmd)
	serveCmd.Flags().String("source", "", "Catalog source: store, tables or snapshot")
	serveCmd.Flags().String("snapshot", "", "Snapshot file to serve (implies --source snapshot)")
	return serveCmd
}
