/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/uniclass/pkg/config"
)

func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a default configuration file.

The file is written to --config, or to the OS-specific default location.
An existing file is left alone unless --force is given.

Examples:
  uniclass init
  uniclass init --config ./uniclass.yaml --data-dir ./data --api-key`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)
			force, _ := cmd.Flags().GetBool("force")
			withKey, _ := cmd.Flags().GetBool("api-key")

			if config.ConfigExists(e.configPath) && !force {
				cmd.Printf("Configuration already exists at %s. Use --force to overwrite.\n", e.configPath)
				return nil
			}

			dataDir := ""
			if cmd.Flags().Changed("data-dir") {
				dataDir = e.cfg.DataDir
			}
			cfg, err := config.BootstrapConfig(e.configPath, dataDir, withKey)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("tables-dir") {
				cfg.TablesDir = e.cfg.TablesDir
				if err := config.SaveConfig(cfg, e.configPath); err != nil {
					return err
				}
			}

			cmd.Printf("✅ Configuration written to %s\n", e.configPath)
			cmd.Printf("Data directory: %s\n", cfg.DataDir)
			cmd.Printf("Tables directory: %s\n", cfg.TablesDir)
			if cfg.Security.APIKey != "" {
				cmd.Printf("API key: %s\n", cfg.Security.APIKey)
			}
			cmd.Printf("\nNext: uniclass import --config %s\n", e.configPath)
			return nil
		},
	}

	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	initCmd.Flags().Bool("api-key", false, "Generate an API key protecting the HTTP API")
	return initCmd
}
