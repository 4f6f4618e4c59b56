/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/uniclass/pkg/config"
)

const (
	serviceName    = "uniclass.service"
	defaultUnitDir = "/etc/systemd/system"
	defaultBinary  = "/usr/local/bin/uniclass"
)

// commandRunner runs external commands; tests replace it.
var commandRunner = runCommand

func newServiceCmd() *cobra.Command {
	serviceCmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the uniclass API server as a systemd service",
		Long: `Manage the uniclass API server as a systemd service. This command provides
native integration with systemd for production deployments.

The service will be installed with proper security settings and
automatic restart on failure.`,
	}

	installServiceCmd := &cobra.Command{
		Use:   "install",
		Short: "Install uniclass as a systemd service",
		Long: `Install the uniclass API server as a systemd service.

This will:
- Create or use existing configuration
- Generate systemd unit file
- Enable and optionally start the service

Examples:
  uniclass service install
  uniclass service install --data-dir /var/lib/uniclass --user uniclass`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)
			user, _ := cmd.Flags().GetString("user")
			unitDir, _ := cmd.Flags().GetString("unit-dir")
			binary, _ := cmd.Flags().GetString("binary")
			startNow, _ := cmd.Flags().GetBool("start")

			if unitDir == defaultUnitDir && os.Geteuid() != 0 {
				return fmt.Errorf("service install requires root privileges (run with: sudo uniclass service install)")
			}

			cmd.Printf("🔧 Installing uniclass systemd service...\n")

			if err := applyServeFlags(cmd, e.cfg); err != nil {
				return err
			}
			if err := config.SaveConfig(e.cfg, e.configPath); err != nil {
				return err
			}
			cmd.Printf("✅ Configuration saved to %s\n", e.configPath)

			unitPath := filepath.Join(unitDir, serviceName)
			if err := createSystemdUnit(unitPath, e.cfg, e.configPath, user, binary); err != nil {
				return fmt.Errorf("failed to create systemd unit: %w", err)
			}

			if err := runSystemctlCommand("daemon-reload"); err != nil {
				return fmt.Errorf("failed to reload systemd: %w", err)
			}
			if err := runSystemctlCommand("enable", serviceName); err != nil {
				return fmt.Errorf("failed to enable service: %w", err)
			}
			cmd.Printf("✅ Service enabled successfully\n")

			if startNow {
				if err := runSystemctlCommand("start", serviceName); err != nil {
					return fmt.Errorf("failed to start service: %w", err)
				}
				cmd.Printf("✅ Service started successfully\n")
			}

			cmd.Printf("\n🎉 uniclass service installed!\n")
			cmd.Printf("Unit: %s\n", unitPath)
			cmd.Printf("Config: %s\n", e.configPath)
			cmd.Printf("Data: %s\n", e.cfg.DataDir)
			cmd.Printf("Port: %d\n", e.cfg.Port)
			if !startNow {
				cmd.Printf("\nTo start the service: sudo systemctl start %s\n", serviceName)
			}
			cmd.Printf("To check status: sudo systemctl status %s\n", serviceName)
			cmd.Printf("To view logs: sudo journalctl -u %s -f\n", serviceName)
			return nil
		},
	}
	addServerFlags(installServiceCmd)
	installServiceCmd.Flags().String("user", "uniclass", "User to run the service as")
	installServiceCmd.Flags().String("unit-dir", defaultUnitDir, "Directory to write the unit file to")
	installServiceCmd.Flags().String("binary", defaultBinary, "Path of the uniclass binary")
	installServiceCmd.Flags().Bool("start", true, "Start the service after installation")

	serviceCmd.AddCommand(installServiceCmd)
	for _, action := range []struct{ name, short, done string }{
		{"start", "Start the uniclass service", "started"},
		{"stop", "Stop the uniclass service", "stopped"},
		{"restart", "Restart the uniclass service", "restarted"},
		{"status", "Show uniclass service status", ""},
	} {
		serviceCmd.AddCommand(&cobra.Command{
			Use:   action.name,
			Short: action.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := runSystemctlCommand(action.name, serviceName); err != nil {
					return fmt.Errorf("systemctl %s: %w", action.name, err)
				}
				if action.done != "" {
					cmd.Printf("✅ uniclass service %s\n", action.done)
				}
				return nil
			},
		})
	}

	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Show uniclass service logs",
		Long: `Show uniclass service logs using journalctl.

Examples:
  uniclass service logs
  uniclass service logs -f  # Follow logs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			follow, _ := cmd.Flags().GetBool("follow")
			lines, _ := cmd.Flags().GetInt("lines")
			return commandRunner("journalctl", journalArgs(follow, lines)...)
		},
	}
	logsCmd.Flags().BoolP("follow", "f", false, "Follow log output")
	logsCmd.Flags().IntP("lines", "n", 0, "Number of lines to show")
	serviceCmd.AddCommand(logsCmd)

	uninstallCmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Uninstall the uniclass service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			unitDir, _ := cmd.Flags().GetString("unit-dir")
			if unitDir == defaultUnitDir && os.Geteuid() != 0 {
				return fmt.Errorf("service uninstall requires root privileges (run with: sudo uniclass service uninstall)")
			}

			cmd.Printf("🗑️  Uninstalling uniclass service...\n")
			_ = runSystemctlCommand("stop", serviceName) // Ignore errors if already stopped
			if err := runSystemctlCommand("disable", serviceName); err != nil {
				cmd.Printf("Warning: could not disable service: %v\n", err)
			}

			unitPath := filepath.Join(unitDir, serviceName)
			if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove unit file: %w", err)
			}
			if err := runSystemctlCommand("daemon-reload"); err != nil {
				return fmt.Errorf("failed to reload systemd: %w", err)
			}

			cmd.Printf("✅ uniclass service uninstalled\n")
			cmd.Printf("Note: Configuration and data files were not removed\n")
			return nil
		},
	}
	uninstallCmd.Flags().String("unit-dir", defaultUnitDir, "Directory holding the unit file")
	serviceCmd.AddCommand(uninstallCmd)

	return serviceCmd
}

func journalArgs(follow bool, lines int) []string {
	args := []string{"-u", serviceName}
	if follow {
		args = append(args, "-f")
	}
	if lines > 0 {
		args = append(args, fmt.Sprintf("-n%d", lines))
	}
	return args
}

// renderSystemdUnit returns the unit file running the API server.
func renderSystemdUnit(cfg *config.Config, configPath, user, binary string) string {
	return fmt.Sprintf(`[Unit]
Description=Uniclass API Server
After=network-online.target
Wants=network-online.target

[Service]
User=%s
Group=%s
ExecStart=%s serve --config %s
Restart=on-failure
NoNewPrivileges=true
UMask=0077
ReadWritePaths=%s
ReadOnlyPaths=%s
ReadOnlyPaths=%s

[Install]
WantedBy=multi-user.target
`, user, user, binary, configPath, cfg.DataDir, cfg.TablesDir, filepath.Dir(configPath))
}

// createSystemdUnit writes the unit file to unitPath
func createSystemdUnit(unitPath string, cfg *config.Config, configPath, user, binary string) error {
	return os.WriteFile(unitPath, []byte(renderSystemdUnit(cfg, configPath, user, binary)), 0600)
}

// runSystemctlCommand runs a systemctl command
func runSystemctlCommand(args ...string) error {
	return commandRunner("systemctl", args...)
}

// runCommand runs a system command and returns its error
func runCommand(command string, args ...string) error {
	cmd := exec.Command(command, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
