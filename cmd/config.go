package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xolan/outreach/internal/config"
	"github.com/xolan/outreach/internal/service"
)

var configInit bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display or manage configuration settings",
	Long: `Display the effective configuration: the config file location, whether
it exists, and every setting after .env and OUTREACH_* environment
overrides are applied. Secrets are shown only as set or unset.

outreach works without a config file, using a file backend in the config
directory. Use --init to write a commented sample file.

Examples:
  outreach config          Show all current settings
  outreach config --init   Create a sample config file

Configuration file location:
  ~/.config/outreach/config.toml          Linux/macOS
  %APPDATA%\outreach\config.toml          Windows`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if configInit {
			initConfig()
			return
		}
		showConfig()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&configInit, "init", false, "Write a sample config file")
}

func secretStatus(s string) string {
	if s == "" {
		return "(not set)"
	}
	return "(set)"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// showConfig displays the current effective configuration
func showConfig() {
	path, cfg, ok := loadConfig()
	if !ok {
		return
	}
	cs := service.NewConfigService(path, cfg)

	_, _ = fmt.Fprintln(deps.Stdout, "Configuration for outreach")
	_, _ = fmt.Fprintln(deps.Stdout, strings.Repeat("=", 60))
	_, _ = fmt.Fprintln(deps.Stdout)

	_, _ = fmt.Fprintf(deps.Stdout, "Config file:     %s\n", cs.GetPath())
	if cs.Exists() {
		_, _ = fmt.Fprintln(deps.Stdout, "Status:          File exists (using custom configuration)")
	} else {
		_, _ = fmt.Fprintln(deps.Stdout, "Status:          No config file (using defaults)")
	}
	_, _ = fmt.Fprintln(deps.Stdout)

	_, _ = fmt.Fprintln(deps.Stdout, "Current Settings:")
	_, _ = fmt.Fprintln(deps.Stdout, strings.Repeat("-", 60))
	_, _ = fmt.Fprintf(deps.Stdout, "Backend:         %s\n", cfg.Backend)
	_, _ = fmt.Fprintf(deps.Stdout, "User:            %s\n", orDefault(cfg.User, "(signed out)"))
	switch cfg.Backend {
	case config.BackendFile:
		_, _ = fmt.Fprintf(deps.Stdout, "File path:       %s\n", orDefault(cfg.FilePath, "(default)"))
		_, _ = fmt.Fprintf(deps.Stdout, "Poll interval:   %s\n", cfg.PollInterval)
	case config.BackendPostgres:
		_, _ = fmt.Fprintf(deps.Stdout, "Postgres DSN:    %s\n", secretStatus(cfg.PostgresDSN))
	case config.BackendRemote:
		_, _ = fmt.Fprintf(deps.Stdout, "Server URL:      %s\n", orDefault(cfg.ServerURL, "(not set)"))
		_, _ = fmt.Fprintf(deps.Stdout, "Token:           %s\n", secretStatus(cfg.Token))
	}
	_, _ = fmt.Fprintf(deps.Stdout, "Listen address:  %s\n", cfg.ListenAddr)
	_, _ = fmt.Fprintf(deps.Stdout, "Token secret:    %s\n", secretStatus(cfg.TokenSecret))
	_, _ = fmt.Fprintf(deps.Stdout, "Token TTL:       %s\n", cfg.TokenTTL)
	_, _ = fmt.Fprintf(deps.Stdout, "Log level:       %s\n", cfg.LogLevel)
	_, _ = fmt.Fprintf(deps.Stdout, "Log format:      %s\n", cfg.LogFormat)
	_, _ = fmt.Fprintln(deps.Stdout)

	if err := cfg.RequireBackend(); err != nil {
		_, _ = fmt.Fprintf(deps.Stdout, "Warning: %v\n", err)
		_, _ = fmt.Fprintln(deps.Stdout)
	}
	if !cs.Exists() {
		_, _ = fmt.Fprintln(deps.Stdout, "Tip: Run 'outreach config --init' to create a sample config file.")
		_, _ = fmt.Fprintln(deps.Stdout)
	}
}

func initConfig() {
	path, cfg, ok := loadConfig()
	if !ok {
		return
	}
	if err := service.NewConfigService(path, cfg).Init(); err != nil {
		_, _ = fmt.Fprintln(deps.Stderr, "Error: Failed to create config file")
		_, _ = fmt.Fprintf(deps.Stderr, "Details: %v\n", err)
		deps.Exit(1)
		return
	}
	_, _ = fmt.Fprintf(deps.Stdout, "Created config file at %s\n", path)
}
