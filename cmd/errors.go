package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/xolan/outreach/internal/config"
	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/logging"
	"github.com/xolan/outreach/internal/service"
	"github.com/xolan/outreach/internal/store"
)

// loadConfig resolves the effective configuration. On failure it reports
// the error, exits and returns ok == false.
func loadConfig() (path string, cfg config.Config, ok bool) {
	path, err := deps.ConfigPath()
	if err != nil {
		_, _ = fmt.Fprintln(deps.Stderr, "Error: Failed to determine config file location")
		_, _ = fmt.Fprintf(deps.Stderr, "Details: %v\n", err)
		_, _ = fmt.Fprintln(deps.Stderr, "Hint: Check that your home directory is accessible")
		deps.Exit(1)
		return "", config.Config{}, false
	}
	cfg, err = deps.LoadConfig(path)
	if err != nil {
		_, _ = fmt.Fprintln(deps.Stderr, "Error: Failed to load configuration")
		_, _ = fmt.Fprintf(deps.Stderr, "Details: %v\n", err)
		_, _ = fmt.Fprintf(deps.Stderr, "Hint: Check %s and any OUTREACH_* environment variables\n", path)
		deps.Exit(1)
		return "", config.Config{}, false
	}
	return path, cfg, true
}

func newLogger(cfg config.Config) logging.Logger {
	return logging.New(deps.Stderr, cfg.LogFormat, cfg.LogLevel)
}

// openServices loads the config and connects to the backend. It returns
// nil after reporting a failure.
func openServices(ctx context.Context) *service.Services {
	path, cfg, ok := loadConfig()
	if !ok {
		return nil
	}
	s, err := deps.OpenServices(ctx, path, cfg, newLogger(cfg))
	if err != nil {
		_, _ = fmt.Fprintf(deps.Stderr, "Error: Failed to open the %s backend\n", cfg.Backend)
		_, _ = fmt.Fprintf(deps.Stderr, "Details: %v\n", err)
		_, _ = fmt.Fprintln(deps.Stderr, backendHint(cfg))
		deps.Exit(1)
		return nil
	}
	return s
}

func backendHint(cfg config.Config) string {
	switch cfg.Backend {
	case config.BackendPostgres:
		return "Hint: Check postgres_dsn and that the database is reachable"
	case config.BackendRemote:
		return "Hint: Check server_url and token, or mint a new token with 'outreach token <user>'"
	case config.BackendFile:
		return "Hint: Check that the entries file is readable and writable"
	}
	return "Hint: Run 'outreach config' to inspect the settings"
}

// reportError prints a failed action with a hint matching the error kind
// and exits.
func reportError(action string, err error) {
	_, _ = fmt.Fprintf(deps.Stderr, "Error: Failed to %s\n", action)
	_, _ = fmt.Fprintf(deps.Stderr, "Details: %v\n", err)
	if hint := errorHint(err); hint != "" {
		_, _ = fmt.Fprintf(deps.Stderr, "Hint: %s\n", hint)
	}
	deps.Exit(1)
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, service.ErrNotSignedIn):
		return "Set user in the config file or export OUTREACH_USER"
	case errors.Is(err, entry.ErrNotFound):
		return "Run 'outreach list' to see entry IDs"
	case errors.Is(err, entry.ErrValidation):
		return "Run 'outreach categories' for valid category names"
	case errors.Is(err, entry.ErrSubscription), errors.Is(err, entry.ErrNetwork):
		return "Check that the backend is reachable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, store.ErrNotOpen):
		return "The backend did not deliver the entry list in time"
	}
	return ""
}
