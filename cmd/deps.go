package cmd

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/xolan/outreach/internal/config"
	"github.com/xolan/outreach/internal/logging"
	"github.com/xolan/outreach/internal/service"
)

// Deps holds external dependencies for CLI commands, enabling testability.
type Deps struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	Exit   func(code int)

	// ConfigPath locates the config file.
	ConfigPath func() (string, error)
	// LoadConfig returns the effective configuration for the file at path.
	LoadConfig func(path string) (config.Config, error)
	// OpenServices connects to the configured backend.
	OpenServices func(ctx context.Context, configPath string, cfg config.Config, log logging.Logger) (*service.Services, error)
	// IsInteractive reports whether Stdin is a terminal.
	IsInteractive func() bool
}

// DefaultDeps returns the default production dependencies.
func DefaultDeps() *Deps {
	return &Deps{
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Stdin:      os.Stdin,
		Exit:       os.Exit,
		ConfigPath: config.GetConfigPath,
		LoadConfig: func(path string) (config.Config, error) {
			return config.Resolve(path, ".env")
		},
		OpenServices: service.Open,
		IsInteractive: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

// deps is the global dependencies instance used by commands.
// In production, this is DefaultDeps(). Tests can replace it.
var deps = DefaultDeps()

// SetDeps sets the global dependencies (for testing).
func SetDeps(d *Deps) {
	deps = d
}

// ResetDeps resets dependencies to defaults (for testing cleanup).
func ResetDeps() {
	deps = DefaultDeps()
}
