package service

import (
	"context"
	"fmt"

	"github.com/xolan/outreach/internal/auth"
	"github.com/xolan/outreach/internal/config"
	"github.com/xolan/outreach/internal/logging"
	"github.com/xolan/outreach/internal/remote"
	"github.com/xolan/outreach/internal/remote/jsonlfile"
	"github.com/xolan/outreach/internal/remote/memory"
	"github.com/xolan/outreach/internal/remote/postgres"
	"github.com/xolan/outreach/internal/remote/wsremote"
)

// OpenCollection connects to the backend selected by cfg.
func OpenCollection(ctx context.Context, cfg config.Config, log logging.Logger) (remote.Collection, error) {
	if err := cfg.RequireBackend(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendFile:
		path := cfg.FilePath
		if path == "" {
			var err error
			if path, err = jsonlfile.DefaultPath(); err != nil {
				return nil, fmt.Errorf("entries file: %w", err)
			}
		}
		return jsonlfile.New(path, jsonlfile.Options{PollInterval: cfg.Poll(), Logger: log}), nil
	case config.BackendPostgres:
		return postgres.Open(ctx, cfg.PostgresDSN, log)
	case config.BackendRemote:
		return wsremote.Dial(ctx, cfg.ServerURL, cfg.Token, wsremote.ClientOptions{Logger: log})
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// NewSession returns the session for cfg. With the remote backend the
// identity is the token subject; otherwise it is the configured user,
// and an empty user starts signed out.
func NewSession(cfg config.Config) (*auth.Session, error) {
	if cfg.Backend == config.BackendRemote {
		s, err := auth.FromToken(cfg.Token)
		if err != nil {
			return nil, fmt.Errorf("token: %w", err)
		}
		return s, nil
	}
	s := auth.NewSession()
	s.SignIn(cfg.User)
	return s, nil
}
