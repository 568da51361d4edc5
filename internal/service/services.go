// Package service wires configuration, the collection, the identity
// session, the store and the mutator together for the CLI and TUI.
package service

import (
	"context"
	"errors"

	"github.com/xolan/outreach/internal/auth"
	"github.com/xolan/outreach/internal/category"
	"github.com/xolan/outreach/internal/config"
	"github.com/xolan/outreach/internal/logging"
	"github.com/xolan/outreach/internal/mutator"
	"github.com/xolan/outreach/internal/remote"
	"github.com/xolan/outreach/internal/store"
)

// Services holds the application components.
type Services struct {
	Config     *ConfigService
	Categories *category.Registry
	Collection remote.Collection
	Session    *auth.Session
	Store      *store.Store
	Mutator    *mutator.Mutator
	Entry      *EntryService
	Log        logging.Logger

	unfollow func()
}

// Open connects to the backend selected by cfg and builds the services.
// configPath is where the config command reads and writes the file.
func Open(ctx context.Context, configPath string, cfg config.Config, log logging.Logger) (*Services, error) {
	coll, err := OpenCollection(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	s, err := NewServicesWith(coll, configPath, cfg, log)
	if err != nil {
		_ = coll.Close()
		return nil, err
	}
	return s, nil
}

// NewServicesWith builds the services over an open collection.
func NewServicesWith(coll remote.Collection, configPath string, cfg config.Config, log logging.Logger) (*Services, error) {
	if log == nil {
		log = logging.Nop()
	}
	sess, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	reg := category.Default()
	st := store.New(coll, log)
	mut := mutator.New(coll, reg, log)

	s := &Services{
		Config:     NewConfigService(configPath, cfg),
		Categories: reg,
		Collection: coll,
		Session:    sess,
		Store:      st,
		Mutator:    mut,
		Entry:      NewEntryService(st, mut, sess, reg),
		Log:        log,
	}
	s.unfollow = st.Follow(sess)
	return s, nil
}

// Close stops following the session, closes the store and the collection.
func (s *Services) Close() error {
	if s.unfollow != nil {
		s.unfollow()
		s.unfollow = nil
	}
	s.Store.Close()
	return s.Collection.Close()
}

// ErrNotSignedIn is returned by operations that need an identity.
var ErrNotSignedIn = errors.New("not signed in: set user in the config or OUTREACH_USER")
