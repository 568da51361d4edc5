package service

import (
	"context"
	"time"

	"github.com/xolan/outreach/internal/auth"
	"github.com/xolan/outreach/internal/category"
	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/mutator"
	"github.com/xolan/outreach/internal/store"
	"github.com/xolan/outreach/internal/view"
)

// DefaultWait bounds how long one-shot commands wait for the first
// snapshot.
const DefaultWait = 10 * time.Second

// ListOptions selects and orders entries for List.
type ListOptions struct {
	Query string
	Sort  *view.SortState
}

// EntryService runs one-shot entry operations for the signed-in user.
type EntryService struct {
	store   *store.Store
	mutator *mutator.Mutator
	session auth.Authenticator
	reg     *category.Registry
}

// NewEntryService creates an EntryService.
func NewEntryService(st *store.Store, mut *mutator.Mutator, session auth.Authenticator, reg *category.Registry) *EntryService {
	return &EntryService{store: st, mutator: mut, session: session, reg: reg}
}

func (s *EntryService) owner() (string, error) {
	id := s.session.Current()
	if !id.SignedIn {
		return "", ErrNotSignedIn
	}
	return id.UserID, nil
}

// List waits for the current snapshot and returns it filtered and sorted.
func (s *EntryService) List(ctx context.Context, opts ListOptions) ([]view.Row, error) {
	if _, err := s.owner(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultWait)
	defer cancel()
	if err := s.store.WaitFirst(ctx); err != nil {
		return nil, err
	}

	v := view.New(s.reg)
	v.Refresh(s.store.Snapshot())
	v.SetQuery(opts.Query)
	if opts.Sort != nil {
		v.SetSort(opts.Sort.Column, opts.Sort.Direction)
	}
	return v.Rows(), nil
}

// Add creates an entry for the signed-in user.
func (s *EntryService) Add(ctx context.Context, d entry.Draft) (entry.Entry, error) {
	owner, err := s.owner()
	if err != nil {
		return entry.Entry{}, err
	}
	return s.mutator.Create(ctx, d, owner)
}

// Get returns an entry of the signed-in user.
func (s *EntryService) Get(ctx context.Context, id string) (entry.Entry, error) {
	owner, err := s.owner()
	if err != nil {
		return entry.Entry{}, err
	}
	e, err := s.mutator.Get(ctx, id)
	if err != nil {
		return entry.Entry{}, err
	}
	if e.OwnerID != owner {
		return entry.Entry{}, entry.NotFound(id)
	}
	return e, nil
}

// Edit applies p to an entry of the signed-in user.
func (s *EntryService) Edit(ctx context.Context, id string, p entry.Patch) (entry.Entry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return entry.Entry{}, err
	}
	if err := s.mutator.Update(ctx, id, p); err != nil {
		return entry.Entry{}, err
	}
	return s.Get(ctx, id)
}

// Delete removes an entry of the signed-in user and returns it.
func (s *EntryService) Delete(ctx context.Context, id string) (entry.Entry, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return entry.Entry{}, err
	}
	if err := s.mutator.Delete(ctx, id); err != nil {
		return entry.Entry{}, err
	}
	return e, nil
}
