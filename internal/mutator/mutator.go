// Package mutator validates user edits and sends them to the collection.
//
// The mutator never touches the store: results reach the displayed list
// through the subscription like any other change.
package mutator

import (
	"context"
	"fmt"
	"strings"

	"github.com/xolan/outreach/internal/category"
	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/logging"
	"github.com/xolan/outreach/internal/remote"
)

// Mutator creates, updates and deletes entries.
type Mutator struct {
	coll remote.Collection
	reg  *category.Registry
	log  logging.Logger
}

// New returns a mutator writing to coll and validating categories
// against reg.
func New(coll remote.Collection, reg *category.Registry, log logging.Logger) *Mutator {
	if log == nil {
		log = logging.Nop()
	}
	return &Mutator{coll: coll, reg: reg, log: log.With("component", "mutator")}
}

// Create validates d and stores it as a new entry owned by ownerID.
func (m *Mutator) Create(ctx context.Context, d entry.Draft, ownerID string) (entry.Entry, error) {
	if strings.TrimSpace(ownerID) == "" {
		return entry.Entry{}, entry.Invalid("owner", "sign in first")
	}
	d = d.Normalize()
	if err := d.Validate(m.reg); err != nil {
		m.log.Debug(ctx, "create rejected", "error", err)
		return entry.Entry{}, err
	}
	created, err := m.coll.Create(ctx, d.WithOwner(ownerID))
	if err != nil {
		m.log.Error(ctx, "create failed", "owner", ownerID, "error", err)
		return entry.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	m.log.Info(ctx, "entry created", "id", created.ID, "owner", ownerID)
	return created, nil
}

// Update applies p to id.
func (m *Mutator) Update(ctx context.Context, id string, p entry.Patch) error {
	if strings.TrimSpace(id) == "" {
		return entry.Invalid("id", "is required")
	}
	p = p.Normalize()
	if err := p.Validate(m.reg); err != nil {
		m.log.Debug(ctx, "update rejected", "id", id, "error", err)
		return err
	}
	if err := m.coll.Update(ctx, id, p); err != nil {
		m.log.Error(ctx, "update failed", "id", id, "error", err)
		return fmt.Errorf("update entry: %w", err)
	}
	m.log.Info(ctx, "entry updated", "id", id)
	return nil
}

// Delete removes id.
func (m *Mutator) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return entry.Invalid("id", "is required")
	}
	if err := m.coll.Delete(ctx, id); err != nil {
		m.log.Error(ctx, "delete failed", "id", id, "error", err)
		return fmt.Errorf("delete entry: %w", err)
	}
	m.log.Info(ctx, "entry deleted", "id", id)
	return nil
}

// Get fetches id for editing.
func (m *Mutator) Get(ctx context.Context, id string) (entry.Entry, error) {
	if strings.TrimSpace(id) == "" {
		return entry.Entry{}, entry.Invalid("id", "is required")
	}
	e, err := m.coll.Get(ctx, id)
	if err != nil {
		return entry.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}
