// Package remote defines the contract between outreach and the live,
// multi-writer collection that stores entries.
//
// A Collection pushes full snapshots, never deltas: every notification
// carries all entries currently owned by the subscribed owner, in the
// collection's own order. Implementations live in the subpackages:
//
//   - memory     in-process collection, used by tests and the memory backend
//   - jsonlfile  JSON Lines file shared between processes
//   - postgres   PostgreSQL with LISTEN/NOTIFY
//   - wsremote   websocket client/server exposing any other Collection
package remote

import (
	"context"
	"errors"

	"github.com/xolan/outreach/internal/entry"
)

// SnapshotFunc receives a full snapshot of one owner's entries.
type SnapshotFunc func(entries []entry.Entry)

// ErrorFunc receives asynchronous subscription failures.
type ErrorFunc func(err error)

// Collection is a remote, multi-writer collection of entries.
//
// Subscribe delivers an initial snapshot and then a new one after every
// change affecting ownerID. Callbacks for one subscription are never run
// concurrently. The returned function stops delivery; it is idempotent and
// may be called from inside a callback.
//
// Create expects e.ID to be empty and e.OwnerID to be set; it returns the
// stored entry with its assigned ID. Update and Delete return an error
// matching entry.ErrNotFound when id does not exist.
type Collection interface {
	Subscribe(ownerID string, onSnapshot SnapshotFunc, onError ErrorFunc) (unsubscribe func())
	Create(ctx context.Context, e entry.Entry) (entry.Entry, error)
	Get(ctx context.Context, id string) (entry.Entry, error)
	Update(ctx context.Context, id string, p entry.Patch) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// ErrClosed is returned by operations on a closed collection.
var ErrClosed = errors.New("collection closed")
