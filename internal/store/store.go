// Package store keeps the live snapshot of the signed-in user's entries.
//
// A Store holds at most one subscription. Every notification replaces the
// snapshot wholesale and is published to all observers. Callbacks from a
// subscription that has been released are ignored, so after an owner
// switch no entry of the previous owner can reappear.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/xolan/outreach/internal/auth"
	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/logging"
	"github.com/xolan/outreach/internal/remote"
)

// ErrNotOpen is returned by WaitFirst when the store has no subscription.
var ErrNotOpen = errors.New("store is not open")

// ErrorBuffer is the capacity of the Errors channel.
const ErrorBuffer = 16

// Observer receives every new snapshot. It must not modify entries.
type Observer func(entries []entry.Entry)

// Store is safe for concurrent use.
type Store struct {
	coll remote.Collection
	log  logging.Logger
	errs chan error

	// deliverMu makes snapshot replacement and fan-out one step.
	deliverMu sync.Mutex

	mu        sync.Mutex
	owner     string
	open      bool
	gen       uint64
	unsub     func()
	snapshot  []entry.Entry
	loaded    bool
	firstCh   chan struct{}
	observers map[int]Observer
	nextObs   int
}

// New returns a closed store over coll.
func New(coll remote.Collection, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{
		coll:      coll,
		log:       log.With("component", "store"),
		errs:      make(chan error, ErrorBuffer),
		observers: make(map[int]Observer),
	}
}

// Open subscribes to ownerID's entries. Opening the current owner again
// is a no-op. Opening another owner releases the current subscription
// first and clears the snapshot. An empty ownerID closes the store.
func (s *Store) Open(ownerID string) {
	if ownerID == "" {
		s.Close()
		return
	}

	s.mu.Lock()
	if s.open && s.owner == ownerID {
		s.mu.Unlock()
		return
	}
	prev := s.unsub
	s.unsub = nil
	s.releaseWaitersLocked()
	if s.owner != ownerID {
		s.snapshot = nil
	}
	s.gen++
	gen := s.gen
	s.owner = ownerID
	s.open = true
	s.loaded = false
	s.firstCh = make(chan struct{})
	s.mu.Unlock()

	if prev != nil {
		prev()
	}

	ctx := context.Background()
	s.log.Debug(ctx, "subscribing", "owner", ownerID)
	unsub := s.coll.Subscribe(ownerID,
		func(entries []entry.Entry) { s.deliver(gen, entries) },
		func(err error) { s.fail(gen, err) },
	)

	s.mu.Lock()
	if s.gen != gen {
		// Closed or reopened while subscribing.
		s.mu.Unlock()
		unsub()
		return
	}
	s.unsub = unsub
	s.mu.Unlock()
}

// Close releases the subscription. The last snapshot stays readable.
// Close is idempotent and may be called from an observer.
func (s *Store) Close() {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return
	}
	s.open = false
	s.gen++
	unsub := s.unsub
	s.unsub = nil
	s.releaseWaitersLocked()
	owner := s.owner
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	s.log.Debug(context.Background(), "closed", "owner", owner)
}

func (s *Store) releaseWaitersLocked() {
	if s.firstCh != nil && !s.loaded {
		close(s.firstCh)
	}
	s.firstCh = nil
}

func (s *Store) deliver(gen uint64, entries []entry.Entry) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	if !s.open || gen != s.gen {
		s.mu.Unlock()
		return
	}
	snap := make([]entry.Entry, len(entries))
	copy(snap, entries)
	s.snapshot = snap
	if !s.loaded {
		s.loaded = true
		close(s.firstCh)
	}
	obs := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		obs = append(obs, fn)
	}
	s.mu.Unlock()

	for _, fn := range obs {
		if !s.current(gen) {
			return
		}
		fn(snap)
	}
}

func (s *Store) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open && s.gen == gen
}

func (s *Store) fail(gen uint64, err error) {
	s.mu.Lock()
	if !s.open || gen != s.gen {
		s.mu.Unlock()
		return
	}
	owner := s.owner
	s.mu.Unlock()

	s.log.Warn(context.Background(), "subscription error", "owner", owner, "error", err)
	s.pushError(&entry.SubscriptionError{Owner: owner, Err: err})
}

// pushError drops the oldest buffered error when the channel is full.
func (s *Store) pushError(err error) {
	for {
		select {
		case s.errs <- err:
			return
		default:
		}
		select {
		case <-s.errs:
		default:
		}
	}
}

// Snapshot returns a copy of the current entries in collection order.
func (s *Store) Snapshot() []entry.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entry.Entry, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// Owner returns the owner of the current or last subscription.
func (s *Store) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// IsOpen reports whether a subscription is active.
func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Loaded reports whether the current subscription delivered a snapshot.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open && s.loaded
}

// Observe registers fn for future snapshots.
func (s *Store) Observe(fn Observer) (cancel func()) {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Errors delivers subscription failures as *entry.SubscriptionError. The
// channel is never closed.
func (s *Store) Errors() <-chan error {
	return s.errs
}

// WaitFirst blocks until the current subscription delivered its first
// snapshot. It returns ErrNotOpen if the store is or becomes closed.
func (s *Store) WaitFirst(ctx context.Context) error {
	for {
		s.mu.Lock()
		if !s.open {
			s.mu.Unlock()
			return ErrNotOpen
		}
		if s.loaded {
			s.mu.Unlock()
			return nil
		}
		ch := s.firstCh
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Follow opens the store for every signed-in identity of a and closes it
// on sign-out.
func (s *Store) Follow(a auth.Authenticator) (cancel func()) {
	return a.Watch(func(id auth.Identity) {
		if id.SignedIn && id.UserID != "" {
			s.Open(id.UserID)
			return
		}
		s.Close()
	})
}
