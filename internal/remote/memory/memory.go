// Package memory is an in-process remote.Collection.
package memory

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/remote"
)

type subscription struct {
	owner string
	box   *remote.Mailbox
}

// Collection keeps entries in insertion order.
type Collection struct {
	mu      sync.Mutex
	entries []entry.Entry
	subs    map[int]*subscription
	nextSub int
	closed  bool
	entropy *ulid.MonotonicEntropy
}

var _ remote.Collection = (*Collection)(nil)

// New returns a collection seeded with entries. Seeded entries without an
// ID get one.
func New(seed ...entry.Entry) *Collection {
	c := &Collection{
		subs:    make(map[int]*subscription),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	for _, e := range seed {
		if e.ID == "" {
			e.ID = c.newID()
		}
		c.entries = append(c.entries, e)
	}
	return c
}

func (c *Collection) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), c.entropy).String()
}

func (c *Collection) Subscribe(ownerID string, onSnapshot remote.SnapshotFunc, onError remote.ErrorFunc) func() {
	box := remote.NewMailbox(onSnapshot, onError)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		box.PushError(entry.Network("subscribe", remote.ErrClosed))
		return box.Close
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = &subscription{owner: ownerID, box: box}
	box.PushSnapshot(c.ownedLocked(ownerID))
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			box.Close()
		})
	}
}

func (c *Collection) Create(ctx context.Context, e entry.Entry) (entry.Entry, error) {
	if err := ctx.Err(); err != nil {
		return entry.Entry{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return entry.Entry{}, entry.Network("create", remote.ErrClosed)
	}
	e.ID = c.newID()
	c.entries = append(c.entries, e)
	c.notifyLocked(e.OwnerID)
	return e, nil
}

func (c *Collection) Get(ctx context.Context, id string) (entry.Entry, error) {
	if err := ctx.Err(); err != nil {
		return entry.Entry{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return entry.Entry{}, entry.Network("get", remote.ErrClosed)
	}
	i := c.indexLocked(id)
	if i < 0 {
		return entry.Entry{}, entry.NotFound(id)
	}
	return c.entries[i], nil
}

func (c *Collection) Update(ctx context.Context, id string, p entry.Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return entry.Network("update", remote.ErrClosed)
	}
	i := c.indexLocked(id)
	if i < 0 {
		return entry.NotFound(id)
	}
	c.entries[i] = p.Apply(c.entries[i])
	c.notifyLocked(c.entries[i].OwnerID)
	return nil
}

func (c *Collection) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return entry.Network("delete", remote.ErrClosed)
	}
	i := c.indexLocked(id)
	if i < 0 {
		return entry.NotFound(id)
	}
	owner := c.entries[i].OwnerID
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	c.notifyLocked(owner)
	return nil
}

// Fail delivers err to every subscription of ownerID.
func (c *Collection) Fail(ownerID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.subs {
		if s.owner == ownerID {
			s.box.PushError(err)
		}
	}
}

// Close stops every subscription. Later operations fail.
func (c *Collection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	for id, s := range c.subs {
		s.box.Close()
		delete(c.subs, id)
	}
	return nil
}

func (c *Collection) indexLocked(id string) int {
	for i, e := range c.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (c *Collection) ownedLocked(owner string) []entry.Entry {
	var out []entry.Entry
	for _, e := range c.entries {
		if e.OwnerID == owner {
			out = append(out, e)
		}
	}
	return out
}

func (c *Collection) notifyLocked(owner string) {
	var snap []entry.Entry
	built := false
	for _, s := range c.subs {
		if s.owner != owner {
			continue
		}
		if !built {
			snap = c.ownedLocked(owner)
			built = true
		}
		s.box.PushSnapshot(snap)
	}
}
