// Package jsonlfile is a remote.Collection backed by a JSON Lines file.
//
// Several processes may share one file. Writers in this process are
// serialized; changes made by other processes are picked up by polling the
// file's size and modification time.
package jsonlfile

import (
	"context"
	"crypto/rand"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/logging"
	"github.com/xolan/outreach/internal/remote"
)

// DefaultPollInterval is used when Options.PollInterval is zero.
const DefaultPollInterval = time.Second

// Options configures a Collection.
type Options struct {
	PollInterval time.Duration
	Logger       logging.Logger
}

// Collection stores entries in a JSON Lines file.
type Collection struct {
	path     string
	interval time.Duration
	log      logging.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	closed  bool
	subs    map[*watcher]struct{}
}

var _ remote.Collection = (*Collection)(nil)

// New returns a collection over path.
func New(path string, opts Options) *Collection {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &Collection{
		path:     path,
		interval: opts.PollInterval,
		log:      opts.Logger.With("backend", "file", "path", path),
		entropy:  ulid.Monotonic(rand.Reader, 0),
		subs:     make(map[*watcher]struct{}),
	}
}

// Path returns the backing file.
func (c *Collection) Path() string { return c.path }

func (c *Collection) read(ctx context.Context) ([]entry.Entry, error) {
	res, err := ReadEntries(c.path)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		c.log.Warn(ctx, "skipping corrupt line", "line", w.LineNumber, "error", w.Error)
	}
	return res.Entries, nil
}

func (c *Collection) Create(ctx context.Context, e entry.Entry) (entry.Entry, error) {
	if err := ctx.Err(); err != nil {
		return entry.Entry{}, err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return entry.Entry{}, entry.Network("create", remote.ErrClosed)
	}
	e.ID = ulid.MustNew(ulid.Timestamp(time.Now()), c.entropy).String()
	err := appendEntry(c.path, e)
	c.mu.Unlock()
	if err != nil {
		return entry.Entry{}, entry.Network("create", err)
	}
	c.kick()
	return e, nil
}

func (c *Collection) Get(ctx context.Context, id string) (entry.Entry, error) {
	if err := ctx.Err(); err != nil {
		return entry.Entry{}, err
	}
	all, err := c.read(ctx)
	if err != nil {
		return entry.Entry{}, entry.Network("get", err)
	}
	for _, e := range all {
		if e.ID == id {
			return e, nil
		}
	}
	return entry.Entry{}, entry.NotFound(id)
}

func (c *Collection) Update(ctx context.Context, id string, p entry.Patch) error {
	return c.rewrite(ctx, "update", id, func(all []entry.Entry, i int) []entry.Entry {
		all[i] = p.Apply(all[i])
		return all
	})
}

func (c *Collection) Delete(ctx context.Context, id string) error {
	return c.rewrite(ctx, "delete", id, func(all []entry.Entry, i int) []entry.Entry {
		return append(all[:i], all[i+1:]...)
	})
}

// rewrite applies fn to the entry with id and writes the file back after
// taking a backup.
func (c *Collection) rewrite(ctx context.Context, op, id string, fn func([]entry.Entry, int) []entry.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return entry.Network(op, remote.ErrClosed)
	}

	all, err := c.read(ctx)
	if err != nil {
		return entry.Network(op, err)
	}
	idx := -1
	for i, e := range all {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return entry.NotFound(id)
	}
	if err := CreateBackup(c.path); err != nil {
		c.log.Warn(ctx, "backup failed", "error", err)
	}
	if err := writeEntries(c.path, fn(all, idx)); err != nil {
		return entry.Network(op, err)
	}
	go c.kick()
	return nil
}

// kick makes every watcher re-read immediately.
func (c *Collection) kick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for w := range c.subs {
		select {
		case w.kick <- struct{}{}:
		default:
		}
	}
}

func (c *Collection) Subscribe(ownerID string, onSnapshot remote.SnapshotFunc, onError remote.ErrorFunc) func() {
	w := &watcher{
		c:     c,
		owner: ownerID,
		box:   remote.NewMailbox(onSnapshot, onError),
		kick:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		w.box.PushError(entry.Network("subscribe", remote.ErrClosed))
		close(w.done)
		return w.box.Close
	}
	c.subs[w] = struct{}{}
	c.mu.Unlock()

	go w.run()

	return func() {
		c.mu.Lock()
		delete(c.subs, w)
		c.mu.Unlock()
		w.halt()
	}
}

// Close stops every watcher and waits for them to exit.
func (c *Collection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	subs := c.subs
	c.subs = make(map[*watcher]struct{})
	c.mu.Unlock()

	for w := range subs {
		w.halt()
		<-w.done
	}
	return nil
}

type watcher struct {
	c     *Collection
	owner string
	box   *remote.Mailbox
	kick  chan struct{}
	stop  chan struct{}
	done  chan struct{}

	stopOnce sync.Once
}

// halt stops polling and delivery. Both Close and unsubscribe end up here,
// in either order.
func (w *watcher) halt() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.box.Close()
	})
}

type fileStamp struct {
	exists  bool
	size    int64
	modTime time.Time
}

func stamp(path string) (fileStamp, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fileStamp{}, nil
		}
		return fileStamp{}, err
	}
	return fileStamp{exists: true, size: fi.Size(), modTime: fi.ModTime()}, nil
}

func (w *watcher) run() {
	defer close(w.done)
	ctx := context.Background()
	ticker := time.NewTicker(w.c.interval)
	defer ticker.Stop()

	var (
		last    fileStamp
		failing bool
	)
	poll := func(force bool) {
		st, err := stamp(w.c.path)
		if err == nil && !force && st == last {
			return
		}
		var all []entry.Entry
		if err == nil {
			all, err = w.c.read(ctx)
		}
		if err != nil {
			if !failing {
				w.c.log.Error(ctx, "poll failed", "owner", w.owner, "error", err)
				w.box.PushError(entry.Network("poll", err))
			}
			failing = true
			return
		}
		if failing {
			w.c.log.Info(ctx, "poll recovered", "owner", w.owner)
		}
		failing = false
		last = st
		w.box.PushSnapshot(filterOwner(all, w.owner))
	}

	poll(true)
	for {
		select {
		case <-w.stop:
			return
		case <-w.kick:
			poll(true)
		case <-ticker.C:
			poll(false)
		}
	}
}

func filterOwner(all []entry.Entry, owner string) []entry.Entry {
	out := make([]entry.Entry, 0, len(all))
	for _, e := range all {
		if e.OwnerID == owner {
			out = append(out, e)
		}
	}
	return out
}
