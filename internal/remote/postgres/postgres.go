// Package postgres is a remote.Collection stored in PostgreSQL.
//
// Changes are pushed by a row trigger that issues NOTIFY on the
// entries_changed channel with the owner id as payload. Each subscription
// holds its own connection LISTENing on that channel and re-queries the
// owner's entries on every matching notification.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/logging"
	"github.com/xolan/outreach/internal/remote"
	"github.com/xolan/outreach/internal/remote/postgres/migrations"
)

// Channel is the NOTIFY channel written by the entries trigger.
const Channel = "entries_changed"

const (
	minBackoff = 100 * time.Millisecond
	maxBackoff = 5 * time.Second
)

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Collection stores entries in the entries table.
type Collection struct {
	pool *pgxpool.Pool
	log  logging.Logger

	mu     sync.Mutex
	closed bool
	subs   map[*listener]struct{}
}

var _ remote.Collection = (*Collection)(nil)

// Open connects to dsn, applies migrations and returns a collection.
func Open(ctx context.Context, dsn string, log logging.Logger) (*Collection, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, entry.Network("connect", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}
	return New(pool, log), nil
}

// New wraps an existing pool. The schema must already be migrated.
func New(pool *pgxpool.Pool, log logging.Logger) *Collection {
	if log == nil {
		log = logging.Nop()
	}
	return &Collection{
		pool: pool,
		log:  log.With("backend", "postgres"),
		subs: make(map[*listener]struct{}),
	}
}

// Migrate applies the embedded migrations through a database/sql handle
// sharing pool's connections.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

const selectColumns = `id::text, owner_id, name, email, contact_user, category`

func scanEntry(row pgx.Row) (entry.Entry, error) {
	var e entry.Entry
	err := row.Scan(&e.ID, &e.OwnerID, &e.Name, &e.Email, &e.User, &e.Category)
	return e, err
}

// parseID reports whether id can exist in the table.
func parseID(id string) (uuid.UUID, bool) {
	u, err := uuid.Parse(id)
	return u, err == nil
}

func (c *Collection) list(ctx context.Context, owner string) ([]entry.Entry, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM entries WHERE owner_id = $1 ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entry.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (c *Collection) Create(ctx context.Context, e entry.Entry) (entry.Entry, error) {
	row := c.pool.QueryRow(ctx,
		`INSERT INTO entries (owner_id, name, email, contact_user, category)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+selectColumns,
		e.OwnerID, e.Name, e.Email, e.User, e.Category)
	created, err := scanEntry(row)
	if err != nil {
		return entry.Entry{}, entry.Network("create", err)
	}
	return created, nil
}

func (c *Collection) Get(ctx context.Context, id string) (entry.Entry, error) {
	u, ok := parseID(id)
	if !ok {
		return entry.Entry{}, entry.NotFound(id)
	}
	e, err := scanEntry(c.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM entries WHERE id = $1`, u))
	if errors.Is(err, pgx.ErrNoRows) {
		return entry.Entry{}, entry.NotFound(id)
	}
	if err != nil {
		return entry.Entry{}, entry.Network("get", err)
	}
	return e, nil
}

func (c *Collection) Update(ctx context.Context, id string, p entry.Patch) error {
	u, ok := parseID(id)
	if !ok {
		return entry.NotFound(id)
	}
	tag, err := c.pool.Exec(ctx,
		`UPDATE entries SET
		    name = COALESCE($2, name),
		    email = COALESCE($3, email),
		    contact_user = COALESCE($4, contact_user),
		    category = COALESCE($5, category)
		 WHERE id = $1`,
		u, p.Name, p.Email, p.User, p.Category)
	if err != nil {
		return entry.Network("update", err)
	}
	if tag.RowsAffected() == 0 {
		return entry.NotFound(id)
	}
	return nil
}

func (c *Collection) Delete(ctx context.Context, id string) error {
	u, ok := parseID(id)
	if !ok {
		return entry.NotFound(id)
	}
	tag, err := c.pool.Exec(ctx, `DELETE FROM entries WHERE id = $1`, u)
	if err != nil {
		return entry.Network("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return entry.NotFound(id)
	}
	return nil
}

func (c *Collection) Subscribe(ownerID string, onSnapshot remote.SnapshotFunc, onError remote.ErrorFunc) func() {
	ctx, cancel := context.WithCancel(context.Background())
	l := &listener{
		c:      c,
		owner:  ownerID,
		box:    remote.NewMailbox(onSnapshot, onError),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		l.box.PushError(entry.Network("subscribe", remote.ErrClosed))
		close(l.done)
		return l.box.Close
	}
	c.subs[l] = struct{}{}
	c.mu.Unlock()

	go l.run(ctx)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, l)
			c.mu.Unlock()
			l.stop()
		})
	}
}

// Close stops all subscriptions and closes the pool.
func (c *Collection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for l := range subs {
		l.stop()
		<-l.done
	}
	c.pool.Close()
	return nil
}

type listener struct {
	c      *Collection
	owner  string
	box    *remote.Mailbox
	cancel context.CancelFunc
	done   chan struct{}
}

func (l *listener) stop() {
	l.cancel()
	l.box.Close()
}

func (l *listener) run(ctx context.Context) {
	defer close(l.done)
	backoff := minBackoff
	for {
		err := l.listen(ctx, func() { backoff = minBackoff })
		if ctx.Err() != nil {
			return
		}
		l.c.log.Warn(ctx, "listener lost", "owner", l.owner, "error", err, "retry_in", backoff)
		l.box.PushError(entry.Network("listen", err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// listen holds one dedicated connection until it fails or ctx ends.
// connected is called once LISTEN succeeded and a snapshot was delivered.
func (l *listener) listen(ctx context.Context, connected func()) error {
	pc, err := l.c.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	conn := pc.Hijack()
	defer func() { _ = conn.Close(context.Background()) }()

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return err
	}
	if err := l.refresh(ctx); err != nil {
		return err
	}
	connected()

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if n.Payload != l.owner {
			continue
		}
		if err := l.refresh(ctx); err != nil {
			return err
		}
	}
}

func (l *listener) refresh(ctx context.Context) error {
	snap, err := l.c.list(ctx, l.owner)
	if err != nil {
		return err
	}
	l.box.PushSnapshot(snap)
	return nil
}
