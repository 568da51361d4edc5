package remote

import (
	"sync"

	"github.com/xolan/outreach/internal/entry"
)

// Mailbox serializes delivery for one subscription. Pending snapshots are
// coalesced: only the newest undelivered snapshot is kept, which is safe
// because every snapshot is complete. Errors are queued in order.
//
// Each wake-up delivers the queued errors first and then the pending
// snapshot, so a snapshot pushed before an error may be delivered after it.
// Relative order between errors and snapshots is not preserved.
//
// Backends push from any goroutine; a single goroutine drains the mailbox
// and runs the callbacks.
type Mailbox struct {
	onSnapshot SnapshotFunc
	onError    ErrorFunc

	mu      sync.Mutex
	cond    *sync.Cond
	pending []entry.Entry
	hasSnap bool
	errs    []error
	closed  bool
	done    chan struct{}
}

// NewMailbox starts the delivery goroutine.
func NewMailbox(onSnapshot SnapshotFunc, onError ErrorFunc) *Mailbox {
	m := &Mailbox{
		onSnapshot: onSnapshot,
		onError:    onError,
		done:       make(chan struct{}),
	}
	m.cond = sync.NewCond(&m.mu)
	go m.run()
	return m
}

// PushSnapshot replaces any undelivered snapshot with entries.
func (m *Mailbox) PushSnapshot(entries []entry.Entry) {
	cp := make([]entry.Entry, len(entries))
	copy(cp, entries)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.pending = cp
	m.hasSnap = true
	m.cond.Signal()
}

// PushError queues err for the error callback.
func (m *Mailbox) PushError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || err == nil {
		return
	}
	m.errs = append(m.errs, err)
	m.cond.Signal()
}

// Close stops delivery. Undelivered items are dropped. Close does not wait
// for a callback that is already running, so it is safe to call from one.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.pending = nil
	m.errs = nil
	m.cond.Signal()
}

func (m *Mailbox) run() {
	defer close(m.done)
	for {
		m.mu.Lock()
		for !m.closed && !m.hasSnap && len(m.errs) == 0 {
			m.cond.Wait()
		}
		if m.closed {
			m.mu.Unlock()
			return
		}

		var (
			errs    []error
			snap    []entry.Entry
			hasSnap bool
		)
		if len(m.errs) > 0 {
			errs, m.errs = m.errs, nil
		}
		if m.hasSnap {
			snap, hasSnap = m.pending, true
			m.pending, m.hasSnap = nil, false
		}
		m.mu.Unlock()

		for _, err := range errs {
			if m.isClosed() {
				return
			}
			if m.onError != nil {
				m.onError(err)
			}
		}
		if hasSnap && !m.isClosed() && m.onSnapshot != nil {
			m.onSnapshot(snap)
		}
	}
}

func (m *Mailbox) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
