package tui

import (
	"github.com/xolan/outreach/internal/auth"
	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/service"
	"github.com/xolan/outreach/internal/tui/ui"
)

// feed turns store snapshots and identity changes into a single pending
// signal. Signals coalesce, and the reader always sees the latest state.
type feed struct {
	services *service.Services
	ch       chan struct{}
	stop     []func()
}

func newFeed(services *service.Services) *feed {
	f := &feed{services: services, ch: make(chan struct{}, 1)}
	f.stop = append(f.stop,
		services.Store.Observe(func([]entry.Entry) { f.poke() }),
		services.Session.Watch(func(auth.Identity) { f.poke() }),
	)
	return f
}

func (f *feed) poke() {
	select {
	case f.ch <- struct{}{}:
	default:
	}
}

// current reads the state the entries view should show.
func (f *feed) current() ui.SnapshotMsg {
	id := f.services.Session.Current()
	if !id.SignedIn {
		return ui.SnapshotMsg{}
	}
	st := f.services.Store
	msg := ui.SnapshotMsg{Owner: id.UserID, SignedIn: true}
	if st.Owner() == id.UserID && st.Loaded() {
		msg.Entries = st.Snapshot()
		msg.Loaded = true
	}
	return msg
}

func (f *feed) close() {
	for _, fn := range f.stop {
		fn()
	}
	f.stop = nil
}
