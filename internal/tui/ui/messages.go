package ui

import "github.com/xolan/outreach/internal/entry"

// SnapshotMsg carries the store state the entries view renders.
type SnapshotMsg struct {
	Entries  []entry.Entry
	Owner    string
	SignedIn bool
	Loaded   bool
}

// SubscriptionErrMsg reports a failure of the live subscription. The last
// snapshot stays on screen.
type SubscriptionErrMsg struct {
	Err error
}
