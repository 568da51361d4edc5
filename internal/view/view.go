package view

import (
	"github.com/xolan/outreach/internal/category"
	"github.com/xolan/outreach/internal/entry"
)

// SortState is the applied sort of a View.
type SortState struct {
	Column    Column
	Direction Direction
}

// Row is one displayed entry with its resolved category.
type Row struct {
	Entry    entry.Entry
	Category category.Category
}

// View holds presentation state over the latest snapshot. The displayed
// list is always derived from (snapshot, query, sort) minus entries
// removed locally since that snapshot arrived. A View is not safe for
// concurrent use.
type View struct {
	reg      *category.Registry
	snapshot []entry.Entry
	query    string
	sort     *SortState
	next     Direction
	removed  map[string]struct{}
	rows     []entry.Entry
}

// New returns an empty view with no sort applied.
func New(reg *category.Registry) *View {
	v := &View{reg: reg, next: Ascending, removed: make(map[string]struct{})}
	v.derive()
	return v
}

// Refresh replaces the snapshot and forgets local removals.
func (v *View) Refresh(snapshot []entry.Entry) {
	v.snapshot = snapshot
	clear(v.removed)
	v.derive()
}

// SetQuery filters by query.
func (v *View) SetQuery(query string) {
	v.query = query
	v.derive()
}

// Query returns the current search query.
func (v *View) Query() string { return v.query }

// ToggleSort sorts by col using the pending direction, then flips the
// pending direction. The direction is shared by all columns.
func (v *View) ToggleSort(col Column) {
	v.sort = &SortState{Column: col, Direction: v.next}
	v.next = v.next.Flip()
	v.derive()
}

// SetSort applies a sort directly. The next toggle uses the opposite
// direction.
func (v *View) SetSort(col Column, dir Direction) {
	v.sort = &SortState{Column: col, Direction: dir}
	v.next = dir.Flip()
	v.derive()
}

// Sort returns the applied sort, or false before the first toggle.
func (v *View) Sort() (SortState, bool) {
	if v.sort == nil {
		return SortState{}, false
	}
	return *v.sort, true
}

// RemoveLocal hides id until the next Refresh.
func (v *View) RemoveLocal(id string) {
	v.removed[id] = struct{}{}
	v.derive()
}

// Entries returns the displayed entries in display order.
func (v *View) Entries() []entry.Entry {
	return v.rows
}

// Len returns the number of displayed entries.
func (v *View) Len() int { return len(v.rows) }

// Total returns the number of entries in the snapshot.
func (v *View) Total() int { return len(v.snapshot) }

// Rows returns the displayed entries with their categories resolved.
func (v *View) Rows() []Row {
	out := make([]Row, len(v.rows))
	for i, e := range v.rows {
		out[i] = Row{Entry: e, Category: v.reg.Resolve(e.Category)}
	}
	return out
}

func (v *View) derive() {
	rows := Filter(v.snapshot, v.query, v.reg)
	if v.sort != nil {
		rows = Sort(rows, v.sort.Column, v.sort.Direction, v.reg)
	}
	if len(v.removed) > 0 {
		kept := make([]entry.Entry, 0, len(rows))
		for _, e := range rows {
			if _, gone := v.removed[e.ID]; !gone {
				kept = append(kept, e)
			}
		}
		rows = kept
	}
	v.rows = rows
}
