package view

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xolan/outreach/internal/category"
	"github.com/xolan/outreach/internal/entry"
)

// Column is a sortable column.
type Column int

const (
	ByName Column = iota
	ByCategory
)

func (c Column) String() string {
	switch c {
	case ByName:
		return "name"
	case ByCategory:
		return "category"
	}
	return fmt.Sprintf("Column(%d)", int(c))
}

// ParseColumn accepts "name" or "category".
func ParseColumn(s string) (Column, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return ByName, nil
	case "category":
		return ByCategory, nil
	}
	return 0, fmt.Errorf("unknown sort column %q (want name or category)", s)
}

// Direction is a sort order.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

func sortKey(e entry.Entry, col Column, reg *category.Registry) string {
	if col == ByCategory {
		return strings.ToLower(reg.Resolve(e.Category).Name)
	}
	return strings.ToLower(e.Name)
}

// Sort returns a sorted copy of entries. Keys are compared lower-cased.
// Entries with equal keys keep their input order in both directions.
func Sort(entries []entry.Entry, col Column, dir Direction, reg *category.Registry) []entry.Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b entry.Entry) int {
		c := strings.Compare(sortKey(a, col, reg), sortKey(b, col, reg))
		if dir == Descending {
			return -c
		}
		return c
	})
	return out
}
