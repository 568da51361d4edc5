// Package view derives the displayed list from a snapshot: search filter,
// column sort and optimistic local removals. Nothing here talks to the
// collection.
package view

import (
	"strings"

	"github.com/xolan/outreach/internal/category"
	"github.com/xolan/outreach/internal/entry"
)

// Matches reports whether query occurs, ignoring case, in the name,
// email, user or category name of e. An empty query matches everything.
func Matches(e entry.Entry, query string, reg *category.Registry) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	fields := [...]string{e.Name, e.Email, e.User, reg.Resolve(e.Category).Name}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Filter returns the entries matching query in their input order. An
// empty query returns entries unchanged.
func Filter(entries []entry.Entry, query string, reg *category.Registry) []entry.Entry {
	if query == "" {
		return entries
	}
	out := make([]entry.Entry, 0, len(entries))
	for _, e := range entries {
		if Matches(e, query, reg) {
			out = append(out, e)
		}
	}
	return out
}
