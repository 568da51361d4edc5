// Package category holds the fixed table of entry categories.
package category

import (
	"strconv"
	"strings"
)

// Category is a small integer code with a human-readable label.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Unknown is returned by Resolve for codes that are not in the registry.
var Unknown = Category{ID: -1, Name: "Unknown"}

// Registry is an ordered, immutable set of categories.
// The zero value is an empty registry where every code resolves to Unknown.
type Registry struct {
	items []Category
}

// New creates a registry holding cats in the given order.
func New(cats ...Category) *Registry {
	items := make([]Category, len(cats))
	copy(items, cats)
	return &Registry{items: items}
}

// Default returns the standard outreach categories.
func Default() *Registry {
	return New(
		Category{ID: 0, Name: "Misc."},
		Category{ID: 1, Name: "Politics"},
		Category{ID: 2, Name: "Business"},
		Category{ID: 3, Name: "Entertainment"},
	)
}

// List returns the categories in registry order.
func (r *Registry) List() []Category {
	out := make([]Category, len(r.items))
	copy(out, r.items)
	return out
}

// Resolve returns the category with the given id, or Unknown.
func (r *Registry) Resolve(id int) Category {
	for _, c := range r.items {
		if c.ID == id {
			return c
		}
	}
	return Unknown
}

// Known reports whether id is present in the registry.
func (r *Registry) Known(id int) bool {
	return r.Resolve(id) != Unknown
}

// Lookup finds a category by numeric id or by case-insensitive name.
// A trailing period in the name is optional ("misc" matches "Misc.").
func (r *Registry) Lookup(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unknown, false
	}

	if id, err := strconv.Atoi(s); err == nil {
		c := r.Resolve(id)
		return c, c != Unknown
	}

	want := strings.TrimSuffix(strings.ToLower(s), ".")
	for _, c := range r.items {
		if strings.TrimSuffix(strings.ToLower(c.Name), ".") == want {
			return c, true
		}
	}
	return Unknown, false
}
