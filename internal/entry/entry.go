// Package entry defines outreach entries and the error values shared by
// every layer that handles them.
package entry

import (
	"strings"

	"github.com/badoux/checkmail"
	"github.com/xolan/outreach/internal/category"
)

// Entry is a single outreach contact owned by one user.
type Entry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	User     string `json:"user"`
	Category int    `json:"category"`
	OwnerID  string `json:"owner_id"`
}

// Draft holds the user-editable fields of an entry that does not exist yet.
type Draft struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	User     string `json:"user"`
	Category int    `json:"category"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	User     *string `json:"user,omitempty"`
	Category *int    `json:"category,omitempty"`
}

// Normalize trims surrounding whitespace from the text fields.
func (d Draft) Normalize() Draft {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.User = strings.TrimSpace(d.User)
	return d
}

// Validate checks the draft against the category registry.
func (d Draft) Validate(reg *category.Registry) error {
	if strings.TrimSpace(d.Name) == "" {
		return Invalid("name", "cannot be empty")
	}
	if err := validateEmail(d.Email); err != nil {
		return err
	}
	if !reg.Known(d.Category) {
		return Invalid("category", "unknown category code")
	}
	return nil
}

// WithOwner turns the draft into an entry owned by ownerID. The ID stays
// empty until the collection assigns one.
func (d Draft) WithOwner(ownerID string) Entry {
	return Entry{
		Name:     d.Name,
		Email:    d.Email,
		User:     d.User,
		Category: d.Category,
		OwnerID:  ownerID,
	}
}

// Draft returns the editable fields of e.
func (e Entry) Draft() Draft {
	return Draft{Name: e.Name, Email: e.Email, User: e.User, Category: e.Category}
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.User == nil && p.Category == nil
}

// Normalize trims surrounding whitespace from the text fields that are set.
func (p Patch) Normalize() Patch {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	p.Name = trim(p.Name)
	p.Email = trim(p.Email)
	p.User = trim(p.User)
	return p
}

// Validate checks the fields the patch sets.
func (p Patch) Validate(reg *category.Registry) error {
	if p.IsEmpty() {
		return Invalid("patch", "at least one field must be specified")
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return Invalid("name", "cannot be empty")
	}
	if p.Email != nil {
		if err := validateEmail(*p.Email); err != nil {
			return err
		}
	}
	if p.Category != nil && !reg.Known(*p.Category) {
		return Invalid("category", "unknown category code")
	}
	return nil
}

// Apply returns e with the patch fields applied. ID and OwnerID never change.
func (p Patch) Apply(e Entry) Entry {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Email != nil {
		e.Email = *p.Email
	}
	if p.User != nil {
		e.User = *p.User
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	return e
}

// validateEmail accepts an empty address; anything else must be well formed.
func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return Invalid("email", err.Error())
	}
	return nil
}
