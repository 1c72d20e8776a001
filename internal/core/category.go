package core

import (
	"strings"
	"sync"
)

// Internal categories are valid ledger tags but hidden from user-facing
// listings.
const (
	CategoryBalance = "balance"
	CategoryLoan    = "prestamo"
)

// NumberedCategory pairs a category with its user-facing 1-based number.
type NumberedCategory struct {
	Number int
	Name   string
	Emoji  string
}

// CategoryRegistry is an insertion-ordered registry of expense tags.
// It is constructed explicitly and passed to the components that need
// it; there is no process-wide shared instance.
type CategoryRegistry struct {
	mu       sync.RWMutex
	names    []string
	internal map[string]bool
	emojis   map[string]string
}

// NewCategoryRegistry returns a registry seeded with the default tags.
func NewCategoryRegistry() *CategoryRegistry {
	r := &CategoryRegistry{
		internal: map[string]bool{CategoryBalance: true, CategoryLoan: true},
		emojis:   make(map[string]string),
	}
	defaults := []struct{ name, emoji string }{
		{"auto", "🚙"},
		{"casa", "🏠"},
		{"salidas", "🍽️"},
		{"compras", "🛒"},
		{"mascota", "🐾"},
		{"entretenimiento", "🎮"},
		{CategoryLoan, "💰"},
		{"shopping", "🛍️"},
		{CategoryBalance, "💵"},
		{"otros", "📦"},
	}
	for _, d := range defaults {
		r.Add(d.name, d.emoji)
	}
	return r
}

// Add registers a category. Adding an existing name (case-insensitive)
// is a no-op, except that a non-empty emoji updates the stored one.
func (r *CategoryRegistry) Add(name, emoji string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	known := false
	for _, n := range r.names {
		if n == name {
			known = true
			break
		}
	}
	if !known {
		r.names = append(r.names, name)
	}
	if emoji != "" {
		r.emojis[name] = emoji
	}
}

// Names returns all categories in insertion order, internal ones included.
func (r *CategoryRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// UserNames returns the categories shown to users, in insertion order.
func (r *CategoryRegistry) UserNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.names))
	for _, n := range r.names {
		if !r.internal[n] {
			out = append(out, n)
		}
	}
	return out
}

// Numbered returns categories with their 1-based numbers and emojis.
func (r *CategoryRegistry) Numbered(includeInternal bool) []NumberedCategory {
	var names []string
	if includeInternal {
		names = r.Names()
	} else {
		names = r.UserNames()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]NumberedCategory, len(names))
	for i, n := range names {
		out[i] = NumberedCategory{Number: i + 1, Name: n, Emoji: r.emojis[n]}
	}
	return out
}

// ByNumber resolves a category by its 1-based user-facing number.
func (r *CategoryRegistry) ByNumber(number int, includeInternal bool) (string, bool) {
	var names []string
	if includeInternal {
		names = r.Names()
	} else {
		names = r.UserNames()
	}
	if number < 1 || number > len(names) {
		return "", false
	}
	return names[number-1], true
}

// Emoji returns the emoji for a category, or "" when it has none.
func (r *CategoryRegistry) Emoji(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.emojis[strings.ToLower(name)]
}

// IsValid reports whether name belongs to the registry.
func (r *CategoryRegistry) IsValid(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.names {
		if n == name {
			return true
		}
	}
	return false
}
