package core

import (
	"slices"
	"testing"
)

func TestCategoryRegistryDefaults(t *testing.T) {
	r := NewCategoryRegistry()

	for _, name := range []string{"auto", "casa", CategoryLoan, CategoryBalance} {
		if !r.IsValid(name) {
			t.Errorf("IsValid(%q) = false", name)
		}
	}

	user := r.UserNames()
	if slices.Contains(user, CategoryBalance) || slices.Contains(user, CategoryLoan) {
		t.Errorf("internal categories leaked into UserNames: %v", user)
	}
}

func TestCategoryRegistryAdd(t *testing.T) {
	r := NewCategoryRegistry()
	before := len(r.Names())

	r.Add("Farmacia", "💊")
	if !r.IsValid("farmacia") {
		t.Error("added category not valid")
	}
	if r.Emoji("farmacia") != "💊" {
		t.Errorf("Emoji = %q", r.Emoji("farmacia"))
	}

	// Re-adding the same name keeps the list stable but may refresh the emoji.
	r.Add("FARMACIA", "🏥")
	if got := len(r.Names()); got != before+1 {
		t.Errorf("len(Names) = %d, want %d", got, before+1)
	}
	if r.Emoji("farmacia") != "🏥" {
		t.Errorf("Emoji after re-add = %q", r.Emoji("farmacia"))
	}

	r.Add("   ", "")
	if got := len(r.Names()); got != before+1 {
		t.Errorf("blank name was registered")
	}
}

func TestCategoryRegistryByNumber(t *testing.T) {
	r := NewCategoryRegistry()
	user := r.UserNames()

	name, ok := r.ByNumber(2, false)
	if !ok || name != user[1] {
		t.Errorf("ByNumber(2) = %q, %v, want %q", name, ok, user[1])
	}
	if _, ok := r.ByNumber(0, false); ok {
		t.Error("ByNumber(0) accepted")
	}
	if _, ok := r.ByNumber(len(user)+1, false); ok {
		t.Error("ByNumber past end accepted")
	}
}

func TestCategoryRegistryNumbered(t *testing.T) {
	r := NewCategoryRegistry()

	numbered := r.Numbered(false)
	for i, c := range numbered {
		if c.Number != i+1 {
			t.Errorf("Numbered[%d].Number = %d", i, c.Number)
		}
		if c.Name == CategoryBalance || c.Name == CategoryLoan {
			t.Errorf("internal category %q in user-facing numbering", c.Name)
		}
	}

	withInternal := r.Numbered(true)
	if len(withInternal) != len(numbered)+2 {
		t.Errorf("len(Numbered(true)) = %d, want %d", len(withInternal), len(numbered)+2)
	}
}
