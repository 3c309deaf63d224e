// Package list owns shopping-list state: items, lists, ordering, and the
// copy-on-write operations that mutate them.
package list

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"voxcart/internal/category"
	"voxcart/internal/quantity"
)

// CategorySource records whether an item's category was inferred or pinned
// by the user.
type CategorySource string

const (
	CategoryAuto   CategorySource = "auto"
	CategoryManual CategorySource = "manual"
)

// Item is one shopping-list entry. Text is never empty; ID is immutable
// and unique within a list. A zero Quantity means no quantity was given.
type Item struct {
	ID             string            `json:"id"`
	Text           string            `json:"text"`
	Quantity       float64           `json:"quantity,omitempty"`
	Unit           string            `json:"unit,omitempty"`
	Category       category.Category `json:"category,omitempty"`
	CategorySource CategorySource    `json:"categorySource,omitempty"`
	Completed      bool              `json:"completed"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Staple is a saved item template the user can re-add without retyping.
type Staple struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Quantity float64           `json:"quantity,omitempty"`
	Unit     string            `json:"unit,omitempty"`
	Category category.Category `json:"category,omitempty"`
}

// Overridable in tests for deterministic snapshots.
var (
	now   = time.Now
	newID = uuid.NewString
)

// NewID mints a fresh unique identifier for items and lists.
func NewID() string { return newID() }

// NormalizeName is the canonical equality key for item and list names.
func NormalizeName(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// NormalizeSpace trims and collapses internal whitespace runs.
func NormalizeSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// NewItemInput carries the fields an add operation may supply.
type NewItemInput struct {
	Text           string
	Quantity       float64
	Unit           string
	Category       category.Category
	CategorySource CategorySource
}

// NewItem builds a fresh active item, defaulting the category from the
// item name when none is supplied.
func NewItem(input NewItemInput) Item {
	resolved := input.Category
	if resolved == "" {
		resolved = category.Infer(input.Text)
	}
	source := input.CategorySource
	if source == "" {
		source = CategoryAuto
	}

	ts := now()
	return Item{
		ID:             newID(),
		Text:           input.Text,
		Quantity:       input.Quantity,
		Unit:           input.Unit,
		Category:       resolved,
		CategorySource: source,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
}

// ResolvedCategory returns the item's category, inferring from its text
// when the stored value is missing or unknown.
func (i Item) ResolvedCategory() category.Category {
	if i.Category != "" && category.Valid(string(i.Category)) {
		return i.Category
	}
	return category.Infer(i.Text)
}

// Label renders the item for display, quantity prefix included.
func (i Item) Label() string {
	return quantity.Label(i.Text, i.Quantity, i.Unit)
}

// Label renders the staple for display, quantity prefix included.
func (s Staple) Label() string {
	return quantity.Label(s.Name, s.Quantity, s.Unit)
}

// Partition re-establishes the active/completed invariant: all active
// items, in their relative order, followed by all completed items in theirs.
func Partition(items []Item) []Item {
	ordered := make([]Item, 0, len(items))
	for _, item := range items {
		if !item.Completed {
			ordered = append(ordered, item)
		}
	}
	for _, item := range items {
		if item.Completed {
			ordered = append(ordered, item)
		}
	}
	return ordered
}
