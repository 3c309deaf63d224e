// Package history keeps a frequency/recency ledger of item names for
// quick re-add suggestions.
package history

import (
	"sort"
	"time"

	"voxcart/internal/category"
	"voxcart/internal/list"
)

// DefaultMaxEntries caps the ledger at the most recently touched names.
const DefaultMaxEntries = 20

// Entry is one remembered item, keyed by its normalized name.
type Entry struct {
	Name        string            `json:"name"`
	Quantity    float64           `json:"quantity,omitempty"`
	Unit        string            `json:"unit,omitempty"`
	Category    category.Category `json:"category,omitempty"`
	LastAddedAt time.Time         `json:"lastAddedAt"`
	Count       int               `json:"count"`
}

// Input carries the fields recorded on a successful add.
type Input struct {
	Name     string
	Quantity float64
	Unit     string
	Category category.Category
}

var now = time.Now

// Record upserts an entry by normalized name: existing entries refresh
// their recency and bump their count, keeping prior quantity/unit/category
// when the input omits them. The result is recency-sorted and capped.
func Record(entries []Entry, input Input, maxEntries int) []Entry {
	trimmed := list.NormalizeSpace(input.Name)
	if trimmed == "" {
		return entries
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	normalized := list.NormalizeName(trimmed)
	ts := now()

	out := make([]Entry, len(entries))
	copy(out, entries)

	found := false
	for i := range out {
		if list.NormalizeName(out[i].Name) != normalized {
			continue
		}
		out[i].Name = trimmed
		if input.Quantity != 0 {
			out[i].Quantity = input.Quantity
		}
		if input.Unit != "" {
			out[i].Unit = input.Unit
		}
		if input.Category != "" {
			out[i].Category = input.Category
		}
		out[i].LastAddedAt = ts
		out[i].Count++
		found = true
		break
	}
	if !found {
		out = append(out, Entry{
			Name:        trimmed,
			Quantity:    input.Quantity,
			Unit:        input.Unit,
			Category:    input.Category,
			LastAddedAt: ts,
			Count:       1,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastAddedAt.After(out[j].LastAddedAt)
	})
	if len(out) > maxEntries {
		out = out[:maxEntries]
	}
	return out
}

// Recent returns entries newest-first.
func Recent(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastAddedAt.After(out[j].LastAddedAt)
	})
	return out
}

// Frequent returns entries added more than once, ordered by count with
// recency as the tie-break.
func Frequent(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.Count > 1 {
			out = append(out, entry)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].LastAddedAt.After(out[j].LastAddedAt)
	})
	return out
}
