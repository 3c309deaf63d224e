package list

import "voxcart/internal/category"

// Filter selects which items a view presents.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// ValidFilter reports whether value names a known filter.
func ValidFilter(value string) bool {
	switch Filter(value) {
	case FilterAll, FilterActive, FilterCompleted:
		return true
	}
	return false
}

// Filtered returns the subset of items a filter keeps, in order.
func Filtered(items []Item, filter Filter) []Item {
	if filter == FilterAll || filter == "" {
		return items
	}
	wantCompleted := filter == FilterCompleted
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Completed == wantCompleted {
			out = append(out, item)
		}
	}
	return out
}

// Group is one display bucket: a category's items in list order.
type Group struct {
	Category category.Category
	Items    []Item
}

// MoveMeta locates an item inside its local group (same category, same
// completed flag) for per-group move bookkeeping.
type MoveMeta struct {
	Index int
	Total int
}

// Grouped buckets items by resolved category in the fixed display order.
// Categories with no items are omitted.
func Grouped(items []Item) []Group {
	buckets := map[category.Category][]Item{}
	for _, item := range items {
		c := item.ResolvedCategory()
		buckets[c] = append(buckets[c], item)
	}

	groups := make([]Group, 0, len(buckets))
	for _, c := range category.Order {
		if bucket, ok := buckets[c]; ok {
			groups = append(groups, Group{Category: c, Items: bucket})
		}
	}
	return groups
}

// MoveMetaByID computes each item's position within its local group,
// splitting every category bucket into its active and completed halves.
func MoveMetaByID(items []Item) map[string]MoveMeta {
	meta := make(map[string]MoveMeta, len(items))
	for _, group := range Grouped(items) {
		var active, completed []Item
		for _, item := range group.Items {
			if item.Completed {
				completed = append(completed, item)
			} else {
				active = append(active, item)
			}
		}
		for i, item := range active {
			meta[item.ID] = MoveMeta{Index: i, Total: len(active)}
		}
		for i, item := range completed {
			meta[item.ID] = MoveMeta{Index: i, Total: len(completed)}
		}
	}
	return meta
}
