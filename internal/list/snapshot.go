package list

import (
	"fmt"
	"time"
)

// List is one named collection of items. Names are unique among sibling
// lists, case-insensitively.
type List struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Items      []Item    `json:"items"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	IsArchived bool      `json:"isArchived"`
}

// NewList builds a fresh unarchived list.
func NewList(name string, items []Item) List {
	ts := now()
	if items == nil {
		items = []Item{}
	}
	return List{
		ID:        newID(),
		Name:      name,
		Items:     items,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// DefaultListName is used when no list exists yet or a migrated list has
// no usable name.
const DefaultListName = "My List"

// Snapshot is the complete list-management state handed to every
// operation. Operations never mutate a snapshot in place.
type Snapshot struct {
	Lists        []List `json:"lists"`
	ActiveListID string `json:"activeListId"`
}

// EnsureActive guarantees the invariant that at least one non-archived
// list exists and the active id points at a real list.
func (s Snapshot) EnsureActive() Snapshot {
	out := s.clone()
	if len(out.Lists) == 0 {
		created := NewList(DefaultListName, nil)
		out.Lists = []List{created}
		out.ActiveListID = created.ID
		return out
	}

	for _, l := range out.Lists {
		if l.ID == out.ActiveListID {
			return out
		}
	}
	out.ActiveListID = out.Lists[0].ID
	return out
}

// Active returns the currently selected list, falling back to the first.
func (s Snapshot) Active() List {
	for _, l := range s.Lists {
		if l.ID == s.ActiveListID {
			return l
		}
	}
	if len(s.Lists) > 0 {
		return s.Lists[0]
	}
	return List{}
}

// Items returns the active list's item sequence.
func (s Snapshot) Items() []Item {
	return s.Active().Items
}

// Counts reports active/completed/total item counts for the active list.
func (s Snapshot) Counts() (active, completed, total int) {
	for _, item := range s.Items() {
		total++
		if item.Completed {
			completed++
		} else {
			active++
		}
	}
	return active, completed, total
}

// WithItems replaces the active list's items, bumping its UpdatedAt.
func (s Snapshot) WithItems(items []Item) Snapshot {
	out := s.clone()
	active := out.Active().ID
	for i := range out.Lists {
		if out.Lists[i].ID == active {
			out.Lists[i].Items = items
			out.Lists[i].UpdatedAt = now()
			break
		}
	}
	return out
}

// CreateList adds a new named list and makes it active. Duplicate names
// (case-insensitive) and empty names are rejected.
func (s Snapshot) CreateList(name string) (Snapshot, Feedback, bool) {
	trimmed := NormalizeSpace(name)
	if trimmed == "" {
		return s, Feedback{Message: "Give your list a name.", Severity: SeverityWarning}, false
	}

	normalized := NormalizeName(trimmed)
	for _, l := range s.Lists {
		if NormalizeName(l.Name) == normalized {
			return s, Feedback{Message: "That list name already exists.", Severity: SeverityWarning}, false
		}
	}

	created := NewList(trimmed, nil)
	out := s.clone()
	out.Lists = append([]List{created}, out.Lists...)
	out.ActiveListID = created.ID
	return out, Feedback{
		Message:  fmt.Sprintf("Created list: %s", trimmed),
		Severity: SeveritySuccess,
	}, true
}

// RenameList renames the active list under the same uniqueness rules.
func (s Snapshot) RenameList(name string) (Snapshot, Feedback, bool) {
	trimmed := NormalizeSpace(name)
	if trimmed == "" {
		return s, Feedback{Message: "List name cannot be empty.", Severity: SeverityWarning}, false
	}

	active := s.Active()
	normalized := NormalizeName(trimmed)
	for _, l := range s.Lists {
		if l.ID != active.ID && NormalizeName(l.Name) == normalized {
			return s, Feedback{Message: "That list name already exists.", Severity: SeverityWarning}, false
		}
	}

	out := s.clone()
	for i := range out.Lists {
		if out.Lists[i].ID == active.ID {
			out.Lists[i].Name = trimmed
			out.Lists[i].UpdatedAt = now()
			break
		}
	}
	return out, Feedback{
		Message:  fmt.Sprintf("Renamed list to %s.", trimmed),
		Severity: SeveritySuccess,
	}, true
}

// DeleteList removes the active list. Deleting the last remaining list is
// rejected.
func (s Snapshot) DeleteList() (Snapshot, Feedback, bool) {
	if len(s.Lists) <= 1 {
		return s, Feedback{Message: "You need at least one list.", Severity: SeverityWarning}, false
	}

	active := s.Active()
	out := s.clone()
	kept := make([]List, 0, len(out.Lists)-1)
	for _, l := range out.Lists {
		if l.ID != active.ID {
			kept = append(kept, l)
		}
	}
	out.Lists = kept
	out.ActiveListID = kept[0].ID
	return out, Feedback{
		Message:  fmt.Sprintf("Deleted list: %s", active.Name),
		Severity: SeverityInfo,
	}, true
}

// SelectList switches the active list by case-insensitive name.
func (s Snapshot) SelectList(name string) (Snapshot, Feedback, bool) {
	normalized := NormalizeName(name)
	for _, l := range s.Lists {
		if NormalizeName(l.Name) == normalized {
			out := s.clone()
			out.ActiveListID = l.ID
			return out, Feedback{
				Message:  fmt.Sprintf("Switched to list: %s", l.Name),
				Severity: SeverityInfo,
			}, true
		}
	}
	return s, Feedback{Message: "No list by that name.", Severity: SeverityError}, false
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{ActiveListID: s.ActiveListID}
	out.Lists = make([]List, len(s.Lists))
	copy(out.Lists, s.Lists)
	return out
}
