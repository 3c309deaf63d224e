package list

import (
	"fmt"

	"voxcart/internal/category"
	"voxcart/internal/quantity"
)

// Every operation in this file is copy-on-write: the input slice is never
// mutated, and a warning or error feedback always accompanies the input
// slice returned unchanged.

// Add inserts a new item at the end of the active partition. Duplicate
// names (normalized) are rejected without a state change.
func Add(items []Item, input NewItemInput) ([]Item, Feedback, bool) {
	name := NormalizeName(input.Text)
	if name == "" {
		return items, Feedback{Message: "Add an item before submitting.", Severity: SeverityWarning}, false
	}

	for _, item := range items {
		if NormalizeName(item.Text) == name {
			return items, Feedback{Message: "That item is already on your list.", Severity: SeverityWarning}, false
		}
	}

	next := NewItem(input)
	out := make([]Item, 0, len(items)+1)
	for _, item := range items {
		if !item.Completed {
			out = append(out, item)
		}
	}
	out = append(out, next)
	for _, item := range items {
		if item.Completed {
			out = append(out, item)
		}
	}

	return out, Feedback{
		Message:  fmt.Sprintf("Added to list: %s", next.Label()),
		Severity: SeveritySuccess,
	}, true
}

// AddText parses a quantity phrase and adds the resulting item.
func AddText(items []Item, text string) ([]Item, Feedback, bool) {
	parsed := quantity.Parse(text)
	name := parsed.Name
	if !parsed.HasQuantity {
		name = text
	}
	if NormalizeName(name) == "" {
		msg := "Add an item before submitting."
		if parsed.HasQuantity {
			msg = "Add an item name with your quantity."
		}
		return items, Feedback{Message: msg, Severity: SeverityWarning}, false
	}

	input := NewItemInput{Text: NormalizeSpace(name)}
	if parsed.HasQuantity {
		input.Quantity = parsed.Quantity
		input.Unit = parsed.Unit
	}
	return Add(items, input)
}

// Toggle flips one item's completed flag and re-applies the partition.
func Toggle(items []Item, id string) ([]Item, Feedback, bool) {
	index := indexByID(items, id)
	if index < 0 {
		return items, Feedback{Message: "Item not found.", Severity: SeverityError}, false
	}

	out := cloneItems(items)
	out[index].Completed = !out[index].Completed
	out[index].UpdatedAt = now()

	message := fmt.Sprintf("Put %q back on the list.", out[index].Text)
	if out[index].Completed {
		message = fmt.Sprintf("Picked up %q.", out[index].Text)
	}
	return Partition(out), Feedback{Message: message, Severity: SeveritySuccess}, true
}

// EditInput carries an edit request. Manual pins Category; otherwise the
// category is re-inferred from the new name.
type EditInput struct {
	Text     string
	Category category.Category
	Manual   bool
}

// Edit re-parses quantity from the new text and updates one item in place.
func Edit(items []Item, id string, input EditInput) ([]Item, Feedback, bool) {
	index := indexByID(items, id)
	if index < 0 {
		return items, Feedback{Message: "Item not found.", Severity: SeverityError}, false
	}

	trimmed := NormalizeSpace(input.Text)
	if trimmed == "" {
		return items, Feedback{Message: "Item name cannot be empty.", Severity: SeverityWarning}, false
	}

	parsed := quantity.Parse(trimmed)
	resolvedName := trimmed
	if parsed.HasQuantity {
		if parsed.Name != "" {
			resolvedName = parsed.Name
		} else {
			resolvedName = items[index].Text
		}
	}

	out := cloneItems(items)
	target := &out[index]
	target.Text = resolvedName
	if parsed.HasQuantity {
		target.Quantity = parsed.Quantity
		target.Unit = parsed.Unit
	}
	if input.Manual {
		target.Category = input.Category
		target.CategorySource = CategoryManual
	} else {
		target.Category = category.Infer(resolvedName)
		target.CategorySource = CategoryAuto
	}
	target.UpdatedAt = now()

	return out, Feedback{
		Message:  fmt.Sprintf("Updated item: %s", resolvedName),
		Severity: SeveritySuccess,
	}, true
}

// Delete removes one item by id.
func Delete(items []Item, id string) ([]Item, Feedback, bool) {
	index := indexByID(items, id)
	if index < 0 {
		return items, Feedback{Message: "Item not found.", Severity: SeverityError}, false
	}

	removed := items[index]
	out := make([]Item, 0, len(items)-1)
	out = append(out, items[:index]...)
	out = append(out, items[index+1:]...)
	return out, Feedback{
		Message:  fmt.Sprintf("Removed %q from the list.", removed.Text),
		Severity: SeverityInfo,
	}, true
}

// Move shifts an item one slot up or down within its local group: the
// items sharing its resolved category and completed flag. Moves that would
// leave the group are rejected.
func Move(items []Item, id string, direction Direction) ([]Item, Feedback, bool) {
	index := indexByID(items, id)
	if index < 0 {
		return items, Feedback{Message: "Item not found.", Severity: SeverityError}, false
	}

	target := items[index]
	targetCategory := target.ResolvedCategory()

	groupIndexes := make([]int, 0, len(items))
	for i, item := range items {
		if item.ResolvedCategory() == targetCategory && item.Completed == target.Completed {
			groupIndexes = append(groupIndexes, i)
		}
	}

	local := -1
	for i, idx := range groupIndexes {
		if idx == index {
			local = i
			break
		}
	}

	nextLocal := local - 1
	if direction == DirectionDown {
		nextLocal = local + 1
	}
	if nextLocal < 0 || nextLocal >= len(groupIndexes) {
		return items, Feedback{
			Message:  fmt.Sprintf("Cannot move item %s.", direction),
			Severity: SeverityWarning,
		}, false
	}

	swapIndex := groupIndexes[nextLocal]
	out := cloneItems(items)
	moved := out[index]
	out = append(out[:index], out[index+1:]...)
	insertIndex := swapIndex
	if swapIndex > index {
		insertIndex = swapIndex - 1
	}
	out = append(out[:insertIndex], append([]Item{moved}, out[insertIndex:]...)...)

	return Partition(out), Feedback{
		Message:  fmt.Sprintf("Moved %q %s.", moved.Text, direction),
		Severity: SeveritySuccess,
	}, true
}

// Direction is the move orientation within a local group.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ClearCompleted drops every completed item.
func ClearCompleted(items []Item) ([]Item, Feedback, bool) {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if !item.Completed {
			out = append(out, item)
		}
	}
	if len(out) == len(items) {
		return items, Feedback{Message: "Nothing is checked off yet.", Severity: SeverityInfo}, false
	}
	return out, Feedback{Message: "Cleared checked items.", Severity: SeverityInfo}, true
}

// MarkAllComplete completes every remaining active item.
func MarkAllComplete(items []Item) ([]Item, Feedback, bool) {
	out := cloneItems(items)
	flipped := false
	for i := range out {
		if !out[i].Completed {
			out[i].Completed = true
			out[i].UpdatedAt = now()
			flipped = true
		}
	}
	if !flipped {
		return items, Feedback{Message: "Everything is already picked up.", Severity: SeverityInfo}, false
	}
	return Partition(out), Feedback{
		Message:  "Marked everything as picked up.",
		Severity: SeveritySuccess,
	}, true
}

// DeleteAll empties the list.
func DeleteAll(items []Item) ([]Item, Feedback, bool) {
	if len(items) == 0 {
		return items, Feedback{Message: "Your list is already empty.", Severity: SeverityInfo}, false
	}
	return []Item{}, Feedback{Message: "Deleted all items.", Severity: SeverityWarning}, true
}

// AddStaples adds every staple not already on the list, as one batch at
// the end of the active partition. Added items are returned for history
// recording.
func AddStaples(items []Item, staples []Staple) ([]Item, Feedback, []Item) {
	existing := make(map[string]struct{}, len(items))
	for _, item := range items {
		existing[NormalizeName(item.Text)] = struct{}{}
	}

	additions := make([]Item, 0, len(staples))
	for _, staple := range staples {
		name := NormalizeSpace(staple.Name)
		if name == "" {
			continue
		}
		normalized := NormalizeName(name)
		if _, dup := existing[normalized]; dup {
			continue
		}
		resolved := staple.Category
		if resolved == "" {
			resolved = category.Infer(name)
		}
		additions = append(additions, NewItem(NewItemInput{
			Text:     name,
			Quantity: staple.Quantity,
			Unit:     staple.Unit,
			Category: resolved,
		}))
		existing[normalized] = struct{}{}
	}

	if len(additions) == 0 {
		return items, Feedback{
			Message:  "Staples are already on your list.",
			Severity: SeverityInfo,
		}, nil
	}

	out := make([]Item, 0, len(items)+len(additions))
	for _, item := range items {
		if !item.Completed {
			out = append(out, item)
		}
	}
	out = append(out, additions...)
	for _, item := range items {
		if item.Completed {
			out = append(out, item)
		}
	}

	plural := "s"
	if len(additions) == 1 {
		plural = ""
	}
	return out, Feedback{
		Message:  fmt.Sprintf("Added %d staple%s to your list.", len(additions), plural),
		Severity: SeveritySuccess,
	}, additions
}

// NewStaple parses text into a staple template. Saving a name already
// present in staples is rejected.
func NewStaple(staples []Staple, text string) (Staple, Feedback, bool) {
	parsed := quantity.Parse(text)
	name := NormalizeSpace(parsed.Name)
	if name == "" {
		return Staple{}, Feedback{
			Message:  "Tell me what to save as a staple.",
			Severity: SeverityWarning,
		}, false
	}

	normalized := NormalizeName(name)
	for _, staple := range staples {
		if NormalizeName(staple.Name) == normalized {
			return Staple{}, Feedback{
				Message:  fmt.Sprintf("%s is already a staple.", name),
				Severity: SeverityInfo,
			}, false
		}
	}

	staple := Staple{
		ID:       newID(),
		Name:     name,
		Category: category.Infer(name),
	}
	if parsed.HasQuantity {
		staple.Quantity = parsed.Quantity
		staple.Unit = parsed.Unit
	}
	return staple, Feedback{
		Message:  fmt.Sprintf("Saved staple: %s", staple.Label()),
		Severity: SeveritySuccess,
	}, true
}

// RemoveStaple deletes the staple matching name.
func RemoveStaple(staples []Staple, name string) ([]Staple, Feedback, bool) {
	normalized := NormalizeName(name)
	for i, staple := range staples {
		if NormalizeName(staple.Name) == normalized {
			kept := make([]Staple, 0, len(staples)-1)
			kept = append(kept, staples[:i]...)
			kept = append(kept, staples[i+1:]...)
			return kept, Feedback{
				Message:  fmt.Sprintf("Removed staple: %s", staple.Name),
				Severity: SeverityInfo,
			}, true
		}
	}
	return staples, Feedback{
		Message:  fmt.Sprintf("No staple named %s.", NormalizeSpace(name)),
		Severity: SeverityWarning,
	}, false
}

// DeleteByName removes every item whose normalized text equals name and
// reports how many were removed. Bulk matching is deliberate.
func DeleteByName(items []Item, name string) ([]Item, int) {
	matchText := NormalizeName(name)
	kept := make([]Item, 0, len(items))
	removed := 0
	for _, item := range items {
		if NormalizeName(item.Text) == matchText {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	if removed == 0 {
		return items, 0
	}
	return kept, removed
}

// CompleteByName marks every item whose normalized text equals name as
// completed, re-applies the partition, and reports how many matched.
func CompleteByName(items []Item, name string) ([]Item, int) {
	matchText := NormalizeName(name)
	out := cloneItems(items)
	matched := 0
	for i := range out {
		if NormalizeName(out[i].Text) != matchText {
			continue
		}
		matched++
		if !out[i].Completed {
			out[i].Completed = true
			out[i].UpdatedAt = now()
		}
	}
	if matched == 0 {
		return items, 0
	}
	return Partition(out), matched
}

func indexByID(items []Item, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
