// Package dispatch routes classified commands to list operations and
// produces user-facing feedback.
package dispatch

import (
	"fmt"

	"voxcart/internal/history"
	"voxcart/internal/intent"
	"voxcart/internal/list"
	"voxcart/internal/quantity"
)

// HelpMessage enumerates example phrases for the help command.
const HelpMessage = "Try: add, add 2 gallons of milk, got, delete, edit, move, clear checked, show all/active/picked up."

// Outcome is the complete result of dispatching one command. Snapshot is
// always valid; Changed reports whether it differs from the input.
type Outcome struct {
	Snapshot      list.Snapshot
	Feedback      list.Feedback
	Changed       bool
	Filter        list.Filter
	FilterChanged bool
	History       []history.Input
}

// resolveItemName strips a quantity phrase from command text so "2 gallons
// of milk" matches an item named "milk".
func resolveItemName(text string) string {
	parsed := quantity.Parse(text)
	if parsed.HasQuantity && parsed.Name != "" {
		return parsed.Name
	}
	return text
}

// Dispatch applies one command against the current snapshot. It never
// returns an error: every failure path yields an unchanged snapshot and a
// warning/error feedback.
//
// Name matching for delete/complete is deliberately bulk: every item whose
// normalized text equals the resolved name is affected.
func Dispatch(snap list.Snapshot, cmd intent.Command, transcript string) Outcome {
	snap = snap.EnsureActive()

	switch cmd.Kind {
	case intent.KindUnknown:
		return Outcome{Snapshot: snap, Feedback: list.Feedback{
			Message:  fmt.Sprintf("Command not recognized: %q", transcript),
			Severity: list.SeverityWarning,
		}}

	case intent.KindHelp:
		return Outcome{Snapshot: snap, Feedback: list.Feedback{
			Message:  HelpMessage,
			Severity: list.SeverityInfo,
		}}

	case intent.KindCount:
		active, _, total := snap.Counts()
		return Outcome{Snapshot: snap, Feedback: list.Feedback{
			Message:  fmt.Sprintf("You have %d items left out of %d.", active, total),
			Severity: list.SeverityInfo,
		}}

	case intent.KindFilter:
		filter := list.Filter(cmd.Filter)
		label := "all"
		switch filter {
		case list.FilterCompleted:
			label = "picked up"
		case list.FilterActive:
			label = "needed"
		}
		return Outcome{
			Snapshot:      snap,
			Filter:        filter,
			FilterChanged: true,
			Feedback: list.Feedback{
				Message:  fmt.Sprintf("Showing %s items.", label),
				Severity: list.SeverityInfo,
			},
		}

	case intent.KindClearCompleted:
		items, fb, cleared := list.ClearCompleted(snap.Items())
		if !cleared {
			return Outcome{Snapshot: snap, Feedback: fb}
		}
		return Outcome{Snapshot: snap.WithItems(items), Feedback: fb, Changed: true}

	case intent.KindAdd:
		items, fb, added := list.AddText(snap.Items(), cmd.Text)
		out := Outcome{Snapshot: snap, Feedback: fb}
		if added {
			out.Snapshot = snap.WithItems(items)
			out.Changed = true
			latest := items[activeInsertIndex(items)]
			out.History = []history.Input{{
				Name:     latest.Text,
				Quantity: latest.Quantity,
				Unit:     latest.Unit,
				Category: latest.ResolvedCategory(),
			}}
		}
		return out

	case intent.KindDelete:
		return deleteByName(snap, cmd.Text)

	case intent.KindComplete:
		return completeByName(snap, cmd.Text)

	case intent.KindEdit:
		return editByName(snap, cmd.Target, cmd.Text)

	case intent.KindMove:
		return moveByName(snap, cmd.Text, list.Direction(cmd.Direction))

	default:
		return Outcome{Snapshot: snap, Feedback: list.Feedback{
			Message:  fmt.Sprintf("Command not recognized: %q", transcript),
			Severity: list.SeverityWarning,
		}}
	}
}

func notFound(snap list.Snapshot) Outcome {
	return Outcome{Snapshot: snap, Feedback: list.Feedback{
		Message:  "Item not found.",
		Severity: list.SeverityError,
	}}
}

// activeInsertIndex locates the slot Add used: the end of the active partition.
func activeInsertIndex(items []list.Item) int {
	for i, item := range items {
		if item.Completed {
			return i - 1
		}
	}
	return len(items) - 1
}

func deleteByName(snap list.Snapshot, text string) Outcome {
	name := resolveItemName(text)
	items, removed := list.DeleteByName(snap.Items(), name)
	if removed == 0 {
		return notFound(snap)
	}

	return Outcome{
		Snapshot: snap.WithItems(items),
		Changed:  true,
		Feedback: list.Feedback{
			Message:  fmt.Sprintf("Removed %d item(s) named %q.", removed, name),
			Severity: list.SeverityInfo,
		},
	}
}

func completeByName(snap list.Snapshot, text string) Outcome {
	name := resolveItemName(text)
	items, completed := list.CompleteByName(snap.Items(), name)
	if completed == 0 {
		return notFound(snap)
	}

	return Outcome{
		Snapshot: snap.WithItems(items),
		Changed:  true,
		Feedback: list.Feedback{
			Message:  fmt.Sprintf("Picked up %d item(s) named %q.", completed, name),
			Severity: list.SeveritySuccess,
		},
	}
}

func editByName(snap list.Snapshot, target, text string) Outcome {
	name := resolveItemName(target)
	matchText := list.NormalizeName(name)

	var match list.Item
	found := false
	for _, item := range snap.Items() {
		if list.NormalizeName(item.Text) == matchText {
			match = item
			found = true
			break
		}
	}
	if !found {
		return notFound(snap)
	}

	previous := match.Text
	input := list.EditInput{Text: text}
	if match.CategorySource == list.CategoryManual && match.Category != "" {
		input.Category = match.Category
		input.Manual = true
	}

	items, fb, edited := list.Edit(snap.Items(), match.ID, input)
	if !edited {
		return Outcome{Snapshot: snap, Feedback: fb}
	}

	var renamed string
	for _, item := range items {
		if item.ID == match.ID {
			renamed = item.Text
			break
		}
	}
	return Outcome{
		Snapshot: snap.WithItems(items),
		Changed:  true,
		Feedback: list.Feedback{
			Message:  fmt.Sprintf("Updated %q to %q.", previous, renamed),
			Severity: list.SeveritySuccess,
		},
	}
}

func moveByName(snap list.Snapshot, text string, direction list.Direction) Outcome {
	name := resolveItemName(text)
	matchText := list.NormalizeName(name)

	var id string
	for _, item := range snap.Items() {
		if list.NormalizeName(item.Text) == matchText {
			id = item.ID
			break
		}
	}
	if id == "" {
		return notFound(snap)
	}

	items, fb, moved := list.Move(snap.Items(), id, direction)
	if !moved {
		return Outcome{Snapshot: snap, Feedback: fb}
	}
	return Outcome{Snapshot: snap.WithItems(items), Feedback: fb, Changed: true}
}
