// Package intent classifies free-form transcripts into shopping-list commands.
package intent

import (
	"regexp"
	"strings"
)

// Kind tags the classified meaning of a transcript.
type Kind string

const (
	KindAdd            Kind = "add"
	KindDelete         Kind = "delete"
	KindComplete       Kind = "complete"
	KindEdit           Kind = "edit"
	KindMove           Kind = "move"
	KindFilter         Kind = "filter"
	KindClearCompleted Kind = "clearCompleted"
	KindCount          Kind = "count"
	KindHelp           Kind = "help"
	KindUnknown        Kind = "unknown"
)

// Direction is a move target within an item's local group.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Filter selects which items a view shows.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Command is one classified transcript. Fields beyond Kind are populated
// per kind: Text for add/delete/complete/move and the replacement in edit,
// Target for the edited item, Raw for unknown input.
type Command struct {
	Kind      Kind
	Text      string
	Target    string
	Filter    Filter
	Direction Direction
	Raw       string
}

// Patterns are tested in a fixed sequence; the first hit wins. Order
// matters because they overlap ("clear completed" must not reach the
// generic delete rule).
var (
	helpPattern           = regexp.MustCompile(`^(help|what can i say|commands|voice commands)$`)
	countPattern          = regexp.MustCompile(`^(how many|count|number of)\s+(items|list|tasks|todos)?$`)
	clearCompletedPattern = regexp.MustCompile(`^(clear|remove|delete)\s+(completed|done|checked|picked up|picked)(\s+items|\s+tasks|\s+todos|\s+list)?$`)
	filterPattern         = regexp.MustCompile(`^(show|filter)\s+(all|active|completed|picked up|picked|checked|need|needed)$`)
	movePattern           = regexp.MustCompile(`^move\s+(.*)\s+(up|down)$`)
	editPattern           = regexp.MustCompile(`^(edit|update|change)\s+(.*?)\s+(to|into)\s+(.*)$`)
	addPattern            = regexp.MustCompile(`^(add|create|new)\s+(.*)$`)
	deletePattern         = regexp.MustCompile(`^(delete|remove|discard)\s+(.*)$`)
	completePattern       = regexp.MustCompile(`^(complete|finish|mark|got|picked up|pick up)\s+(.*)$`)
	completeSuffix        = regexp.MustCompile(`\s+(done|complete|picked up|picked)$`)
)

// trimPunctuation strips surrounding quote characters and whitespace from
// captured groups.
func trimPunctuation(text string) string {
	return strings.Trim(text, ` "'` + "\t\n")
}

func foldFilter(raw string) Filter {
	switch raw {
	case "picked up", "picked", "checked":
		return FilterCompleted
	case "need", "needed":
		return FilterActive
	default:
		return Filter(raw)
	}
}

// Parse classifies one transcript. It is a pure function: matching is
// case-insensitive over the trimmed input and every non-empty string
// resolves to exactly one command kind.
func Parse(input string) Command {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{Kind: KindUnknown, Raw: input}
	}

	normalized := strings.ToLower(raw)

	if helpPattern.MatchString(normalized) {
		return Command{Kind: KindHelp}
	}

	if countPattern.MatchString(normalized) {
		return Command{Kind: KindCount}
	}

	if clearCompletedPattern.MatchString(normalized) {
		return Command{Kind: KindClearCompleted}
	}

	if m := filterPattern.FindStringSubmatch(normalized); m != nil {
		return Command{Kind: KindFilter, Filter: foldFilter(m[2])}
	}

	if m := movePattern.FindStringSubmatch(normalized); m != nil {
		return Command{
			Kind:      KindMove,
			Text:      trimPunctuation(m[1]),
			Direction: Direction(m[2]),
		}
	}

	if m := editPattern.FindStringSubmatch(normalized); m != nil {
		return Command{
			Kind:   KindEdit,
			Target: trimPunctuation(m[2]),
			Text:   trimPunctuation(m[4]),
		}
	}

	if m := addPattern.FindStringSubmatch(normalized); m != nil {
		return Command{Kind: KindAdd, Text: trimPunctuation(m[2])}
	}

	if m := deletePattern.FindStringSubmatch(normalized); m != nil {
		return Command{Kind: KindDelete, Text: trimPunctuation(m[2])}
	}

	if m := completePattern.FindStringSubmatch(normalized); m != nil {
		text := completeSuffix.ReplaceAllString(m[2], "")
		return Command{Kind: KindComplete, Text: trimPunctuation(text)}
	}

	return Command{Kind: KindUnknown, Raw: input}
}
