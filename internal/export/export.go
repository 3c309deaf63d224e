// Package export renders list items in shareable text formats.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"voxcart/internal/list"
)

// Format names one supported output encoding.
type Format string

const (
	FormatPlain    Format = "plain"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// Valid reports whether value names a supported format.
func Valid(value string) bool {
	switch Format(value) {
	case FormatPlain, FormatMarkdown, FormatJSON:
		return true
	default:
		return false
	}
}

// Options controls rendering. IncludeChecked keeps completed items;
// filtering always happens before formatting.
type Options struct {
	Format         Format
	IncludeChecked bool
}

// Render produces the formatted list text.
func Render(items []list.Item, opts Options) (string, error) {
	filtered := items
	if !opts.IncludeChecked {
		filtered = list.Filtered(items, list.FilterActive)
	}

	switch opts.Format {
	case FormatMarkdown:
		lines := make([]string, 0, len(filtered))
		for _, item := range filtered {
			mark := " "
			if item.Completed {
				mark = "x"
			}
			lines = append(lines, fmt.Sprintf("- [%s] %s", mark, item.Label()))
		}
		return strings.Join(lines, "\n"), nil
	case FormatJSON:
		encoded, err := json.MarshalIndent(filtered, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode items: %w", err)
		}
		return string(encoded), nil
	case FormatPlain, "":
		lines := make([]string, 0, len(filtered))
		for _, item := range filtered {
			lines = append(lines, item.Label())
		}
		return strings.Join(lines, "\n"), nil
	default:
		return "", fmt.Errorf("unknown export format %q", opts.Format)
	}
}
