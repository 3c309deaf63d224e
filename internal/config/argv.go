package config

import (
	"fmt"
	"strings"
	"unicode"
)

// parseArgv splits a configured speak command into argv words. It supports
// single and double quotes plus backslash escapes, enough for commands like
// `piper --voice "en US/amy"` without invoking a shell. Blank lines and
// comment lines produce no argv.
func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var argv []string
	var word strings.Builder

	appendWord := func() {
		if word.Len() > 0 {
			argv = append(argv, word.String())
			word.Reset()
		}
	}

	var quote rune
	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\\' {
			i++
			if i >= len(runes) {
				return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
			}
			word.WriteRune(runes[i])
			continue
		}
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				word.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
		case unicode.IsSpace(r):
			appendWord()
		default:
			word.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}
	appendWord()

	return argv, nil
}
