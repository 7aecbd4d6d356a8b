package config

import (
	"errors"
	"strings"
)

// normalizeJSONC blanks out comments and trailing commas in one pass.
// Removed bytes become spaces so decoder offsets still map to source lines.
func normalizeJSONC(content string) (string, error) {
	out := make([]byte, 0, len(content))
	// pendingComma is the index of the last comma not yet followed by a
	// significant byte; a closing bracket turns it into a space.
	pendingComma := -1

	for i := 0; i < len(content); i++ {
		ch := content[i]

		switch {
		case ch == '"':
			pendingComma = -1
			end := scanString(content, i)
			out = append(out, content[i:end]...)
			i = end - 1
		case ch == '/' && i+1 < len(content) && content[i+1] == '/':
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				out = append(out, ' ')
				i++
			}
			i--
		case ch == '/' && i+1 < len(content) && content[i+1] == '*':
			end := strings.Index(content[i+2:], "*/")
			if end < 0 {
				return "", errors.New("unterminated block comment in JSONC")
			}
			stop := i + 2 + end + 2
			for ; i < stop; i++ {
				out = append(out, blank(content[i]))
			}
			i--
		case ch == ' ' || ch == '\n' || ch == '\r' || ch == '\t':
			out = append(out, ch)
		case ch == ',':
			pendingComma = len(out)
			out = append(out, ch)
		case ch == '}' || ch == ']':
			if pendingComma >= 0 {
				out[pendingComma] = ' '
				pendingComma = -1
			}
			out = append(out, ch)
		default:
			pendingComma = -1
			out = append(out, ch)
		}
	}

	return string(out), nil
}

// scanString returns the index just past the string literal opening at start.
// An unterminated string runs to the end; the JSON decoder reports it.
func scanString(content string, start int) int {
	for i := start + 1; i < len(content); i++ {
		switch content[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(content)
}

func blank(ch byte) byte {
	if ch == '\n' || ch == '\r' || ch == '\t' {
		return ch
	}
	return ' '
}
