// Package jsonparser validates and repairs the argument JSON a streaming
// tool call accumulates fragment by fragment. Mid-stream, a buffer is
// expected to be truncated (open braces, a string cut in half, a dangling
// literal); Repair closes those structures so the buffer can be checked for
// well-formedness without waiting for the final fragment.
package jsonparser

import (
	"strings"
)

// Repair closes the unclosed structures of a truncated JSON document: open
// strings, partial true/false/null literals, and unbalanced braces and
// brackets. Input that contains no recognizable JSON at all returns "".
func Repair(text string) string {
	if text == "" {
		return ""
	}

	var open []byte
	inString := false
	escaped := false
	end := -1

	for i := 0; i < len(text); i++ {
		c := text[i]

		if escaped {
			escaped = false
			end = i
			continue
		}
		if inString && c == '\\' {
			escaped = true
			end = i
			continue
		}
		if c == '"' {
			inString = !inString
			end = i
			continue
		}
		if inString {
			end = i
			continue
		}

		switch c {
		case '{', '[':
			open = append(open, c)
			end = i
		case '}':
			if len(open) > 0 && open[len(open)-1] == '{' {
				open = open[:len(open)-1]
				end = i
			}
		case ']':
			if len(open) > 0 && open[len(open)-1] == '[' {
				open = open[:len(open)-1]
				end = i
			}
		case ',', ':', ' ', '\t', '\n', '\r',
			'0', '1', '2', '3', '4', '5', '6', '7', '8', '9',
			'-', '.', 'e', 'E', '+', 't', 'r', 'u', 'f', 'a', 'l', 's', 'n':
			end = i
		}
	}

	if end < 0 {
		return ""
	}

	repaired := text[:end+1]
	if inString {
		repaired += `"`
	}
	repaired = completeDanglingLiteral(repaired)

	for i := len(open) - 1; i >= 0; i-- {
		if open[i] == '{' {
			repaired += "}"
		} else {
			repaired += "]"
		}
	}
	return repaired
}

// completeDanglingLiteral finishes a true/false/null literal cut off at the
// end of the buffer, e.g. {"active":tr -> {"active":true.
func completeDanglingLiteral(s string) string {
	i := len(s) - 1
	for i >= 0 && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i--
	}
	if i < 0 {
		return s
	}

	start := i
	for start > 0 && s[start-1] >= 'a' && s[start-1] <= 'z' {
		start--
	}
	if start == i+1 {
		return s
	}

	partial := s[start : i+1]
	for _, literal := range []string{"true", "false", "null"} {
		if partial != literal && strings.HasPrefix(literal, partial) {
			return s[:start] + literal
		}
	}
	return s
}
