package format

import "strings"

// LineIndentAt returns the leading whitespace of the line containing offset.
func LineIndentAt(source []byte, offset int) string {
	if offset > len(source) {
		offset = len(source)
	}
	start := offset
	for start > 0 && source[start-1] != '\n' {
		start--
	}
	end := start
	for end < len(source) && (source[end] == ' ' || source[end] == '\t') {
		end++
	}
	return string(source[start:end])
}

// Reindent rebases a snippet sliced out of source text onto newIndent.
// The snippet's first line starts at the slice point and carries no leading
// whitespace of its own; continuation lines still carry their original
// absolute indentation, of which oldIndent is the statement's base. Deeper
// lines keep their relative depth. Blank lines stay blank.
func Reindent(text, oldIndent, newIndent string) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= 1 {
		return text
	}

	out := []string{lines[0]}
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			out = append(out, "")
			continue
		}
		rel := (len(line) - len(trimmed)) - len(oldIndent)
		if rel < 0 {
			rel = 0
		}
		out = append(out, newIndent+strings.Repeat(" ", rel)+trimmed)
	}
	return strings.Join(out, "\n")
}
