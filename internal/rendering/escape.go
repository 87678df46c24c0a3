package rendering

import (
	"strings"
)

// EscapeLaTeX escapes special LaTeX characters in text
// Special characters: \ { } $ & % # ^ _ ~
func EscapeLaTeX(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) * 2)

	for _, r := range text {
		switch r {
		case '\\':
			result.WriteString(`\textbackslash{}`)
		case '{', '}', '$', '&', '%', '#', '_':
			result.WriteByte('\\')
			result.WriteRune(r)
		case '^':
			result.WriteString(`\textasciicircum{}`)
		case '~':
			result.WriteString(`\textasciitilde{}`)
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

// bulletPrefixes are the list markers users type at the start of description lines.
var bulletPrefixes = []string{"•", "-", "*", "–"}

// BulletLines splits a free-text description into escaped bullet items, one per non-blank
// line, with any leading list marker removed.
func BulletLines(description string) []string {
	var items []string
	for _, line := range strings.Split(description, "\n") {
		line = strings.TrimSpace(line)
		for _, p := range bulletPrefixes {
			if strings.HasPrefix(line, p) {
				line = strings.TrimSpace(strings.TrimPrefix(line, p))
				break
			}
		}
		if line == "" {
			continue
		}
		items = append(items, EscapeLaTeX(line))
	}
	return items
}

// LaTeXColor converts a "#rrggbb" theme color into the uppercase hex form used by xcolor's
// HTML model. Anything else falls back to the default theme color.
func LaTeXColor(theme string) string {
	if isHexColor(theme) {
		return strings.ToUpper(theme[1:])
	}
	return "2563EB"
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
