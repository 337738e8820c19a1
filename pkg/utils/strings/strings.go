package strings

import "strings"

// like strings.Split(s, sep), but return empty slice when s == ""
//
// Newline-separated array values rely on this: "" is an empty array, not [""].
func SplitIfNotEmpty(s string, sep string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, sep)
}

// prepend prefix to each line of text.
//
// example:
//
//	Indent("a\nb", "  ")  // -> "  a\n  b"
//	Indent("", "  ")      // -> ""
func Indent(text string, prefix string) string {
	lines := SplitIfNotEmpty(text, "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}
