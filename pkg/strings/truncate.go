package strings

import (
	"strings"
)

// DefaultSnippetMaxLen is the default maximum length for response bodies and
// other remote text embedded in error messages.
const DefaultSnippetMaxLen = 200

// MinTruncateLen is the minimum maxLen value for Truncate.
// Values smaller than this would not leave room for meaningful content plus "...".
const MinTruncateLen = 4

// Truncate truncates a string to maxLen runes and ensures single-line output.
// Whitespace runs (including newlines) collapse into single spaces and "..."
// marks a cut. maxLen below MinTruncateLen is clamped.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// Snippet truncates remote text to DefaultSnippetMaxLen.
func Snippet(s string) string {
	return Truncate(s, DefaultSnippetMaxLen)
}
