package textutil

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// ObjectReplacement is the placeholder Messages inserts where an inline
// attachment sits in the text.
const ObjectReplacement = "\ufffc"

// CleanMessageText repairs the encoding of text recovered from a message
// body, removes attachment placeholders and trims surrounding whitespace.
func CleanMessageText(s string) string {
	s = EnsureUTF8(s)
	s = strings.ReplaceAll(s, ObjectReplacement, "")
	return strings.TrimSpace(s)
}

// SanitizeFilename replaces characters that are invalid in filenames on
// common filesystems with underscores.
func SanitizeFilename(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r < 0x20:
			sb.WriteByte('_')
		case strings.ContainsRune(`/\:*?"<>|`, r):
			sb.WriteByte('_')
		default:
			sb.WriteRune(r)
		}
	}
	name := strings.Trim(sb.String(), " .")
	if name == "" {
		return "_"
	}
	return name
}

// TruncateWidth shortens s to fit within maxWidth terminal cells, adding
// "..." when it cuts. Newlines and tabs become spaces so table rows stay on
// one line.
func TruncateWidth(s string, maxWidth int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// FirstLine returns the first line of s after skipping leading newlines.
func FirstLine(s string) string {
	s = strings.TrimLeft(s, "\r\n")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimRight(s[:idx], "\r")
	}
	return s
}
