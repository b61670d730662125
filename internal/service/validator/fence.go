package validator

import "strings"

// stripMarkdownCodeFences removes a leading ```json (or plain ```) fence
// together with its matching closing fence. Best effort: only a fence pair
// at the very start and end of the text is recognized; a fenced block in the
// middle of a reply is left alone and will fall into the raw-fallback path.
func stripMarkdownCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	newline := strings.Index(trimmed, "\n")
	if newline == -1 {
		return trimmed
	}
	closing := strings.LastIndex(trimmed, "```")
	if closing <= newline {
		return trimmed
	}
	return strings.TrimSpace(trimmed[newline+1 : closing])
}
