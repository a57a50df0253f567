// Package rag turns search hits into the grounding text handed to the
// language model.
package rag

import (
	"fmt"
	"strings"

	"lookuply-search-api/internal/models"
)

const (
	// SnippetLength bounds Source.Snippet before the marker is appended.
	SnippetLength = 200
	// ContextContentLength bounds each hit body inside a context block.
	ContextContentLength = 500
	// TruncationMarker is appended to snippets that were cut.
	TruncationMarker = "..."
)

// Truncate returns the first n characters of s. It counts runes, so
// multi-byte text is never split mid-character.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Snippet shortens content for display, marking the cut.
func Snippet(content string) string {
	cut := Truncate(content, SnippetLength)
	if len(cut) < len(content) {
		return cut + TruncationMarker
	}
	return content
}

// BuildContext renders hits as numbered blocks separated by a blank line.
// No hits yields "", which callers treat as "nothing to ground on".
func BuildContext(hits []models.SearchHit) string {
	if len(hits) == 0 {
		return ""
	}

	var b strings.Builder
	for i, h := range hits {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Source %d (%s):\n", i+1, h.Title)
		fmt.Fprintf(&b, "URL: %s\n", h.URL)
		b.WriteString(Truncate(h.Content, ContextContentLength))
		b.WriteString("\n")
	}
	return b.String()
}
