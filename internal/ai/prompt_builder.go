package ai

import (
	"strings"
	"time"
)

// BuildDueTimeInput formats the user message for the due-time extractor.
func BuildDueTimeInput(text string, reference time.Time) string {
	var b strings.Builder

	b.WriteString("reference_instant: ")
	b.WriteString(reference.Format(time.RFC3339))
	b.WriteString(" (")
	b.WriteString(reference.Weekday().String())
	b.WriteString(")\n")

	b.WriteString("text: ")
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n")

	return b.String()
}

// BuildStructuredText joins a structured title and its content into the text
// the enrichers read.
func BuildStructuredText(title, content string) string {
	t := strings.TrimSpace(title)
	c := strings.TrimSpace(content)

	if c == "" {
		return t
	}
	return t + "\n" + c
}
