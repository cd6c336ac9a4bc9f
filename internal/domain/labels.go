package domain

import (
	"fmt"
	"strings"
)

const MaxCategories = 5

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// CleanCategories lowercases and trims labels, drops empties and duplicates
// and keeps at most MaxCategories. The result is never nil.
func CleanCategories(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))

	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
		if len(out) == MaxCategories {
			break
		}
	}
	return out
}

// CleanSteps trims steps and drops empty ones, keeping order. The result is
// never nil.
func CleanSteps(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func HasCategory(categories []string, c string) bool {
	c = strings.ToLower(strings.TrimSpace(c))
	for _, have := range categories {
		if have == c {
			return true
		}
	}
	return false
}
