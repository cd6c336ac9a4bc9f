// Package sanitize cleans raw model output before it is parsed.
package sanitize

import (
	"strings"
	"unicode/utf8"
)

// Text replaces every rune in U+0000–U+0019 and U+007F–U+009F with a single
// space. Newline and tab are kept as is. Bytes that are not valid UTF-8 are
// copied through unchanged.
func Text(s string) string {
	if !hasControl(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			b.WriteByte(s[i])
			i++
			continue
		}
		if isControl(r) {
			b.WriteByte(' ')
		} else {
			b.WriteString(s[i : i+size])
		}
		i += size
	}

	return b.String()
}

func isControl(r rune) bool {
	if r == '\n' || r == '\t' {
		return false
	}
	return r <= 0x19 || (r >= 0x7f && r <= 0x9f)
}

func hasControl(s string) bool {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !(r == utf8.RuneError && size <= 1) && isControl(r) {
			return true
		}
		i += size
	}
	return false
}

// ExtractJSON narrows s down to its first balanced JSON object or array,
// dropping markdown code fences and any prose around it. It returns s
// trimmed when no opening bracket is found.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}

	var (
		depth    int
		inString bool
		escaped  bool
	)
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return s[start:]
}
