package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	t.Run("Should replace control characters with a space", func(t *testing.T) {
		in := "{\"title\":\"a\x00b\x07c\x19d\"}"
		assert.Equal(t, "{\"title\":\"a b c d\"}", Text(in))
	})

	t.Run("Should keep newline and tab", func(t *testing.T) {
		in := "line1\nline2\tcol"
		assert.Equal(t, in, Text(in))
	})

	t.Run("Should replace carriage return", func(t *testing.T) {
		assert.Equal(t, "a b", Text("a\rb"))
	})

	t.Run("Should replace DEL and C1 controls", func(t *testing.T) {
		in := "a\u007fb\u0085c\u009fd"
		assert.Equal(t, "a b c d", Text(in))
	})

	t.Run("Should leave 0x1A-0x1F untouched", func(t *testing.T) {
		in := "a\x1ab\x1fc"
		assert.Equal(t, in, Text(in))
	})

	t.Run("Should keep non-ASCII text intact", func(t *testing.T) {
		in := "Купить молоко 🥛 до пятницы"
		assert.Equal(t, in, Text(in))
	})

	t.Run("Should copy invalid UTF-8 bytes through", func(t *testing.T) {
		in := "a\xffb\x01"
		out := Text(in)
		assert.Equal(t, "a\xffb ", out)
	})

	t.Run("Should be idempotent", func(t *testing.T) {
		inputs := []string{
			"",
			"plain",
			"\x00\x01\x02\n\t\r",
			"mixed \u0080 \u009f   text\x1b",
			"\xfe\xff\x00",
			strings.Repeat("\x05ok\n", 10),
		}
		for _, in := range inputs {
			once := Text(in)
			assert.Equal(t, once, Text(once), "input %q", in)
		}
	})

	t.Run("Should only change runes in the control ranges", func(t *testing.T) {
		in := "a\x00é\u0090\n\t\x1a"
		out := Text(in)
		assert.Equal(t, len(in)-1, len(out)) // U+0090 is two bytes, replaced by one
		assert.True(t, utf8.ValidString(out))
		assert.Equal(t, "a é \n\t\x1a", out)
	})
}

func TestExtractJSON(t *testing.T) {
	t.Run("Should strip markdown fences", func(t *testing.T) {
		in := "```json\n{\"kind\":\"task\",\"confidence\":0.9}\n```"
		assert.Equal(t, `{"kind":"task","confidence":0.9}`, ExtractJSON(in))
	})

	t.Run("Should drop surrounding prose", func(t *testing.T) {
		in := `Here you go: ["work", "call"] hope it helps`
		assert.Equal(t, `["work", "call"]`, ExtractJSON(in))
	})

	t.Run("Should respect brackets inside strings", func(t *testing.T) {
		in := `{"title":"fix } bug","content":"a [b]"} trailing`
		assert.Equal(t, `{"title":"fix } bug","content":"a [b]"}`, ExtractJSON(in))
	})

	t.Run("Should handle escaped quotes", func(t *testing.T) {
		in := `{"title":"say \"hi\" }"}`
		assert.Equal(t, in, ExtractJSON(in))
	})

	t.Run("Should return trimmed input without brackets", func(t *testing.T) {
		assert.Equal(t, "3", ExtractJSON("  3 \n"))
	})
}
