package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{name: "empty", text: "", max: 10, want: nil},
		{name: "spaces", text: " \n\t \n\n ", max: 10, want: nil},
		{name: "one", text: "  olia  ", max: 10, want: []string{"olia"}},
		{name: "paragraphs", text: "p one\n\np two\n\n\n\np three", max: 100, want: []string{"p one", "p two", "p three"}},
		{name: "blank line with spaces", text: "p one\n  \t\np two", max: 100, want: []string{"p one", "p two"}},
		{name: "single newline kept", text: "line one\nline two", max: 100, want: []string{"line one\nline two"}},
		{name: "sentences", text: "Aaa aaa. Bbb bbb! Ccc ccc? Ddd.", max: 18,
			want: []string{"Aaa aaa. Bbb bbb!", "Ccc ccc? Ddd."}},
		{name: "exact fit", text: "Aaa. Bbb.", max: 9, want: []string{"Aaa. Bbb."}},
		{name: "one over", text: "Aaa. Bbbb.", max: 9, want: []string{"Aaa.", "Bbbb."}},
		{name: "long sentence verbatim", text: "Short. This sentence is far too long for the limit. End.", max: 10,
			want: []string{"Short.", "This sentence is far too long for the limit.", "End."}},
		{name: "no boundary", text: "abcdefghijklmnop", max: 5, want: []string{"abcdefghijklmnop"}},
		{name: "default max", text: "olia", max: 0, want: []string{"olia"}},
		{name: "only long paragraph split", text: "Aa. Bb. Cc.\n\nshort", max: 7,
			want: []string{"Aa. Bb.", "Cc.", "short"}},
		{name: "runes", text: "Ąčę ėį. Šųū ž.", max: 8, want: []string{"Ąčę ėį.", "Šųū ž."}},
		{name: "unicode spaces", text: "Aaaa.\u00a0Bbbb.\u2003Cccc.", max: 6, want: []string{"Aaaa.", "Bbbb.", "Cccc."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.text, tt.max))
		})
	}
}

func TestSplit_Properties(t *testing.T) {
	texts := []string{
		"",
		"One.",
		strings.Repeat("Lorem ipsum dolor sit amet, consectetur adipiscing elit. ", 40),
		strings.Repeat("Para one is here. It has two sentences.\n\n", 30),
		"Why? Because! " + strings.Repeat("x", 700) + ". Tail sentence here.\n\n\nNext para.",
		strings.Repeat("word ", 300),
		"A.\n\nB!\n\nC?",
		strings.Repeat("Non breaking space.\u00a0Em space follows.\u2003", 20),
	}
	for _, max := range []int{10, 50, 120, DefaultMaxChars} {
		for _, text := range texts {
			chunks := Split(text, max)
			for _, c := range chunks {
				require.NotEmpty(t, strings.TrimSpace(c))
				assert.Equal(t, strings.TrimSpace(c), c)
				if utf8.RuneCountInString(c) > max {
					// only a single sentence may exceed the limit
					assert.Len(t, sentences(c), 1, "chunk %q", c)
				}
			}
			assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(chunks, " ")))
			assert.Equal(t, chunks, Split(text, max))
		}
	}
}

func Test_sentences(t *testing.T) {
	assert.Equal(t, []string{"A b.", "C d!", "E?", "f"}, sentences("A b.  C d!\nE?\tf"))
	assert.Equal(t, []string{"no end"}, sentences("no end"))
	assert.Equal(t, []string{"end."}, sentences("end."))
	assert.Equal(t, []string{"3.14 is pi."}, sentences("3.14 is pi."))
	assert.Equal(t, []string{"A.", "B!", "C?"}, sentences("A.\u00a0B!\u2003\u00a0C?"))
}
