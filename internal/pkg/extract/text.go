package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

const (
	maxTitleLen  = 100
	defaultTitle = "Text Document"
)

// TextParser reads plain text files.
// The first line is the title if it is shorter than 100 chars
type TextParser struct{}

// Parse implements Parser
func (p *TextParser) Parse(ctx context.Context, fileName string) (*Document, error) {
	b, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("can't read %s: %w", fileName, err)
	}
	if !utf8.Valid(b) {
		return nil, fmt.Errorf("not utf-8 text")
	}
	return fromPlainText(string(b)), nil
}

func fromPlainText(content string) *Document {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	title, body := defaultTitle, strings.TrimSpace(content)
	first, rest, _ := strings.Cut(content, "\n")
	if utf8.RuneCountInString(first) < maxTitleLen {
		title = strings.TrimSpace(first)
		body = strings.TrimSpace(rest)
	}
	return &Document{Title: title, Sections: []Section{{Text: body}}}
}
