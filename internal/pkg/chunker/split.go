package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars is the max chunk length used when no positive limit is provided
const DefaultMaxChars = 500

var (
	paragraphBreak = regexp.MustCompile(`\n[ \t\r\f\v]*\n`)
	sentenceEnd    = regexp.MustCompile(`[.!?][\s\p{Z}]+`)
)

// Split splits text into speakable pieces not longer than maxChars.
// Paragraphs (separated by blank lines) are kept whole if they fit,
// longer ones are packed sentence by sentence. A sentence longer than maxChars
// is returned as a separate chunk.
func Split(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	var res []string
	for _, p := range paragraphBreak.Split(trimmed, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if utf8.RuneCountInString(p) <= maxChars {
			res = append(res, p)
			continue
		}
		res = append(res, packSentences(sentences(p), maxChars)...)
	}
	if len(res) == 0 {
		return []string{trimmed}
	}
	return res
}

func sentences(p string) []string {
	var res []string
	start := 0
	for _, m := range sentenceEnd.FindAllStringIndex(p, -1) {
		// punctuation is a single byte, cut right after it
		if s := strings.TrimSpace(p[start : m[0]+1]); s != "" {
			res = append(res, s)
		}
		start = m[1]
	}
	if s := strings.TrimSpace(p[start:]); s != "" {
		res = append(res, s)
	}
	return res
}

func packSentences(sents []string, maxChars int) []string {
	var res []string
	var cur strings.Builder
	curLen := 0
	for _, s := range sents {
		l := utf8.RuneCountInString(s)
		if curLen > 0 && curLen+1+l > maxChars {
			res = append(res, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(s)
		curLen += l
	}
	if curLen > 0 {
		res = append(res, cur.String())
	}
	return res
}
