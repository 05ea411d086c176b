package chunker

import (
	"fmt"
	"strings"

	"github.com/airenas/docread/internal/pkg/extract"
)

// Chunk is a text unit passed to the synthesizer in one call
type Chunk struct {
	Text string
	// Announcement marks the title, "Abstract." and section markers
	Announcement bool
}

// AbstractAnnouncement is read before the abstract text
const AbstractAnnouncement = "Abstract."

// Build prepares the ordered list of chunks for the document
func Build(doc *extract.Document, maxChars int) []Chunk {
	var res []Chunk
	if doc == nil {
		return res
	}
	if t := strings.TrimSpace(doc.Title); t != "" {
		res = append(res, Chunk{Text: fmt.Sprintf("Title: %s.", t), Announcement: true})
	}
	if strings.TrimSpace(doc.Abstract) != "" {
		res = append(res, Chunk{Text: AbstractAnnouncement, Announcement: true})
		res = appendContent(res, doc.Abstract, maxChars)
	}
	for _, s := range doc.Sections {
		if t := strings.TrimSpace(s.Title); t != "" {
			res = append(res, Chunk{Text: fmt.Sprintf("Section: %s.", t), Announcement: true})
		}
		if strings.TrimSpace(s.Text) != "" {
			res = appendContent(res, s.Text, maxChars)
		}
	}
	return res
}

func appendContent(res []Chunk, text string, maxChars int) []Chunk {
	for _, s := range Split(text, maxChars) {
		res = append(res, Chunk{Text: s})
	}
	return res
}
