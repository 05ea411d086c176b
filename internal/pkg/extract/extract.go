package extract

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/airenas/go-app/pkg/goapp"
)

type (
	// Section is one document part, both fields may be empty
	Section struct {
		Title string
		Text  string
	}

	// Document is the extracted structure
	Document struct {
		Title    string
		Abstract string
		Sections []Section
	}
)

// Parser extracts document structure from a file of one format
type Parser interface {
	Parse(ctx context.Context, fileName string) (*Document, error)
}

// Extractor selects parser by file extension
type Extractor struct {
	parsers map[string]Parser
}

// NewExtractor creates extractor with txt, xml and pdf parsers
func NewExtractor() *Extractor {
	return &Extractor{parsers: map[string]Parser{
		".txt": &TextParser{},
		".xml": &JATSParser{},
		".pdf": &PDFParser{},
	}}
}

// Supported returns true if there is a parser for the file extension
func (e *Extractor) Supported(fileName string) bool {
	_, ok := e.parsers[ext(fileName)]
	return ok
}

// Extract never fails, on any problem an empty document is returned
func (e *Extractor) Extract(ctx context.Context, fileName string) *Document {
	p, ok := e.parsers[ext(fileName)]
	if !ok {
		goapp.Log.Warn().Str("file", fileName).Msg("unsupported format")
		return &Document{}
	}
	res, err := p.Parse(ctx, fileName)
	if err != nil {
		goapp.Log.Warn().Err(err).Str("file", fileName).Msg("can't extract")
		return &Document{}
	}
	goapp.Log.Info().Str("file", fileName).Str("title", res.Title).Int("sections", len(res.Sections)).Msg("extracted")
	return res
}

func ext(fileName string) string {
	return strings.ToLower(filepath.Ext(fileName))
}
