package extract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFParser takes plain text from pdf and handles it as a text document
type PDFParser struct{}

// Parse implements Parser
func (p *PDFParser) Parse(ctx context.Context, fileName string) (res *Document, err error) {
	// the pdf lib panics on some broken files
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("can't read pdf: %v", r)
		}
	}()
	f, r, err := pdf.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("can't open pdf: %w", err)
	}
	defer f.Close()
	tr, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("can't get text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(tr); err != nil {
		return nil, fmt.Errorf("can't read text: %w", err)
	}
	return fromPlainText(buf.String()), nil
}
