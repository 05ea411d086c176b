package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// JATSParser reads journal articles in JATS xml
type JATSParser struct{}

// Parse implements Parser
func (p *JATSParser) Parse(ctx context.Context, fileName string) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(fileName); err != nil {
		return nil, fmt.Errorf("can't parse xml: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("no root element")
	}
	res := &Document{}
	if e := first(root, "article-title"); e != nil {
		res.Title = strings.TrimSpace(allText(e))
	}
	if e := first(root, "abstract"); e != nil {
		res.Abstract = strings.TrimSpace(allText(e))
	}
	body := first(root, "body")
	if body == nil {
		return res, nil
	}
	for _, sec := range descendants(body, "sec") {
		var s Section
		if t := sec.SelectElement("title"); t != nil {
			s.Title = strings.TrimSpace(t.Text())
		}
		var texts []string
		for _, p := range sec.SelectElements("p") {
			texts = append(texts, strings.TrimSpace(allText(p)))
		}
		s.Text = strings.Join(texts, "\n")
		if s.Title != "" || s.Text != "" {
			res.Sections = append(res.Sections, s)
		}
	}
	return res, nil
}

// descendants returns elements by local name in document order, namespace is ignored
func descendants(e *etree.Element, tag string) []*etree.Element {
	var res []*etree.Element
	for _, c := range e.ChildElements() {
		if c.Tag == tag {
			res = append(res, c)
		}
		res = append(res, descendants(c, tag)...)
	}
	return res
}

func first(e *etree.Element, tag string) *etree.Element {
	if e.Tag == tag {
		return e
	}
	for _, c := range e.ChildElements() {
		if res := first(c, tag); res != nil {
			return res
		}
	}
	return nil
}

// allText collects char data of the element and all its descendants
func allText(e *etree.Element) string {
	var sb strings.Builder
	var walk func(*etree.Element)
	walk = func(el *etree.Element) {
		for _, t := range el.Child {
			switch v := t.(type) {
			case *etree.CharData:
				sb.WriteString(v.Data)
			case *etree.Element:
				walk(v)
			}
		}
	}
	walk(e)
	return sb.String()
}
