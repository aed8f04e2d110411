package locator

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is the query capability the extractor needs from a parsed page.
type Document interface {
	// FindAll returns the elements matching a CSS selector group in document order.
	FindAll(selector string) []Node
}

// Node is a read-only view of one element.
type Node interface {
	Tag() string
	Attr(name string) (string, bool)
	Text() string
	// Siblings returns the element siblings, excluding the node itself.
	Siblings() []Node
	// PrecedingSiblings returns the element siblings before the node.
	PrecedingSiblings() []Node
}

// ParseHTML parses markup into a Document. Malformed markup is repaired the
// way browsers do it, so only reader failures surface as errors.
func ParseHTML(html string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return &goqueryDocument{doc: doc}, nil
}

type goqueryDocument struct {
	doc *goquery.Document
}

func (d *goqueryDocument) FindAll(selector string) []Node {
	return nodesOf(d.doc.Find(selector))
}

type goqueryNode struct {
	sel *goquery.Selection
}

func (n goqueryNode) Tag() string {
	return strings.ToLower(goquery.NodeName(n.sel))
}

func (n goqueryNode) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n goqueryNode) Text() string {
	return n.sel.Text()
}

func (n goqueryNode) Siblings() []Node {
	return nodesOf(n.sel.Siblings())
}

func (n goqueryNode) PrecedingSiblings() []Node {
	return nodesOf(n.sel.PrevAll())
}

func nodesOf(sel *goquery.Selection) []Node {
	nodes := make([]Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, goqueryNode{sel: s})
	})
	return nodes
}

// attr returns a trimmed attribute value, empty when absent.
func attr(n Node, name string) string {
	v, _ := n.Attr(name)
	return strings.TrimSpace(v)
}
