// Package page loads a study guide HTML document into content blocks and
// provides Page, an in-memory rendering surface for the search widget.
package page

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/sha1n/mcp-guide-search/internal/domain"
	"github.com/sha1n/mcp-guide-search/internal/guide"
)

// Document is a parsed study guide.
type Document struct {
	// Title is the text of the <title> element, if any.
	Title string
	// Blocks are the category blocks in document order.
	Blocks []domain.ContentBlock
}

// LoadFile parses the guide at path.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open guide: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse guide %s: %w", path, err)
	}
	return doc, nil
}

// Parse reads an HTML document and collects every element whose class list
// names a block category. Nested blocks are collected too; their text also
// remains part of the enclosing block.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	p := &parser{
		counters: make(map[domain.Category]int),
		refs:     make(map[domain.SourceRef]bool),
	}
	p.walk(root)

	return &Document{Title: p.title, Blocks: p.blocks}, nil
}

type parser struct {
	title    string
	blocks   []domain.ContentBlock
	counters map[domain.Category]int
	refs     map[domain.SourceRef]bool
}

func (p *parser) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		if n.DataAtom == atom.Title && p.title == "" {
			p.title = guide.CollapseWhitespace(textContent(n))
		}
		if c := blockCategory(n); c != domain.CategoryUnknown {
			p.add(n, c)
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		p.walk(child)
	}
}

func (p *parser) add(n *html.Node, c domain.Category) {
	p.counters[c]++

	block := domain.ContentBlock{
		Category:  c,
		RawText:   innerHTML(n),
		SourceRef: p.uniqueRef(attr(n, "id"), c),
	}
	if c == domain.CategoryTopic {
		if h := firstHeading(n); h != nil {
			block.Heading = innerHTML(h)
		}
	}

	p.blocks = append(p.blocks, block)
}

// uniqueRef returns id, or "<category>-<n>" when id is empty. Repeated refs
// get a numeric suffix.
func (p *parser) uniqueRef(id string, c domain.Category) domain.SourceRef {
	base := strings.TrimSpace(id)
	if base == "" {
		base = c.String() + "-" + strconv.Itoa(p.counters[c])
	}

	ref := domain.SourceRef(base)
	for i := 2; p.refs[ref]; i++ {
		ref = domain.SourceRef(base + "-" + strconv.Itoa(i))
	}
	p.refs[ref] = true
	return ref
}

// blockCategory returns the first category named by the class attribute.
func blockCategory(n *html.Node) domain.Category {
	for _, class := range strings.Fields(attr(n, "class")) {
		if c := domain.ParseCategory(class); c != domain.CategoryUnknown {
			return c
		}
	}
	return domain.CategoryUnknown
}

func firstHeading(n *html.Node) *html.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode {
			switch child.DataAtom {
			case atom.H1, atom.H2, atom.H3, atom.H4:
				return child
			}
		}
		if h := firstHeading(child); h != nil {
			return h
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func innerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		_ = html.Render(&buf, child)
	}
	return buf.String()
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		sb.WriteString(textContent(child))
	}
	return sb.String()
}
