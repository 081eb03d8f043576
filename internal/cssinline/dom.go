package cssinline

import (
	"slices"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// styleElements matches every <style> element, wherever the parser put it.
var styleElements = cascadia.MustCompile("style")

// document is a parsed template. A template whose first markup is a doctype or
// an html, head or body tag renders back as a full document; anything else is
// a body fragment and renders without those wrappers.
type document struct {
	root     *html.Node
	fragment bool
}

const byteOrderMark = "\uFEFF"

func parseDocument(src string) (*document, error) {
	src = strings.TrimPrefix(src, byteOrderMark)
	if isFullDocument(src) {
		root, err := html.Parse(strings.NewReader(src))
		if err != nil {
			return nil, err
		}
		return &document{root: root}, nil
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return nil, err
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return &document{root: root, fragment: true}, nil
}

// isFullDocument skips leading comments and whitespace and reports whether the
// first markup opens a document.
func isFullDocument(src string) bool {
	z := html.NewTokenizer(strings.NewReader(src))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.CommentToken:
			continue
		case html.TextToken:
			if strings.TrimSpace(string(z.Text())) == "" {
				continue
			}
			return false
		case html.DoctypeToken:
			return true
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Html, atom.Head, atom.Body:
				return true
			}
			return false
		default:
			return false
		}
	}
}

func (d *document) render() (string, error) {
	var b strings.Builder
	if !d.fragment {
		err := html.Render(&b, d.root)
		return b.String(), err
	}
	for c := range d.root.ChildNodes() {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// styles returns the <style> elements in document order.
func (d *document) styles() []*html.Node {
	return cascadia.QueryAll(d.root, styleElements)
}

// text concatenates the direct text children of n.
func text(n *html.Node) string {
	var b strings.Builder
	for c := range n.ChildNodes() {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func attrIndex(n *html.Node, key string) int {
	return slices.IndexFunc(n.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && a.Key == key
	})
}

func attr(n *html.Node, key string) (string, bool) {
	if i := attrIndex(n, key); i >= 0 {
		return n.Attr[i].Val, true
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	if i := attrIndex(n, key); i >= 0 {
		n.Attr[i].Val = val
		return
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func deleteAttr(n *html.Node, key string) {
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && a.Key == key
	})
}
