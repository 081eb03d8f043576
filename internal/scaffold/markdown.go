package scaffold

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ErrMarkdownConversion indicates the Markdown draft could not be converted.
var ErrMarkdownConversion = errors.New("markdown conversion failed")

// codeStyle is the chroma style used for fenced code blocks.
const codeStyle = "github"

// MarkdownConverter turns a Markdown draft into the body of a template.
type MarkdownConverter interface {
	ToHTML(ctx context.Context, content string) (string, error)
}

// GoldmarkConverter renders drafts with GFM, smart punctuation and inline
// styled code blocks. Raw HTML in drafts is dropped.
type GoldmarkConverter struct {
	md goldmark.Markdown
}

var _ MarkdownConverter = (*GoldmarkConverter)(nil)

// NewGoldmarkConverter creates a GoldmarkConverter.
func NewGoldmarkConverter() *GoldmarkConverter {
	return &GoldmarkConverter{md: goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle(codeStyle),
				highlighting.WithFormatOptions(chromahtml.WithClasses(false)),
			),
		),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(emailAttributes{}, 500)),
		),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)}
}

// ToHTML converts content to an HTML fragment.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMarkdownConversion, err)
	}
	return buf.String(), nil
}

// emailAttributes sets the link and table attributes Markdown has no syntax
// for. Mail clients ignore most table CSS, so spacing goes on the element.
type emailAttributes struct{}

func (emailAttributes) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Link:
			dest := string(n.Destination)
			if strings.HasPrefix(dest, "https://") || strings.HasPrefix(dest, "http://") {
				n.SetAttributeString("target", []byte("_blank"))
				n.SetAttributeString("rel", []byte("noopener"))
			}
		case *east.Table:
			n.SetAttributeString("cellpadding", []byte("6"))
			n.SetAttributeString("cellspacing", []byte("0"))
			n.SetAttributeString("border", []byte("1"))
		}
		return ast.WalkContinue, nil
	})
}
