package pipeline

import (
	"context"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StyleInjector places a base stylesheet into a document before inlining.
type StyleInjector interface {
	Inject(ctx context.Context, document, css string) string
}

// BaseStyleInjector adds the base stylesheet as the first <style> block, so
// template rules win over it at equal specificity.
type BaseStyleInjector struct{}

var _ StyleInjector = BaseStyleInjector{}

// Inject returns document with css in a <style> element placed right after
// <head>, else before the first <style>, else right after <body>, else at
// the very start. Tags inside comments, scripts and attribute values are not
// considered. Blank css or a cancelled ctx returns document unchanged.
func (BaseStyleInjector) Inject(ctx context.Context, document, css string) string {
	if strings.TrimSpace(css) == "" || ctx.Err() != nil {
		return document
	}

	block := "<style>" + sanitizeCSS(css) + "</style>"
	at := insertionPoint(document)
	return document[:at] + block + document[at:]
}

// insertionPoint scans the start tags of document once.
func insertionPoint(document string) int {
	z := html.NewTokenizer(strings.NewReader(document))
	var (
		offset     int
		firstStyle = -1
		afterBody  = -1
	)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		start := offset
		offset += len(z.Raw())
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		name, _ := z.TagName()
		switch atom.Lookup(name) {
		case atom.Head:
			return offset
		case atom.Style:
			if firstStyle < 0 {
				firstStyle = start
			}
		case atom.Body:
			if afterBody < 0 {
				afterBody = offset
			}
		}
	}

	switch {
	case firstStyle >= 0:
		return firstStyle
	case afterBody >= 0:
		return afterBody
	}
	return 0
}

// sanitizeCSS keeps css from closing its <style> element early.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
