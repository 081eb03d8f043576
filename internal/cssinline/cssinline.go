// Package cssinline moves stylesheet rules from <style> blocks into per-element
// style attributes, the way email clients expect them.
//
// Stylesheets are parsed with douceur, selectors are matched with cascadia and
// the document is walked with x/net/html. Declarations are cascaded by
// importance, then specificity, then source order; an existing style attribute
// wins over any non-important rule.
package cssinline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrParse is returned when a document or one of its stylesheets cannot be parsed.
var ErrParse = errors.New("cannot parse styles")

// Options controls what Inline does besides applying rules.
type Options struct {
	RemoveStyleTags  bool // drop <style> elements once applied
	ResolveVariables bool // substitute var() references and drop custom properties
	RemoveClasses    bool // strip class attributes after matching
}

// DefaultOptions enables every cleanup step.
func DefaultOptions() Options {
	return Options{RemoveStyleTags: true, ResolveVariables: true, RemoveClasses: true}
}

// Resolver inlines the stylesheets of an HTML document.
type Resolver interface {
	Inline(document string, opts Options) (string, error)
}

// Inliner is the default Resolver.
type Inliner struct{}

// Compile-time interface check.
var _ Resolver = Inliner{}

// rule is one selector of a qualified rule with its declarations.
type rule struct {
	sel   cascadia.Sel
	spec  cascadia.Specificity
	order int // index of the first declaration in source order
	decls []*css.Declaration
}

// winner is the declaration currently applied for one property of an element.
type winner struct {
	value     string
	important bool
	inline    bool
	spec      cascadia.Specificity
	order     int
}

// beats reports whether w takes precedence over other.
func (w winner) beats(other winner) bool {
	if w.important != other.important {
		return w.important
	}
	if w.inline != other.inline {
		return w.inline
	}
	if w.spec != other.spec {
		return other.spec.Less(w.spec)
	}
	return w.order > other.order
}

// Inline applies every supported rule in the document's <style> blocks to the
// matching elements. Selectors cascadia cannot evaluate statically (such as
// :hover) and at-rules are skipped.
func (Inliner) Inline(document string, opts Options) (string, error) {
	doc, err := parseDocument(document)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	styleNodes := doc.styles()
	rules, next, err := collectRules(styleNodes)
	if err != nil {
		return "", err
	}

	inlineBase := next
	var applyErr error
	applyRules(doc.root, rules, inlineBase, nil, opts, &applyErr)
	if applyErr != nil {
		return "", applyErr
	}

	if opts.RemoveStyleTags {
		for _, n := range styleNodes {
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
			}
		}
	}

	out, err := doc.render()
	if err != nil {
		return "", fmt.Errorf("%w: rendering: %v", ErrParse, err)
	}
	return out, nil
}

// collectRules parses every stylesheet and returns its rules in source order,
// plus the next free declaration order.
func collectRules(styleNodes []*html.Node) ([]rule, int, error) {
	var (
		rules []rule
		order int
	)
	for _, n := range styleNodes {
		sheet, err := parser.Parse(stripCDOCDC(text(n)))
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrParse, err)
		}
		for _, r := range sheet.Rules {
			if r.Kind != css.QualifiedRule || len(r.Declarations) == 0 {
				continue
			}
			start := order
			order += len(r.Declarations)
			for _, s := range r.Selectors {
				sel, err := cascadia.Parse(s)
				if err != nil || sel.PseudoElement() != "" {
					continue
				}
				rules = append(rules, rule{sel: sel, spec: sel.Specificity(), order: start, decls: r.Declarations})
			}
		}
	}
	return rules, order, nil
}

// applyRules walks n, writing the cascaded style attribute of each element.
// vars holds the custom properties inherited from the parent element.
func applyRules(n *html.Node, rules []rule, inlineBase int, vars map[string]string, opts Options, errp *error) {
	if *errp != nil {
		return
	}
	if n.Type == html.ElementNode {
		vars = styleElement(n, rules, inlineBase, vars, opts, errp)
		if *errp != nil {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		applyRules(c, rules, inlineBase, vars, opts, errp)
	}
}

// styleElement computes and writes the style attribute of n and returns the
// custom properties visible to its children.
func styleElement(n *html.Node, rules []rule, inlineBase int, inherited map[string]string, opts Options, errp *error) map[string]string {
	if !rendered(n) {
		if opts.RemoveClasses {
			deleteAttr(n, "class")
		}
		return inherited
	}

	won := make(map[string]winner)
	apply := func(prop string, w winner) {
		if cur, ok := won[prop]; !ok || w.beats(cur) {
			won[prop] = w
		}
	}

	for _, r := range rules {
		if !r.sel.Match(n) {
			continue
		}
		for i, d := range r.decls {
			apply(propertyName(d.Property), winner{
				value:     d.Value,
				important: d.Important,
				spec:      r.spec,
				order:     r.order + i,
			})
		}
	}

	styleAttr, hasStyle := attr(n, "style")
	if hasStyle && strings.TrimSpace(styleAttr) != "" {
		decls, err := parser.ParseDeclarations(styleAttr + ";")
		if err != nil {
			*errp = fmt.Errorf("%w: style attribute of <%s>: %v", ErrParse, n.Data, err)
			return inherited
		}
		for i, d := range decls {
			apply(propertyName(d.Property), winner{
				value:     d.Value,
				important: d.Important,
				inline:    true,
				order:     inlineBase + i,
			})
		}
	}

	if opts.RemoveClasses {
		deleteAttr(n, "class")
	}

	if len(won) == 0 {
		return inherited
	}

	vars := inherited
	if opts.ResolveVariables {
		vars = scopeVariables(inherited, won)
	}

	switch style := serialize(won, vars, opts.ResolveVariables); {
	case style != "":
		setAttr(n, "style", style)
	case hasStyle:
		deleteAttr(n, "style")
	}
	return vars
}

// rendered reports whether n can be painted. Metadata and script elements
// never carry a style attribute.
func rendered(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Head, atom.Title, atom.Meta, atom.Link, atom.Base,
		atom.Style, atom.Script, atom.Template:
		return false
	}
	return true
}

// scopeVariables overlays the custom properties won by an element on the ones
// it inherits. The inherited map is never mutated.
func scopeVariables(inherited map[string]string, won map[string]winner) map[string]string {
	var scoped map[string]string
	for prop, w := range won {
		if !isCustomProperty(prop) {
			continue
		}
		if scoped == nil {
			scoped = make(map[string]string, len(inherited)+1)
			for k, v := range inherited {
				scoped[k] = v
			}
		}
		scoped[prop] = w.value
	}
	if scoped == nil {
		return inherited
	}
	return scoped
}

// serialize renders the winning declarations in source order.
func serialize(won map[string]winner, vars map[string]string, resolve bool) string {
	props := make([]string, 0, len(won))
	for prop := range won {
		if resolve && isCustomProperty(prop) {
			continue
		}
		props = append(props, prop)
	}
	sort.Slice(props, func(i, j int) bool {
		return won[props[i]].order < won[props[j]].order
	})

	parts := make([]string, 0, len(props))
	for _, prop := range props {
		w := won[prop]
		value := w.value
		if resolve {
			value = ResolveVars(value, vars)
		}
		decl := prop + ": " + value
		if w.important {
			decl += " !important"
		}
		parts = append(parts, decl)
	}
	return strings.Join(parts, "; ")
}

func propertyName(p string) string {
	p = strings.TrimSpace(p)
	if isCustomProperty(p) {
		return p
	}
	return strings.ToLower(p)
}

func isCustomProperty(p string) bool {
	return strings.HasPrefix(p, "--")
}

// stripCDOCDC removes the HTML comment markers some templates still wrap
// stylesheet text in.
func stripCDOCDC(s string) string {
	s = strings.ReplaceAll(s, "<!--", "")
	return strings.ReplaceAll(s, "-->", "")
}
