package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/alnah/go-mailinline/internal/cssinline"
)

var (
	// stylingPattern detects anything the style inliner would act on.
	stylingPattern = regexp.MustCompile(`(?i)<style[\s>]|\sclass\s*=`)

	// styleBlockPattern matches a whole <style> element, attributes included.
	styleBlockPattern = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`)

	// startTagPattern and classAttrPattern locate class attributes inside tags
	// without touching text content.
	startTagPattern  = regexp.MustCompile(`(?i)<[a-z][^>]*>`)
	classAttrPattern = regexp.MustCompile(`(?i)\s+class\s*=\s*("[^"]*"|'[^']*')`)
)

// StyleInliner applies a document's stylesheets to its elements.
type StyleInliner struct {
	resolver cssinline.Resolver
	opts     cssinline.Options
	logger   *slog.Logger
}

// NewStyleInliner creates a StyleInliner. A nil resolver selects
// cssinline.Inliner, a nil logger discards output.
func NewStyleInliner(resolver cssinline.Resolver, opts cssinline.Options, logger *slog.Logger) *StyleInliner {
	if resolver == nil {
		resolver = cssinline.Inliner{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &StyleInliner{resolver: resolver, opts: opts, logger: logger}
}

// HasStyling reports whether document has a <style> element or a class
// attribute.
func HasStyling(document string) bool {
	return stylingPattern.MatchString(document)
}

// InlineStyles moves stylesheet rules into style attributes, then removes any
// <style> block left behind. Documents without styling are returned unchanged,
// so the step is idempotent. When the resolver fails the input is returned
// as-is with an issue.
func (s *StyleInliner) InlineStyles(ctx context.Context, document string) (string, *Issue) {
	if !HasStyling(document) {
		return document, nil
	}

	out, err := s.resolver.Inline(document, s.opts)
	if err != nil {
		issue := &Issue{Stage: StageStyles, Err: fmt.Errorf("%w: %v", ErrCSSParse, err)}
		s.logger.WarnContext(ctx, "style inlining skipped", "error", err)
		return document, issue
	}

	if s.opts.RemoveStyleTags {
		out = StripStyleBlocks(out)
	}
	if s.opts.RemoveClasses {
		out = StripClassAttributes(out)
	}
	return out, nil
}

// StripStyleBlocks removes every <style>...</style> element until none remain.
func StripStyleBlocks(document string) string {
	for styleBlockPattern.MatchString(document) {
		document = styleBlockPattern.ReplaceAllString(document, "")
	}
	return document
}

// StripClassAttributes removes double- and single-quoted class attributes from
// every start tag.
func StripClassAttributes(document string) string {
	return startTagPattern.ReplaceAllStringFunc(document, func(tag string) string {
		return classAttrPattern.ReplaceAllString(tag, "")
	})
}
