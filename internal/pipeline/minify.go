package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

const htmlMediaType = "text/html"

var jsMediaType = regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`)

// MinifyOptions selects the size reductions applied to a document.
type MinifyOptions struct {
	CollapseWhitespace bool
	RemoveComments     bool
	MinifyCSS          bool // <style> blocks and style attributes
	MinifyJS           bool // <script> blocks and event handlers
	UnquoteAttributes  bool
}

// DefaultMinifyOptions enables every reduction.
func DefaultMinifyOptions() MinifyOptions {
	return MinifyOptions{
		CollapseWhitespace: true,
		RemoveComments:     true,
		MinifyCSS:          true,
		MinifyJS:           true,
		UnquoteAttributes:  true,
	}
}

// Minifier shrinks HTML documents with tdewolff/minify.
type Minifier struct {
	m      *minify.M
	logger *slog.Logger
}

// NewMinifier configures a Minifier. Document and end tags are always kept so
// the output stays a complete document for picky email clients.
func NewMinifier(opts MinifyOptions, logger *slog.Logger) *Minifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	m := minify.New()
	m.Add(htmlMediaType, &html.Minifier{
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepQuotes:          !opts.UnquoteAttributes,
		KeepWhitespace:      !opts.CollapseWhitespace,
		KeepComments:        !opts.RemoveComments,
		// <!--[if mso]> blocks survive RemoveComments.
		KeepSpecialComments: true,
	})
	if opts.MinifyCSS {
		m.AddFunc("text/css", css.Minify)
	}
	if opts.MinifyJS {
		m.AddFuncRegexp(jsMediaType, js.Minify)
	}

	return &Minifier{m: m, logger: logger}
}

// Minify returns the minified document. On failure the input is returned
// unchanged along with an issue.
func (m *Minifier) Minify(ctx context.Context, document string) (string, *Issue) {
	out, err := m.m.String(htmlMediaType, document)
	if err != nil {
		m.logger.WarnContext(ctx, "minification skipped", "error", err)
		return document, &Issue{Stage: StageMinify, Err: fmt.Errorf("%w: %v", ErrMinify, err)}
	}
	return out, nil
}
