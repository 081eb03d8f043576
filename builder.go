package mailinline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/alnah/go-mailinline/internal/assets"
	"github.com/alnah/go-mailinline/internal/pipeline"
)

// Builder runs the email pipeline over templates.
// Create with NewBuilder, use Transform for one document or Build for a
// directory, and Close when done.
type Builder struct {
	cfg         builderConfig
	logger      *slog.Logger
	codec       ImageCodec
	resolver    CSSResolver
	injector    pipeline.StyleInjector
	snapshotter Snapshotter
	baseCSS     string
}

// builderConfig holds option values before they are resolved.
type builderConfig struct {
	imageOpts   ImageOptions
	styleOpts   StyleOptions
	minifyOpts  MinifyOptions
	minify      bool
	workers     int
	projectRoot string
	baseStyle   string
	assetPath   string
	cleanOutput bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the structured logger. Nil keeps the discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithImageOptions sets the image resize and quality policy.
func WithImageOptions(opts ImageOptions) Option {
	return func(b *Builder) {
		b.cfg.imageOpts = opts
	}
}

// WithStyleOptions sets style inlining cleanup options.
func WithStyleOptions(opts StyleOptions) Option {
	return func(b *Builder) {
		b.cfg.styleOpts = opts
	}
}

// WithMinifyOptions sets the minifier passes.
func WithMinifyOptions(opts MinifyOptions) Option {
	return func(b *Builder) {
		b.cfg.minifyOpts = opts
	}
}

// WithMinify enables or disables the minify stage. Enabled by default.
func WithMinify(enabled bool) Option {
	return func(b *Builder) {
		b.cfg.minify = enabled
	}
}

// WithWorkers sets the number of documents built in parallel.
// Zero selects a GOMAXPROCS-based size.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		b.cfg.workers = n
	}
}

// WithProjectRoot adds a base directory for image lookup, tried after the
// template's own directory.
func WithProjectRoot(dir string) Option {
	return func(b *Builder) {
		b.cfg.projectRoot = dir
	}
}

// WithCleanOutput controls whether stale *.html and *.png artifacts are
// removed from the output directory before a build. Enabled by default.
func WithCleanOutput(clean bool) Option {
	return func(b *Builder) {
		b.cfg.cleanOutput = clean
	}
}

// WithSnapshotter renders a PNG preview of every emitted artifact.
// The Builder closes it in Close.
func WithSnapshotter(s Snapshotter) Option {
	return func(b *Builder) {
		b.snapshotter = s
	}
}

// WithImageCodec replaces the image codec.
func WithImageCodec(c ImageCodec) Option {
	return func(b *Builder) {
		b.codec = c
	}
}

// WithCSSResolver replaces the stylesheet resolver.
func WithCSSResolver(r CSSResolver) Option {
	return func(b *Builder) {
		b.resolver = r
	}
}

// WithBaseStyle injects a named base stylesheet into every template before
// style inlining. Use assets.DefaultStyleName for the bundled email reset.
func WithBaseStyle(name string) Option {
	return func(b *Builder) {
		b.cfg.baseStyle = name
	}
}

// WithAssetPath sets a directory searched for styles/<name>.css before the
// embedded assets.
func WithAssetPath(dir string) Option {
	return func(b *Builder) {
		b.cfg.assetPath = dir
	}
}

// NewBuilder creates a Builder. Defaults match the reference build: images
// capped at 1200px, quality 80, every cleanup and minify pass enabled.
// Returns an error if options are out of range or the base style is missing.
func NewBuilder(opts ...Option) (*Builder, error) {
	b := &Builder{
		cfg: builderConfig{
			imageOpts:   DefaultImageOptions(),
			styleOpts:   DefaultStyleOptions(),
			minifyOpts:  DefaultMinifyOptions(),
			minify:      true,
			cleanOutput: true,
		},
		logger:   slog.New(slog.DiscardHandler),
		injector: pipeline.BaseStyleInjector{},
	}

	for _, opt := range opts {
		opt(b)
	}

	if err := b.cfg.imageOpts.Validate(); err != nil {
		return nil, err
	}
	if b.cfg.workers < 0 {
		return nil, fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkers, b.cfg.workers)
	}

	if err := b.loadBaseStyle(); err != nil {
		return nil, err
	}

	return b, nil
}

// loadBaseStyle resolves the configured base stylesheet name to CSS.
func (b *Builder) loadBaseStyle() error {
	if b.cfg.baseStyle == "" {
		return nil
	}

	lib, err := assets.Open(b.cfg.assetPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}

	css, err := lib.LoadStyle(b.cfg.baseStyle)
	if err != nil {
		if errors.Is(err, assets.ErrStyleNotFound) {
			return fmt.Errorf("%w: %s", ErrStyleNotFound, b.cfg.baseStyle)
		}
		return fmt.Errorf("loading base style: %w", err)
	}
	b.baseCSS = css
	return nil
}

// Close releases the snapshot browser, if any.
func (b *Builder) Close() error {
	if b.snapshotter != nil {
		return b.snapshotter.Close()
	}
	return nil
}

// Workers returns the resolved number of parallel documents.
func (b *Builder) Workers() int {
	return ResolveWorkers(b.cfg.workers, b.snapshotter != nil)
}

// stages holds the per-document pipeline components. They are built for each
// document so logs carry the document name and nothing is shared.
type stages struct {
	images   *pipeline.ImageInliner
	styles   *pipeline.StyleInliner
	minifier *pipeline.Minifier
}

func (b *Builder) stagesFor(logger *slog.Logger) stages {
	s := stages{
		images: pipeline.NewImageInliner(b.codec, b.cfg.imageOpts.codecOptions(), logger),
		styles: pipeline.NewStyleInliner(b.resolver, b.cfg.styleOpts, logger),
	}
	if b.cfg.minify {
		s.minifier = pipeline.NewMinifier(b.cfg.minifyOpts, logger)
	}
	return s
}

// baseDirs returns the image lookup directories for t.
func (b *Builder) baseDirs(t Template) []string {
	dirs := []string{filepath.Dir(t.Path)}
	if b.cfg.projectRoot != "" {
		dirs = append(dirs, b.cfg.projectRoot)
	}
	return dirs
}

// Transform runs source through the per-document state machine:
// images, then styles, then minification. Each stage degrades to passthrough
// on its own failure and records an Issue. A panic is recovered, recorded as
// ErrUnexpectedDocument, and the last successful stage output is kept.
// The returned result never goes past StageMinified; Build marks it emitted.
func (b *Builder) Transform(ctx context.Context, t Template, source string) (res DocumentResult) {
	start := time.Now()
	res = DocumentResult{Template: t, HTML: source, Stage: StageDiscovered}
	logger := b.logger.With("doc", t.Filename)

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%w: %v", ErrUnexpectedDocument, r)
			logger.ErrorContext(ctx, "document failed",
				"stage", res.Stage.String(),
				"error", res.Err,
				"stack", string(debug.Stack()))
		}
		res.Duration = time.Since(start)
	}()

	s := b.stagesFor(logger)

	out, issues := s.images.InlineImages(ctx, res.HTML, b.baseDirs(t)...)
	res.HTML, res.Stage = out, StageImagesInlined
	res.Issues = append(res.Issues, issues...)

	styled := res.HTML
	if b.baseCSS != "" {
		styled = b.injector.Inject(ctx, styled, b.baseCSS)
	}
	out, issue := s.styles.InlineStyles(ctx, styled)
	if issue != nil {
		res.Issues = append(res.Issues, *issue)
		out = res.HTML
	}
	res.HTML, res.Stage = out, StageStylesInlined

	if s.minifier != nil {
		out, issue = s.minifier.Minify(ctx, res.HTML)
		if issue != nil {
			res.Issues = append(res.Issues, *issue)
		}
		res.HTML = out
	}
	res.Stage = StageMinified

	logger.DebugContext(ctx, "document transformed",
		"issues", len(res.Issues),
		"bytes", len(res.HTML))
	return res
}
