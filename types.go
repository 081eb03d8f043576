package mailinline

import (
	"fmt"
	"time"

	"github.com/alnah/go-mailinline/internal/cssinline"
	"github.com/alnah/go-mailinline/internal/imagecodec"
	"github.com/alnah/go-mailinline/internal/pipeline"
)

// Image policy bounds.
const (
	MinQuality          = imagecodec.MinQuality
	MaxQuality          = imagecodec.MaxQuality
	DefaultQuality      = imagecodec.DefaultQuality
	DefaultMaxDimension = imagecodec.DefaultMaxDimension
)

// Stage is a step of the per-document state machine. Stages only move forward.
type Stage int

const (
	StageDiscovered Stage = iota
	StageImagesInlined
	StageStylesInlined
	StageMinified
	StageEmitted
)

var stageNames = [...]string{"discovered", "images-inlined", "styles-inlined", "minified", "emitted"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Template is one discovered source document.
type Template struct {
	Path     string // source file path
	Filename string // base name, also the artifact name
	Route    string // filename without extension
}

// Issue is a locally recovered failure, tagged with the stage that raised it.
type Issue = pipeline.Issue

// DocumentResult is the outcome of transforming one template.
type DocumentResult struct {
	Template   Template
	HTML       string // last successful stage output
	Stage      Stage  // last stage reached
	Issues     []Issue
	Err        error // set when the document failed outright
	OutputPath string
	Snapshot   string // PNG path, empty when snapshots are off or failed
	Duration   time.Duration
}

// Failed reports whether the document hit an unexpected failure.
func (r DocumentResult) Failed() bool {
	return r.Err != nil
}

// BuildReport summarizes one build run.
type BuildReport struct {
	Documents []DocumentResult
	Routes    *RouteTable
	Duration  time.Duration
}

// Failed returns the number of documents with an unexpected failure.
func (r *BuildReport) Failed() int {
	n := 0
	for _, d := range r.Documents {
		if d.Failed() {
			n++
		}
	}
	return n
}

// Issues returns the total number of recovered issues across documents.
func (r *BuildReport) Issues() int {
	n := 0
	for _, d := range r.Documents {
		n += len(d.Issues)
	}
	return n
}

// ImageOptions controls image resizing and re-encoding.
type ImageOptions struct {
	MaxDimension int  // longest side in pixels
	Quality      int  // 1-100, JPEG and WebP
	Upscale      bool // enlarge images smaller than MaxDimension
}

// DefaultImageOptions returns a 1200px cap at quality 80 without upscaling.
func DefaultImageOptions() ImageOptions {
	return ImageOptions{MaxDimension: DefaultMaxDimension, Quality: DefaultQuality}
}

// Validate checks that image options are in range.
func (o ImageOptions) Validate() error {
	if o.MaxDimension <= 0 {
		return fmt.Errorf("%w: %d (must be positive)", ErrInvalidMaxDimension, o.MaxDimension)
	}
	if o.Quality < MinQuality || o.Quality > MaxQuality {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidQuality, o.Quality, MinQuality, MaxQuality)
	}
	return nil
}

func (o ImageOptions) codecOptions() imagecodec.Options {
	return imagecodec.Options{
		MaxDimension: o.MaxDimension,
		NoUpscale:    !o.Upscale,
		Quality:      o.Quality,
	}
}

// StyleOptions controls style inlining cleanup.
type StyleOptions = cssinline.Options

// DefaultStyleOptions enables every cleanup step.
func DefaultStyleOptions() StyleOptions {
	return cssinline.DefaultOptions()
}

// MinifyOptions selects minifier passes.
type MinifyOptions = pipeline.MinifyOptions

// DefaultMinifyOptions enables every minifier pass.
func DefaultMinifyOptions() MinifyOptions {
	return pipeline.DefaultMinifyOptions()
}

// ImageCodec re-encodes image bytes. Replace it with WithImageCodec.
type ImageCodec = imagecodec.Codec

// CSSResolver inlines stylesheets. Replace it with WithCSSResolver.
type CSSResolver = cssinline.Resolver
