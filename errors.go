package mailinline

import (
	"errors"

	"github.com/alnah/go-mailinline/internal/pipeline"
)

// Recoverable per-unit failures. Each degrades one image reference or one
// document stage to passthrough and is reported in DocumentResult.Issues.
var (
	ErrMissingAsset = pipeline.ErrMissingAsset
	ErrCodec        = pipeline.ErrCodec
	ErrCSSParse     = pipeline.ErrCSSParse
	ErrMinify       = pipeline.ErrMinify
)

// Sentinel errors for build operations.
var (
	// ErrUnexpectedDocument marks a document whose processing failed outside
	// the stage failure policies. Sibling documents are unaffected.
	ErrUnexpectedDocument = errors.New("unexpected document failure")

	ErrSourceDir      = errors.New("source directory not usable")
	ErrNoTemplates    = errors.New("no templates found")
	ErrOutputDir      = errors.New("output directory not writable")
	ErrDuplicateRoute = errors.New("duplicate route")
	ErrReadTemplate   = errors.New("failed to read template")
	ErrWriteArtifact  = errors.New("failed to write artifact")

	// Option validation errors.
	ErrInvalidMaxDimension = errors.New("invalid max dimension")
	ErrInvalidQuality      = errors.New("invalid quality")
	ErrInvalidWorkers      = errors.New("invalid worker count")
	ErrStyleNotFound       = errors.New("style not found")
	ErrInvalidAssetPath    = errors.New("invalid asset path")

	// Snapshot errors.
	ErrSnapshot       = errors.New("snapshot failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
)
