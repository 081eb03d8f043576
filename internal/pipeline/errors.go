package pipeline

import "errors"

// Sentinel errors for recoverable stage failures. Each one degrades a single
// unit (one image reference or one document stage) to passthrough.
var (
	ErrMissingAsset = errors.New("image file not found")
	ErrCodec        = errors.New("image re-encoding failed")
	ErrCSSParse     = errors.New("style inlining failed")
	ErrMinify       = errors.New("minification failed")
)

// Stage names used in issues and log attributes.
const (
	StageImages = "images"
	StageStyles = "styles"
	StageMinify = "minify"
)

// Issue records one locally recovered failure.
type Issue struct {
	Stage string
	URL   string // image URL, empty for whole-document stages
	Path  string // resolved file path, if any
	Err   error
}

func (i Issue) Error() string {
	if i.URL != "" {
		return i.Stage + ": " + i.URL + ": " + i.Err.Error()
	}
	return i.Stage + ": " + i.Err.Error()
}

func (i Issue) Unwrap() error {
	return i.Err
}
