package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mailinline/internal/imagecodec"
)

// ImageInliner replaces local image references with base64 data URIs.
type ImageInliner struct {
	codec       imagecodec.Codec
	opts        imagecodec.Options
	concurrency int
	readFile    func(string) ([]byte, error)
	logger      *slog.Logger
}

// NewImageInliner creates an ImageInliner. A nil codec selects imagecodec.Std,
// a nil logger discards output.
func NewImageInliner(codec imagecodec.Codec, opts imagecodec.Options, logger *slog.Logger) *ImageInliner {
	if codec == nil {
		codec = imagecodec.Std{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ImageInliner{
		codec:       codec,
		opts:        opts,
		concurrency: runtime.GOMAXPROCS(0),
		readFile:    os.ReadFile,
		logger:      logger,
	}
}

// InlineImages resolves every image reference in document against baseDirs and
// substitutes a data URI for each one that can be read and re-encoded.
// Missing or undecodable images are left untouched and reported as issues.
// Encodes run concurrently; substitutions are applied in one ordered pass.
func (i *ImageInliner) InlineImages(ctx context.Context, document string, baseDirs ...string) (string, []Issue) {
	refs := ResolveImages(document, baseDirs...)
	if len(refs) == 0 {
		return document, nil
	}

	uris := make([]string, len(refs))
	errs := make([]error, len(refs))

	var g errgroup.Group
	g.SetLimit(max(1, i.concurrency))
	for idx, ref := range refs {
		if ref.Missing {
			errs[idx] = fmt.Errorf("%w: %s", ErrMissingAsset, ref.Path)
			continue
		}
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					errs[idx] = fmt.Errorf("%w: panic: %v", ErrCodec, r)
				}
			}()
			uris[idx], errs[idx] = i.DataURI(ref)
			return nil
		})
	}
	_ = g.Wait() // per-image errors are collected in errs

	var (
		edits  []Edit
		issues []Issue
	)
	for idx, ref := range refs {
		if err := errs[idx]; err != nil {
			issues = append(issues, Issue{Stage: StageImages, URL: ref.URL, Path: ref.Path, Err: err})
			i.logIssue(ctx, ref, err)
			continue
		}
		edits = append(edits, Edit{Start: ref.URLStart, End: ref.URLEnd, Replacement: uris[idx]})
		i.logger.DebugContext(ctx, "image inlined", "url", ref.URL, "path", ref.Path, "bytes", len(uris[idx]))
	}

	out, err := ApplyEdits(document, edits)
	if err != nil {
		// Spans come from non-overlapping regex matches; this is unreachable
		// unless the resolver is broken.
		i.logger.ErrorContext(ctx, "applying image edits", "error", err)
		return document, append(issues, Issue{Stage: StageImages, Err: err})
	}
	return out, issues
}

// InlineRef returns the tag text of ref with its URL replaced by a data URI.
// On error, the original tag text is returned along with the error.
func (i *ImageInliner) InlineRef(document string, ref ImageRef) (string, error) {
	tag := ref.Tag(document)
	if ref.Missing {
		return tag, fmt.Errorf("%w: %s", ErrMissingAsset, ref.Path)
	}
	uri, err := i.DataURI(ref)
	if err != nil {
		return tag, err
	}
	urlStart := ref.URLStart - ref.TagStart
	urlEnd := ref.URLEnd - ref.TagStart
	return tag[:urlStart] + uri + tag[urlEnd:], nil
}

// DataURI reads and re-encodes the file behind ref and returns it as
// "data:<mime>;base64,<payload>".
func (i *ImageInliner) DataURI(ref ImageRef) (string, error) {
	raw, err := i.readFile(ref.Path)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", ErrCodec, ref.Path, err)
	}

	encoded, err := i.codec.Encode(raw, ref.Format, i.opts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCodec, err)
	}

	return "data:" + MIMEType(ref.URL) + ";base64," + base64.StdEncoding.EncodeToString(encoded), nil
}

func (i *ImageInliner) logIssue(ctx context.Context, ref ImageRef, err error) {
	if ref.Missing {
		i.logger.WarnContext(ctx, "image not found", "url", ref.URL, "path", ref.Path)
		return
	}
	i.logger.ErrorContext(ctx, "image processing failed", "url", ref.URL, "path", ref.Path, "error", err)
}
