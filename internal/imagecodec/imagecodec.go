// Package imagecodec re-encodes raster images under a size and quality policy.
//
// The default codec decodes PNG, JPEG and WebP, scales the image down so its
// longest side fits a maximum dimension, and encodes it again in the same
// format. Images already within bounds are never enlarged.
package imagecodec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
)

// Format is an image encoding the codec knows how to decode and encode.
type Format string

// Supported image formats.
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
)

// FormatFromExt maps a file extension (with or without dot, any case) to a Format.
// Returns "" for unsupported extensions.
func FormatFromExt(ext string) Format {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return FormatPNG
	case "jpg", "jpeg":
		return FormatJPEG
	case "webp":
		return FormatWebP
	}
	return ""
}

// Encoding policy defaults.
const (
	DefaultMaxDimension = 1200
	DefaultQuality      = 80
	MinQuality          = 1
	MaxQuality          = 100

	// MaxPixels bounds the decoded size; larger headers are rejected before
	// any pixel buffer is allocated.
	MaxPixels = 50_000_000
)

// Sentinel errors for codec operations.
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrDecode            = errors.New("image decode failed")
	ErrEncode            = errors.New("image encode failed")
	ErrEmptyImage        = errors.New("image has no pixels")
)

// Options controls resizing and re-encoding.
type Options struct {
	MaxDimension int  // longest side after resize; 0 disables resizing
	NoUpscale    bool // never enlarge images smaller than MaxDimension
	Quality      int  // 1-100, lossy formats only
}

// DefaultOptions returns the policy used when none is configured.
func DefaultOptions() Options {
	return Options{
		MaxDimension: DefaultMaxDimension,
		NoUpscale:    true,
		Quality:      DefaultQuality,
	}
}

// Codec re-encodes image bytes in the given format.
type Codec interface {
	Encode(data []byte, format Format, opts Options) ([]byte, error)
}

// Std is the standard codec backed by image/png, image/jpeg, chai2010/webp
// and x/image/draw.
type Std struct{}

// Compile-time interface check.
var _ Codec = Std{}

// Encode decodes data as format, fits it within opts.MaxDimension, and encodes
// it back in the same format.
func (Std) Encode(data []byte, format Format, opts Options) ([]byte, error) {
	img, err := decode(data, format)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrEmptyImage
	}

	w, h := FitWithin(b.Dx(), b.Dy(), opts.MaxDimension, opts.NoUpscale)
	if w != b.Dx() || h != b.Dy() {
		img = scale(img, w, h)
	}

	return encode(img, format, opts.Quality)
}

// FitWithin returns the dimensions of a w×h image scaled so its longest side
// equals maxDim, preserving aspect ratio. With noUpscale, images already within
// maxDim are returned unchanged. maxDim <= 0 disables scaling.
func FitWithin(w, h, maxDim int, noUpscale bool) (int, int) {
	if maxDim <= 0 || w <= 0 || h <= 0 {
		return w, h
	}
	longest := max(w, h)
	if noUpscale && longest <= maxDim {
		return w, h
	}
	if longest == maxDim {
		return w, h
	}

	if w >= h {
		nh := max(1, h*maxDim/w)
		return maxDim, nh
	}
	nw := max(1, w*maxDim/h)
	return nw, maxDim
}

// decoders holds the header and full decoders of each format.
var decoders = map[Format]struct {
	config func(io.Reader) (image.Config, error)
	decode func(io.Reader) (image.Image, error)
}{
	FormatPNG:  {png.DecodeConfig, png.Decode},
	FormatJPEG: {jpeg.DecodeConfig, jpeg.Decode},
	FormatWebP: {webp.DecodeConfig, webp.Decode},
}

func decode(data []byte, format Format) (image.Image, error) {
	d, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	cfg, err := d.config(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, format, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrEmptyImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %s: %dx%d exceeds %d pixels", ErrDecode, format, cfg.Width, cfg.Height, MaxPixels)
	}

	img, err := d.decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, format, err)
	}
	return img, nil
}

func encode(img image.Image, format Format, quality int) ([]byte, error) {
	if quality < MinQuality || quality > MaxQuality {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: pngCompression(quality)}
		err = enc.Encode(&buf, img)
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	case FormatWebP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, format, err)
	}
	return buf.Bytes(), nil
}

// pngCompression maps a lossy quality factor onto PNG's lossless compression
// levels: anything below full quality trades CPU for smaller output.
func pngCompression(quality int) png.CompressionLevel {
	if quality >= MaxQuality {
		return png.DefaultCompression
	}
	return png.BestCompression
}

// scale resamples img to w×h with Catmull-Rom interpolation.
func scale(img image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
