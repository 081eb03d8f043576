package mailinline

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/net/html"

	"github.com/alnah/go-mailinline/internal/imagecodec"
)

// solidPNG returns a w×h single-color PNG.
func solidPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 220, G: 40, B: 40, A: 255}}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

// writeFile creates dir/name with data and returns its path.
func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// findAttr parses doc and returns attr of the first element named tag.
func findAttr(t *testing.T, doc, tag, attr string) (string, bool) {
	t.Helper()
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("html.Parse: %v", err)
	}

	var (
		val   string
		found bool
	)
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == tag {
			for _, a := range n.Attr {
				if a.Key == attr {
					val, found = a.Val, true
				}
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return val, found
}

// decodeDataURI decodes a "data:<mime>;base64,<payload>" value.
func decodeDataURI(t *testing.T, uri, mime string) []byte {
	t.Helper()
	prefix := "data:" + mime + ";base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("value %.60q does not start with %q", uri, prefix)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	return data
}

// assertClean fails when doc still has a <style> element or a class attribute.
func assertClean(t *testing.T, doc string) {
	t.Helper()
	lower := strings.ToLower(doc)
	if strings.Contains(lower, "<style") {
		t.Errorf("output still has a <style> block: %s", doc)
	}
	if strings.Contains(lower, "class=") {
		t.Errorf("output still has a class attribute: %s", doc)
	}
}

func compact(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// panicResolver panics on every call.
type panicResolver struct{}

func (panicResolver) Inline(string, StyleOptions) (string, error) {
	panic("resolver exploded")
}

// panicCodec panics on every encode.
type panicCodec struct{}

func (panicCodec) Encode([]byte, imagecodec.Format, imagecodec.Options) ([]byte, error) {
	panic("codec exploded")
}

// failResolver always returns an error.
type failResolver struct{}

func (failResolver) Inline(string, StyleOptions) (string, error) {
	return "", errors.New("unexpected token")
}

// fakeSnapshotter returns fixed bytes and counts calls.
type fakeSnapshotter struct {
	out    []byte
	err    error
	calls  atomic.Int32
	closed atomic.Bool
}

func (f *fakeSnapshotter) Snapshot(context.Context, string) ([]byte, error) {
	f.calls.Add(1)
	return f.out, f.err
}

func (f *fakeSnapshotter) Close() error {
	f.closed.Store(true)
	return nil
}
