// Package scaffold creates new email templates from a starter layout and an
// optional Markdown draft.
package scaffold

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-mailinline/internal/assets"
	"github.com/alnah/go-mailinline/internal/fileutil"
)

// Sentinel errors for scaffolding.
var (
	ErrInvalidName    = errors.New("invalid template name")
	ErrTemplateExists = errors.New("template already exists")
	ErrLayoutRender   = errors.New("layout rendering failed")
)

// filePermissions for created templates.
const filePermissions = 0o644

// Data fills a starter layout.
type Data struct {
	Title string
	Body  template.HTML // rendered draft; empty keeps the layout's placeholder
}

// Options controls one scaffold run.
type Options struct {
	Name      string // route name; ".html" is appended
	Title     string // defaults to Name
	Layout    string // defaults to assets.DefaultTemplateName
	DraftPath string // optional Markdown draft
	Force     bool   // overwrite an existing template
}

// Scaffolder renders starter layouts into a source directory.
type Scaffolder struct {
	loader    assets.Loader
	converter MarkdownConverter
}

// New creates a Scaffolder. A nil loader uses the embedded assets and a nil
// converter uses goldmark.
func New(loader assets.Loader, converter MarkdownConverter) *Scaffolder {
	if loader == nil {
		loader = assets.Embedded()
	}
	if converter == nil {
		converter = NewGoldmarkConverter()
	}
	return &Scaffolder{loader: loader, converter: converter}
}

// Create writes srcDir/<name>.html and returns its path.
func (s *Scaffolder) Create(ctx context.Context, srcDir string, opts Options) (string, error) {
	name := strings.TrimSuffix(opts.Name, ".html")
	if err := assets.ValidateAssetName(name); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidName, err)
	}

	path := filepath.Join(srcDir, name+".html")
	if !opts.Force && fileutil.FileExists(path) {
		return "", fmt.Errorf("%w: %s (use --force to overwrite)", ErrTemplateExists, path)
	}

	layoutName := opts.Layout
	if layoutName == "" {
		layoutName = assets.DefaultTemplateName
	}
	layout, err := s.loader.LoadTemplate(layoutName)
	if err != nil {
		return "", err
	}

	data := Data{Title: opts.Title}
	if data.Title == "" {
		data.Title = name
	}
	if opts.DraftPath != "" {
		draft, err := os.ReadFile(opts.DraftPath) // #nosec G304 -- user-provided draft
		if err != nil {
			return "", fmt.Errorf("reading draft: %w", err)
		}
		body, err := s.converter.ToHTML(ctx, string(draft))
		if err != nil {
			return "", err
		}
		// #nosec G203 -- goldmark output without WithUnsafe
		data.Body = template.HTML(body)
	}

	out, err := Render(layoutName, layout, data)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(srcDir, 0o750); err != nil {
		return "", fmt.Errorf("creating %s: %w", srcDir, err)
	}
	if err := fileutil.WriteFileAtomic(path, []byte(out), filePermissions); err != nil {
		return "", err
	}
	return path, nil
}

// Render executes a layout with html/template.
func Render(name, layout string, data Data) (string, error) {
	tmpl, err := template.New(name).Parse(layout)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLayoutRender, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrLayoutRender, err)
	}
	return buf.String(), nil
}
