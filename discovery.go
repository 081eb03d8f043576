package mailinline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TemplateExt is the extension of discovered template files.
const TemplateExt = ".html"

// DiscoverTemplates lists the templates directly inside srcDir. The scan is
// flat: subdirectories are ignored. Results are sorted by filename.
// The extension match is case-insensitive, so "a.html" and "a.HTML" are both
// discovered and collide on the same route.
func DiscoverTemplates(srcDir string) ([]Template, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceDir, err)
	}

	var templates []Template
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if !strings.EqualFold(ext, TemplateExt) || len(name) == len(ext) {
			continue
		}
		templates = append(templates, Template{
			Path:     filepath.Join(srcDir, name),
			Filename: name,
			Route:    strings.TrimSuffix(name, ext),
		})
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Filename < templates[j].Filename
	})
	return templates, nil
}

// artifactName returns the output filename for t. Extensions are normalized
// to lowercase so every artifact ends in ".html".
func artifactName(t Template) string {
	return t.Route + TemplateExt
}
