package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// Library looks assets up through a stack of layers. The first layer that
// has a file wins, so a custom directory overrides built-ins by name.
type Library struct {
	layers []fs.FS
}

// Embedded returns a Library holding only the built-in assets.
func Embedded() *Library {
	return &Library{layers: []fs.FS{builtin}}
}

// Open returns a Library that reads dir before the built-in assets. An
// empty dir is the same as Embedded.
func Open(dir string) (*Library, error) {
	if dir == "" {
		return Embedded(), nil
	}
	custom, err := openDir(dir)
	if err != nil {
		return nil, err
	}
	return &Library{layers: []fs.FS{custom, builtin}}, nil
}

// LoadStyle returns the named base stylesheet.
func (l *Library) LoadStyle(name string) (string, error) {
	return l.load(styleKind, name)
}

// LoadTemplate returns the named starter layout.
func (l *Library) LoadTemplate(name string) (string, error) {
	return l.load(layoutKind, name)
}

// Styles lists every stylesheet name across layers, sorted.
func (l *Library) Styles() []string { return l.names(styleKind) }

// Layouts lists every starter layout name across layers, sorted.
func (l *Library) Layouts() []string { return l.names(layoutKind) }

func (l *Library) load(k kind, name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	for _, layer := range l.layers {
		data, err := fs.ReadFile(layer, k.file(name))
		switch {
		case err == nil:
			return string(data), nil
		case errors.Is(err, fs.ErrNotExist):
			continue
		default:
			return "", fmt.Errorf("%w: %s: %v", ErrAssetRead, k.file(name), err)
		}
	}
	return "", fmt.Errorf("%w: %q", k.notFound, name)
}

func (l *Library) names(k kind) []string {
	var out []string
	for _, layer := range l.layers {
		matches, _ := fs.Glob(layer, k.dir+"/*"+k.ext)
		for _, m := range matches {
			name := strings.TrimSuffix(path.Base(m), k.ext)
			if ValidateAssetName(name) == nil {
				out = append(out, name)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

var _ Loader = (*Library)(nil)
