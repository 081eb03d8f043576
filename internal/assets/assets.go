package assets

import (
	"fmt"
	"regexp"
)

// DefaultStyleName is the name of the built-in base stylesheet.
const DefaultStyleName = "email-reset"

// DefaultTemplateName is the name of the built-in starter layout.
const DefaultTemplateName = "basic"

// Loader loads base stylesheets and starter layouts by name.
type Loader interface {
	// LoadStyle returns styles/{name}.css or ErrStyleNotFound.
	LoadStyle(name string) (string, error)
	// LoadTemplate returns templates/{name}.html or ErrTemplateNotFound.
	LoadTemplate(name string) (string, error)
}

// kind is one family of assets sharing a directory and extension.
type kind struct {
	dir      string
	ext      string
	notFound error
}

var (
	styleKind  = kind{dir: "styles", ext: ".css", notFound: ErrStyleNotFound}
	layoutKind = kind{dir: "templates", ext: ".html", notFound: ErrTemplateNotFound}
)

func (k kind) file(name string) string { return k.dir + "/" + name + k.ext }

var assetName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateAssetName rejects names that could leave the asset directory or
// change the file extension.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if !assetName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
