package assets

import (
	"embed"
	"io/fs"
)

//go:embed styles/*.css templates/*.html
var embedded embed.FS

// builtin is the embedded layer shared by every Library.
var builtin fs.FS = embedded
