package assets

import (
	"fmt"
	"io/fs"
	"os"
)

// rootFS serves files from a directory without following links out of it.
type rootFS string

func openDir(dir string) (rootFS, error) {
	info, err := os.Stat(dir)
	switch {
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	case !info.IsDir():
		return "", fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, dir)
	}
	return rootFS(dir), nil
}

// Open implements fs.FS. Symlinks resolving outside the directory fail.
func (dir rootFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	f, err := os.OpenInRoot(string(dir), name)
	if err != nil {
		return nil, err
	}
	return f, nil
}
