// Package fileutil holds the file-system helpers shared by the build, the
// scaffolder and the config writer.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// prefix names every temporary file or directory mailinline creates.
const prefix = "mailinline-"

// WriteAtomic streams write's output into a hidden file next to path, syncs
// it and renames it over path. Readers see the old content or the new one,
// never a partial file. On error path is left untouched.
func WriteAtomic(path string, perm fs.FileMode, write func(io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+prefix+"*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err = write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err = os.Chmod(tmp, perm); err != nil {
		return fmt.Errorf("setting mode of %s: %w", path, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

// WriteFileAtomic is WriteAtomic for an in-memory payload.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	return WriteAtomic(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// Scratch is a private temporary directory removed as a whole.
type Scratch struct {
	dir string
}

// NewScratch creates a directory under os.TempDir.
func NewScratch() (*Scratch, error) {
	dir, err := os.MkdirTemp("", prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	return &Scratch{dir: dir}, nil
}

// Dir returns the scratch directory path.
func (s *Scratch) Dir() string { return s.dir }

// WriteTemp writes data to a new file named after pattern (see os.CreateTemp)
// and returns its path. It is safe for concurrent use.
func (s *Scratch) WriteTemp(pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return "", fmt.Errorf("creating scratch file: %w", err)
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("writing scratch file: %w", errors.Join(werr, cerr))
	}
	return f.Name(), nil
}

// Remove deletes the directory and everything in it.
func (s *Scratch) Remove() error {
	return os.RemoveAll(s.dir)
}

// FileExists reports whether path names a regular file.
func FileExists(path string) bool { return mode(path).IsRegular() }

// DirExists reports whether path names a directory.
func DirExists(path string) bool { return mode(path).IsDir() }

// mode follows symlinks; a missing path reports an irregular mode.
func mode(path string) fs.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return fs.ModeIrregular
	}
	return info.Mode()
}

// IsFilePath reports whether s is a path rather than a bare config name:
// "team" is a name, "./team.yaml" and `C:\team.yaml` are paths.
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, `/\`)
}
