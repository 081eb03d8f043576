// Package yamlutil reads and writes mailinline config documents with
// goccy/go-yaml. Decoding is strict: a misspelled key is an error rather
// than a silently ignored setting.
package yamlutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// MaxInputSize bounds a single document.
var MaxInputSize int64 = 1 << 20

var (
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

// DecodeError is a YAML syntax or schema error. Its message quotes the
// offending source line.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "yamlutil: " + yaml.FormatError(e.Err, false, true)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode reads one document from r into v, rejecting unknown fields. Blank
// input leaves v untouched.
func Decode(r io.Reader, v any) error {
	if v == nil {
		return ErrNilDestination
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	if err != nil {
		return err
	}
	if int64(len(data)) > MaxInputSize {
		return fmt.Errorf("%w: more than %d bytes", ErrInputTooLarge, MaxInputSize)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data), yaml.Strict())
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &DecodeError{Err: err}
	}
	return nil
}

// DecodeFile opens path and decodes it with Decode.
func DecodeFile(path string, v any) error {
	f, err := os.Open(path) // #nosec G304 -- caller-provided config path
	if err != nil {
		return err
	}
	defer f.Close()
	return Decode(f, v)
}

// Encode writes v to w as a YAML document indented by two spaces.
func Encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w, yaml.Indent(2))
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return enc.Close()
}
