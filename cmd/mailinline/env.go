package main

import (
	"io"
	"os"
	"time"

	"github.com/alnah/go-mailinline/internal/assets"
)

// Environment is everything a command touches outside its arguments.
// Tests swap in captured streams, a fixed clock, and a fake process env.
type Environment struct {
	Now         func() time.Time // build timing
	Stdout      io.Writer
	Stderr      io.Writer
	Getenv      func(string) string
	Environ     func() []string
	AssetLoader assets.Loader // layouts for `new`
}

// DefaultEnv wires the real process and the built-in asset library.
func DefaultEnv() *Environment {
	return &Environment{
		Now:         time.Now,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Getenv:      os.Getenv,
		Environ:     os.Environ,
		AssetLoader: assets.Embedded(),
	}
}
