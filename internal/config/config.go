package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-mailinline/internal/fileutil"
	"github.com/alnah/go-mailinline/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidConfig   = errors.New("invalid config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
)

// DefaultName is the config name looked up when none is given.
const DefaultName = "mailinline"

// userConfigSubdir is the directory under os.UserConfigDir searched for configs.
const userConfigSubdir = "go-mailinline"

// Limits for numeric and string fields.
const (
	MaxPathLength      = 4096
	MaxAssetName       = 100
	MaxImageDimension  = 10000
	MinQuality         = 1
	MaxQuality         = 100
	MaxWorkers         = 64
	MaxSnapshotWidth   = 4096
	DefaultPort        = 5173
	DefaultSourceDir   = "src"
	DefaultProjectRoot = "."
	DefaultOutputDir   = "dist"
	DefaultMaxDim      = 1200
	DefaultQuality     = 80
	DefaultViewport    = 600
	DefaultServerHost  = "localhost"
)

// Config holds all configuration for an email build.
type Config struct {
	Source SourceConfig `yaml:"source"`
	Output OutputConfig `yaml:"output"`
	Images ImagesConfig `yaml:"images"`
	Styles StylesConfig `yaml:"styles"`
	Minify MinifyConfig `yaml:"minify"`
	Server ServerConfig `yaml:"server"`
	Build  BuildConfig  `yaml:"build"`
}

// SourceConfig defines where templates and their images live.
type SourceConfig struct {
	Dir  string `yaml:"dir"`  // Flat directory of *.html templates
	Root string `yaml:"root"` // Project root: fallback image base dir, parent of assets/ (empty = none)
}

// OutputConfig defines the artifact destination.
type OutputConfig struct {
	Dir   string `yaml:"dir"`
	Clean bool   `yaml:"clean"` // Remove stale *.html before writing
}

// ImagesConfig defines the image re-encoding policy.
type ImagesConfig struct {
	MaxDimension int  `yaml:"maxDimension"` // Longest side in pixels
	Quality      int  `yaml:"quality"`      // 1-100, JPEG and WebP
	Upscale      bool `yaml:"upscale"`      // Enlarge images smaller than maxDimension
}

// StylesConfig defines style inlining options.
type StylesConfig struct {
	Base             string `yaml:"base"`       // Base stylesheet name (empty = none)
	AssetsPath       string `yaml:"assetsPath"` // Custom assets directory (empty = embedded)
	RemoveStyleTags  bool   `yaml:"removeStyleTags"`
	ResolveVariables bool   `yaml:"resolveVariables"`
	RemoveClasses    bool   `yaml:"removeClasses"`
}

// MinifyConfig defines minification options.
type MinifyConfig struct {
	Enabled            bool `yaml:"enabled"`
	CollapseWhitespace bool `yaml:"collapseWhitespace"`
	RemoveComments     bool `yaml:"removeComments"`
	MinifyCSS          bool `yaml:"minifyCSS"`
	MinifyJS           bool `yaml:"minifyJS"`
	UnquoteAttributes  bool `yaml:"unquoteAttributes"`
}

// ServerConfig defines the preview server.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"` // PORT env var overrides
}

// BuildConfig defines batch execution options.
type BuildConfig struct {
	Workers       int  `yaml:"workers"` // 0 = auto
	Snapshots     bool `yaml:"snapshots"`
	SnapshotWidth int  `yaml:"snapshotWidth"` // Viewport width in CSS pixels
}

// Validate checks ranges and lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually (e.g., library users, the CLI after flag merges).
func (c *Config) Validate() error {
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"source.dir", c.Source.Dir, MaxPathLength},
		{"source.root", c.Source.Root, MaxPathLength},
		{"output.dir", c.Output.Dir, MaxPathLength},
		{"styles.base", c.Styles.Base, MaxAssetName},
		{"styles.assetsPath", c.Styles.AssetsPath, MaxPathLength},
		{"server.host", c.Server.Host, MaxAssetName},
	} {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if err := validateRange("images.maxDimension", c.Images.MaxDimension, 1, MaxImageDimension); err != nil {
		return err
	}
	if err := validateRange("images.quality", c.Images.Quality, MinQuality, MaxQuality); err != nil {
		return err
	}
	if err := validateRange("server.port", c.Server.Port, 1, 65535); err != nil {
		return err
	}
	if err := validateRange("build.workers", c.Build.Workers, 0, MaxWorkers); err != nil {
		return err
	}
	if c.Build.Snapshots {
		if err := validateRange("build.snapshotWidth", c.Build.SnapshotWidth, 1, MaxSnapshotWidth); err != nil {
			return err
		}
	}

	if c.Source.Dir != "" && c.Output.Dir != "" && samePath(c.Source.Dir, c.Output.Dir) {
		return fmt.Errorf("%w: output.dir must differ from source.dir (%s)", ErrInvalidConfig, c.Output.Dir)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateRange checks that value lies in [lo, hi].
func validateRange(fieldName string, value, lo, hi int) error {
	if value < lo || value > hi {
		return fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrInvalidConfig, fieldName, lo, hi, value)
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// DefaultConfig returns the configuration matching the reference build:
// every inlining and minification step enabled, images capped at 1200px.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{Dir: DefaultSourceDir, Root: DefaultProjectRoot},
		Output: OutputConfig{Dir: DefaultOutputDir, Clean: true},
		Images: ImagesConfig{MaxDimension: DefaultMaxDim, Quality: DefaultQuality},
		Styles: StylesConfig{
			RemoveStyleTags:  true,
			ResolveVariables: true,
			RemoveClasses:    true,
		},
		Minify: MinifyConfig{
			Enabled:            true,
			CollapseWhitespace: true,
			RemoveComments:     true,
			MinifyCSS:          true,
			MinifyJS:           true,
			UnquoteAttributes:  true,
		},
		Server: ServerConfig{Host: DefaultServerHost, Port: DefaultPort},
		Build:  BuildConfig{SnapshotWidth: DefaultViewport},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	if err := yamlutil.DecodeFile(configPath, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths lists the candidate files for a config name, in lookup order:
// current directory first, then the user config directory, .yaml before .yml.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, userConfigSubdir, name+ext))
		}
	}

	return paths
}

// resolveConfigPath returns the first existing file from SearchPaths.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}

// filePermissions for written config files.
const filePermissions = 0o644

// Save validates cfg and writes it to path as YAML.
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, filePermissions, func(w io.Writer) error {
		return yamlutil.Encode(w, cfg)
	})
}
