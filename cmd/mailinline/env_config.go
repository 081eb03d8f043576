package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alnah/go-mailinline/internal/config"
)

// envPrefix namespaces the tool's environment variables.
const envPrefix = "MAILINLINE_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string // MAILINLINE_CONFIG: config file name or path
	SourceDir  string // MAILINLINE_SOURCE_DIR: template directory
	OutputDir  string // MAILINLINE_OUTPUT_DIR: artifact directory
	Port       int    // PORT: preview server port

	// Tier 2 - Pipeline
	ProjectRoot  string // MAILINLINE_ROOT: fallback image base dir
	BaseStyle    string // MAILINLINE_STYLE: base stylesheet name
	Quality      int    // MAILINLINE_QUALITY: image quality
	MaxDimension int    // MAILINLINE_MAX_DIMENSION: longest image side

	// Tier 3 - Execution
	Workers   int    // MAILINLINE_WORKERS: parallel documents
	Snapshots *bool  // MAILINLINE_SNAPSHOTS: render PNG previews
	Host      string // MAILINLINE_HOST: preview server host
}

// knownEnvVars lists valid MAILINLINE_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MAILINLINE_CONFIG":        true,
	"MAILINLINE_SOURCE_DIR":    true,
	"MAILINLINE_OUTPUT_DIR":    true,
	"MAILINLINE_ROOT":          true,
	"MAILINLINE_STYLE":         true,
	"MAILINLINE_QUALITY":       true,
	"MAILINLINE_MAX_DIMENSION": true,
	"MAILINLINE_WORKERS":       true,
	"MAILINLINE_SNAPSHOTS":     true,
	"MAILINLINE_HOST":          true,
	"MAILINLINE_CONTAINER":     true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparsable numbers and booleans are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:  getenv("MAILINLINE_CONFIG"),
		SourceDir:   getenv("MAILINLINE_SOURCE_DIR"),
		OutputDir:   getenv("MAILINLINE_OUTPUT_DIR"),
		ProjectRoot: getenv("MAILINLINE_ROOT"),
		BaseStyle:   getenv("MAILINLINE_STYLE"),
		Host:        getenv("MAILINLINE_HOST"),
	}

	cfg.Port = positiveInt(getenv("PORT"))
	cfg.Quality = positiveInt(getenv("MAILINLINE_QUALITY"))
	cfg.MaxDimension = positiveInt(getenv("MAILINLINE_MAX_DIMENSION"))
	cfg.Workers = positiveInt(getenv("MAILINLINE_WORKERS"))

	if v := getenv("MAILINLINE_SNAPSHOTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Snapshots = &b
		}
	}

	return cfg
}

// positiveInt parses s, returning 0 for empty, invalid, or non-positive input.
func positiveInt(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// warnUnknownEnvVars logs warnings for unrecognized MAILINLINE_* variables.
// Helps catch typos like MAILINLINE_SRC_DIR instead of MAILINLINE_SOURCE_DIR.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, envPrefix) {
			name, _, _ := strings.Cut(env, "=")
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values over the loaded config.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergePipelineFlags and friends).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	// Tier 1
	if env.SourceDir != "" {
		cfg.Source.Dir = env.SourceDir
	}
	if env.OutputDir != "" {
		cfg.Output.Dir = env.OutputDir
	}
	if env.Port > 0 {
		cfg.Server.Port = env.Port
	}

	// Tier 2
	if env.ProjectRoot != "" {
		cfg.Source.Root = env.ProjectRoot
	}
	if env.BaseStyle != "" {
		cfg.Styles.Base = env.BaseStyle
	}
	if env.Quality > 0 {
		cfg.Images.Quality = env.Quality
	}
	if env.MaxDimension > 0 {
		cfg.Images.MaxDimension = env.MaxDimension
	}

	// Tier 3
	if env.Workers > 0 {
		cfg.Build.Workers = env.Workers
	}
	if env.Snapshots != nil {
		cfg.Build.Snapshots = *env.Snapshots
	}
	if env.Host != "" {
		cfg.Server.Host = env.Host
	}
}
