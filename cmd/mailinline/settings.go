package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	mailinline "github.com/alnah/go-mailinline"
	"github.com/alnah/go-mailinline/internal/assets"
	"github.com/alnah/go-mailinline/internal/config"
	"github.com/alnah/go-mailinline/internal/devserver"
	"github.com/alnah/go-mailinline/internal/fileutil"
	"github.com/alnah/go-mailinline/internal/hints"
)

// assetsSubdir is the directory under the project root served raw by the
// preview server.
const assetsSubdir = "assets"

// resolveConfig loads the config named by the flag, then MAILINLINE_CONFIG,
// then the default name, and applies environment overrides. A missing
// default config is not an error; a missing explicit one is.
func resolveConfig(flagName string, env *envConfig) (*config.Config, string, error) {
	name := flagName
	if name == "" {
		name = env.ConfigPath
	}
	explicit := name != ""
	if !explicit {
		name = config.DefaultName
	}

	cfg, err := config.LoadConfig(name)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, config.ErrConfigNotFound):
		cfg, name = config.DefaultConfig(), ""
	case errors.Is(err, config.ErrConfigNotFound) && !fileutil.IsFilePath(name):
		return nil, "", hints.Attach(fmt.Errorf("loading config: %w", err), hints.ConfigNotFound(config.SearchPaths(name)))
	default:
		return nil, "", fmt.Errorf("loading config: %w", err)
	}

	applyEnvConfig(env, cfg)
	return cfg, name, nil
}

// mergePipelineFlags merges pipeline flags into config. CLI values override
// config values; boolean flags only ever turn a step off.
func mergePipelineFlags(f *pipelineFlags, cfg *config.Config) {
	if f.source != "" {
		cfg.Source.Dir = f.source
	}
	if f.root != "" {
		cfg.Source.Root = f.root
	}

	// Images
	if f.images.maxDimension > 0 {
		cfg.Images.MaxDimension = f.images.maxDimension
	}
	if f.images.quality > 0 {
		cfg.Images.Quality = f.images.quality
	}
	if f.images.upscale {
		cfg.Images.Upscale = true
	}

	// Styles
	if f.styles.base != "" {
		cfg.Styles.Base = f.styles.base
	}
	if f.styles.assetPath != "" {
		cfg.Styles.AssetsPath = f.styles.assetPath
	}
	if f.styles.keepStyleTags {
		cfg.Styles.RemoveStyleTags = false
	}
	if f.styles.keepVariables {
		cfg.Styles.ResolveVariables = false
	}
	if f.styles.keepClasses {
		cfg.Styles.RemoveClasses = false
	}

	// Minify
	if f.minify.disabled {
		cfg.Minify.Enabled = false
	}
	if f.minify.keepComments {
		cfg.Minify.RemoveComments = false
	}
	if f.minify.keepQuotes {
		cfg.Minify.UnquoteAttributes = false
	}
	if f.minify.keepWhitespace {
		cfg.Minify.CollapseWhitespace = false
	}
}

// mergeBuildFlags merges build-only flags into config.
func mergeBuildFlags(f *buildFlags, cfg *config.Config) {
	if f.output != "" {
		cfg.Output.Dir = f.output
	}
	if f.workers > 0 {
		cfg.Build.Workers = f.workers
	}
	if f.noClean {
		cfg.Output.Clean = false
	}
	if f.snapshots {
		cfg.Build.Snapshots = true
	}
	if f.snapshotWidth > 0 {
		cfg.Build.SnapshotWidth = f.snapshotWidth
	}
}

// mergeServeFlags merges serve-only flags into config.
func mergeServeFlags(f *serveFlags, cfg *config.Config) {
	if f.host != "" {
		cfg.Server.Host = f.host
	}
	if f.port > 0 {
		cfg.Server.Port = f.port
	}
}

// builderOptions translates config into Builder options.
func builderOptions(cfg *config.Config, logger *slog.Logger) []mailinline.Option {
	opts := []mailinline.Option{
		mailinline.WithLogger(logger),
		mailinline.WithImageOptions(mailinline.ImageOptions{
			MaxDimension: cfg.Images.MaxDimension,
			Quality:      cfg.Images.Quality,
			Upscale:      cfg.Images.Upscale,
		}),
		mailinline.WithStyleOptions(mailinline.StyleOptions{
			RemoveStyleTags:  cfg.Styles.RemoveStyleTags,
			ResolveVariables: cfg.Styles.ResolveVariables,
			RemoveClasses:    cfg.Styles.RemoveClasses,
		}),
		mailinline.WithMinify(cfg.Minify.Enabled),
		mailinline.WithMinifyOptions(mailinline.MinifyOptions{
			CollapseWhitespace: cfg.Minify.CollapseWhitespace,
			RemoveComments:     cfg.Minify.RemoveComments,
			MinifyCSS:          cfg.Minify.MinifyCSS,
			MinifyJS:           cfg.Minify.MinifyJS,
			UnquoteAttributes:  cfg.Minify.UnquoteAttributes,
		}),
		mailinline.WithWorkers(cfg.Build.Workers),
		mailinline.WithProjectRoot(cfg.Source.Root),
		mailinline.WithCleanOutput(cfg.Output.Clean),
		mailinline.WithBaseStyle(cfg.Styles.Base),
		mailinline.WithAssetPath(cfg.Styles.AssetsPath),
	}
	if cfg.Build.Snapshots {
		opts = append(opts, mailinline.WithSnapshotter(
			mailinline.NewRodSnapshotter(cfg.Build.SnapshotWidth, mailinline.DefaultSnapshotTimeout)))
	}
	return opts
}

// assetsDir returns the raw assets directory under the project root.
func assetsDir(cfg *config.Config) string {
	if cfg.Source.Root == "" {
		return ""
	}
	return filepath.Join(cfg.Source.Root, assetsSubdir)
}

// newLogger creates the stderr logger. Warnings are shown by default,
// debug output with verbose, errors only with quiet.
func newLogger(w io.Writer, quiet, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// withHint appends an actionable hint to known setup errors.
func withHint(err error, cfg *config.Config, getenv func(string) string) error {
	var hint hints.Hint
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mailinline.ErrBrowserConnect):
		hint = hints.BrowserConnect(hints.Detect(getenv))
	case errors.Is(err, mailinline.ErrNoTemplates), errors.Is(err, mailinline.ErrSourceDir):
		hint = hints.SourceDir(cfg.Source.Dir)
	case errors.Is(err, mailinline.ErrOutputDir):
		hint = hints.OutputDir(cfg.Output.Dir)
	case errors.Is(err, mailinline.ErrStyleNotFound):
		if lib, lerr := assets.Open(cfg.Styles.AssetsPath); lerr == nil {
			hint = hints.Available(lib.Styles())
		}
	case errors.Is(err, devserver.ErrListen):
		hint = hints.PortInUse(cfg.Server.Port)
	}
	return hints.Attach(err, hint)
}
