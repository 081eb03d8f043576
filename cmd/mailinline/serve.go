package main

import (
	"context"
	"fmt"
	"io"

	mailinline "github.com/alnah/go-mailinline"
	"github.com/alnah/go-mailinline/internal/devserver"
	"github.com/alnah/go-mailinline/internal/fileutil"
)

// runServe starts the preview server and blocks until ctx is cancelled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: serve takes at most 1 argument, got %d", ErrUsage, len(positional))
	}

	envCfg := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ())

	cfg, _, err := resolveConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}

	mergePipelineFlags(&flags.pipeline, cfg)
	mergeServeFlags(flags, cfg)
	if len(positional) > 0 {
		cfg.Source.Dir = positional[0]
	}
	// Previews never render snapshots.
	cfg.Build.Snapshots = false
	if err := cfg.Validate(); err != nil {
		return err
	}

	if !fileutil.DirExists(cfg.Source.Dir) {
		return withHint(fmt.Errorf("%w: %s is not a directory", mailinline.ErrSourceDir, cfg.Source.Dir), cfg, env.Getenv)
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)

	b, err := mailinline.NewBuilder(builderOptions(cfg, logger)...)
	if err != nil {
		return withHint(err, cfg, env.Getenv)
	}
	defer b.Close()

	srv := devserver.New(devserver.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		SourceDir: cfg.Source.Dir,
		AssetsDir: assetsDir(cfg),
	}, b, logger)

	ready := func(addr string) {
		if flags.common.quiet {
			return
		}
		printServeBanner(env.Stdout, srv, "http://"+addr)
	}

	return withHint(srv.ListenAndServe(ctx, ready), cfg, env.Getenv)
}

// printServeBanner lists the preview URL of every template.
func printServeBanner(w io.Writer, srv *devserver.Server, baseURL string) {
	fmt.Fprintf(w, "Preview server running at %s\n", baseURL)

	urls, err := srv.URLs(baseURL)
	if err != nil {
		fmt.Fprintf(w, "warning: %v\n", err)
		return
	}
	if len(urls) == 0 {
		fmt.Fprintln(w, "No templates yet. Create one with 'mailinline new <name>'.")
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Templates:")
	for _, u := range urls {
		fmt.Fprintf(w, "  %s\n", u)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Press Ctrl+C to stop.")
}
