package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alnah/go-mailinline/internal/config"
	"github.com/alnah/go-mailinline/internal/fileutil"
	"github.com/alnah/go-mailinline/internal/scaffold"
)

// starterTemplate is the template created by init.
const starterTemplate = "welcome"

// runInit lays out a new project: src/, assets/, a config file with the
// defaults, and one starter template. Existing files are kept.
func runInit(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseInitFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: init takes at most 1 argument (project directory), got %d", ErrUsage, len(positional))
	}

	dir := "."
	if len(positional) == 1 {
		dir = positional[0]
	}

	created := func(path string) {
		if !flags.quiet {
			fmt.Fprintf(env.Stdout, "Created %s\n", path)
		}
	}

	cfg := config.DefaultConfig()
	srcDir := filepath.Join(dir, cfg.Source.Dir)
	for _, d := range []string{srcDir, filepath.Join(dir, assetsSubdir)} {
		if err := os.MkdirAll(d, 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", d, err)
		}
	}

	cfgPath := filepath.Join(dir, config.DefaultName+".yaml")
	if !flags.force && fileutil.FileExists(cfgPath) {
		fmt.Fprintf(env.Stderr, "Skipped %s (already exists, use --force to overwrite)\n", cfgPath)
	} else {
		if err := config.Save(cfgPath, cfg); err != nil {
			return err
		}
		created(cfgPath)
	}

	path, err := scaffold.New(env.AssetLoader, nil).Create(ctx, srcDir, scaffold.Options{
		Name:  starterTemplate,
		Title: "Welcome",
	})
	switch {
	case errors.Is(err, scaffold.ErrTemplateExists):
	case err != nil:
		return err
	default:
		created(path)
	}

	if !flags.quiet {
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Next steps:")
		if dir != "." {
			fmt.Fprintf(env.Stdout, "  cd %s\n", dir)
		}
		fmt.Fprintln(env.Stdout, "  mailinline serve")
		fmt.Fprintln(env.Stdout, "  mailinline build")
	}
	return nil
}
