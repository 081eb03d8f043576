package main

import (
	"context"
	"errors"
	"fmt"

	mailinline "github.com/alnah/go-mailinline"
	"github.com/alnah/go-mailinline/internal/assets"
	"github.com/alnah/go-mailinline/internal/hints"
	"github.com/alnah/go-mailinline/internal/scaffold"
)

// runNew creates a template from a starter layout.
func runNew(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseNewFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("%w: new takes exactly 1 argument (template name), got %d", ErrUsage, len(positional))
	}

	envCfg := loadEnvConfig(env.Getenv)
	cfg, _, err := resolveConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}
	if flags.source != "" {
		cfg.Source.Dir = flags.source
	}

	// Project layouts live next to project styles.
	var loader assets.Loader = env.AssetLoader
	if cfg.Styles.AssetsPath != "" {
		lib, err := assets.Open(cfg.Styles.AssetsPath)
		if err != nil {
			return fmt.Errorf("%w: %v", mailinline.ErrInvalidAssetPath, err)
		}
		loader = lib
	}

	path, err := scaffold.New(loader, nil).Create(ctx, cfg.Source.Dir, scaffold.Options{
		Name:      positional[0],
		Title:     flags.title,
		Layout:    flags.layout,
		DraftPath: flags.draft,
		Force:     flags.force,
	})
	if errors.Is(err, assets.ErrTemplateNotFound) {
		if lib, ok := loader.(*assets.Library); ok {
			return hints.Attach(err, hints.Available(lib.Layouts()))
		}
	}
	if err != nil {
		return err
	}

	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Created %s\n", path)
	}
	return nil
}
