package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	mailinline "github.com/alnah/go-mailinline"
	"github.com/alnah/go-mailinline/internal/hints"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage           = errors.New("invalid usage")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrDocumentsFailed = errors.New("documents failed")
)

// maxBuildArgs is the number of positional build arguments: [src] [output].
const maxBuildArgs = 2

// runBuild orchestrates a full build.
func runBuild(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseBuildFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > maxBuildArgs {
		return fmt.Errorf("%w: build takes at most %d arguments, got %d", ErrUsage, maxBuildArgs, len(positional))
	}

	envCfg := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ())

	cfg, cfgName, err := resolveConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}

	// Positional arguments win over --src and --output.
	mergePipelineFlags(&flags.pipeline, cfg)
	mergeBuildFlags(flags, cfg)
	if len(positional) > 0 {
		cfg.Source.Dir = positional[0]
	}
	if len(positional) > 1 {
		cfg.Output.Dir = positional[1]
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	if cfgName != "" {
		logger.Debug("config loaded", "name", cfgName)
	}

	b, err := mailinline.NewBuilder(builderOptions(cfg, logger)...)
	if err != nil {
		return withHint(err, cfg, env.Getenv)
	}
	defer func() {
		if cerr := b.Close(); cerr != nil {
			logger.Warn("closing snapshot browser", "error", cerr)
		}
	}()

	if flags.common.verbose {
		fmt.Fprintf(env.Stderr, "Workers: %d\n", b.Workers())
	}

	start := env.Now()
	report, err := b.Build(ctx, cfg.Source.Dir, cfg.Output.Dir)
	if report != nil {
		printReport(report, flags.common.quiet, flags.common.verbose, env)
		if flags.common.verbose {
			fmt.Fprintf(env.Stderr, "Built in %v\n", env.Now().Sub(start).Round(time.Millisecond))
		}
	}
	if err != nil {
		return withHint(err, cfg, env.Getenv)
	}

	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrDocumentsFailed, failed, len(report.Documents))
	}
	return nil
}

// ReportSummary holds the count of clean, degraded, and failed documents.
type ReportSummary struct {
	Clean    int
	Degraded int // emitted with recovered issues
	Failed   int
}

// summarize tallies documents by outcome.
func summarize(report *mailinline.BuildReport) ReportSummary {
	var s ReportSummary
	for _, d := range report.Documents {
		switch {
		case d.Failed():
			s.Failed++
		case len(d.Issues) > 0:
			s.Degraded++
		default:
			s.Clean++
		}
	}
	return s
}

// printReport outputs build results using the environment writers.
// Failures and issues go to stderr even in quiet mode.
func printReport(report *mailinline.BuildReport, quiet, verbose bool, env *Environment) {
	browserIssue := false

	for _, d := range report.Documents {
		if d.Failed() {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", d.Template.Path, d.Err)
		}
		for _, issue := range d.Issues {
			fmt.Fprintf(env.Stderr, "WARN %s: %v\n", d.Template.Filename, issue)
			if errors.Is(issue.Err, mailinline.ErrBrowserConnect) {
				browserIssue = true
			}
		}

		if quiet || d.OutputPath == "" {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v, %s, %d issue(s))\n",
				d.Template.Path, d.OutputPath, d.Duration.Round(time.Millisecond), d.Stage, len(d.Issues))
			if d.Snapshot != "" {
				fmt.Fprintf(env.Stdout, "  snapshot %s\n", d.Snapshot)
			}
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", d.OutputPath)
		}
	}

	if browserIssue {
		fmt.Fprintf(env.Stderr, "snapshots unavailable%s\n", hints.BrowserConnect(hints.Detect(env.Getenv)))
	}

	if !quiet && len(report.Documents) > 1 {
		s := summarize(report)
		fmt.Fprintf(env.Stdout, "\n%d clean, %d with issues, %d failed\n", s.Clean, s.Degraded, s.Failed)
	}
}
