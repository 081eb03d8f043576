package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mailinline/internal/config"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// imageFlags holds image policy flags.
type imageFlags struct {
	maxDimension int
	quality      int
	upscale      bool
}

// styleFlags holds style inlining flags.
type styleFlags struct {
	base          string // base stylesheet name or path
	assetPath     string // custom asset directory
	keepStyleTags bool
	keepVariables bool
	keepClasses   bool
}

// minifyFlags holds minification flags.
type minifyFlags struct {
	disabled       bool
	keepComments   bool
	keepQuotes     bool
	keepWhitespace bool
}

// pipelineFlags groups the flags that shape the per-document pipeline.
// Shared by build and serve so previews match builds.
type pipelineFlags struct {
	source string
	root   string
	images imageFlags
	styles styleFlags
	minify minifyFlags
}

// buildFlags holds all flags for the build command.
type buildFlags struct {
	common        commonFlags
	pipeline      pipelineFlags
	output        string
	workers       int
	noClean       bool
	snapshots     bool
	snapshotWidth int
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common   commonFlags
	pipeline pipelineFlags
	host     string
	port     int
}

// newFlags holds all flags for the new command.
type newFlags struct {
	common commonFlags
	source string
	title  string
	layout string
	draft  string
	force  bool
}

// initFlags holds all flags for the init command.
type initFlags struct {
	quiet bool
	force bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
}

// addPipelineFlags adds source and pipeline flags to a FlagSet.
func addPipelineFlags(fs *flag.FlagSet, f *pipelineFlags) {
	fs.StringVarP(&f.source, "src", "s", "", "template directory (default: "+config.DefaultSourceDir+")")
	fs.StringVar(&f.root, "root", "", "project root for image lookup and assets/")

	fs.IntVar(&f.images.maxDimension, "max-dimension", 0, "longest image side in pixels (default: 1200)")
	fs.IntVar(&f.images.quality, "quality", 0, "JPEG/WebP quality 1-100 (default: 80)")
	fs.BoolVar(&f.images.upscale, "upscale", false, "enlarge images smaller than --max-dimension")

	fs.StringVar(&f.styles.base, "style", "", "base stylesheet name from the asset directory")
	fs.StringVar(&f.styles.assetPath, "asset-path", "", "custom asset directory")
	fs.BoolVar(&f.styles.keepStyleTags, "keep-style-tags", false, "keep <style> blocks after inlining")
	fs.BoolVar(&f.styles.keepVariables, "keep-vars", false, "leave CSS custom properties unresolved")
	fs.BoolVar(&f.styles.keepClasses, "keep-classes", false, "keep class attributes after inlining")

	fs.BoolVar(&f.minify.disabled, "no-minify", false, "skip minification")
	fs.BoolVar(&f.minify.keepComments, "keep-comments", false, "keep HTML comments")
	fs.BoolVar(&f.minify.keepQuotes, "keep-quotes", false, "keep attribute quotes")
	fs.BoolVar(&f.minify.keepWhitespace, "keep-whitespace", false, "do not collapse whitespace")
}

// parseBuildFlags parses build command flags and returns positional args.
func parseBuildFlags(args []string, usage io.Writer) (*buildFlags, []string, error) {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	f := &buildFlags{}
	fs.SetOutput(usage)

	fs.StringVarP(&f.output, "output", "o", "", "output directory (default: "+config.DefaultOutputDir+")")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel documents (0 = auto)")
	fs.BoolVar(&f.noClean, "no-clean", false, "keep stale artifacts in the output directory")
	fs.BoolVar(&f.snapshots, "snapshots", false, "render a PNG preview per template")
	fs.IntVar(&f.snapshotWidth, "snapshot-width", 0, "snapshot viewport width (default: 600)")

	addCommonFlags(fs, &f.common)
	addPipelineFlags(fs, &f.pipeline)

	fs.Usage = func() { printBuildUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, flagError(err)
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags and returns positional args.
func parseServeFlags(args []string, usage io.Writer) (*serveFlags, []string, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	f := &serveFlags{}
	fs.SetOutput(usage)

	fs.StringVar(&f.host, "host", "", "listen host (default: "+config.DefaultServerHost+")")
	fs.IntVarP(&f.port, "port", "p", 0, "listen port (default: PORT or 5173)")

	addCommonFlags(fs, &f.common)
	addPipelineFlags(fs, &f.pipeline)

	fs.Usage = func() { printServeUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, flagError(err)
	}
	return f, fs.Args(), nil
}

// parseNewFlags parses new command flags and returns positional args.
func parseNewFlags(args []string, usage io.Writer) (*newFlags, []string, error) {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	f := &newFlags{}
	fs.SetOutput(usage)

	fs.StringVarP(&f.source, "src", "s", "", "template directory (default: "+config.DefaultSourceDir+")")
	fs.StringVarP(&f.title, "title", "t", "", "document title (default: name)")
	fs.StringVar(&f.layout, "layout", "", "starter layout name")
	fs.StringVarP(&f.draft, "from", "f", "", "Markdown draft to use as the body")
	fs.BoolVar(&f.force, "force", false, "overwrite an existing template")

	addCommonFlags(fs, &f.common)

	fs.Usage = func() { printNewUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, flagError(err)
	}
	return f, fs.Args(), nil
}

// flagError tags parse failures as usage errors. ErrHelp passes through.
func flagError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}

// parseInitFlags parses init command flags and returns positional args.
func parseInitFlags(args []string, usage io.Writer) (*initFlags, []string, error) {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	f := &initFlags{}
	fs.SetOutput(usage)

	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVar(&f.force, "force", false, "overwrite an existing config")

	fs.Usage = func() { printInitUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, flagError(err)
	}
	return f, fs.Args(), nil
}

// doctorFlags holds doctor command flags.
type doctorFlags struct {
	config string
	json   bool
}

// parseDoctorFlags parses doctor command flags and returns positional args.
func parseDoctorFlags(args []string, usage io.Writer) (*doctorFlags, []string, error) {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	f := &doctorFlags{}
	fs.SetOutput(usage)

	fs.StringVarP(&f.config, "config", "c", "", "config name or path")
	fs.BoolVar(&f.json, "json", false, "print the report as JSON")

	fs.Usage = func() { printDoctorUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, flagError(err)
	}
	return f, fs.Args(), nil
}
