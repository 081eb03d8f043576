package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mailinline <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build      Inline images and styles, minify, and write dist/")
	fmt.Fprintln(w, "  serve      Preview templates with live inlining")
	fmt.Fprintln(w, "  init       Create a project with a config and a starter template")
	fmt.Fprintln(w, "  new        Create a template from a starter layout")
	fmt.Fprintln(w, "  doctor     Check configuration, templates, and browser")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mailinline help <command>' for details on a specific command.")
}

// printPipelineUsage prints the flags shared by build and serve.
func printPipelineUsage(w io.Writer) {
	fmt.Fprintln(w, "Source:")
	fmt.Fprintln(w, "  -s, --src <dir>           Template directory (default: src)")
	fmt.Fprintln(w, "      --root <dir>          Project root for images and assets/ (default: .)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Images:")
	fmt.Fprintln(w, "      --max-dimension <n>   Longest side in pixels (default: 1200)")
	fmt.Fprintln(w, "      --quality <n>         JPEG/WebP quality 1-100 (default: 80)")
	fmt.Fprintln(w, "      --upscale             Enlarge smaller images")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styles:")
	fmt.Fprintln(w, "      --style <name>        Base stylesheet (e.g. email-reset)")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom asset directory")
	fmt.Fprintln(w, "      --keep-style-tags     Keep <style> blocks")
	fmt.Fprintln(w, "      --keep-vars           Leave var() references")
	fmt.Fprintln(w, "      --keep-classes        Keep class attributes")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Minify:")
	fmt.Fprintln(w, "      --no-minify           Skip minification")
	fmt.Fprintln(w, "      --keep-comments       Keep HTML comments")
	fmt.Fprintln(w, "      --keep-quotes         Keep attribute quotes")
	fmt.Fprintln(w, "      --keep-whitespace     Do not collapse whitespace")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
}

// printBuildUsage prints usage for the build command.
func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mailinline build [src] [output] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build every *.html template into a self-contained email.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: dist)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel documents (0 = auto)")
	fmt.Fprintln(w, "      --no-clean            Keep stale artifacts")
	fmt.Fprintln(w, "      --snapshots           Render a PNG preview per template")
	fmt.Fprintln(w, "      --snapshot-width <n>  Snapshot viewport width (default: 600)")
	fmt.Fprintln(w)
	printPipelineUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes: 0 ok, 1 error, 2 usage, 3 I/O, 4 browser, 5 document failures")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mailinline serve [src] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve templates with live inlining. /<name> and /<name>.html map to")
	fmt.Fprintln(w, "/src/<name>.html; add ?raw=1 for the source or ?view=source for")
	fmt.Fprintln(w, "highlighted output.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "      --host <host>         Listen host (default: localhost)")
	fmt.Fprintln(w, "  -p, --port <n>            Listen port (default: PORT or 5173)")
	fmt.Fprintln(w)
	printPipelineUsage(w)
}

// printNewUsage prints usage for the new command.
func printNewUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mailinline new <name> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Create <src>/<name>.html from a starter layout.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -s, --src <dir>           Template directory (default: src)")
	fmt.Fprintln(w, "  -t, --title <s>           Document title (default: name)")
	fmt.Fprintln(w, "      --layout <name>       Starter layout (default: basic)")
	fmt.Fprintln(w, "  -f, --from <file.md>      Markdown draft to use as the body")
	fmt.Fprintln(w, "      --force               Overwrite an existing template")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
}

// printInitUsage prints usage for the init command.
func printInitUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mailinline init [dir] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Create src/, assets/, mailinline.yaml with the defaults, and")
	fmt.Fprintln(w, "src/welcome.html. Existing files are kept.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --force               Overwrite an existing mailinline.yaml")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mailinline doctor [--json] [-c, --config <name>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check configuration, templates, Chrome, and the environment.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) error {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return nil
	}

	switch args[0] {
	case "build":
		printBuildUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "init":
		printInitUsage(env.Stdout)
	case "new":
		printNewUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mailinline version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mailinline help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		printUsage(env.Stderr)
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	return nil
}
