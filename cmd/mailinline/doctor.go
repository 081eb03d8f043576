package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"

	mailinline "github.com/alnah/go-mailinline"
	"github.com/alnah/go-mailinline/internal/assets"
	"github.com/alnah/go-mailinline/internal/config"
	"github.com/alnah/go-mailinline/internal/fileutil"
	"github.com/alnah/go-mailinline/internal/hints"
)

// ErrDoctorFailed indicates the doctor found blocking problems.
var ErrDoctorFailed = errors.New("environment not ready")

const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult is the report printed by doctor, as text or JSON.
type doctorResult struct {
	Status   string      `json:"status"`
	Project  projectInfo `json:"project"`
	Styles   stylesInfo  `json:"styles"`
	Chrome   chromeInfo  `json:"chrome"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

type projectInfo struct {
	Config    string   `json:"config"` // empty when defaults apply
	SourceDir string   `json:"source_dir"`
	OutputDir string   `json:"output_dir"`
	Templates []string `json:"templates"`
	Snapshots bool     `json:"snapshots"`
}

type stylesInfo struct {
	Base       string   `json:"base,omitempty"`
	AssetsPath string   `json:"assets_path,omitempty"`
	Available  []string `json:"available,omitempty"`
}

type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     bool   `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command. Warnings still exit 0.
func runDoctorCmd(args []string, env *Environment) error {
	flags, positional, err := parseDoctorFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: doctor takes no arguments, got %d", ErrUsage, len(positional))
	}

	result := runDoctor(flags.config, env)

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ErrDoctorFailed
	}
	return nil
}

// doctor accumulates findings while the checks run.
type doctor struct {
	env *Environment
	cfg *config.Config // nil when the config could not be resolved
	rt  hints.Runtime
	r   *doctorResult
}

func (d *doctor) warnf(format string, args ...any) {
	d.r.Warnings = append(d.r.Warnings, fmt.Sprintf(format, args...))
}

func (d *doctor) failf(format string, args ...any) {
	d.r.Errors = append(d.r.Errors, fmt.Sprintf(format, args...))
}

// runDoctor performs all diagnostic checks.
func runDoctor(configName string, env *Environment) *doctorResult {
	rt := hints.Detect(env.Getenv)
	d := &doctor{
		env: env,
		rt:  rt,
		r: &doctorResult{Env: envInfo{
			OS:            runtime.GOOS,
			Arch:          runtime.GOARCH,
			Container:     rt.Container,
			ContainerHint: rt.ContainerHint,
			CI:            rt.CI,
			NoSandbox:     rt.NoSandbox,
			BrowserBin:    rt.BrowserBin,
		}},
	}

	d.checkProject(configName)
	d.checkStyles()
	d.checkChrome()
	d.checkSandbox()
	d.checkSystem()

	switch {
	case len(d.r.Errors) > 0:
		d.r.Status = statusErrors
	case len(d.r.Warnings) > 0:
		d.r.Status = statusWarnings
	default:
		d.r.Status = statusReady
	}
	return d.r
}

// checkProject resolves configuration and discovers templates.
func (d *doctor) checkProject(configName string) {
	cfg, name, err := resolveConfig(configName, loadEnvConfig(d.env.Getenv))
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		d.failf("%v", err)
		return
	}
	d.cfg = cfg

	d.r.Project = projectInfo{
		Config:    name,
		SourceDir: cfg.Source.Dir,
		OutputDir: cfg.Output.Dir,
		Snapshots: cfg.Build.Snapshots,
	}

	templates, err := mailinline.DiscoverTemplates(cfg.Source.Dir)
	if err != nil {
		d.failf("%v", err)
		return
	}
	if len(templates) == 0 {
		d.warnf("No templates in %s. Create one with 'mailinline new <name>'", cfg.Source.Dir)
	}
	if _, err := mailinline.BuildRouteTable(templates); err != nil {
		d.failf("%v", err)
	}
	for _, t := range templates {
		d.r.Project.Templates = append(d.r.Project.Templates, t.Filename)
	}
}

// checkStyles verifies the base stylesheet resolves.
func (d *doctor) checkStyles() {
	if d.cfg == nil {
		return
	}
	s := d.cfg.Styles
	d.r.Styles = stylesInfo{Base: s.Base, AssetsPath: s.AssetsPath}

	lib, err := assets.Open(s.AssetsPath)
	if err != nil {
		d.failf("Assets: %v", err)
		return
	}
	d.r.Styles.Available = lib.Styles()
	if s.Base == "" {
		return
	}
	if _, err := lib.LoadStyle(s.Base); err != nil {
		d.failf("Base style: %v%s", err, hints.Available(d.r.Styles.Available))
	}
}

// checkChrome locates the snapshot browser. A missing browser only blocks
// builds with snapshots enabled.
func (d *doctor) checkChrome() {
	path := d.rt.BrowserBin
	if path == "" {
		var found bool
		if path, found = launcher.LookPath(); !found {
			d.browserMissing("Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	} else if !fileutil.FileExists(path) {
		d.browserMissing(fmt.Sprintf("ROD_BROWSER_BIN not found: %s", path))
		return
	}

	d.r.Chrome = chromeInfo{Found: true, Path: path, Sandbox: !d.rt.NoSandbox}

	out, err := exec.Command(path, "--version").Output() // #nosec G204 -- detected browser path
	if err != nil {
		d.warnf("Could not get Chrome version: %v", err)
		return
	}
	d.r.Chrome.Version = strings.TrimSpace(string(out))
}

func (d *doctor) browserMissing(msg string) {
	if d.r.Project.Snapshots {
		d.failf("%s", msg)
		return
	}
	d.warnf("%s (needed for --snapshots)", msg)
}

// checkSandbox flags Chrome sandbox trouble ahead of a snapshot build.
func (d *doctor) checkSandbox() {
	if d.r.Project.Snapshots && d.rt.NeedsNoSandbox() {
		d.warnf("Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// checkSystem verifies the temp directory used for snapshot pages.
func (d *doctor) checkSystem() {
	scratch, err := fileutil.NewScratch()
	if err == nil {
		_, err = scratch.WriteTemp("doctor-*", []byte("ok"))
		_ = scratch.Remove()
	}
	if err != nil {
		d.failf("Temp directory not writable: %v", err)
		return
	}
	d.r.System.TempWritable = true
}

// checklist prints indented status lines under section headings.
type checklist struct {
	w io.Writer
}

func (c checklist) section(title string) { fmt.Fprintf(c.w, "\n%s\n", title) }

func (c checklist) line(level, format string, args ...any) {
	fmt.Fprintf(c.w, "  [%s] %s\n", level, fmt.Sprintf(format, args...))
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	c := checklist{w: w}
	fmt.Fprintln(w, "mailinline doctor")

	c.section("Project")
	if r.Project.Config != "" {
		c.line("OK", "Config: %s", r.Project.Config)
	} else {
		c.line("OK", "Config: defaults")
	}
	if r.Project.SourceDir != "" {
		c.line("OK", "Source: %s (%d template(s))", r.Project.SourceDir, len(r.Project.Templates))
		c.line("OK", "Output: %s", r.Project.OutputDir)
	}
	if r.Styles.Base != "" {
		c.line("OK", "Base style: %s", r.Styles.Base)
	}

	c.section("Chrome/Chromium")
	switch {
	case r.Chrome.Found:
		c.line("OK", "Found at %s", r.Chrome.Path)
		if r.Chrome.Version != "" {
			c.line("OK", "Version: %s", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			c.line("OK", "Sandbox: enabled")
		} else {
			c.line("OK", "Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	case r.Project.Snapshots:
		c.line("ERROR", "Not found")
	default:
		c.line("WARN", "Not found (snapshots disabled)")
	}

	c.section("Environment")
	c.line("OK", "Platform: %s/%s", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		c.line("OK", "Container: detected (%s)", r.Env.ContainerHint)
	}
	if r.Env.CI {
		c.line("OK", "CI: detected")
	}

	c.section("System")
	if r.System.TempWritable {
		c.line("OK", "Temp directory: writable")
	} else {
		c.line("ERROR", "Temp directory: not writable")
	}

	if len(r.Warnings) > 0 {
		c.section("Warnings:")
		for _, msg := range r.Warnings {
			c.line("WARN", "%s", msg)
		}
	}
	if len(r.Errors) > 0 {
		c.section("Errors:")
		for _, msg := range r.Errors {
			c.line("ERROR", "%s", msg)
		}
	}

	fmt.Fprintln(w)
	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to build")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
