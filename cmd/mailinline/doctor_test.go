package main

// Notes:
// - Chrome detection depends on the host, so tests only assert on fields that
//   are independent of an installed browser unless snapshots are requested.

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/alnah/go-mailinline/internal/config"
	"github.com/alnah/go-mailinline/internal/hints"
)

// ---------------------------------------------------------------------------
// TestRunDoctor
// ---------------------------------------------------------------------------

func TestRunDoctor_Project(t *testing.T) {
	t.Parallel()

	p := newProject(t, map[string]string{"src/a.html": "<p>a</p>", "src/b.html": "<p>b</p>"})
	cfgPath := writeConfig(t, p.root, "source:\n  dir: "+p.src+"\noutput:\n  dir: "+p.out+"\n")
	env, _, _ := testEnv(nil)

	r := runDoctor(cfgPath, env)

	if r.Project.Config != cfgPath {
		t.Errorf("Project.Config = %q, want %q", r.Project.Config, cfgPath)
	}
	if r.Project.SourceDir != p.src {
		t.Errorf("Project.SourceDir = %q, want %q", r.Project.SourceDir, p.src)
	}
	if got := strings.Join(r.Project.Templates, ","); got != "a.html,b.html" {
		t.Errorf("Project.Templates = %q", got)
	}
	if r.Env.OS != runtime.GOOS || r.Env.Arch != runtime.GOARCH {
		t.Errorf("Env platform = %s/%s", r.Env.OS, r.Env.Arch)
	}
	if !r.System.TempWritable {
		t.Error("temp dir should be writable")
	}
	for _, e := range r.Errors {
		t.Errorf("unexpected error: %s", e)
	}
}

func TestRunDoctor_Problems(t *testing.T) {
	t.Parallel()

	t.Run("missing explicit config", func(t *testing.T) {
		t.Parallel()

		env, _, _ := testEnv(nil)
		r := runDoctor("/nonexistent/mailinline.yaml", env)
		if r.Status != statusErrors {
			t.Errorf("Status = %q, want %q", r.Status, statusErrors)
		}
	})

	t.Run("duplicate routes", func(t *testing.T) {
		t.Parallel()

		p := newProject(t, map[string]string{"src/a.html": "<p>a</p>", "src/a.HTML": "<p>A</p>"})
		cfgPath := writeConfig(t, p.root, "source:\n  dir: "+p.src+"\noutput:\n  dir: "+p.out+"\n")
		env, _, _ := testEnv(nil)

		r := runDoctor(cfgPath, env)
		if r.Status != statusErrors {
			t.Errorf("Status = %q, want %q (templates %v)", r.Status, statusErrors, r.Project.Templates)
		}
	})

	t.Run("empty source is a warning", func(t *testing.T) {
		t.Parallel()

		p := newProject(t, nil)
		cfgPath := writeConfig(t, p.root, "source:\n  dir: "+p.src+"\noutput:\n  dir: "+p.out+"\n")
		env, _, _ := testEnv(nil)

		r := runDoctor(cfgPath, env)
		found := false
		for _, w := range r.Warnings {
			if strings.Contains(w, "No templates") {
				found = true
			}
		}
		if !found {
			t.Errorf("Warnings = %v, want a no-templates warning", r.Warnings)
		}
	})

	t.Run("missing browser with snapshots is an error", func(t *testing.T) {
		t.Parallel()

		p := newProject(t, map[string]string{"src/a.html": "<p>a</p>"})
		cfgPath := writeConfig(t, p.root, "source:\n  dir: "+p.src+"\noutput:\n  dir: "+p.out+"\nbuild:\n  snapshots: true\n")
		env, _, _ := testEnv(map[string]string{"ROD_BROWSER_BIN": "/nonexistent/chrome"})

		r := runDoctor(cfgPath, env)
		if r.Chrome.Found {
			t.Fatal("Chrome.Found = true for a missing binary")
		}
		if r.Status != statusErrors {
			t.Errorf("Status = %q, want %q", r.Status, statusErrors)
		}
	})

	t.Run("missing browser without snapshots is a warning", func(t *testing.T) {
		t.Parallel()

		p := newProject(t, map[string]string{"src/a.html": "<p>a</p>"})
		cfgPath := writeConfig(t, p.root, "source:\n  dir: "+p.src+"\noutput:\n  dir: "+p.out+"\n")
		env, _, _ := testEnv(map[string]string{"ROD_BROWSER_BIN": "/nonexistent/chrome"})

		r := runDoctor(cfgPath, env)
		if r.Status != statusWarnings {
			t.Errorf("Status = %q, want %q (errors %v)", r.Status, statusWarnings, r.Errors)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd - Output formats
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_JSON(t *testing.T) {
	t.Parallel()

	p := newProject(t, map[string]string{"src/a.html": "<p>a</p>"})
	cfgPath := writeConfig(t, p.root, "source:\n  dir: "+p.src+"\noutput:\n  dir: "+p.out+"\n")
	env, stdout, _ := testEnv(map[string]string{"ROD_BROWSER_BIN": "/nonexistent/chrome"})

	if err := runDoctorCmd([]string{"--json", "--config=" + cfgPath}, env); err != nil {
		t.Fatalf("runDoctorCmd() error = %v", err)
	}

	var got doctorResult
	if err := json.Unmarshal([]byte(stdout.String()), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout.String())
	}
	if got.Status != statusWarnings {
		t.Errorf("Status = %q, want %q", got.Status, statusWarnings)
	}
	if len(got.Project.Templates) != 1 || got.Project.Templates[0] != "a.html" {
		t.Errorf("Project.Templates = %v", got.Project.Templates)
	}
}

func TestRunDoctorCmd_Fails(t *testing.T) {
	t.Parallel()

	env, stdout, _ := testEnv(nil)
	err := runDoctorCmd([]string{"-c", "/nonexistent/mailinline.yaml"}, env)
	if err != ErrDoctorFailed {
		t.Errorf("runDoctorCmd() error = %v, want ErrDoctorFailed", err)
	}
	assertContains(t, stdout.String(), "Status: Not ready")
}

func TestPrintDoctorResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result *doctorResult
		want   []string
	}{
		{
			name: "ready",
			result: &doctorResult{
				Status:  statusReady,
				Project: projectInfo{Config: "mailinline", SourceDir: "src", OutputDir: "dist", Templates: []string{"a.html"}},
				Chrome:  chromeInfo{Found: true, Path: "/usr/bin/chromium", Version: "Chromium 120", Sandbox: true},
				Env:     envInfo{OS: "linux", Arch: "amd64", Container: true, ContainerHint: "/.dockerenv", CI: true},
				System:  systemInfo{TempWritable: true},
			},
			want: []string{
				"[OK] Config: mailinline",
				"[OK] Source: src (1 template(s))",
				"[OK] Version: Chromium 120",
				"[OK] Sandbox: enabled",
				"[OK] Container: detected (/.dockerenv)",
				"[OK] CI: detected",
				"Status: Ready to build",
			},
		},
		{
			name: "warnings without snapshots",
			result: &doctorResult{
				Status:   statusWarnings,
				Warnings: []string{"Chrome/Chromium not found"},
				System:   systemInfo{TempWritable: true},
			},
			want: []string{
				"[OK] Config: defaults",
				"[WARN] Not found (snapshots disabled)",
				"[WARN] Chrome/Chromium not found",
				"Status: Ready with warnings",
			},
		},
		{
			name: "errors",
			result: &doctorResult{
				Status:  statusErrors,
				Project: projectInfo{Snapshots: true},
				Errors:  []string{"boom"},
			},
			want: []string{
				"[ERROR] Not found",
				"[ERROR] Temp directory: not writable",
				"[ERROR] boom",
				"Status: Not ready",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			printDoctorResult(&buf, tt.result)
			for _, w := range tt.want {
				assertContains(t, buf.String(), w)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestDoctor - Individual checks
// ---------------------------------------------------------------------------

func TestDoctor_CheckSandbox(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		rt        hints.Runtime
		snapshots bool
		wantWarn  bool
	}{
		{"ci with snapshots", hints.Runtime{CI: true}, true, true},
		{"container with snapshots", hints.Runtime{Container: true}, true, true},
		{"sandbox already off", hints.Runtime{CI: true, NoSandbox: true}, true, false},
		{"ci without snapshots", hints.Runtime{CI: true}, false, false},
		{"local", hints.Runtime{}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := &doctor{rt: tt.rt, r: &doctorResult{Project: projectInfo{Snapshots: tt.snapshots}}}
			d.checkSandbox()

			got := len(d.r.Warnings) == 1 && strings.Contains(d.r.Warnings[0], "ROD_NO_SANDBOX")
			if got != tt.wantWarn {
				t.Errorf("Warnings = %v, want sandbox warning %v", d.r.Warnings, tt.wantWarn)
			}
		})
	}
}

func TestRunDoctor_ContainerEnv(t *testing.T) {
	t.Parallel()

	env, _, _ := testEnv(map[string]string{"MAILINLINE_CONTAINER": "1"})
	r := runDoctor("", env)

	if !r.Env.Container || r.Env.ContainerHint == "" {
		t.Errorf("Env = %+v, want a detected container", r.Env)
	}
	for _, w := range r.Warnings {
		if strings.Contains(w, "ROD_NO_SANDBOX") {
			t.Errorf("unexpected sandbox warning without snapshots: %s", w)
		}
	}
}

func TestDoctor_CheckStyles(t *testing.T) {
	t.Parallel()

	p := newProject(t, map[string]string{"theme/styles/brand.css": "p{color:red}"})
	assetsDir := filepath.Join(p.root, "theme")

	tests := []struct {
		name       string
		styles     config.StylesConfig
		wantErr    string
		wantStyles []string
	}{
		{"builtin base", config.StylesConfig{Base: "email-reset"}, "", []string{"email-reset"}},
		{"custom base", config.StylesConfig{Base: "brand", AssetsPath: assetsDir}, "", []string{"brand", "email-reset"}},
		{"unknown base lists styles", config.StylesConfig{Base: "nope", AssetsPath: assetsDir}, "available: brand, email-reset", nil},
		{"bad assets path", config.StylesConfig{AssetsPath: filepath.Join(p.root, "missing")}, "Assets:", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			cfg.Styles = tt.styles
			d := &doctor{cfg: cfg, r: &doctorResult{}}
			d.checkStyles()

			if tt.wantErr != "" {
				if len(d.r.Errors) != 1 || !strings.Contains(d.r.Errors[0], tt.wantErr) {
					t.Errorf("Errors = %v, want %q", d.r.Errors, tt.wantErr)
				}
				return
			}
			if len(d.r.Errors) != 0 {
				t.Fatalf("unexpected errors: %v", d.r.Errors)
			}
			if !slices.Equal(d.r.Styles.Available, tt.wantStyles) {
				t.Errorf("Available = %v, want %v", d.r.Styles.Available, tt.wantStyles)
			}
		})
	}
}

func TestRunDoctorCmd_Usage(t *testing.T) {
	t.Parallel()

	env, _, _ := testEnv(nil)
	if err := runDoctorCmd([]string{"extra"}, env); !errors.Is(err, ErrUsage) {
		t.Errorf("runDoctorCmd(extra) error = %v, want ErrUsage", err)
	}
	if err := runDoctorCmd([]string{"--bogus"}, env); !errors.Is(err, ErrUsage) {
		t.Errorf("runDoctorCmd(--bogus) error = %v, want ErrUsage", err)
	}
}
