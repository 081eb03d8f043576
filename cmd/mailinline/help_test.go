package main

// Notes:
// - print*Usage: we test that required content strings are present in the
//   output. Exact formatting is an implementation detail.
// - runHelp: routing is covered in TestRun; here we check the topics.

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestUsageOutput - Required content per topic
// ---------------------------------------------------------------------------

func TestUsageOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		print func(io.Writer)
		want  []string
	}{
		{"main", printUsage, []string{"Usage: mailinline", "build", "serve", "init", "new", "doctor", "version", "help"}},
		{"build", printBuildUsage, []string{"[src] [output]", "--output", "--workers", "--no-clean", "--snapshots", "--max-dimension", "--no-minify", "Exit codes:"}},
		{"serve", printServeUsage, []string{"?raw=1", "?view=source", "--port", "--host", "--keep-classes"}},
		{"new", printNewUsage, []string{"<name>", "--from", "--layout", "--force"}},
		{"doctor", printDoctorUsage, []string{"--json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tt.print(&buf)
			for _, s := range tt.want {
				if !strings.Contains(buf.String(), s) {
					t.Errorf("%s usage should contain %q", tt.name, s)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunHelp - Topic routing
// ---------------------------------------------------------------------------

func TestRunHelp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want string
	}{
		{nil, "Commands:"},
		{[]string{"build"}, "Usage: mailinline build"},
		{[]string{"serve"}, "Usage: mailinline serve"},
		{[]string{"new"}, "Usage: mailinline new"},
		{[]string{"init"}, "Usage: mailinline init"},
		{[]string{"doctor"}, "Usage: mailinline doctor"},
		{[]string{"version"}, "Usage: mailinline version"},
		{[]string{"help"}, "Usage: mailinline help"},
	}

	for _, tt := range tests {
		env, stdout, _ := testEnv(nil)
		if err := runHelp(tt.args, env); err != nil {
			t.Errorf("runHelp(%v) error = %v", tt.args, err)
		}
		assertContains(t, stdout.String(), tt.want)
	}

	env, _, stderr := testEnv(nil)
	if err := runHelp([]string{"compile"}, env); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("runHelp(compile) error = %v, want ErrUnknownCommand", err)
	}
	assertContains(t, stderr.String(), "Commands:")
}
