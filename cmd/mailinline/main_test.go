package main

// Notes:
// - run/runMain: dispatch and exit codes. Command behavior is covered in the
//   per-command test files.

import (
	"context"
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRun - Command dispatch
// ---------------------------------------------------------------------------

func TestRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantErr    error
		wantStdout string
		wantStderr string
	}{
		{"no command", []string{"mailinline"}, ErrUsage, "", "Usage: mailinline"},
		{"unknown command", []string{"mailinline", "compile"}, ErrUnknownCommand, "", "Commands:"},
		{"version", []string{"mailinline", "version"}, nil, "mailinline dev", ""},
		{"help", []string{"mailinline", "help"}, nil, "Commands:", ""},
		{"help build", []string{"mailinline", "help", "build"}, nil, "--snapshots", ""},
		{"help serve", []string{"mailinline", "help", "serve"}, nil, "?view=source", ""},
		{"help new", []string{"mailinline", "help", "new"}, nil, "--from", ""},
		{"help init", []string{"mailinline", "help", "init"}, nil, "mailinline.yaml", ""},
		{"help unknown", []string{"mailinline", "help", "nope"}, ErrUnknownCommand, "", "Usage:"},
		{"command -h", []string{"mailinline", "build", "-h"}, nil, "", "Usage: mailinline build"},
		{"bad flag", []string{"mailinline", "build", "--nope"}, ErrUsage, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := testEnv(nil)
			err := run(context.Background(), tt.args, env)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("run() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantStdout != "" {
				assertContains(t, stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" {
				assertContains(t, stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestRunMain_ExitCodes(t *testing.T) {
	t.Parallel()

	p := newProject(t, map[string]string{"src/a.html": "<p>a</p>"})

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"success", append([]string{"mailinline", "build", "-q", "-o", p.out}, p.args()...), ExitSuccess},
		{"usage", []string{"mailinline"}, ExitUsage},
		{"missing source", []string{"mailinline", "build", "-q", "--src", p.root + "/missing", "-o", p.out}, ExitIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, _, stderr := testEnv(nil)
			if got := runMain(tt.args, env); got != tt.want {
				t.Errorf("runMain() = %d, want %d (stderr %q)", got, tt.want, stderr.String())
			}
		})
	}
}

func TestHasVerboseFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"mailinline", "build", "-v"}, true},
		{[]string{"mailinline", "build", "--verbose"}, true},
		{[]string{"mailinline", "build", "-q"}, false},
	}
	for _, tt := range tests {
		if got := hasVerboseFlag(tt.args); got != tt.want {
			t.Errorf("hasVerboseFlag(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
