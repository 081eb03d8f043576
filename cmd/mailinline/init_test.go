package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alnah/go-mailinline/internal/config"
)

// ---------------------------------------------------------------------------
// TestRunInit
// ---------------------------------------------------------------------------

func TestRunInit(t *testing.T) {
	t.Parallel()

	t.Run("lays out a buildable project", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "newsletter")
		env, stdout, stderr := testEnv(nil)

		if err := runInit(context.Background(), []string{dir}, env); err != nil {
			t.Fatalf("runInit() error = %v", err)
		}

		cfgPath := filepath.Join(dir, "mailinline.yaml")
		assertContains(t, stdout.String(), "Created "+cfgPath)
		assertContains(t, stdout.String(), "cd "+dir)

		cfg, err := config.LoadConfig(cfgPath)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if *cfg != *config.DefaultConfig() {
			t.Errorf("written config = %+v, want defaults", *cfg)
		}
		if _, err := os.Stat(filepath.Join(dir, "assets")); err != nil {
			t.Errorf("assets dir missing: %v", err)
		}

		args := []string{"-q", "-c", cfgPath, "--src", filepath.Join(dir, "src"), "--root", dir, "-o", filepath.Join(dir, "dist")}
		if err := runBuild(context.Background(), args, env); err != nil {
			t.Fatalf("runBuild() error = %v (stderr %q)", err, stderr.String())
		}
		if _, err := os.Stat(filepath.Join(dir, "dist", "welcome.html")); err != nil {
			t.Errorf("starter template not built: %v", err)
		}
	})

	t.Run("keeps existing files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cfgPath := writeConfig(t, dir, "source:\n  dir: emails\n")
		if err := os.MkdirAll(filepath.Join(dir, "src"), 0o750); err != nil {
			t.Fatal(err)
		}
		welcome := filepath.Join(dir, "src", "welcome.html")
		if err := os.WriteFile(welcome, []byte("<p>mine</p>"), 0o644); err != nil {
			t.Fatal(err)
		}
		env, stdout, stderr := testEnv(nil)

		if err := runInit(context.Background(), []string{dir}, env); err != nil {
			t.Fatalf("runInit() error = %v", err)
		}
		assertContains(t, stderr.String(), "Skipped "+cfgPath)
		if got := readFile(t, cfgPath); got != "source:\n  dir: emails\n" {
			t.Errorf("config overwritten: %q", got)
		}
		if got := readFile(t, welcome); got != "<p>mine</p>" {
			t.Errorf("template overwritten: %q", got)
		}
		if stdout.String() != "\nNext steps:\n  cd "+dir+"\n  mailinline serve\n  mailinline build\n" {
			t.Errorf("stdout = %q", stdout.String())
		}
	})

	t.Run("force rewrites the config", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cfgPath := writeConfig(t, dir, "source:\n  dir: emails\n")
		env, _, _ := testEnv(nil)

		if err := runInit(context.Background(), []string{"-q", "--force", dir}, env); err != nil {
			t.Fatalf("runInit() error = %v", err)
		}
		cfg, err := config.LoadConfig(cfgPath)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Source.Dir != config.DefaultSourceDir {
			t.Errorf("Source.Dir = %q, want %q", cfg.Source.Dir, config.DefaultSourceDir)
		}
	})
}

func TestRunInit_TooManyArgs(t *testing.T) {
	t.Parallel()

	env, _, _ := testEnv(nil)
	err := runInit(context.Background(), []string{"a", "b"}, env)
	if !errors.Is(err, ErrUsage) {
		t.Errorf("runInit() error = %v, want ErrUsage", err)
	}
}
