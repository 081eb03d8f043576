package mailinline

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDiscoverTemplates(t *testing.T) {
	t.Parallel()

	t.Run("flat listing sorted by filename", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, dir, "welcome.html", []byte("w"))
		writeFile(t, dir, "digest.html", []byte("d"))
		writeFile(t, dir, "notes.txt", []byte("n"))
		writeFile(t, dir, ".html", []byte("no stem"))
		writeFile(t, dir, "partials/footer.html", []byte("f"))
		if err := os.Mkdir(filepath.Join(dir, "folder.html"), 0o755); err != nil {
			t.Fatalf("Mkdir: %v", err)
		}

		got, err := DiscoverTemplates(dir)
		if err != nil {
			t.Fatalf("DiscoverTemplates() error = %v", err)
		}

		want := []Template{
			{Path: filepath.Join(dir, "digest.html"), Filename: "digest.html", Route: "digest"},
			{Path: filepath.Join(dir, "welcome.html"), Filename: "welcome.html", Route: "welcome"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("DiscoverTemplates() = %+v, want %+v", got, want)
		}
	})

	t.Run("uppercase extension", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, dir, "Promo.HTML", []byte("p"))

		got, err := DiscoverTemplates(dir)
		if err != nil {
			t.Fatalf("DiscoverTemplates() error = %v", err)
		}
		if len(got) != 1 || got[0].Route != "Promo" || artifactName(got[0]) != "Promo.html" {
			t.Errorf("DiscoverTemplates() = %+v, want route Promo emitting Promo.html", got)
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		t.Parallel()

		got, err := DiscoverTemplates(t.TempDir())
		if err != nil || len(got) != 0 {
			t.Errorf("DiscoverTemplates() = %v, %v; want empty, nil", got, err)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()

		_, err := DiscoverTemplates(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrSourceDir) {
			t.Errorf("DiscoverTemplates() error = %v, want %v", err, ErrSourceDir)
		}
	})
}
