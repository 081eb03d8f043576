package devserver

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	mailinline "github.com/alnah/go-mailinline"
)

// Notes:
// - upperTransformer stands in for the Builder so responses are predictable.
// - One test uses the real Builder to check the full preview path.

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

type upperTransformer struct{}

func (upperTransformer) Transform(_ context.Context, t mailinline.Template, source string) mailinline.DocumentResult {
	return mailinline.DocumentResult{
		Template: t,
		HTML:     strings.ToUpper(source),
		Stage:    mailinline.StageMinified,
	}
}

func setupProject(t *testing.T) (srcDir, assetsDir string) {
	t.Helper()

	root := t.TempDir()
	srcDir = filepath.Join(root, "src")
	assetsDir = filepath.Join(root, "assets")
	for _, dir := range []string{srcDir, assetsDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
	}
	files := map[string]string{
		filepath.Join(srcDir, "welcome.html"):   `<p class="x">hello</p>`,
		filepath.Join(srcDir, "reset.html"):     `<p>reset</p>`,
		filepath.Join(assetsDir, "logo.txt"):    "LOGO",
		filepath.Join(srcDir, "notes.markdown"): "ignored",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return srcDir, assetsDir
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Get(url) // #nosec G107 -- test server URL
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, string(body)
}

// ---------------------------------------------------------------------------
// TestServer_Routes
// ---------------------------------------------------------------------------

func TestServer_Routes(t *testing.T) {
	t.Parallel()

	srcDir, assetsDir := setupProject(t)
	srv := New(Config{SourceDir: srcDir, AssetsDir: assetsDir}, upperTransformer{}, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		contains   string
		excludes   string
	}{
		{"route name", "/welcome", http.StatusOK, `<P CLASS="X">HELLO</P>`, ""},
		{"filename", "/welcome.html", http.StatusOK, `<P CLASS="X">HELLO</P>`, ""},
		{"source prefix", "/src/reset.html", http.StatusOK, "<P>RESET</P>", ""},
		{"raw source", "/welcome?raw=1", http.StatusOK, `<p class="x">hello</p>`, "HELLO"},
		{"highlighted source", "/welcome?view=source", http.StatusOK, "&lt;", `<P CLASS="X">`},
		{"asset through source prefix", "/src/assets/logo.txt", http.StatusOK, "LOGO", ""},
		{"asset direct", "/assets/logo.txt", http.StatusOK, "LOGO", ""},
		{"unknown template", "/missing", http.StatusNotFound, "", ""},
		{"non-template file", "/src/notes.markdown", http.StatusNotFound, "", ""},
		{"missing asset", "/assets/none.png", http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, body := get(t, ts.URL+tt.path)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.contains != "" && !strings.Contains(body, tt.contains) {
				t.Errorf("body = %q, want substring %q", body, tt.contains)
			}
			if tt.excludes != "" && strings.Contains(body, tt.excludes) {
				t.Errorf("body = %q, must not contain %q", body, tt.excludes)
			}
		})
	}
}

func TestServer_StageHeaders(t *testing.T) {
	t.Parallel()

	srcDir, _ := setupProject(t)
	ts := httptest.NewServer(New(Config{SourceDir: srcDir}, upperTransformer{}, nil).Handler())
	defer ts.Close()

	resp, _ := get(t, ts.URL+"/welcome")
	if got := resp.Header.Get(HeaderStage); got != "minified" {
		t.Errorf("%s = %q, want %q", HeaderStage, got, "minified")
	}
	if got := resp.Header.Get(HeaderIssues); got != "0" {
		t.Errorf("%s = %q, want %q", HeaderIssues, got, "0")
	}
}

func TestServer_Index(t *testing.T) {
	t.Parallel()

	srcDir, _ := setupProject(t)
	ts := httptest.NewServer(New(Config{SourceDir: srcDir}, upperTransformer{}, nil).Handler())
	defer ts.Close()

	resp, body := get(t, ts.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{`href="/reset"`, `href="/welcome"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %s: %s", want, body)
		}
	}
}

func TestServer_PicksUpNewTemplates(t *testing.T) {
	t.Parallel()

	srcDir, _ := setupProject(t)
	ts := httptest.NewServer(New(Config{SourceDir: srcDir}, upperTransformer{}, nil).Handler())
	defer ts.Close()

	if resp, _ := get(t, ts.URL+"/later"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status before create = %d, want 404", resp.StatusCode)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "later.html"), []byte("new"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	resp, body := get(t, ts.URL+"/later")
	if resp.StatusCode != http.StatusOK || body != "NEW" {
		t.Errorf("after create: status %d body %q", resp.StatusCode, body)
	}
}

func TestServer_WithBuilder(t *testing.T) {
	t.Parallel()

	srcDir, _ := setupProject(t)
	if err := os.WriteFile(filepath.Join(srcDir, "styled.html"),
		[]byte(`<style>.lead{color:red}</style><p class="lead">Hi</p>`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	b, err := mailinline.NewBuilder()
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	defer b.Close()

	ts := httptest.NewServer(New(Config{SourceDir: srcDir}, b, nil).Handler())
	defer ts.Close()

	_, body := get(t, ts.URL+"/styled")
	if strings.Contains(body, "<style") {
		t.Errorf("style block should be inlined: %s", body)
	}
	if !strings.Contains(strings.ReplaceAll(body, " ", ""), "color:red") {
		t.Errorf("inline style missing: %s", body)
	}
}

func TestServer_URLs(t *testing.T) {
	t.Parallel()

	srcDir, _ := setupProject(t)
	urls, err := New(Config{SourceDir: srcDir}, upperTransformer{}, nil).URLs("http://localhost:5173")
	if err != nil {
		t.Fatalf("URLs() error = %v", err)
	}
	want := []string{"http://localhost:5173/reset", "http://localhost:5173/welcome"}
	if len(urls) != len(want) {
		t.Fatalf("URLs() = %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("URLs()[%d] = %q, want %q", i, urls[i], want[i])
		}
	}

	if _, err := New(Config{SourceDir: filepath.Join(srcDir, "nope")}, upperTransformer{}, nil).URLs(""); err == nil {
		t.Error("URLs() on missing dir should fail")
	}
}

// ---------------------------------------------------------------------------
// TestServer_ListenAndServe
// ---------------------------------------------------------------------------

func TestServer_ListenAndServe(t *testing.T) {
	t.Parallel()

	srcDir, _ := setupProject(t)
	srv := New(Config{Host: "127.0.0.1", SourceDir: srcDir}, upperTransformer{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, func(addr string) { addrCh <- addr })
	}()

	var addr string
	select {
	case addr = <-addrCh:
	case err := <-errCh:
		t.Fatalf("ListenAndServe() returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	if resp, _ := get(t, "http://"+addr+"/welcome"); resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("ListenAndServe() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_ListenAndServe_PortInUse(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	host, port, err := net.SplitHostPort(strings.TrimPrefix(ts.URL, "http://"))
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		t.Fatalf("Atoi: %v", err)
	}

	srv := New(Config{Host: host, Port: p, SourceDir: t.TempDir()}, upperTransformer{}, nil)
	if err := srv.ListenAndServe(context.Background(), nil); !errors.Is(err, ErrListen) {
		t.Errorf("ListenAndServe() error = %v, want %v", err, ErrListen)
	}
}
