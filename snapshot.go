package mailinline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-mailinline/internal/fileutil"
	"github.com/alnah/go-mailinline/internal/process"
)

// Snapshot defaults.
const (
	DefaultSnapshotWidth   = 600 // common email body width in CSS pixels
	DefaultSnapshotHeight  = 800
	DefaultSnapshotTimeout = 30 * time.Second
)

// Snapshotter renders emitted HTML to PNG bytes. Implementations must be safe
// for concurrent use.
type Snapshotter interface {
	Snapshot(ctx context.Context, htmlContent string) ([]byte, error)
	Close() error
}

// snapshotRenderer abstracts rendering from an HTML file to enable testing
// without a browser.
type snapshotRenderer interface {
	RenderFromFile(ctx context.Context, filePath string) ([]byte, error)
	Close() error
}

// Compile-time interface checks
var (
	_ Snapshotter      = (*RodSnapshotter)(nil)
	_ snapshotRenderer = (*rodRenderer)(nil)
)

// rodRenderer implements snapshotRenderer using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodRenderer struct {
	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	width    int
	timeout  time.Duration
}

// newRodRenderer creates a rodRenderer for the given viewport width.
func newRodRenderer(width int, timeout time.Duration) *rodRenderer {
	return &rodRenderer{width: width, timeout: timeout}
}

// ensureBrowser lazily connects to the browser. Callers hold r.mu.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	// Configure launcher
	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		process.Reap(l)
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.launcher = l
	r.browser = browser
	return nil
}

// Close releases browser resources and kills the browser process tree.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	process.Reap(r.launcher)
	r.launcher = nil
	return err
}

// RenderFromFile opens a local HTML file in headless Chrome and captures a
// full-page PNG at the configured viewport width.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string) ([]byte, error) {
	// Check context before starting
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	err := r.ensureBrowser()
	browser := r.browser
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             r.width,
		Height:            DefaultSnapshotHeight,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: setting viewport: %v", ErrPageLoad, err)
	}

	// Wait for page to load with timeout from context or default
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	// Check context after page load
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshot, err)
	}
	return img, nil
}

// RodSnapshotter renders HTML in headless Chrome via go-rod.
// The browser is launched on first use and shared by all callers.
// Pages are staged in a scratch directory that Close removes.
type RodSnapshotter struct {
	renderer snapshotRenderer

	scratchOnce sync.Once
	scratch     *fileutil.Scratch
	scratchErr  error
}

// NewRodSnapshotter creates a RodSnapshotter with the given viewport width.
// Non-positive values select DefaultSnapshotWidth and DefaultSnapshotTimeout.
func NewRodSnapshotter(width int, timeout time.Duration) *RodSnapshotter {
	if width <= 0 {
		width = DefaultSnapshotWidth
	}
	if timeout <= 0 {
		timeout = DefaultSnapshotTimeout
	}
	return &RodSnapshotter{renderer: newRodRenderer(width, timeout)}
}

// Snapshot stages htmlContent as a page file and renders it to PNG bytes.
func (s *RodSnapshotter) Snapshot(ctx context.Context, htmlContent string) ([]byte, error) {
	s.scratchOnce.Do(func() {
		s.scratch, s.scratchErr = fileutil.NewScratch()
	})
	if s.scratchErr != nil {
		return nil, s.scratchErr
	}

	page, err := s.scratch.WriteTemp("page-*.html", []byte(htmlContent))
	if err != nil {
		return nil, err
	}
	defer os.Remove(page)

	return s.renderer.RenderFromFile(ctx, page)
}

// Close releases browser resources and the staged pages.
func (s *RodSnapshotter) Close() error {
	var errs []error
	if s.renderer != nil {
		errs = append(errs, s.renderer.Close())
	}
	if s.scratch != nil {
		errs = append(errs, s.scratch.Remove())
	}
	return errors.Join(errs...)
}
