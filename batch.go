package mailinline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-mailinline/internal/fileutil"
	"github.com/alnah/go-mailinline/internal/pipeline"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// StageSnapshot tags snapshot issues.
const StageSnapshot = "snapshot"

// Build transforms every template in srcDir and writes one artifact per
// template into outDir. Documents run in parallel; a failing document never
// stops its siblings. The returned error covers setup only (source dir,
// templates, routes, output dir) or cancellation; per-document outcomes are in
// the report. Cancellation is checked between documents.
func (b *Builder) Build(ctx context.Context, srcDir, outDir string) (*BuildReport, error) {
	start := time.Now()

	if !fileutil.DirExists(srcDir) {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceDir, srcDir)
	}

	templates, err := DiscoverTemplates(srcDir)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTemplates, srcDir)
	}

	routes, err := BuildRouteTable(templates)
	if err != nil {
		return nil, err
	}

	if sameDir(srcDir, outDir) {
		return nil, fmt.Errorf("%w: %s is the source directory", ErrOutputDir, outDir)
	}

	if err := b.prepareOutputDir(outDir); err != nil {
		return nil, err
	}

	b.logger.InfoContext(ctx, "build started",
		"source", srcDir,
		"output", outDir,
		"templates", len(templates),
		"workers", b.Workers())

	report := &BuildReport{
		Documents: b.buildAll(ctx, templates, outDir),
		Routes:    routes,
		Duration:  time.Since(start),
	}

	b.logger.InfoContext(ctx, "build finished",
		"documents", len(report.Documents),
		"failed", report.Failed(),
		"issues", report.Issues(),
		"duration", report.Duration.Round(time.Millisecond))

	return report, ctx.Err()
}

// buildAll fans documents out to a bounded set of workers. Results keep the
// order of templates.
func (b *Builder) buildAll(ctx context.Context, templates []Template, outDir string) []DocumentResult {
	concurrency := min(b.Workers(), len(templates))

	results := make([]DocumentResult, len(templates))
	var wg sync.WaitGroup
	jobs := make(chan int, len(templates))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = DocumentResult{Template: templates[idx], Err: ctx.Err()}
					continue
				}
				results[idx] = b.buildDocument(ctx, templates[idx], outDir)
			}
		}()
	}

	for i := range templates {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// buildDocument reads, transforms, and emits one template. Panics outside
// Transform are recovered here so the worker keeps going.
func (b *Builder) buildDocument(ctx context.Context, t Template, outDir string) (res DocumentResult) {
	start := time.Now()
	logger := b.logger.With("doc", t.Filename)

	defer func() {
		if r := recover(); r != nil {
			res.Template = t
			res.Err = fmt.Errorf("%w: %v", ErrUnexpectedDocument, r)
			res.Duration = time.Since(start)
			logger.ErrorContext(ctx, "document failed", "stage", res.Stage.String(), "error", res.Err)
		}
	}()

	content, err := os.ReadFile(t.Path) // #nosec G304 -- discovered path
	if err != nil {
		res = DocumentResult{Template: t, Err: fmt.Errorf("%w: %v", ErrReadTemplate, err)}
		logger.ErrorContext(ctx, "document failed", "stage", res.Stage.String(), "error", res.Err)
		res.Duration = time.Since(start)
		return res
	}

	res = b.Transform(ctx, t, string(content))
	res.OutputPath = filepath.Join(outDir, artifactName(t))

	// A recovered panic still emits the last good stage output.
	if err := fileutil.WriteFileAtomic(res.OutputPath, []byte(res.HTML), filePermissions); err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrWriteArtifact, err)
		logger.ErrorContext(ctx, "document failed", "stage", res.Stage.String(), "error", res.Err)
		res.Duration = time.Since(start)
		return res
	}
	if res.Err == nil {
		res.Stage = StageEmitted
	}

	if b.snapshotter != nil {
		b.snapshot(ctx, &res, outDir)
	}

	res.Duration = time.Since(start)
	logger.InfoContext(ctx, "document emitted",
		"output", res.OutputPath,
		"stage", res.Stage.String(),
		"issues", len(res.Issues))
	return res
}

// snapshot renders res.HTML to a PNG next to the artifact. Failures become
// issues and never fail the document.
func (b *Builder) snapshot(ctx context.Context, res *DocumentResult, outDir string) {
	png, err := b.snapshotter.Snapshot(ctx, res.HTML)
	if err == nil {
		pngPath := filepath.Join(outDir, res.Template.Route+".png")
		if err = fileutil.WriteFileAtomic(pngPath, png, filePermissions); err == nil {
			res.Snapshot = pngPath
			return
		}
	}

	issue := pipeline.Issue{Stage: StageSnapshot, Err: fmt.Errorf("%w: %w", ErrSnapshot, err)}
	res.Issues = append(res.Issues, issue)
	b.logger.WarnContext(ctx, "snapshot skipped", "doc", res.Template.Filename, "error", err)
}

// prepareOutputDir creates outDir and, when cleaning is enabled, removes
// artifacts left by previous builds. Only *.html and *.png files directly
// inside outDir are removed.
func (b *Builder) prepareOutputDir(outDir string) error {
	if err := os.MkdirAll(outDir, dirPermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputDir, err)
	}
	if !b.cfg.cleanOutput {
		return nil
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputDir, err)
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != TemplateExt && ext != ".png" {
			continue
		}
		if err := os.Remove(filepath.Join(outDir, e.Name())); err != nil {
			return fmt.Errorf("%w: removing stale %s: %v", ErrOutputDir, e.Name(), err)
		}
	}
	return nil
}

// sameDir reports whether a and b name the same directory.
func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
