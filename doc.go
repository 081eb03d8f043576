// Package mailinline turns a directory of HTML email templates into
// self-contained documents that survive email clients.
//
// # Quick Start
//
// Create a builder, build a directory, and close when done:
//
//	b, err := mailinline.NewBuilder()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	report, err := b.Build(ctx, "src", "dist")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, doc := range report.Documents {
//	    fmt.Println(doc.OutputPath, doc.Stage, len(doc.Issues))
//	}
//
// # Build Pipeline
//
// Every template moves through the same stages, strictly in order:
//
//  1. Image inlining: local png/jpeg/webp references are resized to fit the
//     maximum dimension, re-encoded, and replaced with base64 data URIs
//  2. Style inlining: <style> rules are applied to matching elements as style
//     attributes, custom properties are resolved, then <style> blocks and
//     class attributes are removed
//  3. Minification: whitespace, comments, embedded CSS/JS, attribute quotes
//  4. Emission: the artifact is written to the output directory
//
// Each stage degrades to passthrough for the unit it failed on (one image or
// one document stage) and records an Issue. A document that fails outright
// is reported with ErrUnexpectedDocument; its siblings are unaffected.
//
// # Configuration
//
// Use functional options to customize the builder:
//
//	b, err := mailinline.NewBuilder(
//	    mailinline.WithImageOptions(mailinline.ImageOptions{MaxDimension: 800, Quality: 75}),
//	    mailinline.WithBaseStyle("email-reset"),
//	    mailinline.WithWorkers(4),
//	    mailinline.WithLogger(slog.Default()),
//	)
//
// # Single Documents
//
// Transform runs the pipeline on one in-memory document without touching the
// output directory, which is what the preview server uses:
//
//	res := b.Transform(ctx, mailinline.Template{Path: "src/welcome.html"}, html)
//
// # Snapshots
//
// WithSnapshotter(NewRodSnapshotter(600, 0)) renders a PNG of every artifact in
// headless Chrome. Set ROD_BROWSER_BIN to use a pre-installed browser and
// ROD_NO_SANDBOX=1 in containers.
package mailinline
