// Package pipeline implements the per-document stages of the email build.
//
// Each stage takes a document string and returns a transformed string plus
// any locally recovered failure:
//   - Asset resolution (image references and their files on disk)
//   - Image inlining (re-encoded images as base64 data URIs)
//   - Base stylesheet injection
//   - Style inlining (stylesheet rules into style attributes)
//   - Minification
//
// Stages never fail a whole build. A stage that cannot do its work returns its
// input unchanged and an Issue describing why. Ordering and batching of
// documents is handled by the root mailinline package.
package pipeline
