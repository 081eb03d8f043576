// Package assets provides base stylesheets and starter layouts for email
// templates.
//
// A Library stacks an optional custom directory over the assets compiled
// into the binary:
//
//	{dir}/
//	├── styles/{name}.css       base stylesheet injected before style inlining
//	└── templates/{name}.html   starter layout used by scaffolding
//
// Lookups stop at the first layer holding the file, so a custom
// styles/email-reset.css replaces the built-in one. Names are restricted to
// [A-Za-z0-9_-], and reads from the custom directory go through os.Root so
// a symlink cannot pull in files from outside it.
package assets
