package assets

import "errors"

var (
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")

	// ErrInvalidAssetName covers empty names and names with separators,
	// dots or other characters outside [A-Za-z0-9_-].
	ErrInvalidAssetName = errors.New("invalid asset name")

	// ErrInvalidBasePath means a custom asset directory is missing or not
	// a directory.
	ErrInvalidBasePath = errors.New("invalid asset directory")

	// ErrAssetRead wraps I/O failures, including symlinks that point outside
	// the asset directory.
	ErrAssetRead = errors.New("failed to read asset")
)
