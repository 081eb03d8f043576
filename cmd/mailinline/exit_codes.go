package main

import (
	"errors"
	"os"
	"slices"

	mailinline "github.com/alnah/go-mailinline"
	"github.com/alnah/go-mailinline/internal/assets"
	"github.com/alnah/go-mailinline/internal/config"
	"github.com/alnah/go-mailinline/internal/devserver"
	"github.com/alnah/go-mailinline/internal/scaffold"
)

// Process exit codes. Custom codes stay below 126.
const (
	ExitSuccess   = 0
	ExitGeneral   = 1 // anything unclassified, including cancellation
	ExitUsage     = 2 // flags, config, names, routes
	ExitIO        = 3 // source, output, or listen failures
	ExitBrowser   = 4 // snapshot browser
	ExitDocuments = 5 // at least one document failed outright
)

// exitClasses is checked in order; the first class matching err wins.
var exitClasses = []struct {
	code int
	errs []error
}{
	{ExitDocuments, []error{ErrDocumentsFailed}},
	{ExitBrowser, []error{
		mailinline.ErrBrowserConnect,
		mailinline.ErrPageCreate,
		mailinline.ErrPageLoad,
	}},
	{ExitIO, []error{
		os.ErrNotExist,
		os.ErrPermission,
		mailinline.ErrSourceDir,
		mailinline.ErrNoTemplates,
		mailinline.ErrOutputDir,
		mailinline.ErrReadTemplate,
		mailinline.ErrWriteArtifact,
		devserver.ErrListen,
	}},
	{ExitUsage, []error{
		ErrUsage,
		ErrUnknownCommand,
		config.ErrConfigNotFound,
		config.ErrConfigParse,
		config.ErrInvalidConfig,
		config.ErrFieldTooLong,
		mailinline.ErrInvalidMaxDimension,
		mailinline.ErrInvalidQuality,
		mailinline.ErrInvalidWorkers,
		mailinline.ErrStyleNotFound,
		mailinline.ErrInvalidAssetPath,
		mailinline.ErrDuplicateRoute,
		scaffold.ErrInvalidName,
		scaffold.ErrTemplateExists,
		assets.ErrTemplateNotFound,
		assets.ErrInvalidAssetName,
	}},
}

// exitCodeFor maps err to a process exit code through its wrap chain.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	for _, class := range exitClasses {
		if slices.ContainsFunc(class.errs, func(target error) bool { return errors.Is(err, target) }) {
			return class.code
		}
	}
	return ExitGeneral
}
