//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals stop a build between documents and drain the preview server.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
