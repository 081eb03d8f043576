//go:build windows

package main

import "os"

// shutdownSignals lists what Windows can deliver; there is no SIGTERM.
var shutdownSignals = []os.Signal{os.Interrupt}
