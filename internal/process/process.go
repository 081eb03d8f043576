// Package process tears down the headless browsers started for snapshots.
package process

import "github.com/go-rod/rod/lib/launcher"

// Reap stops the browser started by l, including the renderer and GPU
// helpers it spawned, and deletes its temporary profile directory.
func Reap(l *launcher.Launcher) {
	if l == nil {
		return
	}
	killTree(l.PID())
	l.Kill()
	l.Cleanup()
}
