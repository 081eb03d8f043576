//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// killTree force-kills pid and its descendants.
func killTree(pid int) {
	if pid > 0 {
		_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
	}
}
