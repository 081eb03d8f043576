// Package hints attaches remediation text to setup errors.
//
// Hints depend on where mailinline runs: a browser launch failing inside a
// container needs different advice than one failing on a laptop. Detect
// gathers those facts once, and doctor reports the same Runtime it uses.
package hints

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Runtime describes the process surroundings that shape hints.
type Runtime struct {
	CI            bool
	Container     bool
	ContainerHint string // which signal identified the container
	NoSandbox     bool   // ROD_NO_SANDBOX=1
	BrowserBin    string // ROD_BROWSER_BIN
}

var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// dockerenv is the marker file Docker creates in every container.
var dockerenv = "/.dockerenv"

// Detect reads the runtime from getenv and well-known marker files.
func Detect(getenv func(string) string) Runtime {
	rt := Runtime{
		NoSandbox:  getenv("ROD_NO_SANDBOX") == "1",
		BrowserBin: getenv("ROD_BROWSER_BIN"),
	}
	for _, v := range ciVars {
		if getenv(v) != "" {
			rt.CI = true
			break
		}
	}

	switch {
	case getenv("MAILINLINE_CONTAINER") == "1":
		rt.Container, rt.ContainerHint = true, "MAILINLINE_CONTAINER=1"
	case fileExists(dockerenv):
		rt.Container, rt.ContainerHint = true, dockerenv
	case getenv("container") != "":
		rt.Container, rt.ContainerHint = true, "container="+getenv("container")
	case getenv("KUBERNETES_SERVICE_HOST") != "":
		rt.Container, rt.ContainerHint = true, "KUBERNETES_SERVICE_HOST"
	}
	return rt
}

// NeedsNoSandbox reports whether Chrome will likely refuse to start with its
// sandbox enabled.
func (rt Runtime) NeedsNoSandbox() bool {
	return (rt.CI || rt.Container) && !rt.NoSandbox
}

// Hint is a list of suggestions rendered on one line.
type Hint []string

// String renders h as "\n  hint: a; b", or "" when h is empty.
func (h Hint) String() string {
	if len(h) == 0 {
		return ""
	}
	return "\n  hint: " + strings.Join(h, "; ")
}

// hinted keeps the original error in the chain for errors.Is.
type hinted struct {
	err  error
	hint Hint
}

func (e *hinted) Error() string { return e.err.Error() + e.hint.String() }
func (e *hinted) Unwrap() error { return e.err }

// Attach returns err with h appended to its message. A nil err or an empty
// hint returns err unchanged.
func Attach(err error, h Hint) error {
	if err == nil || len(h) == 0 {
		return err
	}
	return &hinted{err: err, hint: h}
}

// BrowserConnect suggests how to get a snapshot browser running.
func BrowserConnect(rt Runtime) Hint {
	var h Hint
	if rt.NeedsNoSandbox() {
		h = append(h, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if rt.BrowserBin == "" {
		h = append(h, "set ROD_BROWSER_BIN to use custom Chrome")
	} else {
		h = append(h, fmt.Sprintf("check ROD_BROWSER_BIN (%s) is executable", rt.BrowserBin))
	}
	return append(h, "or build without --snapshots")
}

// ConfigNotFound suggests --config, plus the user config location when it
// is among the searched paths.
func ConfigNotFound(searched []string) Hint {
	h := Hint{"use --config /path/to/file.yaml"}
	for _, p := range searched {
		if strings.Contains(strings.ReplaceAll(p, `\`, "/"), "go-mailinline/") {
			h = append(h, "or create "+p)
			break
		}
	}
	return h
}

// SourceDir explains where templates are discovered.
func SourceDir(dir string) Hint {
	return Hint{"put *.html templates directly in " + dir + " (subdirectories are not scanned)"}
}

// OutputDir covers artifact directory creation failures.
func OutputDir(dir string) Hint {
	return Hint{"check the parent of " + dir + " exists and is writable"}
}

// Available lists the asset names that do exist.
func Available(available []string) Hint {
	if len(available) == 0 {
		return nil
	}
	return Hint{"available: " + strings.Join(available, ", ")}
}

// PortInUse suggests moving the preview server off a busy port.
func PortInUse(port int) Hint {
	next := "another port"
	if port > 0 && port < 65535 {
		next = "e.g. --port " + strconv.Itoa(port+1)
	}
	return Hint{"set PORT or use --port to pick " + next}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
