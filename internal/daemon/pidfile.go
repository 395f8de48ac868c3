// Package daemon manages the touch driver's single-instance lifecycle: the
// PID file at /tmp/pytouchd.pid, start/stop/status/zombie actions, signal
// handling and the shutdown ordering that every exit path must follow.
package daemon

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// Path is the PID file location, matching the original driver's hard-coded
// /tmp/pytouchd.pid by default. Tests point it at a temporary file.
var Path = "/tmp/pytouchd.pid"

// Exit codes, per the CLI's documented contract.
const (
	ExitOK                = 0
	ExitNotRootOrNoDaemon = 1
	ExitAlreadyRunning    = 2
	ExitCannotCreatePID   = 3
	ExitNoReason          = 255
)

// readPID returns the PID recorded in the PID file, or an error if the file
// is absent or malformed.
func readPID() (int, error) {
	raw, err := os.ReadFile(Path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("daemon: malformed pidfile: %w", err)
	}
	return pid, nil
}

// processAlive reports whether pid names a live process, using the
// kill(pid, 0) probe (no signal delivered, only existence/permission
// checked).
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}

// exists reports whether the PID file is present.
func exists() bool {
	_, err := os.Stat(Path)
	return err == nil
}

// remove deletes the PID file, ignoring a not-exist error.
func remove() error {
	err := os.Remove(Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// write creates the PID file, mode 0666, containing the given PID in
// decimal.
func write(pid int) error {
	return os.WriteFile(Path, []byte(strconv.Itoa(pid)), 0666)
}
