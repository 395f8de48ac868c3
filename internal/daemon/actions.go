package daemon

import (
	"fmt"
	"os"
	"syscall"
)

// Stop sends SIGTERM to the running daemon recorded in the PID file.
// Returns ExitOK on success, ExitNotRootOrNoDaemon if no daemon is running.
func Stop() (int, error) {
	if !exists() {
		fmt.Println("No daemon running!")
		return ExitNotRootOrNoDaemon, nil
	}
	pid, err := readPID()
	if err != nil {
		return ExitNotRootOrNoDaemon, err
	}
	fmt.Println("Stopping daemon...")
	proc, err := os.FindProcess(pid)
	if err != nil {
		return ExitNotRootOrNoDaemon, err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return ExitNotRootOrNoDaemon, err
	}
	return ExitOK, nil
}

// Status reports the PID file's presence and the recorded process's
// liveness, removing a stale file if the caller is root.
func Status(isRoot bool) error {
	if !exists() {
		fmt.Println("pidfile does not exist, the daemon is not running")
		return nil
	}
	fmt.Printf("pidfile %q exists\n", Path)
	pid, err := readPID()
	if err != nil {
		return err
	}
	switch {
	case processAlive(pid):
		fmt.Printf("process with pid %d exists!\n", pid)
	case isRoot:
		fmt.Printf("process with pid %d does not exist, removing pidfile\n", pid)
		return remove()
	default:
		fmt.Printf("process with pid %d does not exist!\n", pid)
	}
	return nil
}

// Zombie removes a stale PID file unconditionally. It does not start the
// daemon itself; cmd/touchd continues with a normal start after it returns,
// per the original driver's "zombie implies start" contract.
func Zombie() error {
	if exists() {
		return remove()
	}
	return nil
}

// Claim checks for a conflicting running instance and, if none is found,
// writes the PID file for the current process. It returns ExitAlreadyRunning
// if a live instance holds the file, ExitCannotCreatePID if the file could
// not be written.
func Claim() (int, error) {
	if exists() {
		pid, err := readPID()
		if err == nil && processAlive(pid) {
			fmt.Println("Daemon already running!")
			return ExitAlreadyRunning, nil
		}
		if err := remove(); err != nil {
			return ExitCannotCreatePID, err
		}
	}
	if err := write(os.Getpid()); err != nil {
		fmt.Println("Could not create PID file!")
		return ExitCannotCreatePID, err
	}
	if !exists() {
		fmt.Println("Could not create PID file!")
		return ExitCannotCreatePID, nil
	}
	return ExitOK, nil
}
