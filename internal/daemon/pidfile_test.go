package daemon

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func withTempPath(t *testing.T) string {
	t.Helper()
	orig := Path
	dir := t.TempDir()
	Path = filepath.Join(dir, "touchd.pid")
	t.Cleanup(func() { Path = orig })
	return Path
}

func TestClaimWritesPidfile(t *testing.T) {
	withTempPath(t)
	code, err := Claim()
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if code != ExitOK {
		t.Errorf("code = %d, want ExitOK", code)
	}
	pid, err := readPID()
	if err != nil {
		t.Fatalf("readPID: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("pidfile contains %d, want %d", pid, os.Getpid())
	}
}

func TestClaimRefusesWhileAlive(t *testing.T) {
	withTempPath(t)
	if err := write(os.Getpid()); err != nil {
		t.Fatalf("write: %v", err)
	}
	code, err := Claim()
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if code != ExitAlreadyRunning {
		t.Errorf("code = %d, want ExitAlreadyRunning", code)
	}
}

func TestClaimReplacesStalePidfile(t *testing.T) {
	withTempPath(t)
	// PID 1 is never our own process, but may or may not be "alive" as
	// seen from an unprivileged test process; use a PID far outside any
	// plausible live range instead so processAlive reliably reports dead.
	if err := write(999999); err != nil {
		t.Fatalf("write: %v", err)
	}
	code, err := Claim()
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if code != ExitOK {
		t.Errorf("code = %d, want ExitOK after replacing a stale pidfile", code)
	}
	pid, err := readPID()
	if err != nil {
		t.Fatalf("readPID: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("pidfile contains %d, want %d", pid, os.Getpid())
	}
}

func TestStopWithNoDaemon(t *testing.T) {
	withTempPath(t)
	code, err := Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if code != ExitNotRootOrNoDaemon {
		t.Errorf("code = %d, want ExitNotRootOrNoDaemon", code)
	}
}

func TestStatusNoPidfile(t *testing.T) {
	withTempPath(t)
	if err := Status(true); err != nil {
		t.Fatalf("Status: %v", err)
	}
}

func TestStatusRemovesStaleAsRoot(t *testing.T) {
	withTempPath(t)
	if err := write(999999); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Status(true); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if exists() {
		t.Error("expected Status(true) to remove a stale pidfile")
	}
}

func TestStatusKeepsStaleWithoutRoot(t *testing.T) {
	withTempPath(t)
	if err := write(999999); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Status(false); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !exists() {
		t.Error("expected Status(false) to leave the pidfile in place")
	}
}

func TestZombieRemovesExistingPidfile(t *testing.T) {
	withTempPath(t)
	if err := write(os.Getpid()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Zombie(); err != nil {
		t.Fatalf("Zombie: %v", err)
	}
	if exists() {
		t.Error("expected Zombie() to remove the pidfile")
	}
}

func TestZombieNoopWithoutPidfile(t *testing.T) {
	withTempPath(t)
	if err := Zombie(); err != nil {
		t.Fatalf("Zombie: %v", err)
	}
}

func TestReadPIDMalformed(t *testing.T) {
	p := withTempPath(t)
	if err := os.WriteFile(p, []byte("not-a-pid"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := readPID(); err == nil {
		t.Error("expected an error for a malformed pidfile")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	withTempPath(t)
	if err := write(4242); err != nil {
		t.Fatalf("write: %v", err)
	}
	pid, err := readPID()
	if err != nil {
		t.Fatalf("readPID: %v", err)
	}
	if pid != 4242 {
		t.Errorf("pid = %d, want 4242", pid)
	}
	if got := strconv.Itoa(pid); got != "4242" {
		t.Errorf("Itoa mismatch: %s", got)
	}
}
