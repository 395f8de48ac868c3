package daemon

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ep12/pytouchd/internal/decoder"
	"github.com/ep12/pytouchd/internal/device"
	"github.com/ep12/pytouchd/internal/gesture"
)

// Lifecycle drives the daemon's main read loop and records the reason the
// loop eventually stops, so every exit path (signal, pidfile removal,
// fatal read error) can share one shutdown sequence.
type Lifecycle struct {
	logger *log.Logger

	mu     sync.Mutex
	reason string
}

// NewLifecycle returns a Lifecycle that logs to logger (which may be
// io.Discard-backed).
func NewLifecycle(logger *log.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// ExitReason returns the recorded shutdown reason, or "" if none has been
// set yet.
func (l *Lifecycle) ExitReason() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reason
}

func (l *Lifecycle) setReasonIfEmpty(reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reason == "" {
		l.reason = reason
	}
}

// readByteWithTimeout reads one byte from f, returning ok=false if timeout
// elapses first. There is no portable way to cancel an in-flight blocking
// Read on a raw character device, so a timed-out read's goroutine is left
// to finish on its own; this replaces the original driver's SIGALRM-based
// interrupt, which Go has no equivalent in-process mechanism for.
func readByteWithTimeout(f *os.File, timeout time.Duration) (b byte, ok bool, err error) {
	type result struct {
		b   byte
		err error
	}
	ch := make(chan result, 1)
	go func() {
		buf := make([]byte, 1)
		_, rerr := f.Read(buf)
		ch <- result{b: buf[0], err: rerr}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			return 0, false, r.err
		}
		return r.b, true, nil
	case <-time.After(timeout):
		return 0, false, nil
	}
}

// Run owns the daemon's cooperative read loop: read one byte, feed the
// decoder, hand any completed frame to the gesture engine, repeat until a
// signal arrives, the PID file disappears, or a read fails. It always
// finishes with the fixed shutdown sequence (close every device, remove
// the PID file, report the exit reason) and returns the process exit code.
func (l *Lifecycle) Run(dev *os.File, dec *decoder.Decoder, eng *gesture.Engine, pool *device.Pool) int {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		sig, open := <-sigCh
		if !open {
			return
		}
		l.setReasonIfEmpty(fmt.Sprintf("STOP requested - %s", sig))
	}()

	for l.ExitReason() == "" {
		if !exists() {
			l.setReasonIfEmpty("STOP requested - pidfile deleted")
			break
		}

		b, ok, err := readByteWithTimeout(dev, time.Second)
		if err != nil {
			l.setReasonIfEmpty(fmt.Sprintf("FATAL: %v", err))
			break
		}
		if !ok {
			continue // read timeout: transient, per the error handling design
		}

		frame, complete := dec.Feed(b)
		if !complete {
			continue
		}
		if err := eng.Handle(frame); err != nil {
			l.logger.Printf("daemon: gesture handling error: %v", err)
		}
	}

	return l.shutdown(pool)
}

// shutdown runs the fixed ordering: close every virtual device, remove the
// PID file, print the exit reason.
func (l *Lifecycle) shutdown(pool *device.Pool) int {
	if err := pool.Close(); err != nil {
		l.logger.Printf("daemon: error closing devices: %v", err)
	}
	if err := remove(); err != nil {
		l.logger.Printf("daemon: error removing pidfile: %v", err)
	}

	reason := l.ExitReason()
	if reason == "" {
		fmt.Println("EXITING FOR NO APPARENT REASON!")
		return ExitNoReason
	}
	fmt.Println(reason)
	fmt.Println("Good-bye.")
	return ExitOK
}
