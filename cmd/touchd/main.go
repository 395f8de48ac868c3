// Command touchd is the adaptive touch driver: it reads a raw HID byte
// stream from a multi-touch panel, decodes it into touch frames, recognises
// gestures, and drives a pool of emulated input devices via the kernel's
// uinput interface.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/ep12/pytouchd/internal/config"
	"github.com/ep12/pytouchd/internal/daemon"
	"github.com/ep12/pytouchd/internal/decoder"
	"github.com/ep12/pytouchd/internal/device"
	"github.com/ep12/pytouchd/internal/gesture"
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] {start|stop|status|zombie}\n", os.Args[0])
		flag.PrintDefaults()
	}
	devicePath := flag.String("device", "/dev/hidraw0", "path to the device, e.g. /dev/hidraw0")
	flag.StringVar(devicePath, "d", "/dev/hidraw0", "shorthand for --device")
	debug := flag.Bool("debug", false, "enable debug output")
	flag.BoolVar(debug, "D", false, "shorthand for --debug")
	configPath := flag.String("config", "touchd.ini", "specify an alternative config file")
	showConfig := flag.Bool("show-config", false, "show configuration details")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return daemon.ExitNotRootOrNoDaemon
	}
	action := flag.Arg(0)
	switch action {
	case "start", "stop", "status", "zombie":
	default:
		flag.Usage()
		return daemon.ExitNotRootOrNoDaemon
	}

	isRoot := os.Geteuid() == 0

	switch action {
	case "zombie":
		if err := daemon.Zombie(); err != nil {
			fmt.Printf("Error: %v\n", err)
			return daemon.ExitNotRootOrNoDaemon
		}
		action = "start"
	case "stop":
		code, err := daemon.Stop()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
		}
		return code
	case "status":
		if err := daemon.Status(isRoot); err != nil {
			fmt.Printf("Error: %v\n", err)
			return daemon.ExitNotRootOrNoDaemon
		}
		return daemon.ExitOK
	}

	// action == "start" from here.
	if !isRoot {
		fmt.Println("Must be root!")
		return daemon.ExitNotRootOrNoDaemon
	}

	if code, err := daemon.Claim(); code != daemon.ExitOK {
		if err != nil {
			fmt.Printf("Error: %v\n", err)
		}
		return code
	}

	return startDaemon(*devicePath, *configPath, *debug, *showConfig)
}

func startDaemon(devicePath, configPath string, debug, showConfig bool) int {
	logOut := io.Discard
	if debug {
		logOut = os.Stderr
	}
	logger := log.New(logOut, "touchd: ", log.LstdFlags)

	rdir := "."
	if exe, err := os.Executable(); err == nil {
		rdir = filepath.Dir(exe)
	}

	cfg, err := config.Load(rdir, configPath)
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		return daemon.ExitNoReason
	}
	if showConfig {
		fmt.Println(cfg)
	}

	screen := decoder.Size{W: cfg.GetSection("default", "pixW").Int(1920), H: cfg.GetSection("default", "pixH").Int(1080)}
	if screen.W == 0 || screen.H == 0 {
		screen = decoder.Size{W: 1920, H: 1080}
	}

	opt, err := gesture.BuildOptions(cfg, screen)
	if err != nil {
		fmt.Printf("Error in configuration: %v\n", err)
		return daemon.ExitNoReason
	}

	maxPoints := 8
	pool, err := device.NewPool(maxPoints)
	if err != nil {
		fmt.Printf("Error creating virtual devices: %v\n", err)
		return daemon.ExitNoReason
	}

	eng := gesture.NewEngine(pool, opt)
	dec := decoder.New(decoder.WithLogger(logger))

	if debug {
		logger.Printf("opening device %q", devicePath)
	}
	f, err := os.Open(devicePath)
	if err != nil {
		fmt.Printf("Error opening device: %v\n", err)
		_ = pool.Close()
		return daemon.ExitNoReason
	}
	defer f.Close()

	life := daemon.NewLifecycle(logger)
	return life.Run(f, dec, eng, pool)
}
