// Package device wraps the kernel virtual input device interface: it
// creates a fixed-size pool of emulated multi-touch devices, each backed by
// a /dev/uinput node, and translates gesture-level operations (press,
// release, move, scroll) into kernel input events.
//
// Device creation follows a raw-ioctl recipe (UI_SET_*BIT then
// UI_DEV_CREATE): github.com/bendahl/uinput models fixed device archetypes
// (Mouse, TouchPad, Keyboard) that cannot express one node advertising
// EV_KEY+EV_ABS+EV_REL+EV_MSC simultaneously, so we extend the manual
// recipe instead of adopting it. See DESIGN.md.
package device

import (
	"encoding/binary"
	"fmt"
	"os"
	"syscall"
	"time"
	"unsafe"

	evdev "github.com/gvalkov/golang-evdev"
	"golang.org/x/sys/unix"
)

const uinputMaxNameSize = 80

// uinput ioctl requests, from linux/uinput.h.
const (
	uiSetEVBit    = 0x40045564
	uiSetKeyBit   = 0x40045565
	uiSetRelBit   = 0x40045566
	uiSetAbsBit   = 0x40045567
	uiSetMscBit   = 0x40045568
	uiDevCreate   = 0x5501
	uiDevDestroy  = 0x5502
)

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type uinputUserDev struct {
	Name       [uinputMaxNameSize]byte
	ID         inputID
	EffectsMax uint32
	Absmax     [64]int32
	Absmin     [64]int32
	Absfuzz    [64]int32
	Absflat    [64]int32
}

type inputEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// capability is the advertised capability set every emulated device exposes.
type capability struct {
	keys []uint16
	abs  []absAxis
	rel  []uint16
	msc  []uint16
}

type absAxis struct {
	code       uint16
	min, max   int32
	fuzz, flat int32
}

// Capabilities is the minimum capability set the kernel must accept at
// device creation, per the touch driver's output contract.
var Capabilities = capability{
	keys: []uint16{
		evdev.BTN_MOUSE, evdev.BTN_RIGHT, evdev.BTN_MIDDLE, evdev.BTN_SIDE, evdev.BTN_WHEEL,
		evdev.KEY_ZOOM, evdev.KEY_ZOOMIN, evdev.KEY_ZOOMOUT, evdev.KEY_ZOOMRESET,
		evdev.KEY_LEFTCTRL, evdev.KEY_SLASH, evdev.KEY_RIGHTBRACE,
		evdev.KEY_LEFT, evdev.KEY_RIGHT, evdev.KEY_UP, evdev.KEY_DOWN,
	},
	abs: []absAxis{
		{code: evdev.ABS_X, min: 0, max: 1023},
		{code: evdev.ABS_Y, min: 0, max: 599},
	},
	rel: []uint16{evdev.REL_WHEEL, evdev.REL_HWHEEL},
	msc: []uint16{evdev.MSC_SCAN},
}

func ioctl(fd uintptr, request uintptr, val uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, request, val)
	if errno != 0 {
		return errno
	}
	return nil
}

func ioctlInt(fd uintptr, request uintptr, val int) error {
	return ioctl(fd, request, uintptr(val))
}

// createNode opens /dev/uinput, advertises Capabilities, registers the
// device with the given name and returns the open file handle.
func createNode(name string) (*os.File, error) {
	f, err := os.OpenFile("/dev/uinput", os.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("device: open /dev/uinput: %w", err)
	}
	fd := f.Fd()

	evBits := []int{int(evdev.EV_KEY), int(evdev.EV_ABS), int(evdev.EV_REL), int(evdev.EV_MSC), int(evdev.EV_SYN)}
	for _, ev := range evBits {
		if err := ioctlInt(fd, uiSetEVBit, ev); err != nil {
			f.Close()
			return nil, fmt.Errorf("device: set evbit %d: %w", ev, err)
		}
	}
	for _, key := range Capabilities.keys {
		if err := ioctlInt(fd, uiSetKeyBit, int(key)); err != nil {
			f.Close()
			return nil, fmt.Errorf("device: set keybit %d: %w", key, err)
		}
	}
	for _, rel := range Capabilities.rel {
		if err := ioctlInt(fd, uiSetRelBit, int(rel)); err != nil {
			f.Close()
			return nil, fmt.Errorf("device: set relbit %d: %w", rel, err)
		}
	}
	for _, msc := range Capabilities.msc {
		if err := ioctlInt(fd, uiSetMscBit, int(msc)); err != nil {
			f.Close()
			return nil, fmt.Errorf("device: set mscbit %d: %w", msc, err)
		}
	}
	for _, a := range Capabilities.abs {
		if err := ioctlInt(fd, uiSetAbsBit, int(a.code)); err != nil {
			f.Close()
			return nil, fmt.Errorf("device: set absbit %d: %w", a.code, err)
		}
	}

	var dev uinputUserDev
	copy(dev.Name[:], name)
	dev.ID = inputID{Bustype: 0x03, Vendor: 0x0001, Product: 0x0001, Version: 1}
	for _, a := range Capabilities.abs {
		dev.Absmin[a.code] = a.min
		dev.Absmax[a.code] = a.max
		dev.Absfuzz[a.code] = a.fuzz
		dev.Absflat[a.code] = a.flat
	}

	buf := (*[4096]byte)(unsafe.Pointer(&dev))[:unsafe.Sizeof(dev)]
	if _, err := f.Write(buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("device: write dev info: %w", err)
	}
	if err := ioctl(fd, uiDevCreate, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("device: dev create: %w", err)
	}

	time.Sleep(100 * time.Millisecond)
	return f, nil
}

func writeEvent(f *os.File, typ, code uint16, value int32) error {
	var tv syscall.Timeval
	if err := syscall.Gettimeofday(&tv); err != nil {
		return err
	}
	return binary.Write(f, binary.LittleEndian, inputEvent{Time: tv, Type: typ, Code: code, Value: value})
}

func syn(f *os.File) error {
	return writeEvent(f, evdev.EV_SYN, evdev.SYN_REPORT, 0)
}

func destroyNode(f *os.File) error {
	_ = ioctl(f.Fd(), uiDevDestroy, 0)
	return f.Close()
}
