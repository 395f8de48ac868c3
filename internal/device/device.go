package device

import (
	"fmt"
	"os"

	evdev "github.com/gvalkov/golang-evdev"
)

// OutputDevice is the subset of Device's behaviour the gesture engine
// drives. It exists so tests can substitute an in-memory double for a real
// kernel device node.
type OutputDevice interface {
	Press(key uint16, value int32) error
	Release(key uint16) error
	Move(x, y int) error
	Scroll(amount int, horizontal bool) error
	State() (x, y int, heldKey uint16)
}

// Device wraps a single kernel virtual input device. Its retained state
// (x, y, currently-held key) lets release() omit an explicit key and lets
// callers query the last-known pointer position for distance checks.
type Device struct {
	id int
	f  *os.File

	x, y    int
	heldKey uint16
}

func newDevice(id int) (*Device, error) {
	f, err := createNode(fmt.Sprintf("pytouchd-emutouchdev-%d", id))
	if err != nil {
		return nil, err
	}
	return &Device{id: id, f: f}, nil
}

// ID returns the device's pool slot index.
func (d *Device) ID() int { return d.id }

// State returns the device's retained (x, y, held key) triple.
func (d *Device) State() (x, y int, heldKey uint16) { return d.x, d.y, d.heldKey }

func isValidKey(key uint16) bool {
	for _, k := range Capabilities.keys {
		if k == key {
			return true
		}
	}
	return false
}

// Press emits a key-down event. key defaults to BTN_MOUSE; value 2 means
// autorepeat rather than an initial press. key must be in the advertised
// capability set.
func (d *Device) Press(key uint16, value int32) error {
	if key == 0 {
		key = evdev.BTN_MOUSE
	}
	if !isValidKey(key) {
		return fmt.Errorf("device: keycode %d is not in the advertised capability set", key)
	}
	if err := writeEvent(d.f, evdev.EV_KEY, key, value); err != nil {
		return err
	}
	if err := syn(d.f); err != nil {
		return err
	}
	d.heldKey = key
	return nil
}

// Release emits a key-up event. If key is zero the currently-held key is
// released; it is a no-op if nothing is held.
func (d *Device) Release(key uint16) error {
	target := key
	if target == 0 {
		target = d.heldKey
		if target == 0 {
			return nil
		}
	}
	if err := writeEvent(d.f, evdev.EV_KEY, target, 0); err != nil {
		return err
	}
	if err := syn(d.f); err != nil {
		return err
	}
	if key == 0 || key == d.heldKey {
		d.heldKey = 0
	}
	return nil
}

// Move emits absolute ABS_X/ABS_Y events and updates the retained position.
func (d *Device) Move(x, y int) error {
	if err := writeEvent(d.f, evdev.EV_ABS, evdev.ABS_X, int32(x)); err != nil {
		return err
	}
	if err := writeEvent(d.f, evdev.EV_ABS, evdev.ABS_Y, int32(y)); err != nil {
		return err
	}
	if err := syn(d.f); err != nil {
		return err
	}
	d.x, d.y = x, y
	return nil
}

// Scroll emits a REL_WHEEL (or REL_HWHEEL, when horizontal is true) event.
func (d *Device) Scroll(amount int, horizontal bool) error {
	code := uint16(evdev.REL_WHEEL)
	if horizontal {
		code = evdev.REL_HWHEEL
	}
	if err := writeEvent(d.f, evdev.EV_REL, code, int32(amount)); err != nil {
		return err
	}
	return syn(d.f)
}

// Close unregisters the device node. Safe to call multiple times.
func (d *Device) Close() error {
	if d.f == nil {
		return nil
	}
	err := destroyNode(d.f)
	d.f = nil
	return err
}
