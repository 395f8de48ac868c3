package device

import "fmt"

// Pool is a fixed-size pool of emulated devices, indexed by contact id. It
// exclusively owns every Device; callers only ever borrow slots by index.
type Pool struct {
	devices []*Device
}

// NewPool creates size emulated devices eagerly, registering each one with
// the kernel. On any failure the devices created so far are closed and the
// error is returned, since a kernel device registration failure is fatal.
func NewPool(size int) (*Pool, error) {
	p := &Pool{devices: make([]*Device, 0, size)}
	for i := 0; i < size; i++ {
		d, err := newDevice(i)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("device: creating slot %d: %w", i, err)
		}
		p.devices = append(p.devices, d)
	}
	return p, nil
}

// Size returns the number of device slots in the pool.
func (p *Pool) Size() int { return len(p.devices) }

// At returns the device owning contact slot i.
func (p *Pool) At(i int) OutputDevice { return p.devices[i] }

// ReleaseAll releases every device's currently-held key, ignoring devices
// that hold nothing.
func (p *Pool) ReleaseAll() error {
	for _, d := range p.devices {
		if err := d.Release(0); err != nil {
			return err
		}
	}
	return nil
}

// Close unregisters every device in the pool. It keeps going even if one
// device fails to close, returning the first error encountered.
func (p *Pool) Close() error {
	var first error
	for _, d := range p.devices {
		if err := d.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
