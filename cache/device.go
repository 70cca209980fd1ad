package cache

import (
	"fmt"

	"github.com/sarchlab/rv32sim/emu"
)

// Device exposes a Cache as a bus device. Offsets are passed through to the
// cache unchanged, so the cache shares the backing device's offset space.
type Device struct {
	cache *Cache
}

// NewDevice wraps c so it can be mapped on an emu.Bus.
func NewDevice(c *Cache) *Device {
	return &Device{cache: c}
}

// Cache returns the wrapped cache.
func (d *Device) Cache() *Cache {
	return d.cache
}

func (d *Device) check(offset uint32, width int) error {
	bs := uint64(d.cache.config.BlockSize)
	if uint64(offset)%bs+uint64(width) > bs {
		return fmt.Errorf("0x%X+%d crosses a cache line: %w", offset, width, emu.ErrMisaligned)
	}
	return nil
}

// Read implements emu.Device.
func (d *Device) Read(offset uint32, width int) (uint32, error) {
	if err := d.check(offset, width); err != nil {
		return 0, err
	}
	res, err := d.cache.Read(offset, width)
	if err != nil {
		return 0, err
	}
	return res.Data, nil
}

// Write implements emu.Device.
func (d *Device) Write(offset uint32, width int, value uint32) error {
	if err := d.check(offset, width); err != nil {
		return err
	}
	_, err := d.cache.Write(offset, width, value)
	return err
}
