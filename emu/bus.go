package emu

import (
	"fmt"
	"sort"
)

// Device is a memory-mapped target on the bus. Offsets are relative to the
// base of the region the device is mapped at. A device must either complete
// an access or leave its state untouched.
type Device interface {
	Read(offset uint32, width int) (uint32, error)
	Write(offset uint32, width int, value uint32) error
}

// Region is a mapped address range.
type Region struct {
	Name   string
	Base   uint32
	Size   uint32
	Device Device
}

// contains reports whether [addr, addr+width) lies inside the region.
func (r *Region) contains(addr uint32, width int) bool {
	if addr < r.Base {
		return false
	}
	off := uint64(addr - r.Base)
	return off+uint64(width) <= uint64(r.Size)
}

// Bus routes byte, half-word and word accesses to mapped devices.
type Bus struct {
	regions         []*Region
	allowMisaligned bool
}

// BusOption is a functional option for configuring the Bus.
type BusOption func(*Bus)

// WithMisalignedAccess allows accesses that are not naturally aligned.
// Such accesses must still fall within a single region.
func WithMisalignedAccess(allow bool) BusOption {
	return func(b *Bus) {
		b.allowMisaligned = allow
	}
}

// NewBus creates a bus with no mapped regions.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Map attaches a device to [base, base+size).
func (b *Bus) Map(name string, base, size uint32, dev Device) error {
	if size == 0 {
		return fmt.Errorf("region %q: size must be > 0", name)
	}
	if uint64(base)+uint64(size) > 1<<32 {
		return fmt.Errorf("region %q: 0x%08X+0x%X exceeds the 32-bit address space", name, base, size)
	}
	if dev == nil {
		return fmt.Errorf("region %q: nil device", name)
	}

	end := uint64(base) + uint64(size)
	for _, r := range b.regions {
		rEnd := uint64(r.Base) + uint64(r.Size)
		if uint64(base) < rEnd && uint64(r.Base) < end {
			return fmt.Errorf("region %q with %q: %w", name, r.Name, ErrOverlap)
		}
	}

	b.regions = append(b.regions, &Region{Name: name, Base: base, Size: size, Device: dev})
	sort.Slice(b.regions, func(i, j int) bool {
		return b.regions[i].Base < b.regions[j].Base
	})
	return nil
}

// Regions returns the mapped regions ordered by base address.
func (b *Bus) Regions() []Region {
	out := make([]Region, len(b.regions))
	for i, r := range b.regions {
		out[i] = *r
	}
	return out
}

// find returns the region holding addr, or nil.
func (b *Bus) find(addr uint32) *Region {
	i := sort.Search(len(b.regions), func(i int) bool {
		return b.regions[i].Base > addr
	})
	if i == 0 {
		return nil
	}
	return b.regions[i-1]
}

// route validates an access and returns the target region.
func (b *Bus) route(addr uint32, width int, write bool) (*Region, error) {
	if !b.allowMisaligned && addr%uint32(width) != 0 {
		return nil, &BusError{Addr: addr, Width: width, Write: write, Err: ErrMisaligned}
	}
	r := b.find(addr)
	if r == nil || !r.contains(addr, width) {
		return nil, &BusError{Addr: addr, Width: width, Write: write, Err: ErrUnmapped}
	}
	return r, nil
}

func (b *Bus) read(addr uint32, width int) (uint32, error) {
	r, err := b.route(addr, width, false)
	if err != nil {
		return 0, err
	}
	v, err := r.Device.Read(addr-r.Base, width)
	if err != nil {
		return 0, &BusError{Addr: addr, Width: width, Err: fmt.Errorf("%s: %w", r.Name, err)}
	}
	return v, nil
}

func (b *Bus) write(addr uint32, width int, value uint32) error {
	r, err := b.route(addr, width, true)
	if err != nil {
		return err
	}
	if err := r.Device.Write(addr-r.Base, width, value); err != nil {
		return &BusError{Addr: addr, Width: width, Write: true, Err: fmt.Errorf("%s: %w", r.Name, err)}
	}
	return nil
}

// Read8 reads a byte.
func (b *Bus) Read8(addr uint32) (uint8, error) {
	v, err := b.read(addr, 1)
	return uint8(v), err
}

// Read16 reads a little-endian half-word.
func (b *Bus) Read16(addr uint32) (uint16, error) {
	v, err := b.read(addr, 2)
	return uint16(v), err
}

// Read32 reads a little-endian word.
func (b *Bus) Read32(addr uint32) (uint32, error) {
	return b.read(addr, 4)
}

// Write8 writes a byte.
func (b *Bus) Write8(addr uint32, value uint8) error {
	return b.write(addr, 1, uint32(value))
}

// Write16 writes a little-endian half-word.
func (b *Bus) Write16(addr uint32, value uint16) error {
	return b.write(addr, 2, uint32(value))
}

// Write32 writes a little-endian word.
func (b *Bus) Write32(addr uint32, value uint32) error {
	return b.write(addr, 4, value)
}
