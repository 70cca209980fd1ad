package emu

import (
	"errors"
	"fmt"
)

var (
	// ErrUnmapped indicates an access outside every mapped region.
	ErrUnmapped = errors.New("unmapped address")
	// ErrMisaligned indicates an access not aligned to its width.
	ErrMisaligned = errors.New("misaligned access")
	// ErrReadOnly indicates a write to a read-only device.
	ErrReadOnly = errors.New("read-only device")
	// ErrOutOfRange indicates a device offset beyond the device size.
	ErrOutOfRange = errors.New("offset out of range")
	// ErrOverlap indicates a region that overlaps an existing mapping.
	ErrOverlap = errors.New("region overlaps existing mapping")
)

// BusError describes a failed bus access.
type BusError struct {
	Addr  uint32
	Width int
	Write bool
	Err   error
}

func (e *BusError) Error() string {
	dir := "read"
	if e.Write {
		dir = "write"
	}
	return fmt.Sprintf("bus %s%d at 0x%08X: %v", dir, e.Width*8, e.Addr, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}
