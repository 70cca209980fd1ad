package emu

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// Memory is a little-endian RAM or ROM device backed by an akita storage.
type Memory struct {
	storage  *mem.Storage
	size     uint32
	readOnly bool
}

// MemoryOption is a functional option for configuring a Memory.
type MemoryOption func(*Memory)

// AsReadOnly makes the device reject bus writes. Load still works.
func AsReadOnly() MemoryOption {
	return func(m *Memory) {
		m.readOnly = true
	}
}

// NewMemory creates a zero-filled memory device of size bytes.
func NewMemory(size uint32, opts ...MemoryOption) *Memory {
	m := &Memory{
		storage: mem.NewStorage(uint64(size)),
		size:    size,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Size returns the device size in bytes.
func (m *Memory) Size() uint32 {
	return m.size
}

// ReadOnly reports whether bus writes are rejected.
func (m *Memory) ReadOnly() bool {
	return m.readOnly
}

func (m *Memory) check(offset uint32, width int) error {
	switch width {
	case 1, 2, 4:
	default:
		return fmt.Errorf("unsupported access width %d", width)
	}
	if uint64(offset)+uint64(width) > uint64(m.size) {
		return fmt.Errorf("0x%X+%d: %w", offset, width, ErrOutOfRange)
	}
	return nil
}

// Read implements Device.
func (m *Memory) Read(offset uint32, width int) (uint32, error) {
	if err := m.check(offset, width); err != nil {
		return 0, err
	}

	data, err := m.storage.Read(uint64(offset), uint64(width))
	if err != nil {
		return 0, fmt.Errorf("storage read: %w", err)
	}

	switch width {
	case 1:
		return uint32(data[0]), nil
	case 2:
		return uint32(binary.LittleEndian.Uint16(data)), nil
	default:
		return binary.LittleEndian.Uint32(data), nil
	}
}

// Write implements Device.
func (m *Memory) Write(offset uint32, width int, value uint32) error {
	if m.readOnly {
		return ErrReadOnly
	}
	if err := m.check(offset, width); err != nil {
		return err
	}

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	if err := m.storage.Write(uint64(offset), buf[:width]); err != nil {
		return fmt.Errorf("storage write: %w", err)
	}
	return nil
}

// Load copies data into the device starting at offset, bypassing the
// read-only check. It is used to preload program images.
func (m *Memory) Load(offset uint32, data []byte) error {
	if uint64(offset)+uint64(len(data)) > uint64(m.size) {
		return fmt.Errorf("load of %d bytes at 0x%X: %w", len(data), offset, ErrOutOfRange)
	}
	if len(data) == 0 {
		return nil
	}
	if err := m.storage.Write(uint64(offset), data); err != nil {
		return fmt.Errorf("storage write: %w", err)
	}
	return nil
}
