// Package emu provides the architectural state of an RV32I hart: the integer
// register file, the CSR bank, and the memory bus with its devices.
package emu

// NumXRegs is the number of integer registers.
const NumXRegs = 32

// XRegisters represents the RV32I integer register file.
// Register x0 is hardwired to zero.
type XRegisters struct {
	x [NumXRegs]uint32
}

// Read reads a register value. Register 0 and out-of-range indices return 0.
func (r *XRegisters) Read(reg uint8) uint32 {
	if reg == 0 || reg >= NumXRegs {
		return 0
	}
	return r.x[reg]
}

// Write writes a value to a register. Writes to register 0 and to
// out-of-range indices are ignored.
func (r *XRegisters) Write(reg uint8, value uint32) {
	if reg == 0 || reg >= NumXRegs {
		return
	}
	r.x[reg] = value
}

// Snapshot returns a copy of all registers, x0 included.
func (r *XRegisters) Snapshot() [NumXRegs]uint32 {
	return r.x
}

// Reset clears all registers.
func (r *XRegisters) Reset() {
	r.x = [NumXRegs]uint32{}
}
