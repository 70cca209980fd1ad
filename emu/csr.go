package emu

import (
	"slices"

	"github.com/sarchlab/rv32sim/insts"
)

// CSRBank is a sparse bank of 32-bit control and status registers addressed
// by 12-bit CSR numbers. Registers that were never written read as 0.
type CSRBank struct {
	regs map[uint16]uint32
}

// NewCSRBank creates an empty CSR bank.
func NewCSRBank() *CSRBank {
	return &CSRBank{regs: make(map[uint16]uint32)}
}

// Read returns the value of a CSR. Only the low 12 bits of addr are used.
func (c *CSRBank) Read(addr uint16) uint32 {
	return c.regs[addr&insts.CSRAddrMask]
}

// Write sets the value of a CSR. Only the low 12 bits of addr are used.
func (c *CSRBank) Write(addr uint16, value uint32) {
	if c.regs == nil {
		c.regs = make(map[uint16]uint32)
	}
	c.regs[addr&insts.CSRAddrMask] = value
}

// Addresses returns the addresses of all CSRs that have been written, in
// ascending order.
func (c *CSRBank) Addresses() []uint16 {
	addrs := make([]uint16, 0, len(c.regs))
	for addr := range c.regs {
		addrs = append(addrs, addr)
	}
	slices.Sort(addrs)
	return addrs
}

// Reset clears every CSR.
func (c *CSRBank) Reset() {
	c.regs = make(map[uint16]uint32)
}
