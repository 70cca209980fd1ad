// Package pipeline provides the final stage of the per-instruction RV32I
// pipeline: it commits a decoded and executed instruction to the register
// file, the CSR bank and memory.
package pipeline

import "github.com/sarchlab/rv32sim/insts"

// DecodeResult holds the result of the decode stage.
type DecodeResult struct {
	Opcode insts.Op

	// Rd is the destination register index.
	Rd uint8

	// Source register values read from the register file.
	Rs1Data uint32
	Rs2Data uint32

	// ImmZ is the zero-extended 5-bit immediate of CSRR*I instructions.
	ImmZ uint32

	// CSR is the 12-bit CSR address.
	CSR uint16
}

// ExecuteResult holds the result of the execute stage.
type ExecuteResult struct {
	// ALUOut is the effective address for loads and stores, or the value
	// destined for rd.
	ALUOut uint32
}

// RegisterFile is the integer register file as seen by writeback.
// Write(0, _) must be a no-op and Read(0) must return 0.
type RegisterFile interface {
	Read(reg uint8) uint32
	Write(reg uint8, value uint32)
}

// CSRFile is the CSR bank as seen by writeback.
type CSRFile interface {
	Read(addr uint16) uint32
	Write(addr uint16, value uint32)
}

// MemoryBus is the memory interface used by loads and stores.
type MemoryBus interface {
	Read8(addr uint32) (uint8, error)
	Read16(addr uint32) (uint16, error)
	Read32(addr uint32) (uint32, error)
	Write8(addr uint32, value uint8) error
	Write16(addr uint32, value uint16) error
	Write32(addr uint32, value uint32) error
}
