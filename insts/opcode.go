// Package insts provides RV32I instruction definitions used by the pipeline.
//
// Decoding of raw instruction words happens upstream; this package only
// names the opcodes a decoder can produce and groups them by the effect they
// have on the final pipeline stage.
//
// Usage:
//
//	op, err := insts.ParseOp("lbu")
//	fmt.Println(op, op.Class(), op.Width()) // LBU load 1
package insts

import (
	"fmt"
	"strings"
)

// Op identifies an RV32I instruction.
type Op uint8

//go:generate go tool stringer -type=Op -trimprefix=Op
const (
	OpUnknown Op = iota

	// Upper immediate and jumps.
	OpLUI
	OpAUIPC
	OpJAL
	OpJALR

	// Conditional branches.
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	// Loads.
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU

	// Stores.
	OpSB
	OpSH
	OpSW

	// Register-immediate arithmetic.
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI

	// Register-register arithmetic.
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND

	// System.
	OpFENCE
	OpECALL
	OpEBREAK
	OpMRET

	// Zicsr.
	OpCSRRW
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI
)

const opCount = int(OpCSRRCI) + 1

// Class groups opcodes by their writeback behavior.
type Class uint8

const (
	// ClassALU writes the execute result to rd.
	ClassALU Class = iota
	// ClassLoad reads memory at the effective address into rd.
	ClassLoad
	// ClassStore writes rs2 to memory at the effective address.
	ClassStore
	// ClassBranch has no effect at writeback.
	ClassBranch
	// ClassCSR performs a CSR read-modify-write.
	ClassCSR
	// ClassSystem covers ECALL, MRET and FENCE.
	ClassSystem
)

func (c Class) String() string {
	switch c {
	case ClassALU:
		return "alu"
	case ClassLoad:
		return "load"
	case ClassStore:
		return "store"
	case ClassBranch:
		return "branch"
	case ClassCSR:
		return "csr"
	case ClassSystem:
		return "system"
	default:
		return fmt.Sprintf("Class(%d)", uint8(c))
	}
}

// Class returns the writeback class of the opcode. Opcodes without a
// dedicated class, including OpUnknown and EBREAK, are ClassALU.
func (o Op) Class() Class {
	switch o {
	case OpLB, OpLH, OpLW, OpLBU, OpLHU:
		return ClassLoad
	case OpSB, OpSH, OpSW:
		return ClassStore
	case OpBEQ, OpBNE, OpBLT, OpBGE, OpBLTU, OpBGEU:
		return ClassBranch
	case OpCSRRW, OpCSRRS, OpCSRRC, OpCSRRWI, OpCSRRSI, OpCSRRCI:
		return ClassCSR
	case OpECALL, OpMRET, OpFENCE:
		return ClassSystem
	default:
		return ClassALU
	}
}

// IsLoad reports whether the opcode is a load.
func (o Op) IsLoad() bool { return o.Class() == ClassLoad }

// IsStore reports whether the opcode is a store.
func (o Op) IsStore() bool { return o.Class() == ClassStore }

// IsBranch reports whether the opcode is a conditional branch.
func (o Op) IsBranch() bool { return o.Class() == ClassBranch }

// IsCSR reports whether the opcode is a Zicsr instruction.
func (o Op) IsCSR() bool { return o.Class() == ClassCSR }

// IsMemory reports whether the opcode accesses memory at writeback.
func (o Op) IsMemory() bool { return o.IsLoad() || o.IsStore() }

// UsesImmediate reports whether a CSR opcode takes its operand from imm_z
// instead of rs1.
func (o Op) UsesImmediate() bool {
	return o == OpCSRRWI || o == OpCSRRSI || o == OpCSRRCI
}

// Width returns the access size in bytes for loads and stores, and 0 for
// every other opcode.
func (o Op) Width() int {
	switch o {
	case OpLB, OpLBU, OpSB:
		return 1
	case OpLH, OpLHU, OpSH:
		return 2
	case OpLW, OpSW:
		return 4
	default:
		return 0
	}
}

// SignExtends reports whether a load widens its value with the sign bit.
func (o Op) SignExtends() bool {
	return o == OpLB || o == OpLH
}

var opsByName = func() map[string]Op {
	m := make(map[string]Op, opCount)
	for i := 0; i < opCount; i++ {
		op := Op(i)
		m[op.String()] = op
	}
	return m
}()

// ParseOp returns the opcode named by a case-insensitive mnemonic.
func ParseOp(name string) (Op, error) {
	op, ok := opsByName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok || op == OpUnknown {
		return OpUnknown, fmt.Errorf("unknown opcode %q", name)
	}
	return op, nil
}

// MarshalText implements encoding.TextMarshaler.
func (o Op) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Op) UnmarshalText(text []byte) error {
	op, err := ParseOp(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}
