package pipeline

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/insts"
)

// WritebackStage commits the architectural effect of one instruction.
// It holds no per-instruction state.
type WritebackStage struct {
	log   *logrus.Logger
	probe ProbePolicy
}

// WritebackOption is a functional option for configuring the WritebackStage.
type WritebackOption func(*WritebackStage)

// WithLogger sets the logger used for debug tracing.
func WithLogger(l *logrus.Logger) WritebackOption {
	return func(s *WritebackStage) {
		s.log = l
	}
}

// WithProbePolicy sets when the diagnostic bus read is performed.
func WithProbePolicy(p ProbePolicy) WritebackOption {
	return func(s *WritebackStage) {
		s.probe = p
	}
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(opts ...WritebackOption) *WritebackStage {
	s := &WritebackStage{probe: ProbeNone}
	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logrus.New()
		s.log.SetOutput(io.Discard)
	}

	return s
}

// ProbePolicy returns the configured probe policy.
func (s *WritebackStage) ProbePolicy() ProbePolicy {
	return s.probe
}

// Writeback applies the final-stage effects of one instruction.
//
// The CSR named by decode.CSR is read before anything is written, and the
// CSR write happens before rd is written, so CSR instructions return the
// value the register held before this instruction. A failed load or store
// returns a *MemoryFaultError and commits nothing.
func (s *WritebackStage) Writeback(
	decode DecodeResult,
	execute ExecuteResult,
	regs RegisterFile,
	csrs CSRFile,
	bus MemoryBus,
) error {
	op := decode.Opcode
	addr := execute.ALUOut

	if s.probe.applies(op) {
		s.probeBus(op, addr, bus)
	}

	csrData := csrs.Read(decode.CSR)

	switch op {
	case insts.OpCSRRW:
		csrs.Write(decode.CSR, decode.Rs1Data)
	case insts.OpCSRRWI:
		csrs.Write(decode.CSR, decode.ImmZ)
	case insts.OpCSRRS:
		csrs.Write(decode.CSR, csrData|decode.Rs1Data)
	case insts.OpCSRRSI:
		csrs.Write(decode.CSR, csrData|decode.ImmZ)
	case insts.OpCSRRC:
		csrs.Write(decode.CSR, csrData&^decode.Rs1Data)
	case insts.OpCSRRCI:
		csrs.Write(decode.CSR, csrData&^decode.ImmZ)
	}

	switch op {
	case insts.OpLB, insts.OpLH, insts.OpLW, insts.OpLBU, insts.OpLHU:
		value, err := load(op, addr, bus)
		if err != nil {
			return s.fault(op, addr, err)
		}
		regs.Write(decode.Rd, value)
		s.traceReg(op, decode.Rd, value)

	case insts.OpSB, insts.OpSH, insts.OpSW:
		if err := store(op, addr, decode.Rs2Data, bus); err != nil {
			return s.fault(op, addr, err)
		}
		s.traceStore(op, addr, decode.Rs2Data)

	case insts.OpBEQ, insts.OpBNE, insts.OpBLT, insts.OpBGE, insts.OpBLTU, insts.OpBGEU:
		// Resolved in execute.

	case insts.OpCSRRW, insts.OpCSRRWI, insts.OpCSRRS, insts.OpCSRRSI, insts.OpCSRRC, insts.OpCSRRCI:
		regs.Write(decode.Rd, csrData)
		s.traceReg(op, decode.Rd, csrData)

	case insts.OpECALL:
		csrs.Write(insts.CSRMcause, insts.CauseEnvCallFromM)
		s.log.WithField("cause", insts.CauseEnvCallFromM).Debug("writeback: ecall")

	case insts.OpMRET:
		// Privilege return is not modeled; mepc and mstatus are untouched.

	case insts.OpFENCE:
		// Accesses complete in program order, so there is nothing to order.

	default:
		regs.Write(decode.Rd, execute.ALUOut)
		s.traceReg(op, decode.Rd, execute.ALUOut)
	}

	return nil
}

// load reads memory with the width and extension implied by op.
func load(op insts.Op, addr uint32, bus MemoryBus) (uint32, error) {
	switch op {
	case insts.OpLB:
		v, err := bus.Read8(addr)
		return uint32(int32(int8(v))), err
	case insts.OpLBU:
		v, err := bus.Read8(addr)
		return uint32(v), err
	case insts.OpLH:
		v, err := bus.Read16(addr)
		return uint32(int32(int16(v))), err
	case insts.OpLHU:
		v, err := bus.Read16(addr)
		return uint32(v), err
	default:
		return bus.Read32(addr)
	}
}

// store writes the low bytes of value with the width implied by op.
func store(op insts.Op, addr, value uint32, bus MemoryBus) error {
	switch op {
	case insts.OpSB:
		return bus.Write8(addr, uint8(value))
	case insts.OpSH:
		return bus.Write16(addr, uint16(value))
	default:
		return bus.Write32(addr, value)
	}
}

func (s *WritebackStage) fault(op insts.Op, addr uint32, err error) error {
	fault := &MemoryFaultError{
		Opcode: op,
		Addr:   addr,
		Width:  op.Width(),
		Write:  op.IsStore(),
		Err:    err,
	}
	s.log.WithError(err).WithFields(logrus.Fields{
		"op":   op.String(),
		"addr": hex32(addr),
	}).Debug("writeback: memory fault")
	return fault
}

// probeBus performs the diagnostic read. Its outcome never affects the
// instruction.
func (s *WritebackStage) probeBus(op insts.Op, addr uint32, bus MemoryBus) {
	data, err := bus.Read32(addr)
	if !s.log.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	entry := s.log.WithFields(logrus.Fields{
		"op":   op.String(),
		"addr": hex32(addr),
	})
	if err != nil {
		entry.WithError(err).Debug("writeback: probe")
		return
	}
	entry.WithField("data", hex32(data)).Debug("writeback: probe")
}

func (s *WritebackStage) traceReg(op insts.Op, rd uint8, value uint32) {
	if !s.log.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	s.log.WithFields(logrus.Fields{
		"op":    op.String(),
		"rd":    rd,
		"value": hex32(value),
	}).Debug("writeback")
}

func (s *WritebackStage) traceStore(op insts.Op, addr, value uint32) {
	if !s.log.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	s.log.WithFields(logrus.Fields{
		"op":    op.String(),
		"addr":  hex32(addr),
		"value": hex32(value),
	}).Debug("writeback")
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08x", v)
}
