package pipeline

import (
	"errors"
	"fmt"

	"github.com/sarchlab/rv32sim/insts"
)

// ErrMemoryFault matches every MemoryFaultError via errors.Is.
var ErrMemoryFault = errors.New("writeback memory fault")

// MemoryFaultError reports a load or store that failed on the bus. The
// instruction has not committed anything when this error is returned.
type MemoryFaultError struct {
	Opcode insts.Op
	Addr   uint32
	Width  int
	Write  bool
	Err    error
}

func (e *MemoryFaultError) Error() string {
	dir := "load"
	if e.Write {
		dir = "store"
	}
	return fmt.Sprintf("%v: %s of %d bytes at 0x%08X: %v", e.Opcode, dir, e.Width, e.Addr, e.Err)
}

func (e *MemoryFaultError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrMemoryFault.
func (e *MemoryFaultError) Is(target error) bool {
	return target == ErrMemoryFault
}
