package pipeline

import (
	"fmt"
	"strings"

	"github.com/sarchlab/rv32sim/insts"
)

// ProbePolicy selects when writeback performs a diagnostic 32-bit bus read
// at the execute result before committing the instruction. The read is
// visible to memory-mapped devices, so it is off unless asked for.
type ProbePolicy uint8

const (
	// ProbeNone never probes.
	ProbeNone ProbePolicy = iota
	// ProbeMemoryOps probes only for loads and stores.
	ProbeMemoryOps
	// ProbeAlways probes for every instruction.
	ProbeAlways
)

func (p ProbePolicy) String() string {
	switch p {
	case ProbeNone:
		return "none"
	case ProbeMemoryOps:
		return "memory"
	case ProbeAlways:
		return "always"
	default:
		return fmt.Sprintf("ProbePolicy(%d)", uint8(p))
	}
}

// ParseProbePolicy parses "none", "memory" or "always". The empty string
// means ProbeNone.
func ParseProbePolicy(s string) (ProbePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ProbeNone, nil
	case "memory":
		return ProbeMemoryOps, nil
	case "always":
		return ProbeAlways, nil
	default:
		return ProbeNone, fmt.Errorf("unknown probe policy %q", s)
	}
}

func (p ProbePolicy) applies(op insts.Op) bool {
	switch p {
	case ProbeAlways:
		return true
	case ProbeMemoryOps:
		return op.IsMemory()
	default:
		return false
	}
}
