package pipeline_test

import (
	"github.com/sarchlab/rv32sim/emu"
)

const (
	ramBase = 0x0000
	ramSize = 0x10000
)

// newRAMBus returns a bus with 64KB of RAM mapped at address 0.
func newRAMBus() (*emu.Bus, *emu.Memory) {
	ram := emu.NewMemory(ramSize)
	bus := emu.NewBus()
	if err := bus.Map("ram", ramBase, ramSize, ram); err != nil {
		panic(err)
	}
	return bus, ram
}

// probeCounter counts bus reads while delegating to a real bus.
type probeCounter struct {
	*emu.Bus
	reads32 int
}

func (p *probeCounter) Read32(addr uint32) (uint32, error) {
	p.reads32++
	return p.Bus.Read32(addr)
}
