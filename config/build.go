package config

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/cache"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/pipeline"
)

// System is the state and stages assembled from a SystemConfig.
type System struct {
	Regs      *emu.XRegisters
	CSRs      *emu.CSRBank
	Bus       *emu.Bus
	Writeback *pipeline.WritebackStage

	// Memories holds the backing device of each region, by name.
	Memories map[string]*emu.Memory

	// DataCache is nil unless a region is cached.
	DataCache *cache.Cache
}

// Build validates the configuration and assembles a System. The logger's
// level is set from LogLevel; a nil logger disables tracing.
func (c *SystemConfig) Build(logger *logrus.Logger) (*System, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	probe, _ := pipeline.ParseProbePolicy(c.Probe)
	opts := []pipeline.WritebackOption{pipeline.WithProbePolicy(probe)}
	if logger != nil {
		level, _ := logrus.ParseLevel(c.LogLevel)
		logger.SetLevel(level)
		opts = append(opts, pipeline.WithLogger(logger))
	}

	sys := &System{
		Regs:      &emu.XRegisters{},
		CSRs:      emu.NewCSRBank(),
		Bus:       emu.NewBus(emu.WithMisalignedAccess(c.AllowMisaligned)),
		Writeback: pipeline.NewWritebackStage(opts...),
		Memories:  make(map[string]*emu.Memory, len(c.Memory)),
	}

	for _, r := range c.Memory {
		var memOpts []emu.MemoryOption
		if r.ReadOnly {
			memOpts = append(memOpts, emu.AsReadOnly())
		}
		memory := emu.NewMemory(r.Size, memOpts...)
		sys.Memories[r.Name] = memory

		var dev emu.Device = memory
		if r.Cached {
			sys.DataCache = cache.New(*c.DataCache, memory)
			dev = cache.NewDevice(sys.DataCache)
		}

		if err := sys.Bus.Map(r.Name, r.Base, r.Size, dev); err != nil {
			return nil, fmt.Errorf("failed to map region: %w", err)
		}
	}

	return sys, nil
}

// Step commits one decoded and executed instruction to the system state.
func (s *System) Step(decode pipeline.DecodeResult, execute pipeline.ExecuteResult) error {
	return s.Writeback.Writeback(decode, execute, s.Regs, s.CSRs, s.Bus)
}

// Flush writes back any dirty data cache lines.
func (s *System) Flush() error {
	if s.DataCache == nil {
		return nil
	}
	return s.DataCache.Flush()
}

// LoadProgram copies every segment of prog into the memory regions that
// contain it, zero-filling the part of a segment beyond its file data.
// Read-only regions accept image data. Each segment must fit in one region.
// Contents go straight to the backing memories, so call it before the first
// Step.
func (s *System) LoadProgram(prog *loader.Program) error {
	for _, seg := range prog.Segments {
		if err := s.loadSegment(seg); err != nil {
			return err
		}
	}
	return nil
}

func (s *System) loadSegment(seg loader.Segment) error {
	size := seg.MemSize
	if size < uint32(len(seg.Data)) {
		size = uint32(len(seg.Data))
	}

	for _, r := range s.Bus.Regions() {
		if seg.VirtAddr < r.Base || uint64(seg.VirtAddr-r.Base)+uint64(size) > uint64(r.Size) {
			continue
		}

		memory := s.Memories[r.Name]
		offset := seg.VirtAddr - r.Base
		if err := memory.Load(offset, seg.Data); err != nil {
			return fmt.Errorf("failed to load segment at 0x%08X: %w", seg.VirtAddr, err)
		}
		if bss := size - uint32(len(seg.Data)); bss > 0 {
			if err := memory.Load(offset+uint32(len(seg.Data)), make([]byte, bss)); err != nil {
				return fmt.Errorf("failed to clear segment at 0x%08X: %w", seg.VirtAddr, err)
			}
		}
		return nil
	}

	return fmt.Errorf("segment at 0x%08X (%d bytes): %w", seg.VirtAddr, size, emu.ErrUnmapped)
}
