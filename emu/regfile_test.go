package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
)

var _ = Describe("XRegisters", func() {
	var regs *emu.XRegisters

	BeforeEach(func() {
		regs = &emu.XRegisters{}
	})

	It("should start zeroed", func() {
		for i := uint8(0); i < emu.NumXRegs; i++ {
			Expect(regs.Read(i)).To(Equal(uint32(0)))
		}
	})

	It("should read back written values", func() {
		regs.Write(5, 0xDEADBEEF)
		regs.Write(31, 7)

		Expect(regs.Read(5)).To(Equal(uint32(0xDEADBEEF)))
		Expect(regs.Read(31)).To(Equal(uint32(7)))
	})

	It("should ignore writes to x0", func() {
		regs.Write(0, 0xFFFFFFFF)

		Expect(regs.Read(0)).To(Equal(uint32(0)))
		Expect(regs.Snapshot()[0]).To(Equal(uint32(0)))
	})

	It("should ignore out-of-range indices", func() {
		regs.Write(32, 1)
		regs.Write(0xFF, 1)

		Expect(regs.Read(32)).To(Equal(uint32(0)))
		Expect(regs.Snapshot()).To(Equal([emu.NumXRegs]uint32{}))
	})

	It("should clear on reset", func() {
		regs.Write(1, 1)
		regs.Reset()

		Expect(regs.Read(1)).To(Equal(uint32(0)))
	})
})
