package config_test

import (
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/cache"
	"github.com/sarchlab/rv32sim/config"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/pipeline"
)

var _ = Describe("SystemConfig", func() {
	var c *config.SystemConfig

	BeforeEach(func() {
		c = config.DefaultConfig()
	})

	Describe("Defaults", func() {
		It("should validate", func() {
			Expect(c.Validate()).To(Succeed())
		})

		It("should map 1MB of RAM at 0 without probing", func() {
			Expect(c.Memory).To(HaveLen(1))
			Expect(c.Memory[0].Base).To(Equal(uint32(0)))
			Expect(c.Memory[0].Size).To(Equal(uint32(1 << 20)))
			Expect(c.Probe).To(Equal("none"))
			Expect(c.AllowMisaligned).To(BeFalse())
		})
	})

	Describe("Validate", func() {
		It("should reject an empty memory map", func() {
			c.Memory = nil
			Expect(c.Validate()).To(HaveOccurred())
		})

		It("should reject overlapping regions", func() {
			c.Memory = append(c.Memory, config.RegionConfig{Name: "mmio", Base: 0x80000, Size: 0x1000})
			Expect(c.Validate()).To(MatchError(ContainSubstring("overlaps")))
		})

		It("should reject duplicate names", func() {
			c.Memory = append(c.Memory, config.RegionConfig{Name: "ram", Base: 0x200000, Size: 0x1000})
			Expect(c.Validate()).To(MatchError(ContainSubstring("duplicate")))
		})

		It("should reject a cached region without a cache", func() {
			c.Memory[0].Cached = true
			Expect(c.Validate()).To(HaveOccurred())
		})

		It("should reject a cached read-only region", func() {
			dc := cache.DefaultL1DConfig()
			c.DataCache = &dc
			c.Memory[0].Cached = true
			c.Memory[0].ReadOnly = true
			Expect(c.Validate()).To(MatchError(ContainSubstring("read-only")))
		})

		It("should reject unknown policy and level names", func() {
			c.Probe = "sometimes"
			Expect(c.Validate()).To(HaveOccurred())

			c = config.DefaultConfig()
			c.LogLevel = "chatty"
			Expect(c.Validate()).To(HaveOccurred())
		})
	})

	Describe("Load and save", func() {
		It("should round-trip through a file", func() {
			dc := cache.DefaultL1DConfig()
			c.DataCache = &dc
			c.Memory[0].Cached = true
			c.Probe = "memory"
			path := filepath.Join(GinkgoT().TempDir(), "system.json")

			Expect(c.SaveConfig(path)).To(Succeed())
			loaded, err := config.LoadConfig(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(c))
		})

		It("should keep defaults for missing fields", func() {
			path := filepath.Join(GinkgoT().TempDir(), "partial.json")
			Expect(os.WriteFile(path, []byte(`{"probe":"always"}`), 0644)).To(Succeed())

			loaded, err := config.LoadConfig(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Probe).To(Equal("always"))
			Expect(loaded.Memory).To(Equal(config.DefaultConfig().Memory))
		})

		It("should report malformed files", func() {
			path := filepath.Join(GinkgoT().TempDir(), "bad.json")
			Expect(os.WriteFile(path, []byte(`{`), 0644)).To(Succeed())

			_, err := config.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})

		It("should report missing files", func() {
			_, err := config.LoadConfig(filepath.Join(GinkgoT().TempDir(), "none.json"))
			Expect(err).To(HaveOccurred())
		})
	})

	It("should clone deeply", func() {
		dc := cache.DefaultL1DConfig()
		c.DataCache = &dc

		clone := c.Clone()
		clone.Memory[0].Size = 4
		clone.DataCache.Size = 4

		Expect(c.Memory[0].Size).To(Equal(uint32(1 << 20)))
		Expect(c.DataCache.Size).To(Equal(16 * 1024))
	})

	Describe("Build", func() {
		It("should assemble a working system", func() {
			c.Memory = append(c.Memory, config.RegionConfig{
				Name: "rom", Base: 0x10000000, Size: 0x1000, ReadOnly: true,
			})

			sys, err := c.Build(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(sys.Bus.Regions()).To(HaveLen(2))
			Expect(sys.DataCache).To(BeNil())

			Expect(sys.Step(pipeline.DecodeResult{Opcode: insts.OpSW, Rs2Data: 0x12345678},
				pipeline.ExecuteResult{ALUOut: 0x1000})).To(Succeed())
			Expect(sys.Step(pipeline.DecodeResult{Opcode: insts.OpLW, Rd: 1},
				pipeline.ExecuteResult{ALUOut: 0x1000})).To(Succeed())
			Expect(sys.Regs.Read(1)).To(Equal(uint32(0x12345678)))

			err = sys.Step(pipeline.DecodeResult{Opcode: insts.OpSW},
				pipeline.ExecuteResult{ALUOut: 0x10000000})
			Expect(err).To(MatchError(emu.ErrReadOnly))
		})

		It("should put the data cache in front of a cached region", func() {
			dc := cache.DefaultL1DConfig()
			c.DataCache = &dc
			c.Memory[0].Cached = true

			sys, err := c.Build(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(sys.DataCache).NotTo(BeNil())

			Expect(sys.Step(pipeline.DecodeResult{Opcode: insts.OpSW, Rs2Data: 7},
				pipeline.ExecuteResult{ALUOut: 0x40})).To(Succeed())

			ram := sys.Memories["ram"]
			v, _ := ram.Read(0x40, 4)
			Expect(v).To(Equal(uint32(0)))

			Expect(sys.Flush()).To(Succeed())
			v, _ = ram.Read(0x40, 4)
			Expect(v).To(Equal(uint32(7)))
		})

		It("should honor the misaligned and probe policies", func() {
			c.AllowMisaligned = true
			c.Probe = "always"
			c.LogLevel = "debug"
			logger := logrus.New()
			logger.SetOutput(io.Discard)

			sys, err := c.Build(logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(logger.GetLevel()).To(Equal(logrus.DebugLevel))
			Expect(sys.Writeback.ProbePolicy()).To(Equal(pipeline.ProbeAlways))

			Expect(sys.Bus.Write32(0x101, 1)).To(Succeed())
		})

		It("should load program segments into their regions", func() {
			c.Memory = append(c.Memory, config.RegionConfig{
				Name: "rom", Base: 0x10000000, Size: 0x1000, ReadOnly: true,
			})
			sys, err := c.Build(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(sys.Bus.Write32(0x2004, 0xFFFFFFFF)).To(Succeed())

			Expect(sys.LoadProgram(&loader.Program{Segments: []loader.Segment{
				{VirtAddr: 0x10000000, Data: []byte{0x13, 0x00, 0x00, 0x00}},
				{VirtAddr: 0x2000, Data: []byte{0xFF}, MemSize: 8},
			}})).To(Succeed())

			Expect(sys.Step(pipeline.DecodeResult{Opcode: insts.OpLW, Rd: 1},
				pipeline.ExecuteResult{ALUOut: 0x10000000})).To(Succeed())
			Expect(sys.Regs.Read(1)).To(Equal(uint32(0x13)))

			Expect(sys.Step(pipeline.DecodeResult{Opcode: insts.OpLB, Rd: 2},
				pipeline.ExecuteResult{ALUOut: 0x2000})).To(Succeed())
			Expect(sys.Regs.Read(2)).To(Equal(uint32(0xFFFFFFFF)))

			w, _ := sys.Bus.Read32(0x2004)
			Expect(w).To(Equal(uint32(0)))
		})

		It("should reject segments outside every region", func() {
			sys, err := c.Build(nil)
			Expect(err).NotTo(HaveOccurred())

			err = sys.LoadProgram(&loader.Program{Segments: []loader.Segment{
				{VirtAddr: 0x80000000, Data: []byte{1}},
			}})
			Expect(err).To(MatchError(emu.ErrUnmapped))
		})

		It("should fail on an invalid configuration", func() {
			c.Memory = nil
			_, err := c.Build(nil)
			Expect(err).To(HaveOccurred())
		})
	})
})
