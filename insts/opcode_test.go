package insts_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("Op", func() {
	DescribeTable("Class",
		func(op insts.Op, class insts.Class) {
			Expect(op.Class()).To(Equal(class))
		},
		Entry("LB", insts.OpLB, insts.ClassLoad),
		Entry("LHU", insts.OpLHU, insts.ClassLoad),
		Entry("SW", insts.OpSW, insts.ClassStore),
		Entry("BGEU", insts.OpBGEU, insts.ClassBranch),
		Entry("CSRRCI", insts.OpCSRRCI, insts.ClassCSR),
		Entry("ECALL", insts.OpECALL, insts.ClassSystem),
		Entry("MRET", insts.OpMRET, insts.ClassSystem),
		Entry("FENCE", insts.OpFENCE, insts.ClassSystem),
		Entry("EBREAK", insts.OpEBREAK, insts.ClassALU),
		Entry("JAL", insts.OpJAL, insts.ClassALU),
		Entry("ADD", insts.OpADD, insts.ClassALU),
		Entry("Unknown", insts.OpUnknown, insts.ClassALU),
	)

	DescribeTable("Width and extension",
		func(op insts.Op, width int, signed bool) {
			Expect(op.Width()).To(Equal(width))
			Expect(op.SignExtends()).To(Equal(signed))
		},
		Entry("LB", insts.OpLB, 1, true),
		Entry("LBU", insts.OpLBU, 1, false),
		Entry("LH", insts.OpLH, 2, true),
		Entry("LHU", insts.OpLHU, 2, false),
		Entry("LW", insts.OpLW, 4, false),
		Entry("SB", insts.OpSB, 1, false),
		Entry("SH", insts.OpSH, 2, false),
		Entry("SW", insts.OpSW, 4, false),
		Entry("ADD", insts.OpADD, 0, false),
	)

	It("should flag only the immediate CSR forms", func() {
		Expect(insts.OpCSRRWI.UsesImmediate()).To(BeTrue())
		Expect(insts.OpCSRRSI.UsesImmediate()).To(BeTrue())
		Expect(insts.OpCSRRCI.UsesImmediate()).To(BeTrue())
		Expect(insts.OpCSRRW.UsesImmediate()).To(BeFalse())
		Expect(insts.OpADDI.UsesImmediate()).To(BeFalse())
	})

	It("should print mnemonics", func() {
		Expect(insts.OpCSRRSI.String()).To(Equal("CSRRSI"))
		Expect(insts.OpLUI.String()).To(Equal("LUI"))
		Expect(insts.Op(200).String()).To(Equal("Op(200)"))
		Expect(insts.ClassStore.String()).To(Equal("store"))
	})

	Describe("ParseOp", func() {
		It("should accept any case", func() {
			op, err := insts.ParseOp(" lbu ")
			Expect(err).NotTo(HaveOccurred())
			Expect(op).To(Equal(insts.OpLBU))
		})

		It("should round-trip every mnemonic", func() {
			for op := insts.OpLUI; op <= insts.OpCSRRCI; op++ {
				parsed, err := insts.ParseOp(op.String())
				Expect(err).NotTo(HaveOccurred())
				Expect(parsed).To(Equal(op))
			}
		})

		It("should reject unknown names", func() {
			_, err := insts.ParseOp("VADD")
			Expect(err).To(HaveOccurred())

			_, err = insts.ParseOp("Unknown")
			Expect(err).To(HaveOccurred())
		})
	})

	It("should marshal as JSON text", func() {
		var v struct {
			Op insts.Op `json:"op"`
		}
		Expect(json.Unmarshal([]byte(`{"op":"csrrs"}`), &v)).To(Succeed())
		Expect(v.Op).To(Equal(insts.OpCSRRS))

		data, err := json.Marshal(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`{"op":"CSRRS"}`))
	})
})
