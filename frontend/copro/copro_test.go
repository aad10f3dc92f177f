package copro_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tcamsim/bank"
	"github.com/sarchlab/tcamsim/engine"
	"github.com/sarchlab/tcamsim/frontend/copro"
)

var _ = Describe("Instruction", func() {
	It("should pack and unpack operand A", func() {
		srcA := copro.PackSrcA(0xF, 0x0ABCDEF0)

		inst := copro.Instruction{SrcA: srcA}
		Expect(inst.WriteMask()).To(Equal(uint8(0xF)))
		Expect(inst.Addr()).To(Equal(uint32(0x0ABCDEF0)))
	})

	It("should truncate the address field to 28 bits", func() {
		srcA := copro.PackSrcA(0, 0xFFFFFFFF)

		inst := copro.Instruction{SrcA: srcA}
		Expect(inst.Addr()).To(Equal(uint32(0x0FFFFFFF)))
		Expect(inst.WriteMask()).To(Equal(uint8(0)))
	})
})

var _ = Describe("Adapter", func() {
	var (
		eng     *engine.Engine
		adapter *copro.Adapter
	)

	BeforeEach(func() {
		eng = engine.New(bank.New(64, 32))

		var err error
		adapter, err = copro.New(eng)
		Expect(err).NotTo(HaveOccurred())
	})

	write := func(addr, data uint32) {
		_, err := adapter.Issue(copro.Instruction{
			Funct: copro.FunctWrite,
			SrcA:  copro.PackSrcA(0xF, addr),
			SrcB:  data,
			Rd:    1,
		})
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("Write", func() {
		It("should commit the data operand under the packed write mask", func() {
			write(3, 0xCAFEF00D)

			value, mask, err := eng.Bank().Read(3)
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal(uint32(0xCAFEF00D)))
			Expect(mask).To(Equal(uint32(0xFFFFFFFF)))
		})

		It("should honor a partial write mask", func() {
			write(4, 0xAABBCCDD)

			_, err := adapter.Issue(copro.Instruction{
				Funct: copro.FunctWrite,
				SrcA:  copro.PackSrcA(0x1, 4),
				SrcB:  0x11223344,
				Rd:    1,
			})
			Expect(err).NotTo(HaveOccurred())

			value, _, readErr := eng.Bank().Read(4)
			Expect(readErr).NotTo(HaveOccurred())
			Expect(value).To(Equal(uint32(0xAABBCC44)))
		})

		It("should refuse an out-of-range address without issuing", func() {
			_, err := adapter.Issue(copro.Instruction{
				Funct: copro.FunctWrite,
				SrcA:  copro.PackSrcA(0xF, 64),
				SrcB:  0x42,
				Rd:    1,
			})
			Expect(err).To(MatchError(copro.ErrOutOfRange))
			Expect(eng.Stats().Writes).To(BeZero())
			Expect(eng.Stats().Cycles).To(BeZero())
		})
	})

	Describe("Search", func() {
		It("should use the address field as the key and deliver the PMA into Rd", func() {
			write(10, 0x42)
			write(4, 0x42)

			pma, err := adapter.Issue(copro.Instruction{
				Funct: copro.FunctSearch,
				SrcA:  copro.PackSrcA(0, 0x42),
				Rd:    5,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(pma).To(Equal(uint32(4)))
			Expect(adapter.RegFile().ReadReg(5)).To(Equal(uint32(4)))
		})

		It("should not consult the data operand", func() {
			write(2, 0x42)

			pma, err := adapter.Issue(copro.Instruction{
				Funct: copro.FunctSearch,
				SrcA:  copro.PackSrcA(0, 0x42),
				SrcB:  0xFFFFFFFF,
				Rd:    1,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(pma).To(Equal(uint32(2)))
		})
	})

	Describe("Status", func() {
		It("should ignore both operands and return the stored PMA", func() {
			write(12, 0x99)
			_, err := adapter.Issue(copro.Instruction{
				Funct: copro.FunctSearch,
				SrcA:  copro.PackSrcA(0, 0x99),
				Rd:    1,
			})
			Expect(err).NotTo(HaveOccurred())

			pma, err := adapter.Issue(copro.Instruction{
				Funct: copro.FunctStatus,
				SrcA:  0xFFFFFFFF,
				SrcB:  0xFFFFFFFF,
				Rd:    2,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(pma).To(Equal(uint32(12)))
			Expect(adapter.RegFile().ReadReg(2)).To(Equal(uint32(12)))
		})
	})

	Describe("Read", func() {
		It("should complete the traversal as a no-op", func() {
			write(1, 0x55)

			result, err := adapter.Issue(copro.Instruction{
				Funct: copro.FunctRead,
				SrcA:  copro.PackSrcA(0, 1),
				Rd:    3,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(uint32(0)))
			Expect(eng.Stats().Reads).To(Equal(uint64(1)))
		})

		It("should still validate the address", func() {
			_, err := adapter.Issue(copro.Instruction{
				Funct: copro.FunctRead,
				SrcA:  copro.PackSrcA(0, 64),
				Rd:    3,
			})
			Expect(err).To(MatchError(copro.ErrOutOfRange))
		})
	})

	Describe("destination slots", func() {
		It("should discard results aimed at slot 0", func() {
			write(6, 0x77)

			_, err := adapter.Issue(copro.Instruction{
				Funct: copro.FunctSearch,
				SrcA:  copro.PackSrcA(0, 0x77),
				Rd:    0,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(adapter.RegFile().ReadReg(0)).To(Equal(uint32(0)))
		})
	})

	Describe("binding exclusivity", func() {
		It("should refuse a second adapter on the same engine", func() {
			_, err := copro.New(eng)
			Expect(err).To(MatchError(engine.ErrBound))
		})
	})

	It("should refuse an unknown function selector", func() {
		_, err := adapter.Issue(copro.Instruction{Funct: 4})
		Expect(err).To(MatchError(copro.ErrBadFunct))
	})
})
