package bank_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tcamsim/bank"
)

var _ = Describe("Bank", func() {
	var b *bank.Bank

	BeforeEach(func() {
		b = bank.New(64, 32)
	})

	Describe("Write", func() {
		It("should store a full-mask write", func() {
			Expect(b.Write(3, 0x12345678, 0xF)).To(Succeed())

			value, mask, err := b.Read(3)
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal(uint32(0x12345678)))
			Expect(mask).To(Equal(uint32(0xFFFFFFFF)))
		})

		It("should only change bytes enabled in the byte mask", func() {
			Expect(b.Write(5, 0xAABBCCDD, 0xF)).To(Succeed())
			Expect(b.Write(5, 0x11223344, 0x5)).To(Succeed())

			value, _, err := b.Read(5)
			Expect(err).NotTo(HaveOccurred())
			// Bytes 0 and 2 updated, bytes 1 and 3 retained.
			Expect(value).To(Equal(uint32(0xAA22CC44)))
		})

		It("should narrow the care mask only for written bytes", func() {
			Expect(b.Write(7, 0x000000FF, 0x1)).To(Succeed())

			_, mask, err := b.Read(7)
			Expect(err).NotTo(HaveOccurred())
			Expect(mask).To(Equal(uint32(0x000000FF)))
		})

		It("should keep unwritten bytes don't-care across writes", func() {
			Expect(b.Write(8, 0xFFFFFFFF, 0x3)).To(Succeed())
			Expect(b.Write(8, 0x00000000, 0x1)).To(Succeed())

			_, mask, err := b.Read(8)
			Expect(err).NotTo(HaveOccurred())
			Expect(mask).To(Equal(uint32(0x0000FFFF)))
		})

		It("should reflect the last write on overwrite", func() {
			Expect(b.Write(0x10, 0x00000005, 0xF)).To(Succeed())
			Expect(b.Write(0x00, 0x00000085, 0xF)).To(Succeed())
			Expect(b.Write(0x10, 0x00000105, 0xF)).To(Succeed())

			value, _, err := b.Read(0x10)
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal(uint32(0x00000105)))
		})

		It("should reject an address one past the last entry", func() {
			err := b.Write(64, 0x1, 0xF)
			Expect(err).To(MatchError(bank.ErrOutOfRange))
		})

		It("should not change state on a rejected write", func() {
			Expect(b.Write(70, 0x1, 0xF)).NotTo(Succeed())

			flags, err := b.CompareAll(0x1)
			Expect(err).NotTo(HaveOccurred())
			Expect(flags.Any()).To(BeFalse())
		})
	})

	Describe("Read", func() {
		It("should reject out-of-range addresses", func() {
			_, _, err := b.Read(64)
			Expect(err).To(MatchError(bank.ErrOutOfRange))
		})
	})

	Describe("CompareAll", func() {
		It("should match nothing in an empty bank", func() {
			flags, err := b.CompareAll(0x0)
			Expect(err).NotTo(HaveOccurred())
			Expect(flags.Any()).To(BeFalse())
		})

		It("should match an exact fully-written entry", func() {
			Expect(b.Write(2, 0xDEADBEEF, 0xF)).To(Succeed())

			flags, err := b.CompareAll(0xDEADBEEF)
			Expect(err).NotTo(HaveOccurred())
			Expect(flags.Test(2)).To(BeTrue())
			Expect(flags.Count()).To(Equal(uint(1)))
		})

		It("should ignore don't-care bytes during comparison", func() {
			// Only byte 0 is cared; the upper bytes of the key are free.
			Expect(b.Write(4, 0x00000042, 0x1)).To(Succeed())

			flags, err := b.CompareAll(0x99887743)
			Expect(err).NotTo(HaveOccurred())
			Expect(flags.Test(4)).To(BeFalse())

			flags, err = b.CompareAll(0x99887742)
			Expect(err).NotTo(HaveOccurred())
			Expect(flags.Test(4)).To(BeTrue())
		})

		It("should flag every matching entry", func() {
			Expect(b.Write(1, 0x42, 0xF)).To(Succeed())
			Expect(b.Write(9, 0x42, 0xF)).To(Succeed())

			flags, err := b.CompareAll(0x42)
			Expect(err).NotTo(HaveOccurred())
			Expect(flags.Test(1)).To(BeTrue())
			Expect(flags.Test(9)).To(BeTrue())
			Expect(flags.Count()).To(Equal(uint(2)))
		})

		It("should not match the reference key against the reference table", func() {
			Expect(b.Write(0, 0x12345678, 0xF)).To(Succeed())
			Expect(b.Write(1, 0x87654321, 0xF)).To(Succeed())
			Expect(b.Write(2, 0xDEADBEEF, 0xF)).To(Succeed())

			flags, err := b.CompareAll(0x0FFC3201)
			Expect(err).NotTo(HaveOccurred())
			Expect(flags.Any()).To(BeFalse())
		})
	})

	Describe("Reset", func() {
		It("should clear entries back to all-don't-care", func() {
			Expect(b.Write(0, 0x42, 0xF)).To(Succeed())
			b.Reset()

			flags, err := b.CompareAll(0x42)
			Expect(err).NotTo(HaveOccurred())
			Expect(flags.Any()).To(BeFalse())
		})
	})

	Describe("Stats", func() {
		It("should count writes and compares", func() {
			Expect(b.Write(0, 0x1, 0xF)).To(Succeed())
			_, err := b.CompareAll(0x1)
			Expect(err).NotTo(HaveOccurred())

			stats := b.Stats()
			Expect(stats.Writes).To(Equal(uint64(1)))
			Expect(stats.Compares).To(Equal(uint64(1)))
		})
	})
})
