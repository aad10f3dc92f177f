// Package copro provides the custom-instruction front end.
//
// One instruction per invocation carries a packed source operand (byte
// write-mask in the top four bits, a 28-bit address or search key below),
// a full write-data operand, a 2-bit function selector, and a destination
// register slot. Issue is a synchronous, blocking call convention: the
// caller is held until the engine reaches its Response state and the
// result word lands in the destination slot.
package copro

// Function selector values. These equal the engine's operation kinds.
const (
	FunctWrite  = 0
	FunctRead   = 1 // defined inactive: completes the traversal, no effect
	FunctSearch = 2
	FunctStatus = 3
)

// Source operand A packing: write-mask/qualifier in bits 31:28, address or
// search key in bits 27:0.
const (
	maskShift = 28
	addrMask  = 0x0FFFFFFF
)

// Instruction is one decoded custom instruction.
type Instruction struct {
	// Funct selects the operation: 0 Write, 1 Read, 2 Search, 3 Status.
	Funct uint8

	// SrcA packs the byte write-mask (bits 31:28) and the address or
	// search key (bits 27:0).
	SrcA uint32

	// SrcB is the write data operand. Unused by Search and Status.
	SrcB uint32

	// Rd is the destination register slot for the result word.
	Rd uint8
}

// Addr extracts the 28-bit address/key field of operand A.
func (i Instruction) Addr() uint32 {
	return i.SrcA & addrMask
}

// WriteMask extracts the 4-bit byte write-mask field of operand A.
func (i Instruction) WriteMask() uint8 {
	return uint8(i.SrcA >> maskShift)
}

// PackSrcA assembles operand A from a write-mask and an address/key.
func PackSrcA(writeMask uint8, addr uint32) uint32 {
	return uint32(writeMask&0xF)<<maskShift | addr&addrMask
}
