package copro

// NumRegs is the number of destination register slots.
const NumRegs = 32

// RegFile holds the destination register slots the adapter delivers
// results into. Slot 0 is hardwired to zero: writes to it are discarded.
type RegFile struct {
	regs [NumRegs]uint32
}

// ReadReg reads a register slot. Slot 0 and out-of-range slots read as 0.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 0 || reg >= NumRegs {
		return 0
	}
	return r.regs[reg]
}

// WriteReg writes a register slot. Writes to slot 0 and out-of-range
// slots are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 0 || reg >= NumRegs {
		return
	}
	r.regs[reg] = value
}
