// Package regmap provides the register-mapped front end.
//
// Four fixed-offset registers translate host bus transactions into control
// engine operations. Two transport bindings — a split-transaction bus and a
// streaming bus — share one Adapter, so both present identical register
// semantics; only the transaction framing differs.
//
// Host protocol: a Write is CONTROL (csb=0, web=0, wmask=all-ones), then
// ADDRESS, then WDATA, each its own bus transaction; the engine operation
// fires once all three are latched. A Search is CONTROL (csb=0, web=1,
// wmask=0) then ADDRESS. A Status read is a plain STATUS read with no setup.
// There is no completion interrupt: callers poll STATUS after issuing a
// sequence. Issuing ADDRESS or WDATA without a preceding CONTROL setup
// leaves latched values undefined; that ordering is caller responsibility
// and is not detected here.
package regmap

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/tcamsim/engine"
)

// Register offsets relative to the MMIO base address.
const (
	RegStatus  = 0x00 // read-only: current PMA
	RegControl = 0x04 // read/write: bit0 csb, bit1 web, bits 7:4 wmask
	RegWData   = 0x08 // write-only: pending write data
	RegAddress = 0x0C // write-only: pending address / search key
)

// regSpan is the size of the register window in bytes.
const regSpan = 0x10

// SettleCycles is the minimum number of engine cycles a polling caller
// should allow between the final transaction of a write or search sequence
// and the first STATUS poll: one full Idle -> Execute -> Probe -> Response
// traversal. The register path has no completion interrupt.
const SettleCycles = 4

// Control register bits. csb and web are active-low.
const (
	CtrlCSB   = 1 << 0 // chip enable, 0 = enabled
	CtrlWEB   = 1 << 1 // write enable, 0 = write, 1 = search
	ctrlWMask = 0xF0   // per-byte write enables at bits 7:4
)

// Errors surfaced synchronously on a register transaction.
var (
	ErrBadOffset  = fmt.Errorf("no register at offset")
	ErrReadOnly   = fmt.Errorf("register is read-only")
	ErrWriteOnly  = fmt.Errorf("register is write-only")
	ErrOutOfRange = fmt.Errorf("address register value out of range")
)

// Adapter translates register accesses into control engine operations.
type Adapter struct {
	engine *engine.Engine
	base   uint32
	logger *log.Logger

	control  uint8
	haveCtrl bool
	addr     uint32
	haveAddr bool
	wdata    uint32
	haveData bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the protocol trace logger. The default discards output.
func WithLogger(logger *log.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// New creates the adapter and claims the engine for the register-mapped
// front end. It fails if another front end already holds the engine.
func New(eng *engine.Engine, base uint32, opts ...Option) (*Adapter, error) {
	if err := eng.Bind("regmap"); err != nil {
		return nil, err
	}

	a := &Adapter{
		engine: eng,
		base:   base,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = log.New()
		a.logger.SetOutput(io.Discard)
	}

	return a, nil
}

// Base returns the MMIO base address of the register window.
func (a *Adapter) Base() uint32 {
	return a.base
}

// WriteReg performs one register write transaction at the given offset.
// An out-of-range ADDRESS value on the write path is rejected here, before
// any engine operation forms; no partial state change occurs.
func (a *Adapter) WriteReg(offset uint32, value uint32) error {
	switch offset {
	case RegStatus:
		return fmt.Errorf("%w: STATUS", ErrReadOnly)

	case RegControl:
		a.control = uint8(value)
		a.haveCtrl = true
		// A control write starts a fresh sequence.
		a.haveAddr = false
		a.haveData = false
		a.logger.WithField("control", fmt.Sprintf("0x%02X", a.control)).
			Debug("control latched")
		return nil

	case RegWData:
		a.wdata = value
		a.haveData = true
		return a.maybeTrigger()

	case RegAddress:
		if a.haveCtrl && a.chipEnabled() && a.isWriteSequence() {
			if err := a.engine.Bank().CheckAddr(value); err != nil {
				return fmt.Errorf("%w: %d", ErrOutOfRange, value)
			}
		}
		a.addr = value
		a.haveAddr = true
		return a.maybeTrigger()

	default:
		return fmt.Errorf("%w: 0x%02X", ErrBadOffset, offset)
	}
}

// ReadReg performs one register read transaction at the given offset.
// Reading STATUS runs a Status traversal through the engine, so the read
// is accepted only when the engine is idle and answers only after the
// Response state, matching the write path's latency discipline.
func (a *Adapter) ReadReg(offset uint32) (uint32, error) {
	switch offset {
	case RegStatus:
		result, err := a.engine.Run(engine.Op{Kind: engine.OpStatus})
		if err != nil {
			return 0, err
		}
		return result.Value, nil

	case RegControl:
		return uint32(a.control), nil

	case RegWData, RegAddress:
		return 0, fmt.Errorf("%w: 0x%02X", ErrWriteOnly, offset)

	default:
		return 0, fmt.Errorf("%w: 0x%02X", ErrBadOffset, offset)
	}
}

// Transact performs one transaction against an absolute bus address.
// Transport bindings funnel through here.
func (a *Adapter) Transact(isRead bool, addr uint32, data uint32) (uint32, error) {
	if addr < a.base || addr >= a.base+regSpan {
		return 0, fmt.Errorf("%w: address 0x%X outside register window", ErrBadOffset, addr)
	}
	offset := addr - a.base

	if isRead {
		return a.ReadReg(offset)
	}
	return 0, a.WriteReg(offset, data)
}

func (a *Adapter) chipEnabled() bool {
	return a.control&CtrlCSB == 0
}

func (a *Adapter) isWriteSequence() bool {
	return a.control&CtrlWEB == 0
}

func (a *Adapter) wmask() uint8 {
	return (a.control & ctrlWMask) >> 4
}

// maybeTrigger forms and runs the engine operation once the active
// sequence has latched every value it needs. The engine is stepped through
// its full traversal before the triggering transaction returns, so the
// next transaction always finds it idle.
func (a *Adapter) maybeTrigger() error {
	if !a.haveCtrl || !a.chipEnabled() {
		return nil
	}

	if a.isWriteSequence() {
		if !a.haveAddr || !a.haveData {
			return nil
		}
		a.haveAddr = false
		a.haveData = false

		_, err := a.engine.Run(engine.Op{
			Kind:     engine.OpWrite,
			Addr:     a.addr,
			Data:     a.wdata,
			ByteMask: a.wmask(),
		})
		return err
	}

	// Search sequence: key only, WDATA is not consulted.
	if !a.haveAddr {
		return nil
	}
	a.haveAddr = false

	_, err := a.engine.Run(engine.Op{
		Kind: engine.OpSearch,
		Key:  a.addr,
	})
	return err
}
