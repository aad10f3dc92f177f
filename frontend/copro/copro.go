package copro

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/tcamsim/engine"
)

// Errors surfaced before an instruction is issued to the engine.
var (
	ErrBadFunct   = fmt.Errorf("unknown function selector")
	ErrOutOfRange = fmt.Errorf("instruction address out of range")
)

// Adapter translates custom instructions into control engine operations.
type Adapter struct {
	engine *engine.Engine
	regs   *RegFile
	logger *log.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the trace logger. The default discards output.
func WithLogger(logger *log.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// New creates the adapter and claims the engine for the custom-instruction
// front end. It fails if another front end already holds the engine.
func New(eng *engine.Engine, opts ...Option) (*Adapter, error) {
	if err := eng.Bind("copro"); err != nil {
		return nil, err
	}

	a := &Adapter{
		engine: eng,
		regs:   &RegFile{},
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

// RegFile returns the destination register slots.
func (a *Adapter) RegFile() *RegFile {
	return a.regs
}

// Decode translates an instruction into an engine operation. Out-of-range
// addresses on the Write and Read paths are rejected here, so the
// instruction is never issued and the engine never leaves Idle.
func (a *Adapter) Decode(inst Instruction) (engine.Op, error) {
	switch inst.Funct {
	case FunctWrite:
		addr := inst.Addr()
		if err := a.engine.Bank().CheckAddr(addr); err != nil {
			return engine.Op{}, fmt.Errorf("%w: %d", ErrOutOfRange, addr)
		}
		return engine.Op{
			Kind:     engine.OpWrite,
			Addr:     addr,
			Data:     inst.SrcB,
			ByteMask: inst.WriteMask(),
		}, nil

	case FunctRead:
		addr := inst.Addr()
		if err := a.engine.Bank().CheckAddr(addr); err != nil {
			return engine.Op{}, fmt.Errorf("%w: %d", ErrOutOfRange, addr)
		}
		return engine.Op{Kind: engine.OpRead, Addr: addr}, nil

	case FunctSearch:
		// The address field carries the search key; the data operand is
		// not consulted.
		return engine.Op{Kind: engine.OpSearch, Key: inst.Addr()}, nil

	case FunctStatus:
		// Both operands are ignored.
		return engine.Op{Kind: engine.OpStatus}, nil

	default:
		return engine.Op{}, fmt.Errorf("%w: %d", ErrBadFunct, inst.Funct)
	}
}

// Issue decodes the instruction, runs the engine through its full
// traversal, and delivers the result word into the destination slot. The
// call blocks until the engine reaches Response.
func (a *Adapter) Issue(inst Instruction) (uint32, error) {
	op, err := a.Decode(inst)
	if err != nil {
		return 0, err
	}

	result, err := a.engine.Run(op)
	if err != nil {
		return 0, err
	}

	a.regs.WriteReg(inst.Rd, result.Value)

	a.logger.WithFields(log.Fields{
		"funct":  inst.Funct,
		"rd":     inst.Rd,
		"result": result.Value,
	}).Debug("instruction retired")

	return result.Value, nil
}
