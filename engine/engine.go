// Package engine provides the TCAM control engine.
//
// The engine is a four-state sequencer (Idle, Execute, Probe, Response)
// that accepts one operation at a time, drives the storage bank and the
// priority encoder, and reports a result word plus a done indicator. Both
// front-end adapters translate their wire formats into Op values and submit
// them here; the sequencing and match semantics live only in this package.
package engine

import (
	"fmt"
	"io"

	"github.com/bits-and-blooms/bitset"
	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/tcamsim/bank"
	"github.com/sarchlab/tcamsim/priority"
)

// State identifies a step of the operation sequencer.
type State int

// Sequencer states. Every operation traverses Idle -> Execute -> Probe ->
// Response -> Idle; a new operation is admitted only from Idle.
const (
	StateIdle State = iota
	StateExecute
	StateProbe
	StateResponse
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateExecute:
		return "Execute"
	case StateProbe:
		return "Probe"
	case StateResponse:
		return "Response"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// OpKind identifies an operation. The numeric values equal the custom
// instruction's function selector.
type OpKind uint8

// Operation kinds.
const (
	OpWrite  OpKind = 0
	OpRead   OpKind = 1 // defined inactive: a no-op that still completes
	OpSearch OpKind = 2
	OpStatus OpKind = 3
)

// String returns the operation name.
func (k OpKind) String() string {
	switch k {
	case OpWrite:
		return "Write"
	case OpRead:
		return "Read"
	case OpSearch:
		return "Search"
	case OpStatus:
		return "Status"
	default:
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
}

// Op is one operation request. Addr, Data and ByteMask apply to Write;
// Key applies to Search; Read and Status carry no payload.
//
// Addresses are pre-validated at the adapter boundary; the engine assumes
// in-range addresses.
type Op struct {
	Kind     OpKind
	Addr     uint32
	Data     uint32
	ByteMask uint8
	Key      uint32
}

// Result is the outcome driven during the Response state.
type Result struct {
	// Value is the result word: the PMA for Search and Status, zero
	// (don't-care) for Write and Read.
	Value uint32

	// Matched distinguishes a real match at entry 0 from the reserved
	// no-match word, which the wire protocol cannot. Meaningful for
	// Search and Status only.
	Matched bool
}

// Statistics holds engine activity counters.
type Statistics struct {
	// Cycles is the total number of ticks stepped.
	Cycles uint64
	// Writes, Reads, Searches, Statuses count completed operations by kind.
	Writes   uint64
	Reads    uint64
	Searches uint64
	Statuses uint64
	// Matches counts searches that resolved to a matching entry.
	Matches uint64
}

// ErrBusy reports a submit while a previous operation is still in flight.
var ErrBusy = fmt.Errorf("engine busy: operation in flight")

// ErrBound reports a second front-end bind. A deployed instance exposes
// exactly one front end; the bindings are alternatives, not peers.
var ErrBound = fmt.Errorf("engine already bound to a front end")

// Engine is the TCAM control engine.
type Engine struct {
	bank           *bank.Bank
	encoderEnabled bool
	logger         *log.Logger

	state State
	op    Op
	flags *bitset.BitSet

	// pma holds the word produced by the most recent Search. It persists,
	// read-only, until the next Search; Writes never re-evaluate it.
	pma        uint32
	pmaMatched bool

	result Result
	done   bool

	owner string
	stats Statistics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the trace logger. The default logger discards output.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithPriorityEncoder enables or disables priority-match resolution.
// With the encoder disabled, searches complete normally but always report
// the no-match word.
func WithPriorityEncoder(enabled bool) Option {
	return func(e *Engine) {
		e.encoderEnabled = enabled
	}
}

// New creates an engine over the given storage bank.
func New(b *bank.Bank, opts ...Option) *Engine {
	e := &Engine{
		bank:           b,
		encoderEnabled: true,
		state:          StateIdle,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = log.New()
		e.logger.SetOutput(io.Discard)
	}

	return e
}

// Bank returns the storage bank driven by this engine.
func (e *Engine) Bank() *bank.Bank {
	return e.bank
}

// Bind claims the engine for a single front end. The second bind fails:
// the register-mapped and custom-instruction paths are alternative
// configurations of one instance, never concurrent peers.
func (e *Engine) Bind(name string) error {
	if e.owner != "" {
		return fmt.Errorf("%w: held by %q, refused %q", ErrBound, e.owner, name)
	}
	e.owner = name
	return nil
}

// State returns the current sequencer state.
func (e *Engine) State() State {
	return e.state
}

// Busy reports whether an operation is in flight.
func (e *Engine) Busy() bool {
	return e.state != StateIdle
}

// Done reports whether the most recent operation has reached Response.
// It is cleared by the next Submit.
func (e *Engine) Done() bool {
	return e.done
}

// Result returns the outcome of the most recent completed operation.
// Valid only while Done reports true.
func (e *Engine) Result() Result {
	return e.result
}

// PMA returns the word produced by the most recent Search: the lowest
// matching entry index, or the reserved no-match encoding. The reserved
// word collides with a legitimate match at entry 0; Result.Matched carries
// the distinction for callers that need it.
func (e *Engine) PMA() uint32 {
	return e.pma
}

// Stats returns engine activity statistics.
func (e *Engine) Stats() Statistics {
	return e.stats
}

// Submit admits a new operation. Admission happens only from Idle; a
// submit while an operation is in flight fails with ErrBusy and changes
// nothing. On success the engine enters Execute and must be ticked to
// completion.
func (e *Engine) Submit(op Op) error {
	if e.state != StateIdle {
		return fmt.Errorf("%w: state %s", ErrBusy, e.state)
	}

	e.op = op
	e.flags = nil
	e.done = false
	e.result = Result{}
	e.state = StateExecute

	e.logger.WithFields(log.Fields{
		"op":   op.Kind.String(),
		"addr": op.Addr,
	}).Debug("operation admitted")

	return nil
}

// Tick advances the sequencer by one state. Ticking in Idle is a no-op
// cycle: the engine asserts no activity.
func (e *Engine) Tick() {
	e.stats.Cycles++

	switch e.state {
	case StateIdle:
		// No operation in flight.

	case StateExecute:
		e.execute()
		e.state = StateProbe

	case StateProbe:
		e.probe()
		e.state = StateResponse

	case StateResponse:
		e.respond()
		e.state = StateIdle
	}
}

// Run submits an operation and ticks the engine through the full
// Idle -> Execute -> Probe -> Response -> Idle traversal, returning the
// driven result. This is the blocking call convention used by the
// custom-instruction front end.
func (e *Engine) Run(op Op) (Result, error) {
	if err := e.Submit(op); err != nil {
		return Result{}, err
	}
	for !e.done {
		e.Tick()
	}
	return e.result, nil
}

// Reset returns the engine to Idle and clears the PMA, statistics, and any
// in-flight operation. The bank is left untouched.
func (e *Engine) Reset() {
	e.state = StateIdle
	e.flags = nil
	e.pma = priority.NoMatch
	e.pmaMatched = false
	e.result = Result{}
	e.done = false
	e.stats = Statistics{}
}

// execute performs the Execute-state action: commit a write, or capture
// the match flags for a search. Read and Status do nothing here.
func (e *Engine) execute() {
	switch e.op.Kind {
	case OpWrite:
		if err := e.bank.Write(e.op.Addr, e.op.Data, e.op.ByteMask); err != nil {
			// Addresses are validated at the adapter boundary, so a
			// failure here indicates a storage fault, not a protocol one.
			e.logger.WithError(err).Error("bank write failed")
		}

	case OpSearch:
		flags, err := e.bank.CompareAll(e.op.Key)
		if err != nil {
			e.logger.WithError(err).Error("bank compare failed")
			flags = bitset.New(uint(e.bank.Entries()))
		}
		e.flags = flags

	case OpRead, OpStatus:
		// Read is defined inactive; Status has no execute action.
	}
}

// probe performs the Probe-state action: resolve the captured flags to a
// PMA for a search, or load the stored PMA for a status read.
func (e *Engine) probe() {
	switch e.op.Kind {
	case OpSearch:
		e.pma = priority.NoMatch
		e.pmaMatched = false
		if e.encoderEnabled && e.flags != nil {
			if index, found := priority.Encode(e.flags); found {
				e.pma = uint32(index)
				e.pmaMatched = true
			}
		}
		e.result = Result{Value: e.pma, Matched: e.pmaMatched}

	case OpStatus:
		// No re-comparison: status returns the PMA of the most recent
		// search, however stale.
		e.result = Result{Value: e.pma, Matched: e.pmaMatched}

	case OpWrite, OpRead:
		// Result word is don't-care.
	}
}

// respond performs the Response-state action: drive the result word and
// the completion indicator.
func (e *Engine) respond() {
	e.done = true

	switch e.op.Kind {
	case OpWrite:
		e.stats.Writes++
	case OpRead:
		e.stats.Reads++
	case OpSearch:
		e.stats.Searches++
		if e.result.Matched {
			e.stats.Matches++
		}
	case OpStatus:
		e.stats.Statuses++
	}

	e.logger.WithFields(log.Fields{
		"op":      e.op.Kind.String(),
		"result":  e.result.Value,
		"matched": e.result.Matched,
	}).Debug("operation complete")
}
