// Transport bindings for the register-mapped front end. Both bindings
// delegate every access to the shared Adapter, so register semantics are
// identical; only the transaction framing differs.

package regmap

import (
	"context"
	"fmt"
)

// Request is one register access as presented by a transport binding.
// Addr is an absolute bus address inside the register window.
type Request struct {
	IsRead bool
	Addr   uint32
	Data   uint32
}

// Response answers one Request. Err carries a synchronous rejection such
// as an out-of-range address or a bad offset.
type Response struct {
	Data uint32
	Err  error
}

// ErrOutstanding reports a split-bus submit while a previous response has
// not been collected.
var ErrOutstanding = fmt.Errorf("split bus: response not yet collected")

// SplitBus presents register accesses as split request/response
// transactions: the requester submits, then collects the response as a
// separate step. One transaction may be outstanding at a time, matching
// the engine's single-outstanding-request discipline.
type SplitBus struct {
	adapter *Adapter
	pending *Response
}

// NewSplitBus wraps the adapter in a split-transaction binding.
func NewSplitBus(adapter *Adapter) *SplitBus {
	return &SplitBus{adapter: adapter}
}

// Submit issues the request phase. It fails if the previous response has
// not been collected.
func (b *SplitBus) Submit(req Request) error {
	if b.pending != nil {
		return ErrOutstanding
	}

	data, err := b.adapter.Transact(req.IsRead, req.Addr, req.Data)
	b.pending = &Response{Data: data, Err: err}
	return nil
}

// Collect returns the response phase of the outstanding transaction.
// The second value is false when no transaction is outstanding.
func (b *SplitBus) Collect() (Response, bool) {
	if b.pending == nil {
		return Response{}, false
	}
	resp := *b.pending
	b.pending = nil
	return resp, true
}

// StreamBus presents register accesses as streaming request and response
// channels. Responses are delivered in request order, one per request.
type StreamBus struct {
	adapter *Adapter

	// Requests receives register accesses; Responses delivers answers in
	// the same order.
	Requests  chan Request
	Responses chan Response
}

// NewStreamBus wraps the adapter in a streaming binding with the given
// channel depth.
func NewStreamBus(adapter *Adapter, depth int) *StreamBus {
	return &StreamBus{
		adapter:   adapter,
		Requests:  make(chan Request, depth),
		Responses: make(chan Response, depth),
	}
}

// Start serves the request channel until the context is cancelled.
// Requests already accepted are always answered.
func (b *StreamBus) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case req := <-b.Requests:
				data, err := b.adapter.Transact(req.IsRead, req.Addr, req.Data)
				select {
				case <-ctx.Done():
					return
				case b.Responses <- Response{Data: data, Err: err}:
				}
			}
		}
	}()
}
