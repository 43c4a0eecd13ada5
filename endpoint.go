// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package coap

import (
	"context"
	"crypto/rand"
	"errors"
	"expvar"
	"fmt"
	"net"

	"github.com/coapcore/coap/transaction"
)

// A Channel is a transport over which packets are exchanged with one or
// more remotes. It is satisfied by the types in the channel package.
type Channel interface {
	Send(pkt *Packet, remote net.Addr) error
	Recv() (*Packet, net.Addr, error)
	Close() error
}

// A Logger receives structured diagnostic events from an Endpoint. The
// standard library's *slog.Logger and the coaplog/zap adapter both
// satisfy this interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}

type callResult struct {
	pkt *Packet
	err error
}

// Endpoint is a CoAP endpoint: it owns a single transaction map shared by
// every channel it serves, so a request sent on one connection and a
// request received on another never collide as long as their remotes
// differ. This is a deliberate departure from a one-connection-per-engine
// design: a CoAP server fields many concurrent clients against central
// state, rather than running one isolated engine per client.
//
// The zero value is not ready for use; call [NewEndpoint].
type Endpoint struct {
	pending *transaction.Map[chan callResult]
	handler Handler
	log     Logger
	metrics *endpointMetrics
}

// NewEndpoint constructs an Endpoint with no handler registered; requests
// received before [Endpoint.Handle] is called answer 5.00 Internal Server
// Error.
func NewEndpoint() *Endpoint {
	return &Endpoint{
		pending: transaction.NewMap[chan callResult](),
		handler: HandlerFunc(func(context.Context, *Packet, net.Addr) (*Packet, error) {
			return nil, errors.New("no handler registered")
		}),
		log:     discardLogger{},
		metrics: newEndpointMetrics(),
	}
}

// Handle sets the handler that answers inbound requests. It returns e to
// permit chaining.
func (e *Endpoint) Handle(h Handler) *Endpoint {
	e.handler = h
	return e
}

// Logger sets the logger used for diagnostic events. It returns e to
// permit chaining.
func (e *Endpoint) Logger(log Logger) *Endpoint {
	if log == nil {
		log = discardLogger{}
	}
	e.log = log
	return e
}

// Metrics returns an expvar map of endpoint activity counters.
func (e *Endpoint) Metrics() *expvar.Map { return e.metrics.emap }

// NewToken returns a fresh random token of the given length (0-8 bytes),
// suitable for use as a request's token.
func NewToken(n int) ([]byte, error) {
	if n < 0 || n > MaxTokenLength {
		return nil, fmt.Errorf("coap: token length %d outside [0,%d]", n, MaxTokenLength)
	}
	if n == 0 {
		return nil, nil
	}
	tok := make([]byte, n)
	if _, err := rand.Read(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// Call sends req to remote over ch and blocks until either a matching
// response arrives, ctx ends, or the send itself fails. On a send
// failure, the transaction is removed from the map before Call returns,
// per the "absent from the map, callback invoked exactly once" guarantee.
func (e *Endpoint) Call(ctx context.Context, ch Channel, remote net.Addr, req *Packet) (*Packet, error) {
	id := transaction.NewID(req.Token, remote.String())
	result := make(chan callResult, 1)
	if !e.pending.Insert(id, result) {
		return nil, fmt.Errorf("coap: token %x already pending for %v", req.Token, remote)
	}
	e.metrics.callPending.Add(1)
	defer e.metrics.callPending.Add(-1)

	if err := ch.Send(req, remote); err != nil {
		e.pending.Take(id)
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	select {
	case res := <-result:
		return res.pkt, res.err
	case <-ctx.Done():
		e.pending.Take(id)
		return nil, ctx.Err()
	}
}

// Serve reads and dispatches packets from ch until Recv reports an error,
// which it returns. It does not return until ch is exhausted; callers
// typically run it in its own goroutine per connection (or once, for a
// shared UDP socket).
func (e *Endpoint) Serve(ch Channel) error {
	for {
		pkt, remote, err := ch.Recv()
		if err != nil {
			return err
		}
		e.metrics.packetRecv.Add(1)
		e.dispatch(ch, remote, pkt)
	}
}

// CloseRemote drains every transaction pending against remote and
// delivers ErrTransport to each of their callers. Call it when a
// connection to remote is torn down, so callers blocked in Call do not
// wait forever for a response that can no longer arrive.
func (e *Endpoint) CloseRemote(remote net.Addr) {
	for _, result := range e.pending.DrainByRemote(remote.String()) {
		deliverResult(result, callResult{err: ErrTransport})
	}
}

func deliverResult(ch chan callResult, r callResult) {
	select {
	case ch <- r:
	default:
	}
}

func (e *Endpoint) dispatch(ch Channel, remote net.Addr, pkt *Packet) {
	switch {
	case pkt.Code.IsSignal():
		e.dispatchSignal(ch, remote, pkt)
	case pkt.Code.IsRequest():
		e.dispatchRequest(ch, remote, pkt)
	case pkt.Code.IsResponse():
		e.dispatchResponse(remote, pkt)
	default:
		// Empty message (bare UDP ACK/RST carrying no piggybacked data,
		// or code 0.00): nothing further to correlate.
	}
}

func (e *Endpoint) dispatchSignal(ch Channel, remote net.Addr, pkt *Packet) {
	switch pkt.Code {
	case SignalPing:
		pong := &Packet{Type: TypeNone, Code: SignalPong, Token: pkt.Token}
		if err := ch.Send(pong, remote); err != nil {
			e.log.Warn("send pong failed", "remote", remote, "error", err)
		}
	case SignalAbort:
		e.log.Info("received abort", "remote", remote, "reason", string(pkt.Payload))
		e.CloseRemote(remote)
	case SignalPong:
		// A Pong answers a pending Ping the same way a response answers a
		// pending request: by (token, remote).
		e.dispatchResponse(remote, pkt)
	case SignalCSM, SignalRelease:
		// No transaction bookkeeping is defined for these at this layer;
		// a caller that cares can wrap Serve to observe them first.
	}
}

type endpointContextKey struct{}

// ContextEndpoint returns the Endpoint associated with ctx, or nil if none
// is set. The context passed to a [Handler] carries this value.
func ContextEndpoint(ctx context.Context) *Endpoint {
	if v := ctx.Value(endpointContextKey{}); v != nil {
		return v.(*Endpoint)
	}
	return nil
}

func (e *Endpoint) dispatchRequest(ch Channel, remote net.Addr, pkt *Packet) {
	e.metrics.callIn.Add(1)
	ctx := context.WithValue(context.Background(), endpointContextKey{}, e)

	rsp, err := func() (rsp *Packet, err error) {
		defer func() {
			if x := recover(); x != nil {
				err = fmt.Errorf("%w: %v", ErrHandlerPanic, x)
			}
		}()
		return e.handler.ServeCoAP(ctx, pkt, remote)
	}()

	if err != nil {
		e.metrics.callInErr.Add(1)
		rsp = NewResponse(pkt, responseType(pkt), InternalServerError)
		rsp.Payload = []byte(err.Error())
	}
	if rsp == nil {
		return
	}
	if err := ch.Send(rsp, remote); err != nil {
		e.log.Warn("send response failed", "remote", remote, "error", err)
	}
}

func (e *Endpoint) dispatchResponse(remote net.Addr, pkt *Packet) {
	id := transaction.NewID(pkt.Token, remote.String())
	result, ok := e.pending.Take(id)
	if !ok {
		// No matching transaction: leave the map untouched and drop the
		// packet, per the duplicate/stray-response invariant.
		e.metrics.packetDropped.Add(1)
		return
	}
	deliverResult(result, callResult{pkt: pkt})
}
