// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package coap

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/coapcore/coap/transaction"
)

type fakeAddr string

func (a fakeAddr) Network() string { return "fake" }
func (a fakeAddr) String() string  { return string(a) }

// fakeChannel records every packet sent through it, in order, together with
// the remote it was sent to. Its Recv is not used by these tests, which call
// dispatch directly.
type fakeChannel struct {
	sent chan sentPacket
}

type sentPacket struct {
	pkt    *Packet
	remote net.Addr
}

func newFakeChannel() *fakeChannel { return &fakeChannel{sent: make(chan sentPacket, 8)} }

func (f *fakeChannel) Send(pkt *Packet, remote net.Addr) error {
	f.sent <- sentPacket{pkt: pkt, remote: remote}
	return nil
}

func (f *fakeChannel) Recv() (*Packet, net.Addr, error) { panic("not used in these tests") }
func (f *fakeChannel) Close() error                     { return nil }

func TestDispatchSignalPingRepliesPong(t *testing.T) {
	e := NewEndpoint()
	ch := newFakeChannel()
	remote := fakeAddr("client:5683")

	e.dispatch(ch, remote, &Packet{Code: SignalPing, Token: []byte{0x01}})

	select {
	case got := <-ch.sent:
		if got.pkt.Code != SignalPong {
			t.Errorf("reply code = %v, want %v", got.pkt.Code, SignalPong)
		}
		if string(got.pkt.Token) != "\x01" {
			t.Errorf("reply token = %x, want 01", got.pkt.Token)
		}
		if got.remote != remote {
			t.Errorf("reply remote = %v, want %v", got.remote, remote)
		}
	default:
		t.Fatal("no reply sent for PING")
	}
	if e.pending.Len() != 0 {
		t.Errorf("pending transactions = %d, want 0 (PING must not create a transaction)", e.pending.Len())
	}
}

func TestDispatchAbortDrainsOnlyThatRemote(t *testing.T) {
	e := NewEndpoint()
	ch := newFakeChannel()
	r1, r2 := fakeAddr("r1:5683"), fakeAddr("r2:5683")

	a := transactionResult(e, []byte("A"), r1)
	b := transactionResult(e, []byte("B"), r1)
	c := transactionResult(e, []byte("C"), r2)

	e.dispatch(ch, r1, &Packet{Code: SignalAbort, Payload: []byte("bye")})

	assertClosedWithError(t, a, "A")
	assertClosedWithError(t, b, "B")

	select {
	case <-c:
		t.Error("R2's transaction was disturbed by R1's abort")
	case <-time.After(10 * time.Millisecond):
	}
	if e.pending.Len() != 1 {
		t.Errorf("pending transactions = %d, want 1 (only R2's remains)", e.pending.Len())
	}
}

// transactionResult inserts a bare transaction for (token, remote) as Call
// would, and returns the channel a response is delivered on.
func transactionResult(e *Endpoint, token []byte, remote net.Addr) chan callResult {
	result := make(chan callResult, 1)
	e.pending.Insert(transaction.NewID(token, remote.String()), result)
	return result
}

func assertClosedWithError(t *testing.T, ch chan callResult, label string) {
	t.Helper()
	select {
	case res := <-ch:
		if res.err == nil {
			t.Errorf("%s: expected an error result, got %+v", label, res)
		}
	case <-time.After(time.Second):
		t.Fatalf("%s: transaction was not resolved by abort", label)
	}
}

func TestCallDeliversMatchingResponse(t *testing.T) {
	e := NewEndpoint()
	ch := newFakeChannel()
	remote := fakeAddr("server:5683")
	req := &Packet{Code: GET.Code(), Token: []byte{0x42}}

	resultCh := make(chan struct {
		pkt *Packet
		err error
	}, 1)
	go func() {
		pkt, err := e.Call(context.Background(), ch, remote, req)
		resultCh <- struct {
			pkt *Packet
			err error
		}{pkt, err}
	}()

	sent := <-ch.sent
	if string(sent.pkt.Token) != "\x42" {
		t.Fatalf("sent token = %x, want 42", sent.pkt.Token)
	}

	rsp := &Packet{Code: Content, Token: req.Token}
	e.dispatch(ch, remote, rsp)

	got := <-resultCh
	if got.err != nil {
		t.Fatalf("Call returned error: %v", got.err)
	}
	if got.pkt != rsp {
		t.Errorf("Call result = %v, want %v", got.pkt, rsp)
	}
}

func TestCallPingIsResolvedByPong(t *testing.T) {
	e := NewEndpoint()
	ch := newFakeChannel()
	remote := fakeAddr("server:5683")
	ping := &Packet{Code: SignalPing, Token: []byte{0x09}}

	resultCh := make(chan error, 1)
	go func() {
		_, err := e.Call(context.Background(), ch, remote, ping)
		resultCh <- err
	}()

	<-ch.sent // the outbound PING
	e.dispatch(ch, remote, &Packet{Code: SignalPong, Token: ping.Token})

	if err := <-resultCh; err != nil {
		t.Fatalf("Call(PING) = %v, want nil", err)
	}
}

func TestResponseWithNoMatchLeavesMapUntouched(t *testing.T) {
	e := NewEndpoint()
	ch := newFakeChannel()
	remote := fakeAddr("server:5683")
	other := transactionResult(e, []byte("x"), remote)

	// A response with an unrelated token must not disturb the pending
	// transaction for token "x".
	e.dispatch(ch, remote, &Packet{Code: Content, Token: []byte("y")})

	if e.pending.Len() != 1 {
		t.Fatalf("pending transactions = %d, want 1", e.pending.Len())
	}
	select {
	case <-other:
		t.Error("unrelated response resolved an unmatched transaction")
	default:
	}
}
