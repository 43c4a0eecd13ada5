// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package server_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/coapcore/coap"
	"github.com/coapcore/coap/channel"
	"github.com/coapcore/coap/server"
	"github.com/fortytw2/leaktest"
)

func echoHandler() coap.Handler {
	return coap.HandlerFunc(func(ctx context.Context, req *coap.Packet, remote net.Addr) (*coap.Packet, error) {
		rsp := coap.NewResponse(req, coap.TypeNone, coap.Content)
		rsp.Payload = req.Payload
		return rsp, nil
	})
}

// TestStartServesUntilStop exercises a direct pair the same way NewLocal
// wires one, but keeps the raw channels in scope so the test can drive a
// Call directly. A direct channel always reports the fixed pseudo-remote
// "B" (or "A") to Recv regardless of what Send was given, so the remote
// passed to Call only needs to produce that same string.
func TestStartServesUntilStop(t *testing.T) {
	defer leaktest.Check(t)()

	a2b, b2a := channel.Direct()
	epA := coap.NewEndpoint()
	epB := coap.NewEndpoint().Handle(echoHandler())

	sb := server.Start(epB, b2a)
	defer sb.Stop()
	sa := server.Start(epA, a2b)
	defer sa.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	req := &coap.Packet{Code: coap.GET.Code(), Token: []byte{0x07}, Payload: []byte("ping")}
	rsp, err := epA.Call(ctx, a2b, fixedAddr("B"), req)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if string(rsp.Payload) != "ping" {
		t.Errorf("payload = %q, want %q", rsp.Payload, "ping")
	}
}

type fixedAddr string

func (f fixedAddr) Network() string { return "direct" }
func (f fixedAddr) String() string  { return string(f) }

func TestNewLocalStopIsSymmetric(t *testing.T) {
	pair := server.NewLocal(echoHandler(), echoHandler())
	if err := pair.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestLoopStopsWhenListenerCloses(t *testing.T) {
	lst, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	acc := server.NetAccepter(lst)

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		done <- server.Loop(ctx, acc, func() *coap.Endpoint {
			return coap.NewEndpoint().Handle(echoHandler())
		})
	}()

	lst.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Loop returned %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Loop did not return after listener closed")
	}
}
