// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package blockstream_test

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/coapcore/coap"
	"github.com/coapcore/coap/block"
	"github.com/coapcore/coap/blockstream"
	"github.com/coapcore/coap/channel"
)

func resourceHandler(full []byte, sink *[]byte) coap.Handler {
	return coap.HandlerFunc(func(ctx context.Context, req *coap.Packet, remote net.Addr) (*coap.Packet, error) {
		switch req.Code.Method() {
		case coap.GET:
			opt, present, err := req.Options.Block2()
			if err != nil {
				return nil, err
			}
			if !present {
				opt = block.Option{Num: 0, Size: block.Size64}
			}
			part, ok := opt.CreatePart(full)
			if !ok {
				part = nil
			}
			opt.More = len(full) > int(opt.Num+1)*int(opt.Size)
			rsp := coap.NewResponse(req, coap.TypeNone, coap.Content)
			rsp.Payload = part
			if err := rsp.Options.SetBlock2(opt); err != nil {
				return nil, err
			}
			return rsp, nil
		case coap.PUT:
			opt, present, err := req.Options.Block1()
			if err != nil {
				return nil, err
			}
			*sink = append(*sink, req.Payload...)
			rsp := coap.NewResponse(req, coap.TypeNone, coap.Changed)
			if present {
				if err := rsp.Options.SetBlock1(opt); err != nil {
					return nil, err
				}
			}
			return rsp, nil
		}
		return coap.NewResponse(req, coap.TypeNone, coap.MethodNotAllowed), nil
	})
}

func TestGetReassemblesAcrossBlocks(t *testing.T) {
	full := bytes.Repeat([]byte("0123456789abcdef"), 20) // 320 bytes
	a2b, b2a := channel.Direct()

	epServer := coap.NewEndpoint().Handle(resourceHandler(full, new([]byte)))
	go epServer.Serve(b2a)

	epClient := coap.NewEndpoint()
	go epClient.Serve(a2b)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req := coap.NewRequest(coap.GET, []byte{0x01})
	req.Options.SetURIPath("big")

	got, err := blockstream.Get(ctx, epClient, a2b, fixedAddr("B"), req, block.Size64)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, full) {
		t.Fatalf("got %d bytes, want %d bytes matching original", len(got), len(full))
	}
}

func TestPutSlicesAcrossBlocks(t *testing.T) {
	full := bytes.Repeat([]byte("x"), 200)
	a2b, b2a := channel.Direct()

	var received []byte
	epServer := coap.NewEndpoint().Handle(resourceHandler(nil, &received))
	go epServer.Serve(b2a)

	epClient := coap.NewEndpoint()
	go epClient.Serve(a2b)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req := coap.NewRequest(coap.PUT, []byte{0x02})
	req.Options.SetURIPath("big")

	rsp, err := blockstream.Put(ctx, epClient, a2b, fixedAddr("B"), req, full, block.Size32)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if rsp.Code != coap.Changed {
		t.Errorf("final code = %v, want Changed", rsp.Code)
	}
	if !bytes.Equal(received, full) {
		t.Fatalf("server received %d bytes, want %d bytes matching original", len(received), len(full))
	}
}

type fixedAddr string

func (f fixedAddr) Network() string { return "direct" }
func (f fixedAddr) String() string  { return string(f) }
