// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package blockstream drives a block-wise transfer (RFC 7959) across a
// sequence of ordinary request/response calls, so a caller can Get or Put
// a payload larger than fits in one message without walking the Block1 or
// Block2 option by hand.
package blockstream

import (
	"context"
	"fmt"
	"net"

	"github.com/coapcore/coap"
	"github.com/coapcore/coap/block"
)

// Get repeatedly issues req (expected to carry a GET or FETCH code) over
// ch, advancing a Block2 option across responses, and returns the
// reassembled payload. req.Token is reused unchanged across the whole
// transfer, per RFC 7959 §2.4.
func Get(ctx context.Context, ep *coap.Endpoint, ch coap.Channel, remote net.Addr, req *coap.Packet, size block.Size) ([]byte, error) {
	opt := block.Option{Num: 0, Size: size}
	var out []byte
	for {
		part := *req
		part.Options = req.Options.Clone()
		if err := part.Options.SetBlock2(opt); err != nil {
			return nil, fmt.Errorf("blockstream: encode Block2: %w", err)
		}

		rsp, err := ep.Call(ctx, ch, remote, &part)
		if err != nil {
			return nil, err
		}
		if !rsp.Code.IsResponse() || rsp.Code.Class() != 2 {
			return nil, fmt.Errorf("blockstream: unexpected response %v", rsp.Code)
		}

		got, present, err := rsp.Options.Block2()
		if err != nil {
			return nil, fmt.Errorf("blockstream: decode Block2: %w", err)
		}
		out = append(out, rsp.Payload...)
		if !present || !got.More {
			return out, nil
		}
		// The M bit in a Block2 request has no meaning; only Num and Size
		// select the next block to fetch.
		opt = block.Option{Num: got.Num + 1, Size: got.Size}
	}
}

// Put slices payload into blocks of size and issues req (expected to carry
// a PUT or POST code) once per block over ch, advancing a Block1 option,
// and returns the final response -- the one answering the last block.
func Put(ctx context.Context, ep *coap.Endpoint, ch coap.Channel, remote net.Addr, req *coap.Packet, payload []byte, size block.Size) (*coap.Packet, error) {
	opt := block.Option{Num: 0, Size: size, More: len(payload) > int(size)}
	var rsp *coap.Packet
	for {
		part, ok := opt.CreatePart(payload)
		if !ok {
			return rsp, nil
		}

		pkt := *req
		pkt.Payload = part
		pkt.Options = req.Options.Clone()
		if err := pkt.Options.SetBlock1(opt); err != nil {
			return nil, fmt.Errorf("blockstream: encode Block1: %w", err)
		}

		var err error
		rsp, err = ep.Call(ctx, ch, remote, &pkt)
		if err != nil {
			return nil, err
		}
		if !rsp.Code.IsResponse() || rsp.Code.Class() != 2 {
			return rsp, fmt.Errorf("blockstream: unexpected response %v", rsp.Code)
		}

		if !opt.More {
			return rsp, nil
		}
		opt = opt.NextBlock(payload)
	}
}
