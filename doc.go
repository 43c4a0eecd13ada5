// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package coap implements the core of a [CoAP] endpoint: wire codecs for
// both the UDP framing (RFC 7252) and the length-prefixed TCP framing
// (draft-ietf-core-coap-tcp-tls), and the transaction map that correlates
// a request with its eventual response.
//
// # Packets
//
// [Packet] is the parsed form of a message, independent of which framing
// carried it. Use [EncodeUDP]/[DecodeUDP] and [EncodeTCP]/[DecodeTCP] to
// convert between a Packet and its wire bytes.
//
// # Endpoints
//
// The core type for dispatch is [Endpoint]. An Endpoint owns a single
// transaction map shared across every connection it serves, so requests
// against different remotes never collide:
//
//	ep := coap.NewEndpoint().Handle(mux)
//	go ep.Serve(ch)
//
// To issue a request and wait for its response, use [Endpoint.Call]:
//
//	rsp, err := ep.Call(ctx, ch, remote, req)
//
// # Channels
//
// The [Channel] interface defines the ability to send and receive packets
// together with the remote address each is addressed to or arrived from.
// The channel package provides implementations over in-memory pairs, TCP
// byte streams, and UDP packet sockets.
//
// # Handlers
//
// Register a [Handler] with [Endpoint.Handle] to answer inbound requests.
// [HandlerMux] provides exact Uri-Path and method routing; it does not
// implement a resource tree, which is left to a layer built on top of
// this package.
//
// # Options and block-wise transfer
//
// The option package implements the delta-encoded option container and
// typed accessors for the well-known option numbers. The block package
// implements the RFC 7959 block-wise transfer option value and the
// slicing operations used to walk a payload one block at a time,
// including the BERT extension for reliable transports.
//
// # Metrics
//
// Endpoints maintain a collection of metrics while running. Use
// [Endpoint.Metrics] to obtain an [expvar.Map] containing:
//
//   - packets_received: counter of packets received
//   - packets_dropped: counter of packets received and discarded
//   - calls_in: counter of inbound requests received
//   - calls_in_failed: counter of inbound requests whose handler failed
//   - calls_pending: gauge of outbound calls currently awaiting a response
//
// [CoAP]: https://www.rfc-editor.org/rfc/rfc7252
package coap
