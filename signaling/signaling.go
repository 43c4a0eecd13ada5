// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package signaling builds the class-7 signaling messages used by the
// reliable (TCP/TLS/WebSocket) CoAP transports to negotiate capabilities
// and to abandon a connection (draft-ietf-core-coap-tcp-tls-09 §5).
package signaling

import "github.com/coapcore/coap"

// CSM option numbers (draft-ietf-core-coap-tcp-tls-09 §5.3).
const (
	OptMaxMessageSize    = 2
	OptBlockWiseTransfer = 4
)

// Abort option numbers (§5.6).
const OptBadCSMOption = 2

// CSM builds a Capability and Settings Message announcing maxMessageSize
// and whether block-wise transfer is supported.
func CSM(maxMessageSize uint32, blockWise bool) *coap.Packet {
	p := &coap.Packet{Type: coap.TypeNone, Code: coap.SignalCSM}
	if maxMessageSize != 0 {
		p.Options.Add(OptMaxMessageSize, putUint(maxMessageSize))
	}
	if blockWise {
		p.Options.Add(OptBlockWiseTransfer, nil)
	}
	return p
}

// Ping builds a PING signal carrying token, used as a reliable-transport
// heartbeat; the peer must answer with a Pong carrying the same token.
func Ping(token []byte) *coap.Packet {
	return &coap.Packet{Type: coap.TypeNone, Code: coap.SignalPing, Token: token}
}

// Pong builds the PONG answering a Ping received with the given token.
func Pong(token []byte) *coap.Packet {
	return &coap.Packet{Type: coap.TypeNone, Code: coap.SignalPong, Token: token}
}

// Release builds a RELEASE signal, a graceful request that the peer close
// the connection.
func Release(reason string) *coap.Packet {
	p := &coap.Packet{Type: coap.TypeNone, Code: coap.SignalRelease}
	if reason != "" {
		p.Payload = []byte(reason)
	}
	return p
}

// Abort builds an ABORT signal, an immediate and unilateral termination of
// the connection; the sender must not expect a reply.
func Abort(reason string) *coap.Packet {
	p := &coap.Packet{Type: coap.TypeNone, Code: coap.SignalAbort}
	if reason != "" {
		p.Payload = []byte(reason)
	}
	return p
}

// putUint encodes v as a CoAP "uint" option value: big-endian with leading
// zero bytes elided.
func putUint(v uint32) []byte {
	buf := []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	i := 0
	for i < 3 && buf[i] == 0 {
		i++
	}
	return buf[i:]
}
