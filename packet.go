// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package coap

import (
	"fmt"

	"github.com/coapcore/coap/option"
)

// MaxTokenLength is the longest token RFC 7252 §3 permits: 8 bytes.
const MaxTokenLength = 8

// Packet is the parsed form of a CoAP message, independent of which wire
// framing (UDP or TCP) it arrived on. Type and MessageID are meaningful
// only for the UDP framing; TCP packets leave Type as [TypeNone] and
// MessageID as zero.
type Packet struct {
	Type      MessageType
	Code      Code
	MessageID uint16
	Token     []byte
	Options   option.Set
	Payload   []byte
}

// NewRequest builds a confirmable (Type CON) request packet for the given
// method and token. TCP framing does not encode the type, so over TCP the
// CON type is simply not sent.
func NewRequest(method Method, token []byte) *Packet {
	return &Packet{Type: CON, Code: method.Code(), Token: token}
}

// NewResponse builds a response packet answering req, copying its token.
// The caller supplies the appropriate type: ACK for a piggybacked UDP
// response, CON or NON for a separate response, or TypeNone over TCP.
func NewResponse(req *Packet, typ MessageType, code Code) *Packet {
	return &Packet{Type: typ, Code: code, MessageID: req.MessageID, Token: req.Token}
}

// String returns a human-friendly rendering of the packet, primarily for
// logging and test failure messages.
func (p *Packet) String() string {
	if p == nil {
		return "Packet(nil)"
	}
	if p.Type == TypeNone {
		return fmt.Sprintf("Packet(%v, token=%x, %d opts, %d payload bytes)",
			p.Code, p.Token, p.Options.Len(), len(p.Payload))
	}
	return fmt.Sprintf("Packet(%v %v, id=%d, token=%x, %d opts, %d payload bytes)",
		p.Type, p.Code, p.MessageID, p.Token, p.Options.Len(), len(p.Payload))
}
