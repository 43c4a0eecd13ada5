// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package coap

import (
	"github.com/coapcore/coap/option"
	"github.com/coapcore/coap/rawio"
	"github.com/creachadair/mds/value"
)

// EncodeUDP renders p in the RFC 7252 §3 UDP wire format: a 4-byte fixed
// header (version/type/TKL, code, message ID), the token, the option
// sequence, and an optional 0xFF-prefixed payload.
func EncodeUDP(p *Packet) ([]byte, error) {
	if len(p.Token) > MaxTokenLength {
		return nil, formatErrorf("token length %d exceeds %d", len(p.Token), MaxTokenLength)
	}
	var w rawio.Writer
	const version = 1
	w.WriteU8(byte(version<<6) | byte(p.Type&0x03)<<4 | byte(len(p.Token)))
	w.WriteU8(byte(p.Code))
	w.WriteU16(p.MessageID)
	w.WriteBytes(p.Token...)

	if err := option.Encode(&w, p.Options); err != nil {
		return nil, err
	}
	if len(p.Payload) > 0 {
		w.WriteU8(option.PayloadMarker)
		w.WriteBytes(p.Payload...)
	}
	return w.Bytes(), nil
}

// DecodeUDP parses a single UDP datagram's worth of bytes as a CoAP
// message. The datagram's extent is already known to the caller (from the
// recvfrom length), so unlike TCP framing there is no "insufficient data"
// case: any truncation is a format error.
func DecodeUDP(buf []byte) (*Packet, error) {
	r := rawio.NewPeekReader(buf)
	head, err := r.ReadU8()
	if err != nil {
		return nil, formatErrorf("short header: %v", err)
	}
	version := head >> 6
	if version != 1 {
		return nil, formatErrorf("unsupported version %d", version)
	}
	typ := MessageType((head >> 4) & 0x03)
	tkl := int(head & 0x0F)
	if tkl > MaxTokenLength {
		return nil, formatErrorf("token length %d exceeds %d", tkl, MaxTokenLength)
	}

	code, err := r.ReadU8()
	if err != nil {
		return nil, formatErrorf("short header: %v", err)
	}
	mid, err := r.ReadU16()
	if err != nil {
		return nil, formatErrorf("short header: %v", err)
	}
	token, err := r.ReadExact(tkl)
	if err != nil {
		return nil, formatErrorf("short token: %v", err)
	}

	decodeOptions := value.Cond(Code(code).IsSignal(), option.DecodeSignal, option.Decode)
	opts, payload, err := decodeOptions(r.Rest())
	if err != nil {
		return nil, formatErrorf("options: %v", err)
	}
	var tokenCopy []byte
	if len(token) > 0 {
		tokenCopy = append([]byte(nil), token...)
	}
	return &Packet{
		Type:      typ,
		Code:      Code(code),
		MessageID: mid,
		Token:     tokenCopy,
		Options:   opts,
		Payload:   payload,
	}, nil
}
