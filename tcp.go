// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package coap

import (
	"github.com/coapcore/coap/option"
	"github.com/coapcore/coap/rawio"
	"github.com/creachadair/mds/value"
)

// EncodeTCP renders p in the draft-ietf-core-coap-tcp-tls-09 §3 length-
// prefixed framing: a Len/TKL header nibble pair, an extended length field
// when the options+payload length does not fit in the Len nibble, the
// code, the token, and the option sequence followed by an optional
// 0xFF-prefixed payload. TCP framing carries no message type or message
// ID; p.Type and p.MessageID are ignored.
func EncodeTCP(p *Packet) ([]byte, error) {
	if len(p.Token) > MaxTokenLength {
		return nil, formatErrorf("token length %d exceeds %d", len(p.Token), MaxTokenLength)
	}

	var body rawio.Writer
	if err := option.Encode(&body, p.Options); err != nil {
		return nil, err
	}
	if len(p.Payload) > 0 {
		body.WriteU8(option.PayloadMarker)
		body.WriteBytes(p.Payload...)
	}

	lenNibble, lenExt, err := splitLenNibble(uint32(body.Len()))
	if err != nil {
		return nil, err
	}

	var w rawio.Writer
	w.WriteU8(byte(lenNibble<<4) | byte(len(p.Token)))
	w.WriteBytes(lenExt...)
	w.WriteU8(byte(p.Code))
	w.WriteBytes(p.Token...)
	w.WriteBytes(body.Bytes()...)
	return w.Bytes(), nil
}

// DecodeTCP attempts to parse a single message from the front of buf. If
// buf does not yet hold a complete message, it returns [ErrShortRead] and
// the caller should retry once more bytes have arrived; buf is never
// partially consumed on that path. On success it returns the decoded
// packet and the number of bytes of buf the message occupied, so the
// caller can advance its read buffer past it.
func DecodeTCP(buf []byte) (*Packet, int, error) {
	r := rawio.NewPeekReader(buf)

	head, err := r.ReadU8()
	if err != nil {
		return nil, 0, shortOrFormat(err)
	}
	lenNibble := int(head >> 4)
	tkl := int(head & 0x0F)
	if tkl > MaxTokenLength {
		return nil, 0, formatErrorf("token length %d exceeds %d", tkl, MaxTokenLength)
	}

	bodyLen, err := readLenExtended(r, lenNibble)
	if err != nil {
		return nil, 0, shortOrFormat(err)
	}

	code, err := r.ReadU8()
	if err != nil {
		return nil, 0, shortOrFormat(err)
	}
	token, err := r.ReadExact(tkl)
	if err != nil {
		return nil, 0, shortOrFormat(err)
	}
	body, err := r.ReadExact(int(bodyLen))
	if err != nil {
		return nil, 0, shortOrFormat(err)
	}

	decodeOptions := value.Cond(Code(code).IsSignal(), option.DecodeSignal, option.Decode)
	opts, payload, err := decodeOptions(body)
	if err != nil {
		return nil, 0, formatErrorf("options: %v", err)
	}
	var tokenCopy []byte
	if len(token) > 0 {
		tokenCopy = append([]byte(nil), token...)
	}
	return &Packet{
		Type:    TypeNone,
		Code:    Code(code),
		Token:   tokenCopy,
		Options: opts,
		Payload: payload,
	}, r.Pos(), nil
}

// shortOrFormat maps a rawio short-read condition to [ErrShortRead], since
// at this layer it means "wait for more bytes", not a malformed message.
func shortOrFormat(err error) error {
	if err == rawio.ErrShortRead {
		return ErrShortRead
	}
	return formatErrorf("%v", err)
}

// splitLenNibble picks the minimal-width Len nibble encoding for the
// length of the TCP body (options + payload), per the same extended-byte
// table used for option delta/length, but with a wider final tier: 0..12
// direct, 13 means "+1 byte, +13", 14 means "+2 bytes, +269", and 15 means
// "+4 bytes, +65805".
func splitLenNibble(v uint32) (nibble int, ext []byte, err error) {
	switch {
	case v < 13:
		return int(v), nil, nil
	case v < 269:
		return 13, []byte{byte(v - 13)}, nil
	case v < 65805:
		ev := v - 269
		return 14, []byte{byte(ev >> 8), byte(ev)}, nil
	default:
		ev := v - 65805
		return 15, []byte{byte(ev >> 24), byte(ev >> 16), byte(ev >> 8), byte(ev)}, nil
	}
}

func readLenExtended(r *rawio.PeekReader, nibble int) (uint32, error) {
	switch nibble {
	case 13:
		b, err := r.ReadU8()
		if err != nil {
			return 0, err
		}
		return uint32(b) + 13, nil
	case 14:
		v, err := r.ReadU16()
		if err != nil {
			return 0, err
		}
		return uint32(v) + 269, nil
	case 15:
		v, err := r.ReadU32()
		if err != nil {
			return 0, err
		}
		return v + 65805, nil
	default:
		return uint32(nibble), nil
	}
}
