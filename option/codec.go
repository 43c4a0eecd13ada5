// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package option

import (
	"errors"
	"fmt"

	"github.com/coapcore/coap/rawio"
)

// PayloadMarker is the single byte that separates options from payload.
const PayloadMarker = 0xFF

// ErrFormat reports a malformed option encoding: a reserved nibble that is
// not the payload marker, a value whose length violates the option's
// registered range, or a truncated extended delta/length field.
var ErrFormat = errors.New("option: malformed encoding")

// Decode parses the ordered option list at the front of buf. It stops at
// the end of buf or at a payload marker (0xFF), and returns the remaining
// bytes after the marker as payload. If buf does not contain a marker, the
// returned payload is nil and every byte of buf is consumed as options.
//
// Per spec.md §4.2, an unknown critical (odd-numbered) option is not an
// error at this layer -- criticality is a dispatch-level concern.
//
// Decode validates each option's value length against the message-option
// registry (RFC 7252 §5.10). Signaling (class 7) messages use a disjoint
// option-number registry of their own (draft-ietf-core-coap-tcp-tls-09
// §5) where the same numbers mean different things with different value
// ranges; use [DecodeSignal] for those.
func Decode(buf []byte) (Set, []byte, error) {
	return decode(buf, true)
}

// DecodeSignal parses the ordered option list of a signaling (class 7)
// message. It is identical to [Decode] except that it does not hold
// option values to the message-option registry's value-length ranges,
// since signaling options are drawn from their own, separate registry.
func DecodeSignal(buf []byte) (Set, []byte, error) {
	return decode(buf, false)
}

func decode(buf []byte, checkRange bool) (Set, []byte, error) {
	var s Set
	r := rawio.NewPeekReader(buf)
	prev := Number(0)

	for {
		if r.Len() == 0 {
			return s, nil, nil
		}
		head, err := r.PeekU8()
		if err != nil {
			return s, nil, fmt.Errorf("option header: %w", err)
		}
		if head == PayloadMarker {
			r.ReadU8()
			if r.Len() == 0 {
				return s, nil, fmt.Errorf("%w: payload marker with no payload", ErrFormat)
			}
			return s, r.Rest(), nil
		}
		r.ReadU8()

		deltaNibble := int(head >> 4)
		lenNibble := int(head & 0x0F)
		if deltaNibble == 15 || lenNibble == 15 {
			return s, nil, fmt.Errorf("%w: reserved nibble 15", ErrFormat)
		}

		delta, err := readExtended(r, deltaNibble)
		if err != nil {
			return s, nil, fmt.Errorf("%w: option delta: %v", ErrFormat, err)
		}
		length, err := readExtended(r, lenNibble)
		if err != nil {
			return s, nil, fmt.Errorf("%w: option length: %v", ErrFormat, err)
		}

		value, err := r.ReadExact(int(length))
		if err != nil {
			return s, nil, fmt.Errorf("option value: %w", err)
		}

		num := prev + Number(delta)
		if checkRange {
			if min, max := num.ValueRange(); len(value) < min || len(value) > max {
				return s, nil, fmt.Errorf("%w: option %v value length %d outside [%d,%d]", ErrFormat, num, len(value), min, max)
			}
		}

		var stored []byte
		if len(value) > 0 {
			stored = append([]byte(nil), value...)
		}
		s.Add(num, stored)
		prev = num
	}
}

// readExtended resolves the nibble encoding table shared by option delta and
// option length fields: 0..12 encode the value directly, 13 means "read one
// more byte, add 13", 14 means "read two more bytes big-endian, add 269".
func readExtended(r *rawio.PeekReader, nibble int) (uint32, error) {
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
	default:
		return uint32(nibble), nil
	}
}

// Encode appends the wire encoding of s, in ascending option-number order,
// to w. It does not write a payload marker; callers append that themselves
// once they know whether a payload follows, per spec.md §4.2's encode
// contract.
func Encode(w *rawio.Writer, s Set) error {
	prev := Number(0)
	for _, e := range s.entries {
		for _, value := range e.values {
			delta := uint32(e.number - prev)
			if err := writeOption(w, delta, value); err != nil {
				return err
			}
			prev = e.number
		}
	}
	return nil
}

func writeOption(w *rawio.Writer, delta uint32, value []byte) error {
	deltaNibble, deltaExt, err := splitExtended(delta)
	if err != nil {
		return fmt.Errorf("option delta %d: %w", delta, err)
	}
	lenNibble, lenExt, err := splitExtended(uint32(len(value)))
	if err != nil {
		return fmt.Errorf("option length %d: %w", len(value), err)
	}

	w.WriteU8(byte(deltaNibble<<4) | byte(lenNibble))
	w.WriteBytes(deltaExt...)
	w.WriteBytes(lenExt...)
	w.WriteBytes(value...)
	return nil
}

// splitExtended picks the minimal-width nibble encoding for v, returning the
// nibble value (0..14) and any extended bytes that must follow it.
func splitExtended(v uint32) (nibble int, ext []byte, err error) {
	switch {
	case v < 13:
		return int(v), nil, nil
	case v < 269:
		return 13, []byte{byte(v - 13)}, nil
	case v < 65805:
		ev := v - 269
		return 14, []byte{byte(ev >> 8), byte(ev)}, nil
	default:
		return 0, nil, fmt.Errorf("value %d exceeds maximum representable option delta/length", v)
	}
}
