// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package coap_test

import (
	"bytes"
	"testing"

	"github.com/coapcore/coap"
)

func TestTCPRoundTripContentWithLargePayload(t *testing.T) {
	p := &coap.Packet{Code: coap.Content}
	p.Options.SetURIPath("abcd") // encodes to exactly 5 bytes: B4 'abcd'
	p.Payload = bytes.Repeat([]byte{0x5A}, 300)

	got, err := coap.EncodeTCP(p)
	if err != nil {
		t.Fatalf("EncodeTCP: %v", err)
	}

	// options_len(5) + marker(1) + payload(300) = 306, which needs the
	// 14-nibble extended length tier: 306-269 = 37 = 0x0025.
	wantHeader := []byte{0xE0, 0x00, 0x25, byte(coap.Content)}
	if !bytes.Equal(got[:len(wantHeader)], wantHeader) {
		t.Fatalf("header = % X, want % X", got[:len(wantHeader)], wantHeader)
	}

	dec, n, err := coap.DecodeTCP(got)
	if err != nil {
		t.Fatalf("DecodeTCP: %v", err)
	}
	if n != len(got) {
		t.Errorf("consumed %d bytes, want %d", n, len(got))
	}
	if dec.Code != p.Code {
		t.Errorf("Code = %v, want %v", dec.Code, p.Code)
	}
	if !dec.Options.Equal(p.Options) {
		t.Errorf("Options = %+v, want %+v", dec.Options, p.Options)
	}
	if !bytes.Equal(dec.Payload, p.Payload) {
		t.Errorf("Payload mismatch: got %d bytes, want %d", len(dec.Payload), len(p.Payload))
	}
}

func TestTCPLengthNibbleSelectsMinimalWidth(t *testing.T) {
	sizes := []int{0, 12, 13, 268, 269, 65804, 65805, 70000}
	for _, n := range sizes {
		p := &coap.Packet{Code: coap.Content}
		if n > 0 {
			// Body = one payload-marker byte plus (n-1) payload bytes, no
			// options, so the body is exactly n bytes long.
			p.Payload = bytes.Repeat([]byte{0x01}, n-1)
		}
		raw, err := coap.EncodeTCP(p)
		if err != nil {
			t.Fatalf("EncodeTCP(body=%d): %v", n, err)
		}
		// raw = header(1) + extended length + code(1) + body(n), no token.
		wantExt := 4
		switch {
		case n < 13:
			wantExt = 0
		case n < 269:
			wantExt = 1
		case n < 65805:
			wantExt = 2
		}
		if ext := len(raw) - 2 - n; ext != wantExt {
			t.Errorf("body=%d: extended length is %d bytes, want %d", n, ext, wantExt)
		}
		dec, consumed, err := coap.DecodeTCP(raw)
		if err != nil {
			t.Fatalf("DecodeTCP(body=%d): %v", n, err)
		}
		if consumed != len(raw) {
			t.Errorf("body=%d: consumed %d, want %d", n, consumed, len(raw))
		}
		if len(dec.Payload) != len(p.Payload) {
			t.Errorf("body=%d: payload length = %d, want %d", n, len(dec.Payload), len(p.Payload))
		}
	}
}

func TestTCPInsufficientDataDoesNotConsume(t *testing.T) {
	p := &coap.Packet{Code: coap.Content}
	p.Options.SetURIPath("abcd")
	// header(1) + extlen(1, since body=17 is in [13,269)) + code(1) + body(17) = 20.
	p.Payload = bytes.Repeat([]byte{0x5A}, 11) // options(5) + marker(1) + payload(11) = body(17)
	full, err := coap.EncodeTCP(p)
	if err != nil {
		t.Fatalf("EncodeTCP: %v", err)
	}
	if len(full) != 20 {
		t.Fatalf("constructed packet is %d bytes, want 20", len(full))
	}

	if _, _, err := coap.DecodeTCP(full[:3]); err != coap.ErrShortRead {
		t.Fatalf("DecodeTCP(3 bytes) = %v, want ErrShortRead", err)
	}

	dec, n, err := coap.DecodeTCP(full)
	if err != nil {
		t.Fatalf("DecodeTCP(20 bytes): %v", err)
	}
	if n != 20 {
		t.Errorf("consumed %d bytes, want 20", n)
	}
	if dec.Code != p.Code {
		t.Errorf("Code = %v, want %v", dec.Code, p.Code)
	}
}
