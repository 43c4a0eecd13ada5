// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package signaling_test

import (
	"bytes"
	"testing"

	"github.com/coapcore/coap"
	"github.com/coapcore/coap/signaling"
)

func TestPingPongToken(t *testing.T) {
	ping := signaling.Ping([]byte{0x01})
	if ping.Code != coap.SignalPing {
		t.Errorf("Ping.Code = %v, want %v", ping.Code, coap.SignalPing)
	}
	pong := signaling.Pong(ping.Token)
	if pong.Code != coap.SignalPong {
		t.Errorf("Pong.Code = %v, want %v", pong.Code, coap.SignalPong)
	}
	if !bytes.Equal(pong.Token, []byte{0x01}) {
		t.Errorf("Pong.Token = % X, want 01", pong.Token)
	}
}

func TestCSMEncodesMaxMessageSize(t *testing.T) {
	p := signaling.CSM(1024, true)
	v, ok := p.Options.Get(signaling.OptMaxMessageSize)
	if !ok {
		t.Fatal("CSM missing max-message-size option")
	}
	got := uint32(0)
	for _, b := range v {
		got = got<<8 | uint32(b)
	}
	if got != 1024 {
		t.Errorf("max-message-size = %d, want 1024", got)
	}
	if !p.Options.Has(signaling.OptBlockWiseTransfer) {
		t.Error("CSM missing block-wise-transfer option")
	}
}

func TestCSMRoundTripsOverTCP(t *testing.T) {
	// The block-wise-transfer option carries an empty value and shares its
	// number with a message-option registry entry that forbids an empty
	// value (ETag, number 4); decoding a signaling message must not apply
	// that registry.
	want := signaling.CSM(1024, true)

	wire, err := coap.EncodeTCP(want)
	if err != nil {
		t.Fatalf("EncodeTCP: %v", err)
	}
	got, n, err := coap.DecodeTCP(wire)
	if err != nil {
		t.Fatalf("DecodeTCP: %v", err)
	}
	if n != len(wire) {
		t.Errorf("DecodeTCP consumed %d bytes, want %d", n, len(wire))
	}
	if got.Code != want.Code {
		t.Errorf("Code = %v, want %v", got.Code, want.Code)
	}
	if !got.Options.Has(signaling.OptBlockWiseTransfer) {
		t.Error("decoded CSM missing block-wise-transfer option")
	}
	v, ok := got.Options.Get(signaling.OptMaxMessageSize)
	if !ok {
		t.Fatal("decoded CSM missing max-message-size option")
	}
	gotSize := uint32(0)
	for _, b := range v {
		gotSize = gotSize<<8 | uint32(b)
	}
	if gotSize != 1024 {
		t.Errorf("max-message-size = %d, want 1024", gotSize)
	}
}

func TestAbortCarriesReason(t *testing.T) {
	p := signaling.Abort("bad CSM option")
	if p.Code != coap.SignalAbort {
		t.Errorf("Abort.Code = %v, want %v", p.Code, coap.SignalAbort)
	}
	if string(p.Payload) != "bad CSM option" {
		t.Errorf("Abort.Payload = %q, want %q", p.Payload, "bad CSM option")
	}
}
