// Copyright (C) 2022 Michael J. Fromberger. All Rights Reserved.

package channel_test

import (
	"testing"

	"github.com/coapcore/coap"
	"github.com/coapcore/coap/channel"
	"github.com/creachadair/taskgroup"
)

func TestDirect(t *testing.T) {
	a, b := channel.Direct()

	g := taskgroup.New(nil)
	g.Go(func() error {
		pkt := &coap.Packet{Code: coap.GET.Code()}
		if err := a.Send(pkt, nil); err != nil {
			t.Errorf("A Send: %v", err)
		}
		got, _, err := a.Recv()
		if err != nil {
			t.Errorf("A Recv: %v", err)
		}
		if got != pkt {
			t.Errorf("Packet: got %v, want %v", got, pkt)
		}
		return nil
	})
	g.Go(func() error {
		pkt, remote, err := b.Recv()
		if err != nil {
			t.Errorf("B Recv: %v", err)
		}
		if remote == nil {
			t.Error("B Recv: remote address is nil")
		}
		if err := b.Send(pkt, nil); err != nil {
			t.Errorf("B Send: %v", err)
		}
		return nil
	})
	g.Wait()

	if err := a.Close(); err != nil {
		t.Errorf("a.Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("b.Close: %v", err)
	}

	if err := a.Send(nil, nil); err == nil {
		t.Error("a.Send after close did not report an error")
	}
	if err := b.Send(nil, nil); err == nil {
		t.Error("b.Send after close did not report an error")
	}
	if pkt, _, err := a.Recv(); err == nil {
		t.Errorf("a.Recv after close: got %+v", pkt)
	} else {
		t.Logf("Error OK: %v", err)
	}
	if pkt, _, err := b.Recv(); err == nil {
		t.Errorf("b.Recv after close: got %+v", pkt)
	} else {
		t.Logf("Error OK: %v", err)
	}
}
