// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package server provides support code for running and testing
// coap.Endpoints: a single-channel run loop with shutdown, a pair of
// in-memory connected endpoints for tests, and a connection-accepting
// loop for a TCP listener.
package server

import (
	"context"
	"errors"
	"net"

	"github.com/coapcore/coap"
	"github.com/coapcore/coap/channel"
	"github.com/creachadair/taskgroup"
)

// Server runs a single [coap.Endpoint] against a single [coap.Channel]
// until the channel closes or its Serve loop otherwise returns.
type Server struct {
	ep   *coap.Endpoint
	ch   coap.Channel
	done chan struct{}
	err  error
}

// Start runs ep.Serve(ch) in a goroutine and returns immediately.
func Start(ep *coap.Endpoint, ch coap.Channel) *Server {
	s := &Server{ep: ep, ch: ch, done: make(chan struct{})}
	go func() {
		s.err = ep.Serve(ch)
		close(s.done)
	}()
	return s
}

// Endpoint returns the endpoint s is running.
func (s *Server) Endpoint() *coap.Endpoint { return s.ep }

// Stop closes the underlying channel and waits for the serve loop to
// exit. A close-triggered exit is not reported as an error.
func (s *Server) Stop() error {
	cerr := s.ch.Close()
	<-s.done
	if errors.Is(s.err, net.ErrClosed) || errors.Is(s.err, coap.ErrTransport) {
		return cerr
	}
	if cerr != nil {
		return cerr
	}
	return s.err
}

// Local is a pair of in-memory connected endpoints, suitable for testing a
// handler against a real Call/Serve round trip without a socket.
type Local struct {
	A *Server
	B *Server
}

// NewLocal creates a pair of in-memory connected endpoints communicating
// over a direct channel, serving handlerA and handlerB respectively.
func NewLocal(handlerA, handlerB coap.Handler) *Local {
	a2b, b2a := channel.Direct()
	epA := coap.NewEndpoint().Handle(handlerA)
	epB := coap.NewEndpoint().Handle(handlerB)
	return &Local{A: Start(epA, a2b), B: Start(epB, b2a)}
}

// Stop shuts down both endpoints and blocks until both have exited.
func (p *Local) Stop() error {
	aerr := p.A.Stop()
	berr := p.B.Stop()
	if aerr != nil {
		return aerr
	}
	return berr
}

// Accepter yields channels representing newly arrived connections.
type Accepter interface {
	Accept(context.Context) (coap.Channel, error)
}

// Loop accepts connections from acc and starts a server for each one in a
// goroutine. Loop continues until acc closes or ctx ends.
//
// When ctx terminates, every running server is stopped. When acc closes,
// the loop waits for running servers to exit before returning.
func Loop(ctx context.Context, acc Accepter, newEndpoint func() *coap.Endpoint) error {
	g := taskgroup.New(nil)
	for {
		ch, err := acc.Accept(ctx)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				err = nil
			}
			g.Wait()
			return err
		}

		g.Go(func() error {
			sctx, cancel := context.WithCancel(ctx)
			defer cancel()

			s := Start(newEndpoint(), ch)
			go func() { <-sctx.Done(); s.Stop() }()
			<-s.done
			return s.err
		})
	}
}

// NetAccepter adapts a TCP [net.Listener] to the Accepter interface,
// wrapping each accepted connection in a [channel.StreamChannel].
func NetAccepter(lst net.Listener) Accepter {
	return netAccepter{Listener: lst}
}

type netAccepter struct {
	net.Listener
}

func (n netAccepter) Accept(ctx context.Context) (coap.Channel, error) {
	// A net.Listener does not obey a context, so simulate it by closing the
	// listener if ctx ends. The ok channel allows the context watcher to
	// clean up when we return before ctx ends.
	ok := make(chan struct{})
	defer close(ok)
	taskgroup.Go(func() error {
		select {
		case <-ctx.Done():
			n.Listener.Close()
		case <-ok:
		}
		return nil
	})

	conn, err := n.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return channel.StreamIO(conn), nil
}
