// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package coap

import (
	"context"
	"net"
	"strings"
)

// A Handler answers an inbound request. The context carries the Endpoint
// via [ContextEndpoint]; the endpoint never cancels it, including when the
// connection to remote is torn down. A handler that returns an
// error causes the endpoint to synthesize a 5.00 Internal Server Error
// response; to control the response code directly, return a *Packet from
// a [HandlerFunc] registered on the mux instead.
type Handler interface {
	ServeCoAP(ctx context.Context, req *Packet, remote net.Addr) (*Packet, error)
}

// HandlerFunc adapts a function to a [Handler].
type HandlerFunc func(ctx context.Context, req *Packet, remote net.Addr) (*Packet, error)

// ServeCoAP implements [Handler].
func (f HandlerFunc) ServeCoAP(ctx context.Context, req *Packet, remote net.Addr) (*Packet, error) {
	return f(ctx, req, remote)
}

// HandlerMux routes requests by exact Uri-Path match and request method.
// It deliberately does not implement prefix or wildcard matching, or any
// notion of a resource tree; a resource hierarchy is a concern for a
// layer built on top of this package.
type HandlerMux struct {
	routes map[string]map[Method]Handler
}

// NewHandlerMux constructs an empty mux.
func NewHandlerMux() *HandlerMux {
	return &HandlerMux{routes: make(map[string]map[Method]Handler)}
}

// Handle registers h to serve method requests against the exact path. A
// path is matched against the joined Uri-Path segments of the request,
// e.g. "sensors/temp" for Uri-Path=["sensors","temp"]. Handle returns m to
// permit chaining.
func (m *HandlerMux) Handle(path string, method Method, h Handler) *HandlerMux {
	path = strings.Trim(path, "/")
	if m.routes[path] == nil {
		m.routes[path] = make(map[Method]Handler)
	}
	m.routes[path][method] = h
	return m
}

// HandleFunc is a convenience wrapper for Handle taking a plain function.
func (m *HandlerMux) HandleFunc(path string, method Method, f HandlerFunc) *HandlerMux {
	return m.Handle(path, method, f)
}

// ServeCoAP implements [Handler]. A path with no registered route answers
// 4.04 Not Found; a path with routes but none for the request's method
// answers 4.05 Method Not Allowed.
func (m *HandlerMux) ServeCoAP(ctx context.Context, req *Packet, remote net.Addr) (*Packet, error) {
	path := strings.Join(req.Options.URIPaths(), "/")
	byMethod, ok := m.routes[path]
	if !ok {
		return NewResponse(req, responseType(req), NotFound), nil
	}
	h, ok := byMethod[req.Code.Method()]
	if !ok {
		return NewResponse(req, responseType(req), MethodNotAllowed), nil
	}
	return h.ServeCoAP(ctx, req, remote)
}

// responseType picks the message type for a response piggybacked onto req:
// TypeNone for a TCP-framed request, ACK for a CON request (RFC 7252 §4.2),
// and NON for a NON request, which per RFC 7252 §4.3 is never ACK'd.
func responseType(req *Packet) MessageType {
	switch req.Type {
	case TypeNone:
		return TypeNone
	case CON:
		return ACK
	default:
		return NON
	}
}
