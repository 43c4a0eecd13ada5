// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package payload provides adapters to the coap.Handler type for functions
// with other signatures, so a handler can work in terms of typed request
// and response values instead of raw option sets and byte payloads.
//
// Parameters may be []byte or string, or a type whose pointer supports one
// of the encoding.BinaryUnmarshaler or encoding.TextUnmarshaler interfaces.
//
// Results may be []byte or string, or any type that supports one of the
// encoding.BinaryMarshaler or encoding.TextMarshaler interfaces. A
// successful result answers 2.05 Content; an error answers 5.00 Internal
// Server Error, with the error text as the payload.
package payload

import (
	"bytes"
	"context"
	"encoding"
	"fmt"
	"net"

	"github.com/coapcore/coap"
)

// reqContextKey is a context key for the request value passed to a handler
// adapted by this package.
type reqContextKey struct{}

// ContextRequest returns the original request packet passed to the
// handler, or nil if ctx has no associated request.
func ContextRequest(ctx context.Context) *coap.Packet {
	if v := ctx.Value(reqContextKey{}); v != nil {
		return v.(*coap.Packet)
	}
	return nil
}

// responseType picks the message type for a response piggybacked onto req:
// TypeNone for a TCP-framed request, ACK for a CON request (RFC 7252 §4.2),
// and NON for a NON request, which per RFC 7252 §4.3 is never ACK'd.
func responseType(req *coap.Packet) coap.MessageType {
	switch req.Type {
	case coap.TypeNone:
		return coap.TypeNone
	case coap.CON:
		return coap.ACK
	default:
		return coap.NON
	}
}

func errorResponse(req *coap.Packet, err error) (*coap.Packet, error) {
	rsp := coap.NewResponse(req, responseType(req), coap.InternalServerError)
	rsp.Payload = []byte(err.Error())
	return rsp, nil
}

func contentResponse(req *coap.Packet, body []byte) (*coap.Packet, error) {
	rsp := coap.NewResponse(req, responseType(req), coap.Content)
	rsp.Payload = body
	return rsp, nil
}

// ParamResultError adapts a function f that accepts parameters of type P
// and returns a result of type R and an error, to a [coap.Handler].
func ParamResultError[P, R any](f func(context.Context, P) (R, error)) coap.Handler {
	return coap.HandlerFunc(func(ctx context.Context, req *coap.Packet, remote net.Addr) (*coap.Packet, error) {
		var p P
		if err := unmarshal(req.Payload, &p); err != nil {
			return errorResponse(req, err)
		}
		hctx := context.WithValue(ctx, reqContextKey{}, req)
		r, err := f(hctx, p)
		if err != nil {
			return errorResponse(req, err)
		}
		body, err := marshal(r)
		if err != nil {
			return errorResponse(req, err)
		}
		return contentResponse(req, body)
	})
}

// ParamResult adapts a function f that accepts parameters of type P and
// returns a result of type R without error, to a [coap.Handler].
func ParamResult[P, R any](f func(context.Context, P) R) coap.Handler {
	return coap.HandlerFunc(func(ctx context.Context, req *coap.Packet, remote net.Addr) (*coap.Packet, error) {
		var p P
		if err := unmarshal(req.Payload, &p); err != nil {
			return errorResponse(req, err)
		}
		hctx := context.WithValue(ctx, reqContextKey{}, req)
		body, err := marshal(f(hctx, p))
		if err != nil {
			return errorResponse(req, err)
		}
		return contentResponse(req, body)
	})
}

// ParamError adapts a function f that accepts parameters of type P and
// returns only an error, to a [coap.Handler]. A nil error answers 2.04
// Changed with an empty payload.
func ParamError[P any](f func(context.Context, P) error) coap.Handler {
	return coap.HandlerFunc(func(ctx context.Context, req *coap.Packet, remote net.Addr) (*coap.Packet, error) {
		var p P
		if err := unmarshal(req.Payload, &p); err != nil {
			return errorResponse(req, err)
		}
		hctx := context.WithValue(ctx, reqContextKey{}, req)
		if err := f(hctx, p); err != nil {
			return errorResponse(req, err)
		}
		return coap.NewResponse(req, responseType(req), coap.Changed), nil
	})
}

// ResultError adapts a function f that accepts no parameters and returns a
// result of type R and an error, to a [coap.Handler].
func ResultError[R any](f func(context.Context) (R, error)) coap.Handler {
	return coap.HandlerFunc(func(ctx context.Context, req *coap.Packet, remote net.Addr) (*coap.Packet, error) {
		hctx := context.WithValue(ctx, reqContextKey{}, req)
		r, err := f(hctx)
		if err != nil {
			return errorResponse(req, err)
		}
		body, err := marshal(r)
		if err != nil {
			return errorResponse(req, err)
		}
		return contentResponse(req, body)
	})
}

// unmarshal decodes data into v. The concrete type of v must be a pointer
// to a []byte or string, or must implement either the
// encoding.BinaryUnmarshaler or the encoding.TextUnmarshaler interface. If
// v implements both, BinaryUnmarshaler is preferred.
func unmarshal(data []byte, v any) error {
	switch t := v.(type) {
	case *[]byte:
		*t = bytes.Clone(data)
	case *string:
		*t = string(data)
	case encoding.BinaryUnmarshaler:
		return t.UnmarshalBinary(data)
	case encoding.TextUnmarshaler:
		return t.UnmarshalText(data)
	default:
		return fmt.Errorf("cannot unmarshal into %T", v)
	}
	return nil
}

// marshal encodes v into data. The concrete type of v must be a []byte or
// string (or a pointer to these); otherwise it must implement either the
// encoding.BinaryMarshaler or the encoding.TextMarshaler interface. If v
// implements both, BinaryMarshaler is preferred.
//
// As a special case, if v is a nil pointer to a string or []byte, the
// result is nil without error.
func marshal(v any) ([]byte, error) {
	switch t := v.(type) {
	case []byte:
		return t, nil
	case *[]byte:
		if t == nil {
			return nil, nil
		}
		return *t, nil
	case string:
		return []byte(t), nil
	case *string:
		if t == nil {
			return nil, nil
		}
		return []byte(*t), nil
	case encoding.BinaryMarshaler:
		return t.MarshalBinary()
	case encoding.TextMarshaler:
		return t.MarshalText()
	default:
		return nil, fmt.Errorf("cannot marshal %T", v)
	}
}
