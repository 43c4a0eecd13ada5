// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package coap

import (
	"errors"
	"fmt"
)

// ErrFormat reports that a received packet's bytes could not be parsed as
// a well-formed CoAP message (bad header, reserved option nibble, option
// value outside its registered length range, and so on).
var ErrFormat = errors.New("coap: malformed message")

// ErrShortRead reports that a TCP decode attempt did not have enough
// buffered bytes to complete a message, and should be retried once more
// data has arrived. It never occurs for UDP decoding, where a datagram's
// extent is already known.
var ErrShortRead = errors.New("coap: insufficient data buffered")

// ErrTransport wraps an error returned by the underlying [Channel]'s Send
// during [Endpoint.Call], and is the error delivered to calls drained by
// [Endpoint.CloseRemote]. Errors from Recv are returned by [Endpoint.Serve]
// as the channel reported them.
var ErrTransport = errors.New("coap: transport error")

// ErrHandlerPanic reports that a request handler panicked; the endpoint
// recovers the panic and responds with a 5.00 Internal Server Error.
var ErrHandlerPanic = errors.New("coap: handler panicked")

// A FormatError decorates ErrFormat with the offending detail.
type FormatError struct {
	Detail string
}

func (e *FormatError) Error() string { return fmt.Sprintf("%v: %s", ErrFormat, e.Detail) }
func (e *FormatError) Unwrap() error { return ErrFormat }

func formatErrorf(format string, args ...any) error {
	return &FormatError{Detail: fmt.Sprintf(format, args...)}
}
