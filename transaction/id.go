// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package transaction implements the concurrent correlation map that pairs
// an outstanding request with the response (or signal) that eventually
// answers it, keyed by the token carried on the wire and the remote peer
// that sent it.
package transaction

// ID is the composite key used to correlate a request with its response: a
// CoAP token (0-8 bytes, held here as a string so ID is comparable) plus
// the remote address that sent the request. Two requests with the same
// token from different remotes are distinct transactions.
type ID struct {
	Token  string
	Remote string
}

// NewID builds the ID for a message with the given token bytes received
// from or sent to remote.
func NewID(token []byte, remote string) ID {
	return ID{Token: string(token), Remote: remote}
}
