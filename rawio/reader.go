// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package rawio provides primitive big-endian byte I/O used by the packet
// codecs, with a read path that distinguishes "not enough data yet" from a
// definitively closed stream.
package rawio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrShortRead is returned by a [PeekReader] method when fewer bytes are
// currently buffered than requested. Unlike [io.ErrUnexpectedEOF], it does
// not mean the stream is closed -- the caller should retry once more data
// has arrived.
var ErrShortRead = errors.New("rawio: not enough data buffered")

// Reader wraps an [io.Reader] and exposes strict fixed-width reads. Each
// method blocks until exactly the requested number of bytes have been read,
// or the underlying reader reports an error. A short read from the
// underlying stream is reported as [io.ErrUnexpectedEOF]; a read that
// returns no bytes at all reports [io.EOF].
//
// A Reader is single-consumer: it does not buffer beyond what the caller
// has requested, so it is safe to hand the underlying stream to a different
// consumer after a Reader is done with it.
type Reader struct {
	r io.Reader
}

// NewReader constructs a [Reader] that consumes data from r.
func NewReader(r io.Reader) Reader { return Reader{r: r} }

// ReadU8 reads a single byte.
func (r Reader) ReadU8() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return 0, fmt.Errorf("read u8: %w", err)
	}
	return buf[0], nil
}

// ReadU16 reads a big-endian 16-bit integer.
func (r Reader) ReadU16() (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return 0, fmt.Errorf("read u16: %w", err)
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// ReadU24 reads a big-endian 24-bit integer into the low bits of a uint32.
func (r Reader) ReadU24() (uint32, error) {
	var buf [3]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return 0, fmt.Errorf("read u24: %w", err)
	}
	return uint32(buf[0])<<16 | uint32(buf[1])<<8 | uint32(buf[2]), nil
}

// ReadU32 reads a big-endian 32-bit integer.
func (r Reader) ReadU32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return 0, fmt.Errorf("read u32: %w", err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// ReadExact reads exactly n bytes and returns them as a freshly allocated
// slice. If n == 0 it returns nil without touching the underlying reader.
func (r Reader) ReadExact(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, fmt.Errorf("read exact %d bytes: %w", n, err)
	}
	return buf, nil
}
