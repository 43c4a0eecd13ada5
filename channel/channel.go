// Copyright (C) 2022 Michael J. Fromberger. All Rights Reserved.

// Package channel provides implementations of the coap.Channel interface
// over in-memory pairs, TCP-like byte streams, and UDP-like packet
// connections.
package channel

import (
	"bufio"
	"net"

	"github.com/coapcore/coap"
)

// A Channel sends and receives CoAP packets together with the remote
// address each packet came from or is destined to. Unlike a single
// byte-stream connection, one Channel may speak to many distinct remotes
// -- that is the case for a UDP socket -- so every Send and Recv carries
// an explicit Remote rather than assuming a single fixed peer.
//
// The methods of an implementation must be safe for concurrent use by one
// sender and one receiver.
type Channel interface {
	// Send the packet in binary format to remote.
	Send(pkt *coap.Packet, remote net.Addr) error

	// Receive the next available packet from the channel, and the remote
	// address it arrived from.
	Recv() (*coap.Packet, net.Addr, error)

	// Close the channel, causing any pending send or receive operations to
	// terminate and report an error. After a channel is closed, all further
	// operations on it must report an error.
	Close() error
}

// Direct constructs a connected pair of in-memory channels that pass
// packets directly without wire encoding. Packets sent to A are received
// by B and vice versa, addressed to the fixed pseudo-remotes "A" and "B".
func Direct() (a, b Channel) {
	a2b := make(chan *coap.Packet)
	b2a := make(chan *coap.Packet)
	a = direct{send: a2b, recv: b2a, remote: pseudoAddr("B"), done: make(chan struct{})}
	b = direct{send: b2a, recv: a2b, remote: pseudoAddr("A"), done: make(chan struct{})}
	return
}

type pseudoAddr string

func (p pseudoAddr) Network() string { return "direct" }
func (p pseudoAddr) String() string  { return string(p) }

type direct struct {
	send   chan<- *coap.Packet
	recv   <-chan *coap.Packet
	remote net.Addr
	done   chan struct{} // closed by Close to end this side's pending Recv
}

func (d direct) Send(pkt *coap.Packet, _ net.Addr) (err error) {
	defer safeClose(&err)
	d.send <- pkt
	return nil
}

func (d direct) Recv() (*coap.Packet, net.Addr, error) {
	select {
	case pkt, ok := <-d.recv:
		if !ok {
			return nil, nil, net.ErrClosed
		}
		return pkt, d.remote, nil
	case <-d.done:
		return nil, nil, net.ErrClosed
	}
}

func (d direct) Close() (err error) {
	defer safeClose(&err)
	close(d.done)
	close(d.send)
	return nil
}

func safeClose(err *error) {
	if x := recover(); x != nil && *err == nil {
		*err = net.ErrClosed
	}
}

// StreamIO wraps a single reliable byte-oriented connection (TCP, TLS,
// a Unix socket) using the length-prefixed TCP framing. Every packet sent
// or received is addressed to conn's fixed remote address; StreamIO never
// reports a different Remote from one Recv to the next.
func StreamIO(conn net.Conn) *StreamChannel {
	return &StreamChannel{
		conn:   conn,
		r:      bufio.NewReader(conn),
		w:      bufio.NewWriter(conn),
		remote: conn.RemoteAddr(),
	}
}

// StreamChannel is a [Channel] over a single net.Conn using TCP framing.
type StreamChannel struct {
	conn   net.Conn
	r      *bufio.Reader
	w      *bufio.Writer
	remote net.Addr

	// buffered holds bytes read from conn that have not yet formed a
	// complete packet.
	buffered []byte
}

// Send implements [Channel].
func (c *StreamChannel) Send(pkt *coap.Packet, _ net.Addr) error {
	raw, err := coap.EncodeTCP(pkt)
	if err != nil {
		return err
	}
	if _, err := c.w.Write(raw); err != nil {
		return err
	}
	return c.w.Flush()
}

// Recv implements [Channel]. It accumulates bytes from the connection
// until a complete packet has been buffered, using [coap.DecodeTCP]'s
// insufficient-data signal to know when to read more.
func (c *StreamChannel) Recv() (*coap.Packet, net.Addr, error) {
	for {
		pkt, n, err := coap.DecodeTCP(c.buffered)
		if err == nil {
			c.buffered = c.buffered[n:]
			return pkt, c.remote, nil
		}
		if err != coap.ErrShortRead {
			return nil, nil, err
		}

		chunk := make([]byte, 4096)
		nr, rerr := c.r.Read(chunk)
		if nr > 0 {
			c.buffered = append(c.buffered, chunk[:nr]...)
		}
		if rerr != nil {
			if nr > 0 {
				// Try once more to drain a packet that completed exactly
				// at end of stream before reporting the read error.
				continue
			}
			return nil, nil, rerr
		}
	}
}

// Close implements [Channel].
func (c *StreamChannel) Close() error { return c.conn.Close() }

// PacketIO wraps a connectionless packet socket (UDP) using the 4-byte
// fixed UDP framing. Unlike StreamIO, each Recv may report a different
// Remote, since one socket fields datagrams from many peers.
func PacketIO(conn net.PacketConn) *PacketChannel {
	return &PacketChannel{conn: conn}
}

// PacketChannel is a [Channel] over a net.PacketConn using UDP framing.
type PacketChannel struct {
	conn net.PacketConn
}

// Send implements [Channel].
func (c *PacketChannel) Send(pkt *coap.Packet, remote net.Addr) error {
	raw, err := coap.EncodeUDP(pkt)
	if err != nil {
		return err
	}
	_, err = c.conn.WriteTo(raw, remote)
	return err
}

// Recv implements [Channel]. Each datagram is decoded as a single CoAP
// message; a datagram that is not a complete, well-formed message is a
// format error, since UDP gives no opportunity to wait for more bytes.
func (c *PacketChannel) Recv() (*coap.Packet, net.Addr, error) {
	buf := make([]byte, 65535)
	n, addr, err := c.conn.ReadFrom(buf)
	if err != nil {
		return nil, nil, err
	}
	pkt, err := coap.DecodeUDP(buf[:n])
	if err != nil {
		return nil, addr, err
	}
	return pkt, addr, nil
}

// Close implements [Channel].
func (c *PacketChannel) Close() error { return c.conn.Close() }
