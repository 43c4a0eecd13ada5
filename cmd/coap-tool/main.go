// Program coap-tool is a command-line utility for inspecting and
// exercising CoAP messages.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/coapcore/coap"
	"github.com/coapcore/coap/channel"
	"github.com/creachadair/command"
)

func main() {
	root := &command.C{
		Name: filepath.Base(os.Args[0]),
		Help: "Utilities for inspecting and exercising CoAP messages.",
		Commands: []*command.C{
			{
				Name:  "decode",
				Usage: "<udp|tcp> <hex-bytes>",
				Help:  "Decode a hex-encoded wire packet and print its fields.",
				Run:   runDecode,
			},
			{
				Name:  "ping",
				Usage: "<host:port>",
				Help:  "Connect over TCP, send a Signal PING, and print the PONG reply.",
				Run:   runPing,
			},
			command.VersionCommand(),
			command.HelpCommand(nil),
		},
	}
	command.RunOrFail(root.NewEnv(nil).MergeFlags(true), os.Args[1:])
}

func runDecode(env *command.Env) error {
	if len(env.Args) != 2 {
		return env.Usagef("decode requires a framing and a hex packet")
	}
	raw, err := hex.DecodeString(env.Args[1])
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}

	var pkt *coap.Packet
	switch env.Args[0] {
	case "udp":
		pkt, err = coap.DecodeUDP(raw)
	case "tcp":
		var n int
		pkt, n, err = coap.DecodeTCP(raw)
		if err == nil && n != len(raw) {
			fmt.Fprintf(env, "note: %d trailing bytes not consumed\n", len(raw)-n)
		}
	default:
		return env.Usagef("framing must be \"udp\" or \"tcp\", got %q", env.Args[0])
	}
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	fmt.Fprintln(env, pkt)
	return nil
}

func runPing(env *command.Env) error {
	if len(env.Args) != 1 {
		return env.Usagef("ping requires a host:port")
	}
	conn, err := net.DialTimeout("tcp", env.Args[0], 5*time.Second)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	ch := channel.StreamIO(conn)
	ep := coap.NewEndpoint()
	go ep.Serve(ch)

	token, err := coap.NewToken(2)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rsp, err := ep.Call(ctx, ch, conn.RemoteAddr(), &coap.Packet{Code: coap.SignalPing, Token: token})
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	fmt.Fprintln(env, rsp)
	return nil
}
