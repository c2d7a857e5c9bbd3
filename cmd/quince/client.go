package main

import (
	"flag"
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/goburrow/quicoutq/quic"
)

// clientCommand opens a Conn against addr, writes -data to stream 4, and
// closes it, exercising Endpoint.Connect / Stream.Write / Stream.Close —
// the send-side surface this module actually implements. Adapted from the
// teacher's clientCommand, which drove the same "connect, write stream 4,
// wait for close" shape against quic.Client/quic.Conn; here it drives
// quic.Endpoint/quic.Conn instead, since the old Client/Conn pair belonged
// to the teacher's full (out-of-scope) receive+handshake path.
func clientCommand(args []string) error {
	cmd := flag.NewFlagSet("client", flag.ExitOnError)
	configPath := cmd.String("config", "config/engine.toml.example", "path to engine config")
	data := cmd.String("data", "GET /\r\n", "data to write on stream 4")
	logLevel := cmd.String("v", "info", "log level: debug|info|warn|error")
	cmd.Parse(args)

	addr := cmd.Arg(0)
	if addr == "" {
		fmt.Fprintln(cmd.Output(), "Usage: quince client [options] <address>")
		cmd.PrintDefaults()
		return nil
	}

	cfg, err := quic.LoadConfig(*configPath)
	if err != nil {
		cfg = quic.DefaultConfig()
	}
	cfg.Log.Level = *logLevel

	ep := quic.NewEndpoint(cfg)
	defer ep.Close(addr)

	conn, err := ep.Connect(addr)
	if err != nil {
		return err
	}

	st := conn.Stream(4)
	if _, err := st.Write([]byte(*data)); err != nil {
		return err
	}
	if err := st.Close(); err != nil {
		return err
	}
	conn.Flush()
	quic.Sample(conn.OutQ())

	ep.Logger().Info("stream write complete",
		zap.String("addr", addr), zap.Int("bytes", len(*data)))
	log.Printf("wrote %d bytes to stream 4 on %s", len(*data), addr)
	return nil
}
