package main

import (
	"flag"
	"fmt"

	"go.uber.org/zap"

	"github.com/goburrow/quicoutq/quic"
)

// serverCommand brings up an Endpoint and reports readiness. Accepting
// inbound connections requires a packet-receive loop (wire decoding,
// crypto, packet-number-space demux) that spec.md §1 places out of this
// engine's scope; this command demonstrates the piece that is in scope —
// an Endpoint ready to hand a freshly-addressed remote its own OutQ, the
// way Connect does for the client side.
func serverCommand(args []string) error {
	cmd := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := cmd.String("config", "config/engine.toml.example", "path to engine config")
	listenAddr := cmd.String("listen", "", "override the config file's listen address")
	cmd.Parse(args)

	cfg, err := quic.LoadConfig(*configPath)
	if err != nil {
		cfg = quic.DefaultConfig()
	}
	if *listenAddr != "" {
		cfg.Listen = *listenAddr
	}

	ep := quic.NewEndpoint(cfg)
	ep.Logger().Info("quince server ready", zap.String("listen", cfg.Listen))
	fmt.Printf("outbound engine ready on %s (wire transport is out of scope for this build; drive per-remote OutQs via Endpoint.Connect from your own packet-receive loop)\n", cfg.Listen)
	return nil
}
