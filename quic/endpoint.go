package quic

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/goburrow/quicoutq/transport"
)

// Endpoint is the ambient wrapper around one or more transport.OutQ
// engines, keyed by remote address — the role the teacher's (unretrieved)
// quic.Client/quic.Server played, rebuilt here against the new OutQ-based
// send engine instead of the teacher's own transport.Conn. Grounded on
// cppla-moto/controller/server.go's ipCache pattern for the retry-token
// cache, and on the teacher's log.go attach/detach-logger convention for
// wiring a structured sink into each connection as it's created.
type Endpoint struct {
	cfg *Config

	logger  *zap.Logger
	tokens  *cache.Cache

	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewEndpoint builds an Endpoint from cfg: a zap/lumberjack logger per
// quic/logger.go, and a go-cache-backed TTL map of per-remote-address
// retry tokens, evicted automatically after the same short TTL
// cppla-moto's upstream-pool guard cache uses. Path-validation challenges
// are not stored in it.
func NewEndpoint(cfg *Config) *Endpoint {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Endpoint{
		cfg:    cfg,
		logger: NewLogger(cfg.Log.Level, cfg.Log.Path),
		tokens: cache.New(30*time.Second, time.Minute),
		conns:  make(map[string]*Conn),
	}
}

// Connect returns the Conn for addr, creating a fresh transport.OutQ (with
// a zap-backed LogSink and EventSink wired in) the first time addr is
// seen. Mirrors the teacher's per-remote-address connection table
// (log.go's attachLogger/detachLogger operate on the same kind of
// per-connection object).
func (e *Endpoint) Connect(addr string) (*Conn, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.conns[addr]; ok {
		return c, nil
	}

	deps := transport.Deps{
		Logs:   newQlogSink(e.logger),
		Events: newZapEventSink(e.logger, nil),
	}
	outq := transport.NewOutQ(deps)
	outq.SetConnState(transport.ConnStateEstablished)
	outq.SetTransportParams(transport.TransportParams{
		MaxData:              e.cfg.Transport.MaxData,
		MaxDatagramFrameSize: e.cfg.Transport.MaxDatagramFrameSize,
		MaxUDPPayloadSize:    e.cfg.Transport.MaxUDPPayloadSize,
		AckDelayExponent:     e.cfg.Transport.AckDelayExponent,
		MaxIdleTimeout:       e.cfg.Transport.MaxIdleTimeoutDuration(),
		MaxAckDelay:          e.cfg.Transport.MaxAckDelayDuration(),
		GreaseQUICBit:        e.cfg.Transport.GreaseQUICBit,
		Disable1RTTEncryption: e.cfg.Transport.Disable1RTTEncryption,
	}, e.cfg.Transport.MaxIdleTimeoutDuration(), e.cfg.Transport.Disable1RTTEncryption)

	c := newConn(addr, outq)
	e.conns[addr] = c
	e.logger.Info("connection_opened", zap.String("addr", addr))
	return c, nil
}

// Lookup returns the existing Conn for addr, if any.
func (e *Endpoint) Lookup(addr string) (*Conn, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.conns[addr]
	return c, ok
}

// Close tears down and forgets the Conn for addr, if one exists.
func (e *Endpoint) Close(addr string) {
	e.mu.Lock()
	c, ok := e.conns[addr]
	delete(e.conns, addr)
	e.mu.Unlock()

	if ok {
		_ = c.Close()
		e.logger.Info("connection_closed", zap.String("addr", addr))
	}
}

// IssueRetryToken mints a fresh retry token for addr, valid for the
// cache's configured TTL, mirroring the stateless-retry token output.c's
// quic_outq collaborators assume already exists by the time a frame
// reaches the queue.
func (e *Endpoint) IssueRetryToken(addr string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("quic: generate retry token: %w", err)
	}
	token := hex.EncodeToString(buf)
	e.tokens.Set(addr, token, cache.DefaultExpiration)
	return token, nil
}

// ValidateRetryToken reports whether token is the most recently issued,
// still-unexpired retry token for addr.
func (e *Endpoint) ValidateRetryToken(addr, token string) bool {
	v, ok := e.tokens.Get(addr)
	if !ok {
		return false
	}
	return v.(string) == token
}

// Logger returns the Endpoint's structured logger, for callers (cmd/quince)
// that want to log alongside the per-connection qlog stream.
func (e *Endpoint) Logger() *zap.Logger { return e.logger }
