package quic

import (
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the engine's on-disk configuration, loaded with
// github.com/BurntSushi/toml the way xendarboh-katzenpost's node config
// would be. Section names follow spec.md §6's transport-parameter table
// plus the congestion/loss tuning knobs the original leaves to an opaque
// collaborator.
type Config struct {
	Listen string    `toml:"listen"`
	Log    LogConfig `toml:"log"`

	Transport  TransportConfig  `toml:"transport"`
	Congestion CongestionConfig `toml:"congestion"`
}

// LogConfig controls the zap/lumberjack sink built by NewLogger.
type LogConfig struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

// TransportConfig mirrors spec.md §6's peer-advertised transport
// parameters, here used as the *local* values an Endpoint advertises and
// negotiates against whatever a peer sends.
type TransportConfig struct {
	MaxData               uint64 `toml:"max_data"`
	MaxDatagramFrameSize   uint32 `toml:"max_datagram_frame_size"`
	MaxUDPPayloadSize      uint32 `toml:"max_udp_payload_size"`
	AckDelayExponent       uint8  `toml:"ack_delay_exponent"`
	MaxIdleTimeout         string `toml:"max_idle_timeout"`
	MaxAckDelay            string `toml:"max_ack_delay"`
	GreaseQUICBit          bool   `toml:"grease_quic_bit"`
	Disable1RTTEncryption  bool   `toml:"disable_1rtt_encryption"`
}

// CongestionConfig tunes the default NewReno controller and RTT estimator.
type CongestionConfig struct {
	InitialRTT string `toml:"initial_rtt"`
	MaxAckDelay string `toml:"max_ack_delay"`
}

// DefaultConfig returns the configuration a caller gets without a config
// file, used by cmd/quince when no -config path resolves.
func DefaultConfig() *Config {
	return &Config{
		Listen: "0.0.0.0:4433",
		Log:    LogConfig{Level: "info", Path: "quince.log"},
		Transport: TransportConfig{
			MaxData:              1 << 20,
			MaxDatagramFrameSize: 1200,
			MaxUDPPayloadSize:    1452,
			AckDelayExponent:     3,
			MaxIdleTimeout:       "30s",
			MaxAckDelay:          "25ms",
		},
		Congestion: CongestionConfig{
			InitialRTT:  "333ms",
			MaxAckDelay: "25ms",
		},
	}
}

// LoadConfig reads and decodes a TOML config file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MaxIdleTimeoutDuration parses MaxIdleTimeout, defaulting to 0 (disabled)
// on a parse error or empty string.
func (c TransportConfig) MaxIdleTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.MaxIdleTimeout)
	return d
}

// MaxAckDelayDuration parses MaxAckDelay, defaulting to 25ms.
func (c TransportConfig) MaxAckDelayDuration() time.Duration {
	d, err := time.ParseDuration(c.MaxAckDelay)
	if err != nil {
		return 25 * time.Millisecond
	}
	return d
}

// global is a package-level pointer guarded by a mutex, hot-reloadable via
// Reload — the pattern cppla-moto/config/setting.go uses for its JSON
// config, kept verbatim here with the encoding switched to TOML.
var (
	globalMu sync.Mutex
	global   *Config
)

// Reload re-parses path and atomically swaps the package-level Config
// returned by Global.
func Reload(path string) error {
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	globalMu.Lock()
	global = cfg
	globalMu.Unlock()
	return nil
}

// Global returns the most recently Reload-ed Config, or DefaultConfig if
// Reload has never been called.
func Global() *Config {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		return DefaultConfig()
	}
	return global
}
