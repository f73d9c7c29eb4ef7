package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Load error kinds. Both are fatal to the plugin load; the host only sees
// the plugin refuse to start, with the wrapped detail in the error message.
var (
	ErrUnreadable = errors.New("config file unreadable")
	ErrInvalid    = errors.New("invalid config")
)

// Config is the top-level plugin configuration.
type Config struct {
	// Libpath is the shared-object path the host loads; carried in the
	// config so one file describes the whole deployment.
	Libpath string        `json:"libpath"`
	Log     Log           `json:"log"`
	Metrics *MetricsAddr  `json:"metrics"`
	Runtime Runtime       `json:"runtime"`
	Channel Channel       `json:"channel"`
	Filters Filters       `json:"filters"`
	GRPC    *GRPCServer   `json:"grpc"`
	QUIC    *QUICServer   `json:"quic"`
}

// Log controls the plugin's logger.
type Log struct {
	Level string `json:"level"`
}

// MetricsAddr enables the prometheus endpoint when present.
type MetricsAddr struct {
	Endpoint string `json:"endpoint"`
}

// Runtime tunes the plugin's own scheduling, independent of the host.
type Runtime struct {
	// WorkerThreads caps GOMAXPROCS in standalone mode; 0 leaves the
	// process default untouched.
	WorkerThreads int `json:"worker_threads"`
	// ShutdownTimeoutMs bounds how long unload waits for service tasks.
	ShutdownTimeoutMs int `json:"shutdown_timeout_ms"`
}

// ShutdownTimeout returns the task-join bound applied at unload.
func (r Runtime) ShutdownTimeout() time.Duration {
	return time.Duration(r.ShutdownTimeoutMs) * time.Millisecond
}

// Channel sizes the retention channel and fixes its encoding mode.
type Channel struct {
	Encoder     string   `json:"encoder"`
	MaxMessages Count    `json:"max_messages"`
	MaxBytes    ByteSize `json:"max_bytes"`
}

// Filters gates events before they reach the channel.
type Filters struct {
	EnableAccountUpdate     bool      `json:"enable_account_update"`
	EnableTransactionUpdate bool      `json:"enable_transaction_update"`
	// MaxAccountDataSize drops account updates whose data exceeds the cap;
	// nil means unlimited.
	MaxAccountDataSize *ByteSize `json:"max_account_data_size"`
}

// GRPCServer configures the gRPC transport listener.
type GRPCServer struct {
	Endpoint string `json:"endpoint"`
}

// QUICServer configures the QUIC transport listener. When the cert/key paths
// are empty the server generates a self-signed certificate, which is only
// suitable for development.
type QUICServer struct {
	Endpoint string `json:"endpoint"`
	TLSCert  string `json:"tls_cert"`
	TLSKey   string `json:"tls_key"`
}

// Default returns built-in defaults. Channel limits follow the sizing used
// in production validators: ~20k messages and ~150MiB per slot give roughly
// a hundred slots of retained backlog.
func Default() Config {
	return Config{
		Log: Log{Level: "info"},
		Runtime: Runtime{
			ShutdownTimeoutMs: 10_000,
		},
		Channel: Channel{
			Encoder:     "raw",
			MaxMessages: 2_097_152,
			MaxBytes:    15 << 30,
		},
		Filters: Filters{
			EnableAccountUpdate:     true,
			EnableTransactionUpdate: true,
		},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return Parse(b)
}

// Parse decodes cfg content with a strict schema and validates it.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Channel.Encoder {
	case "raw", "protobuf":
	default:
		return fmt.Errorf("channel.encoder: unknown mode %q (want \"raw\" or \"protobuf\")", c.Channel.Encoder)
	}
	if c.Channel.MaxMessages == 0 {
		return errors.New("channel.max_messages must be positive")
	}
	if c.Channel.MaxBytes == 0 {
		return errors.New("channel.max_bytes must be positive")
	}
	if c.Runtime.WorkerThreads < 0 {
		return errors.New("runtime.worker_threads must not be negative")
	}
	if c.Runtime.ShutdownTimeoutMs <= 0 {
		return errors.New("runtime.shutdown_timeout_ms must be positive")
	}
	if c.Metrics != nil && c.Metrics.Endpoint == "" {
		return errors.New("metrics.endpoint must not be empty")
	}
	if c.GRPC != nil && c.GRPC.Endpoint == "" {
		return errors.New("grpc.endpoint must not be empty")
	}
	if c.QUIC != nil {
		if c.QUIC.Endpoint == "" {
			return errors.New("quic.endpoint must not be empty")
		}
		if (c.QUIC.TLSCert == "") != (c.QUIC.TLSKey == "") {
			return errors.New("quic.tls_cert and quic.tls_key must be set together")
		}
	}
	return nil
}
