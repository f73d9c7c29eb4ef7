package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rpcpool/richat/internal/channel"
	"github.com/rpcpool/richat/internal/config"
	"github.com/rpcpool/richat/internal/message"
	"github.com/rpcpool/richat/internal/metrics"
	grpcserver "github.com/rpcpool/richat/internal/server/grpc"
	quicserver "github.com/rpcpool/richat/internal/server/quic"
	"github.com/rpcpool/richat/internal/version"
)

// ErrNotLoaded is returned by callbacks invoked outside Load..Unload.
var ErrNotLoaded = errors.New("plugin not loaded")

// service is anything the orchestrator runs as a named task.
type service interface {
	Serve(ctx context.Context) error
	Close()
}

// task is one spawned service: a human-readable name and its join handle.
type task struct {
	name string
	done chan error
}

// inner holds everything that exists only between OnLoad and OnUnload.
type inner struct {
	log             *zap.Logger
	ch              *channel.Channel
	m               *metrics.Metrics
	filters         config.Filters
	cancel          context.CancelFunc
	tasks           []task
	shutdownTimeout time.Duration
}

// Plugin is the host-facing instance. The zero value is usable: the host
// constructs it once, then drives OnLoad/OnUnload around the callbacks.
// Lifecycle transitions are serialized by mu; the callback hot path reads
// the inner pointer atomically and never takes the lock.
type Plugin struct {
	mu    sync.Mutex
	inner atomic.Pointer[inner]
}

// Name reports the plugin identity to the host.
func (p *Plugin) Name() string { return version.Current().String() }

// OnLoad reads the config file and brings the whole pipeline up. Any
// failure tears down whatever was already constructed and reports the
// error; the plugin stays unloaded.
func (p *Plugin) OnLoad(configPath string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inner.Load() != nil {
		return errors.New("plugin already loaded")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	in, err := newInner(cfg, log)
	if err != nil {
		log.Error("plugin load failed", zap.Error(err))
		_ = log.Sync()
		return err
	}
	log.Info("plugin loaded",
		zap.String("version", version.Current().Version),
		zap.Int("tasks", len(in.tasks)),
	)
	p.inner.Store(in)
	return nil
}

// newInner constructs the channel and every configured service, then starts
// their tasks. Construction is two-phase: bind everything first so a late
// bind failure can close the earlier listeners before anything serves.
func newInner(cfg config.Config, log *zap.Logger) (*inner, error) {
	encoding, err := message.ParseEncoding(cfg.Channel.Encoder)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics != nil {
		m = metrics.New()
	}

	ch := channel.New(channel.Config{
		Encoding:    encoding,
		MaxMessages: int(cfg.Channel.MaxMessages),
		MaxBytes:    int(cfg.Channel.MaxBytes),
	}, m, log.Named("channel"))

	type pending struct {
		name string
		svc  service
	}
	var services []pending
	closeAll := func() {
		for _, s := range services {
			s.svc.Close()
		}
	}

	if cfg.GRPC != nil {
		srv, err := grpcserver.New(cfg.GRPC.Endpoint, ch, m, log.Named("grpc"))
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("start gRPC server: %w", err)
		}
		services = append(services, pending{name: "gRPC Server", svc: srv})
	}
	if cfg.QUIC != nil {
		srv, err := quicserver.New(quicserver.Config{
			Endpoint: cfg.QUIC.Endpoint,
			TLSCert:  cfg.QUIC.TLSCert,
			TLSKey:   cfg.QUIC.TLSKey,
		}, ch, m, log.Named("quic"))
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("start QUIC server: %w", err)
		}
		services = append(services, pending{name: "Quic Server", svc: srv})
	}
	if cfg.Metrics != nil {
		srv, err := metrics.NewServer(m, cfg.Metrics.Endpoint, log.Named("metrics"))
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("start metrics server: %w", err)
		}
		services = append(services, pending{name: "Prometheus Server", svc: srv})
	}

	ctx, cancel := context.WithCancel(context.Background())
	in := &inner{
		log:             log,
		ch:              ch,
		m:               m,
		filters:         cfg.Filters,
		cancel:          cancel,
		shutdownTimeout: cfg.Runtime.ShutdownTimeout(),
	}
	for _, s := range services {
		t := task{name: s.name, done: make(chan error, 1)}
		svc := s.svc
		go func() { t.done <- svc.Serve(ctx) }()
		in.tasks = append(in.tasks, t)
		log.Info("task started", zap.String("task", t.name))
	}
	return in, nil
}

// OnUnload shuts everything down: channel first so subscribers see
// end-of-stream, then the shared cancellation, then a bounded join of every
// task. Idempotent — a second call finds nothing to do.
func (p *Plugin) OnUnload() {
	p.mu.Lock()
	in := p.inner.Swap(nil)
	p.mu.Unlock()
	if in == nil {
		return
	}

	in.ch.Close()
	in.cancel()

	timer := time.NewTimer(in.shutdownTimeout)
	defer timer.Stop()
	for i, t := range in.tasks {
		select {
		case err := <-t.done:
			if err != nil {
				in.log.Error("task failed on shutdown", zap.String("task", t.name), zap.Error(err))
			} else {
				in.log.Info("task stopped", zap.String("task", t.name))
			}
		case <-timer.C:
			for _, left := range in.tasks[i:] {
				in.log.Warn("shutdown timeout, abandoning task", zap.String("task", left.name))
			}
			in.log.Info("plugin unloaded")
			_ = in.log.Sync()
			return
		}
	}
	in.log.Info("plugin unloaded")
	_ = in.log.Sync()
}

// loaded returns the live inner state, or nil when unloaded.
func (p *Plugin) loaded() *inner {
	return p.inner.Load()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}
