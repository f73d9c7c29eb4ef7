// Package metrics collects plugin-side prometheus metrics and serves them
// over the optional metrics endpoint. A nil *Metrics is a valid no-op
// recorder so components never need to branch on whether metrics are
// configured.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics owns the plugin's registry and collectors.
type Metrics struct {
	registry *prometheus.Registry

	channelMessages prometheus.Gauge
	channelBytes    prometheus.Gauge
	channelSequence prometheus.Gauge
	pushedTotal     *prometheus.CounterVec
	connections     *prometheus.GaugeVec
}

// New builds a Metrics with a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		channelMessages: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "richat_channel_messages",
			Help: "Messages currently retained in the channel.",
		}),
		channelBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "richat_channel_bytes",
			Help: "Bytes currently retained in the channel.",
		}),
		channelSequence: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "richat_channel_sequence",
			Help: "Latest sequence number assigned by the channel.",
		}),
		pushedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "richat_messages_pushed_total",
			Help: "Messages pushed into the channel by event kind.",
		}, []string{"kind"}),
		connections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "richat_connections_total",
			Help: "Active subscriber connections by transport.",
		}, []string{"transport"}),
	}
	m.registry.MustRegister(
		m.channelMessages, m.channelBytes, m.channelSequence,
		m.pushedTotal, m.connections,
	)
	return m
}

// SetChannelState records the channel's retained totals after a mutation.
func (m *Metrics) SetChannelState(messages, bytes int, seq uint64) {
	if m == nil {
		return
	}
	m.channelMessages.Set(float64(messages))
	m.channelBytes.Set(float64(bytes))
	m.channelSequence.Set(float64(seq))
}

// IncPushed counts one pushed message of the given kind.
func (m *Metrics) IncPushed(kind string) {
	if m == nil {
		return
	}
	m.pushedTotal.WithLabelValues(kind).Inc()
}

// ConnOpen and ConnClose track per-transport subscriber connections.
func (m *Metrics) ConnOpen(transport string) {
	if m == nil {
		return
	}
	m.connections.WithLabelValues(transport).Inc()
}

func (m *Metrics) ConnClose(transport string) {
	if m == nil {
		return
	}
	m.connections.WithLabelValues(transport).Dec()
}

// Server serves the registry over HTTP.
type Server struct {
	srv *http.Server
	lis net.Listener
	log *zap.Logger
}

// NewServer binds the endpoint immediately so a bad address fails the
// plugin load instead of surfacing later.
func NewServer(m *Metrics, endpoint string, log *zap.Logger) (*Server, error) {
	lis, err := net.Listen("tcp", endpoint)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return &Server{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		lis: lis,
		log: log,
	}, nil
}

// Serve blocks until ctx is cancelled, then shuts the listener down.
func (s *Server) Serve(ctx context.Context) error {
	if s.log != nil {
		s.log.Info("metrics server listening", zap.String("addr", s.Addr()))
	}
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(s.lis) }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close stops the server immediately.
func (s *Server) Close() {
	_ = s.srv.Close()
	_ = s.lis.Close()
}

// Addr reports the bound address, useful when the config used port 0.
func (s *Server) Addr() string { return s.lis.Addr().String() }
