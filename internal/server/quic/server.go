package quicserver

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/quic-go/quic-go"
	"go.uber.org/zap"

	"github.com/rpcpool/richat/internal/channel"
	"github.com/rpcpool/richat/internal/metrics"
)

const transportLabel = "quic"

// alpnProtocol identifies the subscriber protocol during the TLS handshake.
const alpnProtocol = "richat"

// Application error codes surfaced to clients on connection close.
const (
	codeShutdown quic.ApplicationErrorCode = 0
	codeLagged   quic.ApplicationErrorCode = 1
)

// Config for the QUIC transport.
type Config struct {
	Endpoint string
	TLSCert  string
	TLSKey   string
}

// Server owns the QUIC listener and per-connection subscriber loops.
type Server struct {
	ch  *channel.Channel
	m   *metrics.Metrics
	log *zap.Logger
	lis *quic.Listener
}

// New binds the endpoint. As with the gRPC transport, a bad address or
// unreadable certificate fails the plugin load.
func New(cfg Config, ch *channel.Channel, m *metrics.Metrics, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	tlsConf, err := serverTLSConfig(cfg.TLSCert, cfg.TLSKey)
	if err != nil {
		return nil, fmt.Errorf("quic tls: %w", err)
	}
	lis, err := quic.ListenAddr(cfg.Endpoint, tlsConf, &quic.Config{
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("quic listen %s: %w", cfg.Endpoint, err)
	}
	return &Server{ch: ch, m: m, log: log, lis: lis}, nil
}

// Addr reports the bound address.
func (s *Server) Addr() string { return s.lis.Addr().String() }

// Serve accepts connections until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info("quic server listening", zap.String("addr", s.Addr()))
	for {
		conn, err := s.lis.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.handleConn(ctx, conn)
	}
}

// Close shuts the listener down; per-connection loops end with their
// subscriber contexts.
func (s *Server) Close() {
	_ = s.lis.Close()
}

func (s *Server) handleConn(ctx context.Context, conn *quic.Conn) {
	s.m.ConnOpen(transportLabel)
	defer s.m.ConnClose(transportLabel)

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		_ = conn.CloseWithError(codeShutdown, "no stream")
		return
	}

	var req [1]byte
	if _, err := io.ReadFull(stream, req[:]); err != nil {
		_ = conn.CloseWithError(codeShutdown, "bad request")
		return
	}

	var recv *channel.Receiver
	if req[0] == 1 {
		recv = s.ch.SubscribeFromOldest()
	} else {
		recv = s.ch.Subscribe()
	}
	s.log.Debug("subscriber connected",
		zap.String("remote", conn.RemoteAddr().String()),
		zap.Bool("from_oldest", req[0] == 1),
	)

	var lenBuf [binary.MaxVarintLen64]byte
	for {
		msg, err := recv.Recv(ctx)
		if err != nil {
			var lag *channel.LagError
			switch {
			case errors.As(err, &lag):
				s.log.Warn("subscriber lagged, dropping connection", zap.Uint64("missed", lag.Missed))
				_ = conn.CloseWithError(codeLagged, fmt.Sprintf("lagged: %d messages skipped", lag.Missed))
			case errors.Is(err, channel.ErrClosed):
				_ = stream.Close()
				_ = conn.CloseWithError(codeShutdown, "plugin unloading")
			default:
				_ = conn.CloseWithError(codeShutdown, "server stopping")
			}
			return
		}

		n := binary.PutUvarint(lenBuf[:], uint64(len(msg.Data)))
		if _, err := stream.Write(lenBuf[:n]); err != nil {
			return
		}
		if _, err := stream.Write(msg.Data); err != nil {
			return
		}
	}
}
