package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rpcpool/richat/internal/channel"
	"github.com/rpcpool/richat/internal/metrics"
	"github.com/rpcpool/richat/internal/version"
)

const transportLabel = "grpc"

// Server owns the gRPC server instance and its listener.
type Server struct {
	ch   *channel.Channel
	m    *metrics.Metrics
	log  *zap.Logger
	grpc *grpc.Server
	lis  net.Listener
}

// New binds endpoint and registers the geyser service. Binding happens here
// so a bad address fails the plugin load, not the first subscriber.
func New(endpoint string, ch *channel.Channel, m *metrics.Metrics, log *zap.Logger, opts ...grpc.ServerOption) (*Server, error) {
	lis, err := net.Listen("tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("grpc listen %s: %w", endpoint, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		ch:   ch,
		m:    m,
		log:  log,
		grpc: grpc.NewServer(append(opts, grpc.ForceServerCodec(rawCodec{}))...),
		lis:  lis,
	}
	s.grpc.RegisterService(&geyserServiceDesc, s)
	return s, nil
}

// Addr reports the bound address.
func (s *Server) Addr() string { return s.lis.Addr().String() }

// Serve blocks until ctx is cancelled, then stops gracefully.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info("grpc server listening", zap.String("addr", s.Addr()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(s.lis) }()
	select {
	case <-ctx.Done():
		s.grpc.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Close stops the server immediately.
func (s *Server) Close() {
	s.grpc.Stop()
	_ = s.lis.Close()
}

// getVersion implements the unary GetVersion method.
func (s *Server) getVersion(context.Context) (*frame, error) {
	b, err := json.Marshal(version.Current())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode version: %v", err)
	}
	return &frame{payload: b}, nil
}

// subscribe implements the server-streaming Subscribe method.
func (s *Server) subscribe(req *frame, stream grpc.ServerStream) error {
	fromOldest := len(req.payload) > 0 && req.payload[0] == 1

	var recv *channel.Receiver
	if fromOldest {
		recv = s.ch.SubscribeFromOldest()
	} else {
		recv = s.ch.Subscribe()
	}

	s.m.ConnOpen(transportLabel)
	defer s.m.ConnClose(transportLabel)
	s.log.Debug("subscriber connected", zap.Bool("from_oldest", fromOldest))

	for {
		msg, err := recv.Recv(stream.Context())
		if err != nil {
			var lag *channel.LagError
			switch {
			case errors.As(err, &lag):
				// The transport's lag policy: cut the stream and let the
				// client decide whether to reconnect from oldest.
				s.log.Warn("subscriber lagged, dropping stream", zap.Uint64("missed", lag.Missed))
				return status.Errorf(codes.DataLoss, "lagged: %d messages skipped", lag.Missed)
			case errors.Is(err, channel.ErrClosed):
				return nil // plugin unload, clean end of stream
			default:
				return err // subscriber context ended
			}
		}
		if err := stream.SendMsg(&frame{payload: msg.Data}); err != nil {
			return err
		}
	}
}
