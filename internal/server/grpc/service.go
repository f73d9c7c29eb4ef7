package grpcserver

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

// frame is the single wire message type: opaque bytes. The codec passes the
// payload through untouched, which is the whole point — channel messages are
// pre-encoded and must not be copied or re-serialized per subscriber.
type frame struct {
	payload []byte
}

type rawCodec struct{}

func (rawCodec) Marshal(v any) ([]byte, error) {
	f, ok := v.(*frame)
	if !ok {
		return nil, fmt.Errorf("raw codec: cannot marshal %T", v)
	}
	return f.payload, nil
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	f, ok := v.(*frame)
	if !ok {
		return fmt.Errorf("raw codec: cannot unmarshal into %T", v)
	}
	f.payload = data
	return nil
}

func (rawCodec) Name() string { return "richat-raw" }

// geyserService is the handler surface the descriptor is typed against.
type geyserService interface {
	getVersion(ctx context.Context) (*frame, error)
	subscribe(req *frame, stream grpc.ServerStream) error
}

func getVersionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(frame)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(geyserService).getVersion(ctx)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/richat.Geyser/GetVersion"}
	handler := func(ctx context.Context, _ any) (any, error) {
		return srv.(geyserService).getVersion(ctx)
	}
	return interceptor(ctx, in, info, handler)
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	req := new(frame)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(geyserService).subscribe(req, stream)
}

// geyserServiceDesc is written by hand: the service carries opaque frames,
// so there is no generated code to lean on.
var geyserServiceDesc = grpc.ServiceDesc{
	ServiceName: "richat.Geyser",
	HandlerType: (*geyserService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetVersion", Handler: getVersionHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: subscribeHandler, ServerStreams: true},
	},
	Metadata: "richat/geyser",
}
