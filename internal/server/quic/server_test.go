package quicserver

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/rpcpool/richat/internal/channel"
	"github.com/rpcpool/richat/internal/geyser"
	"github.com/rpcpool/richat/internal/message"
)

func newTestServer(t *testing.T) (*Server, *channel.Channel) {
	t.Helper()
	ch := channel.New(channel.Config{
		Encoding:    message.EncodingRaw,
		MaxMessages: 16,
		MaxBytes:    1 << 20,
	}, nil, nil)
	srv, err := New(Config{Endpoint: "127.0.0.1:0"}, ch, nil, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = srv.Serve(ctx) }()
	t.Cleanup(func() { cancel(); srv.Close() })
	return srv, ch
}

func dialSubscribe(t *testing.T, addr string, fromOldest bool) (*quic.Conn, *bufio.Reader) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, err := quic.DialAddr(ctx, addr, &tls.Config{
		InsecureSkipVerify: true, // self-signed test cert
		NextProtos:         []string{alpnProtocol},
	}, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.CloseWithError(0, "test done") })
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	req := []byte{0}
	if fromOldest {
		req[0] = 1
	}
	if _, err := stream.Write(req); err != nil {
		t.Fatalf("write request: %v", err)
	}
	return conn, bufio.NewReader(stream)
}

func readFrame(t *testing.T, r *bufio.Reader) []byte {
	t.Helper()
	n, err := binary.ReadUvarint(r)
	if err != nil {
		t.Fatalf("read length: %v", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("read payload: %v", err)
	}
	return buf
}

func TestSubscribeStreamsBacklog(t *testing.T) {
	srv, ch := newTestServer(t)
	for i := uint64(0); i < 3; i++ {
		ch.Push(&message.SlotEvent{Slot: i, Status: geyser.SlotProcessed})
	}
	_, r := dialSubscribe(t, srv.Addr(), true)
	for i := 0; i < 3; i++ {
		frame := readFrame(t, r)
		if _, ok := message.VerifyRaw(frame); !ok {
			t.Fatalf("frame %d: bad crc", i)
		}
	}
}

func TestSubscribeEndsOnChannelClose(t *testing.T) {
	srv, ch := newTestServer(t)
	_, r := dialSubscribe(t, srv.Addr(), false)

	time.Sleep(50 * time.Millisecond)
	ch.Close()

	if _, err := binary.ReadUvarint(r); !errors.Is(err, io.EOF) {
		// The server FINs the stream, then closes the connection with the
		// shutdown code; either surfaces as end of stream here.
		var appErr *quic.ApplicationError
		if !errors.As(err, &appErr) || appErr.ErrorCode != codeShutdown {
			t.Fatalf("want EOF or shutdown close, got %v", err)
		}
	}
}
