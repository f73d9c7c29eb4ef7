package channel

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpcpool/richat/internal/geyser"
	"github.com/rpcpool/richat/internal/message"
)

func newTestChannel(t *testing.T, maxMessages, maxBytes int) *Channel {
	t.Helper()
	return New(Config{
		Encoding:    message.EncodingRaw,
		MaxMessages: maxMessages,
		MaxBytes:    maxBytes,
	}, nil, nil)
}

func slotEvent(slot uint64) message.Event {
	return &message.SlotEvent{Slot: slot, Status: geyser.SlotProcessed}
}

func accountEvent(slot uint64, dataLen int) message.Event {
	return &message.AccountEvent{
		Slot: slot,
		Account: &geyser.ReplicaAccountInfoV3{
			Pubkey: bytes.Repeat([]byte{1}, 32),
			Owner:  bytes.Repeat([]byte{2}, 32),
			Data:   bytes.Repeat([]byte{3}, dataLen),
		},
	}
}

func recvOne(t *testing.T, r *Receiver) *message.Encoded {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := r.Recv(ctx)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	return msg
}

func TestOrderPreservation(t *testing.T) {
	c := newTestChannel(t, 100, 1<<20)
	r := c.Subscribe()
	for i := uint64(0); i < 10; i++ {
		c.Push(slotEvent(i))
	}
	for i := uint64(0); i < 10; i++ {
		msg := recvOne(t, r)
		if msg.Seq != i {
			t.Fatalf("seq: got %d want %d", msg.Seq, i)
		}
	}
}

func TestCapacityInvariantByCount(t *testing.T) {
	c := newTestChannel(t, 4, 1<<20)
	for i := uint64(0); i < 20; i++ {
		c.Push(slotEvent(i))
		st := c.Stats()
		if st.Messages > 4 {
			t.Fatalf("retained %d messages, cap 4", st.Messages)
		}
	}
	st := c.Stats()
	if st.Messages != 4 {
		t.Fatalf("retained %d messages, want 4", st.Messages)
	}
	if st.OldestSeq != 16 {
		t.Fatalf("oldest seq %d, want 16", st.OldestSeq)
	}
}

func TestCapacityInvariantByBytes(t *testing.T) {
	// Learn the encoded size of one account event, then cap at two of them.
	one := message.Encode(accountEvent(0, 128), message.EncodingRaw).Size()
	c := newTestChannel(t, 1000, 2*one)
	for i := uint64(0); i < 10; i++ {
		c.Push(accountEvent(i, 128))
		st := c.Stats()
		if st.Bytes > 2*one {
			t.Fatalf("retained %d bytes, cap %d", st.Bytes, 2*one)
		}
	}
	st := c.Stats()
	if st.Messages != 2 {
		t.Fatalf("retained %d messages, want 2", st.Messages)
	}
}

func TestFIFOEviction(t *testing.T) {
	c := newTestChannel(t, 3, 1<<20)
	for i := uint64(0); i < 6; i++ {
		c.Push(slotEvent(i))
	}
	// Oldest retained must always be the smallest surviving sequence.
	r := c.SubscribeFromOldest()
	want := []uint64{3, 4, 5}
	for _, w := range want {
		msg := recvOne(t, r)
		if msg.Seq != w {
			t.Fatalf("seq: got %d want %d", msg.Seq, w)
		}
	}
}

func TestLagCorrectness(t *testing.T) {
	c := newTestChannel(t, 4, 1<<20)
	r := c.Subscribe()
	for i := uint64(0); i < 10; i++ {
		c.Push(slotEvent(i))
	}
	// Window is [6..9]; cursor expected 0, so exactly 6 were skipped.
	ctx := context.Background()
	_, err := r.Recv(ctx)
	var lag *LagError
	if !errors.As(err, &lag) {
		t.Fatalf("want LagError, got %v", err)
	}
	if lag.Missed != 6 {
		t.Fatalf("missed: got %d want 6", lag.Missed)
	}
	msg := recvOne(t, r)
	if msg.Seq != 6 {
		t.Fatalf("resume seq: got %d want 6", msg.Seq)
	}
}

// Scenario: max_messages=4, push A..E, consumer subscribed before any push
// reads afterwards: Lagged(1), then seqs 1..4, then blocks.
func TestLagThenDrainThenBlock(t *testing.T) {
	c := newTestChannel(t, 4, 1<<20)
	r := c.Subscribe()
	for i := uint64(0); i < 5; i++ {
		c.Push(slotEvent(i))
	}

	_, err := r.Recv(context.Background())
	var lag *LagError
	if !errors.As(err, &lag) {
		t.Fatalf("want LagError, got %v", err)
	}
	if lag.Missed != 1 {
		t.Fatalf("missed: got %d want 1", lag.Missed)
	}
	for want := uint64(1); want <= 4; want++ {
		msg := recvOne(t, r)
		if msg.Seq != want {
			t.Fatalf("seq: got %d want %d", msg.Seq, want)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := r.Recv(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected block until deadline, got %v", err)
	}
}

func TestRecvWakesOnPush(t *testing.T) {
	c := newTestChannel(t, 10, 1<<20)
	r := c.Subscribe()

	got := make(chan *message.Encoded, 1)
	go func() {
		msg, err := r.Recv(context.Background())
		if err != nil {
			t.Errorf("recv: %v", err)
			return
		}
		got <- msg
	}()

	time.Sleep(20 * time.Millisecond)
	c.Push(slotEvent(7))

	select {
	case msg := <-got:
		if msg.Seq != 0 {
			t.Fatalf("seq: got %d want 0", msg.Seq)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for wake")
	}
}

func TestCloseUnblocksAndIsIdempotent(t *testing.T) {
	c := newTestChannel(t, 10, 1<<20)
	r := c.Subscribe()

	done := make(chan error, 1)
	go func() {
		_, err := r.Recv(context.Background())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	c.Close()
	c.Close()
	c.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("want ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("close did not unblock receiver")
	}

	// Terminal: repeated Recv keeps returning ErrClosed.
	for i := 0; i < 3; i++ {
		if _, err := r.Recv(context.Background()); !errors.Is(err, ErrClosed) {
			t.Fatalf("want ErrClosed on repeat, got %v", err)
		}
	}
}

func TestCloseDrainsRetainedFirst(t *testing.T) {
	c := newTestChannel(t, 10, 1<<20)
	r := c.Subscribe()
	c.Push(slotEvent(1))
	c.Push(slotEvent(2))
	c.Close()

	if msg := recvOne(t, r); msg.Seq != 0 {
		t.Fatalf("seq: got %d want 0", msg.Seq)
	}
	if msg := recvOne(t, r); msg.Seq != 1 {
		t.Fatalf("seq: got %d want 1", msg.Seq)
	}
	if _, err := r.Recv(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("want ErrClosed after drain, got %v", err)
	}
}

func TestPushAfterCloseIsNoop(t *testing.T) {
	c := newTestChannel(t, 10, 1<<20)
	c.Push(slotEvent(1))
	c.Close()
	c.Push(slotEvent(2))
	st := c.Stats()
	if st.Messages != 1 || st.NextSeq != 1 {
		t.Fatalf("push after close mutated buffer: %+v", st)
	}
}

func TestIndependentReceivers(t *testing.T) {
	c := newTestChannel(t, 100, 1<<20)
	fast := c.Subscribe()
	slow := c.Subscribe()
	for i := uint64(0); i < 5; i++ {
		c.Push(slotEvent(i))
	}
	for i := uint64(0); i < 5; i++ {
		if msg := recvOne(t, fast); msg.Seq != i {
			t.Fatalf("fast seq: got %d want %d", msg.Seq, i)
		}
	}
	// The stalled receiver lost nothing and starts from the beginning.
	for i := uint64(0); i < 5; i++ {
		if msg := recvOne(t, slow); msg.Seq != i {
			t.Fatalf("slow seq: got %d want %d", msg.Seq, i)
		}
	}
}

func TestSharedBytesSurviveEviction(t *testing.T) {
	c := newTestChannel(t, 2, 1<<20)
	r := c.SubscribeFromOldest()
	c.Push(accountEvent(1, 64))
	msg := recvOne(t, r)
	snapshot := append([]byte(nil), msg.Data...)

	// Evict the delivered message out of the window.
	c.Push(accountEvent(2, 64))
	c.Push(accountEvent(3, 64))

	if !bytes.Equal(msg.Data, snapshot) {
		t.Fatalf("delivered payload mutated by eviction")
	}
}

func TestCompactionKeepsWindowIntact(t *testing.T) {
	c := newTestChannel(t, 128, 1<<20)
	// Push enough to force several compactions of the dead prefix.
	for i := uint64(0); i < 2000; i++ {
		c.Push(slotEvent(i))
	}
	r := c.SubscribeFromOldest()
	st := c.Stats()
	if st.Messages != 128 {
		t.Fatalf("retained %d, want 128", st.Messages)
	}
	for want := st.OldestSeq; want < st.NextSeq; want++ {
		msg := recvOne(t, r)
		if msg.Seq != want {
			t.Fatalf("seq: got %d want %d", msg.Seq, want)
		}
	}
}
