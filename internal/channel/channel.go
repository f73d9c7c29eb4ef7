package channel

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/rpcpool/richat/internal/message"
	"github.com/rpcpool/richat/internal/metrics"
)

// ErrClosed is returned by Recv once the channel is closed and the receiver
// has drained everything retained for it. It is terminal and idempotent.
var ErrClosed = errors.New("channel closed")

// Config sizes a Channel and fixes its encoding mode.
type Config struct {
	Encoding    message.Encoding
	MaxMessages int
	MaxBytes    int
}

// Channel is the retention buffer. One producer appends; many receivers
// read at independent positions. All buffer metadata is guarded by mu and
// mutated only inside the append-and-evict critical section.
type Channel struct {
	cfg Config
	m   *metrics.Metrics
	log *zap.Logger

	mu      sync.Mutex
	buf     []*message.Encoded // live messages are buf[head:]
	head    int
	headSeq uint64 // sequence of buf[head]; equals nextSeq when empty
	nextSeq uint64
	bytes   int
	closed  bool
	notify  chan struct{}
}

// New constructs a Channel. Limits must be positive.
func New(cfg Config, m *metrics.Metrics, log *zap.Logger) *Channel {
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("channel created",
		zap.Stringer("encoder", cfg.Encoding),
		zap.Int("max_messages", cfg.MaxMessages),
		zap.Int("max_bytes", cfg.MaxBytes),
	)
	return &Channel{cfg: cfg, m: m, log: log, notify: make(chan struct{})}
}

// Push encodes ev, appends it with the next sequence number, and evicts
// oldest-first until both capacity limits hold. It never blocks on a
// consumer and never fails; after the channel is closed it is a no-op.
func (c *Channel) Push(ev message.Event) {
	msg := message.Encode(ev, c.cfg.Encoding)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	msg.Seq = c.nextSeq
	c.nextSeq++
	c.buf = append(c.buf, msg)
	c.bytes += msg.Size()

	for c.count() > 0 && (c.count() > c.cfg.MaxMessages || c.bytes > c.cfg.MaxBytes) {
		c.evictOldest()
	}
	c.compact()

	retained, bytes, last := c.count(), c.bytes, c.nextSeq-1

	// Wake every waiter: close-and-replace broadcasts in one step.
	close(c.notify)
	c.notify = make(chan struct{})
	c.mu.Unlock()

	c.m.SetChannelState(retained, bytes, last)
	c.m.IncPushed(msg.Kind.String())
}

// Subscribe returns a live receiver: it sees only messages pushed after
// this call.
func (c *Channel) Subscribe() *Receiver {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Receiver{ch: c, next: c.nextSeq}
}

// SubscribeFromOldest returns a receiver positioned at the oldest retained
// message, so it drains the current backlog before going live.
func (c *Channel) SubscribeFromOldest() *Receiver {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Receiver{ch: c, next: c.headSeq}
}

// Close marks the channel closed and wakes every blocked receiver.
// Idempotent; no appends are accepted afterwards.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.notify)
	c.mu.Unlock()
	c.log.Info("channel closed")
}

// Stats is a consistent snapshot of the buffer counters.
type Stats struct {
	OldestSeq uint64
	NextSeq   uint64
	Messages  int
	Bytes     int
	Closed    bool
}

// Stats returns the current buffer state.
func (c *Channel) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		OldestSeq: c.headSeq,
		NextSeq:   c.nextSeq,
		Messages:  c.count(),
		Bytes:     c.bytes,
		Closed:    c.closed,
	}
}

// count returns the number of live messages. Caller holds mu.
func (c *Channel) count() int { return len(c.buf) - c.head }

// evictOldest drops buf[head]. Caller holds mu and guarantees count() > 0.
func (c *Channel) evictOldest() {
	old := c.buf[c.head]
	c.buf[c.head] = nil // release the buffer's reference; in-flight readers keep theirs
	c.head++
	c.headSeq++
	c.bytes -= old.Size()
}

// compact reclaims the dead prefix once it dominates the backing array.
// Caller holds mu.
func (c *Channel) compact() {
	if c.head < 64 || c.head <= len(c.buf)/2 {
		return
	}
	n := copy(c.buf, c.buf[c.head:])
	for i := n; i < len(c.buf); i++ {
		c.buf[i] = nil
	}
	c.buf = c.buf[:n]
	c.head = 0
}

// at returns the message with the given sequence. Caller holds mu and
// guarantees headSeq <= seq < nextSeq.
func (c *Channel) at(seq uint64) *message.Encoded {
	return c.buf[c.head+int(seq-c.headSeq)]
}
