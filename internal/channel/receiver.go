package channel

import (
	"context"
	"fmt"

	"github.com/rpcpool/richat/internal/message"
)

// LagError reports that a receiver's next expected message was evicted
// before it was read. Missed is the exact number of skipped messages; the
// receiver has already been advanced to the oldest retained sequence, so
// the following Recv resumes there. Recoverable and local to one receiver.
type LagError struct {
	Missed uint64
}

func (e *LagError) Error() string {
	return fmt.Sprintf("receiver lagged: %d messages skipped", e.Missed)
}

// Receiver is a subscriber cursor: the next sequence number it expects,
// nothing more. Receivers are not safe for concurrent use by multiple
// goroutines; each consumer task owns its own.
type Receiver struct {
	ch   *Channel
	next uint64
}

// Recv blocks until a message past the cursor is available, the channel is
// closed, or ctx is done.
//
// Return values:
//   - (msg, nil): the next message in order; the cursor advanced past it.
//   - (nil, *LagError): the cursor fell behind the retained window; it now
//     points at the oldest retained message.
//   - (nil, ErrClosed): the channel is closed and nothing is pending for
//     this cursor. Terminal; repeated calls keep returning ErrClosed.
//   - (nil, ctx.Err()): the caller's context ended first.
func (r *Receiver) Recv(ctx context.Context) (*message.Encoded, error) {
	c := r.ch
	for {
		c.mu.Lock()
		if r.next < c.headSeq {
			missed := c.headSeq - r.next
			r.next = c.headSeq
			c.mu.Unlock()
			return nil, &LagError{Missed: missed}
		}
		if r.next < c.nextSeq {
			msg := c.at(r.next)
			r.next++
			c.mu.Unlock()
			return msg, nil
		}
		if c.closed {
			c.mu.Unlock()
			return nil, ErrClosed
		}
		wait := c.notify
		c.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Position returns the next sequence number the receiver expects.
func (r *Receiver) Position() uint64 { return r.next }
