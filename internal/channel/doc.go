// Package channel implements the plugin's bounded in-memory broadcast
// buffer: a single ordered log of encoded messages with strict FIFO
// eviction, written synchronously by the validator callback path and tailed
// concurrently by any number of independent receivers.
//
// # Overview
//
// Push encodes, assigns the next sequence number, appends, and evicts the
// oldest messages until both max_messages and max_bytes hold — all inside
// one short critical section, so every consumer observes the same total
// order. Push never blocks on consumers and never fails; capacity pressure
// is resolved by eviction alone.
//
// Receivers track only the next sequence they expect. A receiver that falls
// behind the retained window gets a *LagError carrying the exact number of
// skipped messages and resumes at the oldest retained message; one stalled
// receiver never slows the producer or any other receiver. Waiting is done
// against a notify channel that the producer closes and replaces on every
// append, so a blocked Recv resolves within one scheduling step of the
// append or of Close.
//
// Messages are immutable after append and shared by reference, so eviction
// only drops the buffer's own reference — a delivery already in flight keeps
// the bytes alive until the receiver releases them.
package channel
