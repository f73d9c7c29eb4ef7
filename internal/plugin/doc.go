// Package plugin is the lifecycle orchestrator: it implements the host's
// geyser callback surface, owns the retention channel, and runs the
// configured network service tasks.
//
// Lifecycle: OnLoad builds everything from the config file — logger,
// metrics, channel, then every configured service bound to one shared
// cancellation context. Any construction or bind failure aborts the whole
// load; nothing is left partially running. OnUnload closes the channel
// first (unblocking every subscriber with end-of-stream), cancels the
// shared context, and joins each task within the configured bound; a task
// that exceeds the bound is abandoned, never awaited indefinitely.
// OnUnload on an unloaded plugin is a no-op.
//
// The callback path applies the configured filters before anything reaches
// the channel: startup-phase account writes are never forwarded, and
// account data above max_account_data_size is dropped. The per-category
// enable flags answer the host's capability queries so disabled categories
// are never delivered at all.
package plugin
