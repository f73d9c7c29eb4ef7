// Package quicserver serves the retention channel over QUIC.
//
// Each client connection carries one bidirectional stream: the client sends
// a one-byte request (0 = live, 1 = from oldest retained) and the server
// answers with uvarint-length-prefixed encoded payloads until the plugin
// unloads (stream FIN) or the subscriber lags out of the retained window
// (connection closed with the lagged application error code).
//
// QUIC mandates TLS; certificate and key come from the config, or a
// self-signed development certificate is generated when both are unset.
package quicserver
