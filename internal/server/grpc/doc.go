// Package grpcserver serves the retention channel over gRPC.
//
// Messages in the channel are already encoded, so the service is registered
// through a hand-written descriptor with a passthrough byte codec: payloads
// go onto the wire verbatim, nothing is re-serialized per subscriber.
//
// Protocol:
//
//   - Subscribe (server-streaming): the request's first byte selects the
//     start position (0 = live, 1 = from oldest retained). Each response
//     message is one encoded channel payload. A subscriber that falls
//     behind the retained window is cut off with DATA_LOSS carrying the
//     skipped count; reconnecting resumes from the oldest retained message.
//     Plugin unload ends the stream cleanly with OK.
//   - GetVersion (unary): returns the plugin's version info as JSON.
package grpcserver
