// Package message defines the plugin's stable event representation and the
// encoders that turn events into size-known payloads.
//
// Two interchangeable encodings exist, fixed per channel at construction:
//
//   - EncodingRaw: a compact internal framing (kind byte, varint fields,
//     crc32c trailer). Cheapest to produce; consumers must share this
//     module's layout knowledge.
//   - EncodingProtobuf: protobuf wire format, self-describing across
//     processes. Field numbers are part of the public wire contract and
//     documented next to each writer.
//
// Encoding is deterministic, side-effect free, performs no I/O, and
// allocates proportionally to the payload it frames. Downstream transports
// ship the encoded bytes verbatim; nothing is ever re-serialized after the
// producer path.
package message
