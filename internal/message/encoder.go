package message

import "fmt"

// Encoding selects the payload representation. Fixed per channel instance.
type Encoding uint8

const (
	EncodingRaw Encoding = iota
	EncodingProtobuf
)

// ParseEncoding maps the config spelling to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "raw":
		return EncodingRaw, nil
	case "protobuf":
		return EncodingProtobuf, nil
	default:
		return 0, fmt.Errorf("unknown encoder %q", s)
	}
}

// String returns the config spelling.
func (e Encoding) String() string {
	switch e {
	case EncodingRaw:
		return "raw"
	case EncodingProtobuf:
		return "protobuf"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// Encoded is a sequenced, size-known payload. The channel assigns Seq at
// append time; after that the value is immutable and safely shared by
// reference between the retention buffer and any number of in-flight
// deliveries.
type Encoded struct {
	Seq      uint64
	Kind     Kind
	Encoding Encoding
	Data     []byte
}

// Size is the retained byte weight charged against the channel's max_bytes.
func (e *Encoded) Size() int { return len(e.Data) }

// Encode turns an event into its encoded payload. It never fails on a
// well-formed event and performs no I/O.
func Encode(ev Event, enc Encoding) *Encoded {
	var data []byte
	switch enc {
	case EncodingProtobuf:
		data = encodeProtobuf(ev)
	default:
		data = encodeRaw(ev)
	}
	return &Encoded{Kind: ev.Kind(), Encoding: enc, Data: data}
}
