package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// ByteSize is a byte quantity that unmarshals from either a JSON number or
// a human-readable string such as "512MiB" or "15GiB".
type ByteSize uint64

// UnmarshalJSON implements json.Unmarshaler.
func (s *ByteSize) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		v, err := humanize.ParseBytes(str)
		if err != nil {
			return fmt.Errorf("byte size %q: %v", str, err)
		}
		*s = ByteSize(v)
		return nil
	}
	var v uint64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = ByteSize(v)
	return nil
}

// Count is a cardinality that unmarshals from either a JSON number or a
// string with optional underscore group separators, e.g. "2_097_152".
type Count uint64

// UnmarshalJSON implements json.Unmarshaler.
func (c *Count) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		v, err := strconv.ParseUint(strings.ReplaceAll(str, "_", ""), 10, 64)
		if err != nil {
			return fmt.Errorf("count %q: %v", str, err)
		}
		*c = Count(v)
		return nil
	}
	var v uint64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Count(v)
	return nil
}
