package codec

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// MessagePack is the binary codec used by the native backends. Structs are
// encoded as maps keyed by field name, honoring `msgpack` and `json` struct
// tags, so every encoded value is self-describing.
//
// Decoding is strict: unknown struct fields and trailing bytes are errors, and
// so are stored numbers that don't fit the target type, e.g. 300 decoded into
// a uint8.
type MessagePack struct{}

var _ Codec = MessagePack{}

// Marshal encodes v.
func (MessagePack) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := newEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalString encodes s. The result is identical to Marshal(s).
func (MessagePack) MarshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	if err := newEncoder(&buf).EncodeString(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data into the value pointed to by v.
func (MessagePack) Unmarshal(data []byte, v any) error {
	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")
	dec.DisallowUnknownFields(true)

	if err := dec.Decode(v); err != nil {
		return err
	}
	if r.Len() > 0 {
		return fmt.Errorf("msgpack: %d trailing bytes after value", r.Len())
	}

	return checkFit(data, v)
}

func newEncoder(buf *bytes.Buffer) *msgpack.Encoder {
	enc := msgpack.NewEncoder(buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	return enc
}
