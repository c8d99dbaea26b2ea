// Package codec converts typed values to the byte representation stored by
// the backends, and back.
package codec

// Codec encodes and decodes values.
type Codec interface {
	// Marshal encodes v.
	Marshal(v any) ([]byte, error)
	// MarshalString encodes s. Decoding the result into a string must return
	// s unchanged.
	MarshalString(s string) ([]byte, error)
	// Unmarshal decodes data into the value pointed to by v. It fails if data
	// is not a complete, valid encoding of v's type.
	Unmarshal(data []byte, v any) error
}
