package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"unicode/utf8"
)

// Text is the codec used by the browser backend, whose storage only holds
// strings. Values of string kind are stored as raw text, everything else as
// JSON. Decoding into a string returns the stored text verbatim.
type Text struct{}

var _ Codec = Text{}

// Marshal encodes v.
func (t Text) Marshal(v any) ([]byte, error) {
	if s, ok := stringValue(v); ok {
		return t.MarshalString(s)
	}
	return json.Marshal(v)
}

// MarshalString returns s unchanged. It fails if s is not valid UTF-8, since
// it couldn't be stored losslessly.
func (Text) MarshalString(s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, errors.New("text: string is not valid UTF-8")
	}
	return []byte(s), nil
}

// Unmarshal decodes data into the value pointed to by v. Unknown struct fields
// and trailing data are errors.
func (Text) Unmarshal(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("text: cannot decode into non-pointer %T", v)
	}
	if isStringPointer(rv.Type()) {
		elem := rv.Elem()
		for elem.Kind() == reflect.Pointer {
			if elem.IsNil() {
				elem.Set(reflect.New(elem.Type().Elem()))
			}
			elem = elem.Elem()
		}
		elem.SetString(string(data))
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("text: trailing data after value")
	}

	return nil
}

// isStringPointer reports whether typ is one or more pointers to a string kind.
func isStringPointer(typ reflect.Type) bool {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ.Kind() == reflect.String
}

// stringValue returns the string held by v if its kind is string, following
// pointers.
func stringValue(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}
