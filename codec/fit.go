package codec

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// checkFit reports an error if decoding data into v lost information. The
// msgpack decoder truncates numbers to the width of the target, so v is
// encoded again and both encodings are compared as generic values.
//
// Map entries present on one side only are accepted if their value is empty,
// to allow for omitempty fields and fields added to a struct after the value
// was stored. A map is empty if all its values are, so nil decodes into a
// struct as before.
func checkFit(data []byte, v any) error {
	stored, err := decodeGeneric(data)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err = newEncoder(&buf).Encode(v); err != nil {
		return err
	}
	decoded, err := decodeGeneric(buf.Bytes())
	if err != nil {
		return err
	}

	if !sameValue(stored, decoded) {
		typ := reflect.TypeOf(v)
		if typ.Kind() == reflect.Pointer {
			typ = typ.Elem()
		}
		return fmt.Errorf("msgpack: stored value doesn't fit in %s", typ)
	}

	return nil
}

func decodeGeneric(data []byte) (any, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	// Maps with non-string keys can't be decoded into map[string]any.
	dec.SetMapDecoder(func(d *msgpack.Decoder) (any, error) {
		return d.DecodeUntypedMap()
	})
	return dec.DecodeInterface()
}

func sameValue(a, b any) bool {
	if isEmpty(a) && isEmpty(b) {
		return true
	}

	switch av := a.(type) {
	case map[any]any:
		bv, ok := b.(map[any]any)
		return ok && sameMap(av, bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !sameValue(av[i], bv[i]) {
				return false
			}
		}
		return true
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case string:
		return sameText(av, b)
	case []byte:
		return sameText(string(av), b)
	}

	if an, ok := toNumber(a); ok {
		bn, ok := toNumber(b)
		return ok && an.equal(bn)
	}

	return reflect.DeepEqual(a, b)
}

func sameMap(a, b map[any]any) bool {
	na, nb := normalizeKeys(a), normalizeKeys(b)
	for k, va := range na {
		vb, ok := nb[k]
		if !ok {
			if !isEmpty(va) {
				return false
			}
			continue
		}
		if !sameValue(va, vb) {
			return false
		}
	}
	for k, vb := range nb {
		if _, ok := na[k]; !ok && !isEmpty(vb) {
			return false
		}
	}
	return true
}

// normalizeKeys makes keys of different integer widths with the same value
// compare equal.
func normalizeKeys(m map[any]any) map[any]any {
	out := make(map[any]any, len(m))
	for k, v := range m {
		if n, ok := toNumber(k); ok {
			k = n
		}
		out[k] = v
	}
	return out
}

// sameText compares a string with a string or a byte slice, since either can
// be decoded into the other.
func sameText(a string, b any) bool {
	switch bv := b.(type) {
	case string:
		return a == bv
	case []byte:
		return a == string(bv)
	}
	return false
}

func isEmpty(v any) bool {
	switch vv := v.(type) {
	case nil:
		return true
	case bool:
		return !vv
	case string:
		return vv == ""
	case []byte:
		return len(vv) == 0
	case []any:
		return len(vv) == 0
	case map[any]any:
		for _, e := range vv {
			if !isEmpty(e) {
				return false
			}
		}
		return true
	case time.Time:
		return vv.IsZero()
	}
	if n, ok := toNumber(v); ok {
		return n.isZero()
	}
	return false
}

// number holds any decoded integer or float without loss.
type number struct {
	float bool
	f     float64
	neg   bool
	mag   uint64
}

func toNumber(v any) (number, bool) {
	switch n := v.(type) {
	case int8:
		return intNumber(int64(n)), true
	case int16:
		return intNumber(int64(n)), true
	case int32:
		return intNumber(int64(n)), true
	case int64:
		return intNumber(n), true
	case int:
		return intNumber(int64(n)), true
	case uint8:
		return number{mag: uint64(n)}, true
	case uint16:
		return number{mag: uint64(n)}, true
	case uint32:
		return number{mag: uint64(n)}, true
	case uint64:
		return number{mag: n}, true
	case uint:
		return number{mag: uint64(n)}, true
	case float32:
		return number{float: true, f: float64(n)}, true
	case float64:
		return number{float: true, f: n}, true
	}
	return number{}, false
}

func intNumber(i int64) number {
	if i < 0 {
		// -(i+1) doesn't overflow for math.MinInt64.
		return number{neg: true, mag: uint64(-(i + 1)) + 1}
	}
	return number{mag: uint64(i)}
}

func (n number) float64() float64 {
	if n.float {
		return n.f
	}
	if n.neg {
		return -float64(n.mag)
	}
	return float64(n.mag)
}

func (n number) isZero() bool {
	if n.float {
		return n.f == 0
	}
	return n.mag == 0
}

func (n number) equal(o number) bool {
	if !n.float && !o.float {
		return n == o
	}
	nf, of := n.float64(), o.float64()
	return nf == of || (math.IsNaN(nf) && math.IsNaN(of))
}
