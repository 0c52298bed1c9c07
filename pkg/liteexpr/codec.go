package liteexpr

import (
	"bytes"
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
)

// cborEncMode encodes canonically so equal values always produce equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("liteexpr: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ToNative converts a Value into plain Go data: int64, float64, string,
// []interface{} and map[string]interface{}. Functions and scopes have no
// data form and are rejected, as are containers that hold themselves.
func ToNative(v Value) (interface{}, error) {
	return toNative(v, map[Value]bool{})
}

func selfReferential(v Value) error {
	return runtimeErrorf("Cannot encode self-referential value of type (%s)", v.Kind())
}

func toNative(v Value, path map[Value]bool) (interface{}, error) {
	switch val := v.(type) {
	case IntValue:
		return int64(val), nil
	case DoubleValue:
		return float64(val), nil
	case TextValue:
		return string(val), nil
	case *ArrayValue:
		if path[val] {
			return nil, selfReferential(val)
		}
		path[val] = true
		defer delete(path, val)

		out := make([]interface{}, len(val.elems))
		for i, el := range val.elems {
			native, err := toNative(el, path)
			if err != nil {
				return nil, err
			}
			out[i] = native
		}
		return out, nil
	case *ObjectValue:
		if path[val] {
			return nil, selfReferential(val)
		}
		path[val] = true
		defer delete(path, val)

		out := make(map[string]interface{}, len(val.keys))
		for _, k := range val.keys {
			native, err := toNative(val.vals[k], path)
			if err != nil {
				return nil, err
			}
			out[k] = native
		}
		return out, nil
	}
	return nil, runtimeErrorf("Cannot encode value of type (%s)", v.Kind())
}

// EncodeJSON renders v as JSON, keeping object members in insertion
// order. JSON has no non-finite numbers, so NaN and infinities are written
// as the strings "NaN", "Inf" and "-Inf".
func EncodeJSON(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeJSON(&buf, v, map[Value]bool{}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeJSON(buf *bytes.Buffer, v Value, path map[Value]bool) error {
	switch val := v.(type) {
	case DoubleValue:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return writeJSON(buf, val.String())
		}
		return writeJSON(buf, f)
	case *ArrayValue:
		if path[val] {
			return selfReferential(val)
		}
		path[val] = true
		defer delete(path, val)

		buf.WriteByte('[')
		for i, el := range val.elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeJSON(buf, el, path); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case *ObjectValue:
		if path[val] {
			return selfReferential(val)
		}
		path[val] = true
		defer delete(path, val)

		buf.WriteByte('{')
		for i, k := range val.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encodeJSON(buf, val.vals[k], path); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	}

	native, err := ToNative(v)
	if err != nil {
		return err
	}
	return writeJSON(buf, native)
}

func writeJSON(buf *bytes.Buffer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return Err{reason: ErrSystem, message: fmt.Sprintf("could not encode JSON: %s", err)}
	}
	buf.Write(b)
	return nil
}

// DecodeJSON parses a JSON document into a Value. Integers keep full
// 64-bit precision; object members are ordered by key.
func DecodeJSON(data []byte) (Value, error) {
	raw, err := decodeJSONRaw(data)
	if err != nil {
		return nil, err
	}
	return ToValue(raw)
}

func decodeJSONRaw(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, syntaxErrorf("Invalid JSON: %s", err)
	}
	if raw == nil {
		return nil, syntaxErrorf("Unsupported data type <nil>")
	}
	return raw, nil
}

// EncodeCBOR renders v in canonical CBOR.
func EncodeCBOR(v Value) ([]byte, error) {
	native, err := ToNative(v)
	if err != nil {
		return nil, err
	}
	b, err := cborEncMode.Marshal(native)
	if err != nil {
		return nil, Err{reason: ErrSystem, message: fmt.Sprintf("could not encode CBOR: %s", err)}
	}
	return b, nil
}

// DecodeCBOR parses a CBOR item into a Value. Byte strings become text and
// map keys are rendered as text.
func DecodeCBOR(data []byte) (Value, error) {
	var raw interface{}
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return nil, syntaxErrorf("Invalid CBOR: %s", err)
	}
	return ToValue(raw)
}

// Bindings decodes a JSON or CBOR document whose top level is an object
// into initial bindings for NewSymbolTable.
func Bindings(data []byte, format string) (map[string]interface{}, error) {
	var (
		val Value
		err error
	)
	switch format {
	case "json":
		val, err = DecodeJSON(data)
	case "cbor":
		val, err = DecodeCBOR(data)
	default:
		return nil, syntaxErrorf("Unknown bindings format %q", format)
	}
	if err != nil {
		return nil, err
	}

	obj, ok := val.(*ObjectValue)
	if !ok {
		return nil, syntaxErrorf("Bindings must be an %s, got (%s)", ObjectKind, val.Kind())
	}

	bindings := make(map[string]interface{}, obj.Len())
	for _, k := range obj.keys {
		bindings[k] = obj.vals[k]
	}
	return bindings, nil
}
