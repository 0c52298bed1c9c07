package liteexpr

import (
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ValueKind enumerates the runtime kinds a Value may have.
type ValueKind int

const (
	IntKind ValueKind = iota
	DoubleKind
	TextKind
	ArrayKind
	ObjectKind
	FunctionKind
	ScopeKind
)

func (k ValueKind) String() string {
	switch k {
	case IntKind:
		return "INTEGER"
	case DoubleKind:
		return "DOUBLE"
	case TextKind:
		return "STRING"
	case ArrayKind:
		return "ARRAY"
	case ObjectKind:
		return "OBJECT"
	case FunctionKind:
		return "FUNCTION"
	case ScopeKind:
		return "SCOPE"
	default:
		return "UNKNOWN"
	}
}

// Value represents any value in a liteexpr program. Every Value held by a
// scope, array, object or argument list is one of the canonical variants
// below; foreign data enters through ToValue.
type Value interface {
	// String is the textual rendering used by concatenation and PRINT.
	String() string
	// Equals reports whether the given value is deep-equal to the
	// receiving value. Int and Double compare numerically.
	Equals(Value) bool
	Kind() ValueKind
}

// IntValue is a signed 64-bit integer. Go's int64 arithmetic already wraps
// in two's complement, so every operator result stays in range.
type IntValue int64

func (v IntValue) String() string {
	return strconv.FormatInt(int64(v), 10)
}

func (v IntValue) Equals(other Value) bool {
	switch ov := other.(type) {
	case IntValue:
		return v == ov
	case DoubleValue:
		return float64(v) == float64(ov)
	}
	return false
}

func (v IntValue) Kind() ValueKind {
	return IntKind
}

// DoubleValue is an IEEE-754 binary64 number.
type DoubleValue float64

func (v DoubleValue) String() string {
	return formatDouble(float64(v))
}

func (v DoubleValue) Equals(other Value) bool {
	switch ov := other.(type) {
	case DoubleValue:
		return v == ov
	case IntValue:
		return float64(v) == float64(ov)
	}
	return false
}

func (v DoubleValue) Kind() ValueKind {
	return DoubleKind
}

func formatDouble(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}

	abs := math.Abs(f)
	if abs >= 1e16 || (abs != 0 && abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// TextValue is a string of Unicode code points.
type TextValue string

func (v TextValue) String() string {
	return string(v)
}

func (v TextValue) Equals(other Value) bool {
	if ov, ok := other.(TextValue); ok {
		return v == ov
	}
	return false
}

func (v TextValue) Kind() ValueKind {
	return TextKind
}

// Len returns the number of code points in the text.
func (v TextValue) Len() int {
	return utf8.RuneCountInString(string(v))
}

// ArrayValue is a growable, 0-indexed sequence. It is always handled by
// pointer, so every reference aliases the same elements.
type ArrayValue struct {
	elems []Value
}

// NewArray builds an array from already-normalized values.
func NewArray(elems ...Value) *ArrayValue {
	return &ArrayValue{elems: append([]Value{}, elems...)}
}

func (v *ArrayValue) String() string {
	return encode(v)
}

func (v *ArrayValue) Equals(other Value) bool {
	ov, ok := other.(*ArrayValue)
	if !ok {
		return false
	}
	if v == ov {
		return true
	}
	if len(v.elems) != len(ov.elems) {
		return false
	}
	for i, el := range v.elems {
		if !el.Equals(ov.elems[i]) {
			return false
		}
	}
	return true
}

func (v *ArrayValue) Kind() ValueKind {
	return ArrayKind
}

func (v *ArrayValue) Len() int {
	return len(v.elems)
}

// Elements returns a copy of the array's elements.
func (v *ArrayValue) Elements() []Value {
	return append([]Value{}, v.elems...)
}

// Get reads the element at index i.
func (v *ArrayValue) Get(i int64) (Value, error) {
	if i < 0 || i >= int64(len(v.elems)) {
		return nil, runtimeErrorf("Array index `%d` out of range, expected < %d", i, len(v.elems))
	}
	return v.elems[i], nil
}

// Set normalizes raw and stores it at index i. Writing at the current
// length appends; anything past that is out of range.
func (v *ArrayValue) Set(i int64, raw interface{}) (Value, error) {
	if i < 0 || i > int64(len(v.elems)) {
		return nil, runtimeErrorf("Array index `%d` out of range, expected <= %d", i, len(v.elems))
	}

	val, err := ToValue(raw)
	if err != nil {
		return nil, err
	}

	if i == int64(len(v.elems)) {
		v.elems = append(v.elems, val)
	} else {
		v.elems[i] = val
	}
	return val, nil
}

// Append normalizes raw and pushes it onto the end of the array.
func (v *ArrayValue) Append(raw interface{}) (Value, error) {
	return v.Set(int64(len(v.elems)), raw)
}

// ObjectValue is an insertion-ordered mapping from text keys to values.
type ObjectValue struct {
	keys []string
	vals map[string]Value
}

func NewObject() *ObjectValue {
	return &ObjectValue{vals: map[string]Value{}}
}

func (v *ObjectValue) String() string {
	return encode(v)
}

func (v *ObjectValue) Equals(other Value) bool {
	ov, ok := other.(*ObjectValue)
	if !ok {
		return false
	}
	if v == ov {
		return true
	}
	if len(v.keys) != len(ov.keys) {
		return false
	}
	for k, val := range v.vals {
		oval, found := ov.vals[k]
		if !found || !val.Equals(oval) {
			return false
		}
	}
	return true
}

func (v *ObjectValue) Kind() ValueKind {
	return ObjectKind
}

func (v *ObjectValue) Len() int {
	return len(v.keys)
}

// Keys returns the member names in insertion order.
func (v *ObjectValue) Keys() []string {
	return append([]string{}, v.keys...)
}

func (v *ObjectValue) Get(key string) (Value, bool) {
	val, ok := v.vals[key]
	return val, ok
}

// Set normalizes raw and inserts or overwrites the member. An overwrite
// keeps the member's original position.
func (v *ObjectValue) Set(key string, raw interface{}) (Value, error) {
	val, err := ToValue(raw)
	if err != nil {
		return nil, err
	}

	if _, exists := v.vals[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.vals[key] = val
	return val, nil
}

// Truthy reduces a value by emptiness: zero, 0.0, empty text and empty
// containers are false. Functions and scopes have no truthiness.
func Truthy(v Value) (bool, error) {
	switch val := v.(type) {
	case IntValue:
		return val != 0, nil
	case DoubleValue:
		return val != 0, nil
	case TextValue:
		return len(val) > 0, nil
	case *ArrayValue:
		return val.Len() > 0, nil
	case *ObjectValue:
		return val.Len() > 0, nil
	}
	return false, runtimeErrorf("Unsupported operand type for truth test: (%s)", v.Kind())
}

func boolValue(b bool) IntValue {
	if b {
		return 1
	}
	return 0
}

// numberLiteral matches json.Number from either the standard library or
// go-json without depending on the concrete type.
type numberLiteral interface {
	String() string
	Int64() (int64, error)
	Float64() (float64, error)
}

var maxUint64 = new(big.Int).SetUint64(math.MaxUint64)

func wrapBigInt(n *big.Int) IntValue {
	return IntValue(int64(new(big.Int).And(n, maxUint64).Uint64()))
}

// ToValue normalizes raw Go data into a canonical Value, recursing into
// slices and maps. Values pass through unchanged.
func ToValue(raw interface{}) (Value, error) {
	switch v := raw.(type) {
	case Value:
		return v, nil
	case bool:
		return boolValue(v), nil
	case int:
		return IntValue(v), nil
	case int8:
		return IntValue(v), nil
	case int16:
		return IntValue(v), nil
	case int32:
		return IntValue(v), nil
	case int64:
		return IntValue(v), nil
	case uint:
		return IntValue(v), nil
	case uint8:
		return IntValue(v), nil
	case uint16:
		return IntValue(v), nil
	case uint32:
		return IntValue(v), nil
	case uint64:
		return IntValue(v), nil
	case *big.Int:
		return wrapBigInt(v), nil
	case big.Int:
		return wrapBigInt(&v), nil
	case float32:
		return DoubleValue(v), nil
	case float64:
		return DoubleValue(v), nil
	case string:
		return TextValue(v), nil
	case []byte:
		return TextValue(v), nil
	case numberLiteral:
		return numberToValue(v)
	case []Value:
		return NewArray(v...), nil
	case []interface{}:
		arr := &ArrayValue{elems: make([]Value, 0, len(v))}
		for _, el := range v {
			if _, err := arr.Append(el); err != nil {
				return nil, err
			}
		}
		return arr, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		obj := NewObject()
		for _, k := range keys {
			if _, err := obj.Set(k, v[k]); err != nil {
				return nil, err
			}
		}
		return obj, nil
	case func([]Value) (Value, error):
		return NewFunction("<native>", 0, Variadic, func(_ *Evaluator, args []Value) (Value, error) {
			return v(args)
		}), nil
	}

	return reflectToValue(raw)
}

func numberToValue(n numberLiteral) (Value, error) {
	if i, err := n.Int64(); err == nil {
		return IntValue(i), nil
	}
	if b, ok := new(big.Int).SetString(n.String(), 10); ok {
		return wrapBigInt(b), nil
	}
	f, err := n.Float64()
	if err != nil && !math.IsInf(f, 0) {
		return nil, syntaxErrorf("Unsupported number literal %s", n.String())
	}
	return DoubleValue(f), nil
}

func reflectToValue(raw interface{}) (Value, error) {
	if raw == nil {
		return nil, syntaxErrorf("Unsupported data type <nil>")
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		arr := &ArrayValue{elems: make([]Value, 0, rv.Len())}
		for i := 0; i < rv.Len(); i++ {
			if _, err := arr.Append(rv.Index(i).Interface()); err != nil {
				return nil, err
			}
		}
		return arr, nil
	case reflect.Map:
		type entry struct {
			key string
			val interface{}
		}
		entries := make([]entry, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := ToValue(iter.Key().Interface())
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry{k.String(), iter.Value().Interface()})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

		obj := NewObject()
		for _, e := range entries {
			if _, err := obj.Set(e.key, e.val); err != nil {
				return nil, err
			}
		}
		return obj, nil
	case reflect.Ptr, reflect.Interface:
		if !rv.IsNil() {
			return ToValue(rv.Elem().Interface())
		}
	}

	return nil, syntaxErrorf("Unsupported data type %T", raw)
}

// Repr returns the encoded form of v: text is quoted and escaped, and
// containers are rendered one member per line.
func Repr(v Value) string {
	if st, ok := v.(*SymbolTable); ok {
		return st.encoded()
	}
	return encode(v)
}

func encode(v Value) string {
	return encodePath(v, map[Value]bool{})
}

// encodePath renders v, writing a container already on the rendering
// path as [...] or {...}.
func encodePath(v Value, path map[Value]bool) string {
	switch val := v.(type) {
	case TextValue:
		return encodeText(string(val))
	case *ArrayValue:
		if val.Len() == 0 {
			return "[]"
		}
		if path[val] {
			return "[...]"
		}
		path[val] = true
		defer delete(path, val)

		var b strings.Builder
		b.WriteString("[")
		for i, el := range val.elems {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString("\n  ")
			b.WriteString(indent(encodePath(el, path)))
		}
		b.WriteString("\n]")
		return b.String()
	case *ObjectValue:
		if path[val] {
			return "{...}"
		}
		path[val] = true
		defer delete(path, val)

		members := make([]string, len(val.keys))
		for i, k := range val.keys {
			members[i] = k + " : " + indent(encodePath(val.vals[k], path))
		}
		return encodeMembers(members)
	case *SymbolTable:
		// nested scopes may refer back to the frame being rendered
		return "<SCOPE>"
	case nil:
		return "<nil>"
	}
	return v.String()
}

func encodeMembers(members []string) string {
	if len(members) == 0 {
		return "{}"
	}
	return "{\n  " + strings.Join(members, ",\n  ") + "\n}"
}

func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n  ")
}

func encodeText(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\r':
			b.WriteString(`\r`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// DecodeText decodes the body of a text literal. The surrounding quotes,
// if present, are stripped first; error offsets count from inside them.
func DecodeText(lexeme string) (string, error) {
	s := lexeme
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	i := 0
	for i < len(s) {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			i++
			continue
		}

		rest := s[i:]
		switch {
		case strings.HasPrefix(rest, "\\\r\n"):
			i += 3
		case strings.HasPrefix(rest, "\\\r"), strings.HasPrefix(rest, "\\\n"):
			i += 2
		case strings.HasPrefix(rest, `\\`):
			b.WriteByte('\\')
			i += 2
		case strings.HasPrefix(rest, `\"`):
			b.WriteByte('"')
			i += 2
		case strings.HasPrefix(rest, `\t`):
			b.WriteByte('\t')
			i += 2
		case strings.HasPrefix(rest, `\r`):
			b.WriteByte('\r')
			i += 2
		case strings.HasPrefix(rest, `\n`):
			b.WriteByte('\n')
			i += 2
		case strings.HasPrefix(rest, `\x`), strings.HasPrefix(rest, `\u`), strings.HasPrefix(rest, `\U`):
			digits := map[byte]int{'x': 2, 'u': 4, 'U': 8}[rest[1]]
			if len(rest) < 2+digits {
				return "", syntaxErrorf("Invalid backslash sequence in string at position %d", i)
			}
			cp, err := strconv.ParseUint(rest[2:2+digits], 16, 32)
			if err != nil || cp > utf8.MaxRune {
				return "", syntaxErrorf("Invalid backslash sequence in string at position %d", i)
			}
			b.WriteRune(rune(cp))
			i += 2 + digits
		default:
			return "", syntaxErrorf("Invalid backslash sequence in string at position %d", i)
		}
	}
	return b.String(), nil
}
