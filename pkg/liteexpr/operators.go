package liteexpr

import (
	"math"
)

func unsupportedUnary(op Kind, v Value) error {
	return runtimeErrorf("Unsupported operand type for `%s`: (%s)", op, v.Kind())
}

func unsupportedBinary(op Kind, l, r Value) error {
	return runtimeErrorf("Unsupported operand type(s) for `%s`: (%s,%s)", op, l.Kind(), r.Kind())
}

// truthOperand reduces an operand of a logical operator to its truthiness.
func truthOperand(op Kind, v Value) (bool, error) {
	t, err := Truthy(v)
	if err != nil {
		return false, unsupportedUnary(op, v)
	}
	return t, nil
}

func toFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case IntValue:
		return float64(n), true
	case DoubleValue:
		return float64(n), true
	}
	return 0, false
}

func unaryOp(op Kind, v Value) (Value, error) {
	switch op {
	case NotOp:
		t, err := truthOperand(op, v)
		if err != nil {
			return nil, err
		}
		return boolValue(!t), nil
	case BitNotOp:
		if i, ok := v.(IntValue); ok {
			return ^i, nil
		}
	case AddOp:
		switch v.(type) {
		case IntValue, DoubleValue:
			return v, nil
		}
	case SubtractOp:
		switch n := v.(type) {
		case IntValue:
			return -n, nil
		case DoubleValue:
			return -n, nil
		}
	}
	return nil, unsupportedUnary(op, v)
}

// increment backs ++ and --, which only apply to integers.
func increment(op Kind, v Value) (Value, error) {
	i, ok := v.(IntValue)
	if !ok {
		return nil, unsupportedUnary(op, v)
	}
	if op == DecrementOp {
		return i - 1, nil
	}
	return i + 1, nil
}

// binaryOp applies every binary operator except the short-circuiting
// logical ones and sequencing, which need their operands unevaluated.
func binaryOp(op Kind, l, r Value) (Value, error) {
	switch op {
	case AddOp:
		return opAdd(l, r)
	case SubtractOp, MultiplyOp:
		return opArith(op, l, r)
	case DivideOp:
		return opDiv(l, r)
	case ModulusOp:
		return opMod(l, r)
	case PowerOp:
		return opPow(l, r)
	case ShiftLeftOp, ShiftRightOp, UnsignedShiftRightOp:
		return opShift(op, l, r)
	case BitAndOp, BitXorOp, BitOrOp:
		return opBitwise(op, l, r)
	case EqualOp:
		return boolValue(l.Equals(r)), nil
	case NotEqualOp:
		return boolValue(!l.Equals(r)), nil
	case LessThanOp, LessEqualOp, GreaterThanOp, GreaterEqualOp:
		return opCompare(op, l, r)
	}
	return nil, unsupportedBinary(op, l, r)
}

func opAdd(l, r Value) (Value, error) {
	_, lText := l.(TextValue)
	_, rText := r.(TextValue)
	if lText || rText {
		return TextValue(l.String() + r.String()), nil
	}

	if la, ok := l.(*ArrayValue); ok {
		if ra, ok := r.(*ArrayValue); ok {
			return NewArray(append(la.Elements(), ra.elems...)...), nil
		}
	}

	return opArith(AddOp, l, r)
}

// opArith handles + - * with numeric promotion: Int,Int stays Int and
// wraps; a Double on either side makes the result Double.
func opArith(op Kind, l, r Value) (Value, error) {
	li, lInt := l.(IntValue)
	ri, rInt := r.(IntValue)
	if lInt && rInt {
		switch op {
		case AddOp:
			return li + ri, nil
		case SubtractOp:
			return li - ri, nil
		default:
			return li * ri, nil
		}
	}

	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if !lok || !rok {
		return nil, unsupportedBinary(op, l, r)
	}
	switch op {
	case AddOp:
		return DoubleValue(lf + rf), nil
	case SubtractOp:
		return DoubleValue(lf - rf), nil
	default:
		return DoubleValue(lf * rf), nil
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func opDiv(l, r Value) (Value, error) {
	li, lInt := l.(IntValue)
	ri, rInt := r.(IntValue)
	if lInt && rInt {
		if ri == 0 {
			return nil, runtimeErrorf("Division by zero: (%s / %s)", l, r)
		}
		return IntValue(floorDiv(int64(li), int64(ri))), nil
	}

	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if !lok || !rok {
		return nil, unsupportedBinary(DivideOp, l, r)
	}
	if rf == 0 {
		// the divisor's sign is ignored
		if lf == 0 || math.IsNaN(lf) {
			return DoubleValue(math.NaN()), nil
		}
		return DoubleValue(math.Inf(int(math.Copysign(1, lf)))), nil
	}
	return DoubleValue(lf / rf), nil
}

func opMod(l, r Value) (Value, error) {
	li, lInt := l.(IntValue)
	ri, rInt := r.(IntValue)
	if !lInt || !rInt {
		return nil, unsupportedBinary(ModulusOp, l, r)
	}
	if ri == 0 {
		return nil, runtimeErrorf("Modulus by zero: (%s %% %s)", l, r)
	}
	return IntValue(floorMod(int64(li), int64(ri))), nil
}

// intPow raises base to a non-negative exponent with int64 wraparound.
func intPow(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func opPow(l, r Value) (Value, error) {
	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if !lok || !rok {
		return nil, unsupportedBinary(PowerOp, l, r)
	}
	if lf == 0 && rf < 0 {
		return nil, runtimeErrorf("Negative power of zero: (%s ** %s)", l, r)
	}

	li, lInt := l.(IntValue)
	ri, rInt := r.(IntValue)
	if lInt && rInt && ri >= 0 {
		return IntValue(intPow(int64(li), int64(ri))), nil
	}

	// math.Pow already yields NaN where the real result is complex
	return DoubleValue(math.Pow(lf, rf)), nil
}

func opShift(op Kind, l, r Value) (Value, error) {
	li, lInt := l.(IntValue)
	ri, rInt := r.(IntValue)
	if !lInt || !rInt {
		return nil, unsupportedBinary(op, l, r)
	}
	if ri < 0 {
		return nil, runtimeErrorf("Invalid attempt to shift `%s` by a negative amount: %d", op, ri)
	}

	switch op {
	case ShiftLeftOp:
		return li << uint64(ri), nil
	case ShiftRightOp:
		return li >> uint64(ri), nil
	default:
		return IntValue(int64(uint64(li) >> uint64(ri))), nil
	}
}

func opBitwise(op Kind, l, r Value) (Value, error) {
	li, lInt := l.(IntValue)
	ri, rInt := r.(IntValue)
	if !lInt || !rInt {
		return nil, unsupportedBinary(op, l, r)
	}

	switch op {
	case BitAndOp:
		return li & ri, nil
	case BitXorOp:
		return li ^ ri, nil
	default:
		return li | ri, nil
	}
}

func compareResult(op Kind, cmp int) IntValue {
	switch op {
	case LessThanOp:
		return boolValue(cmp < 0)
	case LessEqualOp:
		return boolValue(cmp <= 0)
	case GreaterThanOp:
		return boolValue(cmp > 0)
	default:
		return boolValue(cmp >= 0)
	}
}

func opCompare(op Kind, l, r Value) (Value, error) {
	if lt, ok := l.(TextValue); ok {
		if rt, ok := r.(TextValue); ok {
			switch {
			case lt < rt:
				return compareResult(op, -1), nil
			case lt > rt:
				return compareResult(op, 1), nil
			default:
				return compareResult(op, 0), nil
			}
		}
		return nil, unsupportedBinary(op, l, r)
	}

	li, lInt := l.(IntValue)
	ri, rInt := r.(IntValue)
	if lInt && rInt {
		switch {
		case li < ri:
			return compareResult(op, -1), nil
		case li > ri:
			return compareResult(op, 1), nil
		default:
			return compareResult(op, 0), nil
		}
	}

	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if !lok || !rok {
		return nil, unsupportedBinary(op, l, r)
	}

	// NaN compares false under every ordering
	switch op {
	case LessThanOp:
		return boolValue(lf < rf), nil
	case LessEqualOp:
		return boolValue(lf <= rf), nil
	case GreaterThanOp:
		return boolValue(lf > rf), nil
	default:
		return boolValue(lf >= rf), nil
	}
}
