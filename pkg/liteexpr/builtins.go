package liteexpr

import (
	"io"
	"math"
	"strings"
)

// loadBuiltins binds the fixed built-in function set into a root frame.
func loadBuiltins(st *SymbolTable) {
	// numeric conversions
	st.LoadFunc("CEIL", 1, 1, liteCeil)
	st.LoadFunc("FLOOR", 1, 1, liteFloor)
	st.LoadFunc("ROUND", 1, 1, liteRound)
	st.LoadFunc("SQRT", 1, 1, liteSqrt)

	// introspection and side effects
	st.LoadFunc("LEN", 1, 1, liteLen)
	st.LoadFunc("PRINT", 0, Variadic, litePrint)
	st.LoadFunc("EVAL", 1, 1, liteEval)

	// control flow
	st.LoadLazyFunc("IF", 2, Variadic, liteIf)
	st.LoadLazyFunc("WHILE", 2, 2, liteWhile)
	st.LoadLazyFunc("FOR", 4, 4, liteFor)
	st.LoadLazyFunc("FOREACH", 3, 3, liteForeach)
	st.LoadLazyFunc("FUNCTION", 2, 2, liteFunction)
}

// LoadFunc binds a single Go-implemented eager function into a frame.
func (st *SymbolTable) LoadFunc(name string, min, max int, exec EagerFunc) {
	// Set fails only converting host data; a *FunctionValue is a Value already
	_, _ = st.Set(name, NewFunction(name, min, max, exec))
}

// LoadLazyFunc binds a single Go-implemented lazy function into a frame.
func (st *SymbolTable) LoadLazyFunc(name string, min, max int, exec LazyFunc) {
	// Set fails only converting host data; a *FunctionValue is a Value already
	_, _ = st.Set(name, NewLazyFunction(name, min, max, exec))
}

const (
	minInt64Float = -9223372036854775808.0
	maxInt64Float = 9223372036854775808.0
)

// integral converts an already rounded float to Int when it fits, and
// leaves NaN, infinities and out-of-range results as Double.
func integral(f float64) Value {
	if f >= minInt64Float && f < maxInt64Float {
		return IntValue(int64(f))
	}
	return DoubleValue(f)
}

func roundWith(name string, round func(float64) float64, in []Value) (Value, error) {
	switch v := in[0].(type) {
	case IntValue:
		return v, nil
	case DoubleValue:
		return integral(round(float64(v))), nil
	}
	return nil, runtimeErrorf("Unsupported argument to `%s()`: (%s)", name, in[0].Kind())
}

func liteCeil(ev *Evaluator, in []Value) (Value, error) {
	return roundWith("CEIL", math.Ceil, in)
}

func liteFloor(ev *Evaluator, in []Value) (Value, error) {
	return roundWith("FLOOR", math.Floor, in)
}

func liteRound(ev *Evaluator, in []Value) (Value, error) {
	return roundWith("ROUND", math.Round, in)
}

func liteSqrt(ev *Evaluator, in []Value) (Value, error) {
	if f, ok := toFloat(in[0]); ok {
		return DoubleValue(math.Sqrt(f)), nil
	}
	return nil, runtimeErrorf("Unsupported argument to `SQRT()`: (%s)", in[0].Kind())
}

func liteLen(ev *Evaluator, in []Value) (Value, error) {
	switch v := in[0].(type) {
	case TextValue:
		return IntValue(v.Len()), nil
	case *ArrayValue:
		return IntValue(v.Len()), nil
	case *ObjectValue:
		return IntValue(v.Len()), nil
	}
	return nil, runtimeErrorf("Unsupported argument to `LEN()`: (%s)", in[0].Kind())
}

func litePrint(ev *Evaluator, in []Value) (Value, error) {
	parts := make([]string, len(in))
	for i, v := range in {
		parts[i] = v.String()
	}

	if _, err := io.WriteString(ev.Engine().out(), strings.Join(parts, " ")+"\n"); err != nil {
		return nil, Err{reason: ErrSystem, message: "PRINT could not write output: " + err.Error()}
	}
	return IntValue(len(in)), nil
}

func liteEval(ev *Evaluator, in []Value) (Value, error) {
	source, ok := in[0].(TextValue)
	if !ok {
		return nil, runtimeErrorf("Unsupported argument to `EVAL()`: (%s)", in[0].Kind())
	}
	return ev.Eval(string(source))
}

func (ev *Evaluator) condition(node Node) (bool, error) {
	val, err := ev.Visit(node)
	if err != nil {
		return false, err
	}
	t, err := Truthy(val)
	if err != nil {
		return false, asErr(err).at(node.Position())
	}
	return t, nil
}

// IF(cond, then, cond, then, ..., [else])
func liteIf(ev *Evaluator, args []Node) (Value, error) {
	i := 0
	for ; i+1 < len(args); i += 2 {
		t, err := ev.condition(args[i])
		if err != nil {
			return nil, err
		}
		if t {
			return ev.Visit(args[i+1])
		}
	}

	if i < len(args) {
		return ev.Visit(args[i])
	}
	return IntValue(0), nil
}

// WHILE(cond, body)
func liteWhile(ev *Evaluator, args []Node) (Value, error) {
	var result Value = IntValue(0)
	for {
		t, err := ev.condition(args[0])
		if err != nil {
			return nil, err
		}
		if !t {
			return result, nil
		}

		result, err = ev.Visit(args[1])
		if err != nil {
			return nil, err
		}
	}
}

// FOR(init, test, increment, body)
func liteFor(ev *Evaluator, args []Node) (Value, error) {
	if _, err := ev.Visit(args[0]); err != nil {
		return nil, err
	}

	var result Value = IntValue(0)
	for {
		t, err := ev.condition(args[1])
		if err != nil {
			return nil, err
		}
		if !t {
			return result, nil
		}

		if _, err := ev.Visit(args[3]); err != nil {
			return nil, err
		}
		result, err = ev.Visit(args[2])
		if err != nil {
			return nil, err
		}
	}
}

// FOREACH(var, iterable, body) binds each array element, or each
// [key, value] member pair of an object or scope, to var in turn.
func liteForeach(ev *Evaluator, args []Node) (Value, error) {
	target, ok := args[0].(referenceNode)
	if !ok {
		return nil, runtimeErrorf("Argument 1 to `FOREACH` must be a variable, got %s", args[0]).at(args[0].Position())
	}
	lv, err := ev.Resolve(target)
	if err != nil {
		return nil, err
	}

	iterable, err := ev.Visit(args[1])
	if err != nil {
		return nil, err
	}

	var items []Value
	switch it := iterable.(type) {
	case *ArrayValue:
		items = it.Elements()
	case *ObjectValue:
		for _, k := range it.Keys() {
			v, _ := it.Get(k)
			items = append(items, NewArray(TextValue(k), v))
		}
	case *SymbolTable:
		for _, k := range it.Names() {
			items = append(items, NewArray(TextValue(k), it.vt[k]))
		}
	default:
		return nil, runtimeErrorf("Argument 2 to `FOREACH` must be an iterable, got (%s)", iterable.Kind())
	}

	var result Value = IntValue(0)
	for _, item := range items {
		if _, err := lv.Write(item); err != nil {
			return nil, err
		}
		result, err = ev.Visit(args[2])
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// parseSignature turns a FUNCTION signature such as "??*" into arity bounds.
func parseSignature(sig string) (int, int, error) {
	min, max := 0, 0
	for _, c := range sig {
		switch c {
		case '?':
			min++
			if max != Variadic {
				max++
			}
		case '*':
			max = Variadic
		default:
			return 0, 0, runtimeErrorf("'%c' is an invalid function signature", c)
		}
	}
	return min, max, nil
}

// FUNCTION(signature, body) closes over the scope it is evaluated in.
func liteFunction(ev *Evaluator, args []Node) (Value, error) {
	sigVal, err := ev.Visit(args[0])
	if err != nil {
		return nil, err
	}
	sig, ok := sigVal.(TextValue)
	if !ok {
		return nil, runtimeErrorf("Function signature must be %s, got (%s)", TextKind, sigVal.Kind())
	}
	min, max, err := parseSignature(string(sig))
	if err != nil {
		return nil, err
	}

	body := args[1]
	defining := ev.Scope()

	return NewFunction("<Function>", min, max, func(caller *Evaluator, in []Value) (Value, error) {
		if err := caller.enter(); err != nil {
			return nil, err
		}
		defer caller.leave()

		frame := &SymbolTable{
			parent: defining,
			root:   defining.root,
			vt:     map[string]Value{},
		}
		// bindings below are Values already, so Set cannot fail
		frame.Set("ARG", NewArray(in...))
		frame.Set("GLOBAL", defining.root)
		if !defining.IsRoot() {
			frame.Set("UPSCOPE", defining)
		}

		return caller.withScope(frame).Visit(body)
	}), nil
}
