package liteexpr

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalWithOutput(t *testing.T, source string) (Value, string) {
	t.Helper()

	var out bytes.Buffer
	val, err := (&Engine{Out: &out}).Eval(source, nil)
	require.NoError(t, err)
	return val, out.String()
}

func TestPrint(t *testing.T) {
	val, out := evalWithOutput(t, `PRINT("a", 1, 2.5, [1, "x"]); PRINT()`)
	assert.Equal(t, IntValue(0), val)
	assert.Equal(t, "a 1 2.5 [\n  1,\n  \"x\"\n]\n\n", out)
}

func TestPrintSelfReferentialArray(t *testing.T) {
	val, out := evalWithOutput(t, `a = [1]; a[1] = a; PRINT(a)`)
	assert.Equal(t, IntValue(1), val)
	assert.Equal(t, "[\n  1,\n  [...]\n]\n", out)
}

func TestNumericBuiltins(t *testing.T) {
	cases := []struct {
		source string
		want   string
	}{
		{"CEIL(1.2)", "2"},
		{"CEIL(-1.2)", "-1"},
		{"FLOOR(-1.2)", "-2"},
		{"FLOOR(7)", "7"},
		{"ROUND(2.5)", "3"},
		{"ROUND(-2.5)", "-3"},
		{"ROUND(2.4)", "2"},
		{"SQRT(16)", "4.0"},
		{"SQRT(2.25)", "1.5"},
		{"SQRT(-1)", "NaN"},
		{"CEIL(0.0 / 0.0)", "NaN"},
		{"FLOOR(1.0 / 0.0)", "Inf"},
		{"ROUND(1e300)", "1e+300"},
	}

	for _, c := range cases {
		t.Run(c.source, func(t *testing.T) {
			val, err := Eval(c.source, nil)
			require.NoError(t, err)
			assert.Equal(t, c.want, val.String())
		})
	}

	val, err := Eval("CEIL(1.2)", nil)
	require.NoError(t, err)
	assert.Equal(t, IntKind, val.Kind())
}

func TestLen(t *testing.T) {
	cases := map[string]IntValue{
		`LEN("")`:          0,
		`LEN("héllo")`:     5,
		"LEN([1, [2, 3]])": 2,
		"LEN({a: 1})":      1,
	}
	for source, want := range cases {
		val, err := Eval(source, nil)
		require.NoError(t, err, source)
		assert.Equal(t, want, val, source)
	}

	_, err := Eval("LEN(1)", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unsupported argument to `LEN()`: (INTEGER)")
}

func TestBuiltinArgumentErrors(t *testing.T) {
	for _, source := range []string{`SQRT("4")`, "CEIL([1])", "ROUND({})"} {
		_, err := Eval(source, nil)
		require.Error(t, err, source)
		assert.True(t, IsRuntimeError(err), source)
		assert.Contains(t, err.Error(), "Unsupported argument to")
	}
}

func TestIf(t *testing.T) {
	cases := []struct {
		source string
		want   IntValue
	}{
		{"IF(1, 10)", 10},
		{"IF(0, 10)", 0},
		{"IF(0, 10, 20)", 20},
		{"IF(0, 1, 0, 2, 3)", 3},
		{"IF(0, 1, 1, 2, 3)", 2},
		{"IF(1, 1, 1 / 0, 2)", 1},
		{"IF(0, 1 / 0, 5)", 5},
	}

	for _, c := range cases {
		t.Run(c.source, func(t *testing.T) {
			val, err := Eval(c.source, nil)
			require.NoError(t, err)
			assert.Equal(t, c.want, val)
		})
	}

	_, err := Eval("IF(1)", nil)
	assert.True(t, IsSyntaxError(err))

	_, err = Eval("IF(LEN, 1)", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(FUNCTION)")
}

func TestWhile(t *testing.T) {
	val, _ := evalWithOutput(t, "i = 0; s = 0; WHILE(i < 4, s += i; i++); s")
	assert.Equal(t, IntValue(6), val)

	val, _ = evalWithOutput(t, "i = 0; WHILE(i < 3, i++; i * 10)")
	assert.Equal(t, IntValue(30), val)

	val, _ = evalWithOutput(t, "WHILE(0, 1 / 0)")
	assert.Equal(t, IntValue(0), val)
}

func TestFor(t *testing.T) {
	val, out := evalWithOutput(t, "FOR(i = 0, i < 3, i++, PRINT(i))")
	assert.Equal(t, "0\n1\n2\n", out)
	assert.Equal(t, IntValue(2), val)

	val, _ = evalWithOutput(t, "FOR(i = 5, i < 3, i++, 1 / 0)")
	assert.Equal(t, IntValue(0), val)
}

func TestForeach(t *testing.T) {
	_, out := evalWithOutput(t, `FOREACH(x, [1, "two", 3.0], PRINT(x))`)
	assert.Equal(t, "1\ntwo\n3.0\n", out)

	_, out = evalWithOutput(t, `
		grades = {alice: "A", bob: "B"};
		FOREACH(entry, grades, PRINT(entry[0] + " got " + entry[1]))
	`)
	assert.Equal(t, "alice got A\nbob got B\n", out)

	val, _ := evalWithOutput(t, "total = 0; FOREACH(n, [1, 2, 3], total += n); total")
	assert.Equal(t, IntValue(6), val)

	val, _ = evalWithOutput(t, "slots = [0, 0]; FOREACH(slots[1], [4, 5], 0); slots[1]")
	assert.Equal(t, IntValue(5), val)

	_, err := Eval("FOREACH(x, 5, x)", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Argument 2 to `FOREACH` must be an iterable, got (INTEGER)")

	_, err = Eval("FOREACH(1, [1], 1)", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Argument 1 to `FOREACH` must be a variable")
}

func TestForeachOverScope(t *testing.T) {
	scope, err := NewSymbolTable(map[string]interface{}{"b": 2, "a": 1}, nil)
	require.NoError(t, err)
	child, err := NewSymbolTable(map[string]interface{}{"y": 1, "x": 2}, scope)
	require.NoError(t, err)

	var out bytes.Buffer
	eng := &Engine{Out: &out}
	_, err = eng.Eval(`f = FUNCTION("", FOREACH(e, UPSCOPE, PRINT(e[0], e[1]))); f()`, child)
	require.NoError(t, err)
	assert.Equal(t, "x 2\ny 1\nf <Function>\n", out.String())

	_, err = eng.Eval("FOREACH(e, f, 0)", child)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got (FUNCTION)")
}

func TestFunctionSignatureErrors(t *testing.T) {
	_, err := Eval(`FUNCTION("?x", 1)`, nil)
	require.Error(t, err)
	assert.True(t, IsRuntimeError(err))
	assert.Contains(t, err.Error(), "'x' is an invalid function signature")

	_, err = Eval(`FUNCTION(1, 1)`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Function signature must be STRING, got (INTEGER)")
}

func TestParseSignature(t *testing.T) {
	cases := map[string][2]int{
		"":     {0, 0},
		"?":    {1, 1},
		"??":   {2, 2},
		"*":    {0, Variadic},
		"?*":   {1, Variadic},
		"?*?":  {2, Variadic},
		"???*": {3, Variadic},
	}
	for sig, want := range cases {
		min, max, err := parseSignature(sig)
		require.NoError(t, err, sig)
		assert.Equal(t, want, [2]int{min, max}, sig)
	}
}

func TestInvokeFromHost(t *testing.T) {
	scope := NewRootScope()
	_, err := Eval(`sq = FUNCTION("?", ARG[0] * ARG[0])`, scope)
	require.NoError(t, err)

	raw, err := scope.Get("sq")
	require.NoError(t, err)
	fn := raw.(*FunctionValue)

	ev := (&Engine{}).NewEvaluator(scope)
	val, err := fn.Invoke(ev, IntValue(9))
	require.NoError(t, err)
	assert.Equal(t, IntValue(81), val)

	ifFn, err := scope.Get("IF")
	require.NoError(t, err)
	_, err = ifFn.(*FunctionValue).Invoke(ev, IntValue(1), IntValue(2))
	assert.True(t, IsRuntimeError(err))
}

func TestHostFunctions(t *testing.T) {
	scope, err := NewSymbolTable(map[string]interface{}{
		"count": func(args []Value) (Value, error) {
			return IntValue(len(args)), nil
		},
	}, nil)
	require.NoError(t, err)

	scope.LoadLazyFunc("UNLESS", 2, 2, func(ev *Evaluator, args []Node) (Value, error) {
		truth, err := ev.condition(args[0])
		if err != nil {
			return nil, err
		}
		if truth {
			return IntValue(0), nil
		}
		return ev.Visit(args[1])
	})

	val, err := Eval("count(1, 2, 3) + UNLESS(0, 10) + UNLESS(1, 1 / 0)", scope)
	require.NoError(t, err)
	assert.Equal(t, IntValue(13), val)
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	for _, f := range []float64{0.5, 1.5, 2.5, -0.5, -1.5} {
		val, err := liteRound(nil, []Value{DoubleValue(f)})
		require.NoError(t, err)
		assert.Equal(t, IntValue(math.Round(f)), val, "%v", f)
	}
}
