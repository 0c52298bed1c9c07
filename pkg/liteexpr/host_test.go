package liteexpr_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superloach/liteexpr/pkg/liteexpr"
)

func programFunction(t *testing.T, scope *liteexpr.SymbolTable, name string) *liteexpr.FunctionValue {
	t.Helper()

	raw, err := scope.Get(name)
	require.NoError(t, err)
	fn, ok := raw.(*liteexpr.FunctionValue)
	require.True(t, ok)
	return fn
}

func TestHostInvokesProgramFunction(t *testing.T) {
	scope := liteexpr.NewRootScope()
	_, err := liteexpr.Eval(`sq = FUNCTION("?", ARG[0] * ARG[0])`, scope)
	require.NoError(t, err)
	sq := programFunction(t, scope, "sq")

	val, err := sq.Invoke(nil, liteexpr.IntValue(9))
	require.NoError(t, err)
	assert.Equal(t, liteexpr.IntValue(81), val)

	_, err = sq.Invoke(nil)
	assert.True(t, liteexpr.IsSyntaxError(err))
}

func TestHostInvokeWithEngine(t *testing.T) {
	var out bytes.Buffer
	eng := &liteexpr.Engine{Out: &out, MaxDepth: 3}

	scope := liteexpr.NewRootScope()
	_, err := eng.Eval(`
		shout = FUNCTION("?", PRINT(ARG[0] + "!"));
		down = FUNCTION("?", ARG[0] ? down(ARG[0] - 1) : 0)
	`, scope)
	require.NoError(t, err)

	ev := eng.NewEvaluator(scope)
	_, err = programFunction(t, scope, "shout").Invoke(ev, liteexpr.TextValue("hey"))
	require.NoError(t, err)
	assert.Equal(t, "hey!\n", out.String())

	down := programFunction(t, scope, "down")
	val, err := down.Invoke(ev, liteexpr.IntValue(2))
	require.NoError(t, err)
	assert.Equal(t, liteexpr.IntValue(0), val)

	_, err = down.Invoke(ev, liteexpr.IntValue(10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Maximum call depth (3) exceeded")
}
