package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/docopt/docopt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superloach/liteexpr/pkg/liteexpr"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "liteexpr.toml", []byte(`
max_depth = 64
output = "json"

[debug]
parse = true

[symbols]
limit = 3
names = ["a", "b"]

[symbols.grades]
alice = "A"
`))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.MaxDepth)
	assert.Equal(t, "json", cfg.Output)
	assert.True(t, cfg.Debug.Parse)
	assert.False(t, cfg.Debug.Lex)

	scope, err := liteexpr.NewSymbolTable(cfg.Symbols, nil)
	require.NoError(t, err)
	val, err := liteexpr.Eval(`grades.alice + LEN(names) + limit`, scope)
	require.NoError(t, err)
	assert.Equal(t, liteexpr.TextValue("A23"), val)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read")

	_, err = LoadConfig(writeFile(t, "bad.toml", []byte("max_depth = ")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse error")

	_, err = LoadConfig(writeFile(t, "mode.toml", []byte(`output = "yaml"`)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output mode")
}

func TestLoadSymbols(t *testing.T) {
	fromJSON, err := LoadSymbols(writeFile(t, "s.json", []byte(`{"n": 18446744073709551615, "s": "x"}`)))
	require.NoError(t, err)
	assert.Equal(t, liteexpr.IntValue(-1), fromJSON["n"])
	assert.Equal(t, liteexpr.TextValue("x"), fromJSON["s"])

	fromTOML, err := LoadSymbols(writeFile(t, "s.toml", []byte("n = 2\nratio = 0.5\n")))
	require.NoError(t, err)
	assert.Equal(t, int64(2), fromTOML["n"])
	assert.Equal(t, 0.5, fromTOML["ratio"])

	obj := liteexpr.NewObject()
	obj.Set("k", []interface{}{1, 2})
	data, err := liteexpr.EncodeCBOR(obj)
	require.NoError(t, err)
	fromCBOR, err := LoadSymbols(writeFile(t, "s.cbor", data))
	require.NoError(t, err)
	assert.True(t, liteexpr.NewArray(liteexpr.IntValue(1), liteexpr.IntValue(2)).Equals(fromCBOR["k"].(liteexpr.Value)))

	_, err = LoadSymbols(writeFile(t, "s.yaml", []byte("n: 1")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported symbol file type")

	_, err = LoadSymbols(writeFile(t, "list.json", []byte(`[1]`)))
	assert.True(t, liteexpr.IsSyntaxError(err))
}

func TestMergeSymbols(t *testing.T) {
	merged := mergeSymbols(
		map[string]interface{}{"a": 1, "b": 2},
		nil,
		map[string]interface{}{"b": 3},
	)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 3}, merged)
}

func TestFormatResult(t *testing.T) {
	val, err := liteexpr.Eval(`{name: "Al", n: [1, 2.5]}`, nil)
	require.NoError(t, err)

	out, err := formatResult(val, "json")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Al","n":[1,2.5]}`, out)

	out, err = formatResult(liteexpr.TextValue("hi"), "text")
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	out, err = formatResult(liteexpr.TextValue("hi"), "repr")
	require.NoError(t, err)
	assert.Equal(t, `"hi"`, out)

	_, err = formatResult(val, "xml")
	assert.Error(t, err)
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-s", "syms.json", "--max-depth=10", "--debug-lex", "a.le", "b.le"}, docopt.NoHelpHandler)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.le", "b.le"}, opts.files)
	assert.Equal(t, "syms.json", opts.symbols)
	require.NotNil(t, opts.maxDepth)
	assert.Equal(t, 10, *opts.maxDepth)
	assert.True(t, opts.debugLex)
	assert.False(t, opts.repl)

	opts, err = parseOptions([]string{"-e", "1 + 2", "-o", "repr"}, docopt.NoHelpHandler)
	require.NoError(t, err)
	assert.Equal(t, "1 + 2", opts.eval)
	assert.Equal(t, "repr", opts.output)
	assert.Nil(t, opts.maxDepth)
	assert.Empty(t, opts.files)

	_, err = parseOptions([]string{"--max-depth=deep"}, docopt.NoHelpHandler)
	assert.Error(t, err)

	_, err = parseOptions([]string{"-o", "xml"}, docopt.NoHelpHandler)
	assert.Error(t, err)

	_, err = parseOptions([]string{"--no-such-flag"}, docopt.NoHelpHandler)
	assert.Error(t, err)
}

func TestFlagsOverrideConfig(t *testing.T) {
	depth := -1
	opts := &options{verbose: true, maxDepth: &depth, output: "text"}
	cfg := &Config{MaxDepth: 64, Output: "json"}

	eng := opts.engine(cfg)
	assert.Equal(t, -1, eng.MaxDepth)
	assert.True(t, eng.Debug.Lex)
	assert.True(t, eng.Debug.Parse)
	assert.True(t, eng.Debug.Dump)
	assert.Equal(t, "text", opts.outputMode(cfg, "repr"))

	eng = (&options{}).engine(cfg)
	assert.Equal(t, 64, eng.MaxDepth)
	assert.False(t, eng.Debug.Lex)
	assert.Equal(t, "json", (&options{}).outputMode(cfg, "repr"))
	assert.Equal(t, "repr", (&options{}).outputMode(&Config{}, "repr"))
}

func TestNewContextSharesScope(t *testing.T) {
	eng := &liteexpr.Engine{}
	ctx, err := newContext(eng, map[string]interface{}{"base": 40})
	require.NoError(t, err)

	a := writeFile(t, "a.le", []byte("inc = FUNCTION(\"?\", ARG[0] + 1)"))
	b := writeFile(t, "b.le", []byte("inc(base) + 1"))

	_, err = ctx.ExecPath(a)
	require.NoError(t, err)
	val, err := ctx.ExecPath(b)
	require.NoError(t, err)
	assert.Equal(t, liteexpr.IntValue(42), val)

	_, err = newContext(eng, map[string]interface{}{"bad": struct{}{}})
	assert.True(t, liteexpr.IsSyntaxError(err))
}
