package liteexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, source string) Node {
	t.Helper()

	tokens, err := Tokenize(source)
	require.NoError(t, err)
	node, err := Parse(tokens)
	require.NoError(t, err)
	return node
}

func TestParsePrecedence(t *testing.T) {
	cases := []struct {
		source string
		want   string
	}{
		{"1 + 2 * 3", "Binary (Int 1) + (Binary (Int 2) * (Int 3))"},
		{"1 - 2 - 3", "Binary (Binary (Int 1) - (Int 2)) - (Int 3)"},
		{"2 ** 3 ** 2", "Binary (Int 2) ** (Binary (Int 3) ** (Int 2))"},
		{"-2 ** 2", "Unary - (Binary (Int 2) ** (Int 2))"},
		{"-a * b", "Binary (Unary - (Identifier 'a')) * (Identifier 'b')"},
		{"a << 1 < b", "Binary (Binary (Identifier 'a') << (Int 1)) < (Identifier 'b')"},
		{"a < b == c", "Binary (Binary (Identifier 'a') < (Identifier 'b')) == (Identifier 'c')"},
		{"a & b ^ c | d", "Binary (Binary (Binary (Identifier 'a') & (Identifier 'b')) ^ (Identifier 'c')) | (Identifier 'd')"},
		{"a || b && c", "Binary (Identifier 'a') || (Binary (Identifier 'b') && (Identifier 'c'))"},
		{"a ? b : c ? d : e", "Ternary (Identifier 'a') ? (Identifier 'b') : (Ternary (Identifier 'c') ? (Identifier 'd') : (Identifier 'e'))"},
		{"a = b = 1", "Assign (Identifier 'a') = (Assign (Identifier 'b') = (Int 1))"},
		{"a += b || c", "Assign (Identifier 'a') += (Binary (Identifier 'b') || (Identifier 'c'))"},
		{"a = 1; b = 2", "Binary (Assign (Identifier 'a') = (Int 1)) ; (Assign (Identifier 'b') = (Int 2))"},
		{"x = c ? 1 : 2", "Assign (Identifier 'x') = (Ternary (Identifier 'c') ? (Int 1) : (Int 2))"},
		{"(1 + 2) * 3", "Binary (Group (Binary (Int 1) + (Int 2))) * (Int 3)"},
	}

	for _, c := range cases {
		t.Run(c.source, func(t *testing.T) {
			assert.Equal(t, c.want, parseSource(t, c.source).String())
		})
	}
}

func TestParsePostfixChains(t *testing.T) {
	cases := []struct {
		source string
		want   string
	}{
		{"a.b[0](1)", "Call (Index (Member (Identifier 'a').b)[Int 0]) on (Int 1)"},
		{"[1, 2][0]", "Index (List [Int 1, Int 2])[Int 0]"},
		{`{a: 1, "b c": 2}.a`, "Member (Object {Pair (a): (Int 1), Pair (b c): (Int 2)}).a"},
		{"x++", "Postfix (Identifier 'x') ++"},
		{"--a[0]", "Prefix -- (Index (Identifier 'a')[Int 0])"},
		{"!x++", "Unary ! (Postfix (Identifier 'x') ++)"},
		{"[1, 2,]", "List [Int 1, Int 2]"},
		{"{}", "Object {}"},
		{"f(a; b, c)", "Call (Identifier 'f') on (Binary (Identifier 'a') ; (Identifier 'b'), Identifier 'c')"},
	}

	for _, c := range cases {
		t.Run(c.source, func(t *testing.T) {
			assert.Equal(t, c.want, parseSource(t, c.source).String())
		})
	}
}

func TestParseCallText(t *testing.T) {
	node := parseSource(t, `obj.method( 1 , "two" )`)
	call, ok := node.(*CallNode)
	require.True(t, ok)
	assert.Equal(t, `obj.method(1,"two")`, call.text)
	assert.Equal(t, position{1, 1}, call.Position())
}

func TestParseTrailingSequence(t *testing.T) {
	assert.Equal(t, "Int 1", parseSource(t, "1;").String())
	assert.Equal(t, "Binary (Int 1) ; (Int 2)", parseSource(t, "1; 2;").String())
}

func TestParseEmpty(t *testing.T) {
	node, err := Parse(nil)
	require.NoError(t, err)
	assert.Nil(t, node)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		source  string
		message string
	}{
		{"1 +", "[line 1, col 3] Unexpected end of input after `+`"},
		{"f(1, 2", "[line 1, col 6] Unexpected end of input after `2`"},
		{"[1 2]", "[line 1, col 4] Unexpected token `2`"},
		{"{a 1}", "[line 1, col 4] Unexpected token `1`"},
		{"{[1]: 2}", "[line 1, col 2] Unexpected token `[`"},
		{"a.(b)", "[line 1, col 3] Unexpected token `(`"},
		{"1 ? 2", "[line 1, col 5] Unexpected end of input after `2`"},
		{"1 ? 2 ; 3", "[line 1, col 7] Unexpected token `;`"},
		{")", "[line 1, col 1] Unexpected token `)`"},
		{"(1 + 2) = 3", "[line 1, col 9] Invalid target for `=`: Group (Binary (Int 1) + (Int 2))"},
		{"f() += 1", "[line 1, col 5] Invalid target for `+=`: Call (Identifier 'f') on ()"},
		{"++1", "[line 1, col 1] Invalid target for `++`: Int 1"},
		{"f()()", "[line 1, col 4] Invalid callee: Call (Identifier 'f') on ()"},
		{"[1](0)", "[line 1, col 4] Invalid callee: List [Int 1]"},
		{"(f)(1)", "[line 1, col 4] Invalid callee: Group (Identifier 'f')"},
	}

	for _, c := range cases {
		t.Run(c.source, func(t *testing.T) {
			tokens, err := Tokenize(c.source)
			require.NoError(t, err)

			_, err = Parse(tokens)
			require.Error(t, err)
			assert.True(t, IsSyntaxError(err))
			assert.Equal(t, c.message, err.Error())
		})
	}
}
