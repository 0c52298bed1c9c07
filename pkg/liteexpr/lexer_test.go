package liteexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []Tok) []Kind {
	out := make([]Kind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.kind
	}
	return out
}

func TestTokenizeKinds(t *testing.T) {
	tokens, err := Tokenize(`x = a.b[0] + f(1, 2.5, "s") ?: {k: 0xFF}; !~y`)
	require.NoError(t, err)

	assert.Equal(t, []Kind{
		Identifier, AssignOp, Identifier, Dot, Identifier, LeftBracket, IntLiteral, RightBracket,
		AddOp, Identifier, LeftParen, IntLiteral, Comma, DoubleLiteral, Comma, TextLiteral, RightParen,
		QuestionMark, Colon, LeftBrace, Identifier, Colon, HexLiteral, RightBrace, SequenceOp,
		NotOp, BitNotOp, Identifier,
	}, kinds(tokens))
}

func TestTokenizeLongestOperator(t *testing.T) {
	cases := map[string][]string{
		"a>>>=b": {"a", ">>>=", "b"},
		"a>>>b":  {"a", ">>>", "b"},
		"a>>=b":  {"a", ">>=", "b"},
		"a**=b":  {"a", "**=", "b"},
		"a**b":   {"a", "**", "b"},
		"a&&=b":  {"a", "&&=", "b"},
		"a&&b":   {"a", "&&", "b"},
		"a&b":    {"a", "&", "b"},
		"a++-b":  {"a", "++", "-", "b"},
		"a<=b":   {"a", "<=", "b"},
		"a==b":   {"a", "==", "b"},
	}

	for source, want := range cases {
		tokens, err := Tokenize(source)
		require.NoError(t, err, source)

		got := make([]string, len(tokens))
		for i, tok := range tokens {
			got[i] = tok.str
		}
		assert.Equal(t, want, got, source)
	}
}

func TestTokenizeNumbers(t *testing.T) {
	cases := []struct {
		source string
		kind   Kind
	}{
		{"42", IntLiteral},
		{"0x1f", HexLiteral},
		{"0X1F", HexLiteral},
		{"1.5", DoubleLiteral},
		{".5", DoubleLiteral},
		{"1e10", DoubleLiteral},
		{"1E-3", DoubleLiteral},
		{"2.5e+3", DoubleLiteral},
	}

	for _, c := range cases {
		tokens, err := Tokenize(c.source)
		require.NoError(t, err, c.source)
		require.Len(t, tokens, 1, c.source)
		assert.Equal(t, c.kind, tokens[0].kind, c.source)
		assert.Equal(t, c.source, tokens[0].str)
	}

	// a member access on an integer is not a double
	tokens, err := Tokenize("1.x")
	require.NoError(t, err)
	assert.Equal(t, []Kind{IntLiteral, Dot, Identifier}, kinds(tokens))
}

func TestTokenizeStrings(t *testing.T) {
	tokens, err := Tokenize(`"a \"quoted\" word" "two"`)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, `"a \"quoted\" word"`, tokens[0].str)
	assert.Equal(t, `"two"`, tokens[1].str)
}

func TestTokenizeComments(t *testing.T) {
	tokens, err := Tokenize("1 // line comment\n+ /* block\ncomment */ 2")
	require.NoError(t, err)
	assert.Equal(t, []Kind{IntLiteral, AddOp, IntLiteral}, kinds(tokens))
	assert.Equal(t, position{3, 12}, tokens[2].position)

	_, err = Tokenize("1 /* never closed")
	require.Error(t, err)
	assert.Equal(t, "[line 1, col 3] Unterminated comment", err.Error())
}

func TestTokenizePositions(t *testing.T) {
	tokens, err := Tokenize("é = 1")
	require.Error(t, err)
	assert.Nil(t, tokens)

	tokens, err = Tokenize("\"é\" +\n\t x")
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, position{1, 1}, tokens[0].position)
	assert.Equal(t, position{1, 5}, tokens[1].position)
	assert.Equal(t, position{2, 3}, tokens[2].position)
}

func TestTokenizeErrors(t *testing.T) {
	cases := map[string]string{
		`"open`:   "[line 1, col 1] Unterminated string literal",
		`1 + $`:   "[line 1, col 5] Unexpected character '$'",
		"a\n  #b": "[line 2, col 3] Unexpected character '#'",
	}

	for source, want := range cases {
		_, err := Tokenize(source)
		require.Error(t, err, source)
		assert.True(t, IsSyntaxError(err), source)
		assert.Equal(t, want, err.Error(), source)
	}
}

func TestTokString(t *testing.T) {
	tokens, err := Tokenize(`name "s" +=`)
	require.NoError(t, err)
	require.Len(t, tokens, 3)

	assert.Equal(t, "identifier 'name' [1:1]", tokens[0].String())
	assert.Equal(t, `string literal '"s"' [1:6]`, tokens[1].String())
	assert.Equal(t, "+= [1:10]", tokens[2].String())
}
