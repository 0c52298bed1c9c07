package liteexpr

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Kind is the kind of a lexical token.
type Kind int

const (
	Identifier Kind = iota
	IntLiteral
	HexLiteral
	DoubleLiteral
	TextLiteral

	LeftParen
	RightParen
	LeftBracket
	RightBracket
	LeftBrace
	RightBrace
	Comma
	Colon
	Dot
	QuestionMark

	NotOp
	BitNotOp
	IncrementOp
	DecrementOp
	PowerOp
	MultiplyOp
	DivideOp
	ModulusOp
	AddOp
	SubtractOp
	ShiftLeftOp
	ShiftRightOp
	UnsignedShiftRightOp
	LessThanOp
	LessEqualOp
	GreaterThanOp
	GreaterEqualOp
	EqualOp
	NotEqualOp
	BitAndOp
	BitXorOp
	BitOrOp
	LogicalAndOp
	LogicalOrOp
	AssignOp
	SequenceOp
)

// operators, longest spelling first so that matching is greedy
var operatorSpellings = []struct {
	text string
	kind Kind
}{
	{">>>=", AssignOp},
	{">>>", UnsignedShiftRightOp},
	{"**=", AssignOp},
	{"<<=", AssignOp},
	{">>=", AssignOp},
	{"&&=", AssignOp},
	{"||=", AssignOp},
	{"**", PowerOp},
	{"*=", AssignOp},
	{"/=", AssignOp},
	{"%=", AssignOp},
	{"+=", AssignOp},
	{"-=", AssignOp},
	{"&=", AssignOp},
	{"^=", AssignOp},
	{"|=", AssignOp},
	{"==", EqualOp},
	{"!=", NotEqualOp},
	{"<=", LessEqualOp},
	{">=", GreaterEqualOp},
	{"<<", ShiftLeftOp},
	{">>", ShiftRightOp},
	{"&&", LogicalAndOp},
	{"||", LogicalOrOp},
	{"++", IncrementOp},
	{"--", DecrementOp},
	{"(", LeftParen},
	{")", RightParen},
	{"[", LeftBracket},
	{"]", RightBracket},
	{"{", LeftBrace},
	{"}", RightBrace},
	{",", Comma},
	{":", Colon},
	{".", Dot},
	{"?", QuestionMark},
	{"!", NotOp},
	{"~", BitNotOp},
	{"*", MultiplyOp},
	{"/", DivideOp},
	{"%", ModulusOp},
	{"+", AddOp},
	{"-", SubtractOp},
	{"<", LessThanOp},
	{">", GreaterThanOp},
	{"&", BitAndOp},
	{"^", BitXorOp},
	{"|", BitOrOp},
	{"=", AssignOp},
	{";", SequenceOp},
}

func (k Kind) String() string {
	switch k {
	case Identifier:
		return "identifier"
	case IntLiteral:
		return "integer literal"
	case HexLiteral:
		return "hex literal"
	case DoubleLiteral:
		return "double literal"
	case TextLiteral:
		return "string literal"
	case AssignOp:
		return "="
	}

	for _, op := range operatorSpellings {
		if op.kind == k {
			return op.text
		}
	}
	return "unknown token"
}

type position struct {
	line, col int
}

func (p position) String() string {
	return fmt.Sprintf("%d:%d", p.line, p.col)
}

// Tok is a single lexical token. str holds the raw lexeme, so text
// literals keep their quotes and escapes until they are evaluated.
type Tok struct {
	kind Kind
	str  string
	position
}

func (tok Tok) String() string {
	switch tok.kind {
	case Identifier, IntLiteral, HexLiteral, DoubleLiteral, TextLiteral:
		return fmt.Sprintf("%s '%s' [%s]", tok.kind, tok.str, tok.position)
	default:
		return fmt.Sprintf("%s [%s]", tok.str, tok.position)
	}
}

type scanner struct {
	src  string
	idx  int
	line int
	col  int
}

func (s *scanner) peek(offset int) byte {
	if s.idx+offset < len(s.src) {
		return s.src[s.idx+offset]
	}
	return 0
}

// advance consumes n bytes, keeping line and column (in code points) current.
func (s *scanner) advance(n int) {
	end := s.idx + n
	for s.idx < end && s.idx < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.idx:])
		if r == '\n' {
			s.line++
			s.col = 1
		} else {
			s.col++
		}
		s.idx += size
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentifierStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentifierChar(c byte) bool {
	return isIdentifierStart(c) || isDigit(c)
}

// Tokenize splits source text into tokens, skipping whitespace and
// comments. Lines and columns are 1-based.
func Tokenize(source string) ([]Tok, error) {
	s := &scanner{src: source, line: 1, col: 1}
	tokens := make([]Tok, 0, len(source)/2)

	for s.idx < len(s.src) {
		c := s.peek(0)
		start := s.idx
		pos := position{s.line, s.col}

		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v':
			s.advance(1)
			continue

		case c == '/' && s.peek(1) == '/':
			for s.idx < len(s.src) && s.peek(0) != '\n' {
				s.advance(1)
			}
			continue

		case c == '/' && s.peek(1) == '*':
			end := strings.Index(s.src[s.idx+2:], "*/")
			if end < 0 {
				return nil, syntaxErrorf("Unterminated comment").at(pos)
			}
			s.advance(end + 4)
			continue

		case isDigit(c) || (c == '.' && isDigit(s.peek(1))):
			kind := s.scanNumber()
			tokens = append(tokens, Tok{kind: kind, str: s.src[start:s.idx], position: pos})

		case isIdentifierStart(c):
			for s.idx < len(s.src) && isIdentifierChar(s.peek(0)) {
				s.advance(1)
			}
			tokens = append(tokens, Tok{kind: Identifier, str: s.src[start:s.idx], position: pos})

		case c == '"':
			s.advance(1)
			for {
				if s.idx >= len(s.src) {
					return nil, syntaxErrorf("Unterminated string literal").at(pos)
				}
				ch := s.peek(0)
				if ch == '"' {
					s.advance(1)
					break
				}
				if ch == '\\' {
					s.advance(2)
				} else {
					s.advance(1)
				}
			}
			tokens = append(tokens, Tok{kind: TextLiteral, str: s.src[start:s.idx], position: pos})

		default:
			matched := false
			for _, op := range operatorSpellings {
				if strings.HasPrefix(s.src[s.idx:], op.text) {
					s.advance(len(op.text))
					tokens = append(tokens, Tok{kind: op.kind, str: op.text, position: pos})
					matched = true
					break
				}
			}
			if !matched {
				r, _ := utf8.DecodeRuneInString(s.src[s.idx:])
				return nil, syntaxErrorf("Unexpected character '%c'", r).at(pos)
			}
		}
	}

	return tokens, nil
}

func (s *scanner) scanNumber() Kind {
	if s.peek(0) == '0' && (s.peek(1) == 'x' || s.peek(1) == 'X') && isHexDigit(s.peek(2)) {
		s.advance(2)
		for isHexDigit(s.peek(0)) {
			s.advance(1)
		}
		return HexLiteral
	}

	kind := IntLiteral
	for isDigit(s.peek(0)) {
		s.advance(1)
	}
	if s.peek(0) == '.' && isDigit(s.peek(1)) {
		kind = DoubleLiteral
		s.advance(1)
		for isDigit(s.peek(0)) {
			s.advance(1)
		}
	}
	if e := s.peek(0); e == 'e' || e == 'E' {
		digitAt := 1
		if sign := s.peek(1); sign == '+' || sign == '-' {
			digitAt = 2
		}
		if isDigit(s.peek(digitAt)) {
			kind = DoubleLiteral
			s.advance(digitAt)
			for isDigit(s.peek(0)) {
				s.advance(1)
			}
		}
	}
	return kind
}
