package liteexpr

import (
	"fmt"
	"strings"
)

// Node represents an abstract syntax tree (AST) node in a liteexpr program.
// Nodes are always handled by pointer, so a node's identity is stable for
// as long as its Program lives.
type Node interface {
	String() string
	Position() position
	Eval(*Evaluator) (Value, error)
}

// referenceNode is implemented by nodes that name an assignable location:
// bare names, index expressions and member expressions.
type referenceNode interface {
	Node
	resolve(*Evaluator) (*Lvalue, error)
}

// a string representation of the Position of a given node,
//	appropriate for an error message
func poss(n Node) string {
	return n.Position().String()
}

type IntLiteralNode struct {
	payload string
	position
}

func (n *IntLiteralNode) String() string {
	return fmt.Sprintf("Int %s", n.payload)
}

func (n *IntLiteralNode) Position() position {
	return n.position
}

type HexLiteralNode struct {
	payload string
	position
}

func (n *HexLiteralNode) String() string {
	return fmt.Sprintf("Hex %s", n.payload)
}

func (n *HexLiteralNode) Position() position {
	return n.position
}

type DoubleLiteralNode struct {
	payload string
	position
}

func (n *DoubleLiteralNode) String() string {
	return fmt.Sprintf("Double %s", n.payload)
}

func (n *DoubleLiteralNode) Position() position {
	return n.position
}

type TextLiteralNode struct {
	payload string
	position
}

func (n *TextLiteralNode) String() string {
	return fmt.Sprintf("Text %s", n.payload)
}

func (n *TextLiteralNode) Position() position {
	return n.position
}

type IdentifierNode struct {
	payload string
	position
}

func (n *IdentifierNode) String() string {
	return fmt.Sprintf("Identifier '%s'", n.payload)
}

func (n *IdentifierNode) Position() position {
	return n.position
}

type IndexNode struct {
	base  Node
	index Node
	position
}

func (n *IndexNode) String() string {
	return fmt.Sprintf("Index (%s)[%s]", n.base, n.index)
}

func (n *IndexNode) Position() position {
	return n.position
}

type MemberNode struct {
	base Node
	name string
	position
}

func (n *MemberNode) String() string {
	return fmt.Sprintf("Member (%s).%s", n.base, n.name)
}

func (n *MemberNode) Position() position {
	return n.position
}

type CallNode struct {
	function  Node
	arguments []Node
	// source text of the whole call, used in error messages
	text string
	position
}

func (n *CallNode) String() string {
	args := make([]string, len(n.arguments))
	for i, a := range n.arguments {
		args[i] = a.String()
	}
	return fmt.Sprintf("Call (%s) on (%s)",
		n.function,
		strings.Join(args, ", "))
}

func (n *CallNode) Position() position {
	return n.position
}

type ListNode struct {
	elems []Node
	position
}

func (n *ListNode) String() string {
	elems := make([]string, len(n.elems))
	for i, e := range n.elems {
		elems[i] = e.String()
	}
	return fmt.Sprintf("List [%s]", strings.Join(elems, ", "))
}

func (n *ListNode) Position() position {
	return n.position
}

type PairNode struct {
	key string
	val Node
	position
}

func (n *PairNode) String() string {
	return fmt.Sprintf("Pair (%s): (%s)", n.key, n.val)
}

type ObjectNode struct {
	entries []*PairNode
	position
}

func (n *ObjectNode) String() string {
	entries := make([]string, len(n.entries))
	for i, e := range n.entries {
		entries[i] = e.String()
	}
	return fmt.Sprintf("Object {%s}", strings.Join(entries, ", "))
}

func (n *ObjectNode) Position() position {
	return n.position
}

type GroupNode struct {
	expr Node
	position
}

func (n *GroupNode) String() string {
	return fmt.Sprintf("Group (%s)", n.expr)
}

func (n *GroupNode) Position() position {
	return n.position
}

type UnaryExprNode struct {
	operator Kind
	operand  Node
	position
}

func (n *UnaryExprNode) String() string {
	return fmt.Sprintf("Unary %s (%s)", n.operator, n.operand)
}

func (n *UnaryExprNode) Position() position {
	return n.position
}

// PrefixExprNode is ++x or --x.
type PrefixExprNode struct {
	operator Kind
	target   referenceNode
	position
}

func (n *PrefixExprNode) String() string {
	return fmt.Sprintf("Prefix %s (%s)", n.operator, n.target)
}

func (n *PrefixExprNode) Position() position {
	return n.position
}

// PostfixExprNode is x++ or x--.
type PostfixExprNode struct {
	operator Kind
	target   referenceNode
	position
}

func (n *PostfixExprNode) String() string {
	return fmt.Sprintf("Postfix (%s) %s", n.target, n.operator)
}

func (n *PostfixExprNode) Position() position {
	return n.position
}

type BinaryExprNode struct {
	operator     Kind
	leftOperand  Node
	rightOperand Node
	position
}

func (n *BinaryExprNode) String() string {
	return fmt.Sprintf("Binary (%s) %s (%s)", n.leftOperand, n.operator, n.rightOperand)
}

func (n *BinaryExprNode) Position() position {
	return n.position
}

type TernaryExprNode struct {
	condition Node
	ifTrue    Node
	ifFalse   Node
	position
}

func (n *TernaryExprNode) String() string {
	return fmt.Sprintf("Ternary (%s) ? (%s) : (%s)", n.condition, n.ifTrue, n.ifFalse)
}

func (n *TernaryExprNode) Position() position {
	return n.position
}

// AssignExprNode is target = value, or a compound form such as target += value,
// in which case operator is the underlying binary operator.
type AssignExprNode struct {
	operator Kind
	target   referenceNode
	value    Node
	position
}

func (n *AssignExprNode) String() string {
	op := "="
	if n.operator != AssignOp {
		op = n.operator.String() + "="
	}
	return fmt.Sprintf("Assign (%s) %s (%s)", n.target, op, n.value)
}

func (n *AssignExprNode) Position() position {
	return n.position
}

func guardUnexpectedInputEnd(tokens []Tok, idx int) error {
	if idx >= len(tokens) {
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1]
			return syntaxErrorf("Unexpected end of input after `%s`", last.str).at(last.position)
		}
		return syntaxErrorf("Unexpected end of input")
	}

	return nil
}

func unexpectedToken(tok Tok) error {
	return syntaxErrorf("Unexpected token `%s`", tok.str).at(tok.position)
}

// Parse transforms a slice of tokens into a single expression tree. An
// empty token slice yields a nil Node.
//	This implementation uses recursive descent parsing with precedence
//	climbing for binary operators.
func Parse(tokens []Tok) (Node, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	expr, idx, err := parseExpression(tokens, 0)
	if err != nil {
		return nil, err
	}
	if idx < len(tokens) {
		return nil, unexpectedToken(tokens[idx])
	}

	return expr, nil
}

const (
	sequencePriority = 10
	assignPriority   = 20
	ternaryPriority  = 30
	powerPriority    = 150
)

func getOpPriority(t Tok) int {
	// higher == greater priority
	switch t.kind {
	case PowerOp:
		return powerPriority

	case MultiplyOp, DivideOp, ModulusOp:
		return 130
	case AddOp, SubtractOp:
		return 120
	case ShiftLeftOp, ShiftRightOp, UnsignedShiftRightOp:
		return 110

	case LessThanOp, LessEqualOp, GreaterThanOp, GreaterEqualOp:
		return 100
	case EqualOp, NotEqualOp:
		return 90

	case BitAndOp:
		return 80
	case BitXorOp:
		return 70
	case BitOrOp:
		return 60
	case LogicalAndOp:
		return 50
	case LogicalOrOp:
		return 40

	case QuestionMark:
		return ternaryPriority
	case AssignOp:
		return assignPriority
	case SequenceOp:
		return sequencePriority
	default:
		return -1
	}
}

// canStartExpression reports whether tok may begin an operand. A `;` not
// followed by one is a trailing terminator.
func canStartExpression(tok Tok) bool {
	switch tok.kind {
	case Identifier, IntLiteral, HexLiteral, DoubleLiteral, TextLiteral,
		LeftParen, LeftBracket, LeftBrace,
		NotOp, BitNotOp, AddOp, SubtractOp, IncrementOp, DecrementOp:
		return true
	default:
		return false
	}
}

var compoundAssignments = map[string]Kind{
	"=":    AssignOp,
	"**=":  PowerOp,
	"*=":   MultiplyOp,
	"/=":   DivideOp,
	"%=":   ModulusOp,
	"+=":   AddOp,
	"-=":   SubtractOp,
	"<<=":  ShiftLeftOp,
	">>=":  ShiftRightOp,
	">>>=": UnsignedShiftRightOp,
	"&=":   BitAndOp,
	"^=":   BitXorOp,
	"|=":   BitOrOp,
	"&&=":  LogicalAndOp,
	"||=":  LogicalOrOp,
}

// parseExpression parses the longest expression at the front of tokens whose
// binary operators all bind at least as tightly as minPriority.
func parseExpression(tokens []Tok, minPriority int) (Node, int, error) {
	left, idx, err := parseUnary(tokens)
	if err != nil {
		return nil, 0, err
	}

	for idx < len(tokens) {
		operator := tokens[idx]
		priority := getOpPriority(operator)
		if priority < 0 || priority < minPriority {
			break
		}
		idx++

		switch operator.kind {
		case SequenceOp:
			if idx >= len(tokens) || !canStartExpression(tokens[idx]) {
				// trailing terminator
				continue
			}
			right, incr, err := parseExpression(tokens[idx:], priority+1)
			if err != nil {
				return nil, 0, err
			}
			idx += incr
			left = &BinaryExprNode{
				operator:     SequenceOp,
				leftOperand:  left,
				rightOperand: right,
				position:     operator.position,
			}

		case AssignOp:
			target, ok := left.(referenceNode)
			if !ok {
				return nil, 0, syntaxErrorf("Invalid target for `%s`: %s", operator.str, left).at(operator.position)
			}
			if err := guardUnexpectedInputEnd(tokens, idx); err != nil {
				return nil, 0, err
			}
			// right-associative
			value, incr, err := parseExpression(tokens[idx:], priority)
			if err != nil {
				return nil, 0, err
			}
			idx += incr
			left = &AssignExprNode{
				operator: compoundAssignments[operator.str],
				target:   target,
				value:    value,
				position: operator.position,
			}

		case QuestionMark:
			if err := guardUnexpectedInputEnd(tokens, idx); err != nil {
				return nil, 0, err
			}
			ifTrue, incr, err := parseExpression(tokens[idx:], assignPriority)
			if err != nil {
				return nil, 0, err
			}
			idx += incr

			if err := guardUnexpectedInputEnd(tokens, idx); err != nil {
				return nil, 0, err
			}
			if tokens[idx].kind != Colon {
				return nil, 0, unexpectedToken(tokens[idx])
			}
			idx++

			if err := guardUnexpectedInputEnd(tokens, idx); err != nil {
				return nil, 0, err
			}
			ifFalse, incr, err := parseExpression(tokens[idx:], priority)
			if err != nil {
				return nil, 0, err
			}
			idx += incr
			left = &TernaryExprNode{
				condition: left,
				ifTrue:    ifTrue,
				ifFalse:   ifFalse,
				position:  operator.position,
			}

		default:
			if err := guardUnexpectedInputEnd(tokens, idx); err != nil {
				return nil, 0, err
			}
			next := priority + 1
			if operator.kind == PowerOp {
				next = priority
			}
			right, incr, err := parseExpression(tokens[idx:], next)
			if err != nil {
				return nil, 0, err
			}
			idx += incr
			left = &BinaryExprNode{
				operator:     operator.kind,
				leftOperand:  left,
				rightOperand: right,
				position:     operator.position,
			}
		}
	}

	return left, idx, nil
}

func parseUnary(tokens []Tok) (Node, int, error) {
	if err := guardUnexpectedInputEnd(tokens, 0); err != nil {
		return nil, 0, err
	}

	tok := tokens[0]
	switch tok.kind {
	case NotOp, BitNotOp, AddOp, SubtractOp:
		if err := guardUnexpectedInputEnd(tokens, 1); err != nil {
			return nil, 0, err
		}
		// -2 ** 2 is -(2 ** 2)
		operand, incr, err := parseExpression(tokens[1:], powerPriority)
		if err != nil {
			return nil, 0, err
		}
		return &UnaryExprNode{
			operator: tok.kind,
			operand:  operand,
			position: tok.position,
		}, incr + 1, nil

	case IncrementOp, DecrementOp:
		if err := guardUnexpectedInputEnd(tokens, 1); err != nil {
			return nil, 0, err
		}
		operand, incr, err := parsePostfix(tokens[1:])
		if err != nil {
			return nil, 0, err
		}
		target, ok := operand.(referenceNode)
		if !ok {
			return nil, 0, syntaxErrorf("Invalid target for `%s`: %s", tok.str, operand).at(tok.position)
		}
		return &PrefixExprNode{
			operator: tok.kind,
			target:   target,
			position: tok.position,
		}, incr + 1, nil
	}

	return parsePostfix(tokens)
}

// parsePostfix parses an atom followed by any number of call, index and
// member suffixes, and an optional trailing ++ or --.
func parsePostfix(tokens []Tok) (Node, int, error) {
	atom, idx, err := parseAtom(tokens)
	if err != nil {
		return nil, 0, err
	}

	for idx < len(tokens) {
		tok := tokens[idx]
		switch tok.kind {
		case LeftParen:
			if _, ok := atom.(referenceNode); !ok {
				return nil, 0, syntaxErrorf("Invalid callee: %s", atom).at(tok.position)
			}
			args, incr, err := parseList(tokens[idx+1:], RightParen)
			if err != nil {
				return nil, 0, err
			}
			idx += incr + 1
			atom = &CallNode{
				function:  atom,
				arguments: args,
				text:      tokenText(tokens[:idx]),
				position:  tokens[0].position,
			}

		case LeftBracket:
			idx++
			if err := guardUnexpectedInputEnd(tokens, idx); err != nil {
				return nil, 0, err
			}
			index, incr, err := parseExpression(tokens[idx:], 0)
			if err != nil {
				return nil, 0, err
			}
			idx += incr
			if err := guardUnexpectedInputEnd(tokens, idx); err != nil {
				return nil, 0, err
			}
			if tokens[idx].kind != RightBracket {
				return nil, 0, unexpectedToken(tokens[idx])
			}
			idx++
			atom = &IndexNode{
				base:     atom,
				index:    index,
				position: tok.position,
			}

		case Dot:
			idx++
			if err := guardUnexpectedInputEnd(tokens, idx); err != nil {
				return nil, 0, err
			}
			if tokens[idx].kind != Identifier {
				return nil, 0, unexpectedToken(tokens[idx])
			}
			atom = &MemberNode{
				base:     atom,
				name:     tokens[idx].str,
				position: tok.position,
			}
			idx++

		case IncrementOp, DecrementOp:
			target, ok := atom.(referenceNode)
			if !ok {
				return nil, 0, syntaxErrorf("Invalid target for `%s`: %s", tok.str, atom).at(tok.position)
			}
			return &PostfixExprNode{
				operator: tok.kind,
				target:   target,
				position: tok.position,
			}, idx + 1, nil

		default:
			return atom, idx, nil
		}
	}

	return atom, idx, nil
}

func parseAtom(tokens []Tok) (Node, int, error) {
	if err := guardUnexpectedInputEnd(tokens, 0); err != nil {
		return nil, 0, err
	}

	tok := tokens[0]
	switch tok.kind {
	case IntLiteral:
		return &IntLiteralNode{tok.str, tok.position}, 1, nil
	case HexLiteral:
		return &HexLiteralNode{tok.str, tok.position}, 1, nil
	case DoubleLiteral:
		return &DoubleLiteralNode{tok.str, tok.position}, 1, nil
	case TextLiteral:
		return &TextLiteralNode{tok.str, tok.position}, 1, nil
	case Identifier:
		return &IdentifierNode{tok.str, tok.position}, 1, nil

	case LeftParen:
		if err := guardUnexpectedInputEnd(tokens, 1); err != nil {
			return nil, 0, err
		}
		expr, incr, err := parseExpression(tokens[1:], 0)
		if err != nil {
			return nil, 0, err
		}
		idx := incr + 1
		if err := guardUnexpectedInputEnd(tokens, idx); err != nil {
			return nil, 0, err
		}
		if tokens[idx].kind != RightParen {
			return nil, 0, unexpectedToken(tokens[idx])
		}
		return &GroupNode{expr, tok.position}, idx + 1, nil

	case LeftBracket:
		elems, incr, err := parseList(tokens[1:], RightBracket)
		if err != nil {
			return nil, 0, err
		}
		return &ListNode{elems, tok.position}, incr + 1, nil

	case LeftBrace:
		return parseObject(tokens)
	}

	return nil, 0, unexpectedToken(tok)
}

// parseList parses comma-separated expressions up to and including the
// closing token. A trailing comma is allowed.
func parseList(tokens []Tok, closer Kind) ([]Node, int, error) {
	elems := make([]Node, 0)
	idx := 0

	for {
		if err := guardUnexpectedInputEnd(tokens, idx); err != nil {
			return nil, 0, err
		}
		if tokens[idx].kind == closer {
			return elems, idx + 1, nil
		}

		elem, incr, err := parseExpression(tokens[idx:], 0)
		if err != nil {
			return nil, 0, err
		}
		elems = append(elems, elem)
		idx += incr

		if err := guardUnexpectedInputEnd(tokens, idx); err != nil {
			return nil, 0, err
		}
		switch tokens[idx].kind {
		case Comma:
			idx++
		case closer:
			return elems, idx + 1, nil
		default:
			return nil, 0, unexpectedToken(tokens[idx])
		}
	}
}

func parseObject(tokens []Tok) (Node, int, error) {
	obj := &ObjectNode{
		entries:  make([]*PairNode, 0),
		position: tokens[0].position,
	}
	idx := 1

	for {
		if err := guardUnexpectedInputEnd(tokens, idx); err != nil {
			return nil, 0, err
		}
		keyTok := tokens[idx]
		if keyTok.kind == RightBrace {
			return obj, idx + 1, nil
		}

		var key string
		switch keyTok.kind {
		case Identifier, IntLiteral:
			key = keyTok.str
		case TextLiteral:
			decoded, err := DecodeText(keyTok.str)
			if err != nil {
				return nil, 0, asErr(err).at(keyTok.position)
			}
			key = decoded
		default:
			return nil, 0, unexpectedToken(keyTok)
		}
		idx++

		if err := guardUnexpectedInputEnd(tokens, idx); err != nil {
			return nil, 0, err
		}
		if tokens[idx].kind != Colon {
			return nil, 0, unexpectedToken(tokens[idx])
		}
		idx++

		if err := guardUnexpectedInputEnd(tokens, idx); err != nil {
			return nil, 0, err
		}
		val, incr, err := parseExpression(tokens[idx:], 0)
		if err != nil {
			return nil, 0, err
		}
		idx += incr
		obj.entries = append(obj.entries, &PairNode{key, val, keyTok.position})

		if err := guardUnexpectedInputEnd(tokens, idx); err != nil {
			return nil, 0, err
		}
		switch tokens[idx].kind {
		case Comma:
			idx++
		case RightBrace:
			return obj, idx + 1, nil
		default:
			return nil, 0, unexpectedToken(tokens[idx])
		}
	}
}

// tokenText renders tokens back to source form without whitespace.
func tokenText(tokens []Tok) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.str)
	}
	return b.String()
}
