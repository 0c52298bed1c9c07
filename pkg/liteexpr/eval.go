package liteexpr

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
)

// DefaultMaxDepth bounds nested function and EVAL calls when
// Engine.MaxDepth is left at zero.
const DefaultMaxDepth = 4096

// evalState is shared by every Evaluator taking part in one evaluation.
type evalState struct {
	engine *Engine
	// literal values, constructed once per node
	literals map[Node]Value
	depth    int
}

// Evaluator walks a syntax tree against a scope. Lazy built-ins receive
// the caller's Evaluator and use Visit to evaluate argument expressions.
type Evaluator struct {
	scope *SymbolTable
	state *evalState
}

func (ev *Evaluator) Scope() *SymbolTable {
	return ev.scope
}

func (ev *Evaluator) Engine() *Engine {
	return ev.state.engine
}

func (ev *Evaluator) withScope(scope *SymbolTable) *Evaluator {
	return &Evaluator{scope: scope, state: ev.state}
}

// Visit evaluates node in the Evaluator's scope. Errors that do not yet
// carry a position are tagged with the node's.
func (ev *Evaluator) Visit(node Node) (Value, error) {
	val, err := node.Eval(ev)
	if err != nil {
		return nil, positioned(err, node)
	}
	return val, nil
}

// Resolve evaluates a reference node to an assignable handle.
func (ev *Evaluator) Resolve(node Node) (*Lvalue, error) {
	ref, ok := node.(referenceNode)
	if !ok {
		val, err := ev.Visit(node)
		if err != nil {
			return nil, err
		}
		return immediateLvalue(val), nil
	}

	lv, err := ref.resolve(ev)
	if err != nil {
		return nil, positioned(err, node)
	}
	return lv, nil
}

// Eval compiles source and evaluates it in the Evaluator's current scope.
func (ev *Evaluator) Eval(source string) (Value, error) {
	prog, err := ev.state.engine.Compile(source)
	if err != nil {
		return nil, err
	}
	if prog.root == nil {
		return IntValue(0), nil
	}

	if err := ev.enter(); err != nil {
		return nil, err
	}
	defer ev.leave()

	child := &Evaluator{
		scope: ev.scope,
		state: &evalState{
			engine:   ev.state.engine,
			literals: map[Node]Value{},
			depth:    ev.state.depth,
		},
	}
	return child.Visit(prog.root)
}

func (ev *Evaluator) enter() error {
	max := ev.state.engine.maxDepth()
	if max > 0 && ev.state.depth >= max {
		return runtimeErrorf("Maximum call depth (%d) exceeded", max)
	}
	ev.state.depth++
	return nil
}

func (ev *Evaluator) leave() {
	ev.state.depth--
}

func positioned(err error, node Node) error {
	e := asErr(err)
	if e.line == 0 {
		return e.at(node.Position())
	}
	return e
}

func (ev *Evaluator) literal(node Node, build func() (Value, error)) (Value, error) {
	if val, ok := ev.state.literals[node]; ok {
		return val, nil
	}

	val, err := build()
	if err != nil {
		return nil, err
	}
	ev.state.literals[node] = val
	return val, nil
}

func parseIntLiteral(digits string, base int) (Value, error) {
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, syntaxErrorf("Invalid integer literal `%s`", digits)
	}
	return wrapBigInt(n), nil
}

func (n *IntLiteralNode) Eval(ev *Evaluator) (Value, error) {
	return ev.literal(n, func() (Value, error) {
		return parseIntLiteral(n.payload, 10)
	})
}

func (n *HexLiteralNode) Eval(ev *Evaluator) (Value, error) {
	return ev.literal(n, func() (Value, error) {
		return parseIntLiteral(n.payload[2:], 16)
	})
}

func (n *DoubleLiteralNode) Eval(ev *Evaluator) (Value, error) {
	return ev.literal(n, func() (Value, error) {
		f, err := strconv.ParseFloat(n.payload, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, syntaxErrorf("Invalid double literal `%s`", n.payload)
		}
		return DoubleValue(f), nil
	})
}

func (n *TextLiteralNode) Eval(ev *Evaluator) (Value, error) {
	return ev.literal(n, func() (Value, error) {
		s, err := DecodeText(n.payload)
		if err != nil {
			return nil, err
		}
		return TextValue(s), nil
	})
}

func (n *IdentifierNode) Eval(ev *Evaluator) (Value, error) {
	return ev.scope.Get(n.payload)
}

func (n *IdentifierNode) resolve(ev *Evaluator) (*Lvalue, error) {
	return scopeLvalue(ev.scope, n.payload), nil
}

func (n *IndexNode) Eval(ev *Evaluator) (Value, error) {
	lv, err := n.resolve(ev)
	if err != nil {
		return nil, err
	}
	return lv.Read()
}

func (n *IndexNode) resolve(ev *Evaluator) (*Lvalue, error) {
	base, err := ev.Visit(n.base)
	if err != nil {
		return nil, err
	}
	key, err := ev.Visit(n.index)
	if err != nil {
		return nil, err
	}
	return resolveIndex(base, key)
}

func (n *MemberNode) Eval(ev *Evaluator) (Value, error) {
	lv, err := n.resolve(ev)
	if err != nil {
		return nil, err
	}
	return lv.Read()
}

func (n *MemberNode) resolve(ev *Evaluator) (*Lvalue, error) {
	base, err := ev.Visit(n.base)
	if err != nil {
		return nil, err
	}
	return resolveMember(base, n.name), nil
}

func (n *CallNode) Eval(ev *Evaluator) (Value, error) {
	callee, err := ev.Visit(n.function)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(*FunctionValue)
	if !ok {
		return nil, runtimeErrorf("`%s` is not callable: (%s)", tokenTextOf(n.function), callee.Kind())
	}

	var val Value
	if fn.IsLazy() {
		val, err = fn.callLazy(ev, n.arguments)
	} else {
		args := make([]Value, len(n.arguments))
		for i, arg := range n.arguments {
			if args[i], err = ev.Visit(arg); err != nil {
				return nil, err
			}
		}
		val, err = fn.Invoke(ev, args...)
	}

	if err != nil {
		return nil, n.wrap(err)
	}
	return val, nil
}

// wrap re-raises an error from inside a call with the call's position,
// keeping the original message as context.
func (n *CallNode) wrap(err error) error {
	e := asErr(err)
	reason, label := ErrRuntime, "Runtime"
	if e.reason == ErrSyntax {
		reason, label = ErrSyntax, "Syntax"
	}

	return Err{
		reason:  reason,
		message: fmt.Sprintf("%s error while executing `%s`:\n\t%s", label, n.text, e.Error()),
		line:    n.line,
		col:     n.col,
	}
}

func tokenTextOf(node Node) string {
	switch n := node.(type) {
	case *IdentifierNode:
		return n.payload
	case *MemberNode:
		return tokenTextOf(n.base) + "." + n.name
	case *IndexNode:
		return tokenTextOf(n.base) + "[...]"
	case *CallNode:
		return n.text
	}
	return node.String()
}

func (n *ListNode) Eval(ev *Evaluator) (Value, error) {
	arr := &ArrayValue{elems: make([]Value, 0, len(n.elems))}
	for _, elem := range n.elems {
		val, err := ev.Visit(elem)
		if err != nil {
			return nil, err
		}
		arr.elems = append(arr.elems, val)
	}
	return arr, nil
}

func (n *ObjectNode) Eval(ev *Evaluator) (Value, error) {
	obj := NewObject()
	for _, entry := range n.entries {
		val, err := ev.Visit(entry.val)
		if err != nil {
			return nil, err
		}
		if _, err := obj.Set(entry.key, val); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func (n *GroupNode) Eval(ev *Evaluator) (Value, error) {
	return ev.Visit(n.expr)
}

func (n *UnaryExprNode) Eval(ev *Evaluator) (Value, error) {
	operand, err := ev.Visit(n.operand)
	if err != nil {
		return nil, err
	}
	return unaryOp(n.operator, operand)
}

func (n *PrefixExprNode) Eval(ev *Evaluator) (Value, error) {
	lv, err := ev.Resolve(n.target)
	if err != nil {
		return nil, err
	}
	current, err := lv.Read()
	if err != nil {
		return nil, err
	}
	next, err := increment(n.operator, current)
	if err != nil {
		return nil, err
	}
	return lv.Write(next)
}

func (n *PostfixExprNode) Eval(ev *Evaluator) (Value, error) {
	lv, err := ev.Resolve(n.target)
	if err != nil {
		return nil, err
	}
	current, err := lv.Read()
	if err != nil {
		return nil, err
	}
	next, err := increment(n.operator, current)
	if err != nil {
		return nil, err
	}
	if _, err := lv.Write(next); err != nil {
		return nil, err
	}
	return current, nil
}

func (n *BinaryExprNode) Eval(ev *Evaluator) (Value, error) {
	switch n.operator {
	case SequenceOp:
		if _, err := ev.Visit(n.leftOperand); err != nil {
			return nil, err
		}
		return ev.Visit(n.rightOperand)

	case LogicalAndOp, LogicalOrOp:
		left, err := ev.Visit(n.leftOperand)
		if err != nil {
			return nil, err
		}
		return ev.shortCircuit(n.operator, left, n.rightOperand)
	}

	left, err := ev.Visit(n.leftOperand)
	if err != nil {
		return nil, err
	}
	right, err := ev.Visit(n.rightOperand)
	if err != nil {
		return nil, err
	}
	return binaryOp(n.operator, left, right)
}

// shortCircuit finishes && or || given the left operand's value, evaluating
// the right operand only when it decides the result.
func (ev *Evaluator) shortCircuit(op Kind, left Value, rightOperand Node) (Value, error) {
	lt, err := truthOperand(op, left)
	if err != nil {
		return nil, err
	}
	if op == LogicalAndOp && !lt {
		return IntValue(0), nil
	}
	if op == LogicalOrOp && lt {
		return IntValue(1), nil
	}

	right, err := ev.Visit(rightOperand)
	if err != nil {
		return nil, err
	}
	rt, err := truthOperand(op, right)
	if err != nil {
		return nil, err
	}
	return boolValue(rt), nil
}

func (n *TernaryExprNode) Eval(ev *Evaluator) (Value, error) {
	t, err := ev.condition(n.condition)
	if err != nil {
		return nil, err
	}
	if t {
		return ev.Visit(n.ifTrue)
	}
	return ev.Visit(n.ifFalse)
}

// Eval resolves the target before evaluating the right-hand side.
func (n *AssignExprNode) Eval(ev *Evaluator) (Value, error) {
	lv, err := ev.Resolve(n.target)
	if err != nil {
		return nil, err
	}

	var result Value
	switch n.operator {
	case AssignOp:
		result, err = ev.Visit(n.value)
		if err != nil {
			return nil, err
		}

	case LogicalAndOp, LogicalOrOp:
		current, err := lv.Read()
		if err != nil {
			return nil, err
		}
		result, err = ev.shortCircuit(n.operator, current, n.value)
		if err != nil {
			return nil, err
		}

	default:
		current, err := lv.Read()
		if err != nil {
			return nil, err
		}
		right, err := ev.Visit(n.value)
		if err != nil {
			return nil, err
		}
		result, err = binaryOp(n.operator, current, right)
		if err != nil {
			return nil, err
		}
	}

	return lv.Write(result)
}

// Program is a compiled syntax tree, reusable across evaluations.
type Program struct {
	root Node
}

func (p *Program) String() string {
	if p.root == nil {
		return "<empty>"
	}
	return p.root.String()
}

// Compile tokenizes and parses source once.
func Compile(source string) (*Program, error) {
	return (&Engine{}).Compile(source)
}

// Evaluate runs the program against scope, or against a fresh root scope
// when scope is nil, with default Engine settings.
func (p *Program) Evaluate(scope *SymbolTable) (Value, error) {
	return (&Engine{}).Evaluate(p, scope)
}

// Eval compiles and evaluates source in one step.
func Eval(source string, scope *SymbolTable) (Value, error) {
	prog, err := Compile(source)
	if err != nil {
		return nil, err
	}
	return prog.Evaluate(scope)
}

// Engine holds the settings shared by evaluations: where PRINT writes,
// debug flags, the call depth limit and the diagnostic logger.
//
// An Engine holds no program state, so one Engine may serve many
// concurrent evaluations as long as they do not share scopes.
type Engine struct {
	// Out receives PRINT output; nil means os.Stdout.
	Out io.Writer

	// If FatalError is true, Context.LogErr exits the process.
	FatalError bool
	Debug      DebugConfig

	// MaxDepth bounds nested function and EVAL calls. Zero means
	// DefaultMaxDepth; a negative value removes the bound.
	MaxDepth int

	// Logger receives debug tracing. The zero Logger discards everything.
	Logger zerolog.Logger
}

// DebugConfig defines any debugging flags referenced at runtime
type DebugConfig struct {
	Lex   bool
	Parse bool
	Dump  bool
}

func (eng *Engine) out() io.Writer {
	if eng.Out == nil {
		return os.Stdout
	}
	return eng.Out
}

func (eng *Engine) maxDepth() int {
	if eng.MaxDepth == 0 {
		return DefaultMaxDepth
	}
	return eng.MaxDepth
}

// Compile tokenizes and parses source, logging tokens and the tree when
// the corresponding debug flags are set.
func (eng *Engine) Compile(source string) (*Program, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	if eng.Debug.Lex {
		for _, tok := range tokens {
			eng.Logger.Debug().Str("token", tok.String()).Msg("lex")
		}
	}

	root, err := Parse(tokens)
	if err != nil {
		return nil, err
	}
	if eng.Debug.Parse && root != nil {
		eng.Logger.Debug().Str("pos", poss(root)).Str("tree", root.String()).Msg("parse")
	}

	return &Program{root: root}, nil
}

// Evaluate runs a compiled program against scope, or a fresh root scope
// when scope is nil. An empty program evaluates to Int 0.
func (eng *Engine) Evaluate(prog *Program, scope *SymbolTable) (Value, error) {
	if scope == nil {
		scope = NewRootScope()
	}
	if prog.root == nil {
		return IntValue(0), nil
	}

	val, err := eng.NewEvaluator(scope).Visit(prog.root)

	if eng.Debug.Dump {
		eng.Logger.Debug().Str("scope", Repr(scope)).Msg("scope dump")
	}
	return val, err
}

// NewEvaluator returns an Evaluator bound to scope, or to a fresh root
// scope when scope is nil. Host code passes it to FunctionValue.Invoke.
func (eng *Engine) NewEvaluator(scope *SymbolTable) *Evaluator {
	if scope == nil {
		scope = NewRootScope()
	}
	return &Evaluator{
		scope: scope,
		state: &evalState{
			engine:   eng,
			literals: map[Node]Value{},
		},
	}
}

// Eval compiles and evaluates source against scope.
func (eng *Engine) Eval(source string, scope *SymbolTable) (Value, error) {
	prog, err := eng.Compile(source)
	if err != nil {
		return nil, err
	}
	return eng.Evaluate(prog, scope)
}

// CreateContext creates and initializes a new Context tied to a given Engine.
func (eng *Engine) CreateContext() *Context {
	return &Context{
		Engine: eng,
		Scope:  NewRootScope(),
	}
}

// Context represents a single, isolated execution context: a root scope
// that successive programs share, and the file currently running.
type Context struct {
	// currently executing file's path, if any
	File   string
	Engine *Engine
	// Scope is the Context's root frame
	Scope *SymbolTable
}

// LoadFunc binds a Go-implemented eager function into the Context's root scope.
func (ctx *Context) LoadFunc(name string, min, max int, exec EagerFunc) {
	ctx.Scope.LoadFunc(name, min, max, exec)
}

// LogErr logs an error according to the configurations
// specified in the Context's Engine.
func (ctx *Context) LogErr(err error) {
	e := asErr(err)
	msg := e.Error()
	if ctx.File != "" {
		msg = msg + " in " + ctx.File
	}

	if ctx.Engine.FatalError {
		LogErr(e.reason, msg)
	} else {
		LogSafeErr(e.reason, msg)
	}
}

// Dump logs the current state of the Context's root scope
func (ctx *Context) Dump() {
	ctx.Engine.Logger.Debug().Str("scope", Repr(ctx.Scope)).Msg("frame dump")
}

// Exec runs a program read from input in the Context's root scope.
func (ctx *Context) Exec(input io.Reader) (Value, error) {
	source, err := io.ReadAll(input)
	if err != nil {
		return nil, Err{reason: ErrSystem, message: fmt.Sprintf("could not read program: %s", err)}
	}
	return ctx.Engine.Eval(string(source), ctx.Scope)
}

// ExecPath is a convenience function to Exec() a program file in a given Context.
func (ctx *Context) ExecPath(filePath string) (Value, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, Err{reason: ErrSystem, message: fmt.Sprintf("could not resolve %s:\n\t-> %s", filePath, err)}
	}
	ctx.File = absPath

	file, err := os.Open(absPath)
	if err != nil {
		return nil, Err{reason: ErrSystem, message: fmt.Sprintf("could not open %s for execution:\n\t-> %s", absPath, err)}
	}
	defer file.Close()

	return ctx.Exec(file)
}
