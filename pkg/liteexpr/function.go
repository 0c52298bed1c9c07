package liteexpr

import (
	"strconv"
)

// Variadic as a maximum argument count means the callable accepts any
// number of arguments past its minimum.
const Variadic = -1

// EagerFunc receives fully evaluated arguments.
type EagerFunc func(ev *Evaluator, args []Value) (Value, error)

// LazyFunc receives its argument expressions unevaluated, and decides
// itself which to evaluate, how often and in what order, by passing them
// back to ev.Visit.
type LazyFunc func(ev *Evaluator, args []Node) (Value, error)

// FunctionValue is a callable: either a built-in or a closure created by
// FUNCTION. It carries an inclusive arity contract and an evaluation mode.
type FunctionValue struct {
	name    string
	minArgs int
	maxArgs int
	eager   EagerFunc
	lazy    LazyFunc
}

// NewFunction returns an eager callable accepting between min and max
// arguments; max may be Variadic.
func NewFunction(name string, min, max int, fn EagerFunc) *FunctionValue {
	return &FunctionValue{name: name, minArgs: min, maxArgs: max, eager: fn}
}

// NewLazyFunction returns a lazy callable accepting between min and max
// argument expressions.
func NewLazyFunction(name string, min, max int, fn LazyFunc) *FunctionValue {
	return &FunctionValue{name: name, minArgs: min, maxArgs: max, lazy: fn}
}

func (f *FunctionValue) String() string {
	return "<Function>"
}

// Equals compares callables by identity.
func (f *FunctionValue) Equals(other Value) bool {
	of, ok := other.(*FunctionValue)
	return ok && f == of
}

func (f *FunctionValue) Kind() ValueKind {
	return FunctionKind
}

func (f *FunctionValue) Name() string {
	return f.name
}

// Arity returns the inclusive argument bounds. max is Variadic when unbounded.
func (f *FunctionValue) Arity() (min, max int) {
	return f.minArgs, f.maxArgs
}

func (f *FunctionValue) IsLazy() bool {
	return f.lazy != nil
}

func (f *FunctionValue) checkArity(n int) error {
	if n >= f.minArgs && (f.maxArgs == Variadic || n <= f.maxArgs) {
		return nil
	}

	max := "*"
	if f.maxArgs != Variadic {
		max = strconv.Itoa(f.maxArgs)
	}
	return syntaxErrorf("Invalid argument count; expected [%d, %s], got %d", f.minArgs, max, n)
}

// callLazy validates the argument count and hands the unevaluated
// argument expressions to a lazy callable.
func (f *FunctionValue) callLazy(ev *Evaluator, args []Node) (Value, error) {
	if err := f.checkArity(len(args)); err != nil {
		return nil, err
	}
	return f.lazy(ev, args)
}

// Invoke calls an eager callable with already evaluated arguments. Host
// code uses it to call back into functions a program defined, passing an
// Evaluator from Engine.NewEvaluator, or nil for a default Engine and a
// fresh root scope.
func (f *FunctionValue) Invoke(ev *Evaluator, args ...Value) (Value, error) {
	if f.lazy != nil {
		return nil, runtimeErrorf("`%s` takes unevaluated arguments and cannot be invoked with values", f.name)
	}
	if err := f.checkArity(len(args)); err != nil {
		return nil, err
	}
	if ev == nil {
		ev = (&Engine{}).NewEvaluator(nil)
	}
	return f.eager(ev, args)
}
