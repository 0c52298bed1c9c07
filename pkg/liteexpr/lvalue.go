package liteexpr

type slotKind int

const (
	scopeSlot slotKind = iota
	arraySlot
	objectSlot
	immediateSlot
)

// Lvalue is a resolved, assignable reference: a container plus a key. An
// immediate Lvalue wraps a value that lives in no container; writing it
// only rebinds the handle's own copy.
type Lvalue struct {
	kind   slotKind
	scope  *SymbolTable
	array  *ArrayValue
	object *ObjectValue
	name   string
	index  int64
	value  Value
}

func scopeLvalue(scope *SymbolTable, name string) *Lvalue {
	return &Lvalue{kind: scopeSlot, scope: scope, name: name}
}

func immediateLvalue(v Value) *Lvalue {
	return &Lvalue{kind: immediateSlot, value: v}
}

// Read dereferences the handle through its container.
func (lv *Lvalue) Read() (Value, error) {
	switch lv.kind {
	case scopeSlot:
		return lv.scope.Get(lv.name)
	case arraySlot:
		return lv.array.Get(lv.index)
	case objectSlot:
		if val, ok := lv.object.Get(lv.name); ok {
			return val, nil
		}
		return nil, runtimeErrorf("`%s` is not a valid symbol", lv.name)
	default:
		return lv.value, nil
	}
}

// Write normalizes raw and stores it through the container. A name that is
// already bound somewhere in the chain is updated where it lives; a new
// name is bound in the handle's own frame.
func (lv *Lvalue) Write(raw interface{}) (Value, error) {
	switch lv.kind {
	case scopeSlot:
		owner := lv.scope.Owner(lv.name)
		if owner == nil {
			owner = lv.scope
		}
		return owner.Set(lv.name, raw)
	case arraySlot:
		return lv.array.Set(lv.index, raw)
	case objectSlot:
		return lv.object.Set(lv.name, raw)
	default:
		val, err := ToValue(raw)
		if err != nil {
			return nil, err
		}
		lv.value = val
		return val, nil
	}
}

// resolveIndex binds a handle for base[key].
func resolveIndex(base, key Value) (*Lvalue, error) {
	switch b := base.(type) {
	case *ArrayValue:
		i, ok := key.(IntValue)
		if !ok {
			return nil, runtimeErrorf("Array index must be %s, got (%s)", IntKind, key.Kind())
		}
		return &Lvalue{kind: arraySlot, array: b, index: int64(i)}, nil
	case *ObjectValue:
		return &Lvalue{kind: objectSlot, object: b, name: key.String()}, nil
	case *SymbolTable:
		return scopeLvalue(b, key.String()), nil
	}
	return immediateLvalue(base), nil
}

// resolveMember binds a handle for base.name.
func resolveMember(base Value, name string) *Lvalue {
	switch b := base.(type) {
	case *ObjectValue:
		return &Lvalue{kind: objectSlot, object: b, name: name}
	case *SymbolTable:
		return scopeLvalue(b, name)
	}
	return immediateLvalue(base)
}
