package liteexpr

import (
	"sort"
)

// SymbolTable is one frame of the lexical scope chain. A frame without a
// parent is a root; roots are created with the built-in functions bound.
//
// A SymbolTable is itself a Value so that GLOBAL and UPSCOPE can be bound
// inside function frames and dereferenced with member syntax.
type SymbolTable struct {
	parent *SymbolTable
	root   *SymbolTable
	names  []string
	vt     map[string]Value
}

// NewSymbolTable creates a frame under parent, or a root frame holding the
// built-ins when parent is nil. The initial bindings are normalized on entry,
// in sorted name order.
func NewSymbolTable(initial map[string]interface{}, parent *SymbolTable) (*SymbolTable, error) {
	st := &SymbolTable{
		parent: parent,
		vt:     map[string]Value{},
	}

	if parent == nil {
		st.root = st
		loadBuiltins(st)
	} else {
		st.root = parent.root
	}

	names := make([]string, 0, len(initial))
	for name := range initial {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := st.Set(name, initial[name]); err != nil {
			return nil, err
		}
	}

	return st, nil
}

// NewRootScope returns an empty root frame with the built-ins bound.
func NewRootScope() *SymbolTable {
	st, _ := NewSymbolTable(nil, nil)
	return st
}

func (st *SymbolTable) String() string {
	return st.encoded()
}

// Equals compares frames by identity.
func (st *SymbolTable) Equals(other Value) bool {
	ost, ok := other.(*SymbolTable)
	return ok && st == ost
}

func (st *SymbolTable) Kind() ValueKind {
	return ScopeKind
}

// Get a value from the frame chain
func (st *SymbolTable) Get(name string) (Value, error) {
	if owner := st.Owner(name); owner != nil {
		return owner.vt[name], nil
	}
	return nil, runtimeErrorf("`%s` is not a valid symbol", name)
}

// Set normalizes raw and binds it in this frame, never in an ancestor.
func (st *SymbolTable) Set(name string, raw interface{}) (Value, error) {
	val, err := ToValue(raw)
	if err != nil {
		return nil, err
	}

	if _, exists := st.vt[name]; !exists {
		st.names = append(st.names, name)
	}
	st.vt[name] = val
	return val, nil
}

// Owner returns the nearest frame, starting at st, that binds name.
func (st *SymbolTable) Owner(name string) *SymbolTable {
	for frame := st; frame != nil; frame = frame.parent {
		if _, ok := frame.vt[name]; ok {
			return frame
		}
	}
	return nil
}

// Has reports whether name is bound in this frame itself.
func (st *SymbolTable) Has(name string) bool {
	_, ok := st.vt[name]
	return ok
}

func (st *SymbolTable) Parent() *SymbolTable {
	return st.parent
}

func (st *SymbolTable) Root() *SymbolTable {
	return st.root
}

func (st *SymbolTable) IsRoot() bool {
	return st.root == st
}

// Names returns the names bound in this frame in binding order.
func (st *SymbolTable) Names() []string {
	return append([]string{}, st.names...)
}

func (st *SymbolTable) encoded() string {
	members := make([]string, 0, len(st.names)+1)
	if st.parent != nil {
		members = append(members, "__PARENT__ : "+indent(st.parent.encoded()))
	}

	for _, name := range st.names {
		switch name {
		case "GLOBAL", "UPSCOPE":
			members = append(members, name+" : <"+name+">")
		default:
			members = append(members, name+" : "+indent(encode(st.vt[name])))
		}
	}

	return encodeMembers(members)
}
