package compiler

import (
	"errors"
	"fmt"
	"math"
)

// Scope describes where a resolved symbol lives at runtime.
type Scope string

const (
	Local  Scope = "local"
	Global Scope = "global"
	Free   Scope = "free"
)

// Symbol is a named slot in a symbol table.
type Symbol struct {
	name       string
	index      uint16
	isConstant bool
}

func (s *Symbol) Name() string {
	return s.name
}

func (s *Symbol) Index() uint16 {
	return s.index
}

func (s *Symbol) IsConstant() bool {
	return s.isConstant
}

// Resolution is the result of resolving a name from a particular table.
// Free resolutions record the resolution of the same name in the enclosing
// function, which tells the compiler how to build the closure cell.
type Resolution struct {
	symbol    *Symbol
	scope     Scope
	freeIndex int
	outer     *Resolution
}

func (r *Resolution) Symbol() *Symbol {
	return r.symbol
}

func (r *Resolution) Scope() Scope {
	return r.scope
}

func (r *Resolution) FreeIndex() int {
	return r.freeIndex
}

// SymbolTable tracks which symbols are defined and referenced in a given scope.
// The root table holds process globals and builtins. Every function (including
// the expression's main code) owns a non-block child table. Block tables
// allocate their indexes from the enclosing function's table.
type SymbolTable struct {
	id            string
	parent        *SymbolTable
	children      []*SymbolTable
	symbolsByName map[string]*Symbol
	freeByName    map[string]*Resolution
	symbols       []*Symbol
	free          []*Resolution
	isBlock       bool
}

// NewSymbolTable returns a new root symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		id:            "root",
		symbolsByName: map[string]*Symbol{},
		freeByName:    map[string]*Resolution{},
	}
}

// NewChild creates a new function table that is a child of the current table.
func (t *SymbolTable) NewChild() *SymbolTable {
	child := &SymbolTable{
		id:            fmt.Sprintf("%s.%d", t.id, len(t.children)),
		parent:        t,
		symbolsByName: map[string]*Symbol{},
		freeByName:    map[string]*Resolution{},
	}
	t.children = append(t.children, child)
	return child
}

// NewBlock creates a new block table, such as the body of an if or try.
func (t *SymbolTable) NewBlock() *SymbolTable {
	child := t.NewChild()
	child.isBlock = true
	return child
}

func (t *SymbolTable) ID() string {
	return t.id
}

func (t *SymbolTable) Parent() *SymbolTable {
	return t.parent
}

func (t *SymbolTable) claimIndex(s *Symbol) error {
	if t.isBlock {
		return t.parent.claimIndex(s)
	}
	idx := len(t.symbols)
	if idx >= math.MaxUint16 {
		return errors.New("compile error: too many symbols")
	}
	s.index = uint16(idx)
	t.symbols = append(t.symbols, s)
	return nil
}

// InsertVariable adds a new variable into this symbol table. The symbol is
// assigned the next available index of the enclosing function.
func (t *SymbolTable) InsertVariable(name string) (*Symbol, error) {
	if _, ok := t.symbolsByName[name]; ok {
		return nil, fmt.Errorf("variable %q already declared", name)
	}
	s := &Symbol{name: name}
	if err := t.claimIndex(s); err != nil {
		return nil, err
	}
	t.symbolsByName[name] = s
	return s, nil
}

// InsertConstant adds a new symbol that may not be reassigned.
func (t *SymbolTable) InsertConstant(name string) (*Symbol, error) {
	sym, err := t.InsertVariable(name)
	if err != nil {
		return nil, err
	}
	sym.isConstant = true
	return sym, nil
}

// IsDefined returns true if the specified symbol is defined in this table.
// Does not check any parent tables.
func (t *SymbolTable) IsDefined(name string) bool {
	_, ok := t.symbolsByName[name]
	return ok
}

// Get returns the symbol with the given name from this table only.
func (t *SymbolTable) Get(name string) (*Symbol, bool) {
	s, ok := t.symbolsByName[name]
	return s, ok
}

// IsGlobal returns true if this table is the root table.
func (t *SymbolTable) IsGlobal() bool {
	return t.parent == nil
}

// function returns the function table that owns this table.
func (t *SymbolTable) function() *SymbolTable {
	current := t
	for current.isBlock {
		current = current.parent
	}
	return current
}

// Resolve looks up the name in this table and its ancestors. A name defined
// in an enclosing function is registered as a free variable of the active
// function, and of every function in between.
func (t *SymbolTable) Resolve(name string) (*Resolution, bool) {
	// Walk the blocks of the active function first
	current := t
	for {
		if s, ok := current.symbolsByName[name]; ok {
			if current.IsGlobal() {
				return &Resolution{symbol: s, scope: Global}, true
			}
			return &Resolution{symbol: s, scope: Local}, true
		}
		if !current.isBlock {
			break
		}
		current = current.parent
	}
	fn := current
	if fn.IsGlobal() {
		return nil, false
	}
	if rs, ok := fn.freeByName[name]; ok {
		return rs, true
	}
	outer, ok := fn.parent.Resolve(name)
	if !ok {
		return nil, false
	}
	if outer.scope == Global {
		return outer, true
	}
	rs := &Resolution{
		symbol:    outer.symbol,
		scope:     Free,
		freeIndex: len(fn.free),
		outer:     outer,
	}
	fn.freeByName[name] = rs
	fn.free = append(fn.free, rs)
	return rs, true
}

// Root returns the outermost table that encloses this table.
func (t *SymbolTable) Root() *SymbolTable {
	current := t
	for current.parent != nil {
		current = current.parent
	}
	return current
}

// Count returns the number of symbols defined in this function table.
func (t *SymbolTable) Count() uint16 {
	return uint16(len(t.function().symbols))
}

// Symbol returns the Symbol located at the specified index.
func (t *SymbolTable) Symbol(index uint16) *Symbol {
	return t.function().symbols[index]
}

// FreeCount returns the number of free variables captured by this function.
func (t *SymbolTable) FreeCount() uint16 {
	return uint16(len(t.function().free))
}

// Free returns the free variable Resolution located at the specified index.
func (t *SymbolTable) Free(index uint16) *Resolution {
	return t.function().free[index]
}

// Names returns the symbol names of this function table in index order.
func (t *SymbolTable) Names() []string {
	fn := t.function()
	names := make([]string, len(fn.symbols))
	for i, s := range fn.symbols {
		names[i] = s.name
	}
	return names
}
