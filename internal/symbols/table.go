package symbols

// Table is one node in the hierarchical scope tree (spec.md §3). The root
// table of a module is conventionally named "<module>".
type Table struct {
	Name     string
	Parent   *Table
	Symbols  []*Symbol // in-order; index assignment depends on this order
	Children []*Table
	byName   map[string]*Symbol
}

// NewTable creates a root table with no parent.
func NewTable(name string) *Table {
	return &Table{Name: name, byName: make(map[string]*Symbol)}
}

// NewChild creates a table nested under this one and records it as a child.
func (t *Table) NewChild(name string) *Table {
	child := &Table{Name: name, Parent: t, byName: make(map[string]*Symbol)}
	t.Children = append(t.Children, child)
	return child
}

// Add appends a symbol to this table's in-order list, assigning it no
// index (callers set Index explicitly when order matters, e.g. Parameter
// tuple position). Returns false if the name already exists directly in
// this table (caller should raise MultipleDeclaration, spec.md §4.3).
func (t *Table) Add(sym *Symbol) bool {
	if _, exists := t.byName[sym.Name]; exists {
		return false
	}
	if t.byName == nil {
		t.byName = make(map[string]*Symbol)
	}
	t.Symbols = append(t.Symbols, sym)
	t.byName[sym.Name] = sym
	return true
}

// Lookup finds a symbol by name directly in this table, without walking to
// the parent.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	s, ok := t.byName[name]
	return s, ok
}

// LookupChain walks this table then its ancestors, returning the first hit
// and how many hops up it took (0 = found in this table). This implements
// the "walk the chain of symbol tables from the current scope up through
// function parents" step of spec.md §4.3's Reference resolution strategy.
func (t *Table) LookupChain(name string) (*Symbol, int, bool) {
	depth := 0
	for table := t; table != nil; table = table.Parent {
		if s, ok := table.byName[name]; ok {
			return s, depth, true
		}
		depth++
	}
	return nil, 0, false
}

// NonlocalIndex computes this symbol's index among this table's Nonlocal
// symbols in declaration order, as required post-resolution by spec.md §3.
func (t *Table) NonlocalIndex(sym *Symbol) int {
	idx := 0
	for _, s := range t.Symbols {
		if s == sym {
			return idx
		}
		if s.Kind == Nonlocal {
			idx++
		}
	}
	return -1
}

// Nonlocals returns this table's Nonlocal symbols in declaration order.
func (t *Table) Nonlocals() []*Symbol {
	var out []*Symbol
	for _, s := range t.Symbols {
		if s.Kind == Nonlocal {
			out = append(out, s)
		}
	}
	return out
}

// RemoveNonlocal deletes a Nonlocal symbol from the table and renumbers the
// remaining Nonlocal symbols' Index fields, used by NonlocalResolver when a
// captured function-with-no-nonlocals is unwrapped to a direct reference
// (spec.md §4.4).
func (t *Table) RemoveNonlocal(sym *Symbol) {
	out := t.Symbols[:0]
	for _, s := range t.Symbols {
		if s != sym {
			out = append(out, s)
		}
	}
	t.Symbols = out
	delete(t.byName, sym.Name)
	idx := 0
	for _, s := range t.Symbols {
		if s.Kind == Nonlocal {
			s.Index = idx
			idx++
		}
	}
}
