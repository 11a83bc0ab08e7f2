// Package symbols implements the hierarchical scope model of spec.md §3:
// a tree of SymbolTables, each holding an ordered list of Symbols tagged by
// kind, with a parent pointer used by name lookup (§4.3) and a list of
// child tables created for nested function bodies.
//
// The split between an ordered symbol list (for index assignment) and a
// name->symbol map (for O(1) lookup), plus an outer-scope pointer chain, is
// grounded on the teacher's own scope chain
// (_examples/funvibe-funxy/internal/symbols/symbol_table_advanced.go,
// symbol_table_operations.go: `store map[string]Symbol`, `outer *SymbolTable`),
// adapted from funxy's flat per-scope-kind map model to the explicit
// tree-with-children-and-depth model spec.md requires so NonlocalResolver
// can walk and flatten non-local chains (spec.md §4.4).
package symbols

import "github.com/emberlang/ember/internal/types"

// Kind is the closed set of symbol kinds named in spec.md §3.
type Kind int

const (
	Parameter Kind = iota
	Value
	FunctionKind
	Nonlocal
	ModuleKind
	Instruction
	TypeNameKind
	Class
	Instance
	Method
	TypeVar
)

func (k Kind) String() string {
	switch k {
	case Parameter:
		return "Parameter"
	case Value:
		return "Value"
	case FunctionKind:
		return "Function"
	case Nonlocal:
		return "Nonlocal"
	case ModuleKind:
		return "Module"
	case Instruction:
		return "Instruction"
	case TypeNameKind:
		return "TypeName"
	case Class:
		return "Class"
	case Instance:
		return "Instance"
	case Method:
		return "Method"
	case TypeVar:
		return "TypeVar"
	default:
		return "Kind(?)"
	}
}

// Symbol holds (name, kind, index, depth, optional reference to another
// symbol, is_callable) per spec.md §3.
type Symbol struct {
	Name  string
	Kind  Kind
	Index int
	Depth int // for a Function self-reference: distance + 1 (spec.md §4.3)

	// Ref points at the symbol this one was materialised from: a Nonlocal
	// symbol's Ref is the outer symbol it captures; a recursion-sentinel
	// Function symbol's Ref is the enclosing function's own symbol.
	Ref *Symbol

	IsCallable bool
	Type       types.TypeInfo

	// Next chains size-polymorphic builtin overloads (spec.md §4.5, §6:
	// add_8 -> add_32 -> add_64) so overload resolution can walk a
	// candidate list hanging off one symbol-table entry.
	next *Symbol

	// Module/Function/Instance payloads, set by callers that own the
	// concrete type (module.Function, module.Module, ...); left untyped
	// here to avoid a symbols<->module import cycle.
	Payload any
}

// Next returns the next candidate in this symbol's overload chain, or nil.
func (s *Symbol) Next() *Symbol { return s.next }

// Chain links candidates in declaration order: first.Next() == second, etc.
func Chain(symbols ...*Symbol) {
	for i := 0; i+1 < len(symbols); i++ {
		symbols[i].next = symbols[i+1]
	}
}
