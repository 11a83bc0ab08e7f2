package module

import (
	"github.com/emberlang/ember/internal/bytecode"
	"github.com/emberlang/ember/internal/symbols"
	"github.com/emberlang/ember/internal/types"
)

// Function owns a signature, a bytecode buffer, local-value types, and a
// symbol table (spec.md §3). Module is a non-owning back-reference set by
// Module.AddFunction.
type Function struct {
	Module *Module
	Index  int
	Name   string

	Symbols   *symbols.Table
	Signature *types.Signature
	Code      *bytecode.Code

	// LocalTypes records, in declaration order, the type of every local
	// value slot (spec.md §3: "a vector of local-value TypeInfos").
	LocalTypes []types.TypeInfo

	// IsBuiltin marks a Function that belongs to the distinguished
	// Builtin module (spec.md §6); IsIntrinsic marks one whose body is the
	// single opcode IntrinsicOp. Such functions are type-checked against
	// their Signature and called through Call1 with Index as the target.
	IsBuiltin     bool
	IntrinsicOp   bytecode.Opcode
	IsIntrinsic   bool
}

// NewFunction creates a function with its own child symbol table nested
// under parentScope (nil for a module-level function), per spec.md §4.3
// ("create a child symbol table").
func NewFunction(name string, sig *types.Signature, parentScope *symbols.Table) *Function {
	var scope *symbols.Table
	if parentScope != nil {
		scope = parentScope.NewChild(name)
	} else {
		scope = symbols.NewTable(name)
	}
	return &Function{
		Name:      name,
		Symbols:   scope,
		Signature: sig,
		Code:      bytecode.NewCode(),
	}
}

// AddLocal records a new local-value type and returns its slot index.
func (f *Function) AddLocal(t types.TypeInfo) int {
	f.LocalTypes = append(f.LocalTypes, t)
	return len(f.LocalTypes) - 1
}
