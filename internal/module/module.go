// Package module implements the Module and Function containers of spec.md
// §3: a Module owns its functions, static values, type names, classes,
// instances, and import list; a Function owns its Signature, bytecode, and
// symbol table.
//
// Grounded on the teacher's module/import registry
// (_examples/funvibe-funxy/internal/modules/module.go, loader.go): a Module
// struct holding a name, an import map, and owned declarations. funxy's
// modules are dynamically loaded at runtime by path; spec.md §1 explicitly
// makes that a non-goal ("dynamic linking of modules at runtime") — Ember's
// Interpreter (internal/interp) instead resolves imports once, at compile
// time, by name through a host-supplied registry (spec.md §6), closer to
// the teacher's own module.Loader.Load being called once up front per
// entry script rather than lazily.
package module

import (
	"github.com/google/uuid"

	"github.com/emberlang/ember/internal/symbols"
	"github.com/emberlang/ember/internal/types"
	"github.com/emberlang/ember/internal/value"
)

// Class models a type-class/trait declaration (spec.md §3 Data Model:
// "Module owns ... classes, instances"). Ember implements operator
// overloading and instance dispatch through the builtin overload chain
// (spec.md §4.5, §6); Class/Instance/Method symbols exist so type classes
// can be registered and looked up the same way. The parser has no class or
// instance declaration syntax, so only a host can add them.
type Class struct {
	Name    string
	Methods []*Function // method signatures, no bodies (interface-only)
}

// Instance binds a Class to a concrete target type with method
// implementations.
type Instance struct {
	ClassName  string
	Target     types.TypeInfo
	Methods    map[string]*Function
}

// Module is a translation unit (spec.md §3, GLOSSARY).
type Module struct {
	ID   uuid.UUID
	Name string

	Imports   []*Module
	Functions []*Function
	Statics   []value.Value
	TypeNames map[string]types.TypeInfo
	Classes   []*Class
	Instances []*Instance

	Root *symbols.Table

	// Entry is the nullary Function compiled from the module's top-level
	// block (its Symbols is Root itself, not a child scope, since top-level
	// Definitions are resolved directly against Root — spec.md §4.3). Set
	// by the Interpreter façade before type resolution, or by
	// bundle.ToModule when a module is restored from a bundle.
	Entry *Function
}

// New creates an empty module named name, with its root symbol table
// "<module>" per spec.md §3.
func New(name string) *Module {
	return &Module{
		ID:        uuid.New(),
		Name:      name,
		TypeNames: make(map[string]types.TypeInfo),
		Root:      symbols.NewTable("<module>"),
	}
}

// AddFunction appends fn to the module's function table and sets fn.Index.
func (m *Module) AddFunction(fn *Function) int {
	fn.Index = len(m.Functions)
	fn.Module = m
	m.Functions = append(m.Functions, fn)
	return fn.Index
}

// AddStatic interns a literal value into the static table, returning its
// index (spec.md §4.9: every Integer/Float/String literal becomes a static
// value referenced by LoadStatic).
func (m *Module) AddStatic(v value.Value) int {
	m.Statics = append(m.Statics, v)
	return len(m.Statics) - 1
}

// AddImport records mod as an imported module and returns its position in
// the import list, by which Call<m> opcodes address it (spec.md §6).
func (m *Module) AddImport(mod *Module) int {
	m.Imports = append(m.Imports, mod)
	return len(m.Imports) - 1
}

// MakeCopy copies a value's static representation across a module
// boundary (spec.md §4.9: "copy the value across (make_copy +
// add_value)"). It is a plain value-level copy and does not touch
// refcounts; the copy becomes a static of the importing module, and the
// machine's LoadStatic bumps the refcount each time it pushes a static.
func MakeCopy(v value.Value) value.Value { return v }
