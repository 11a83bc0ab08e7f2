package resolver

import (
	"github.com/emberlang/ember/internal/module"
	"github.com/emberlang/ember/internal/symbols"
)

// NonlocalResolver is the second pass (spec.md §4.4): flatten multi-hop
// non-local chains into a single hop, unwrap captured functions that
// themselves have no non-locals, then renumber.
type NonlocalResolver struct {
	mod *module.Module
}

func NewNonlocalResolver(mod *module.Module) *NonlocalResolver {
	return &NonlocalResolver{mod: mod}
}

// Run visits every function in the module exactly once; order does not
// matter since each function's non-locals are processed independently and
// parent functions gain new Nonlocal entries lazily as children demand them.
func (r *NonlocalResolver) Run() {
	for _, fn := range r.mod.Functions {
		r.flatten(fn)
	}
	for _, fn := range r.mod.Functions {
		renumber(fn.Symbols)
	}
}

// flatten walks fn's Nonlocal symbols. A Nonlocal symbol's Ref is the
// symbol it was captured from, materialised by SymbolResolver at whatever
// depth the original Reference was found; here Depth > 1 means the target
// actually lives more than one function-scope hop away, so we insert an
// intermediate Nonlocal in the parent function pointing at the same
// ultimate target, and rewrite this function's Nonlocal to capture that
// intermediate (now a single hop away) instead (spec.md §4.4).
func (r *NonlocalResolver) flatten(fn *module.Function) {
	for _, sym := range fn.Symbols.Nonlocals() {
		parent := fn.Symbols.Parent
		for sym.Depth > 1 && parent != nil {
			mid := findOrMakeNonlocal(parent, sym.Ref)
			sym.Ref = mid
			sym.Depth--
			parent = parent.Parent
		}
	}

	// Unwrap: a Nonlocal whose target is itself a no-nonlocal Function is
	// replaced by a direct Function reference; remove it from the
	// non-local list (spec.md §4.4 "unwrapped").
	for _, sym := range fn.Symbols.Nonlocals() {
		target := sym.Ref
		if target == nil || target.Kind != symbols.FunctionKind {
			continue
		}
		targetFn, ok := target.Payload.(*module.Function)
		if !ok || len(targetFn.Symbols.Nonlocals()) != 0 {
			continue
		}
		sym.Kind = symbols.FunctionKind
		sym.Index = target.Index
		sym.IsCallable = true
		sym.Type = target.Type
		sym.Payload = target.Payload
		fn.Symbols.RemoveNonlocal(sym)
	}
}

// findOrMakeNonlocal returns an existing Nonlocal symbol in scope that
// already captures target, or creates one, keeping a single hop per
// distinct outer value the same way SymbolResolver's own memoisation does.
func findOrMakeNonlocal(scope *symbols.Table, target *symbols.Symbol) *symbols.Symbol {
	for _, s := range scope.Nonlocals() {
		if s.Ref == target {
			return s
		}
	}
	nl := &symbols.Symbol{Name: target.Name, Kind: symbols.Nonlocal, Ref: target, Type: target.Type, IsCallable: target.IsCallable, Depth: 1}
	if !scope.Add(nl) {
		existing, _ := scope.Lookup(target.Name)
		return existing
	}
	return nl
}

// renumber sets every Nonlocal symbol's Index to its position among the
// table's non-locals, per spec.md §4.4's final step.
func renumber(scope *symbols.Table) {
	idx := 0
	for _, s := range scope.Symbols {
		if s.Kind == symbols.Nonlocal {
			s.Index = idx
			idx++
		}
	}
}
