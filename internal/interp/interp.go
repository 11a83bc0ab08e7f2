// Package interp implements the Interpreter façade of spec.md §2 item 10:
// it glues the parser, the three-pass semantic pipeline (plus the optional
// Optimizer), the compiler, and the Machine together behind build_module /
// add_imported_module / eval, exactly the surface spec.md §6 describes.
//
// Grounded on the teacher's own top-level glue
// (_examples/funvibe-funxy/internal/vm/public.go and cmd/funxy/main.go's
// "compile then run" sequencing), adapted to spec.md §6's explicit
// build_module(name, content)/add_imported_module(mod) two-step interface
// (the teacher instead resolves imports automatically from the
// filesystem during compilation — a Non-goal here, spec.md §1: "dynamic
// linking of modules at runtime").
package interp

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/bytecode"
	"github.com/emberlang/ember/internal/compiler"
	"github.com/emberlang/ember/internal/errs"
	"github.com/emberlang/ember/internal/machine"
	"github.com/emberlang/ember/internal/modcache"
	"github.com/emberlang/ember/internal/module"
	"github.com/emberlang/ember/internal/parser"
	"github.com/emberlang/ember/internal/resolver"
	"github.com/emberlang/ember/internal/types"
	"github.com/emberlang/ember/internal/value"
)

// Options configures one Interpreter. The zero value runs the full pipeline
// with the optional Optimizer disabled, matching spec.md §4.7 ("Optional
// Optimizer (constant folder)").
type Options struct {
	// Optimize gates the constant-folding pass (spec.md §4.7, §9 Design
	// Notes: "keep it optional, gated by a compile flag").
	Optimize bool

	// Cache, when non-nil, is consulted before compiling and populated
	// after a successful compile (SPEC_FULL.md §4.15). A host wires one
	// up with modcache.Open on a database file (cmd/ember uses
	// ember-cache.db inside HostConfig.CacheDir); leaving it nil disables
	// caching entirely.
	Cache *modcache.Cache

	// StrictTypes mirrors HostConfig.StrictTypes (SPEC_FULL.md §4.14): an
	// Unknown top-level return type raises MissingExplicitType instead of
	// silently defaulting to Void.
	StrictTypes bool
}

// Interpreter is the façade named in spec.md §2 item 10: "glues parser,
// compiler, and machine together; exposes eval(source) -> Value". One
// Interpreter owns exactly one Machine and one distinguished Builtin
// module; it is not safe for concurrent use (spec.md §5).
type Interpreter struct {
	Builtin *module.Module
	Machine *machine.Machine
	opts    Options
}

// New constructs an Interpreter with its Builtin module and Machine wired
// together (spec.md §6: "Call1 ... resolve through imported module index
// 0" requires the Machine and every compiled Module to agree on the same
// Builtin instance).
func New(opts Options) *Interpreter {
	b := module.NewBuiltin()
	return &Interpreter{Builtin: b, Machine: machine.New(b), opts: opts}
}

// SetInvoker installs the host callback driven by the Invoke statement
// (spec.md §4.2, §6).
func (it *Interpreter) SetInvoker(inv machine.Invoker) { it.Machine.SetInvoker(inv) }

// BuildModule compiles content into a fresh, independent Module named name
// and returns it without evaluating anything (spec.md §6: "compiles a
// module and returns an owned pointer"). The caller is responsible for
// attaching any additional imports with AddImportedModule before compiling
// a module that needs them — Ember resolves imports once, at compile time,
// never dynamically (spec.md §1 Non-goals).
func (it *Interpreter) BuildModule(name, content string) (*module.Module, error) {
	var hash string
	if it.opts.Cache != nil {
		hash = modcache.Hash(content)
		if cached, found, err := it.opts.Cache.Lookup(hash, it.Builtin); err == nil && found {
			cached.Name = name
			return cached, nil
		}
	}

	block, errs := parser.ParseModule(name, content)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	block.Finish()

	mod := module.New(name)
	// Imports[0] is conventionally the builtin module (internal/compiler's
	// package doc, spec.md §4.12's Call1 convention); SymbolResolver's
	// fourth lookup tier then finds every non-"__"-prefixed builtin name
	// (add, eq, true, ...) the same way it would find any other import.
	mod.AddImport(it.Builtin)

	mod, err := it.compile(mod, block)
	if err != nil {
		return nil, err
	}
	if it.opts.Cache != nil {
		// Store is a best-effort cache fill: an unsupported (closure-using)
		// Module or a write failure just means the next BuildModule of the
		// same source recompiles instead of hitting the cache.
		_ = it.opts.Cache.Store(hash, mod)
	}
	return mod, nil
}

// AddImportedModule attaches dep as an import of mod and returns its
// position in mod's import list, by which Call <m> <i> opcodes address it
// (spec.md §6).
func (it *Interpreter) AddImportedModule(mod, dep *module.Module) int {
	return mod.AddImport(dep)
}

// Eval compiles source as a fresh anonymous module and runs its top-level
// block to completion, returning the resulting Value (spec.md §2 item 10).
func (it *Interpreter) Eval(source string) (value.Value, error) {
	mod, err := it.BuildModule("<eval>", source)
	if err != nil {
		return value.Void(), err
	}
	return it.Machine.Call(mod.Entry, nil)
}

// compile runs the fixed semantic pipeline (spec.md §2 item 7: SymbolResolver
// -> NonlocalResolver -> TypeResolver -> optional Optimizer) and then the
// compiler over block, wiring the result as mod.Entry.
func (it *Interpreter) compile(mod *module.Module, block *ast.Block) (*module.Module, error) {
	sr := resolver.NewSymbolResolver(mod, it.Builtin)
	if errs := sr.Resolve(block); len(errs) > 0 {
		return nil, errs[0]
	}

	nr := resolver.NewNonlocalResolver(mod)
	nr.Run()

	// The module's top-level block is, for addressing purposes, a nullary
	// function whose Symbols table is mod.Root itself (not a child scope):
	// SymbolResolver already resolved every top-level Definition directly
	// against Root, so Entry must share that same table rather than a
	// fresh one (internal/compiler's package doc).
	entry := &module.Function{
		Name:      "<module>",
		Symbols:   mod.Root,
		Signature: types.NewSignature(nil, types.TypeInfo{Tag: types.Unknown}),
		Code:      bytecode.NewCode(),
	}
	mod.AddFunction(entry)
	mod.Entry = entry

	tr := resolver.NewTypeResolver(mod, it.Builtin)
	if errs := tr.Resolve(block, entry); len(errs) > 0 {
		return nil, errs[0]
	}
	if err := it.resolveTopLevelReturn(entry, block); err != nil {
		return nil, err
	}

	if it.opts.Optimize {
		resolver.NewOptimizer().Run(block)
		// Re-run type resolution: folding may have replaced typed
		// subexpressions with Literal nodes that still need a stamped
		// ResolvedType under the post-order contract compileExpr relies on.
		entry.Signature.Return = types.TypeInfo{Tag: types.Unknown}
		tr2 := resolver.NewTypeResolver(mod, it.Builtin)
		if errs := tr2.Resolve(block, entry); len(errs) > 0 {
			return nil, errs[0]
		}
		if err := it.resolveTopLevelReturn(entry, block); err != nil {
			return nil, err
		}
	}

	comp := compiler.New(mod, it.Builtin)
	comp.CompileModule(block, entry)

	return mod, nil
}

// resolveTopLevelReturn fills an Unknown top-level return type. Left
// lenient it defaults to Void (spec.md §8: "a program with no Return and
// no trailing Invocation returns void" — Block.Finish already guarantees a
// Return exists, so this only fires when that Return's own expression
// stayed Unknown, e.g. a call to the generic subscript builtin, whose
// result type is left unbound); under HostConfig.StrictTypes
// (Options.StrictTypes) the same situation raises MissingExplicitType
// instead (SPEC_FULL.md §4.14).
func (it *Interpreter) resolveTopLevelReturn(entry *module.Function, block *ast.Block) error {
	if entry.Signature.Return.Tag != types.Unknown {
		return nil
	}
	if it.opts.StrictTypes {
		pos := block.Statements[len(block.Statements)-1].(*ast.Return).Pos()
		return errs.MissingExplicitType(pos, "the top-level block's return type")
	}
	entry.Signature.Return = types.TypeInfo{Tag: types.Void}
	return nil
}
