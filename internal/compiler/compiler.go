// Package compiler implements the bytecode emitter of spec.md §4.9: a
// post-order walk over a resolved ast.Block that appends opcodes into the
// current module.Function's Code. It is only ever run over a block that has
// already passed SymbolResolver, NonlocalResolver and TypeResolver without
// error; it does not itself validate anything.
//
// Grounded on the teacher's own compiler pass structure
// (_examples/funvibe-funxy/internal/vm/compiler.go, chunk.go): a Compiler
// struct walking the AST post-order, emitting into a Chunk-like append-only
// byte buffer, recording a forward jump's offset and patching it once both
// branch lengths are known.
//
// Adapted for Ember's Value-slot stack (the adaptation already recorded in
// internal/value/value.go's package doc): every stack position spec.md
// describes in bytes is, here, a position in value slots relative to the
// active frame's base, since the machine's stack is a []value.Value rather
// than a flat byte buffer and every logical value — scalar, string, list,
// tuple or closure — occupies exactly one slot. A slot below the frame's
// base (an argument or captured non-local) is encoded as a negative,
// two's-complement signed byte; a slot at or above base (a local) is a
// plain non-negative byte.
package compiler

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/bytecode"
	"github.com/emberlang/ember/internal/module"
	"github.com/emberlang/ember/internal/symbols"
	"github.com/emberlang/ember/internal/types"
	"github.com/emberlang/ember/internal/value"
)

// Compiler emits bytecode for one module, given the distinguished builtin
// module (to recognise Call1 targets) and the module's own import list (to
// pick Call <m> <i> targets and to copy foreign constants across).
type Compiler struct {
	mod     *module.Module
	builtin *module.Module
}

// New returns a Compiler targeting mod, whose Imports[0] is conventionally
// the builtin module itself (spec.md §4.12: "Call1 ... resolve through
// imported module index 0"), passed separately here only so
// builtin-candidate detection doesn't depend on that convention holding.
func New(mod, builtin *module.Module) *Compiler {
	return &Compiler{mod: mod, builtin: builtin}
}

// CompileModule compiles the module's top-level block into entry (whose
// Symbols must be mod.Root — the wiring interp.go is responsible for) and,
// transitively, every function literal reached from it.
func (c *Compiler) CompileModule(block *ast.Block, entry *module.Function) {
	c.compileBlock(block, entry)
}

func (c *Compiler) compileBlock(b *ast.Block, fn *module.Function) {
	for _, s := range b.Statements {
		c.compileStmt(s, fn)
	}
}

func (c *Compiler) compileStmt(s ast.Statement, fn *module.Function) {
	switch n := s.(type) {
	case *ast.Definition:
		// The pushed value becomes the local itself: statements execute in
		// declaration order and AddLocal assigned indices in that same
		// order, so the expression's result lands exactly on the slot a
		// later CopyVariable(sym.Index) will address. A Definition that
		// names a function literal gets no local (TypeResolver allocates
		// none for a callable symbol), so only the body is compiled.
		if lit, ok := n.Expr.(*ast.Function); ok {
			if sym, _ := n.Variable.Symbol.(*symbols.Symbol); sym != nil && sym.IsCallable {
				if target := lit.Compiled.(*module.Function); target.Code.Size() == 0 {
					c.compileBlock(lit.Body, target)
				}
				return
			}
		}
		c.compileExpr(n.Expr, fn)
	case *ast.Invocation:
		c.compileExpr(n.Expr, fn)
		fn.Code.Emit(bytecode.INVOKE)
	case *ast.Return:
		c.compileReturn(n, fn)
	}
}

func (c *Compiler) compileReturn(n *ast.Return, fn *module.Function) {
	t := c.compileExpr(n.Expr, fn)
	if t.Tag == types.Function && t.Signature != nil && len(t.Signature.Params) == 0 && len(t.Signature.Nonlocals) == 0 {
		fn.Code.Emit(bytecode.EXECUTE)
	}

	nonlocals := fn.Symbols.Nonlocals()
	nParams := len(fn.Signature.Params)
	nNonlocals := len(nonlocals)
	nLocals := len(fn.LocalTypes)
	drop := nParams + nNonlocals + nLocals
	if drop == 0 {
		return
	}

	for k := nLocals - 1; k >= 0; k-- {
		if fn.LocalTypes[k].IsHeapOwning() {
			fn.Code.Emit1(bytecode.DECREF, frameOffset(k))
		}
	}
	for j := 0; j < nNonlocals; j++ {
		if nonlocals[j].Type.IsHeapOwning() {
			fn.Code.Emit1(bytecode.DECREF, frameOffset(-(j + 1)))
		}
	}
	for i := 0; i < nParams; i++ {
		if fn.Signature.Params[i].Type.IsHeapOwning() {
			fn.Code.Emit1(bytecode.DECREF, frameOffset(-(nNonlocals+i+1)))
		}
	}
	fn.Code.Emit2(bytecode.DROP, 1, byte(drop))
}

// compileExpr emits e and returns its resolved type (already stamped by
// TypeResolver), for callers that need to branch on it (Return's implicit
// Execute-and-unwrap).
func (c *Compiler) compileExpr(e ast.Expression, fn *module.Function) types.TypeInfo {
	switch n := e.(type) {
	case *ast.Integer:
		return c.loadStatic(fn, value.Int32(int32(n.Value)))
	case *ast.Float:
		return c.loadStatic(fn, value.Float64(n.Value))
	case *ast.CharLit:
		return c.loadStatic(fn, value.Char(n.Value))
	case *ast.StringLit:
		return c.loadStatic(fn, value.NewString(n.Value))
	case *ast.VoidLiteral:
		return c.loadStatic(fn, value.Void())
	case *ast.Literal:
		return c.loadStatic(fn, literalValue(n))
	case *ast.Tuple:
		for i := len(n.Items) - 1; i >= 0; i-- {
			c.compileExpr(n.Items[i], fn)
		}
		// MAKE_LIST's second argument distinguishes the two stack-to-Value
		// aggregations the machine can build out of the preceding N
		// values: 0 collapses them into a single List (element type taken
		// from the first item), 1 into a Tuple (each item keeps its own
		// type). Reusing one opcode for both avoids growing the two-arg
		// band for what is, at the machine level, the same "pop N, build
		// one aggregate Value" operation.
		fn.Code.Emit2(bytecode.MAKE_LIST, byte(len(n.Items)), 1)
		return n.ResolvedType.(types.TypeInfo)
	case *ast.List:
		for i := len(n.Items) - 1; i >= 0; i-- {
			c.compileExpr(n.Items[i], fn)
		}
		fn.Code.Emit2(bytecode.MAKE_LIST, byte(len(n.Items)), 0)
		return n.ResolvedType.(types.TypeInfo)
	case *ast.Reference:
		c.compileReference(n, fn)
		return n.ResolvedType.(types.TypeInfo)
	case *ast.OpCall:
		return c.compileCall(&n.Call, fn)
	case *ast.Call:
		return c.compileCall(n, fn)
	case *ast.Condition:
		return c.compileCondition(n, fn)
	case *ast.Function:
		return c.compileFunctionLiteral(n, fn)
	default:
		return types.TypeInfo{Tag: types.Unknown}
	}
}

func (c *Compiler) loadStatic(fn *module.Function, v value.Value) types.TypeInfo {
	idx := fn.Module.AddStatic(v)
	fn.Code.Emit1(bytecode.LOAD_STATIC, byte(idx))
	return v.Type
}

func literalValue(n *ast.Literal) value.Value {
	switch p := n.Payload.(type) {
	case bool:
		return value.Bool(p)
	case int64:
		return value.Int32(int32(p))
	case float64:
		return value.Float64(p)
	case rune:
		return value.Char(p)
	default:
		return value.Void()
	}
}

// compileReference emits the load sequence for a bare-name expression,
// dispatching on the resolved symbol's kind (spec.md §4.9).
func (c *Compiler) compileReference(ref *ast.Reference, fn *module.Function) {
	sym, _ := ref.Symbol.(*symbols.Symbol)
	if sym == nil {
		return
	}
	switch sym.Kind {
	case symbols.ModuleKind:
		fn.Code.Emit1(bytecode.LOAD_MODULE, byte(c.importIndexOf(sym)))
	case symbols.Nonlocal:
		off := frameOffset(-(sym.Index + 1))
		fn.Code.Emit2(bytecode.COPY, off, 1)
		c.emitIncref(fn, off, sym.Type)
	case symbols.Parameter:
		nNonlocals := len(fn.Symbols.Nonlocals())
		off := frameOffset(-(nNonlocals + sym.Index + 1))
		fn.Code.Emit2(bytecode.COPY, off, 1)
		c.emitIncref(fn, off, sym.Type)
	case symbols.Value:
		c.compileValueReference(sym, fn)
	case symbols.FunctionKind:
		c.compileFunctionReference(sym, fn)
	case symbols.Instruction:
		fn.Code.Emit(bytecode.Opcode(sym.Index))
	}
}

func (c *Compiler) compileValueReference(sym *symbols.Symbol, fn *module.Function) {
	if containsSymbol(fn.Symbols, sym) {
		off := frameOffset(sym.Index)
		fn.Code.Emit2(bytecode.COPY, off, 1)
		c.emitIncref(fn, off, sym.Type)
		return
	}
	// A Value symbol found outside this function's own table can only be a
	// foreign constant (the builtin module's true/false/void, or an
	// imported module's own top-level constant), since every same-module
	// capture is already a Nonlocal by the time the compiler sees it
	// (spec.md §4.9: "belongs to a different module ... copy the value
	// across").
	owner := c.builtin
	if !containsSymbol(c.builtin.Root, sym) {
		for _, imp := range c.mod.Imports {
			if containsSymbol(imp.Root, sym) {
				owner = imp
				break
			}
		}
	}
	copied := module.MakeCopy(owner.Statics[sym.Index])
	idx := c.mod.AddStatic(copied)
	fn.Code.Emit1(bytecode.LOAD_STATIC, byte(idx))
}

// compileFunctionReference emits a bare reference to a callable symbol used
// on its own (not as the head of a Call) — e.g. passing a function by name
// as an argument. Same-module functions with no non-locals load as a plain
// closure value; anything else falls back through the same dispatch a Call
// site would use, since referencing a function and immediately calling it
// share the same addressing rules (spec.md §4.9).
func (c *Compiler) compileFunctionReference(sym *symbols.Symbol, fn *module.Function) {
	target, _ := sym.Payload.(*module.Function)
	if target == nil {
		return
	}
	if len(target.Symbols.Nonlocals()) == 0 {
		fn.Code.Emit1(bytecode.LOAD_FUNCTION, byte(target.Index))
		return
	}
	c.emitMakeClosure(fn, target)
}

// compileCall emits a call site (spec.md §4.9 "Call"): each argument in
// reverse, then the callable. A Function symbol is called with
// Call0/Call1/Call, followed by Execute only when call.WrappedExecs is set;
// a same-module function that captures non-locals is instead entered
// through MakeClosure and Execute, which places its captured values between
// the arguments and its frame base. An Instruction symbol emits its opcode.
// Any other callable is a function-typed value: it is loaded, then Execute.
func (c *Compiler) compileCall(call *ast.Call, fn *module.Function) types.TypeInfo {
	for i := len(call.Args) - 1; i >= 0; i-- {
		c.compileExpr(call.Args[i], fn)
	}

	if ref, ok := call.Callable.(*ast.Reference); ok {
		if sym, ok := ref.Symbol.(*symbols.Symbol); ok && sym.Kind == symbols.FunctionKind {
			if target, _ := sym.Payload.(*module.Function); target != nil && target.Module == c.mod && len(target.Symbols.Nonlocals()) > 0 {
				c.emitMakeClosure(fn, target)
				fn.Code.Emit(bytecode.EXECUTE)
				return resolvedType(call)
			}
			c.emitCallTarget(sym, fn)
			if call.WrappedExecs > 0 {
				fn.Code.Emit(bytecode.EXECUTE)
			}
			return resolvedType(call)
		}
		if sym, ok := ref.Symbol.(*symbols.Symbol); ok && sym.Kind == symbols.Instruction {
			fn.Code.Emit(bytecode.Opcode(sym.Index))
			return resolvedType(call)
		}
	}

	c.compileExpr(call.Callable, fn)
	fn.Code.Emit(bytecode.EXECUTE)
	return resolvedType(call)
}

func resolvedType(call *ast.Call) types.TypeInfo {
	t, _ := call.ResolvedType.(types.TypeInfo)
	return t
}

// emitCallTarget emits the Call0/Call1/Call opcode addressing sym's target
// function, per spec.md §4.9's module-membership rule.
func (c *Compiler) emitCallTarget(sym *symbols.Symbol, fn *module.Function) {
	target, _ := sym.Payload.(*module.Function)
	if target == nil {
		return
	}
	switch {
	case target.Module == c.mod:
		fn.Code.Emit1(bytecode.CALL0, byte(target.Index))
	case target.Module == c.builtin:
		fn.Code.Emit1(bytecode.CALL1, byte(target.Index))
	default:
		fn.Code.Emit2(bytecode.CALL, byte(c.importIndexOfModule(target.Module)), byte(target.Index))
	}
}

func (c *Compiler) importIndexOf(sym *symbols.Symbol) int {
	mod, _ := sym.Payload.(*module.Module)
	if mod == nil {
		return 0
	}
	return c.importIndexOfModule(mod)
}

func (c *Compiler) importIndexOfModule(mod *module.Module) int {
	for i, imp := range c.mod.Imports {
		if imp == mod {
			return i
		}
	}
	return 0
}

// compileCondition emits cond/JumpIfNot/then/Jump/else with the two forward
// jumps patched once both branch lengths are known (spec.md §4.9).
func (c *Compiler) compileCondition(n *ast.Condition, fn *module.Function) types.TypeInfo {
	c.compileExpr(n.Cond, fn)
	jumpFalse := fn.Code.Emit1(bytecode.JUMP_IF_NOT, 0)
	c.compileExpr(n.Then, fn)
	jumpEnd := fn.Code.Emit1(bytecode.JUMP, 0)

	elseStart := fn.Code.Here()
	fn.Code.PatchArg1(jumpFalse, byte(elseStart-(jumpFalse+2)))
	c.compileExpr(n.Else, fn)

	end := fn.Code.Here()
	fn.Code.PatchArg1(jumpEnd, byte(end-(jumpEnd+2)))

	t, _ := n.ResolvedType.(types.TypeInfo)
	return t
}

// compileFunctionLiteral compiles the nested body into its own Function
// (already registered by SymbolResolver and reachable via n.Compiled), then
// emits either a bare LoadFunction or a non-locals-gathering MakeClosure in
// the enclosing function (spec.md §4.9).
func (c *Compiler) compileFunctionLiteral(n *ast.Function, fn *module.Function) types.TypeInfo {
	target := n.Compiled.(*module.Function)
	if target.Code.Size() == 0 {
		c.compileBlock(n.Body, target)
	}
	if len(target.Symbols.Nonlocals()) == 0 {
		fn.Code.Emit1(bytecode.LOAD_FUNCTION, byte(target.Index))
	} else {
		c.emitMakeClosure(fn, target)
	}
	t, _ := n.ResolvedType.(types.TypeInfo)
	return t
}

// emitMakeClosure, run in the OUTER function fn, pushes each of target's
// captured non-locals (by locating the matching symbol in fn's own scope,
// spec.md §4.9) then emits MakeClosure.
func (c *Compiler) emitMakeClosure(fn *module.Function, target *module.Function) {
	for _, nl := range target.Symbols.Nonlocals() {
		outer := nl.Ref
		c.emitOuterSymbolLoad(fn, outer)
	}
	fn.Code.Emit1(bytecode.MAKE_CLOSURE, byte(target.Index))
}

// emitOuterSymbolLoad emits, into fn, the load sequence for outer — a
// symbol living in fn's own scope (a Parameter, local Value, or one of
// fn's own already-flattened Nonlocals) — used to gather a nested
// function's captured non-locals in the enclosing frame.
func (c *Compiler) emitOuterSymbolLoad(fn *module.Function, outer *symbols.Symbol) {
	var off byte
	switch outer.Kind {
	case symbols.Parameter:
		nNonlocals := len(fn.Symbols.Nonlocals())
		off = frameOffset(-(nNonlocals + outer.Index + 1))
	case symbols.Nonlocal:
		off = frameOffset(-(outer.Index + 1))
	case symbols.Value:
		off = frameOffset(outer.Index)
	case symbols.FunctionKind:
		c.compileFunctionReference(outer, fn)
		return
	}
	fn.Code.Emit2(bytecode.COPY, off, 1)
	c.emitIncref(fn, off, outer.Type)
}

// emitIncref bumps the refcount of the heap slot a Copy at off just
// duplicated. Off addresses the same frame-relative slot the Copy read
// from (the original, still-resident value), which shares its heap.Slot
// pointer with the freshly pushed duplicate — incrementing through either
// one's stack cell reaches the same counter (spec.md §4.11).
func (c *Compiler) emitIncref(fn *module.Function, off byte, t types.TypeInfo) {
	if t.IsHeapOwning() {
		fn.Code.Emit1(bytecode.INCREF, off)
	}
}

func containsSymbol(t *symbols.Table, sym *symbols.Symbol) bool {
	if t == nil {
		return false
	}
	for _, s := range t.Symbols {
		if s == sym {
			return true
		}
	}
	return false
}

// frameOffset encodes a frame-base-relative slot offset (negative for an
// argument/non-local below base, non-negative for a local above it) as a
// two's-complement signed byte (spec.md's single-byte argument band,
// spec.md §4.8).
func frameOffset(offset int) byte { return byte(int8(offset)) }
