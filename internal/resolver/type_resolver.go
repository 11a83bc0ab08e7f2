package resolver

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/errs"
	"github.com/emberlang/ember/internal/module"
	"github.com/emberlang/ember/internal/symbols"
	"github.com/emberlang/ember/internal/types"
)

// TypeResolver is the third pass (spec.md §4.5): a post-order walk that
// infers and checks the type of every expression, and resolves Call
// overloads against the builtin module's size-polymorphic candidate chains.
type TypeResolver struct {
	mod     *module.Module
	builtin *module.Module
	errs    []error
}

func NewTypeResolver(mod, builtin *module.Module) *TypeResolver {
	return &TypeResolver{mod: mod, builtin: builtin}
}

// Resolve type-checks block as the module's top-level (nullary, implicit)
// entry point and every function reached from it.
func (r *TypeResolver) Resolve(block *ast.Block, fn *module.Function) []error {
	r.resolveBlock(block, fn)
	return r.errs
}

func (r *TypeResolver) fail(err error) { r.errs = append(r.errs, err) }

func (r *TypeResolver) resolveBlock(b *ast.Block, fn *module.Function) {
	for _, s := range b.Statements {
		r.resolveStmt(s, fn)
	}
}

func (r *TypeResolver) resolveStmt(s ast.Statement, fn *module.Function) {
	switch n := s.(type) {
	case *ast.Definition:
		t := r.resolveExpr(n.Expr, fn)
		if n.TypeAnn != nil {
			declared := typeFromAnnotation2(n.TypeAnn, r.mod)
			if !declared.Equal(t) {
				r.fail(errs.DefinitionTypeMismatch(n.Pos(), n.Variable.Name, declared, t))
			}
			t = declared
		}
		sym := n.Variable.Symbol.(*symbols.Symbol)
		sym.Type = t
		if !sym.IsCallable {
			sym.Index = fn.AddLocal(t)
		}
	case *ast.Invocation:
		r.resolveExpr(n.Expr, fn)
	case *ast.Return:
		t := r.resolveExpr(n.Expr, fn)
		if t.Tag == types.Function && t.Signature != nil && len(t.Signature.Params) == 0 && len(t.Signature.Nonlocals) == 0 {
			// Nullary-function-valued return: the compiler auto-executes it
			// (spec.md §4.9 "Return"); the inferred return type unwraps one
			// level of function type to the callee's own return type.
			t = t.Signature.Return
		}
		if !fn.Signature.ResolveReturnType(t) {
			r.fail(errs.UnexpectedReturnType(n.Pos(), fn.Signature.Return, t))
		}
	}
}

// resolveExpr infers e's type, stamps its ResolvedType field, and returns
// the type for the caller's own inference.
func (r *TypeResolver) resolveExpr(e ast.Expression, fn *module.Function) types.TypeInfo {
	switch n := e.(type) {
	case *ast.Integer:
		t := types.NewPrimitive(types.Int32)
		n.ResolvedType = t
		return t
	case *ast.Float:
		t := types.NewPrimitive(types.Float64)
		n.ResolvedType = t
		return t
	case *ast.CharLit:
		t := types.NewPrimitive(types.Char)
		n.ResolvedType = t
		return t
	case *ast.StringLit:
		t := types.NewPrimitive(types.String)
		n.ResolvedType = t
		return t
	case *ast.VoidLiteral:
		t := types.NewPrimitive(types.Void)
		n.ResolvedType = t
		return t
	case *ast.Tuple:
		items := make([]types.TypeInfo, len(n.Items))
		for i, it := range n.Items {
			items[i] = r.resolveExpr(it, fn)
		}
		t := types.NewTuple(items...)
		n.ResolvedType = t
		return t
	case *ast.List:
		elem := types.TypeInfo{Tag: types.Unknown}
		for i, it := range n.Items {
			it_t := r.resolveExpr(it, fn)
			if i == 0 {
				elem = it_t
			} else if !elem.Equal(it_t) {
				r.fail(errs.ListElemTypeMismatch(it.Pos(), elem, it_t))
			}
		}
		t := types.NewList(elem)
		n.ResolvedType = t
		return t
	case *ast.Reference:
		t := r.resolveReferenceType(n, fn)
		n.ResolvedType = t
		return t
	case *ast.OpCall:
		t := r.resolveCall(&n.Call, fn)
		n.ResolvedType = t
		return t
	case *ast.Call:
		t := r.resolveCall(n, fn)
		n.ResolvedType = t
		return t
	case *ast.Condition:
		condT := r.resolveExpr(n.Cond, fn)
		if condT.Tag != types.Bool {
			r.fail(errs.ConditionNotBool(n.Cond.Pos(), condT))
		}
		thenT := r.resolveExpr(n.Then, fn)
		elseT := r.resolveExpr(n.Else, fn)
		if !thenT.Equal(elseT) {
			r.fail(errs.BranchTypeMismatch(n.Pos(), thenT, elseT))
		}
		n.ResolvedType = thenT
		return thenT
	case *ast.Function:
		nestedFn := n.Compiled.(*module.Function)
		r.resolveBlock(n.Body, nestedFn)
		t := types.NewFunction(nestedFn.Signature)
		n.ResolvedType = t
		return t
	case *ast.Literal:
		return n.ResolvedType.(types.TypeInfo)
	default:
		return types.TypeInfo{Tag: types.Unknown}
	}
}

// resolveReferenceType looks up the type already carried by the resolved
// symbol (spec.md §4.5's per-symbol-kind table); Module references carry no
// value type.
func (r *TypeResolver) resolveReferenceType(ref *ast.Reference, fn *module.Function) types.TypeInfo {
	sym, _ := ref.Symbol.(*symbols.Symbol)
	if sym == nil {
		return types.TypeInfo{Tag: types.Unknown}
	}
	switch sym.Kind {
	case symbols.ModuleKind:
		return types.TypeInfo{Tag: types.Module}
	case symbols.Instruction:
		return types.TypeInfo{Tag: types.Unknown}
	default:
		return sym.Type
	}
}

// resolveCall implements spec.md §4.5's overload-resolution protocol.
func (r *TypeResolver) resolveCall(call *ast.Call, fn *module.Function) types.TypeInfo {
	argTypes := make([]types.TypeInfo, len(call.Args))
	for i, a := range call.Args {
		argTypes[i] = r.resolveExpr(a, fn)
	}

	ref, isRef := call.Callable.(*ast.Reference)
	if !isRef {
		// Calling a plain value of function type: resolve the callable's
		// own type and match directly against its signature.
		callableT := r.resolveExpr(call.Callable, fn)
		if callableT.Tag != types.Function || callableT.Signature == nil {
			r.fail(errs.UnsupportedOperands(call.Pos(), "call"))
			return types.TypeInfo{Tag: types.Unknown}
		}
		return r.applySignature(call, callableT.Signature, argTypes)
	}

	sym, _ := ref.Symbol.(*symbols.Symbol)
	if sym == nil {
		return types.TypeInfo{Tag: types.Unknown}
	}
	if sym.Kind == symbols.Instruction {
		// A "__"-prefixed intrinsic alias bypasses type checking entirely
		// (spec.md §4.3, §6); the compiler emits its opcode directly.
		return types.TypeInfo{Tag: types.Unknown}
	}
	if sym.Kind != symbols.FunctionKind {
		// A Value/Nonlocal/Parameter symbol of function type, called
		// indirectly.
		if sym.Type.Tag == types.Function && sym.Type.Signature != nil {
			return r.applySignature(call, sym.Type.Signature, argTypes)
		}
		r.fail(errs.UnsupportedOperands(call.Pos(), ref.Identifier.Name))
		return types.TypeInfo{Tag: types.Unknown}
	}

	var candidates []string
	for cand := sym; cand != nil; cand = cand.Next() {
		candFn, _ := cand.Payload.(*module.Function)
		var sig *types.Signature
		if candFn != nil {
			sig = candFn.Signature
		} else if cand.Type.Tag == types.Function {
			sig = cand.Type.Signature
		}
		if sig == nil {
			continue
		}
		candidates = append(candidates, sig.String())

		if sig.IsGeneric() {
			sub, _, ok := sig.Match(argTypes)
			if !ok {
				continue
			}
			// The specialised type replaces the generic one for downstream
			// IncRef/heap-ownership decisions; the candidate's bytecode
			// itself is type-erased (e.g. subscript works on any element
			// type through the machine's tagged Value), so no fresh
			// Function needs to be emitted into the module (spec.md §4.5's
			// "re-emit the candidate" step degenerates to a no-op here).
			ref.Symbol = cand
			ref.Identifier.Symbol = cand
			specialised := sig.Apply(sub)
			specialised.Params = specialised.Params[len(argTypes):]
			return r.finishCall(call, specialised, argTypes)
		}
		if _, remaining, ok := sig.Match(argTypes); ok {
			ref.Symbol = cand
			ref.Identifier.Symbol = cand
			partial := *sig
			partial.Params = remaining
			return r.finishCall(call, &partial, argTypes)
		}
	}

	r.fail(&errs.FunctionNotFound{Pos: call.Pos(), Name: ref.Identifier.Name, Candidates: candidates})
	return types.TypeInfo{Tag: types.Unknown}
}

func (r *TypeResolver) applySignature(call *ast.Call, sig *types.Signature, argTypes []types.TypeInfo) types.TypeInfo {
	_, remaining, ok := sig.Match(argTypes)
	if !ok {
		r.fail(errs.UnexpectedArgumentCount(call.Pos(), len(sig.Params), len(argTypes)))
		return types.TypeInfo{Tag: types.Unknown}
	}
	partial := *sig
	partial.Params = remaining
	return r.finishCall(call, &partial, argTypes)
}

// finishCall consumes the matched parameters: if parameters remain, the
// call's result is a (partially-applied) function of the remaining
// signature; otherwise it is the return type, and WrappedExecs is set when
// the callable is an expression other than a bare Reference (a
// parenthesised function literal, say) and the call supplies arguments
// (spec.md §4.5, §4.9).
func (r *TypeResolver) finishCall(call *ast.Call, remaining *types.Signature, argTypes []types.TypeInfo) types.TypeInfo {
	if len(remaining.Params) > 0 {
		return types.NewFunction(remaining)
	}
	if _, isRef := call.Callable.(*ast.Reference); !isRef && len(argTypes) > 0 {
		call.WrappedExecs = 1
	}
	return remaining.Return
}

// typeFromAnnotation2 resolves a type annotation once the module's own
// TypeNames table (populated by user `class`/type declarations) is
// available, falling back to the same primitive-name table
// skeletonSignature used during SymbolResolver's first pass.
func typeFromAnnotation2(t ast.Type, mod *module.Module) types.TypeInfo {
	if tn, ok := t.(*ast.TypeName); ok {
		if custom, ok := mod.TypeNames[tn.Name]; ok {
			return custom
		}
	}
	return typeFromAnnotation(t)
}
