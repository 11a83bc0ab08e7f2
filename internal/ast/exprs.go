package ast

import "github.com/emberlang/ember/internal/token"

// Integer is a decimal integer literal (spec.md §4.1).
type Integer struct {
	SourceInfo
	Value int64
	// ResolvedType is filled by TypeResolver; any is a types.TypeInfo,
	// kept untyped here to avoid an ast<->types import cycle.
	ResolvedType any
}

func (n *Integer) exprNode()        {}
func (n *Integer) Accept(v Visitor) { v.VisitInteger(n) }

// Float is a float literal.
type Float struct {
	SourceInfo
	Value        float64
	ResolvedType any
}

func (n *Float) exprNode()        {}
func (n *Float) Accept(v Visitor) { v.VisitFloat(n) }

// CharLit is a single-quoted character literal.
type CharLit struct {
	SourceInfo
	Value        rune
	ResolvedType any
}

func (n *CharLit) exprNode()        {}
func (n *CharLit) Accept(v Visitor) { v.VisitChar(n) }

// StringLit is a double-quoted or raw ($-$...$-$) string literal.
type StringLit struct {
	SourceInfo
	Value        string
	Raw          bool
	ResolvedType any
}

func (n *StringLit) exprNode()        {}
func (n *StringLit) Accept(v Visitor) { v.VisitString(n) }

// VoidLiteral stands for the implicit `void` value Block.Finish inserts and
// for the `__builtin.void` constant.
type VoidLiteral struct {
	SourceInfo
	ResolvedType any
}

func (n *VoidLiteral) exprNode()        {}
func (n *VoidLiteral) Accept(v Visitor) { v.VisitVoid(n) }

// Tuple is a tuple literal `a, b, c`.
type Tuple struct {
	SourceInfo
	Items        []Expression
	ResolvedType any
}

func (n *Tuple) exprNode()        {}
func (n *Tuple) Accept(v Visitor) { v.VisitTuple(n) }

// List is a list literal `[a, b, c]`.
type List struct {
	SourceInfo
	Items        []Expression
	ResolvedType any
}

func (n *List) exprNode()        {}
func (n *List) Accept(v Visitor) { v.VisitList(n) }

// Reference is a bare name occurring in expression position (spec.md §4.3).
type Reference struct {
	SourceInfo
	Identifier *Identifier
	// Symbol is filled by SymbolResolver; any is a *symbols.Symbol.
	Symbol       any
	ResolvedType any
}

func (n *Reference) exprNode()        {}
func (n *Reference) Accept(v Visitor) { v.VisitReference(n) }

// Call is `callable arg1 arg2 ...` (spec.md §4.1).
type Call struct {
	SourceInfo
	Callable Expression
	Args     []Expression

	// WrappedExecs is set by TypeResolver when the callable is an
	// expression other than a bare Reference and the call supplies
	// arguments. The compiler emits Execute after every callable that is
	// not a Function or Instruction symbol; after a Function symbol it adds
	// Execute only when WrappedExecs is set (spec.md §4.5, §4.9).
	WrappedExecs int
	ResolvedType any
}

func (n *Call) exprNode()        {}
func (n *Call) Accept(v Visitor) { v.VisitCall(n) }

// OpCall extends Call: the parser records the source operator token and
// sets Callable to a Reference to the operator's builtin name; from then on
// this node is treated exactly like a Call (spec.md §4.3, §4.6).
type OpCall struct {
	Call
	Op token.Kind
}

func (n *OpCall) Accept(v Visitor) { v.VisitOpCall(n) }

// Condition is `if cond then a else b`.
type Condition struct {
	SourceInfo
	Cond, Then, Else Expression
	ResolvedType     any
}

func (n *Condition) exprNode()        {}
func (n *Condition) Accept(v Visitor) { v.VisitCondition(n) }

// Function is a function literal: `fun |p1 p2 ...| -> T { body }`, a bare
// `{ ... }` nullary function, or a brace-less `fun |p| expr` lambda
// shorthand (spec.md §4.1).
type Function struct {
	SourceInfo
	TypeAnn Type // the parsed FunctionType (params/result), may have Auto result
	Body    *Block
	Name    string // display name: "<block>", "<lambda>", or a claimed variable name

	// Index is this function's position in its owning module's function
	// table, assigned by SymbolResolver when it registers the function.
	Index int

	// Module/Function is filled in by later passes (untyped to avoid a
	// module<->ast import cycle): *module.Function once compiled.
	Compiled any

	// ResolvedType is filled by TypeResolver; any is a types.TypeInfo,
	// untyped to avoid an ast<->types import cycle.
	ResolvedType any
}

func (n *Function) exprNode()        {}
func (n *Function) Accept(v Visitor) { v.VisitFunction(n) }

// Literal is a fully evaluated compile-time constant, produced only by the
// Optimizer (spec.md §4.7) when folding a constant subexpression. Payload
// is untyped (a value.Value) to avoid an ast<->value import cycle.
type Literal struct {
	SourceInfo
	Payload      any
	ResolvedType any
}

func (n *Literal) exprNode()        {}
func (n *Literal) Accept(v Visitor) { v.VisitLiteral(n) }
