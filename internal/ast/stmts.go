package ast

import "github.com/emberlang/ember/internal/token"

// Definition is `var [: T] = expr` (spec.md §4.1, §4.2).
type Definition struct {
	SourceInfo
	Variable *Identifier
	TypeAnn  Type // nil if omitted
	Expr     Expression
}

func (d *Definition) stmtNode()          {}
func (d *Definition) Accept(v Visitor)   { v.VisitDefinition(d) }

// Invocation is a bare expression-statement (spec.md §4.2). Block.Finish
// rewrites a trailing Invocation into a Return, but an Invocation that is
// not in tail position stays as-is.
type Invocation struct {
	SourceInfo
	Expr Expression

	// TypeIndex is kept for parity with the original implementation
	// (spec.md §9 Open Questions); no Ember pass sets it and neither the
	// compiler nor the machine reads it.
	TypeIndex int
}

func (i *Invocation) stmtNode()        {}
func (i *Invocation) Accept(v Visitor) { v.VisitInvocation(i) }

// Return is the single return sink every Block.Finish produces.
type Return struct {
	SourceInfo
	Expr Expression
}

func (r *Return) stmtNode()        {}
func (r *Return) Accept(v Visitor) { v.VisitReturn(r) }

// Identifier is a plain name occurring in binding position (a Definition's
// variable, a Parameter's name).
type Identifier struct {
	SourceInfo
	Name string

	// Symbol is attached by SymbolResolver; nil until then.
	Symbol any
}

func (id *Identifier) Accept(v Visitor) { v.VisitIdentifier(id) }

// NewIdentifier is a convenience constructor used by the parser.
func NewIdentifier(pos token.Pos, name string) *Identifier {
	return &Identifier{SourceInfo: NewSourceInfo(pos), Name: name}
}
