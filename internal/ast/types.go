package ast

// TypeName is a reference to a named type in annotation position, e.g.
// `Int32` or the pseudo-name `Auto` for an omitted/inferred return type
// (spec.md §4.2).
type TypeName struct {
	SourceInfo
	Name string
}

func (n *TypeName) typeNode()       {}
func (n *TypeName) Accept(v Visitor) { v.VisitTypeName(n) }

// FunctionType is `|p1:T1 p2:T2| -> R` in annotation position, used both
// for a Function literal's own signature and for a parameter/variable
// declared to hold a function value.
type FunctionType struct {
	SourceInfo
	ParamNames  []string // may contain "" for unnamed lambda parameters
	ParamTypes  []Type   // parallel to ParamNames; nil entries are inferred
	Result      Type     // nil means Auto (inferred from body)
}

func (n *FunctionType) typeNode()       {}
func (n *FunctionType) Accept(v Visitor) { v.VisitFunctionType(n) }

// ListType is `[T]` in annotation position.
type ListType struct {
	SourceInfo
	Elem Type
}

func (n *ListType) typeNode()       {}
func (n *ListType) Accept(v Visitor) { v.VisitListType(n) }
