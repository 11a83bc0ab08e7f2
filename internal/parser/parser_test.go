package parser

import (
	"testing"

	"github.com/emberlang/ember/internal/ast"
)

func mustParse(t *testing.T, src string) *ast.Block {
	t.Helper()
	block, errs := ParseModule("test.ember", src)
	if len(errs) > 0 {
		t.Fatalf("parse errors for %q: %v", src, errs)
	}
	return block
}

func soleExpr(t *testing.T, block *ast.Block) ast.Expression {
	t.Helper()
	if len(block.Statements) != 1 {
		t.Fatalf("got %d statements, want 1", len(block.Statements))
	}
	ret, ok := block.Statements[0].(*ast.Return)
	if !ok {
		t.Fatalf("got %T, want *ast.Return (Block.Finish should rewrite the trailing statement)", block.Statements[0])
	}
	return ret.Expr
}

// TestOperatorPrecedence matches spec.md §8: "1+2*3" == add(1, mul(2, 3)).
func TestOperatorPrecedence(t *testing.T) {
	expr := soleExpr(t, mustParse(t, "1+2*3"))
	add, ok := expr.(*ast.OpCall)
	if !ok {
		t.Fatalf("got %T, want *ast.OpCall", expr)
	}
	if name := calleeName(add.Call); name != "add" {
		t.Fatalf("outer op: got %q, want %q", name, "add")
	}
	if len(add.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(add.Args))
	}
	lhs, ok := add.Args[0].(*ast.Integer)
	if !ok || lhs.Value != 1 {
		t.Errorf("lhs: got %#v, want Integer(1)", add.Args[0])
	}
	mul, ok := add.Args[1].(*ast.OpCall)
	if !ok || calleeName(mul.Call) != "mul" {
		t.Fatalf("rhs: got %#v, want OpCall(mul)", add.Args[1])
	}
	a, aok := mul.Args[0].(*ast.Integer)
	b, bok := mul.Args[1].(*ast.Integer)
	if !aok || !bok || a.Value != 2 || b.Value != 3 {
		t.Errorf("mul args: got %#v, %#v, want 2, 3", mul.Args[0], mul.Args[1])
	}
}

func calleeName(c ast.Call) string {
	ref, ok := c.Callable.(*ast.Reference)
	if !ok {
		return ""
	}
	return ref.Identifier.Name
}

func TestPowIsRightAssociative(t *testing.T) {
	expr := soleExpr(t, mustParse(t, "2**3**2"))
	outer, ok := expr.(*ast.OpCall)
	if !ok || calleeName(outer.Call) != "exp" {
		t.Fatalf("got %#v, want OpCall(exp)", expr)
	}
	lhs, ok := outer.Args[0].(*ast.Integer)
	if !ok || lhs.Value != 2 {
		t.Fatalf("lhs: got %#v, want Integer(2)", outer.Args[0])
	}
	inner, ok := outer.Args[1].(*ast.OpCall)
	if !ok || calleeName(inner.Call) != "exp" {
		t.Fatalf("rhs: got %#v, want nested OpCall(exp) for right-associativity", outer.Args[1])
	}
}

// TestSubscriptIsInfixBang matches spec.md §4.6's "! (subscript, binary)":
// `lst ! 0` must parse the same shape a call to `subscript` would.
func TestSubscriptIsInfixBang(t *testing.T) {
	expr := soleExpr(t, mustParse(t, "lst ! 0"))
	sub, ok := expr.(*ast.OpCall)
	if !ok {
		t.Fatalf("got %T, want *ast.OpCall", expr)
	}
	if name := calleeName(sub.Call); name != "subscript" {
		t.Fatalf("got %q, want %q", name, "subscript")
	}
	if len(sub.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(sub.Args))
	}
	if _, ok := sub.Args[0].(*ast.Reference); !ok {
		t.Errorf("arg0: got %T, want *ast.Reference", sub.Args[0])
	}
	idx, ok := sub.Args[1].(*ast.Integer)
	if !ok || idx.Value != 0 {
		t.Errorf("arg1: got %#v, want Integer(0)", sub.Args[1])
	}
}

// TestSubscriptBindsTighterThanUnaryNot: `!x ! 0` is `not(subscript(x, 0))`,
// matching the operator table's subscript row sitting below the unary row.
func TestSubscriptBindsTighterThanUnaryNot(t *testing.T) {
	expr := soleExpr(t, mustParse(t, "!x ! 0"))
	not, ok := expr.(*ast.OpCall)
	if !ok || calleeName(not.Call) != "not" {
		t.Fatalf("got %#v, want OpCall(not)", expr)
	}
	if len(not.Args) != 1 {
		t.Fatalf("got %d args, want 1", len(not.Args))
	}
	sub, ok := not.Args[0].(*ast.OpCall)
	if !ok || calleeName(sub.Call) != "subscript" {
		t.Fatalf("operand: got %#v, want OpCall(subscript)", not.Args[0])
	}
}

func TestConditionalParses(t *testing.T) {
	expr := soleExpr(t, mustParse(t, "if 1==1 then 10 else 20"))
	cond, ok := expr.(*ast.Condition)
	if !ok {
		t.Fatalf("got %T, want *ast.Condition", expr)
	}
	if _, ok := cond.Cond.(*ast.OpCall); !ok {
		t.Errorf("cond: got %T, want *ast.OpCall", cond.Cond)
	}
	then, ok := cond.Then.(*ast.Integer)
	if !ok || then.Value != 10 {
		t.Errorf("then: got %#v, want Integer(10)", cond.Then)
	}
}

func TestCallApplication(t *testing.T) {
	expr := soleExpr(t, mustParse(t, "f 1 2"))
	call, ok := expr.(*ast.Call)
	if !ok {
		t.Fatalf("got %T, want *ast.Call", expr)
	}
	if calleeName(*call) != "f" {
		t.Errorf("callable: got %q, want %q", calleeName(*call), "f")
	}
	if len(call.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(call.Args))
	}
}

// TestApplicationBindsTighterThanTrailingInfix: `f x + y` is `add(f(x), y)`,
// not two statements with `+y` silently discarded.
func TestApplicationBindsTighterThanTrailingInfix(t *testing.T) {
	block := mustParse(t, "f x + y")
	if len(block.Statements) != 1 {
		t.Fatalf("got %d statements, want 1 (application must not split the statement)", len(block.Statements))
	}
	expr := soleExpr(t, block)
	add, ok := expr.(*ast.OpCall)
	if !ok || calleeName(add.Call) != "add" {
		t.Fatalf("got %#v, want OpCall(add)", expr)
	}
	if len(add.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(add.Args))
	}
	call, ok := add.Args[0].(*ast.Call)
	if !ok || calleeName(*call) != "f" {
		t.Fatalf("lhs: got %#v, want Call(f)", add.Args[0])
	}
	if len(call.Args) != 1 {
		t.Fatalf("got %d call args, want 1", len(call.Args))
	}
	if _, ok := add.Args[1].(*ast.Reference); !ok {
		t.Errorf("rhs: got %T, want *ast.Reference", add.Args[1])
	}
}

// TestApplicationBindsTighterThanLeadingInfix: `1 + f x` is `add(1, f(x))`,
// not `(1 + f) x`.
func TestApplicationBindsTighterThanLeadingInfix(t *testing.T) {
	expr := soleExpr(t, mustParse(t, "1 + f x"))
	add, ok := expr.(*ast.OpCall)
	if !ok || calleeName(add.Call) != "add" {
		t.Fatalf("got %#v, want OpCall(add)", expr)
	}
	if len(add.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(add.Args))
	}
	lhs, ok := add.Args[0].(*ast.Integer)
	if !ok || lhs.Value != 1 {
		t.Errorf("lhs: got %#v, want Integer(1)", add.Args[0])
	}
	call, ok := add.Args[1].(*ast.Call)
	if !ok || calleeName(*call) != "f" {
		t.Fatalf("rhs: got %#v, want Call(f)", add.Args[1])
	}
	if len(call.Args) != 1 {
		t.Fatalf("got %d call args, want 1", len(call.Args))
	}
}

func TestDefinitionStatement(t *testing.T) {
	block := mustParse(t, "x = 1 + 2")
	// The Definition plus the `Return void` Block.Finish appends after it.
	if len(block.Statements) != 2 {
		t.Fatalf("got %d statements, want 2", len(block.Statements))
	}
	def, ok := block.Statements[0].(*ast.Definition)
	if !ok {
		t.Fatalf("got %T, want *ast.Definition", block.Statements[0])
	}
	if def.Variable.Name != "x" {
		t.Errorf("variable: got %q, want %q", def.Variable.Name, "x")
	}
}

func TestFunctionLiteralWithParamsAndBody(t *testing.T) {
	expr := soleExpr(t, mustParse(t, "fun |a: Int32 b: Int32| -> Int32 { a + b }"))
	fn, ok := expr.(*ast.Function)
	if !ok {
		t.Fatalf("got %T, want *ast.Function", expr)
	}
	ft, ok := fn.TypeAnn.(*ast.FunctionType)
	if !ok {
		t.Fatalf("got %T, want *ast.FunctionType", fn.TypeAnn)
	}
	if len(ft.ParamNames) != 2 || ft.ParamNames[0] != "a" || ft.ParamNames[1] != "b" {
		t.Errorf("params: got %v, want [a b]", ft.ParamNames)
	}
	if ft.Result == nil {
		t.Errorf("expected explicit Int32 result type, got Auto")
	}
}

func TestBareBraceIsNullaryFunction(t *testing.T) {
	expr := soleExpr(t, mustParse(t, "{ 1 + 2 }"))
	fn, ok := expr.(*ast.Function)
	if !ok {
		t.Fatalf("got %T, want *ast.Function", expr)
	}
	if fn.Name != "<block>" {
		t.Errorf("got name %q, want <block>", fn.Name)
	}
}

func TestListLiteral(t *testing.T) {
	expr := soleExpr(t, mustParse(t, "[1, 2, 3]"))
	lst, ok := expr.(*ast.List)
	if !ok {
		t.Fatalf("got %T, want *ast.List", expr)
	}
	if len(lst.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(lst.Items))
	}
}

func TestTupleLiteral(t *testing.T) {
	expr := soleExpr(t, mustParse(t, "1, 2, 3"))
	tup, ok := expr.(*ast.Tuple)
	if !ok {
		t.Fatalf("got %T, want *ast.Tuple", expr)
	}
	if len(tup.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(tup.Items))
	}
}

func TestBlockFinishInsertsVoidReturn(t *testing.T) {
	block := mustParse(t, "x = 1")
	last := block.Statements[len(block.Statements)-1]
	ret, ok := last.(*ast.Return)
	if !ok {
		t.Fatalf("got %T, want *ast.Return", last)
	}
	if _, ok := ret.Expr.(*ast.VoidLiteral); !ok {
		t.Errorf("got %T, want *ast.VoidLiteral", ret.Expr)
	}
}

func TestParseErrorOnTrailingOperator(t *testing.T) {
	_, errs := ParseModule("test.ember", "1 +")
	if len(errs) == 0 {
		t.Fatalf("expected parse error for trailing operator, got none")
	}
}
