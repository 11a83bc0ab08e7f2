package interp

import (
	"testing"

	"github.com/emberlang/ember/internal/errs"
	"github.com/emberlang/ember/internal/types"
)

func TestEvalArithmetic(t *testing.T) {
	it := New(Options{})
	got, err := it.Eval("1 + 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type.Tag != types.Int32 || got.AsInt32() != 3 {
		t.Fatalf("got %#v, want Int32(3)", got)
	}
}

func TestEvalConditional(t *testing.T) {
	it := New(Options{})
	got, err := it.Eval("if 1 == 1 then 10 else 20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type.Tag != types.Int32 || got.AsInt32() != 10 {
		t.Fatalf("got %#v, want Int32(10)", got)
	}
}

func TestEvalBlockWithDefinitions(t *testing.T) {
	it := New(Options{})
	got, err := it.Eval("x = 5; y = 7; x * y + 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type.Tag != types.Int32 || got.AsInt32() != 36 {
		t.Fatalf("got %#v, want Int32(36)", got)
	}
}

func TestEvalClosureCapturesNonlocal(t *testing.T) {
	it := New(Options{})
	got, err := it.Eval("n = 10; adder = fun |x: Int32| -> Int32 { x + n }; adder 5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type.Tag != types.Int32 || got.AsInt32() != 15 {
		t.Fatalf("got %#v, want Int32(15)", got)
	}
}

// TestEvalClosureCapturesTwoHeapNonlocals exercises the compiler's
// frame-relative IncRef offset for more than one captured heap-owning
// non-local: a wrong, always-zero offset would bump the wrong slot's
// refcount and could corrupt or prematurely free one of the two strings.
func TestEvalClosureCapturesTwoHeapNonlocals(t *testing.T) {
	it := New(Options{})
	got, err := it.Eval(`a = "foo"; b = "bar"; f = fun |x: Int32| { a, b }; f 1`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type.Tag != types.Tuple || len(got.Items) != 2 {
		t.Fatalf("got %#v, want a 2-item Tuple", got)
	}
	if got.Items[0].AsString() != "foo" || got.Items[1].AsString() != "bar" {
		t.Fatalf("got (%q, %q), want (foo, bar)", got.Items[0].AsString(), got.Items[1].AsString())
	}
}

func TestEvalStringEquality(t *testing.T) {
	it := New(Options{})
	got, err := it.Eval(`a = "hi"; b = "hi"; a == b`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type.Tag != types.Bool || !got.AsBool() {
		t.Fatalf("got %#v, want Bool(true)", got)
	}
}

// TestEvalNonCommutativeOperandOrder exercises operand order for
// non-commutative binary primitives: a swapped pop order would silently
// compute the mirror-image result for sub/div/mod/comparisons.
func TestEvalNonCommutativeOperandOrder(t *testing.T) {
	cases := []struct {
		src  string
		want int32
	}{
		{"5 - 3", 2},
		{"7 / 2", 3},
		{"7 % 2", 1},
		{"1 << 3", 8},
		{"16 >> 2", 4},
	}
	for _, tc := range cases {
		it := New(Options{})
		got, err := it.Eval(tc.src)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.src, err)
		}
		if got.Type.Tag != types.Int32 || got.AsInt32() != tc.want {
			t.Fatalf("%s: got %#v, want Int32(%d)", tc.src, got, tc.want)
		}
	}
}

func TestEvalOrderedComparison(t *testing.T) {
	cases := []struct {
		src  string
		want bool
	}{
		{"5 < 3", false},
		{"3 < 5", true},
		{"5 > 3", true},
		{"3 > 5", false},
		{"5 <= 5", true},
		{"5 >= 6", false},
	}
	for _, tc := range cases {
		it := New(Options{})
		got, err := it.Eval(tc.src)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.src, err)
		}
		if got.Type.Tag != types.Bool || got.AsBool() != tc.want {
			t.Fatalf("%s: got %#v, want Bool(%v)", tc.src, got, tc.want)
		}
	}
}

func TestEvalLambdaImmediateCall(t *testing.T) {
	it := New(Options{})
	got, err := it.Eval("(fun |x: Int32 y: Int32| -> Int32 { x * x + y }) 3 4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type.Tag != types.Int32 || got.AsInt32() != 13 {
		t.Fatalf("got %#v, want Int32(13)", got)
	}
}

// TestEvalReturnedClosureExecute exercises a function that returns another
// function (no args, one captured nonlocal): the compiler emits EXECUTE in
// the outer Return, and the machine must unwrap through MakeClosure+Execute.
func TestEvalReturnedClosureExecute(t *testing.T) {
	it := New(Options{})
	got, err := it.Eval(`make = fun |n: Int32| { f = fun || -> Int32 { n + 1 }; f }; make 41`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type.Tag != types.Int32 || got.AsInt32() != 42 {
		t.Fatalf("got %#v, want Int32(42)", got)
	}
}

// TestEvalSubscript exercises the List/Int32 subscript primitive both via
// its explicit call name and via the infix `!` operator, which share the
// same Args=[list, idx] convention: a swapped pop order would read the
// index from the list slot and vice versa.
func TestEvalSubscript(t *testing.T) {
	cases := []struct {
		src  string
		want int32
	}{
		{"subscript [10, 20, 30] 1", 20},
		{"[10, 20, 30] ! 0", 10},
		{"[10, 20, 30] ! 2", 30},
	}
	for _, tc := range cases {
		it := New(Options{})
		got, err := it.Eval(tc.src)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.src, err)
		}
		if got.Type.Tag != types.Int32 || got.AsInt32() != tc.want {
			t.Fatalf("%s: got %#v, want Int32(%d)", tc.src, got, tc.want)
		}
	}
}

func TestEvalSubscriptOutOfBounds(t *testing.T) {
	it := New(Options{})
	_, err := it.Eval("[1, 2] ! 5")
	if err == nil {
		t.Fatal("expected an IndexOutOfBounds error, got nil")
	}
	rt, ok := err.(*errs.Runtime)
	if !ok || rt.Kind != "IndexOutOfBounds" {
		t.Fatalf("got %#v, want IndexOutOfBounds", err)
	}
}

// TestEvalApplicationBindsTighterThanInfix exercises bare-call application
// enclosed by an infix operator on both sides: a parser that mis-binds the
// two would either drop a trailing operand or attach the application to the
// wrong operand of the surrounding `+`.
func TestEvalApplicationBindsTighterThanInfix(t *testing.T) {
	it := New(Options{})
	got, err := it.Eval("f = fun |x: Int32| -> Int32 { x * 2 }; y = 1; f 3 + y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type.Tag != types.Int32 || got.AsInt32() != 7 {
		t.Fatalf("got %#v, want Int32(7)", got)
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	it := New(Options{})
	_, err := it.Eval("5 / 0")
	if err == nil {
		t.Fatal("expected a DivisionByZero error, got nil")
	}
	rt, ok := err.(*errs.Runtime)
	if !ok || rt.Kind != "DivisionByZero" {
		t.Fatalf("got %#v, want DivisionByZero", err)
	}
}

func TestEvalModuloByZero(t *testing.T) {
	it := New(Options{})
	_, err := it.Eval("5 % 0")
	if err == nil {
		t.Fatal("expected a DivisionByZero error, got nil")
	}
	rt, ok := err.(*errs.Runtime)
	if !ok || rt.Kind != "DivisionByZero" {
		t.Fatalf("got %#v, want DivisionByZero", err)
	}
}

func TestEvalOptimizerFoldsConstants(t *testing.T) {
	it := New(Options{Optimize: true})
	got, err := it.Eval("2 * (3 + 4)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type.Tag != types.Int32 || got.AsInt32() != 14 {
		t.Fatalf("got %#v, want Int32(14)", got)
	}
}

func TestEvalParseError(t *testing.T) {
	it := New(Options{})
	_, err := it.Eval("1 +")
	if err == nil {
		t.Fatal("expected a parse error, got nil")
	}
	if _, ok := err.(*errs.ParseError); !ok {
		t.Fatalf("got %T, want *errs.ParseError", err)
	}
}

func TestEvalUndefinedName(t *testing.T) {
	it := New(Options{})
	_, err := it.Eval("foo 1")
	if err == nil {
		t.Fatal("expected an UndefinedName error, got nil")
	}
	sem, ok := err.(*errs.Semantic)
	if !ok || sem.Kind != "UndefinedName" {
		t.Fatalf("got %#v, want UndefinedName", err)
	}
}

func TestEvalConditionNotBool(t *testing.T) {
	it := New(Options{})
	_, err := it.Eval("if 1 then 2 else 3")
	if err == nil {
		t.Fatal("expected a ConditionNotBool error, got nil")
	}
	sem, ok := err.(*errs.Semantic)
	if !ok || sem.Kind != "ConditionNotBool" {
		t.Fatalf("got %#v, want ConditionNotBool", err)
	}
}

func TestEvalBranchTypeMismatch(t *testing.T) {
	it := New(Options{})
	_, err := it.Eval(`if true then 1 else "x"`)
	if err == nil {
		t.Fatal("expected a BranchTypeMismatch error, got nil")
	}
	sem, ok := err.(*errs.Semantic)
	if !ok || sem.Kind != "BranchTypeMismatch" {
		t.Fatalf("got %#v, want BranchTypeMismatch", err)
	}
}
