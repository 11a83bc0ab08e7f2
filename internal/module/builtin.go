package module

import (
	"github.com/emberlang/ember/internal/bytecode"
	"github.com/emberlang/ember/internal/symbols"
	"github.com/emberlang/ember/internal/types"
	"github.com/emberlang/ember/internal/value"
)

// NewBuiltin constructs the distinguished Builtin module (spec.md §6): its
// symbol table is pre-populated with constants, the polymorphic primitive
// operator functions, and the Instruction intrinsic aliases.
//
// Grounded on the teacher's builtin-registration style
// (_examples/funvibe-funxy/internal/analyzer/builtins.go,
// internal/symbols/symbol_table_init.go's prelude population), adapted from
// funxy's single Hindley-Milner-polymorphic entry per operator to spec.md
// §6's explicit 8/32/64-bit overload chain, since Ember has no unification
// engine — overload resolution (internal/resolver/type_resolver.go) walks a
// plain linked list of concrete candidates instead.
func NewBuiltin() *Module {
	m := New("<builtin>")

	addConstant(m, "void", value.Void())
	addConstant(m, "false", value.Bool(false))
	addConstant(m, "true", value.Bool(true))

	// widths used for the size-polymorphic primitive chain, in the order
	// spec.md §8 pins down: Byte, Int32, Int64, then the floating-point
	// extensions Ember adds so Float32/Float64 arithmetic has a candidate.
	intWidths := []struct {
		tag   types.Tag
		width bytecode.Width
		sep   string
	}{
		{types.Byte, bytecode.W8, "8"},
		{types.Int32, bytecode.W32, "32"},
		{types.Int64, bytecode.W64, "64"},
	}
	floatWidths := []struct {
		tag   types.Tag
		width bytecode.Width
		sep   string
	}{
		{types.Float32, bytecode.W32, "f32"},
		{types.Float64, bytecode.W64, "f64"},
	}

	arith := func(name string, base bytecode.Opcode, includeFloat bool) {
		var chain []*symbols.Symbol
		for _, w := range intWidths {
			chain = append(chain, addOverload(m, name, w.sep, binarySig(w.tag), bytecode.At(base, w.width)))
		}
		if includeFloat {
			for _, w := range floatWidths {
				chain = append(chain, addOverload(m, name, w.sep, binarySig(w.tag), bytecode.At(base, w.width)))
			}
		}
		symbols.Chain(chain...)
	}
	cmp := func(name string, base bytecode.Opcode) {
		var chain []*symbols.Symbol
		all := append(append([]struct {
			tag   types.Tag
			width bytecode.Width
			sep   string
		}{}, intWidths...), floatWidths...)
		// String shares the W8 opcode variant with Byte: the machine
		// branches on the operand's runtime Tag before consulting width,
		// so one opcode safely serves both (spec.md §4.6's "eq"/"ne"/
		// ordering comparisons apply to String the same as any primitive).
		all = append(all, struct {
			tag   types.Tag
			width bytecode.Width
			sep   string
		}{types.String, bytecode.W8, "str"})
		for _, w := range all {
			sig := types.NewSignature([]types.Param{{Type: types.NewPrimitive(w.tag)}, {Type: types.NewPrimitive(w.tag)}}, types.NewPrimitive(types.Bool))
			chain = append(chain, addOverload(m, name, w.sep, sig, bytecode.At(base, w.width)))
		}
		symbols.Chain(chain...)
	}
	unary := func(name string, base bytecode.Opcode, includeFloat bool) {
		var chain []*symbols.Symbol
		for _, w := range intWidths {
			sig := types.NewSignature([]types.Param{{Type: types.NewPrimitive(w.tag)}}, types.NewPrimitive(w.tag))
			chain = append(chain, addOverload(m, name, w.sep, sig, bytecode.At(base, w.width)))
		}
		if includeFloat {
			for _, w := range floatWidths {
				sig := types.NewSignature([]types.Param{{Type: types.NewPrimitive(w.tag)}}, types.NewPrimitive(w.tag))
				chain = append(chain, addOverload(m, name, w.sep, sig, bytecode.At(base, w.width)))
			}
		}
		symbols.Chain(chain...)
	}

	// logical (Bool only, no width chain)
	addBoolBinary(m, "or", bytecode.OR_8)
	addBoolBinary(m, "and", bytecode.AND_8)

	cmp("eq", bytecode.EQ_8)
	cmp("ne", bytecode.NE_8)
	cmp("le", bytecode.LE_8)
	cmp("ge", bytecode.GE_8)
	cmp("lt", bytecode.LT_8)
	cmp("gt", bytecode.GT_8)

	arith("bit_or", bytecode.BIT_OR_8, false)
	arith("bit_and", bytecode.BIT_AND_8, false)
	arith("bit_xor", bytecode.BIT_XOR_8, false)
	arith("shift_left", bytecode.SHIFT_LEFT_8, false)
	// spec.md §9 Open Questions: the original source emits "<<" for both
	// shift functors; implement shift_right as the actual ">>" operator.
	arith("shift_right", bytecode.SHIFT_RIGHT_8, false)

	arith("add", bytecode.ADD_8, true)
	arith("sub", bytecode.SUB_8, true)
	arith("mul", bytecode.MUL_8, true)
	arith("div", bytecode.DIV_8, true)
	arith("mod", bytecode.MOD_8, true)
	arith("exp", bytecode.EXP_8, true)

	unary("bit_not", bytecode.BIT_NOT_8, false)
	unary("neg", bytecode.NEG_8, true)
	addBoolUnary(m, "not", bytecode.NOT_8)

	addSubscript(m)

	addIntrinsics(m)

	return m
}

func addConstant(m *Module, name string, v value.Value) {
	idx := m.AddStatic(v)
	sym := &symbols.Symbol{Name: name, Kind: symbols.Value, Index: idx, Type: v.Type}
	m.Root.Add(sym)
}

func binarySig(tag types.Tag) *types.Signature {
	return types.NewSignature([]types.Param{{Type: types.NewPrimitive(tag)}, {Type: types.NewPrimitive(tag)}}, types.NewPrimitive(tag))
}

// addOverload registers one concrete candidate of a size-polymorphic
// builtin as a Function symbol whose body is the single intrinsic opcode
// IntrinsicOp: call sites reach it through Call1 like any other builtin
// function (spec.md §4.9).
func addOverload(m *Module, name, suffix string, sig *types.Signature, op bytecode.Opcode) *symbols.Symbol {
	fn := NewFunction(name+"_"+suffix, sig, m.Root)
	fn.IsBuiltin = true
	fn.IsIntrinsic = true
	fn.IntrinsicOp = op
	fn.Code.Emit(op)
	m.AddFunction(fn)
	sym := &symbols.Symbol{Name: name, Kind: symbols.FunctionKind, Index: fn.Index, IsCallable: true, Type: types.NewFunction(sig), Payload: fn}
	// Only the first candidate of a chain is actually added to the symbol
	// table under `name`; later candidates are reachable solely via
	// Symbol.Next (spec.md §4.5: "Walk the candidate chain hanging off the
	// reference's symbol").
	if _, exists := m.Root.Lookup(name); !exists {
		m.Root.Add(sym)
	}
	return sym
}

func addBoolBinary(m *Module, name string, op bytecode.Opcode) {
	sig := types.NewSignature([]types.Param{{Type: types.NewPrimitive(types.Bool)}, {Type: types.NewPrimitive(types.Bool)}}, types.NewPrimitive(types.Bool))
	addOverload(m, name, "bool", sig, op)
}

func addBoolUnary(m *Module, name string, op bytecode.Opcode) {
	sig := types.NewSignature([]types.Param{{Type: types.NewPrimitive(types.Bool)}}, types.NewPrimitive(types.Bool))
	addOverload(m, name, "bool", sig, op)
}

// addSubscript registers the List element-access primitive used by the `!`
// infix operator (spec.md §4.6); its only candidate takes a List.
func addSubscript(m *Module) {
	elem := types.NewGeneric(0)
	sig := types.NewSignature([]types.Param{{Type: types.NewList(elem)}, {Type: types.NewPrimitive(types.Int32)}}, elem)
	addOverload(m, "subscript", "32", sig, bytecode.SUBSCRIPT_32)
}

// addIntrinsics registers the `__`-prefixed Instruction aliases that
// reference an opcode directly and bypass type checking (spec.md §4.3,
// §6): one per emittable opcode that has a fixed arity/behaviour worth
// exposing directly (Noop plus the canonical width-32 arithmetic family,
// matching the spec's own examples "__noop", "__add_32", ...).
func addIntrinsics(m *Module) {
	reg := func(name string, op bytecode.Opcode) {
		sym := &symbols.Symbol{Name: name, Kind: symbols.Instruction, Index: int(op)}
		m.Root.Add(sym)
	}
	reg("__noop", bytecode.NOOP)
	reg("__add_32", bytecode.ADD_32)
	reg("__add_64", bytecode.ADD_64)
	reg("__sub_32", bytecode.SUB_32)
	reg("__mul_32", bytecode.MUL_32)
	reg("__eq_32", bytecode.EQ_32)
	reg("__execute", bytecode.EXECUTE)
	reg("__incref", bytecode.INCREF)
	reg("__decref", bytecode.DECREF)
}
