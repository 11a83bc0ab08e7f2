// Package machine implements the stack-based virtual machine of spec.md
// §4.10-§4.12: a value-slot Stack, a Frame stack addressing locals relative
// to each frame's base, and an iterative opcode dispatch loop.
//
// Grounded on the teacher's own VM loop
// (_examples/funvibe-funxy/internal/vm/vm.go: a flat `stack []Value`, a
// `frames []Frame{fn, ip, basePointer}` slice, and a big switch over
// opcode bytes read from a Chunk). Every Ember call pushes a frame and runs
// a nested dispatch loop (enterFrame -> run) until that frame returns, so
// each call also adds to the Go call stack; maxFrames bounds the depth.
//
// The frame-relative addressing here follows the slot-offset scheme
// recorded in internal/compiler/compiler.go's package doc: arguments and
// captured non-locals sit at negative offsets below a frame's base, locals
// at non-negative offsets at or above it, every offset a two's-complement
// signed byte.
package machine

import (
	"math"

	"github.com/emberlang/ember/internal/bytecode"
	"github.com/emberlang/ember/internal/errs"
	"github.com/emberlang/ember/internal/heap"
	"github.com/emberlang/ember/internal/module"
	"github.com/emberlang/ember/internal/types"
	"github.com/emberlang/ember/internal/value"
)

// maxFrames bounds recursion depth so a runaway recursive program fails
// with StackOverflow rather than exhausting host memory (spec.md §7).
const maxFrames = 4096

// Invoker is the host callback driven by the Invoke statement (spec.md
// §4.2 "Invocation", §6): it receives the popped value and performs
// whatever host-side side effect it denotes (printing, an FFI call). A nil
// Invoker makes Invoke a no-op drop, which is enough for pure evaluation
// (spec.md §8's expression-only test scenarios).
type Invoker func(value.Value) error

// frame is one call's activation record: the executing function, its
// instruction pointer, and the stack index its local slot 0 sits at.
type frame struct {
	fn   *module.Function
	ip   int
	base int
}

// Machine is a single-threaded (spec.md §5) Ember virtual machine. It is
// not safe for concurrent use; callers run one Machine per goroutine.
type Machine struct {
	stack   []value.Value
	frames  []frame
	builtin *module.Module
	invoke  Invoker
}

// New returns a Machine whose Call1 opcode resolves against builtin.
func New(builtin *module.Module) *Machine {
	return &Machine{builtin: builtin}
}

// SetInvoker installs the host callback for the Invoke statement.
func (m *Machine) SetInvoker(inv Invoker) { m.invoke = inv }

// Call runs fn to completion with args pushed as its parameters (no
// captured non-locals), per spec.md §4.12's top-level entry point. The
// Machine's stack and frame list are empty both before and after a
// successful call.
func (m *Machine) Call(fn *module.Function, args []value.Value) (value.Value, error) {
	for i := len(args) - 1; i >= 0; i-- {
		m.stack = append(m.stack, args[i])
	}
	result, err := m.enterFrame(fn)
	if err != nil {
		m.stack = nil
		m.frames = nil
		return value.Void(), err
	}
	m.pop()
	return result, nil
}

// enterFrame pushes a new frame for fn and runs the dispatch loop until
// that frame (and only that frame) has returned.
func (m *Machine) enterFrame(fn *module.Function) (value.Value, error) {
	if len(m.frames) >= maxFrames {
		return value.Void(), errs.StackOverflow()
	}
	target := len(m.frames)
	m.frames = append(m.frames, frame{fn: fn, ip: 0, base: len(m.stack)})
	return m.run(target)
}

// run dispatches opcodes until the frame stack has unwound back down to
// (and including a completed) floor, returning the value left on top of
// the stack once it has. The value stays on the stack, where the calling
// frame uses it as the call's result.
func (m *Machine) run(floor int) (value.Value, error) {
	for {
		if len(m.frames) <= floor {
			return m.stack[len(m.stack)-1], nil
		}
		if err := m.step(); err != nil {
			return value.Void(), err
		}
	}
}

func (m *Machine) top() *frame { return &m.frames[len(m.frames)-1] }

func (m *Machine) push(v value.Value) { m.stack = append(m.stack, v) }

func (m *Machine) pop() value.Value {
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

// at returns the stack slot at a frame-relative signed offset from the
// frame's base.
func (m *Machine) at(f *frame, offset int8) *value.Value {
	return &m.stack[f.base+int(offset)]
}

// fetch reads the next byte from the current frame's code and advances ip.
func (f *frame) fetch() byte {
	b := f.fn.Code.Bytes()[f.ip]
	f.ip++
	return b
}

func (f *frame) atEnd() bool { return f.ip >= f.fn.Code.Size() }

// step executes exactly one instruction in the topmost frame, possibly
// pushing a new frame (Call0/Call1/Call/Execute) or popping the current one
// (falling off the end of its code).
func (m *Machine) step() error {
	f := m.top()
	if f.atEnd() {
		m.frames = m.frames[:len(m.frames)-1]
		return nil
	}

	op := bytecode.Opcode(f.fetch())
	if !bytecode.IsValid(byte(op)) {
		return errs.BadInstruction(byte(op))
	}

	switch {
	case op >= bytecode.OR_8 && op <= bytecode.NEG_64:
		return m.execPrimitive(op)
	}

	switch op {
	case bytecode.NOOP:
		return nil
	case bytecode.SUBSCRIPT_32:
		return m.execSubscript()
	case bytecode.EXECUTE:
		return m.execExecute()
	case bytecode.LOAD_STATIC:
		return m.execLoadStatic(f, f.fetch())
	case bytecode.LOAD_MODULE:
		f.fetch()
		m.push(value.Value{Type: types.TypeInfo{Tag: types.Module}})
		return nil
	case bytecode.LOAD_FUNCTION:
		return m.execLoadFunction(f, f.fetch())
	case bytecode.CALL0:
		return m.execCall0(f, f.fetch())
	case bytecode.CALL1:
		return m.execCall1(f.fetch())
	case bytecode.MAKE_CLOSURE:
		return m.execMakeClosure(f, f.fetch())
	case bytecode.SET_BASE:
		// Reserved: no emitter in internal/compiler ever produces this
		// opcode (every frame's base is fixed once at call time), so
		// encountering it means a corrupted or hand-assembled module.
		f.fetch()
		return errs.NotImplemented("SET_BASE")
	case bytecode.INCREF:
		m.at(f, int8(f.fetch())).Incref()
		return nil
	case bytecode.DECREF:
		m.at(f, int8(f.fetch())).Decref()
		return nil
	case bytecode.JUMP:
		k := int8(f.fetch())
		f.ip += int(k)
		return nil
	case bytecode.JUMP_IF_NOT:
		k := int8(f.fetch())
		cond := m.pop()
		if !cond.AsBool() {
			f.ip += int(k)
		}
		return nil
	case bytecode.INVOKE:
		v := m.pop()
		if m.invoke == nil {
			return nil
		}
		return m.invoke(v)
	case bytecode.CALL:
		return m.execCall(f, f.fetch(), f.fetch())
	case bytecode.MAKE_LIST:
		return m.execMakeList(f.fetch(), f.fetch())
	case bytecode.COPY:
		return m.execCopy(f, int8(f.fetch()), f.fetch())
	case bytecode.DROP:
		return m.execDrop(f.fetch(), f.fetch())
	}
	return errs.BadInstruction(byte(op))
}

// execLoadStatic pushes a copy of the module's i'th static constant. A
// heap-owning static is Incref'd on every load: the static table is
// write-once and the same entry may be loaded many times across repeated
// calls (recursion has no other way to revisit a literal), so each load
// must hand out its own counted reference rather than let the static's
// baseline refcount be decremented to zero by the first caller's frame
// teardown.
func (m *Machine) execLoadStatic(f *frame, i byte) error {
	if int(i) >= len(f.fn.Module.Statics) {
		return errs.IndexOutOfBounds(int(i), len(f.fn.Module.Statics))
	}
	v := f.fn.Module.Statics[i]
	v.Incref()
	m.push(v)
	return nil
}

func (m *Machine) execLoadFunction(f *frame, i byte) error {
	if int(i) >= len(f.fn.Module.Functions) {
		return errs.IndexOutOfBounds(int(i), len(f.fn.Module.Functions))
	}
	target := f.fn.Module.Functions[i]
	m.push(value.NewClosure(target.Signature, target, heap.New(0), nil))
	return nil
}

func (m *Machine) execCall0(f *frame, i byte) error {
	if int(i) >= len(f.fn.Module.Functions) {
		return errs.IndexOutOfBounds(int(i), len(f.fn.Module.Functions))
	}
	_, err := m.enterFrame(f.fn.Module.Functions[i])
	if err != nil {
		return err
	}
	return nil
}

func (m *Machine) execCall1(i byte) error {
	if int(i) >= len(m.builtin.Functions) {
		return errs.IndexOutOfBounds(int(i), len(m.builtin.Functions))
	}
	_, err := m.enterFrame(m.builtin.Functions[i])
	return err
}

func (m *Machine) execCall(f *frame, modIdx, fnIdx byte) error {
	if int(modIdx) >= len(f.fn.Module.Imports) {
		return errs.IndexOutOfBounds(int(modIdx), len(f.fn.Module.Imports))
	}
	imp := f.fn.Module.Imports[modIdx]
	if int(fnIdx) >= len(imp.Functions) {
		return errs.IndexOutOfBounds(int(fnIdx), len(imp.Functions))
	}
	_, err := m.enterFrame(imp.Functions[fnIdx])
	return err
}

// execMakeClosure pops target's non-local count off the stack (pushed by
// the compiler's emitMakeClosure in index order 0..M-1, so the stack holds
// them top-to-bottom as M-1..0) and builds a Closure holding them in index
// order.
func (m *Machine) execMakeClosure(f *frame, i byte) error {
	if int(i) >= len(f.fn.Module.Functions) {
		return errs.IndexOutOfBounds(int(i), len(f.fn.Module.Functions))
	}
	target := f.fn.Module.Functions[i]
	n := len(target.Symbols.Nonlocals())
	captured := make([]value.Value, n)
	for idx := n - 1; idx >= 0; idx-- {
		captured[idx] = m.pop()
	}
	m.push(value.NewClosure(target.Signature, target, heap.New(0), captured))
	return nil
}

// execExecute pops a closure, pushes its captured non-locals in the order
// that makes non-local 0 land closest to the new frame's base (reverse of
// Captured's index order, mirroring the outer Call/non-local push
// convention documented in internal/compiler/compiler.go), then enters the
// closure's function. The closure's own reference is dropped once
// consumed.
func (m *Machine) execExecute() error {
	closureVal := m.pop()
	if closureVal.Closure == nil {
		return errs.NotImplemented("execute of a non-function value")
	}
	cl := closureVal.Closure
	target, ok := cl.Fn.(*module.Function)
	if !ok {
		return errs.NotImplemented("execute of an unresolved closure target")
	}
	for idx := len(cl.Captured) - 1; idx >= 0; idx-- {
		v := cl.Captured[idx]
		v.Incref()
		m.push(v)
	}
	closureVal.Decref()
	_, err := m.enterFrame(target)
	return err
}

func (m *Machine) execCopy(f *frame, offset int8, count byte) error {
	for i := byte(0); i < count; i++ {
		m.push(*m.at(f, offset))
	}
	return nil
}

// execDrop removes `bytes` slots starting `skip` slots below the current
// top, preserving the top `skip` values in place (spec.md §4.8's Drop:
// the compiler always uses skip=1 to keep a just-pushed return value while
// discarding the frame's params/non-locals/locals beneath it).
func (m *Machine) execDrop(skip, bytes byte) error {
	if bytes == 0 {
		return nil
	}
	keepFrom := len(m.stack) - int(skip)
	removeFrom := keepFrom - int(bytes)
	if removeFrom < 0 || keepFrom > len(m.stack) {
		return errs.StackUnderflow()
	}
	m.stack = append(m.stack[:removeFrom], m.stack[keepFrom:]...)
	return nil
}

// execMakeList pops count values off the stack, already in natural
// left-to-right order (the compiler pushes items in reverse, so item 0
// ends up on top and is popped first), and builds either a List (mode 0,
// sharing the first item's element type) or a Tuple (mode 1).
func (m *Machine) execMakeList(count, mode byte) error {
	items := make([]value.Value, count)
	for i := byte(0); i < count; i++ {
		items[i] = m.pop()
	}
	if mode == 1 {
		m.push(value.NewTuple(items...))
		return nil
	}
	elem := types.TypeInfo{Tag: types.Unknown}
	if len(items) > 0 {
		elem = items[0].Type
	}
	m.push(value.NewListFromItems(elem, items))
	return nil
}

func (m *Machine) execSubscript() error {
	// Args are [list, idx] (spec.md §4.6); the compiler pushes arg0 last,
	// so list is on top and pops first, mirroring execPrimitive's
	// first-popped-is-left-operand convention.
	listVal := m.pop()
	idxVal := m.pop()
	items := listVal.AsList()
	idx := int(idxVal.AsInt32())
	if idx < 0 || idx >= len(items) {
		return errs.IndexOutOfBounds(idx, len(items))
	}
	elem := items[idx]
	// The list itself is fully consumed by subscripting (its reference is
	// not retained anywhere else the caller can see), so this opcode both
	// hands out a fresh reference to the extracted element and drops the
	// one the list's own COPY+INCREF produced.
	elem.Incref()
	listVal.Decref()
	m.push(elem)
	return nil
}

// execPrimitive runs one of the size-polymorphic scalar ops (spec.md §4.6,
// §4.8): binary ops pop two operands (the first-popped is the left-hand
// side, since args push in reverse with arg0 — the left operand —
// closest to the top) and push one result; unary ops pop one and push one.
func (m *Machine) execPrimitive(op bytecode.Opcode) error {
	if op >= bytecode.NOT_8 {
		return m.execUnary(op)
	}
	lhs := m.pop()
	rhs := m.pop()
	return m.execBinary(op, lhs, rhs)
}

func (m *Machine) execUnary(op bytecode.Opcode) error {
	v := m.pop()
	switch op {
	case bytecode.NOT_8, bytecode.NOT_32, bytecode.NOT_64:
		m.push(value.Bool(!v.AsBool()))
	case bytecode.BIT_NOT_8:
		m.push(value.Byte(^v.AsByte()))
	case bytecode.BIT_NOT_32:
		m.push(value.Int32(^v.AsInt32()))
	case bytecode.BIT_NOT_64:
		m.push(value.Int64(^v.AsInt64()))
	case bytecode.NEG_8:
		m.push(value.Byte(byte(-int8(v.AsByte()))))
	case bytecode.NEG_32:
		switch v.Type.Tag {
		case types.Float32:
			m.push(value.Float32(-v.AsFloat32()))
		default:
			m.push(value.Int32(-v.AsInt32()))
		}
	case bytecode.NEG_64:
		switch v.Type.Tag {
		case types.Float64:
			m.push(value.Float64(-v.AsFloat64()))
		default:
			m.push(value.Int64(-v.AsInt64()))
		}
	default:
		return errs.BadInstruction(byte(op))
	}
	return nil
}

func (m *Machine) execBinary(op bytecode.Opcode, lhs, rhs value.Value) error {
	switch {
	case op == bytecode.OR_8:
		m.push(value.Bool(lhs.AsBool() || rhs.AsBool()))
		return nil
	case op == bytecode.AND_8:
		m.push(value.Bool(lhs.AsBool() && rhs.AsBool()))
		return nil
	}

	if isComparison(op) {
		return m.execCompare(op, lhs, rhs)
	}

	width := widthOf(op)
	isFloat := lhs.Type.Tag == types.Float32 || lhs.Type.Tag == types.Float64
	base := arithBase(op)

	// div/mod by zero is undefined at the language level (spec.md §4.8); the
	// original raises the host's own division trap rather than defining a
	// result, so this is surfaced as a Runtime error instead of silently
	// producing 0.
	if base == bytecode.DIV_8 || base == bytecode.MOD_8 {
		var zero bool
		switch {
		case isFloat && width == bytecode.W32:
			zero = rhs.AsFloat32() == 0
		case isFloat && width == bytecode.W64:
			zero = rhs.AsFloat64() == 0
		case width == bytecode.W8:
			zero = rhs.AsByte() == 0
		case width == bytecode.W32:
			zero = rhs.AsInt32() == 0
		default:
			zero = rhs.AsInt64() == 0
		}
		if zero {
			return errs.DivisionByZero()
		}
	}

	switch {
	case isFloat && width == bytecode.W32:
		m.push(value.Float32(float32(applyFloatOp(base, float64(lhs.AsFloat32()), float64(rhs.AsFloat32())))))
	case isFloat && width == bytecode.W64:
		m.push(value.Float64(applyFloatOp(base, lhs.AsFloat64(), rhs.AsFloat64())))
	case width == bytecode.W8:
		m.push(value.Byte(byte(applyIntOp(base, int64(lhs.AsByte()), int64(rhs.AsByte())))))
	case width == bytecode.W32:
		m.push(value.Int32(int32(applyIntOp(base, int64(lhs.AsInt32()), int64(rhs.AsInt32())))))
	default:
		m.push(value.Int64(applyIntOp(base, lhs.AsInt64(), rhs.AsInt64())))
	}
	return nil
}

func isComparison(op bytecode.Opcode) bool {
	return op >= bytecode.EQ_8 && op <= bytecode.GT_64
}

func (m *Machine) execCompare(op bytecode.Opcode, lhs, rhs value.Value) error {
	width := widthOf(op)
	isFloat := lhs.Type.Tag == types.Float32 || lhs.Type.Tag == types.Float64
	isStr := lhs.Type.Tag == types.String

	var cmp int
	switch {
	case isStr:
		cmp = compareStrings(lhs.AsString(), rhs.AsString())
	case isFloat && width == bytecode.W32:
		cmp = compareFloat(float64(lhs.AsFloat32()), float64(rhs.AsFloat32()))
	case isFloat && width == bytecode.W64:
		cmp = compareFloat(lhs.AsFloat64(), rhs.AsFloat64())
	case width == bytecode.W8:
		cmp = compareInt(int64(lhs.AsByte()), int64(rhs.AsByte()))
	case width == bytecode.W32:
		cmp = compareInt(int64(lhs.AsInt32()), int64(rhs.AsInt32()))
	default:
		cmp = compareInt(lhs.AsInt64(), rhs.AsInt64())
	}

	base := compareBase(op)
	var result bool
	switch base {
	case bytecode.EQ_8:
		result = cmp == 0
	case bytecode.NE_8:
		result = cmp != 0
	case bytecode.LE_8:
		result = cmp <= 0
	case bytecode.GE_8:
		result = cmp >= 0
	case bytecode.LT_8:
		result = cmp < 0
	case bytecode.GT_8:
		result = cmp > 0
	}
	// A comparison only ever yields a Bool, never the operands themselves:
	// a heap-owning operand (String) is fully consumed here, so this is
	// the one place responsible for dropping the reference the caller's
	// COPY+INCREF produced for it (spec.md §4.11).
	if isStr {
		lhs.Decref()
		rhs.Decref()
	}
	m.push(value.Bool(result))
	return nil
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// widthOf maps an opcode to its triplet width by its position modulo 3
// within a primitive-op family (spec.md §4.8: "opcode+1/+2 selects width").
func widthOf(op bytecode.Opcode) bytecode.Width {
	return bytecode.Width((op - bytecode.OR_8) % 3)
}

// baseOf returns the 8-bit variant of op's primitive-op triplet, used to
// switch on the operation's identity independent of its resolved width.
func baseOf(op bytecode.Opcode) bytecode.Opcode {
	return op - bytecode.Opcode(widthOf(op))
}

func compareBase(op bytecode.Opcode) bytecode.Opcode { return baseOf(op) }
func arithBase(op bytecode.Opcode) bytecode.Opcode   { return baseOf(op) }

func applyIntOp(base bytecode.Opcode, a, b int64) int64 {
	switch base {
	case bytecode.BIT_OR_8:
		return a | b
	case bytecode.BIT_AND_8:
		return a & b
	case bytecode.BIT_XOR_8:
		return a ^ b
	case bytecode.SHIFT_LEFT_8:
		return a << uint(b)
	case bytecode.SHIFT_RIGHT_8:
		return a >> uint(b)
	case bytecode.ADD_8:
		return a + b
	case bytecode.SUB_8:
		return a - b
	case bytecode.MUL_8:
		return a * b
	case bytecode.DIV_8:
		return a / b
	case bytecode.MOD_8:
		return a % b
	case bytecode.EXP_8:
		return int64(math.Pow(float64(a), float64(b)))
	default:
		return 0
	}
}

func applyFloatOp(base bytecode.Opcode, a, b float64) float64 {
	switch base {
	case bytecode.ADD_8:
		return a + b
	case bytecode.SUB_8:
		return a - b
	case bytecode.MUL_8:
		return a * b
	case bytecode.DIV_8:
		return a / b
	case bytecode.EXP_8:
		return math.Pow(a, b)
	default:
		return 0
	}
}
