package bytecode

// Code is an append-only sequence of opcode bytes and their in-stream
// arguments (spec.md §3, §4.8). Code.Size() always equals the sum of
// encoded opcode lengths (spec.md §3 invariant).
type Code struct {
	bytes []byte
}

// NewCode returns an empty Code buffer.
func NewCode() *Code { return &Code{bytes: make([]byte, 0, 64)} }

// Bytes returns the underlying byte slice (read-only view for the machine).
func (c *Code) Bytes() []byte { return c.bytes }

// Size returns the number of bytes emitted so far.
func (c *Code) Size() int { return len(c.bytes) }

// Emit appends an opcode with no arguments and returns its offset.
func (c *Code) Emit(op Opcode) int {
	off := len(c.bytes)
	c.bytes = append(c.bytes, byte(op))
	return off
}

// Emit1 appends a one-argument opcode and returns the opcode's offset.
func (c *Code) Emit1(op Opcode, arg byte) int {
	off := len(c.bytes)
	c.bytes = append(c.bytes, byte(op), arg)
	return off
}

// Emit2 appends a two-argument opcode and returns the opcode's offset.
func (c *Code) Emit2(op Opcode, a, b byte) int {
	off := len(c.bytes)
	c.bytes = append(c.bytes, byte(op), a, b)
	return off
}

// PatchArg1 overwrites the single argument byte of a one-arg opcode emitted
// at offset off (used to back-patch Jump/JumpIfNot targets, spec.md §4.9).
func (c *Code) PatchArg1(off int, arg byte) {
	c.bytes[off+1] = arg
}

// Here returns the current write position, i.e. the offset the next Emit*
// call will use.
func (c *Code) Here() int { return len(c.bytes) }
