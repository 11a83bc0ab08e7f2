// Package errs defines the error taxonomy of spec.md §7. ParseError,
// FunctionNotFound and Runtime are Go types of their own; every other named
// semantic error is a *Semantic whose Kind names it, built by a constructor
// of that name. Errors carry a source Pos where the spec calls for one so
// the caller can render a caret-annotated snippet (token.Pos.Caret).
//
// The style (a distinct struct per error kind, a formatted Error() string,
// position-first) is grounded on the teacher's own error types
// (_examples/funvibe-funxy/internal/typesystem/error.go and the analyzer's
// *_errors_test.go files), simplified to plain structs since Ember has no
// need for the teacher's constraint-solver-specific error variants.
package errs

import (
	"fmt"

	"github.com/emberlang/ember/internal/token"
)

// ParseError is raised by the lexer/parser (spec.md §4.1, §7).
type ParseError struct {
	Pos     token.Pos
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse error: %s\n%s", e.Pos, e.Message, e.Pos.Caret())
}

// Semantic is the shared shape for every semantic-pass error named in
// spec.md §7 that carries only a position and a message.
type Semantic struct {
	Kind    string
	Pos     token.Pos
	Message string
}

func (e *Semantic) Error() string {
	snippet := e.Pos.Caret()
	if snippet == "" {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s\n%s", e.Pos, e.Kind, e.Message, snippet)
}

func sem(kind string, pos token.Pos, format string, args ...any) error {
	return &Semantic{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func UndefinedName(pos token.Pos, name string) error {
	return sem("UndefinedName", pos, "undefined name %q", name)
}

func UndefinedTypeName(pos token.Pos, name string) error {
	return sem("UndefinedTypeName", pos, "undefined type name %q", name)
}

func MultipleDeclaration(pos token.Pos, name string) error {
	return sem("MultipleDeclaration", pos, "%q is already declared in this scope", name)
}

func UnknownTypeName(pos token.Pos, name string) error {
	return sem("UnknownTypeName", pos, "unknown type name %q", name)
}

func MissingExplicitType(pos token.Pos, what string) error {
	return sem("MissingExplicitType", pos, "%s requires an explicit type", what)
}

func UnexpectedArgument(pos token.Pos, index int) error {
	return sem("UnexpectedArgument", pos, "unexpected argument at index %d", index)
}

func UnexpectedArgumentCount(pos token.Pos, expected, got int) error {
	return sem("UnexpectedArgumentCount", pos, "expected %d argument(s), got %d", expected, got)
}

func UnexpectedArgumentType(pos token.Pos, index int, expected, got fmt.Stringer) error {
	return sem("UnexpectedArgumentType", pos, "argument %d: expected %s, got %s", index, expected, got)
}

func UnexpectedReturnType(pos token.Pos, expected, got fmt.Stringer) error {
	return sem("UnexpectedReturnType", pos, "expected return type %s, got %s", expected, got)
}

func ConditionNotBool(pos token.Pos, got fmt.Stringer) error {
	return sem("ConditionNotBool", pos, "condition must be Bool, got %s", got)
}

func DefinitionTypeMismatch(pos token.Pos, name string, declared, got fmt.Stringer) error {
	return sem("DefinitionTypeMismatch", pos, "%s: declared %s, got %s", name, declared, got)
}

func DefinitionParamTypeMismatch(pos token.Pos, name string) error {
	return sem("DefinitionParamTypeMismatch", pos, "parameter %q type mismatch", name)
}

func BranchTypeMismatch(pos token.Pos, then, els fmt.Stringer) error {
	return sem("BranchTypeMismatch", pos, "then-branch has type %s, else-branch has type %s", then, els)
}

func ListElemTypeMismatch(pos token.Pos, expected, got fmt.Stringer) error {
	return sem("ListElemTypeMismatch", pos, "list element: expected %s, got %s", expected, got)
}

// FunctionNotFound is raised when overload resolution (spec.md §4.5)
// exhausts the candidate chain with zero hits; Candidates is the formatted
// signature list shown to the user.
type FunctionNotFound struct {
	Pos        token.Pos
	Name       string
	Candidates []string
}

func (e *FunctionNotFound) Error() string {
	msg := fmt.Sprintf("no overload of %q matches the given arguments; candidates:", e.Name)
	for _, c := range e.Candidates {
		msg += "\n  " + c
	}
	return fmt.Sprintf("%s: FunctionNotFound: %s\n%s", e.Pos, msg, e.Pos.Caret())
}

func TooManyLocals(pos token.Pos) error {
	return sem("TooManyLocals", pos, "function has too many local values")
}

func UnsupportedOperands(pos token.Pos, op string) error {
	return sem("UnsupportedOperands", pos, "unsupported operands for %q", op)
}

func IntrinsicsFunctionError(pos token.Pos, msg string) error {
	return sem("IntrinsicsFunctionError", pos, "%s", msg)
}

// Runtime errors (spec.md §7 "Runtime"), raised by the machine. These carry
// no source position since they occur after compilation.
type Runtime struct {
	Kind    string
	Message string
}

func (e *Runtime) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func BadInstruction(op byte) error {
	return &Runtime{Kind: "BadInstruction", Message: fmt.Sprintf("opcode %d out of range", op)}
}

func StackUnderflow() error {
	return &Runtime{Kind: "StackUnderflow", Message: "pulled from an empty stack"}
}

func StackOverflow() error {
	return &Runtime{Kind: "StackOverflow", Message: "stack exceeded its hard capacity"}
}

func IndexOutOfBounds(index, length int) error {
	return &Runtime{Kind: "IndexOutOfBounds", Message: fmt.Sprintf("index %d out of bounds (length %d)", index, length)}
}

// DivisionByZero is raised by a DIV/MOD primitive op whose divisor is zero
// (spec.md §4.8: undefined at the language level, surfaced rather than
// silently defined to 0).
func DivisionByZero() error {
	return &Runtime{Kind: "DivisionByZero", Message: "division or modulo by zero"}
}

// NotImplemented marks a reserved opcode/path (spec.md §7 "Structural").
func NotImplemented(what string) error {
	return &Runtime{Kind: "NotImplemented", Message: what}
}
