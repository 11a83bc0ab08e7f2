// Package types implements the static type system described in spec.md §3:
// a closed set of primitive tags, tuple/list structural subtypes, and
// function Signatures with non-locals and partial-application residue.
//
// The shape (a Type interface with String()/Apply(Subst)/FreeTypeVariables(),
// a Subst map, and a RenameTypeVars-style generic specialisation step) is
// grounded on the teacher's Hindley-Milner type system
// (_examples/funvibe-funxy/internal/typesystem/types.go and
// symbol_table_core.go's RenameTypeVars), simplified from general unification
// down to the closed primitive/tuple/list/function model spec.md actually
// asks for — the teacher solves a strictly harder (let-polymorphic, trait
// constrained) problem; here the same substitution-and-specialise machinery
// is reused but "unify" is structural equality plus Unknown-matches-anything,
// not full Robinson unification.
package types

import (
	"fmt"
	"strings"
)

// Tag is the closed set of primitive type tags (spec.md §3).
type Tag int

const (
	Unknown Tag = iota
	Void
	Bool
	Byte
	Char
	Int32
	Int64
	Float32
	Float64
	String
	List
	Tuple
	Function
	Module
)

var tagNames = [...]string{
	"Unknown", "Void", "Bool", "Byte", "Char", "Int32", "Int64",
	"Float32", "Float64", "String", "List", "Tuple", "Function", "Module",
}

func (t Tag) String() string {
	if int(t) >= 0 && int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "Tag(?)"
}

// Size gives the fixed per-type size in stack bytes (spec.md §3).
// String/List/Function are pointer+size_t; Tuple sums its subtypes;
// Module occupies zero bytes.
const PointerSize = 8 // pointer
const SizeTSize = 8   // size_t, matches a 64-bit host

func (t Tag) baseSize() int {
	switch t {
	case Void:
		return 1
	case Bool, Byte:
		return 1
	case Char, Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	case String, List, Function:
		return PointerSize + SizeTSize
	case Module:
		return 0
	case Tuple:
		return -1 // computed from subtypes, see TypeInfo.Size
	default:
		return 0
	}
}

// TypeInfo represents a fully or partially known type (spec.md §3).
type TypeInfo struct {
	Tag Tag

	// Function: owns a shared Signature.
	Signature *Signature

	// Tuple: subtypes in order. List: exactly one subtype (the element type).
	Subtypes []TypeInfo

	// Unknown: optional generic-variable id used during inference/overload
	// specialisation (spec.md §3, §4.5).
	GenericVar int
	IsGeneric  bool
}

// NewPrimitive builds a concrete non-structural TypeInfo.
func NewPrimitive(tag Tag) TypeInfo { return TypeInfo{Tag: tag} }

// NewGeneric builds an Unknown TypeInfo carrying a generic variable id.
func NewGeneric(id int) TypeInfo { return TypeInfo{Tag: Unknown, GenericVar: id, IsGeneric: true} }

// NewList builds a List TypeInfo with the given element type.
func NewList(elem TypeInfo) TypeInfo { return TypeInfo{Tag: List, Subtypes: []TypeInfo{elem}} }

// NewTuple builds a Tuple TypeInfo from its item types.
func NewTuple(items ...TypeInfo) TypeInfo { return TypeInfo{Tag: Tuple, Subtypes: items} }

// NewFunction builds a Function TypeInfo over the given Signature.
func NewFunction(sig *Signature) TypeInfo { return TypeInfo{Tag: Function, Signature: sig} }

// Elem returns the element type of a List TypeInfo.
func (t TypeInfo) Elem() TypeInfo {
	if t.Tag == List && len(t.Subtypes) == 1 {
		return t.Subtypes[0]
	}
	return TypeInfo{Tag: Unknown}
}

// Size returns the type's fixed size in stack bytes (spec.md §3).
func (t TypeInfo) Size() int {
	if t.Tag == Tuple {
		n := 0
		for _, s := range t.Subtypes {
			n += s.Size()
		}
		return n
	}
	return t.Tag.baseSize()
}

// IsHeapOwning reports whether a stack-resident value of this type owns a
// heap.Slot that the compiler must Incref/Decref (spec.md §4.9, §4.11).
func (t TypeInfo) IsHeapOwning() bool {
	switch t.Tag {
	case String, List, Function:
		return true
	case Tuple:
		for _, s := range t.Subtypes {
			if s.IsHeapOwning() {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Equal implements spec.md §3's equality rule: Unknown matches any type.
func (t TypeInfo) Equal(other TypeInfo) bool {
	if t.Tag == Unknown || other.Tag == Unknown {
		return true
	}
	if t.Tag != other.Tag {
		return false
	}
	switch t.Tag {
	case List:
		return t.Elem().Equal(other.Elem())
	case Tuple:
		if len(t.Subtypes) != len(other.Subtypes) {
			return false
		}
		for i := range t.Subtypes {
			if !t.Subtypes[i].Equal(other.Subtypes[i]) {
				return false
			}
		}
		return true
	case Function:
		return t.Signature.Equal(other.Signature)
	default:
		return true
	}
}

func (t TypeInfo) String() string {
	switch t.Tag {
	case Unknown:
		if t.IsGeneric {
			return fmt.Sprintf("?%d", t.GenericVar)
		}
		return "?"
	case List:
		return "[" + t.Elem().String() + "]"
	case Tuple:
		parts := make([]string, len(t.Subtypes))
		for i, s := range t.Subtypes {
			parts[i] = s.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case Function:
		if t.Signature != nil {
			return t.Signature.String()
		}
		return "Function"
	default:
		return t.Tag.String()
	}
}

// Subst maps generic-variable ids to concrete TypeInfo, used when
// specialising a generic candidate during overload resolution (spec.md
// §4.5), mirroring the teacher's typesystem.Subst / Type.Apply pattern.
type Subst map[int]TypeInfo

// Apply substitutes generic variables in t according to s.
func (t TypeInfo) Apply(s Subst) TypeInfo {
	if t.Tag == Unknown && t.IsGeneric {
		if repl, ok := s[t.GenericVar]; ok {
			return repl
		}
		return t
	}
	switch t.Tag {
	case List:
		return NewList(t.Elem().Apply(s))
	case Tuple:
		items := make([]TypeInfo, len(t.Subtypes))
		for i, sub := range t.Subtypes {
			items[i] = sub.Apply(s)
		}
		return NewTuple(items...)
	case Function:
		if t.Signature == nil {
			return t
		}
		return NewFunction(t.Signature.Apply(s))
	default:
		return t
	}
}
