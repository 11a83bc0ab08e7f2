package types

import (
	"fmt"
	"strings"
)

// Param is one parameter slot of a Signature: a name (possibly empty for an
// unnamed lambda parameter, spec.md §4.1) and its type.
type Param struct {
	Name string
	Type TypeInfo
}

// Signature is (non-locals, partial-applied values, parameters, return
// type) per spec.md §3/GLOSSARY. ContextConstraints records the type-class
// constraints a generic signature still carries (spec.md: "context
// constraints"); Apply carries it over unchanged, and nothing else reads
// it: overload resolution (resolver/type_resolver.go) decides genericity
// through IsGeneric, which looks only at Params and Return.
type Signature struct {
	Nonlocals []Param
	Partial   []Param
	Params    []Param
	Return    TypeInfo

	ContextConstraints []string
}

// NewSignature builds a concrete Signature with no non-locals/partial
// residue, the common case for a freshly parsed function literal.
func NewSignature(params []Param, ret TypeInfo) *Signature {
	return &Signature{Params: params, Return: ret}
}

// IsGeneric reports whether any parameter or the return type still carries
// a generic variable.
func (s *Signature) IsGeneric() bool {
	for _, p := range s.Params {
		if p.Type.IsGeneric {
			return true
		}
	}
	return s.Return.IsGeneric
}

// ResolveReturnType fills an Unknown return type with t; if the existing
// return type is already concrete and disagrees with t it reports
// ReturnTypeMismatch via the bool result (spec.md §3: resolve_return_type).
func (s *Signature) ResolveReturnType(t TypeInfo) (ok bool) {
	if s.Return.Tag == Unknown {
		s.Return = t
		return true
	}
	return s.Return.Equal(t)
}

// Equal compares two signatures structurally (params + return only; not
// names).
func (s *Signature) Equal(other *Signature) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.Params) != len(other.Params) {
		return false
	}
	for i := range s.Params {
		if !s.Params[i].Type.Equal(other.Params[i].Type) {
			return false
		}
	}
	return s.Return.Equal(other.Return)
}

// Apply substitutes generic variables throughout the signature, returning a
// fresh specialised Signature (used when a generic builtin such as
// subscript is specialised against concrete argument types, spec.md §4.5).
func (s *Signature) Apply(sub Subst) *Signature {
	out := &Signature{Return: s.Return.Apply(sub), ContextConstraints: s.ContextConstraints}
	out.Nonlocals = applyParams(s.Nonlocals, sub)
	out.Partial = applyParams(s.Partial, sub)
	out.Params = applyParams(s.Params, sub)
	return out
}

func applyParams(ps []Param, sub Subst) []Param {
	if ps == nil {
		return nil
	}
	out := make([]Param, len(ps))
	for i, p := range ps {
		out[i] = Param{Name: p.Name, Type: p.Type.Apply(sub)}
	}
	return out
}

// Match checks whether the supplied argument types structurally match this
// signature's parameter list (spec.md §4.5 overload resolution, step 2). On
// success it returns the substitution needed to specialise any generic
// parameters plus the remaining (unconsumed) parameters.
func (s *Signature) Match(args []TypeInfo) (sub Subst, remaining []Param, ok bool) {
	if len(args) > len(s.Params) {
		return nil, nil, false
	}
	sub = Subst{}
	for i, a := range args {
		p := s.Params[i]
		if p.Type.IsGeneric {
			if existing, bound := sub[p.Type.GenericVar]; bound && !existing.Equal(a) {
				return nil, nil, false
			}
			sub[p.Type.GenericVar] = a
			continue
		}
		if !p.Type.Equal(a) {
			return nil, nil, false
		}
	}
	return sub, s.Params[len(args):], true
}

func (s *Signature) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		if p.Name != "" {
			parts[i] = fmt.Sprintf("%s:%s", p.Name, p.Type)
		} else {
			parts[i] = p.Type.String()
		}
	}
	return fmt.Sprintf("(|%s| -> %s)", strings.Join(parts, " "), s.Return)
}

// ParamsSize sums the stack size of the parameter list.
func (s *Signature) ParamsSize() int {
	n := 0
	for _, p := range s.Params {
		n += p.Type.Size()
	}
	return n
}

// NonlocalsSize sums the stack size of the non-local list.
func (s *Signature) NonlocalsSize() int {
	n := 0
	for _, p := range s.Nonlocals {
		n += p.Type.Size()
	}
	return n
}
