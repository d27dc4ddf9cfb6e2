package phpreflect

import (
	"strings"

	"github.com/jward/phpreflect/docblock"
	"github.com/jward/phpreflect/usestmt"
)

// MixedType is the name reported for a declaration without a type.
const MixedType = "mixed"

// TypeDescriptor is the type of a property, parameter, return value or
// constant: the native type names in declaration order, and the names
// derived from the doc comment, if any. Names is never empty.
type TypeDescriptor struct {
	names    []string
	docNames []string
}

// NewTypeDescriptor splits a native type expression such as "?Foo" or
// "int|string" into its names.
func NewTypeDescriptor(native string, docNames []string) TypeDescriptor {
	names := docblock.SplitTypes(native)
	if len(names) == 0 {
		names = []string{MixedType}
	}
	return TypeDescriptor{names: names, docNames: docNames}
}

// Names returns the native type names.
func (t TypeDescriptor) Names() []string {
	return append([]string(nil), t.names...)
}

// DocNames returns the documentation-derived names, resolved to fully
// qualified class names where possible.
func (t TypeDescriptor) DocNames() []string {
	return append([]string(nil), t.docNames...)
}

// IsDeclared reports whether the declaration carries a native type.
func (t TypeDescriptor) IsDeclared() bool {
	return !(len(t.names) == 1 && t.names[0] == MixedType)
}

// AllowsNull reports whether null satisfies the type.
func (t TypeDescriptor) AllowsNull() bool {
	return t.Has("null") || t.Has(MixedType)
}

// IsBuiltin reports whether every name is a PHP type keyword.
func (t TypeDescriptor) IsBuiltin() bool {
	for _, n := range t.names {
		if !usestmt.IsReserved(n) {
			return false
		}
	}
	return true
}

// Has reports whether name is one of the native names. Comparison ignores
// case and a leading "\".
func (t TypeDescriptor) Has(name string) bool {
	name = strings.TrimLeft(name, `\`)
	for _, n := range t.names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// String joins the native names with "|" in declaration order.
func (t TypeDescriptor) String() string {
	return strings.Join(t.names, "|")
}
