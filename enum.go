package phpreflect

import (
	"fmt"

	"github.com/jward/phpreflect/docblock"
	"github.com/jward/phpreflect/internal/store"
)

// Enum wraps an enumeration. Every Class query is available on it.
type Enum struct {
	*Class
}

// IsBacked reports whether the cases carry scalar values.
func (e *Enum) IsBacked() bool { return e.sym.TypeExpr != "" }

// BackingType returns int or string for a backed enum, nil otherwise.
func (e *Enum) BackingType() *TypeDescriptor {
	if !e.IsBacked() {
		return nil
	}
	t := NewTypeDescriptor(e.sym.TypeExpr, nil)
	return &t
}

// Cases returns the cases in declaration order.
func (e *Enum) Cases() ([]*EnumCase, error) {
	children, err := e.r.reg.SymbolChildren(e.sym.ID)
	if err != nil {
		return nil, fmt.Errorf("phpreflect: cases of %s: %w", e.sym.Name, err)
	}
	var cases []*EnumCase
	for _, child := range children {
		if child.Kind == store.KindCase {
			cases = append(cases, &EnumCase{sym: child, enum: e})
		}
	}
	return cases, nil
}

// Case returns the case named name. Case names are case-sensitive.
func (e *Enum) Case(name string) (*EnumCase, error) {
	cases, err := e.Cases()
	if err != nil {
		return nil, err
	}
	for _, c := range cases {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, notFound("case", name, e.sym.Name)
}

// HasCase reports whether a case named name exists.
func (e *Enum) HasCase(name string) (bool, error) {
	_, err := e.Case(name)
	return has(err)
}

// EnumCase wraps one case of an enumeration.
type EnumCase struct {
	sym  *Symbol
	enum *Enum
}

func (c *EnumCase) Name() string { return c.sym.Name }
func (c *EnumCase) Enum() *Enum  { return c.enum }

// Value returns the backing value expression, or "" for a pure enum.
func (c *EnumCase) Value() string { return c.sym.DefaultExpr }

func (c *EnumCase) DocComment() string    { return c.sym.DocComment }
func (c *EnumCase) Annotations() []string { return docblock.Sanitize(c.sym.DocComment) }

// Attributes returns the attributes of the case.
func (c *EnumCase) Attributes() ([]*Attribute, error) {
	return c.enum.r.attributes(store.TargetSymbol, c.sym.ID)
}

func (c *EnumCase) String() string {
	if c.sym.HasDefault {
		return fmt.Sprintf("Case [ %s::%s = %s ]", c.enum.sym.Name, c.sym.Name, c.sym.DefaultExpr)
	}
	return fmt.Sprintf("Case [ %s::%s ]", c.enum.sym.Name, c.sym.Name)
}
