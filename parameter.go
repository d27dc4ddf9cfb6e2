package phpreflect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jward/phpreflect/docblock"
	"github.com/jward/phpreflect/internal/store"
)

// Parameter wraps one parameter of a method or function.
type Parameter struct {
	r  *Reflector
	fp *FunctionParam
	fn *callable
}

// Name returns the parameter name without "$".
func (p *Parameter) Name() string { return p.fp.Name }

// Position returns the zero-based position.
func (p *Parameter) Position() int { return p.fp.Ordinal }

func (p *Parameter) HasType() bool { return p.fp.TypeExpr != "" }

// Type returns the declared type. A variadic "int ...$xs" reports int.
func (p *Parameter) Type() TypeDescriptor { return NewTypeDescriptor(p.fp.TypeExpr, nil) }

// DocTypes returns the names documented by "@param T $name" on the
// function, resolved.
func (p *Parameter) DocTypes(ctx context.Context) ([]string, error) {
	expr, err := docblock.Parse(p.fn.sym.DocComment).ParamType(p.fp.Name)
	if err != nil {
		return nil, fmt.Errorf("phpreflect: %s: %w", p.fn.describeName(), err)
	}
	return p.r.docTypeNames(ctx, p.fn.owner, expr)
}

// ResolvedType returns the declared type with its documented names.
func (p *Parameter) ResolvedType(ctx context.Context) (TypeDescriptor, error) {
	doc, err := p.DocTypes(ctx)
	if err != nil {
		return TypeDescriptor{}, err
	}
	return NewTypeDescriptor(p.fp.TypeExpr, doc), nil
}

// AllowsNull reports whether null may be passed.
func (p *Parameter) AllowsNull() bool {
	if p.Type().AllowsNull() {
		return true
	}
	return strings.EqualFold(p.fp.DefaultExpr, "null")
}

// IsOptional reports a parameter with a default or a variadic one.
func (p *Parameter) IsOptional() bool { return p.fp.HasDefault || p.fp.IsVariadic }

func (p *Parameter) IsDefaultValueAvailable() bool { return p.fp.HasDefault }

// DefaultValue returns the default expression as written.
func (p *Parameter) DefaultValue() (string, error) {
	if !p.fp.HasDefault {
		return "", fmt.Errorf("phpreflect: parameter $%s of %s has no default value", p.fp.Name, p.fn.describeName())
	}
	return p.fp.DefaultExpr, nil
}

func (p *Parameter) IsVariadic() bool          { return p.fp.IsVariadic }
func (p *Parameter) IsPassedByReference() bool { return p.fp.IsByRef }

// IsPromoted reports a constructor parameter that declares a property.
func (p *Parameter) IsPromoted() (bool, error) {
	if err := p.r.version.require(FeaturePromotedParams); err != nil {
		return false, err
	}
	return p.fp.IsPromoted(), nil
}

// Attributes returns the attributes of the parameter.
func (p *Parameter) Attributes() ([]*Attribute, error) {
	if err := p.r.version.require(FeatureAttributes); err != nil {
		return nil, err
	}
	return p.r.attributes(store.TargetParam, p.fp.ID)
}

// DocComment returns the doc comment of the declaring function.
func (p *Parameter) DocComment() string { return p.fn.sym.DocComment }

// Annotations returns the lines of the function's doc comment that mention
// this parameter.
func (p *Parameter) Annotations() []string {
	return docblock.Parse(p.fn.sym.DocComment).Mentioning(p.fp.Name)
}

// declaration renders the parameter as it appears in a signature.
func (p *Parameter) declaration() string {
	var b strings.Builder
	if p.fp.TypeExpr != "" {
		b.WriteString(p.fp.TypeExpr)
		b.WriteByte(' ')
	}
	if p.fp.IsByRef {
		b.WriteByte('&')
	}
	if p.fp.IsVariadic {
		b.WriteString("...")
	}
	b.WriteByte('$')
	b.WriteString(p.fp.Name)
	if p.fp.HasDefault {
		b.WriteString(" = ")
		b.WriteString(p.fp.DefaultExpr)
	}
	return b.String()
}

func (p *Parameter) String() string {
	req := "<required>"
	if p.IsOptional() {
		req = "<optional>"
	}
	return fmt.Sprintf("Parameter #%d [ %s %s ]", p.fp.Ordinal, req, p.declaration())
}
