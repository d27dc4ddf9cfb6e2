package phpreflect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jward/phpreflect/docblock"
	"github.com/jward/phpreflect/internal/store"
	"github.com/jward/phpreflect/usestmt"
)

// callable holds what methods and free functions share.
type callable struct {
	r   *Reflector
	sym *Symbol
	// owner is the symbol whose file and namespace resolve doc types.
	owner *Symbol
}

// Symbol returns the registry record.
func (f *callable) Symbol() *Symbol { return f.sym }

func (f *callable) DocComment() string { return f.sym.DocComment }
func (f *callable) StartLine() int     { return f.sym.StartLine }
func (f *callable) EndLine() int       { return f.sym.EndLine }

// Annotations returns the sanitized doc comment lines.
func (f *callable) Annotations() []string { return docblock.Sanitize(f.sym.DocComment) }

// ReturnsReference reports a function declared with "function &name".
func (f *callable) ReturnsReference() bool { return f.sym.HasModifier(store.ModByRef) }

// HasReturnType reports whether a native return type is declared.
func (f *callable) HasReturnType() bool { return f.sym.TypeExpr != "" }

// Type returns the native return type.
func (f *callable) Type() TypeDescriptor { return NewTypeDescriptor(f.sym.TypeExpr, nil) }

// ReturnType is Type.
func (f *callable) ReturnType() TypeDescriptor { return f.Type() }

// DocTypes returns the names documented by the @return tag, resolved. Two
// @return tags are a *MalformedAnnotationError.
func (f *callable) DocTypes(ctx context.Context) ([]string, error) {
	expr, err := docblock.Parse(f.sym.DocComment).ReturnType()
	if err != nil {
		return nil, fmt.Errorf("phpreflect: %s: %w", f.describeName(), err)
	}
	return f.r.docTypeNames(ctx, f.owner, expr)
}

// ReturnDocTypes is DocTypes.
func (f *callable) ReturnDocTypes(ctx context.Context) ([]string, error) { return f.DocTypes(ctx) }

// ResolvedType returns the return type with its documented names.
func (f *callable) ResolvedType(ctx context.Context) (TypeDescriptor, error) {
	doc, err := f.DocTypes(ctx)
	if err != nil {
		return TypeDescriptor{}, err
	}
	return NewTypeDescriptor(f.sym.TypeExpr, doc), nil
}

// Parameters returns the parameters in declaration order.
func (f *callable) Parameters() ([]*Parameter, error) {
	params, err := f.r.reg.FunctionParams(f.sym.ID)
	if err != nil {
		return nil, fmt.Errorf("phpreflect: parameters of %s: %w", f.describeName(), err)
	}
	out := make([]*Parameter, len(params))
	for i, p := range params {
		out[i] = &Parameter{r: f.r, fp: p, fn: f}
	}
	return out, nil
}

// Parameter returns the parameter named name, with or without its "$".
func (f *callable) Parameter(name string) (*Parameter, error) {
	name = strings.TrimPrefix(name, "$")
	params, err := f.Parameters()
	if err != nil {
		return nil, err
	}
	for _, p := range params {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, notFound("parameter", name, f.describeName())
}

// NumberOfParameters counts all parameters.
func (f *callable) NumberOfParameters() (int, error) {
	params, err := f.Parameters()
	return len(params), err
}

// NumberOfRequiredParameters counts the parameters up to and including the
// last one without a default.
func (f *callable) NumberOfRequiredParameters() (int, error) {
	params, err := f.Parameters()
	if err != nil {
		return 0, err
	}
	n := 0
	for i, p := range params {
		if !p.IsOptional() {
			n = i + 1
		}
	}
	return n, nil
}

// IsVariadic reports whether the last parameter is variadic.
func (f *callable) IsVariadic() (bool, error) {
	params, err := f.Parameters()
	if err != nil || len(params) == 0 {
		return false, err
	}
	return params[len(params)-1].IsVariadic(), nil
}

// Attributes returns the attributes of the function.
func (f *callable) Attributes() ([]*Attribute, error) {
	if err := f.r.version.require(FeatureAttributes); err != nil {
		return nil, err
	}
	return f.r.attributes(store.TargetSymbol, f.sym.ID)
}

func (f *callable) describeName() string {
	if f.sym.Kind == store.KindMethod {
		return f.owner.Name + "::" + f.sym.Name + "()"
	}
	return f.sym.Name + "()"
}

// signature renders "name(params): type" for String.
func (f *callable) signature() string {
	var b strings.Builder
	if f.ReturnsReference() {
		b.WriteByte('&')
	}
	b.WriteString(f.sym.Name)
	b.WriteByte('(')
	if params, err := f.Parameters(); err == nil {
		for i, p := range params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.declaration())
		}
	}
	b.WriteByte(')')
	if f.HasReturnType() {
		b.WriteString(": ")
		b.WriteString(f.sym.TypeExpr)
	}
	return b.String()
}

// describe appends the documented return type to a rendering.
func (f *callable) describe(ctx context.Context, s string) (string, error) {
	doc, err := f.DocTypes(ctx)
	if err != nil {
		return "", err
	}
	if len(doc) > 0 {
		s += " @return " + strings.Join(doc, "|")
	}
	return s, nil
}

// Method wraps a class method.
type Method struct {
	callable
	class *Class
}

func newMethod(r *Reflector, sym *Symbol, class *Class, source *Symbol) *Method {
	return &Method{callable: callable{r: r, sym: sym, owner: source}, class: class}
}

func (m *Method) Name() string { return m.sym.Name }

// Class returns the declaring class.
func (m *Method) Class() *Class { return m.class }

func (m *Method) IsPublic() bool    { return m.sym.Visibility == "public" || m.sym.Visibility == "" }
func (m *Method) IsProtected() bool { return m.sym.Visibility == "protected" }
func (m *Method) IsPrivate() bool   { return m.sym.Visibility == "private" }
func (m *Method) IsStatic() bool    { return m.sym.HasModifier("static") }
func (m *Method) IsAbstract() bool  { return m.sym.HasModifier("abstract") }
func (m *Method) IsFinal() bool     { return m.sym.HasModifier("final") }

// IsConstructor reports __construct.
func (m *Method) IsConstructor() bool { return strings.EqualFold(m.sym.Name, "__construct") }

func (m *Method) String() string {
	var b strings.Builder
	b.WriteString("Method [ ")
	if m.class.IsInternal() {
		b.WriteString("<internal> ")
	} else {
		b.WriteString("<user> ")
	}
	for _, mod := range m.sym.Modifiers {
		if mod == "abstract" || mod == "final" || mod == "static" {
			b.WriteString(mod)
			b.WriteByte(' ')
		}
	}
	b.WriteString(m.sym.Visibility)
	b.WriteString(" method ")
	b.WriteString(m.signature())
	b.WriteString(" ]")
	return b.String()
}

// Describe is String followed by the documented return type.
func (m *Method) Describe(ctx context.Context) (string, error) {
	return m.describe(ctx, m.String())
}

// Function wraps a free function.
type Function struct {
	callable
}

// Name returns the fully qualified name.
func (fn *Function) Name() string { return fn.sym.Name }

func (fn *Function) ShortName() string     { return usestmt.ShortName(fn.sym.Name) }
func (fn *Function) NamespaceName() string { return usestmt.NamespaceOf(fn.sym.Name) }
func (fn *Function) IsInternal() bool      { return fn.sym.FileID == nil }

// FileName returns the path of the declaring file.
func (fn *Function) FileName() (string, error) {
	if fn.sym.FileID == nil {
		return "", nil
	}
	f, err := fn.r.reg.FileByID(*fn.sym.FileID)
	if err != nil || f == nil {
		return "", err
	}
	return f.Path, nil
}

func (fn *Function) String() string {
	return "Function [ <user> function " + fn.signature() + " ]"
}

// Describe is String followed by the documented return type.
func (fn *Function) Describe(ctx context.Context) (string, error) {
	return fn.describe(ctx, fn.String())
}
