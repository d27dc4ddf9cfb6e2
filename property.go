package phpreflect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jward/phpreflect/docblock"
	"github.com/jward/phpreflect/internal/store"
)

// Property wraps a declared property, or a dynamic one documented with an
// @property, @property-read or @property-write tag on the class.
type Property struct {
	r     *Reflector
	sym   *Symbol
	class *Class
	// source holds the declaration; for dynamic properties it is the class
	// carrying the tag.
	source     *Symbol
	tag        *propertyTag
	accessible bool
}

// propertyTag is the parsed value of an @property tag.
type propertyTag struct {
	name   string
	typ    string
	access string // "", "read" or "write"
}

// parsePropertyTag reads "Type $name description" or "$name". ok is false
// when the tag names no variable.
func parsePropertyTag(tag docblock.Tag) (propertyTag, bool) {
	tp := propertyTag{access: strings.TrimPrefix(strings.TrimPrefix(tag.Name, "property"), "-")}
	typ := docblock.LeadingType(tag.Value)
	rest := strings.TrimSpace(strings.TrimPrefix(tag.Value, typ))
	if strings.HasPrefix(typ, "$") {
		typ, rest = "", typ
	}
	name := docblock.LeadingType(rest)
	if !strings.HasPrefix(name, "$") || len(name) < 2 {
		return propertyTag{}, false
	}
	tp.name = name[1:]
	tp.typ = typ
	return tp, true
}

func newProperty(r *Reflector, sym *Symbol, class *Class, source *Symbol) *Property {
	return &Property{r: r, sym: sym, class: class, source: source}
}

func newDynamicProperty(r *Reflector, tp propertyTag, declaring *Class) *Property {
	sym := &Symbol{
		Name:       tp.name,
		Kind:       store.KindProperty,
		Visibility: "public",
		FileID:     declaring.sym.FileID,
		StartLine:  declaring.sym.StartLine,
	}
	return &Property{r: r, sym: sym, class: declaring, source: declaring.sym, tag: &tp}
}

// Name returns the property name without "$".
func (p *Property) Name() string { return p.sym.Name }

// Class returns the declaring class.
func (p *Property) Class() *Class { return p.class }

func (p *Property) IsPublic() bool    { return p.sym.Visibility == "public" || p.sym.Visibility == "" }
func (p *Property) IsProtected() bool { return p.sym.Visibility == "protected" }
func (p *Property) IsPrivate() bool   { return p.sym.Visibility == "private" }
func (p *Property) IsStatic() bool    { return p.sym.HasModifier("static") }

// IsDynamic reports a property known only from a doc comment tag.
func (p *Property) IsDynamic() bool { return p.tag != nil }

// IsReadOnly reports a readonly property. An @property-read tag counts.
func (p *Property) IsReadOnly() (bool, error) {
	if err := p.r.version.require(FeatureReadonlyProps); err != nil {
		return false, err
	}
	return p.readonly(), nil
}

func (p *Property) readonly() bool {
	if p.tag != nil {
		return p.tag.access == "read"
	}
	return p.sym.HasModifier("readonly")
}

// IsPromoted reports a property declared by a constructor parameter.
func (p *Property) IsPromoted() (bool, error) {
	if err := p.r.version.require(FeaturePromotedParams); err != nil {
		return false, err
	}
	return p.sym.HasModifier(store.ModPromoted), nil
}

func (p *Property) HasType() bool { return p.sym.TypeExpr != "" }

// Type returns the declared type. Dynamic properties have none.
func (p *Property) Type() TypeDescriptor { return NewTypeDescriptor(p.sym.TypeExpr, nil) }

// DocTypes returns the names documented by the @var tag, or by the tag
// that declares a dynamic property, resolved.
func (p *Property) DocTypes(ctx context.Context) ([]string, error) {
	var expr string
	if p.tag != nil {
		expr = p.tag.typ
	} else {
		var err error
		if expr, err = docblock.Parse(p.sym.DocComment).VarType(); err != nil {
			return nil, fmt.Errorf("phpreflect: %s::$%s: %w", p.class.Name(), p.sym.Name, err)
		}
	}
	return p.r.docTypeNames(ctx, p.source, expr)
}

// ResolvedType returns the declared type with its documented names.
func (p *Property) ResolvedType(ctx context.Context) (TypeDescriptor, error) {
	doc, err := p.DocTypes(ctx)
	if err != nil {
		return TypeDescriptor{}, err
	}
	return NewTypeDescriptor(p.sym.TypeExpr, doc), nil
}

// HasDefaultValue reports a default in the declaration. Untyped properties
// default to null.
func (p *Property) HasDefaultValue() bool {
	if p.tag != nil || p.sym.HasModifier(store.ModPromoted) {
		return false
	}
	return p.sym.HasDefault || p.sym.TypeExpr == ""
}

// DefaultValue returns the default expression, "null" for an untyped
// property without one, or "" when there is no default.
func (p *Property) DefaultValue() string {
	if !p.HasDefaultValue() {
		return ""
	}
	if !p.sym.HasDefault {
		return "null"
	}
	return p.sym.DefaultExpr
}

func (p *Property) DocComment() string {
	if p.tag != nil {
		return ""
	}
	return p.sym.DocComment
}

// Annotations returns the sanitized doc comment lines. A dynamic property
// reports its declaring tag.
func (p *Property) Annotations() []string {
	if p.tag != nil {
		for _, line := range docblock.Sanitize(p.source.DocComment) {
			if t, ok := docblock.ParseTag(line); ok && strings.HasPrefix(t.Name, "property") {
				if tp, ok := parsePropertyTag(t); ok && tp.name == p.tag.name {
					return []string{line}
				}
			}
		}
		return []string{}
	}
	return docblock.Sanitize(p.sym.DocComment)
}

// Attributes returns the attributes of the property.
func (p *Property) Attributes() ([]*Attribute, error) {
	if err := p.r.version.require(FeatureAttributes); err != nil {
		return nil, err
	}
	if p.tag != nil {
		return []*Attribute{}, nil
	}
	return p.r.attributes(store.TargetSymbol, p.sym.ID)
}

// SetAccessible allows Value and SetValue on a non-public property. Since
// PHP 8.1 every property is accessible and the call has no effect.
func (p *Property) SetAccessible(accessible bool) { p.accessible = accessible }

// IsAccessible reports whether Value and SetValue may be used.
func (p *Property) IsAccessible() bool {
	return p.IsPublic() || p.accessible || p.r.version.AtLeast(Version{Major: 8, Minor: 1})
}

func (p *Property) checkAccess(inst *Instance) error {
	if !p.IsAccessible() {
		return fmt.Errorf("phpreflect: cannot access non-public property %s::$%s", p.class.Name(), p.sym.Name)
	}
	if p.IsStatic() {
		return nil
	}
	if inst == nil {
		return fmt.Errorf("phpreflect: %s::$%s is not static and needs an instance", p.class.Name(), p.sym.Name)
	}
	if inst.class.sym.ID == p.class.sym.ID {
		return nil
	}
	ok, err := inst.class.IsSubclassOf(p.class.Name())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("phpreflect: given object is a %s, not a %s", inst.class.Name(), p.class.Name())
	}
	return nil
}

// Value returns the value of the property on inst. Static properties
// ignore inst and read the class value.
func (p *Property) Value(inst *Instance) (string, error) {
	if err := p.checkAccess(inst); err != nil {
		return "", err
	}
	if p.IsStatic() {
		return p.class.StaticPropertyValue(p.sym.Name)
	}
	if v, ok := inst.values[p.sym.Name]; ok {
		return v, nil
	}
	if p.sym.TypeExpr != "" {
		return "", fmt.Errorf("phpreflect: typed property %s::$%s must not be accessed before initialization", p.class.Name(), p.sym.Name)
	}
	return "null", nil
}

// SetValue assigns value on inst, or on the class for a static property.
// A readonly property can be initialized once.
func (p *Property) SetValue(inst *Instance, value string) error {
	if err := p.checkAccess(inst); err != nil {
		return err
	}
	if p.IsStatic() {
		return p.class.SetStaticPropertyValue(p.sym.Name, value)
	}
	if p.readonly() {
		if _, set := inst.values[p.sym.Name]; set || p.tag != nil {
			return fmt.Errorf("phpreflect: cannot modify readonly property %s::$%s", p.class.Name(), p.sym.Name)
		}
	}
	inst.values[p.sym.Name] = value
	return nil
}

// IsInitialized reports whether inst holds a value for the property.
func (p *Property) IsInitialized(inst *Instance) bool {
	if p.IsStatic() {
		return true
	}
	if inst == nil {
		return false
	}
	_, ok := inst.values[p.sym.Name]
	return ok || p.sym.TypeExpr == ""
}

func (p *Property) String() string {
	var b strings.Builder
	b.WriteString("Property [ ")
	if p.tag != nil {
		b.WriteString("<dynamic> ")
	} else {
		b.WriteString("<default> ")
	}
	b.WriteString(p.sym.Visibility)
	for _, mod := range p.sym.Modifiers {
		if mod == "static" || mod == "readonly" {
			b.WriteByte(' ')
			b.WriteString(mod)
		}
	}
	if t := p.sym.TypeExpr; t != "" {
		b.WriteByte(' ')
		b.WriteString(t)
	} else if p.tag != nil && p.tag.typ != "" {
		b.WriteByte(' ')
		b.WriteString(p.tag.typ)
	}
	b.WriteString(" $")
	b.WriteString(p.sym.Name)
	if p.sym.HasDefault {
		b.WriteString(" = ")
		b.WriteString(p.sym.DefaultExpr)
	}
	b.WriteString(" ]")
	return b.String()
}

// Describe is String followed by the documented type.
func (p *Property) Describe(ctx context.Context) (string, error) {
	doc, err := p.DocTypes(ctx)
	if err != nil {
		return "", err
	}
	s := p.String()
	if len(doc) > 0 {
		s += " @var " + strings.Join(doc, "|")
	}
	return s, nil
}
