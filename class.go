package phpreflect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jward/phpreflect/docblock"
	"github.com/jward/phpreflect/internal/store"
	"github.com/jward/phpreflect/usestmt"
)

// Class wraps a declared class, interface, trait or enum.
type Class struct {
	r   *Reflector
	sym *Symbol
}

func newClass(r *Reflector, sym *Symbol) *Class {
	return &Class{r: r, sym: sym}
}

// Symbol returns the registry record.
func (c *Class) Symbol() *Symbol { return c.sym }

// Name returns the fully qualified name.
func (c *Class) Name() string { return c.sym.Name }

// ShortName returns the name without its namespace.
func (c *Class) ShortName() string { return usestmt.ShortName(c.sym.Name) }

// NamespaceName returns the namespace, or "" for the global namespace.
func (c *Class) NamespaceName() string { return usestmt.NamespaceOf(c.sym.Name) }

// Kind returns "class", "interface", "trait" or "enum".
func (c *Class) Kind() string { return c.sym.Kind }

func (c *Class) IsInterface() bool { return c.sym.Kind == store.KindInterface }
func (c *Class) IsTrait() bool     { return c.sym.Kind == store.KindTrait }
func (c *Class) IsEnum() bool      { return c.sym.Kind == store.KindEnum }

// IsAbstract reports an explicitly abstract class. Interfaces and traits
// count as abstract, as PHP reports them.
func (c *Class) IsAbstract() bool {
	return c.sym.HasModifier("abstract") || c.IsInterface() || c.IsTrait()
}

// IsFinal reports a final class. Enums are implicitly final.
func (c *Class) IsFinal() bool { return c.sym.HasModifier("final") || c.IsEnum() }

// IsReadOnly reports a readonly class.
func (c *Class) IsReadOnly() (bool, error) {
	if err := c.r.version.require(FeatureReadonlyClasses); err != nil {
		return false, err
	}
	return c.sym.HasModifier("readonly"), nil
}

// IsInstantiable reports whether objects of the class can be created.
func (c *Class) IsInstantiable() bool {
	return c.sym.Kind == store.KindClass && !c.sym.HasModifier("abstract")
}

// IsInternal reports a type built into the runtime.
func (c *Class) IsInternal() bool { return c.sym.FileID == nil }

// IsUserDefined reports a type declared in indexed source.
func (c *Class) IsUserDefined() bool { return c.sym.FileID != nil }

// FileName returns the path of the declaring file, or "" for built-ins.
func (c *Class) FileName() (string, error) {
	if c.sym.FileID == nil {
		return "", nil
	}
	f, err := c.r.reg.FileByID(*c.sym.FileID)
	if err != nil {
		return "", fmt.Errorf("phpreflect: file of %s: %w", c.sym.Name, err)
	}
	if f == nil {
		return "", nil
	}
	return f.Path, nil
}

func (c *Class) StartLine() int     { return c.sym.StartLine }
func (c *Class) EndLine() int       { return c.sym.EndLine }
func (c *Class) DocComment() string { return c.sym.DocComment }

// Annotations returns the sanitized lines of the class doc comment.
func (c *Class) Annotations() []string { return docblock.Sanitize(c.sym.DocComment) }

// UseStatements returns the imports of the declaring file.
func (c *Class) UseStatements(ctx context.Context) ([]usestmt.UseStatement, error) {
	imports, err := c.r.imports(ctx, c.sym)
	if err != nil {
		return nil, err
	}
	return imports.Uses, nil
}

// relationTargets returns the targets of c's relations of one kind in
// declaration order.
func (c *Class) relationTargets(kind string) ([]string, error) {
	rels, err := c.r.reg.Relations(c.sym.ID)
	if err != nil {
		return nil, fmt.Errorf("phpreflect: relations of %s: %w", c.sym.Name, err)
	}
	var out []string
	for _, rel := range rels {
		if rel.Kind == kind {
			out = append(out, rel.Target)
		}
	}
	return out, nil
}

// lookup returns the declared type named name, or nil when it is unknown.
func (c *Class) lookup(name string) (*Class, error) {
	sym, err := c.r.reg.TopLevelSymbol(name, store.TypeKinds...)
	if err != nil {
		return nil, fmt.Errorf("phpreflect: %s: %w", name, err)
	}
	if sym == nil {
		return nil, nil
	}
	return newClass(c.r, sym), nil
}

// ParentClass returns the parent of a class, or nil when it has none.
// Interfaces have no parent class.
func (c *Class) ParentClass() (*Class, error) {
	if c.IsInterface() {
		return nil, nil
	}
	targets, err := c.relationTargets(store.RelExtends)
	if err != nil || len(targets) == 0 {
		return nil, err
	}
	parent, err := c.lookup(targets[0])
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, notFound("class", targets[0], "")
	}
	return parent, nil
}

// ancestors returns the parent chain, nearest first. Unknown parents end
// the chain.
func (c *Class) ancestors() ([]*Class, error) {
	var chain []*Class
	seen := map[int64]bool{c.sym.ID: true}
	for cur := c; ; {
		parent, err := cur.ParentClass()
		if err != nil {
			if isNotFound(err) {
				return chain, nil
			}
			return nil, err
		}
		if parent == nil || seen[parent.sym.ID] {
			return chain, nil
		}
		seen[parent.sym.ID] = true
		chain = append(chain, parent)
		cur = parent
	}
}

// InterfaceNames returns every interface c implements, including those
// inherited from parents and extended by other interfaces. Names the
// registry does not know are reported as written.
func (c *Class) InterfaceNames() ([]string, error) {
	var names []string
	seen := map[string]bool{}
	var visitIface func(name string) error
	visitIface = func(name string) error {
		key := strings.ToLower(name)
		if seen[key] {
			return nil
		}
		seen[key] = true
		iface, err := c.lookup(name)
		if err != nil {
			return err
		}
		if iface == nil {
			names = append(names, name)
			return nil
		}
		names = append(names, iface.Name())
		parents, err := iface.relationTargets(store.RelExtends)
		if err != nil {
			return err
		}
		for _, p := range parents {
			if err := visitIface(p); err != nil {
				return err
			}
		}
		return nil
	}

	chain := []*Class{c}
	if c.IsInterface() {
		parents, err := c.relationTargets(store.RelExtends)
		if err != nil {
			return nil, err
		}
		for _, p := range parents {
			if err := visitIface(p); err != nil {
				return nil, err
			}
		}
		return names, nil
	}

	ancestors, err := c.ancestors()
	if err != nil {
		return nil, err
	}
	chain = append(chain, ancestors...)
	for _, cls := range chain {
		ifaces, err := cls.relationTargets(store.RelImplements)
		if err != nil {
			return nil, err
		}
		for _, name := range ifaces {
			if err := visitIface(name); err != nil {
				return nil, err
			}
		}
	}
	return names, nil
}

// TraitNames returns the traits c uses directly.
func (c *Class) TraitNames() ([]string, error) {
	return c.relationTargets(store.RelUses)
}

// traits returns the known traits used by c, including traits used by
// those traits.
func (c *Class) traits() ([]*Class, error) {
	var out []*Class
	seen := map[int64]bool{}
	var visit func(cls *Class) error
	visit = func(cls *Class) error {
		names, err := cls.TraitNames()
		if err != nil {
			return err
		}
		for _, name := range names {
			t, err := c.lookup(name)
			if err != nil {
				return err
			}
			if t == nil || seen[t.sym.ID] {
				continue
			}
			seen[t.sym.ID] = true
			out = append(out, t)
			if err := visit(t); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(c); err != nil {
		return nil, err
	}
	return out, nil
}

// IsSubclassOf reports whether c extends or implements name. A class is
// not a subclass of itself. name must be a declared type.
func (c *Class) IsSubclassOf(name string) (bool, error) {
	other, err := c.lookup(name)
	if err != nil {
		return false, err
	}
	if other == nil {
		return false, notFound("class", name, "")
	}
	if other.sym.ID == c.sym.ID {
		return false, nil
	}
	ancestors, err := c.ancestors()
	if err != nil {
		return false, err
	}
	for _, a := range ancestors {
		if a.sym.ID == other.sym.ID {
			return true, nil
		}
	}
	ifaces, err := c.InterfaceNames()
	if err != nil {
		return false, err
	}
	for _, i := range ifaces {
		if strings.EqualFold(i, other.Name()) {
			return true, nil
		}
	}
	return false, nil
}

// ImplementsInterface reports whether c implements the interface name. An
// interface implements itself.
func (c *Class) ImplementsInterface(name string) (bool, error) {
	iface, err := c.lookup(name)
	if err != nil {
		return false, err
	}
	if iface == nil || !iface.IsInterface() {
		return false, notFound("interface", name, "")
	}
	if iface.sym.ID == c.sym.ID {
		return true, nil
	}
	return c.IsSubclassOf(iface.Name())
}

// member is a symbol visible on a class. class is the declaring class as
// PHP reports it; source is the type whose body holds the declaration,
// which differs for trait members.
type member struct {
	sym    *Symbol
	class  *Class
	source *Class
}

// members collects the members of kind visible on c: its own, those of its
// traits, those inherited from parents and, for methods and constants,
// those of its interfaces. The first declaration of a name wins.
func (c *Class) members(kind string) ([]member, error) {
	foldCase := kind == store.KindMethod
	key := func(name string) string {
		if foldCase {
			return strings.ToLower(name)
		}
		return name
	}

	var out []member
	seen := map[string]bool{}
	add := func(owner, declaring *Class, inherited bool) error {
		children, err := c.r.reg.SymbolChildren(owner.sym.ID)
		if err != nil {
			return fmt.Errorf("phpreflect: members of %s: %w", owner.sym.Name, err)
		}
		for _, child := range children {
			if child.Kind != kind || seen[key(child.Name)] {
				continue
			}
			// Parent privates stay private, except methods which PHP lists.
			if inherited && kind != store.KindMethod && child.Visibility == "private" {
				continue
			}
			seen[key(child.Name)] = true
			out = append(out, member{sym: child, class: declaring, source: owner})
		}
		return nil
	}
	addWithTraits := func(cls *Class, inherited bool) error {
		if err := add(cls, cls, inherited); err != nil {
			return err
		}
		traits, err := cls.traits()
		if err != nil {
			return err
		}
		for _, t := range traits {
			// Trait members belong to the using class.
			if err := add(t, cls, inherited); err != nil {
				return err
			}
		}
		return nil
	}

	if err := addWithTraits(c, false); err != nil {
		return nil, err
	}
	ancestors, err := c.ancestors()
	if err != nil {
		return nil, err
	}
	for _, a := range ancestors {
		if err := addWithTraits(a, true); err != nil {
			return nil, err
		}
	}

	if kind == store.KindMethod || kind == store.KindConstant {
		ifaces, err := c.InterfaceNames()
		if err != nil {
			return nil, err
		}
		for _, name := range ifaces {
			iface, err := c.lookup(name)
			if err != nil {
				return nil, err
			}
			if iface != nil {
				if err := add(iface, iface, true); err != nil {
					return nil, err
				}
			}
		}
	}
	return out, nil
}

// Methods returns the methods of c, own first, then inherited.
func (c *Class) Methods() ([]*Method, error) {
	ms, err := c.members(store.KindMethod)
	if err != nil {
		return nil, err
	}
	out := make([]*Method, len(ms))
	for i, m := range ms {
		out[i] = newMethod(c.r, m.sym, m.class, m.source.sym)
	}
	return out, nil
}

// Method returns the method named name. Method names are case-insensitive.
func (c *Class) Method(name string) (*Method, error) {
	methods, err := c.Methods()
	if err != nil {
		return nil, err
	}
	for _, m := range methods {
		if strings.EqualFold(m.Name(), name) {
			return m, nil
		}
	}
	return nil, notFound("method", name, c.sym.Name)
}

// HasMethod reports whether a method named name exists.
func (c *Class) HasMethod(name string) (bool, error) {
	_, err := c.Method(name)
	return has(err)
}

// Constructor returns __construct, or nil when c has none.
func (c *Class) Constructor() (*Method, error) {
	m, err := c.Method("__construct")
	if isNotFound(err) {
		return nil, nil
	}
	return m, err
}

// Properties returns the declared properties of c followed by the dynamic
// properties documented with @property, @property-read and @property-write
// tags on c or its parents.
func (c *Class) Properties() ([]*Property, error) {
	ms, err := c.members(store.KindProperty)
	if err != nil {
		return nil, err
	}
	out := make([]*Property, 0, len(ms))
	declared := map[string]bool{}
	for _, m := range ms {
		out = append(out, newProperty(c.r, m.sym, m.class, m.source.sym))
		declared[m.sym.Name] = true
	}

	dynamic, err := c.dynamicProperties()
	if err != nil {
		return nil, err
	}
	for _, p := range dynamic {
		if !declared[p.Name()] {
			declared[p.Name()] = true
			out = append(out, p)
		}
	}
	return out, nil
}

// dynamicProperties reads the @property tags of c and its parents.
func (c *Class) dynamicProperties() ([]*Property, error) {
	chain := []*Class{c}
	ancestors, err := c.ancestors()
	if err != nil {
		return nil, err
	}
	chain = append(chain, ancestors...)

	var out []*Property
	seen := map[string]bool{}
	for _, cls := range chain {
		block := docblock.Parse(cls.sym.DocComment)
		for _, tagName := range []string{"property", "property-read", "property-write"} {
			for _, tag := range block.Tags(tagName) {
				tp, ok := parsePropertyTag(tag)
				if !ok || seen[tp.name] {
					continue
				}
				seen[tp.name] = true
				out = append(out, newDynamicProperty(c.r, tp, cls))
			}
		}
	}
	return out, nil
}

// Property returns the property named name, with or without its "$".
func (c *Class) Property(name string) (*Property, error) {
	name = strings.TrimPrefix(name, "$")
	props, err := c.Properties()
	if err != nil {
		return nil, err
	}
	for _, p := range props {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, notFound("property", name, c.sym.Name)
}

// HasProperty reports whether a declared or dynamic property named name
// exists.
func (c *Class) HasProperty(name string) (bool, error) {
	_, err := c.Property(name)
	return has(err)
}

// Constants returns the class constants of c, own first, then inherited.
func (c *Class) Constants() ([]*Constant, error) {
	ms, err := c.members(store.KindConstant)
	if err != nil {
		return nil, err
	}
	out := make([]*Constant, len(ms))
	for i, m := range ms {
		out[i] = &Constant{r: c.r, sym: m.sym, class: m.class, source: m.source.sym}
	}
	return out, nil
}

// Constant returns the constant named name.
func (c *Class) Constant(name string) (*Constant, error) {
	consts, err := c.Constants()
	if err != nil {
		return nil, err
	}
	for _, k := range consts {
		if k.Name() == name {
			return k, nil
		}
	}
	return nil, notFound("constant", name, c.sym.Name)
}

// HasConstant reports whether a constant named name exists.
func (c *Class) HasConstant(name string) (bool, error) {
	_, err := c.Constant(name)
	return has(err)
}

// ConstantValue returns the value expression of the constant name.
func (c *Class) ConstantValue(name string) (string, error) {
	k, err := c.Constant(name)
	if err != nil {
		return "", err
	}
	return k.Value(), nil
}

// staticProperty returns the declared static property name.
func (c *Class) staticProperty(name string) (*Property, error) {
	p, err := c.Property(name)
	if err != nil {
		if isNotFound(err) {
			return nil, notFound("static property", strings.TrimPrefix(name, "$"), c.sym.Name)
		}
		return nil, err
	}
	if !p.IsStatic() {
		return nil, notFound("static property", p.Name(), c.sym.Name)
	}
	return p, nil
}

// StaticPropertyValue returns the current value expression of a static
// property.
func (c *Class) StaticPropertyValue(name string) (string, error) {
	p, err := c.staticProperty(name)
	if err != nil {
		return "", err
	}
	v, err := c.r.reg.StaticValue(p.sym.ID)
	if err != nil {
		return "", fmt.Errorf("phpreflect: static %s::$%s: %w", c.sym.Name, p.Name(), err)
	}
	return v, nil
}

// SetStaticPropertyValue replaces the value of a static property.
func (c *Class) SetStaticPropertyValue(name, value string) error {
	p, err := c.staticProperty(name)
	if err != nil {
		return err
	}
	if err := c.r.reg.SetStaticValue(p.sym.ID, value); err != nil {
		return fmt.Errorf("phpreflect: static %s::$%s: %w", c.sym.Name, p.Name(), err)
	}
	return nil
}

// Attributes returns the attributes of c.
func (c *Class) Attributes() ([]*Attribute, error) {
	if err := c.r.version.require(FeatureAttributes); err != nil {
		return nil, err
	}
	return c.r.attributes(store.TargetSymbol, c.sym.ID)
}

// AllowsDynamicProperties reports whether undeclared properties may be
// created on instances without a deprecation: stdClass, or a class carrying
// #[AllowDynamicProperties] itself or on a parent.
func (c *Class) AllowsDynamicProperties() (bool, error) {
	if err := c.r.version.require(FeatureDynamicPropsFlag); err != nil {
		return false, err
	}
	ancestors, err := c.ancestors()
	if err != nil {
		return false, err
	}
	for _, cls := range append([]*Class{c}, ancestors...) {
		if strings.EqualFold(cls.Name(), "stdClass") {
			return true, nil
		}
		attrs, err := c.r.attributes(store.TargetSymbol, cls.sym.ID)
		if err != nil {
			return false, err
		}
		for _, a := range attrs {
			if strings.EqualFold(a.Name(), "AllowDynamicProperties") {
				return true, nil
			}
		}
	}
	return false, nil
}

// AsEnum returns c as an enumeration.
func (c *Class) AsEnum() (*Enum, error) {
	if err := c.r.version.require(FeatureEnums); err != nil {
		return nil, err
	}
	if !c.IsEnum() {
		return nil, notFound("enum", c.sym.Name, "")
	}
	return &Enum{Class: c}, nil
}

// NewInstanceWithoutConstructor creates an object of c with its property
// defaults and without running any constructor.
func (c *Class) NewInstanceWithoutConstructor() (*Instance, error) {
	if !c.IsInstantiable() {
		return nil, fmt.Errorf("phpreflect: cannot instantiate %s %s", c.sym.Kind, c.sym.Name)
	}
	props, err := c.Properties()
	if err != nil {
		return nil, err
	}
	inst := &Instance{class: c, values: make(map[string]string)}
	for _, p := range props {
		if p.IsStatic() || p.IsDynamic() {
			continue
		}
		if p.HasDefaultValue() {
			inst.values[p.Name()] = p.DefaultValue()
		}
	}
	return inst, nil
}

func (c *Class) String() string {
	var b strings.Builder
	b.WriteString("Class [ ")
	if c.IsInternal() {
		b.WriteString("<internal> ")
	} else {
		b.WriteString("<user> ")
	}
	for _, m := range c.sym.Modifiers {
		b.WriteString(m)
		b.WriteByte(' ')
	}
	b.WriteString(c.sym.Kind)
	b.WriteByte(' ')
	b.WriteString(c.sym.Name)
	if parents, err := c.relationTargets(store.RelExtends); err == nil && len(parents) > 0 {
		b.WriteString(" extends ")
		b.WriteString(strings.Join(parents, ", "))
	}
	if ifaces, err := c.relationTargets(store.RelImplements); err == nil && len(ifaces) > 0 {
		b.WriteString(" implements ")
		b.WriteString(strings.Join(ifaces, ", "))
	}
	b.WriteString(" ]")
	return b.String()
}

// has converts the error of a lookup into an existence check.
func has(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}
