package phpreflect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jward/phpreflect/docblock"
	"github.com/jward/phpreflect/internal/store"
	"github.com/jward/phpreflect/usestmt"
)

// Reflector is the entry point of the decorating layer. It reads declared
// types from a Registry and reports what the registry alone cannot: doc
// comment annotations, use-statement resolution, dynamic properties and
// version gates.
//
// A Reflector is bound to one PHP version for its whole life. Gated queries
// fail with *UnsupportedError on older versions before touching the
// registry.
type Reflector struct {
	reg     Registry
	version Version
}

// NewReflector returns a Reflector over reg for the given PHP version.
func NewReflector(reg Registry, version Version) *Reflector {
	return &Reflector{reg: reg, version: version}
}

// Version returns the PHP version the Reflector answers for.
func (r *Reflector) Version() Version { return r.version }

// Registry returns the underlying registry.
func (r *Reflector) Registry() Registry { return r.reg }

// Class returns the class, interface, trait or enum named name. Lookup is
// case-insensitive and ignores a leading "\".
func (r *Reflector) Class(name string) (*Class, error) {
	sym, err := r.reg.TopLevelSymbol(name, store.TypeKinds...)
	if err != nil {
		return nil, fmt.Errorf("phpreflect: class %s: %w", name, err)
	}
	if sym == nil {
		return nil, notFound("class", name, "")
	}
	return newClass(r, sym), nil
}

// ClassExists reports whether a class-like type named name is declared.
func (r *Reflector) ClassExists(name string) (bool, error) {
	sym, err := r.reg.TopLevelSymbol(name, store.TypeKinds...)
	if err != nil {
		return false, fmt.Errorf("phpreflect: class exists %s: %w", name, err)
	}
	return sym != nil, nil
}

// Classes returns every declared type of the given kind ("class",
// "interface", "trait" or "enum"), ordered by name.
func (r *Reflector) Classes(kind string) ([]*Class, error) {
	syms, err := r.reg.SymbolsByKind(kind)
	if err != nil {
		return nil, fmt.Errorf("phpreflect: classes: %w", err)
	}
	classes := make([]*Class, len(syms))
	for i, sym := range syms {
		classes[i] = newClass(r, sym)
	}
	return classes, nil
}

// Function returns the free function named name.
func (r *Reflector) Function(name string) (*Function, error) {
	sym, err := r.reg.TopLevelSymbol(name, store.KindFunction)
	if err != nil {
		return nil, fmt.Errorf("phpreflect: function %s: %w", name, err)
	}
	if sym == nil {
		return nil, notFound("function", name, "")
	}
	return &Function{callable: callable{r: r, sym: sym, owner: sym}}, nil
}

// Enum returns the enumeration named name.
func (r *Reflector) Enum(name string) (*Enum, error) {
	if err := r.version.require(FeatureEnums); err != nil {
		return nil, err
	}
	sym, err := r.reg.TopLevelSymbol(name, store.KindEnum)
	if err != nil {
		return nil, fmt.Errorf("phpreflect: enum %s: %w", name, err)
	}
	if sym == nil {
		return nil, notFound("enum", name, "")
	}
	return &Enum{Class: newClass(r, sym)}, nil
}

// UseStatements returns the imports of the file declaring className, in
// source order. The file is read and scanned on every call. A type with no
// source file fails with ErrNoSourceFile.
func (r *Reflector) UseStatements(ctx context.Context, className string) ([]usestmt.UseStatement, error) {
	c, err := r.Class(className)
	if err != nil {
		return nil, err
	}
	return c.UseStatements(ctx)
}

// ResolveDocType expands short, as written in an annotation of className,
// to a fully qualified class name. An import whose alias equals short wins;
// otherwise short is taken relative to the namespace of className when a
// type of that name exists. An unresolvable name returns ("", false, nil).
func (r *Reflector) ResolveDocType(ctx context.Context, className, short string) (string, bool, error) {
	c, err := r.Class(className)
	if err != nil {
		return "", false, err
	}
	imports, err := r.imports(ctx, c.sym)
	if err != nil {
		return "", false, err
	}
	return r.resolveIn(imports, c.sym, short)
}

// imports scans the file declaring sym.
func (r *Reflector) imports(ctx context.Context, sym *Symbol) (*usestmt.FileImports, error) {
	if sym.FileID == nil {
		return nil, fmt.Errorf("phpreflect: %s: %w", sym.Name, ErrNoSourceFile)
	}
	f, err := r.reg.FileByID(*sym.FileID)
	if err != nil {
		return nil, fmt.Errorf("phpreflect: %s: %w", sym.Name, err)
	}
	if f == nil {
		return nil, fmt.Errorf("phpreflect: %s: %w", sym.Name, ErrNoSourceFile)
	}
	imports, err := usestmt.ExtractFile(ctx, f.Path)
	if err != nil {
		return nil, fmt.Errorf("phpreflect: use statements of %s: %w", sym.Name, err)
	}
	return imports, nil
}

// resolveIn applies alias-then-namespace resolution for a name written in
// the file of owner. Only imports of owner's namespace block count. A
// qualified relative name resolves through its first segment.
func (r *Reflector) resolveIn(imports *usestmt.FileImports, owner *Symbol, name string) (string, bool, error) {
	if name == "" {
		return "", false, nil
	}
	imports = imports.At(owner.StartLine)
	head, tail, qualified := strings.Cut(name, `\`)
	if u, ok := imports.Alias(head); ok {
		if qualified {
			return u.Name + `\` + tail, true, nil
		}
		return u.Name, true, nil
	}

	candidate := usestmt.Join(usestmt.NamespaceOf(owner.Name), name)
	exists, err := r.ClassExists(candidate)
	if err != nil {
		return "", false, err
	}
	if exists {
		return candidate, true, nil
	}
	return "", false, nil
}

// docTypeNames splits a doc type expression written in the file of owner
// and resolves each class name in it. Pseudo-types, generics arguments and
// unresolvable names are kept verbatim; array suffixes are preserved.
func (r *Reflector) docTypeNames(ctx context.Context, owner *Symbol, expr string) ([]string, error) {
	parts := docblock.SplitTypes(expr)
	if len(parts) == 0 {
		return nil, nil
	}

	var imports *usestmt.FileImports
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		elem, dims := docblock.ArrayElement(part)
		base, generic := splitGeneric(elem)

		resolved := elem
		switch {
		case base == "" || docblock.IsPseudoType(base) || strings.HasPrefix(base, "$"):
		case strings.HasPrefix(base, `\`):
			resolved = strings.TrimLeft(base, `\`) + generic
		default:
			if imports == nil {
				var err error
				if imports, err = r.imports(ctx, owner); err != nil {
					return nil, err
				}
			}
			fq, ok, err := r.resolveIn(imports, owner, base)
			if err != nil {
				return nil, err
			}
			if ok {
				resolved = fq + generic
			}
		}
		names = append(names, resolved+strings.Repeat("[]", dims))
	}
	return names, nil
}

// splitGeneric separates "Collection<User>" into "Collection" and "<User>".
func splitGeneric(t string) (base, rest string) {
	if i := strings.IndexAny(t, "<{("); i > 0 {
		return t[:i], t[i:]
	}
	return t, ""
}
