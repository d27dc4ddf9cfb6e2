// Package phpreflect is a reflection layer for PHP code that is read
// statically instead of executed. A registry of declared types, built by
// indexing PHP source with tree-sitter, stands in for PHP's native
// reflection. The wrappers in this package decorate it with what PHP's
// reflection leaves out:
//
//   - doc comment annotations, sanitized into lines ([docblock.Sanitize]);
//   - the use statements of the declaring file ([Reflector.UseStatements]);
//   - short names in @var, @param and @return tags expanded to fully
//     qualified class names ([Reflector.ResolveDocType]);
//   - dynamic properties documented with @property tags;
//   - version gates that fail with *[UnsupportedError] instead of degrading.
//
// # Usage
//
// Index a project, then reflect over it:
//
//	e, err := phpreflect.New("phpreflect.db", phpreflect.WithVersion(phpreflect.MustParseVersion("8.2")))
//	if err != nil { ... }
//	defer e.Close()
//
//	err = e.IndexDirectory(ctx, "path/to/project")
//
//	r := e.Reflector()
//	c, err := r.Class(`App\Model\User`)
//	p, err := c.Property("manager")
//	names, err := p.DocTypes(ctx) // ["App\Model\Manager"]
//
// # Errors
//
// Lookups of a named member that does not exist fail with *[NotFoundError]
// (matching [ErrNotFound]). Queries gated on a newer PHP version fail with
// *[UnsupportedError] (matching [ErrUnsupported]) before the registry is
// consulted. A doc comment with two tags where one is expected, such as two
// @return lines, fails with *[MalformedAnnotationError].
package phpreflect

import (
	"context"

	"github.com/jward/phpreflect/docblock"
)

// Named is implemented by every wrapper.
type Named interface {
	Name() string
}

// Documented is implemented by wrappers of declarations that carry a doc
// comment.
type Documented interface {
	Named
	DocComment() string
	Annotations() []string
}

// Typed is implemented by properties, parameters, methods and functions.
// Class constants are typed only on newer PHP versions and are not Typed.
type Typed interface {
	Named
	Type() TypeDescriptor
	DocTypes(ctx context.Context) ([]string, error)
}

var (
	_ Documented = (*Class)(nil)
	_ Documented = (*Method)(nil)
	_ Documented = (*Function)(nil)
	_ Documented = (*Property)(nil)
	_ Documented = (*Parameter)(nil)
	_ Documented = (*Constant)(nil)
	_ Documented = (*EnumCase)(nil)
	_ Typed      = (*Method)(nil)
	_ Typed      = (*Function)(nil)
	_ Typed      = (*Property)(nil)
	_ Typed      = (*Parameter)(nil)
	_ Named      = (*Attribute)(nil)
)

// Annotations returns the sanitized doc comment lines of d.
func Annotations(d Documented) []string { return d.Annotations() }

// Tags returns the tags called name in the doc comment of d.
func Tags(d Documented, name string) []docblock.Tag {
	return docblock.Parse(d.DocComment()).Tags(name)
}

// TypeNames returns the native type names of t, ["mixed"] when undeclared.
func TypeNames(t Typed) []string { return t.Type().Names() }

// DocTypeNames returns the documented type names of t, resolved to fully
// qualified class names where the imports or namespace allow.
func DocTypeNames(ctx context.Context, t Typed) ([]string, error) {
	return t.DocTypes(ctx)
}
