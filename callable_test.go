package phpreflect

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureMethod(t *testing.T, r *Reflector, class, name string) *Method {
	t.Helper()
	m, err := fixtureClass(t, r, class).Method(name)
	require.NoError(t, err)
	return m
}

func TestMethod_Signature(t *testing.T) {
	r := newFixtureReflector(t)
	m := fixtureMethod(t, r, `App\Model\User`, "addAddress")

	assert.Equal(t, "addAddress", m.Name())
	assert.True(t, m.IsPublic())
	assert.False(t, m.IsStatic())
	assert.False(t, m.IsConstructor())
	assert.False(t, m.ReturnsReference())
	assert.True(t, m.HasReturnType())
	assert.Equal(t, []string{`App\Support\Collection`}, m.ReturnType().Names())

	n, err := m.NumberOfParameters()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = m.NumberOfRequiredParameters()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	variadic, err := m.IsVariadic()
	require.NoError(t, err)
	assert.False(t, variadic)

	assert.Equal(t,
		`Method [ <user> public method addAddress(App\Model\Address $address, bool $primary = false): App\Support\Collection ]`,
		m.String())
}

func TestMethod_DocTypes(t *testing.T) {
	r := newFixtureReflector(t)
	ctx := context.Background()
	m := fixtureMethod(t, r, `App\Model\User`, "addAddress")

	names, err := m.ReturnDocTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{`App\Support\Collection`}, names)

	td, err := m.ResolvedType(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{`App\Support\Collection`}, td.Names())
	assert.Equal(t, []string{`App\Support\Collection`}, td.DocNames())

	s, err := m.Describe(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(s, `] @return App\Support\Collection`), s)
}

func TestMethod_Annotations(t *testing.T) {
	r := newFixtureReflector(t)
	m := fixtureMethod(t, r, `App\Model\User`, "addAddress")

	assert.Equal(t, []string{
		"Attach an address.",
		"@param Address $address the address",
		"@param bool $primary",
		"@return Collection",
	}, m.Annotations())
	assert.Empty(t, fixtureMethod(t, r, `App\Model\User`, "getName").Annotations())
}

func TestMethod_DuplicateReturnIsMalformed(t *testing.T) {
	r := newFixtureReflector(t)
	m := fixtureMethod(t, r, `App\Model\User`, "broken")

	assert.Equal(t, []string{"mixed"}, m.ReturnType().Names())

	_, err := m.ReturnDocTypes(context.Background())
	require.ErrorIs(t, err, ErrMalformedAnnotation)

	var me *MalformedAnnotationError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "return", me.Tag)
	assert.Equal(t, 2, me.Count)

	_, err = m.Describe(context.Background())
	assert.ErrorIs(t, err, ErrMalformedAnnotation)
}

func TestMethod_StaticByRefVariadic(t *testing.T) {
	r := newFixtureReflector(t)
	m := fixtureMethod(t, r, `App\Model\User`, "registry")

	assert.True(t, m.IsStatic())
	assert.True(t, m.ReturnsReference())
	variadic, err := m.IsVariadic()
	require.NoError(t, err)
	assert.True(t, variadic)
	n, err := m.NumberOfRequiredParameters()
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Equal(t, `Method [ <user> static public method &registry(string ...$names): array ]`, m.String())
}

func TestMethod_Inherited(t *testing.T) {
	r := newFixtureReflector(t)

	abstract := fixtureMethod(t, r, `App\Model\Person`, "getName")
	assert.True(t, abstract.IsAbstract())
	assert.Equal(t, `Method [ <user> abstract public method getName(): string ]`, abstract.String())

	// Trait methods resolve doc types in the trait's file.
	touch := fixtureMethod(t, r, `App\Model\User`, "touch")
	assert.Equal(t, "void", touch.ReturnType().String())

	// Built-in interface methods have no source.
	toString := fixtureMethod(t, r, `App\Model\User`, "__toString")
	assert.Equal(t, "Stringable", toString.Class().Name())
	assert.Contains(t, toString.String(), "<internal>")
}

func TestMethod_Attributes(t *testing.T) {
	r := newFixtureReflector(t)
	m := fixtureMethod(t, r, `App\Model\User`, "addAddress")

	attrs, err := m.Attributes()
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, `App\Model\Deprecated`, attrs[0].Name())
	assert.Equal(t, []string{`reason: "use addresses()"`, `since: '2.0'`}, attrs[0].Arguments())

	none, err := fixtureMethod(t, r, `App\Model\User`, "getName").Attributes()
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParameter_Typed(t *testing.T) {
	r := newFixtureReflector(t)
	ctx := context.Background()
	m := fixtureMethod(t, r, `App\Model\User`, "addAddress")

	p, err := m.Parameter("$address")
	require.NoError(t, err)
	assert.Equal(t, "address", p.Name())
	assert.Equal(t, 0, p.Position())
	assert.True(t, p.HasType())
	assert.Equal(t, `App\Model\Address`, p.Type().String())
	assert.False(t, p.AllowsNull())
	assert.False(t, p.IsOptional())
	assert.False(t, p.IsDefaultValueAvailable())
	_, err = p.DefaultValue()
	assert.Error(t, err)

	names, err := p.DocTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{`App\Model\Address`}, names)

	assert.Equal(t, []string{"@param Address $address the address"}, p.Annotations())
	assert.Equal(t, m.DocComment(), p.DocComment())
	assert.Equal(t, `Parameter #0 [ <required> App\Model\Address $address ]`, p.String())
}

func TestParameter_Default(t *testing.T) {
	r := newFixtureReflector(t)
	m := fixtureMethod(t, r, `App\Model\User`, "addAddress")

	p, err := m.Parameter("primary")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Position())
	assert.True(t, p.IsOptional())
	v, err := p.DefaultValue()
	require.NoError(t, err)
	assert.Equal(t, "false", v)
	assert.Equal(t, []string{"@param bool $primary"}, p.Annotations())

	names, err := p.DocTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bool"}, names)
	assert.Equal(t, `Parameter #1 [ <optional> bool $primary = false ]`, p.String())
}

func TestParameter_NotFound(t *testing.T) {
	r := newFixtureReflector(t)
	m := fixtureMethod(t, r, `App\Model\User`, "addAddress")

	_, err := m.Parameter("nope")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "parameter", nf.Kind)
	assert.Equal(t, `App\Model\User::addAddress()`, nf.Owner)
}

func TestParameter_Promoted(t *testing.T) {
	r := newFixtureReflector(t)
	ctor := fixtureMethod(t, r, `App\Model\User`, "__construct")

	params, err := ctor.Parameters()
	require.NoError(t, err)
	require.Len(t, params, 2)

	for _, p := range params {
		promoted, err := p.IsPromoted()
		require.NoError(t, err)
		assert.True(t, promoted, p.Name())
	}
	assert.Equal(t, `Parameter #1 [ <optional> int $age = 0 ]`, params[1].String())

	plain, err := fixtureMethod(t, r, `App\Model\User`, "addAddress").Parameter("address")
	require.NoError(t, err)
	promoted, err := plain.IsPromoted()
	require.NoError(t, err)
	assert.False(t, promoted)
}

func TestParameter_Variadic(t *testing.T) {
	r := newFixtureReflector(t)
	p, err := fixtureMethod(t, r, `App\Model\User`, "registry").Parameter("names")
	require.NoError(t, err)

	assert.True(t, p.IsVariadic())
	assert.True(t, p.IsOptional())
	assert.False(t, p.IsDefaultValueAvailable())
	assert.Equal(t, "string", p.Type().String())
	assert.Equal(t, `Parameter #0 [ <optional> string ...$names ]`, p.String())
}

func TestFunction(t *testing.T) {
	r := newFixtureReflector(t)
	ctx := context.Background()

	fn, err := r.Function(`App\Support\find_user`)
	require.NoError(t, err)
	assert.Equal(t, `App\Support\find_user`, fn.Name())
	assert.Equal(t, `App\Support`, fn.NamespaceName())
	assert.False(t, fn.IsInternal())

	file, err := fn.FileName()
	require.NoError(t, err)
	assert.Equal(t, "functions.php", filepath.Base(file))

	assert.Equal(t, []string{`App\Model\User`, "null"}, fn.ReturnType().Names())
	assert.True(t, fn.ReturnType().AllowsNull())

	names, err := fn.ReturnDocTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{`App\Model\User`, "null"}, names)

	assert.Equal(t,
		`Function [ <user> function App\Support\find_user(string $name, ?App\Model\User &$into = null): ?App\Model\User ]`,
		fn.String())

	s, err := fn.Describe(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(s, `@return App\Model\User|null`), s)

	attrs, err := fn.Attributes()
	require.NoError(t, err)
	assert.Empty(t, attrs)
}

func TestFunction_Parameters(t *testing.T) {
	r := newFixtureReflector(t)
	fn, err := r.Function(`App\Support\find_user`)
	require.NoError(t, err)

	into, err := fn.Parameter("into")
	require.NoError(t, err)
	assert.True(t, into.IsPassedByReference())
	assert.True(t, into.AllowsNull())
	assert.Equal(t, `App\Model\User|null`, into.Type().String())
	assert.Empty(t, into.Annotations())

	name, err := fn.Parameter("name")
	require.NoError(t, err)
	docs, err := name.DocTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"string"}, docs)

	_, err = fn.Parameter("nope")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, `App\Support\find_user()`, nf.Owner)
}

func TestParameter_DuplicateParamIsMalformed(t *testing.T) {
	r, _ := indexSource(t, `<?php
/**
 * @param int $a
 * @param string $a
 */
function twice($a) {}
`)
	fn, err := r.Function("twice")
	require.NoError(t, err)
	p, err := fn.Parameter("a")
	require.NoError(t, err)

	// The native type is still available.
	assert.Equal(t, "mixed", p.Type().String())
	_, err = p.DocTypes(context.Background())
	assert.ErrorIs(t, err, ErrMalformedAnnotation)
}
