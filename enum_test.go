package phpreflect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnum_Backed(t *testing.T) {
	r := newFixtureReflector(t)

	e, err := r.Enum(`App\Model\Status`)
	require.NoError(t, err)
	assert.True(t, e.IsBacked())
	require.NotNil(t, e.BackingType())
	assert.Equal(t, "string", e.BackingType().String())

	cases, err := e.Cases()
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "Active", cases[0].Name())
	assert.Equal(t, "'active'", cases[0].Value())
	assert.Equal(t, []string{"Can log in."}, cases[0].Annotations())
	assert.Empty(t, cases[1].Annotations())
	assert.Equal(t, e, cases[0].Enum())
	assert.Equal(t, `Case [ App\Model\Status::Active = 'active' ]`, cases[0].String())

	ifaces, err := e.InterfaceNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"UnitEnum", "BackedEnum"}, ifaces)

	ok, err := e.HasMethod("label")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEnum_CaseLookup(t *testing.T) {
	r := newFixtureReflector(t)
	e, err := r.Enum(`App\Model\Status`)
	require.NoError(t, err)

	c, err := e.Case("Banned")
	require.NoError(t, err)
	assert.Equal(t, "'banned'", c.Value())

	ok, err := e.HasCase("active")
	require.NoError(t, err)
	assert.False(t, ok, "case names are case-sensitive")

	_, err = e.Case("Gone")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "case", nf.Kind)
	assert.Equal(t, `App\Model\Status`, nf.Owner)
}

func TestEnum_Pure(t *testing.T) {
	r, _ := indexSource(t, `<?php
enum Suit
{
    case Hearts;
    #[Deprecated]
    case Spades;
}
`)
	e, err := r.Enum("Suit")
	require.NoError(t, err)
	assert.False(t, e.IsBacked())
	assert.Nil(t, e.BackingType())

	c, err := e.Case("Hearts")
	require.NoError(t, err)
	assert.Empty(t, c.Value())
	assert.Equal(t, "Case [ Suit::Hearts ]", c.String())

	spades, err := e.Case("Spades")
	require.NoError(t, err)
	attrs, err := spades.Attributes()
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, "#[Deprecated]", attrs[0].String())

	ifaces, err := e.InterfaceNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"UnitEnum"}, ifaces)
}

func TestEnum_NotAnEnum(t *testing.T) {
	r := newFixtureReflector(t)
	_, err := r.Enum(`App\Model\User`)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConstant(t *testing.T) {
	r := newFixtureReflector(t)
	ctx := context.Background()

	role, err := fixtureClass(t, r, `App\Model\User`).Constant("ROLE")
	require.NoError(t, err)
	assert.Equal(t, "ROLE", role.Name())
	assert.Equal(t, "'user'", role.Value())
	assert.True(t, role.IsPublic())
	assert.Empty(t, role.Annotations())

	final, err := role.IsFinal()
	require.NoError(t, err)
	assert.False(t, final)

	typed, err := role.HasType()
	require.NoError(t, err)
	assert.False(t, typed)
	td, err := role.Type()
	require.NoError(t, err)
	assert.Equal(t, "mixed", td.String())

	names, err := role.DocTypes(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Equal(t, `Constant [ public ROLE = 'user' ]`, role.String())

	version, err := fixtureClass(t, r, `App\Model\Address`).Constant("VERSION")
	require.NoError(t, err)
	final, err = version.IsFinal()
	require.NoError(t, err)
	assert.True(t, final)
	assert.Equal(t, `Constant [ final public VERSION = 2 ]`, version.String())
}

func TestConstant_DocTypes(t *testing.T) {
	r, _ := indexSource(t, `<?php
namespace Acme;

use Acme\Flags\Flag;

class Settings
{
    /** @var Flag[] the defaults */
    #[Internal('only here')]
    protected const DEFAULTS = [];
}
`)
	k, err := fixtureClass(t, r, `Acme\Settings`).Constant("DEFAULTS")
	require.NoError(t, err)
	assert.True(t, k.IsProtected())

	names, err := k.DocTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{`Acme\Flags\Flag[]`}, names)
	assert.Equal(t, []string{"@var Flag[] the defaults"}, k.Annotations())

	attrs, err := k.Attributes()
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, `Acme\Internal`, attrs[0].Name())
	assert.Equal(t, []string{"'only here'"}, attrs[0].Arguments())
}
