package docblock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadingType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"int $id", "int"},
		{"array<int, string> $map the map", "array<int, string>"},
		{"array{id: int, name: string} $row", "array{id: int, name: string}"},
		{"User", "User"},
		{"  Foo|Bar  ", "Foo|Bar"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, LeadingType(tt.in))
		})
	}
}

func TestSplitTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"int", []string{"int"}},
		{"int|string|null", []string{"int", "string", "null"}},
		{"?User", []string{"User", "null"}},
		{"User[]", []string{"User[]"}},
		{"array<User>", []string{"User[]"}},
		{"list<User>|null", []string{"User[]", "null"}},
		{"array<array<User>>", []string{"User[][]"}},
		{"array<int, User>", []string{"array<int, User>"}},
		{"array<int|string>", []string{"array<int|string>"}},
		{"(Foo|Bar)", []string{"Foo", "Bar"}},
		{"class-string<Model>|Model", []string{"class-string<Model>", "Model"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SplitTypes(tt.in))
		})
	}
}

func TestArrayElement(t *testing.T) {
	elem, dims := ArrayElement("User[][]")
	assert.Equal(t, "User", elem)
	assert.Equal(t, 2, dims)

	elem, dims = ArrayElement("int")
	assert.Equal(t, "int", elem)
	assert.Zero(t, dims)
}

func TestBlock_VarType(t *testing.T) {
	typ, err := Parse("/** @var Collection<User> $items */").VarType()
	require.NoError(t, err)
	assert.Equal(t, "Collection<User>", typ)

	typ, err = Parse("/** @var $items */").VarType()
	require.NoError(t, err)
	assert.Empty(t, typ)

	typ, err = Parse("").VarType()
	require.NoError(t, err)
	assert.Empty(t, typ)
}

func TestBlock_ParamType(t *testing.T) {
	b := Parse(`/**
 * @param int $id
 * @param User[] ...$users
 * @param array<string, mixed> &$options
 * @param $untyped
 */`)

	typ, err := b.ParamType("id")
	require.NoError(t, err)
	assert.Equal(t, "int", typ)

	typ, err = b.ParamType("users")
	require.NoError(t, err)
	assert.Equal(t, "User[]", typ)

	typ, err = b.ParamType("$options")
	require.NoError(t, err)
	assert.Equal(t, "array<string, mixed>", typ)

	typ, err = b.ParamType("untyped")
	require.NoError(t, err)
	assert.Empty(t, typ)

	typ, err = b.ParamType("missing")
	require.NoError(t, err)
	assert.Empty(t, typ)
}

func TestBlock_ParamTypeDuplicate(t *testing.T) {
	b := Parse("/**\n * @param int $id\n * @param string $id\n */")
	_, err := b.ParamType("id")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestIsPseudoType(t *testing.T) {
	assert.True(t, IsPseudoType("int"))
	assert.True(t, IsPseudoType("Boolean"))
	assert.True(t, IsPseudoType("class-string<Model>"))
	assert.True(t, IsPseudoType("array{id: int}"))
	assert.False(t, IsPseudoType("User"))
	assert.False(t, IsPseudoType(`App\Models\User`))
}
