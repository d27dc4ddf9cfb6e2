package usestmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualify(t *testing.T) {
	t.Parallel()

	fi := &FileImports{
		Namespace: `App\Models`,
		Uses: []UseStatement{
			{Name: `App\Contracts\Printable`, Alias: "Printable", Kind: ImportClass},
			{Name: `Vendor\Clock`, Alias: "SystemClock", Kind: ImportClass},
			{Name: `Vendor\helper`, Alias: "helper", Kind: ImportFunction},
			{Name: `Vendor\Support`, Alias: "Support", Kind: ImportClass},
		},
	}

	tests := []struct {
		in   string
		want string
	}{
		{"int", "int"},
		{"String", "string"},
		{"self", "self"},
		{`\DateTime`, "DateTime"},
		{"Printable", `App\Contracts\Printable`},
		{"printable", `App\Contracts\Printable`},
		{"SystemClock", `Vendor\Clock`},
		{`Support\Str`, `Vendor\Support\Str`},
		{"helper", `App\Models\helper`},
		{"Post", `App\Models\Post`},
		{`namespace\Post`, `App\Models\Post`},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, fi.Qualify(tt.in))
		})
	}
}

func TestQualify_GlobalNamespace(t *testing.T) {
	fi := &FileImports{}
	assert.Equal(t, "Post", fi.Qualify("Post"))
}

func TestAlias_ExactMatch(t *testing.T) {
	fi := &FileImports{Uses: []UseStatement{{Name: `Foo\Bar`, Alias: "Bar", Kind: ImportClass}}}

	u, ok := fi.Alias("Bar")
	assert.True(t, ok)
	assert.Equal(t, `Foo\Bar`, u.Name)

	_, ok = fi.Alias("bar")
	assert.False(t, ok, "alias lookup is case-sensitive")
}

func TestNameHelpers(t *testing.T) {
	assert.Equal(t, "User", ShortName(`App\Models\User`))
	assert.Equal(t, "User", ShortName("User"))
	assert.Equal(t, `App\Models`, NamespaceOf(`\App\Models\User`))
	assert.Equal(t, "", NamespaceOf("User"))
	assert.Equal(t, `App\User`, Join("App", "User"))
	assert.Equal(t, "User", Join("", "User"))
}
