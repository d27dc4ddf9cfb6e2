package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

// insertTestFile is a helper that inserts a file and returns it with ID set.
func insertTestFile(t *testing.T, s *Store, path string) *File {
	t.Helper()
	f := &File{Path: path, Hash: "abc123", LastIndexed: time.Now().Truncate(time.Second)}
	id, err := s.InsertFile(f)
	require.NoError(t, err)
	require.Positive(t, id)
	return f
}

// insertTestSymbol inserts a symbol with minimal required fields.
func insertTestSymbol(t *testing.T, s *Store, fileID *int64, name, kind string) *Symbol {
	t.Helper()
	sym := &Symbol{
		FileID:     fileID,
		Name:       name,
		Kind:       kind,
		Visibility: "public",
		Modifiers:  []string{"final"},
		StartLine:  1,
		EndLine:    10,
	}
	id, err := s.InsertSymbol(sym)
	require.NoError(t, err)
	require.Positive(t, id)
	return sym
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"metadata", "files", "symbols", "function_parameters", "relations", "attributes"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())

	syms, err := s.SymbolsByKind(KindClass)
	require.NoError(t, err)
	var n int
	for _, sym := range syms {
		if sym.Name == "stdClass" {
			n++
		}
	}
	assert.Equal(t, 1, n, "built-ins are seeded once")
}

func TestMigrate_WALMode(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	var mode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	s, err := NewStore(MemoryPath)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate())

	f := insertTestFile(t, s, "/src/A.php")
	insertTestSymbol(t, s, &f.ID, `App\A`, KindClass)

	sym, err := s.TopLevelSymbol(`App\A`)
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, f.ID, *sym.FileID)
}

// =============================================================================
// Built-ins
// =============================================================================

func TestBuiltins_HaveNoFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, name := range []string{"stdClass", "Exception", "Throwable", "BackedEnum", "Countable"} {
		sym, err := s.TopLevelSymbol(name)
		require.NoError(t, err)
		require.NotNil(t, sym, name)
		assert.Nil(t, sym.FileID, name)
	}
}

func TestBuiltins_Relations(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	exc, err := s.TopLevelSymbol("Exception")
	require.NoError(t, err)
	rels, err := s.Relations(exc.ID)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "Throwable", rels[0].Target)
	assert.Equal(t, RelImplements, rels[0].Kind)

	backed, err := s.TopLevelSymbol("BackedEnum", KindInterface)
	require.NoError(t, err)
	rels, err = s.Relations(backed.ID)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "UnitEnum", rels[0].Target)
	assert.Equal(t, RelExtends, rels[0].Kind)

	methods, err := s.SymbolChildren(backed.ID)
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.Equal(t, "from", methods[0].Name)
	assert.True(t, methods[0].HasModifier("static"))
	assert.True(t, methods[0].HasModifier("abstract"))
}

// =============================================================================
// File operations
// =============================================================================

func TestFile_InsertAndRetrieve(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	now := time.Now().Truncate(time.Second)
	f := &File{Path: "/src/Foo.php", Hash: "deadbeef", LineCount: 42, LastIndexed: now}
	id, err := s.InsertFile(f)
	require.NoError(t, err)
	assert.Equal(t, id, f.ID)

	require.NoError(t, s.UpdateFileNamespace(id, `App\Models`))

	got, err := s.FileByPath("/src/Foo.php")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "deadbeef", got.Hash)
	assert.Equal(t, `App\Models`, got.Namespace)
	assert.Equal(t, 42, got.LineCount)
	assert.True(t, now.Equal(got.LastIndexed))

	byID, err := s.FileByID(id)
	require.NoError(t, err)
	assert.Equal(t, got.Path, byID.Path)
}

func TestFile_ByPathNotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f, err := s.FileByPath("/missing.php")
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestFiles_OrderedByPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestFile(t, s, "/b.php")
	insertTestFile(t, s, "/a.php")

	files, err := s.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "/a.php", files[0].Path)
	assert.Equal(t, "/b.php", files[1].Path)
}

// =============================================================================
// Symbols
// =============================================================================

func TestSymbol_InsertAndQueryByFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/src/Foo.php")

	sym := &Symbol{
		FileID:     &f.ID,
		Name:       `App\Foo`,
		Kind:       KindClass,
		Visibility: "public",
		Modifiers:  []string{"abstract", "readonly"},
		DocComment: "/** A foo. */",
		StartLine:  3,
		EndLine:    20,
	}
	_, err := s.InsertSymbol(sym)
	require.NoError(t, err)

	syms, err := s.SymbolsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	got := syms[0]
	assert.Equal(t, `App\Foo`, got.Name)
	assert.Equal(t, []string{"abstract", "readonly"}, got.Modifiers)
	assert.Equal(t, "/** A foo. */", got.DocComment)
	assert.Equal(t, 3, got.StartLine)
	assert.Nil(t, got.ParentSymbolID)
}

func TestSymbol_TopLevelIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/src/Foo.php")
	insertTestSymbol(t, s, &f.ID, `App\Models\User`, KindClass)

	sym, err := s.TopLevelSymbol(`\app\models\USER`)
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, `App\Models\User`, sym.Name)

	sym, err = s.TopLevelSymbol(`App\Models\User`, KindInterface)
	require.NoError(t, err)
	assert.Nil(t, sym, "kind filter excludes the class")
}

func TestSymbol_UserCodeShadowsBuiltin(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/src/Exception.php")
	insertTestSymbol(t, s, &f.ID, "Exception", KindClass)

	sym, err := s.TopLevelSymbol("Exception")
	require.NoError(t, err)
	require.NotNil(t, sym)
	require.NotNil(t, sym.FileID)
	assert.Equal(t, f.ID, *sym.FileID)
}

func TestSymbol_QueryByKind(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/src/fns.php")
	insertTestSymbol(t, s, &f.ID, `App\zeta`, KindFunction)
	insertTestSymbol(t, s, &f.ID, `App\alpha`, KindFunction)

	syms, err := s.SymbolsByKind(KindFunction)
	require.NoError(t, err)
	require.Len(t, syms, 2)
	assert.Equal(t, `App\alpha`, syms[0].Name)
}

func TestSymbol_Children(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/src/Foo.php")
	parent := insertTestSymbol(t, s, &f.ID, `App\Foo`, KindClass)

	for _, name := range []string{"bar", "baz"} {
		_, err := s.InsertSymbol(&Symbol{FileID: &f.ID, Name: name, Kind: KindMethod, ParentSymbolID: &parent.ID})
		require.NoError(t, err)
	}

	children, err := s.SymbolChildren(parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "bar", children[0].Name)
	assert.Equal(t, "baz", children[1].Name)

	// Members are not top-level.
	sym, err := s.TopLevelSymbol("bar")
	require.NoError(t, err)
	assert.Nil(t, sym)
}

func TestSymbol_ByIDNotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	sym, err := s.SymbolByID(99999)
	require.NoError(t, err)
	assert.Nil(t, sym)
}

// =============================================================================
// Params, relations, attributes
// =============================================================================

func TestFunctionParam_InsertAndQuery(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/src/Foo.php")
	ctor := insertTestSymbol(t, s, &f.ID, "__construct", KindMethod)

	_, err := s.InsertFunctionParam(&FunctionParam{SymbolID: ctor.ID, Name: "rest", Ordinal: 1, IsVariadic: true})
	require.NoError(t, err)
	_, err = s.InsertFunctionParam(&FunctionParam{
		SymbolID:    ctor.ID,
		Name:        "name",
		Ordinal:     0,
		TypeExpr:    "string",
		HasDefault:  true,
		DefaultExpr: "'x'",
		Modifiers:   []string{"private", "readonly"},
	})
	require.NoError(t, err)

	params, err := s.FunctionParams(ctor.ID)
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, "name", params[0].Name)
	assert.True(t, params[0].IsPromoted())
	assert.Equal(t, "'x'", params[0].DefaultExpr)
	assert.Equal(t, "rest", params[1].Name)
	assert.True(t, params[1].IsVariadic)
	assert.False(t, params[1].IsPromoted())
}

func TestRelation_InsertAndQuery(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/src/Foo.php")
	sym := insertTestSymbol(t, s, &f.ID, `App\Foo`, KindClass)

	_, err := s.InsertRelation(&Relation{SymbolID: sym.ID, Target: `App\B`, Kind: RelImplements, Ordinal: 1})
	require.NoError(t, err)
	_, err = s.InsertRelation(&Relation{SymbolID: sym.ID, Target: `App\A`, Kind: RelImplements, Ordinal: 0})
	require.NoError(t, err)
	_, err = s.InsertRelation(&Relation{SymbolID: sym.ID, Target: `App\Base`, Kind: RelExtends})
	require.NoError(t, err)

	rels, err := s.Relations(sym.ID)
	require.NoError(t, err)
	require.Len(t, rels, 3)
	assert.Equal(t, RelExtends, rels[0].Kind)
	assert.Equal(t, `App\A`, rels[1].Target)
	assert.Equal(t, `App\B`, rels[2].Target)
}

func TestAttribute_InsertAndQuery(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/src/Foo.php")
	sym := insertTestSymbol(t, s, &f.ID, `App\Foo`, KindClass)

	_, err := s.InsertAttribute(&Attribute{
		TargetKind: TargetSymbol, TargetID: sym.ID, Name: `App\Attr\Route`,
		Arguments: `'/users'`, FileID: &f.ID, Line: 2,
	})
	require.NoError(t, err)

	attrs, err := s.Attributes(TargetSymbol, sym.ID)
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, `App\Attr\Route`, attrs[0].Name)
	assert.Equal(t, `'/users'`, attrs[0].Arguments)

	attrs, err = s.Attributes(TargetParam, sym.ID)
	require.NoError(t, err)
	assert.Empty(t, attrs)
}

// =============================================================================
// Static values
// =============================================================================

func TestStaticValue_DefaultThenSet(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/src/Foo.php")
	prop := &Symbol{FileID: &f.ID, Name: "count", Kind: KindProperty, Modifiers: []string{"static"}, HasDefault: true, DefaultExpr: "0"}
	_, err := s.InsertSymbol(prop)
	require.NoError(t, err)
	bare := &Symbol{FileID: &f.ID, Name: "cache", Kind: KindProperty, Modifiers: []string{"static"}}
	_, err = s.InsertSymbol(bare)
	require.NoError(t, err)

	v, err := s.StaticValue(prop.ID)
	require.NoError(t, err)
	assert.Equal(t, "0", v)

	v, err = s.StaticValue(bare.ID)
	require.NoError(t, err)
	assert.Equal(t, "null", v)

	require.NoError(t, s.SetStaticValue(prop.ID, "5"))
	v, err = s.StaticValue(prop.ID)
	require.NoError(t, err)
	assert.Equal(t, "5", v)
}

func TestStaticValue_UnknownSymbol(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	_, err := s.StaticValue(4242)
	assert.Error(t, err)
}

// =============================================================================
// DeleteFileData (transactional re-index)
// =============================================================================

func TestDeleteFileData(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/src/Foo.php")

	sym := insertTestSymbol(t, s, &f.ID, `App\Foo`, KindClass)
	method := &Symbol{FileID: &f.ID, Name: "run", Kind: KindMethod, ParentSymbolID: &sym.ID}
	_, err := s.InsertSymbol(method)
	require.NoError(t, err)
	param := &FunctionParam{SymbolID: method.ID, Name: "x"}
	_, err = s.InsertFunctionParam(param)
	require.NoError(t, err)
	_, err = s.InsertRelation(&Relation{SymbolID: sym.ID, Target: `App\Base`, Kind: RelExtends})
	require.NoError(t, err)
	_, err = s.InsertAttribute(&Attribute{TargetKind: TargetSymbol, TargetID: sym.ID, Name: "A", FileID: &f.ID})
	require.NoError(t, err)
	_, err = s.InsertAttribute(&Attribute{TargetKind: TargetParam, TargetID: param.ID, Name: "B", FileID: &f.ID})
	require.NoError(t, err)
	require.NoError(t, s.SetStaticValue(method.ID, "1"))

	require.NoError(t, s.DeleteFileData(f.ID))

	syms, err := s.SymbolsByFile(f.ID)
	require.NoError(t, err)
	assert.Empty(t, syms)

	params, err := s.FunctionParams(method.ID)
	require.NoError(t, err)
	assert.Empty(t, params)

	rels, err := s.Relations(sym.ID)
	require.NoError(t, err)
	assert.Empty(t, rels)

	attrs, err := s.Attributes(TargetParam, param.ID)
	require.NoError(t, err)
	assert.Empty(t, attrs)

	got, err := s.FileByID(f.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Built-ins survive.
	builtin, err := s.TopLevelSymbol("stdClass")
	require.NoError(t, err)
	assert.NotNil(t, builtin)
}

func TestDeleteFileData_ReindexWithNewData(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/src/Foo.php")
	insertTestSymbol(t, s, &f.ID, `App\Old`, KindClass)

	require.NoError(t, s.DeleteFileData(f.ID))
	f = insertTestFile(t, s, "/src/Foo.php")
	insertTestSymbol(t, s, &f.ID, `App\New`, KindClass)

	syms, err := s.SymbolsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, `App\New`, syms[0].Name)
}

// =============================================================================
// Metadata
// =============================================================================

func TestMetadata_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	v, err := s.GetMetadata("php_version")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata("php_version", "8.1"))
	require.NoError(t, s.SetMetadata("php_version", "8.3"))
	v, err = s.GetMetadata("php_version")
	require.NoError(t, err)
	assert.Equal(t, "8.3", v)
}

func TestContentHash_Deterministic(t *testing.T) {
	t.Parallel()
	a := ContentHash([]byte("<?php class A {}"))
	assert.Equal(t, a, ContentHash([]byte("<?php class A {}")))
	assert.NotEqual(t, a, ContentHash([]byte("<?php class B {}")))
}
