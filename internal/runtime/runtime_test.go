package runtime

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const phpSource = `<?php
namespace App\Model;

use App\Contracts\HasName;
use Psr\Log\LoggerInterface as Logger;

/**
 * A user.
 * @property string $email
 */
class User implements HasName {}
`

// fakeHost answers from fixed data.
type fakeHost struct {
	version string
	classes map[string]map[string]any
	uses    map[string][]map[string]any
	aliases map[string]string
	docs    map[string][]string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		version: "8.2.0",
		classes: map[string]map[string]any{
			`App\Model\User`: {
				"name":       `App\Model\User`,
				"kind":       "class",
				"abstract":   false,
				"interfaces": []string{`App\Contracts\HasName`},
				"methods":    []any{"getName", "setName"},
			},
		},
		uses: map[string][]map[string]any{
			`App\Model\User`: {
				{"name": `App\Contracts\HasName`, "alias": "HasName", "kind": "class"},
				{"name": `Psr\Log\LoggerInterface`, "alias": "Logger", "kind": "class"},
			},
		},
		aliases: map[string]string{"Logger": `Psr\Log\LoggerInterface`},
		docs: map[string][]string{
			"":          {"A user.", "@property string $email"},
			"getName()": {"@return string"},
		},
	}
}

func (h *fakeHost) Class(_ context.Context, name string) (map[string]any, error) {
	c, ok := h.classes[name]
	if !ok {
		return nil, errors.New("class not found: " + name)
	}
	return c, nil
}

func (h *fakeHost) UseStatements(_ context.Context, className string) ([]map[string]any, error) {
	return h.uses[className], nil
}

func (h *fakeHost) ResolveDocType(_ context.Context, _, short string) (string, bool, error) {
	fq, ok := h.aliases[short]
	return fq, ok, nil
}

func (h *fakeHost) Annotations(_ context.Context, _, member string) ([]string, error) {
	return h.docs[member], nil
}

func (h *fakeHost) PHPVersion() string { return h.version }

// --- Source helpers ---

func TestRunSource_ScanUses(t *testing.T) {
	rt := NewRuntime(nil, "")

	script := `
imports := scan_uses(src)
assert(imports["namespace"] == "App\\Model", 'unexpected namespace {imports["namespace"]}')
uses := imports["uses"]
assert(len(uses) == 2, 'expected 2 uses, got {len(uses)}')
assert(uses[0]["alias"] == "HasName", "first alias")
assert(uses[1]["alias"] == "Logger", "second alias")
assert(uses[1]["name"] == "Psr\\Log\\LoggerInterface", "second name")
assert(uses[1]["kind"] == "class", "second kind")
`
	err := rt.RunSource(context.Background(), script, map[string]any{"src": phpSource})
	require.NoError(t, err)
}

func TestRunSource_Tokens(t *testing.T) {
	rt := NewRuntime(nil, "")

	script := `
kinds := []
for _, tok := range tokens(src) {
    if tok["kind"] == "use" {
        kinds.append(tok["text"])
    }
}
assert(len(kinds) == 2, 'expected 2 use keywords, got {len(kinds)}')
`
	err := rt.RunSource(context.Background(), script, map[string]any{"src": phpSource})
	require.NoError(t, err)
}

func TestRunSource_SanitizeAndSplitTypes(t *testing.T) {
	rt := NewRuntime(nil, "")

	script := `
lines := sanitize("/**\n * @var int\n */")
assert(len(lines) == 1, "one line")
assert(lines[0] == "@var int", 'got {lines[0]}')
assert(len(sanitize("")) == 0, "empty comment")

parts := split_types("?Foo|Bar[]")
assert(len(parts) == 3, 'got {parts}')
`
	err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestRunSource_HelperArgumentErrors(t *testing.T) {
	rt := NewRuntime(nil, "")
	ctx := context.Background()

	assert.Error(t, rt.RunSource(ctx, `tokens()`, nil))
	assert.Error(t, rt.RunSource(ctx, `sanitize(1)`, nil))
	assert.Error(t, rt.RunSource(ctx, `scan_uses("a", "b")`, nil))
}

// --- Reflection globals ---

func TestRunSource_ReflectionGlobals(t *testing.T) {
	rt := NewRuntime(newFakeHost(), "")

	script := `
assert(php_version == "8.2.0", 'version {php_version}')

c := class("App\\Model\\User")
assert(c["kind"] == "class", "kind")
assert(len(c["methods"]) == 2, "methods")
assert(c["interfaces"][0] == "App\\Contracts\\HasName", "interfaces")

u := uses("App\\Model\\User")
assert(len(u) == 2, "uses")
assert(u[1]["alias"] == "Logger", "alias")

assert(resolve("App\\Model\\User", "Logger") == "Psr\\Log\\LoggerInterface", "resolve alias")
assert(resolve("App\\Model\\User", "Missing") == nil, "unresolved is nil")

assert(len(annotations("App\\Model\\User")) == 2, "class annotations")
assert(annotations("App\\Model\\User", "getName()")[0] == "@return string", "method annotations")
`
	err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestRunSource_HostErrorFailsScript(t *testing.T) {
	rt := NewRuntime(newFakeHost(), "")
	err := rt.RunSource(context.Background(), `class("Nope")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "class not found: Nope")
}

func TestRunSource_NoHostNoReflectionGlobals(t *testing.T) {
	rt := NewRuntime(nil, "")
	err := rt.RunSource(context.Background(), `class("App\\User")`, nil)
	require.Error(t, err)
}

func TestEval_ReturnsValue(t *testing.T) {
	rt := NewRuntime(newFakeHost(), "")
	got, err := rt.Eval(context.Background(), `resolve("App\\Model\\User", "Logger")`, nil)
	require.NoError(t, err)
	assert.Equal(t, `Psr\Log\LoggerInterface`, got)
}

func TestRunSource_LogUsesLogrus(t *testing.T) {
	logger, hook := test.NewNullLogger()
	rt := NewRuntime(nil, "", WithLogger(logger))

	err := rt.RunSource(context.Background(), `log.Warn("careful")`, nil)
	require.NoError(t, err)

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "careful", hook.LastEntry().Message)
	assert.Equal(t, "script", hook.LastEntry().Data["source"])
}

// --- Script loading ---

func TestRunScript_LoadsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.risor"), []byte(`result := 1 + 1`), 0o644))

	rt := NewRuntime(nil, dir)
	require.NoError(t, rt.RunScript(context.Background(), "test.risor", nil))
}

func TestRunScript_MissingFile(t *testing.T) {
	rt := NewRuntime(nil, t.TempDir())
	err := rt.RunScript(context.Background(), "nonexistent.risor", nil)
	require.Error(t, err)
}

func TestRunScript_ScriptError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.risor"), []byte(`assert(false, "boom")`), 0o644))

	rt := NewRuntime(nil, dir)
	err := rt.RunScript(context.Background(), "bad.risor", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.risor")
}

func TestLoadScript(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := `z := 7`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.risor"), []byte(content), 0o644))

	rt := NewRuntime(nil, dir)
	got, err := rt.LoadScript("test.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	abs, err := NewRuntime(nil, "").LoadScript(filepath.Join(dir, "test.risor"))
	require.NoError(t, err)
	assert.Equal(t, content, abs)
}

func TestLoadScript_FromFS(t *testing.T) {
	t.Parallel()

	mapFS := fstest.MapFS{
		"scripts/report.risor": &fstest.MapFile{Data: []byte(`x := 1`)},
	}
	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("/scripts/report.risor")
	require.NoError(t, err)
	assert.Equal(t, `x := 1`, got)

	_, err = rt.LoadScript("missing.risor")
	require.Error(t, err)
}

// --- Importer wiring ---

func TestImport_FSImporter(t *testing.T) {
	mapFS := fstest.MapFS{
		"lib_helpers.risor": &fstest.MapFile{Data: []byte(`
func greet(name) {
	return "hello " + name
}
`)},
	}
	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	script := `
import lib_helpers

msg := lib_helpers.greet("world")
assert(msg == "hello world", 'expected "hello world", got ' + msg)
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestImport_LocalImporter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math_utils.risor"), []byte(`
func double(x) {
	return x * 2
}
`), 0o644))

	rt := NewRuntime(nil, dir)

	script := `
import math_utils

result := math_utils.double(21)
assert(result == 42, 'expected 42, got {result}')
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestImport_GlobalsAvailableInImportedModules(t *testing.T) {
	mapFS := fstest.MapFS{
		"helper.risor": &fstest.MapFile{Data: []byte(`
func short(name) {
	return resolve("App\\Model\\User", name)
}
`)},
	}
	rt := NewRuntime(newFakeHost(), "", WithRuntimeFS(mapFS))

	script := `
import helper
assert(helper.short("Logger") == "Psr\\Log\\LoggerInterface", "resolved through module")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestNewRuntime_Defaults(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(nil, "/some/dir")
	require.NotNil(t, rt)
	assert.Nil(t, rt.fsys)
	assert.Equal(t, "/some/dir", rt.scriptsDir)
	assert.Equal(t, logrus.StandardLogger(), rt.log)
}

func TestToObject(t *testing.T) {
	t.Parallel()

	obj := toObject(map[string]any{
		"name":  "User",
		"count": 2,
		"tags":  []string{"a"},
		"none":  nil,
	})
	got, ok := obj.Interface().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "User", got["name"])
	assert.Equal(t, int64(2), got["count"])
	assert.Equal(t, []any{"a"}, got["tags"])
	assert.Nil(t, got["none"])
}
