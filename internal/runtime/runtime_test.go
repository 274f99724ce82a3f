package runtime

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/modifier"
	"github.com/jward/trellis/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// --- Language detection tests ---

func TestLanguageForFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"Account.java", "java", true},
		{"src/main/java/app/Money.JAVA", "java", true},
		{"stubs/core.risor", "risor", true},
		{"main.go", "", false},
		{"README", "", false},
	}
	for _, tt := range tests {
		got, ok := LanguageForFile(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
	assert.ElementsMatch(t, []string{".java", ".risor"}, Extensions())
}

// --- Stub host functions ---

func TestInsertModule(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	rt := NewRuntime(s, "")

	script := `
id := insert_module({
    "name": "core",
    "version": "1.2.0",
    "dependencies": {"manifold-props": "2023.1.5", "guava": "32.0"}
})
assert(id > 0, 'expected positive id, got {id}')
insert_module({"name": "web", "dependencies": [{"name": "manifold-props", "version": "2020.1.0"}]})
`
	require.NoError(t, rt.RunSource(context.Background(), script, map[string]any{"file_id": int64(7)}))

	core, err := s.ModuleByName("core")
	require.NoError(t, err)
	require.NotNil(t, core)
	assert.Equal(t, "1.2.0", core.Version)
	require.NotNil(t, core.FileID)
	assert.Equal(t, int64(7), *core.FileID)
	assert.Equal(t, []store.Dependency{
		{Name: "guava", Version: "32.0"},
		{Name: "manifold-props", Version: "2023.1.5"},
	}, core.Dependencies)

	web, err := s.ModuleByName("web")
	require.NoError(t, err)
	require.NotNil(t, web.Dependency("manifold-props"))
	assert.Equal(t, "2020.1.0", web.Dependency("manifold-props").Version)
}

func TestInsertModule_RequiresName(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(newTestStore(t), "")
	err := rt.RunSource(context.Background(), `insert_module({"version": "1"})`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestInsertClass_CompiledWithTags(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	rt := NewRuntime(s, "")

	script := `
insert_class({
    "name": "lib.Account",
    "module": "core",
    "modifiers": ["public"],
    "super": "lib.Base",
    "interfaces": ["java.io.Serializable"],
    "fields": [{"name": "id", "type": "long", "modifiers": ["private", "final"]}],
    "methods": [
        {
            "name": "getBalance",
            "return_type": "long",
            "modifiers": modifier_flags(["public"]),
            "tag": {
                "name": "balance",
                "flags": ["protected"],
                "annotations": [{"qualified_name": "lib.Column", "text": "{@lib.Column(\"bal\")}"}]
            }
        },
        {
            "name": "setBalance",
            "params": ["long"],
            "modifiers": 1,
            "tag": {"name": "balance", "flags": 4}
        },
        {"name": "touch", "params": [{"name": "when", "type": "java.time.Instant"}]},
        {"name": "setOwner", "params": ["String"], "tag": {"flags": 1}}
    ]
})
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))

	c, err := s.ClassByName("lib.Account")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.True(t, c.Compiled)
	assert.True(t, c.Extensible)
	assert.True(t, c.Valid)
	assert.Equal(t, "lib", c.Package)
	assert.Equal(t, "core", c.Module)
	assert.Equal(t, model.KindClass, c.Kind)
	assert.Equal(t, "lib.Base", c.Super)
	assert.Equal(t, []string{"java.io.Serializable"}, c.Interfaces)
	require.Len(t, c.Fields, 1)
	assert.Equal(t, modifier.NewSet(modifier.Private, modifier.Final), c.Fields[0].Modifiers)

	require.Len(t, c.Methods, 4)
	get := c.Methods[0]
	assert.Equal(t, modifier.NewSet(modifier.Public), get.Modifiers)
	require.NotNil(t, get.Tag)
	assert.Equal(t, "balance", *get.Tag.Name)
	assert.Equal(t, int64(0x0004), *get.Tag.Flags)
	assert.Equal(t, []model.AnnotationSpec{{QualifiedName: "lib.Column", Text: `{@lib.Column("bal")}`}}, get.Tag.Annotations)

	set := c.Methods[1]
	assert.Equal(t, "setBalance(long)", set.Signature())
	assert.Equal(t, "void", set.ReturnType)
	assert.Equal(t, "arg0", set.Params[0].Name)

	touch := c.Methods[2]
	assert.Nil(t, touch.Tag)
	assert.Equal(t, "when", touch.Params[0].Name)

	owner := c.Methods[3]
	require.NotNil(t, owner.Tag)
	assert.Nil(t, owner.Tag.Name, "missing tag name stays missing")
	assert.Equal(t, int64(1), *owner.Tag.Flags)
}

func TestInsertClass_MalformedTagSkipsOnlyItsMethod(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	var buf bytes.Buffer
	rt := NewRuntime(s, "", WithLogOutput(&buf))

	script := `
insert_class({
    "name": "lib.Account",
    "methods": [
        {"name": "getBalance", "return_type": "long", "tag": {"name": "balance", "flags": ["private"]}},
        {"name": "getOwner", "return_type": "String", "tag": {"name": 7, "flags": ["public"]}},
        {"name": "getCode", "return_type": "String", "tag": {"name": "code", "flags": ["publik"]}},
        {"name": "getRate", "return_type": "double", "tag": "rate"}
    ]
})
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))

	c, err := s.ClassByName("lib.Account")
	require.NoError(t, err)
	require.NotNil(t, c, "class survives a bad tag")
	require.Len(t, c.Methods, 4)

	balance := c.Methods[0].Tag
	require.NotNil(t, balance)
	assert.Equal(t, "balance", *balance.Name)
	assert.Equal(t, int64(0x0002), *balance.Flags)

	owner := c.Methods[1].Tag
	require.NotNil(t, owner)
	assert.Nil(t, owner.Name)
	assert.Equal(t, int64(0x0001), *owner.Flags)

	code := c.Methods[2].Tag
	require.NotNil(t, code)
	assert.Equal(t, "code", *code.Name)
	assert.Nil(t, code.Flags)

	assert.Nil(t, c.Methods[3].Tag)

	out := buf.String()
	assert.Contains(t, out, "WARN: insert_class: lib.Account#getOwner: tag name ignored: expected string, got int")
	assert.Contains(t, out, "lib.Account#getCode: tag flags ignored")
	assert.Contains(t, out, "lib.Account#getRate: tag ignored")
}

func TestInsertClass_Errors(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(newTestStore(t), "")

	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"missing name", `insert_class({"kind": "class"})`, "name is required"},
		{"bad modifier", `insert_class({"name": "a.B", "modifiers": ["publik"]})`, "unknown modifier"},
		{"not a map", `insert_class("a.B")`, "expected map"},
		{"method without name", `insert_class({"name": "a.B", "methods": [{"return_type": "int"}]})`, "method name is required"},
		{"params not a list", `insert_class({"name": "a.B", "methods": [{"name": "m", "params": "int"}]})`, "expected list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rt.RunSource(context.Background(), tt.script, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInsertClass_IntoBatch(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	batch := store.NewBatchedStore(s)
	rt := NewRuntime(batch, "")

	script := `
insert_class({"name": "lib.A", "kind": "interface", "extensible": false})
info := class_by_name("lib.A")
assert(info != nil, "buffered class should be visible")
assert(info["kind"] == "interface", 'got {info["kind"]}')
assert(class_by_name("lib.Missing") == nil, "missing class should be nil")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
	require.Len(t, batch.Classes, 1)
	assert.False(t, batch.Classes[0].Class.Extensible)
	assert.Equal(t, model.KindInterface, batch.Classes[0].Class.Kind)
}

func TestModifierHelpers(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")

	script := `
assert(modifier_flags(["public", "static"]) == 9, "public|static")
assert(modifier_flags(["packagelocal"]) == 65536, "package bit")
names := modifier_names(1041)
assert(len(names) == 3, 'got {names}')
assert(names[0] == "public", 'got {names[0]}')
assert(names[1] == "abstract", 'got {names[1]}')
assert(names[2] == "final", 'got {names[2]}')
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestRunSource_NoStoreHidesInserts(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")
	err := rt.RunSource(context.Background(), `insert_module({"name": "x"})`, nil)
	require.Error(t, err)
}

func TestLog_WritesPrefixedLines(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	rt := NewRuntime(nil, "", WithLogOutput(&buf))

	require.NoError(t, rt.RunSource(context.Background(), `log.Warn("missing dependency")`, nil))
	assert.Equal(t, "[trellis] WARN: missing dependency\n", buf.String())
}

// --- Script loading ---

func TestRunScript_LoadsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.risor"), []byte(`result := 1 + 1`), 0644))

	rt := NewRuntime(nil, dir)
	require.NoError(t, rt.RunScript(context.Background(), "test.risor", nil))
}

func TestRunScript_MissingFile(t *testing.T) {
	rt := NewRuntime(nil, t.TempDir())
	err := rt.RunScript(context.Background(), "nonexistent.risor", nil)
	require.Error(t, err)
}

func TestLoadScript(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.risor")
	content := `x := 42`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	rt := NewRuntime(nil, dir)
	got, err := rt.LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FromFS(t *testing.T) {
	t.Parallel()

	content := `x := 42`
	mapFS := fstest.MapFS{
		"stubs/core.risor": &fstest.MapFile{Data: []byte(content)},
	}
	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("/stubs/core.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = rt.LoadScript("missing.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")
}

// --- Importer wiring tests ---

func TestImport_SharedStubLibrary(t *testing.T) {
	// Shared helpers imported by stub scripts still see host globals.
	mapFS := fstest.MapFS{
		"props.risor": &fstest.MapFile{Data: []byte(`
func getter(name, upper, typ) {
	return {
		"name": "get" + upper,
		"return_type": typ,
		"modifiers": modifier_flags(["public"]),
		"tag": {"name": name, "flags": modifier_flags(["public"])}
	}
}
`)},
	}
	s := newTestStore(t)
	rt := NewRuntime(s, "", WithRuntimeFS(mapFS))

	script := `
import props
insert_class({"name": "lib.Person", "methods": [props.getter("name", "Name", "String")]})
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))

	c, err := s.ClassByName("lib.Person")
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Len(t, c.Methods, 1)
	assert.Equal(t, "getName", c.Methods[0].Name)
	assert.Equal(t, "name", *c.Methods[0].Tag.Name)
}

func TestImport_LocalImporter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "versions.risor"), []byte(`
props := "2023.1.5"
`), 0644))

	rt := NewRuntime(nil, dir)
	script := `
import versions
assert(versions.props == "2023.1.5", 'got {versions.props}')
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}
