package trellis

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/trellis/internal/store"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	e, err := New(dbPath, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const buildStub = `
insert_module({
    "name": "app",
    "version": "1.0.0",
    "dependencies": {"manifold-props": "2023.1.5"}
})
`

const libStub = `
insert_class({
    "name": "lib.Money",
    "module": "app",
    "modifiers": ["public", "final"],
    "methods": [
        {"name": "plus", "return_type": "lib.Money", "params": [{"name": "that", "type": "lib.Money"}], "modifiers": ["public"]},
        {"name": "times", "return_type": "lib.Money", "params": [{"name": "n", "type": "int"}], "modifiers": ["public"]}
    ]
})
insert_class({
    "name": "lib.Account",
    "module": "app",
    "modifiers": ["public"],
    "methods": [
        {
            "name": "getBalance",
            "return_type": "long",
            "modifiers": ["public"],
            "tag": {"name": "balance", "flags": ["private"]}
        }
    ]
})
`

const personSource = `package app;

import lib.Money;
import manifold.ext.props.rt.api.*;

public class Person extends Base implements Named {
    @var String name;
    @val int age;
    Money wallet;
}
`

const baseSource = `package app;

public class Base {
    public String getNickname() { return null; }
    public void setNickname(String nickname) {}
}
`

const namedSource = `package app;

public interface Named {
    String getName();
}
`

// syncBuffer is a bytes.Buffer safe for the concurrent writes of parallel
// extraction.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// writeProject lays out a small project: a build stub declaring module
// "app", a stub library of compiled classes and three Java sources.
func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "build.risor"), buildStub)
	writeFile(t, filepath.Join(root, "stubs", "lib.risor"), libStub)
	writeFile(t, filepath.Join(root, "src", "app", "Person.java"), personSource)
	writeFile(t, filepath.Join(root, "src", "app", "Base.java"), baseSource)
	writeFile(t, filepath.Join(root, "src", "app", "Named.java"), namedSource)
	return root
}

func classNames(t *testing.T, e *Engine) []string {
	t.Helper()
	classes, err := e.Store().LoadClasses()
	require.NoError(t, err)
	var names []string
	for _, c := range classes {
		names = append(names, c.QualifiedName)
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// Construction
// =============================================================================

func TestNew_CreatesStore(t *testing.T) {
	e := newTestEngine(t)
	require.NotNil(t, e.Store())
	assert.True(t, e.useParallel)

	ready, err := e.Store().IndexReady()
	require.NoError(t, err)
	assert.False(t, ready, "a fresh database is not ready")
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/dir/db.sqlite")
	require.Error(t, err)
}

func TestNew_BadConstraint(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "test.db"), WithPropertiesConstraint("", "not a constraint"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constraint")
}

func TestClose(t *testing.T) {
	e, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, e.Close())
}

// =============================================================================
// IndexFiles
// =============================================================================

func TestIndexFiles_SkipsUnsupportedExtensions(t *testing.T) {
	e := newTestEngine(t)
	tmp := writeFile(t, filepath.Join(t.TempDir(), "readme.txt"), "hello")

	require.NoError(t, e.IndexFiles(context.Background(), []string{tmp}))

	f, err := e.Store().FileByPath(tmp)
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestIndexFiles_ExtractsJava(t *testing.T) {
	e := newTestEngine(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "Base.java"), baseSource)

	require.NoError(t, e.IndexFiles(context.Background(), []string{path}))

	f, err := e.Store().FileByPath(path)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "java", f.Language)
	assert.Equal(t, store.ContentHash([]byte(baseSource)), f.Hash)

	c, err := e.Store().ClassByName("app.Base")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, path, c.File)
	assert.Len(t, c.Methods, 2)
}

func TestIndexFiles_SkipsUnchangedFiles(t *testing.T) {
	e := newTestEngine(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "Base.java"), baseSource)
	ctx := context.Background()

	require.NoError(t, e.IndexFiles(ctx, []string{path}))
	first, err := e.Store().FileByPath(path)
	require.NoError(t, err)

	require.NoError(t, e.IndexFiles(ctx, []string{path}))
	second, err := e.Store().FileByPath(path)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "unchanged file keeps its record")
	assert.Equal(t, []string{"app.Base"}, classNames(t, e))
}

func TestIndexFiles_ReindexesChangedFiles(t *testing.T) {
	e := newTestEngine(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "Base.java"), baseSource)
	ctx := context.Background()
	require.NoError(t, e.IndexFiles(ctx, []string{path}))

	writeFile(t, path, "package app;\npublic class Renamed { int x; }\n")
	require.NoError(t, e.IndexFiles(ctx, []string{path}))

	assert.Equal(t, []string{"app.Renamed"}, classNames(t, e))
}

func TestIndexFiles_RemovesVanishedFile(t *testing.T) {
	e := newTestEngine(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "Base.java"), baseSource)
	ctx := context.Background()
	require.NoError(t, e.IndexFiles(ctx, []string{path}))

	require.NoError(t, os.Remove(path))
	require.NoError(t, e.IndexFiles(ctx, []string{path}))

	f, err := e.Store().FileByPath(path)
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.Empty(t, classNames(t, e))
}

func TestIndexFiles_ReadyAndEpoch(t *testing.T) {
	e := newTestEngine(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "Base.java"), baseSource)
	ctx := context.Background()

	require.NoError(t, e.IndexFiles(ctx, []string{path}))
	ready, err := e.Store().IndexReady()
	require.NoError(t, err)
	assert.True(t, ready)
	epoch, err := e.Store().Epoch()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), epoch)

	require.NoError(t, e.IndexFiles(ctx, []string{path}))
	epoch, err = e.Store().Epoch()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), epoch)
}

func TestIndexFiles_RunsStubScripts(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	build := writeFile(t, filepath.Join(dir, "build.risor"), buildStub)
	lib := writeFile(t, filepath.Join(dir, "lib.risor"), libStub)

	require.NoError(t, e.IndexFiles(context.Background(), []string{build, lib}))

	m, err := e.Store().ModuleByName("app")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.NotNil(t, m.FileID)
	f, err := e.Store().FileByPath(build)
	require.NoError(t, err)
	assert.Equal(t, f.ID, *m.FileID)

	acct, err := e.Store().ClassByName("lib.Account")
	require.NoError(t, err)
	require.NotNil(t, acct)
	assert.True(t, acct.Compiled)
	assert.Equal(t, "app", acct.Module)
}

func TestIndexFiles_StubScriptErrorIsCollected(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		e := newTestEngine(t, WithParallel(parallel))
		dir := t.TempDir()
		bad := writeFile(t, filepath.Join(dir, "bad.risor"), `insert_module({"version": "1"})`)
		good := writeFile(t, filepath.Join(dir, "Base.java"), baseSource)

		err := e.IndexFiles(context.Background(), []string{bad, good})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "indexing had 1 error(s)")
		assert.Contains(t, err.Error(), "name is required")

		f, err := e.Store().FileByPath(bad)
		require.NoError(t, err)
		assert.Nil(t, f, "failed file is forgotten so it is retried")
		assert.Equal(t, []string{"app.Base"}, classNames(t, e), "other files still index")

		ready, err := e.Store().IndexReady()
		require.NoError(t, err)
		assert.True(t, ready)
	}
}

func TestIndexFiles_StubLogGoesToLogger(t *testing.T) {
	var buf syncBuffer
	e := newTestEngine(t, WithLogger(log.New(&buf, "", 0)))
	path := writeFile(t, filepath.Join(t.TempDir(), "warn.risor"), `log.Warn("no version pinned")`)

	require.NoError(t, e.IndexFiles(context.Background(), []string{path}))
	assert.Contains(t, buf.String(), "[trellis] WARN: no version pinned")
	assert.Contains(t, buf.String(), "indexed 1 file(s)")
}

// =============================================================================
// IndexDirectory
// =============================================================================

func TestIndexDirectory_IndexesProject(t *testing.T) {
	e := newTestEngine(t)
	root := writeProject(t)

	require.NoError(t, e.IndexDirectory(context.Background(), root))
	assert.Equal(t, []string{"app.Base", "app.Named", "app.Person", "lib.Account", "lib.Money"}, classNames(t, e))
}

func TestIndexDirectory_SerialMatchesParallel(t *testing.T) {
	root := writeProject(t)
	ctx := context.Background()

	serial := newTestEngine(t, WithParallel(false))
	parallel := newTestEngine(t, WithParallel(true))
	require.NoError(t, serial.IndexDirectory(ctx, root))
	require.NoError(t, parallel.IndexDirectory(ctx, root))

	assert.Equal(t, classNames(t, serial), classNames(t, parallel))

	sh, err := serial.Store().ClassSignatureHashes()
	require.NoError(t, err)
	ph, err := parallel.Store().ClassSignatureHashes()
	require.NoError(t, err)
	assert.Equal(t, sh, ph)
}

func TestIndexDirectory_PrunesDeletedFiles(t *testing.T) {
	e := newTestEngine(t)
	root := writeProject(t)
	ctx := context.Background()
	require.NoError(t, e.IndexDirectory(ctx, root))

	require.NoError(t, os.Remove(filepath.Join(root, "src", "app", "Named.java")))
	require.NoError(t, e.IndexDirectory(ctx, root))

	assert.NotContains(t, classNames(t, e), "app.Named")
	assert.Contains(t, classNames(t, e), "app.Person")
}

func TestIndexDirectory_SkipsHiddenBuildAndIgnored(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden", "Hidden.java"), "class Hidden {}")
	writeFile(t, filepath.Join(root, "target", "Built.java"), "class Built {}")
	writeFile(t, filepath.Join(root, "gen", "Generated.java"), "class Generated {}")
	writeFile(t, filepath.Join(root, "Scratch.java"), "class Scratch {}")
	writeFile(t, filepath.Join(root, "Kept.java"), "class Kept {}")
	writeFile(t, filepath.Join(root, ".gitignore"), "gen/\nScratch.java\n")

	e := newTestEngine(t)
	require.NoError(t, e.IndexDirectory(context.Background(), root))
	assert.Equal(t, []string{"Kept"}, classNames(t, e))
}
