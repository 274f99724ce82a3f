package trellis

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden test format. Members are written as Java-like declarations:
// "public void setX(int)" for methods, "private String name" for fields.
type goldenFile struct {
	Classes   []string            `json:"classes,omitempty"`
	Methods   map[string][]string `json:"methods,omitempty"`
	Fields    map[string][]string `json:"fields,omitempty"`
	Operators []goldenOperator    `json:"operators,omitempty"`
}

type goldenOperator struct {
	Left    string `json:"left"`
	Op      string `json:"op"`
	Right   string `json:"right"`
	Context string `json:"context,omitempty"`
	Method  string `json:"method,omitempty"` // empty when not overloaded
}

// TestGolden walks testdata/{language}/ directories and runs golden tests
// for all languages that have testdata.
func TestGolden(t *testing.T) {
	langDirs, err := os.ReadDir("testdata")
	if err != nil {
		t.Skip("no testdata directory found")
	}

	for _, langDir := range langDirs {
		if !langDir.IsDir() {
			continue
		}
		lang := langDir.Name()
		langRoot := filepath.Join("testdata", lang)
		levels, err := os.ReadDir(langRoot)
		if err != nil {
			continue
		}

		for _, level := range levels {
			if !level.IsDir() {
				continue
			}
			testDir := filepath.Join(langRoot, level.Name())
			goldenPath := filepath.Join(testDir, "golden.json")
			srcDir := filepath.Join(testDir, "src")

			if _, err := os.Stat(goldenPath); err != nil {
				continue
			}
			if _, err := os.Stat(srcDir); err != nil {
				continue
			}

			t.Run(lang+"/"+level.Name(), func(t *testing.T) {
				runGoldenTest(t, srcDir, goldenPath)
			})
		}
	}
}

func runGoldenTest(t *testing.T, srcDir, goldenPath string) {
	t.Helper()

	goldenData, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	var golden goldenFile
	require.NoError(t, json.Unmarshal(goldenData, &golden))

	engine, err := New(filepath.Join(t.TempDir(), "golden.db"))
	require.NoError(t, err)
	defer engine.Close()

	srcEntries, err := os.ReadDir(srcDir)
	require.NoError(t, err)
	var paths []string
	for _, e := range srcEntries {
		if !e.IsDir() {
			paths = append(paths, filepath.Join(srcDir, e.Name()))
		}
	}
	require.NoError(t, engine.IndexFiles(context.Background(), paths))
	q := engine.Query()

	if len(golden.Classes) > 0 {
		t.Run("classes", func(t *testing.T) {
			assert.Equal(t, golden.Classes, classNames(t, engine))
		})
	}

	if len(golden.Methods) > 0 {
		t.Run("methods", func(t *testing.T) {
			verifyMembers(t, q, MemberMethod, golden.Methods)
		})
	}

	if len(golden.Fields) > 0 {
		t.Run("fields", func(t *testing.T) {
			verifyMembers(t, q, MemberField, golden.Fields)
		})
	}

	if len(golden.Operators) > 0 {
		t.Run("operators", func(t *testing.T) {
			verifyOperators(t, q, golden.Operators)
		})
	}
}

func verifyMembers(t *testing.T, q *QueryBuilder, kind MemberKind, expected map[string][]string) {
	t.Helper()
	classes := make([]string, 0, len(expected))
	for c := range expected {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	for _, class := range classes {
		res, err := q.Augment(class, kind)
		require.NoError(t, err)
		require.NotNil(t, res, "class %s not indexed", class)

		got := []string{}
		for _, f := range res.Fields {
			got = append(got, declaration(f.Modifiers.Names(), f.Type, f.Name))
		}
		for _, m := range res.Methods {
			got = append(got, declaration(m.Modifiers.Names(), m.ReturnType, m.Signature()))
		}
		assert.Equal(t, expected[class], got, "%s members of %s", kind, class)
	}
}

func declaration(mods []string, typ, name string) string {
	return strings.Join(append(mods, typ, name), " ")
}

func verifyOperators(t *testing.T, q *QueryBuilder, expected []goldenOperator) {
	t.Helper()
	for _, op := range expected {
		res, err := q.Operator(op.Left, op.Op, op.Right, op.Context)
		require.NoError(t, err)
		desc := res.Expression
		if op.Method == "" {
			assert.False(t, res.Overloaded, "%s should not be overloaded", desc)
			continue
		}
		if assert.True(t, res.Overloaded, "%s should be overloaded", desc) {
			assert.Equal(t, op.Method, res.Method.Key(), desc)
		}
	}
}
