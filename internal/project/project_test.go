package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/trellis/internal/store"
)

func modules() []*store.Module {
	return []*store.Module{
		{Name: "core", Dependencies: []store.Dependency{{Name: "manifold-props", Version: "2023.1.5"}}},
		{Name: "legacy", Dependencies: []store.Dependency{{Name: "manifold-props", Version: "2020.1.12"}}},
		{Name: "plain", Dependencies: []store.Dependency{{Name: "guava", Version: "32.0"}}},
		{Name: "floating", Dependencies: []store.Dependency{{Name: "manifold-props"}}},
		{Name: "broken", Dependencies: []store.Dependency{{Name: "manifold-props", Version: "latest"}}},
	}
}

func TestGate_Enabled(t *testing.T) {
	t.Parallel()
	g, err := NewGate("", "", modules())
	require.NoError(t, err)
	assert.Equal(t, DefaultLibrary, g.Library())

	tests := []struct {
		module string
		want   bool
	}{
		{"core", true},
		{"legacy", false},
		{"plain", false},
		{"floating", true},
		{"broken", false},
		{"unknown", false},
		{"", true},
	}
	for _, tt := range tests {
		ok, reason := g.Check(tt.module)
		assert.Equal(t, tt.want, ok, "%s: %s", tt.module, reason)
		assert.NotEmpty(t, reason)
		assert.Equal(t, tt.want, g.Enabled(tt.module))
	}
}

func TestGate_NoModulesEnablesEverything(t *testing.T) {
	t.Parallel()
	g, err := NewGate("", "", nil)
	require.NoError(t, err)
	assert.True(t, g.Enabled(""))
	assert.True(t, g.Enabled("anything"))
}

func TestGate_NoModuleFollowsProject(t *testing.T) {
	t.Parallel()
	g, err := NewGate("", "", []*store.Module{
		{Name: "legacy", Dependencies: []store.Dependency{{Name: "manifold-props", Version: "2020.1.12"}}},
		{Name: "plain", Dependencies: []store.Dependency{{Name: "guava", Version: "32.0"}}},
	})
	require.NoError(t, err)
	ok, reason := g.Check("")
	assert.False(t, ok)
	assert.Contains(t, reason, "not in use")

	g, err = NewGate("", "", []*store.Module{
		{Name: "plain", Dependencies: []store.Dependency{{Name: "guava", Version: "32.0"}}},
		{Name: "core", Dependencies: []store.Dependency{{Name: "manifold-props", Version: "2023.1.5"}}},
	})
	require.NoError(t, err)
	ok, reason = g.Check("")
	assert.True(t, ok)
	assert.Contains(t, reason, `module "core"`)
	assert.False(t, g.Enabled("missing"))
}

func TestGate_CustomLibraryAndConstraint(t *testing.T) {
	t.Parallel()
	g, err := NewGate("manifold-all", "~2020.1", []*store.Module{
		{Name: "a", Dependencies: []store.Dependency{{Name: "manifold-all", Version: "2020.1.40"}}},
		{Name: "b", Dependencies: []store.Dependency{{Name: "manifold-props", Version: "2023.1.5"}}},
	})
	require.NoError(t, err)
	assert.True(t, g.Enabled("a"))
	assert.False(t, g.Enabled("b"))
}

func TestGate_LaterModuleWins(t *testing.T) {
	t.Parallel()
	g, err := NewGate("", "", []*store.Module{
		{Name: "core"},
		{Name: "core", Dependencies: []store.Dependency{{Name: "manifold-props", Version: "2024.1.0"}}},
	})
	require.NoError(t, err)
	assert.True(t, g.Enabled("core"))
}

func TestNewGate_BadConstraint(t *testing.T) {
	t.Parallel()
	_, err := NewGate("", ">= banana", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constraint")
}
