// Package project decides whether the properties feature is active for a
// class, from the dependency versions its build module declares.
package project

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/jward/trellis/internal/store"
)

// Defaults for the feature gate.
const (
	DefaultLibrary    = "manifold-props"
	DefaultConstraint = ">= 2021.1.0"
)

// Gate answers "is the properties library in use by this module".
//
// A module uses the library when it declares a dependency on it whose
// version satisfies the constraint. A dependency without a version counts
// as satisfied. When no modules are declared at all, every class is
// enabled. Classes outside every module follow the project: they are
// enabled when any declared module uses the library.
type Gate struct {
	library    string
	constraint *semver.Constraints
	modules    map[string]*store.Module
}

// NewGate builds a gate over the declared modules. Later modules with the
// same name replace earlier ones.
func NewGate(library, constraint string, modules []*store.Module) (*Gate, error) {
	if library == "" {
		library = DefaultLibrary
	}
	if constraint == "" {
		constraint = DefaultConstraint
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("project: constraint %q: %w", constraint, err)
	}
	g := &Gate{
		library:    library,
		constraint: c,
		modules:    make(map[string]*store.Module, len(modules)),
	}
	for _, m := range modules {
		g.modules[m.Name] = m
	}
	return g, nil
}

// Enabled reports whether classes of the named module get synthesized
// members.
func (g *Gate) Enabled(module string) bool {
	ok, _ := g.Check(module)
	return ok
}

// Check is Enabled with a human-readable reason. A class outside every
// module is enabled when some declared module uses the library.
func (g *Gate) Check(module string) (bool, string) {
	if len(g.modules) == 0 {
		return true, "no modules declared"
	}
	if module == "" {
		for _, name := range g.names() {
			if ok, _ := g.checkModule(g.modules[name]); ok {
				return true, fmt.Sprintf("no module; %s in use by module %q", g.library, name)
			}
		}
		return false, fmt.Sprintf("no module; %s not in use by any module", g.library)
	}
	m, ok := g.modules[module]
	if !ok {
		return false, fmt.Sprintf("module %q is not declared", module)
	}
	return g.checkModule(m)
}

func (g *Gate) checkModule(m *store.Module) (bool, string) {
	module := m.Name
	dep := m.Dependency(g.library)
	if dep == nil {
		return false, fmt.Sprintf("module %q does not depend on %s", module, g.library)
	}
	if dep.Version == "" {
		return true, fmt.Sprintf("module %q depends on %s (unversioned)", module, g.library)
	}
	v, err := semver.NewVersion(dep.Version)
	if err != nil {
		return false, fmt.Sprintf("module %q: %s version %q is not a valid version", module, g.library, dep.Version)
	}
	if !g.constraint.Check(v) {
		return false, fmt.Sprintf("module %q: %s %s does not satisfy %s", module, g.library, dep.Version, g.constraint)
	}
	return true, fmt.Sprintf("module %q depends on %s %s", module, g.library, dep.Version)
}

// names returns the declared module names in order.
func (g *Gate) names() []string {
	names := make([]string, 0, len(g.modules))
	for n := range g.modules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Library returns the dependency name the gate looks for.
func (g *Gate) Library() string {
	return g.library
}
