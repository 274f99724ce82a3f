package types

import (
	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/modifier"
)

// Methods returns the methods named name that are members of c: its own
// declarations first, then inherited ones in ancestry order. Inherited
// private methods and overridden signatures are excluded.
func (ts *System) Methods(c *model.Class, name string) []*model.Method {
	var out []*model.Method
	seen := map[string]bool{}
	visited := map[string]bool{}

	var walk func(cls *model.Class, inherited bool)
	walk = func(cls *model.Class, inherited bool) {
		if cls == nil || visited[cls.QualifiedName] {
			return
		}
		visited[cls.QualifiedName] = true
		for _, m := range cls.MethodsNamed(name) {
			if inherited && m.Modifiers.Has(modifier.Private) {
				continue
			}
			sig := ts.erasedSignature(m, cls)
			if seen[sig] {
				continue
			}
			seen[sig] = true
			out = append(out, m)
		}
		for _, s := range ts.Supers(cls) {
			walk(s, true)
		}
	}
	walk(c, false)
	return out
}

func (ts *System) erasedSignature(m *model.Method, owner *model.Class) string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = ts.Canonical(p.Type, owner)
	}
	return model.Signature(m.Name, params)
}

// ParamTypes returns the canonical parameter types of m.
func (ts *System) ParamTypes(m *model.Method) []string {
	owner := ts.index.Class(m.Owner)
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = ts.Canonical(p.Type, owner)
	}
	return params
}

func (ts *System) applicable(m *model.Method, argTypes []string, assignable func(src, dst string) bool) bool {
	if len(m.Params) != len(argTypes) {
		return false
	}
	params := ts.ParamTypes(m)
	for i, arg := range argTypes {
		if !assignable(arg, params[i]) {
			return false
		}
	}
	return true
}

// MostSpecific selects the single most specific method from candidates, all
// of which must be applicable to the same arguments. It returns nil when
// candidates is empty or the choice is ambiguous.
func (ts *System) MostSpecific(candidates []*model.Method) *model.Method {
	var best []*model.Method
	for _, m := range candidates {
		dominated := false
		for _, other := range candidates {
			if other != m && ts.moreSpecific(other, m) && !ts.moreSpecific(m, other) {
				dominated = true
				break
			}
		}
		if !dominated {
			best = append(best, m)
		}
	}
	if len(best) != 1 {
		return nil
	}
	return best[0]
}

// moreSpecific reports whether every parameter of a is assignable to the
// corresponding parameter of b.
func (ts *System) moreSpecific(a, b *model.Method) bool {
	pa, pb := ts.ParamTypes(a), ts.ParamTypes(b)
	if len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if !ts.Assignable(pa[i], pb[i]) {
			return false
		}
	}
	return true
}

// FindMethod looks up the member method of c named name that best matches
// the canonical argTypes. Like Java overload resolution it first considers
// methods applicable without boxing, then with. It returns nil when nothing
// applies or the overloads are ambiguous.
func (ts *System) FindMethod(c *model.Class, name string, argTypes []string) *model.Method {
	if c == nil {
		return nil
	}
	methods := ts.Methods(c, name)
	for _, assignable := range []func(src, dst string) bool{ts.AssignableStrict, ts.Assignable} {
		var applicable []*model.Method
		for _, m := range methods {
			if ts.applicable(m, argTypes, assignable) {
				applicable = append(applicable, m)
			}
		}
		if len(applicable) > 0 {
			return ts.MostSpecific(applicable)
		}
	}
	return nil
}
