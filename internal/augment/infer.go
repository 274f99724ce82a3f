package augment

import (
	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/modifier"
)

// VarAnnotation marks inferred read-write property fields.
var VarAnnotation = model.AnnotationSpec{
	QualifiedName: "manifold.ext.props.rt.api.var",
	Text:          "@var",
}

// candidate is a method seen during inference together with the class that
// declares it.
type candidate struct {
	method *model.Method
	owner  *model.Class
}

// inferPass holds the traversal state of one inference pass. Nothing in it
// outlives the pass.
type inferPass struct {
	visited map[string]bool
	methods []candidate
}

// primeAncestry walks c's ancestry depth first, superclass before
// interfaces, visiting each class at most once per pass, and collects
// methods deepest ancestor first. Inherited private methods are skipped.
func (a *Augmenter) primeAncestry(p *inferPass, c *model.Class, inherited bool) {
	if c == nil || p.visited[c.QualifiedName] {
		return
	}
	p.visited[c.QualifiedName] = true

	for _, s := range a.types.Supers(c) {
		a.primeAncestry(p, s, true)
	}
	for _, m := range c.Methods {
		if inherited && m.Modifiers.Has(modifier.Private) {
			continue
		}
		p.methods = append(p.methods, candidate{method: m, owner: c})
	}
}

// inferFields adds a field for every getter/setter pair whose property is
// not already a declared field of c or an accumulated synthetic field. The
// first matching pair per property wins.
func (a *Augmenter) inferFields(c *model.Class, r *result) {
	p := &inferPass{visited: make(map[string]bool)}
	a.primeAncestry(p, c, false)

	var setters []candidate
	for _, cand := range p.methods {
		if _, ok := SetterProperty(cand.method); ok {
			setters = append(setters, cand)
		}
	}

	for _, g := range p.methods {
		prop, ok := GetterProperty(g.method)
		if !ok {
			continue
		}
		if c.Field(prop) != nil || r.has(model.MemberField, prop) {
			continue
		}
		if !a.hasSetter(g, prop, setters) {
			continue
		}

		mods := []modifier.Modifier{modifier.Private}
		if g.method.IsStatic() {
			mods = append(mods, modifier.Static)
		}
		r.add(&SyntheticField{
			Name:        prop,
			Type:        g.method.ReturnType,
			Modifiers:   modifier.NewSet(mods...),
			Annotations: []model.AnnotationSpec{VarAnnotation},
			Anchor: Anchor{
				Class:     g.owner.QualifiedName,
				Kind:      model.MemberMethod,
				Name:      g.method.Name,
				Signature: g.method.Signature(),
			},
			Origin: OriginInferred,
		})
	}
}

// hasSetter reports whether some setter for prop agrees with the getter on
// staticness and accepts the getter's return type.
func (a *Augmenter) hasSetter(g candidate, prop string, setters []candidate) bool {
	ret := a.types.Canonical(g.method.ReturnType, g.owner)
	for _, s := range setters {
		name, _ := SetterProperty(s.method)
		if name != prop || s.method.IsStatic() != g.method.IsStatic() {
			continue
		}
		param := a.types.Canonical(s.method.Params[0].Type, s.owner)
		if a.types.Assignable(ret, param) {
			return true
		}
	}
	return false
}
