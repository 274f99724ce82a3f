package augment

import (
	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/modifier"
	"github.com/jward/trellis/internal/types"
)

// generateAccessors adds getters and setters for the property fields of a
// source class. Compiled classes already carry real accessors.
func (a *Augmenter) generateAccessors(c *model.Class, r *result) {
	if c.Compiled {
		return
	}
	for _, f := range c.Fields {
		p := f.Property
		if p == nil {
			continue
		}
		anchor := Anchor{Class: c.QualifiedName, Kind: model.MemberField, Name: f.Name}

		if p.Read.Exposed {
			prefix := "get"
			if types.IsBoolean(f.Type) {
				prefix = "is"
			}
			getter := &SyntheticMethod{
				Name:       prefix + Capitalize(f.Name),
				Accessor:   Getter,
				Field:      f.Name,
				ReturnType: f.Type,
				Modifiers:  accessorModifiers(c, f, p.Read),
				Anchor:     anchor,
			}
			a.addAccessor(c, r, getter)
		}

		if p.Write.Exposed && p.Mutable && !f.Modifiers.Has(modifier.Final) {
			setter := &SyntheticMethod{
				Name:       "set" + Capitalize(f.Name),
				Accessor:   Setter,
				Field:      f.Name,
				ReturnType: "void",
				Params:     []model.Param{{Name: f.Name, Type: f.Type}},
				Modifiers:  accessorModifiers(c, f, p.Write),
				Anchor:     anchor,
			}
			a.addAccessor(c, r, setter)
		}
	}
}

// addAccessor adds m unless the class declares a method with the same name
// and parameter types.
func (a *Augmenter) addAccessor(c *model.Class, r *result, m *SyntheticMethod) {
	if a.declaresMethod(c, m) {
		return
	}
	r.add(m)
}

func (a *Augmenter) declaresMethod(c *model.Class, m *SyntheticMethod) bool {
	want := make([]string, len(m.Params))
	for i, p := range m.Params {
		want[i] = a.types.Canonical(p.Type, c)
	}
	for _, existing := range c.MethodsNamed(m.Name) {
		if len(existing.Params) != len(want) {
			continue
		}
		same := true
		for i, p := range existing.Params {
			if a.types.Canonical(p.Type, c) != want[i] {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}

// accessorModifiers picks the accessor's visibility: the access named by the
// declaring annotation, else the field's own public or protected access,
// else public.
func accessorModifiers(c *model.Class, f *model.Field, access model.Access) modifier.Set {
	vis := access.Visibility
	if vis == 0 {
		switch fv := f.Modifiers.Visibility(); fv {
		case modifier.Public, modifier.Protected:
			vis = fv
		default:
			vis = modifier.Public
		}
	}
	mods := []modifier.Modifier{vis}
	static := f.Modifiers.Has(modifier.Static)
	if static {
		mods = append(mods, modifier.Static)
	}
	if c.IsInterface() && !static {
		mods = append(mods, modifier.Abstract)
	}
	return modifier.NewSet(mods...)
}
