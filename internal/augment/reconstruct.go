package augment

import (
	"strings"

	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/modifier"
)

// reconstructFields rebuilds the non-backing property fields of a compiled
// class from the property tags on its accessors. A malformed tag only skips
// its own method.
func (a *Augmenter) reconstructFields(c *model.Class, r *result) {
	if !c.Compiled {
		return
	}
	for _, m := range c.Methods {
		tag := m.Tag
		if tag == nil || tag.Name == nil || *tag.Name == "" || tag.Flags == nil {
			continue
		}
		name := *tag.Name
		if c.Field(name) != nil || r.has(model.MemberField, name) {
			continue
		}

		typ := m.ReturnType
		if len(m.Params) == 1 {
			typ = m.Params[0].Type
		}

		r.add(&SyntheticField{
			Name:        name,
			Type:        typ,
			Modifiers:   modifier.Decode(*tag.Flags),
			Annotations: reconstructAnnotations(tag.Annotations),
			Anchor: Anchor{
				Class:     c.QualifiedName,
				Kind:      model.MemberMethod,
				Name:      m.Name,
				Signature: m.Signature(),
			},
			Origin: OriginReconstructed,
		})
	}
}

// reconstructAnnotations renders nested annotation specs back to name/text
// pairs. Array-valued attributes render as "{@var}", so one pair of braces
// is stripped.
func reconstructAnnotations(specs []model.AnnotationSpec) []model.AnnotationSpec {
	var out []model.AnnotationSpec
	for _, s := range specs {
		if s.QualifiedName == "" {
			continue
		}
		text := strings.TrimSpace(s.Text)
		if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
			text = strings.TrimSpace(text[1 : len(text)-1])
		}
		if text == "" {
			text = "@" + model.SimpleName(s.QualifiedName)
		}
		out = append(out, model.AnnotationSpec{QualifiedName: s.QualifiedName, Text: text})
	}
	return out
}
