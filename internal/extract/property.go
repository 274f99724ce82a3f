package extract

import (
	"strings"

	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/modifier"
)

// Property annotation simple names.
const (
	annotationVar = "var"
	annotationVal = "val"
	annotationGet = "get"
	annotationSet = "set"
)

// propertyDeclaration builds the property marker of a field from its
// annotations, or nil when the field is not a property.
//
// @var exposes both sides and @val only the read side. @get and @set
// expose one side and override the visibility that @var or @val gave it.
// A field is mutable unless it is declared with @val or is final.
func propertyDeclaration(anns []model.Annotation, fieldMods modifier.Set) *model.PropertyDeclaration {
	var (
		p     model.PropertyDeclaration
		found bool
		val   bool
	)
	for _, a := range anns {
		access := accessArgument(a.Text)
		switch model.SimpleName(a.Name) {
		case annotationVar:
			p.Read = model.Access{Exposed: true, Visibility: pick(p.Read.Visibility, access)}
			p.Write = model.Access{Exposed: true, Visibility: pick(p.Write.Visibility, access)}
		case annotationVal:
			p.Read = model.Access{Exposed: true, Visibility: pick(p.Read.Visibility, access)}
			val = true
		case annotationGet:
			p.Read.Exposed = true
			if access != 0 {
				p.Read.Visibility = access
			}
		case annotationSet:
			p.Write.Exposed = true
			if access != 0 {
				p.Write.Visibility = access
			}
		default:
			continue
		}
		found = true
	}
	if !found {
		return nil
	}
	if val {
		p.Write = model.Access{}
	}
	p.Mutable = !val && !fieldMods.Has(modifier.Final)
	return &p
}

// pick keeps an explicit per-side visibility over the shared one.
func pick(current, shared modifier.Modifier) modifier.Modifier {
	if current != 0 {
		return current
	}
	return shared
}

// accessArgument returns the visibility named in an annotation's argument
// list: @var(PROTECTED), @set(PropOption.Private) or
// @get(value = PropOption.Package). Non-visibility options are ignored.
func accessArgument(text string) modifier.Modifier {
	open := strings.IndexByte(text, '(')
	close := strings.LastIndexByte(text, ')')
	if open < 0 || close <= open {
		return 0
	}
	args := strings.FieldsFunc(text[open+1:close], func(r rune) bool {
		return r == ',' || r == '=' || r == '{' || r == '}' || r == ' ' || r == '\t' || r == '\n'
	})
	for _, arg := range args {
		m, ok := modifier.Parse(strings.ToLower(model.SimpleName(arg)))
		if ok && m.IsVisibility() {
			return m
		}
	}
	return 0
}
