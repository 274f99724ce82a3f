// Package render prints classes as Java-like outlines and diffs the
// declared outline against the augmented one.
package render

import (
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"

	"github.com/jward/trellis/internal/augment"
	"github.com/jward/trellis/internal/model"
)

const indent = "    "

// Synthetic holds the members augmentation added to a class.
type Synthetic struct {
	Fields  []*augment.SyntheticField
	Methods []*augment.SyntheticMethod
}

// Outline renders the declared members of c followed by the synthetic
// ones, each synthetic line tagged with where it came from.
func Outline(c *model.Class, syn Synthetic) string {
	var b strings.Builder
	b.WriteString(header(c))
	b.WriteString(" {\n")

	for _, f := range c.Fields {
		b.WriteString(indent + fieldLine(annotationTexts(f.Annotations), f.Modifiers.String(), f.Type, f.Name) + "\n")
	}
	for _, f := range syn.Fields {
		var anns []string
		for _, a := range f.Annotations {
			anns = append(anns, a.Text)
		}
		line := fieldLine(anns, f.Modifiers.String(), f.Type, f.Name)
		b.WriteString(fmt.Sprintf("%s%s // %s from %s\n", indent, line, f.Origin, f.Anchor.Signature))
	}

	if len(c.Fields)+len(syn.Fields) > 0 && len(c.Methods)+len(syn.Methods) > 0 {
		b.WriteString("\n")
	}

	for _, m := range c.Methods {
		b.WriteString(indent + methodLine(annotationTexts(m.Annotations), m.Modifiers.String(), m.ReturnType, m.Name, m.Params) + "\n")
	}
	for _, m := range syn.Methods {
		line := methodLine(nil, m.Modifiers.String(), m.ReturnType, m.Name, m.Params)
		b.WriteString(fmt.Sprintf("%s%s // %ster for %s\n", indent, line, m.Accessor, m.Field))
	}
	b.WriteString("}\n")
	return b.String()
}

// Declared renders c without synthetic members.
func Declared(c *model.Class) string {
	return Outline(c, Synthetic{})
}

// Diff returns a unified diff from the declared outline of c to its
// augmented outline. It is empty when augmentation added nothing.
func Diff(c *model.Class, syn Synthetic) (string, error) {
	u := difflib.UnifiedDiff{
		A:        difflib.SplitLines(Declared(c)),
		B:        difflib.SplitLines(Outline(c, syn)),
		FromFile: c.QualifiedName + " (declared)",
		ToFile:   c.QualifiedName + " (augmented)",
		Context:  3,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return "", fmt.Errorf("render: diff %s: %w", c.QualifiedName, err)
	}
	return s, nil
}

func header(c *model.Class) string {
	var parts []string
	if mods := c.Modifiers.String(); mods != "" {
		parts = append(parts, mods)
	}
	keyword := string(c.Kind)
	if c.Kind == model.KindAnnotation {
		keyword = "@interface"
	}
	parts = append(parts, keyword, c.QualifiedName)
	if c.Super != "" {
		parts = append(parts, "extends", c.Super)
	}
	if len(c.Interfaces) > 0 {
		kw := "implements"
		if c.IsInterface() {
			kw = "extends"
		}
		parts = append(parts, kw, strings.Join(c.Interfaces, ", "))
	}
	return strings.Join(parts, " ")
}

func fieldLine(annotations []string, mods, typ, name string) string {
	return joinNonEmpty(strings.Join(annotations, " "), mods, typ, name) + ";"
}

func methodLine(annotations []string, mods, ret, name string, params []model.Param) string {
	ps := make([]string, len(params))
	for i, p := range params {
		ps[i] = joinNonEmpty(p.Type, p.Name)
	}
	return joinNonEmpty(strings.Join(annotations, " "), mods, ret, name+"("+strings.Join(ps, ", ")+")") + ";"
}

func annotationTexts(anns []model.Annotation) []string {
	out := make([]string, len(anns))
	for i, a := range anns {
		out[i] = a.Text
	}
	return out
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
