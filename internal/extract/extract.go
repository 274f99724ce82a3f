// Package extract turns Java source files into class models using
// tree-sitter. Only declarations are read: package, imports, types (nested
// types become Outer.Inner), supertypes, fields, methods and annotations.
// Method bodies are never inspected.
package extract

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/modifier"
)

// Language is the canonical language name of files handled here.
const Language = "java"

// declarationKinds maps tree-sitter declaration nodes to class kinds.
var declarationKinds = map[string]model.ClassKind{
	"class_declaration":           model.KindClass,
	"interface_declaration":       model.KindInterface,
	"enum_declaration":            model.KindEnum,
	"record_declaration":          model.KindRecord,
	"annotation_type_declaration": model.KindAnnotation,
}

// Extract parses src and returns its classes in declaration order, outer
// classes before the classes nested in them. path is recorded on every
// class.
func Extract(ctx context.Context, path string, src []byte) ([]*model.Class, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("extract: parse %s: %w", path, err)
	}
	defer tree.Close()

	x := &extraction{src: src, path: path}
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "package_declaration":
			x.pkg = x.packageName(n)
		case "import_declaration":
			if imp := x.importName(n); imp != "" {
				x.imports = append(x.imports, imp)
			}
		default:
			if _, ok := declarationKinds[n.Type()]; ok {
				x.declaration(n, nil)
			}
		}
	}
	return x.classes, nil
}

type extraction struct {
	src     []byte
	path    string
	pkg     string
	imports []string
	classes []*model.Class
}

func (x *extraction) text(n *sitter.Node) string {
	return string(x.src[n.StartByte():n.EndByte()])
}

func (x *extraction) packageName(n *sitter.Node) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		switch c := n.NamedChild(i); c.Type() {
		case "identifier", "scoped_identifier":
			return x.text(c)
		}
	}
	return ""
}

// importName returns "a.b.C" or "a.b.*". Static imports are dropped since
// they never name a type for resolution purposes.
func (x *extraction) importName(n *sitter.Node) string {
	body := strings.TrimSpace(x.text(n))
	body = strings.TrimPrefix(body, "import")
	body = strings.TrimSuffix(strings.TrimSpace(body), ";")
	parts := strings.Fields(body)
	if len(parts) == 0 || parts[0] == "static" {
		return ""
	}
	return strings.Join(parts, "")
}

// declaration extracts one type declaration and the types nested in it.
func (x *extraction) declaration(n *sitter.Node, outer *model.Class) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	kind := declarationKinds[n.Type()]
	name := x.text(nameNode)

	c := &model.Class{
		Package:    x.pkg,
		File:       x.path,
		Kind:       kind,
		Imports:    x.imports,
		Extensible: kind != model.KindAnnotation,
		Valid:      true,
	}
	switch {
	case outer != nil:
		c.QualifiedName = outer.QualifiedName + "." + name
	case x.pkg != "":
		c.QualifiedName = x.pkg + "." + name
	default:
		c.QualifiedName = name
	}

	mods := x.modifiers(n)
	c.Modifiers = mods.set
	if outer != nil && outer.IsInterface() {
		c.Modifiers = c.Modifiers.With(modifier.Public, modifier.Static)
	}
	x.classes = append(x.classes, c)

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "superclass":
			if t := child.NamedChild(0); t != nil {
				c.Super = x.text(t)
			}
		case "super_interfaces", "extends_interfaces":
			c.Interfaces = append(c.Interfaces, x.typeList(child)...)
		}
	}

	if kind == model.KindRecord {
		if params := n.ChildByFieldName("parameters"); params != nil {
			for _, p := range x.params(params) {
				c.Fields = append(c.Fields, &model.Field{
					Name:      p.Name,
					Type:      p.Type,
					Modifiers: modifier.NewSet(modifier.Private, modifier.Final),
				})
			}
		}
	}

	if body := n.ChildByFieldName("body"); body != nil {
		x.body(c, body)
	}
}

func (x *extraction) typeList(n *sitter.Node) []string {
	var out []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "type_list" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			out = append(out, x.text(child.NamedChild(j)))
		}
	}
	return out
}

// body walks class, interface, enum and annotation bodies.
func (x *extraction) body(c *model.Class, body *sitter.Node) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		n := body.NamedChild(i)
		switch n.Type() {
		case "field_declaration", "constant_declaration":
			x.fields(c, n)
		case "method_declaration":
			x.method(c, n)
		case "enum_constant":
			if name := n.ChildByFieldName("name"); name != nil {
				c.Fields = append(c.Fields, &model.Field{
					Name:      x.text(name),
					Type:      c.SimpleName(),
					Modifiers: modifier.NewSet(modifier.Public, modifier.Static, modifier.Final),
				})
			}
		case "enum_body_declarations":
			x.body(c, n)
		default:
			if _, ok := declarationKinds[n.Type()]; ok {
				x.declaration(n, c)
			}
		}
	}
}

func (x *extraction) fields(c *model.Class, n *sitter.Node) {
	mods := x.modifiers(n)
	set := mods.set
	if c.IsInterface() {
		set = set.With(modifier.Public, modifier.Static, modifier.Final)
	}
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	baseType := x.text(typeNode)
	prop := propertyDeclaration(mods.annotations, set)

	for i := 0; i < int(n.NamedChildCount()); i++ {
		d := n.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		name := d.ChildByFieldName("name")
		if name == nil {
			continue
		}
		typ := baseType
		if dims := d.ChildByFieldName("dimensions"); dims != nil {
			typ += strings.Join(strings.Fields(x.text(dims)), "")
		}
		f := &model.Field{
			Name:        x.text(name),
			Type:        typ,
			Modifiers:   set,
			Annotations: mods.annotations,
		}
		if prop != nil {
			p := *prop
			f.Property = &p
		}
		c.Fields = append(c.Fields, f)
	}
}

func (x *extraction) method(c *model.Class, n *sitter.Node) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	mods := x.modifiers(n)
	set := mods.set
	hasBody := n.ChildByFieldName("body") != nil
	if c.IsInterface() {
		if set.Visibility() == 0 {
			set = set.With(modifier.Public)
		}
		if !hasBody && !set.Has(modifier.Static) {
			set = set.With(modifier.Abstract)
		}
	}

	ret := "void"
	if t := n.ChildByFieldName("type"); t != nil {
		ret = x.text(t)
	}
	if dims := n.ChildByFieldName("dimensions"); dims != nil {
		ret += strings.Join(strings.Fields(x.text(dims)), "")
	}

	m := &model.Method{
		Owner:       c.QualifiedName,
		Name:        x.text(name),
		ReturnType:  ret,
		Modifiers:   set,
		Annotations: mods.annotations,
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		m.Params = x.params(params)
	}
	c.Methods = append(c.Methods, m)
}

// params reads formal_parameters. Varargs become T... and C-style array
// suffixes on the name are folded into the type.
func (x *extraction) params(n *sitter.Node) []model.Param {
	var out []model.Param
	for i := 0; i < int(n.NamedChildCount()); i++ {
		p := n.NamedChild(i)
		switch p.Type() {
		case "formal_parameter":
			t, name := p.ChildByFieldName("type"), p.ChildByFieldName("name")
			if t == nil || name == nil {
				continue
			}
			typ := x.text(t)
			if dims := p.ChildByFieldName("dimensions"); dims != nil {
				typ += strings.Join(strings.Fields(x.text(dims)), "")
			}
			out = append(out, model.Param{Name: x.text(name), Type: typ})
		case "spread_parameter":
			var typ, name string
			for j := 0; j < int(p.NamedChildCount()); j++ {
				child := p.NamedChild(j)
				switch child.Type() {
				case "modifiers":
				case "variable_declarator":
					if id := child.ChildByFieldName("name"); id != nil {
						name = x.text(id)
					}
				default:
					if typ == "" {
						typ = x.text(child)
					}
				}
			}
			out = append(out, model.Param{Name: name, Type: typ + "..."})
		}
	}
	return out
}

type declaredModifiers struct {
	set         modifier.Set
	annotations []model.Annotation
}

// modifiers reads the modifiers node of a declaration: keywords become the
// modifier set, annotations are kept as written.
func (x *extraction) modifiers(n *sitter.Node) declaredModifiers {
	var out declaredModifiers
	for i := 0; i < int(n.NamedChildCount()); i++ {
		mods := n.NamedChild(i)
		if mods.Type() != "modifiers" {
			continue
		}
		var words []string
		for j := 0; j < int(mods.ChildCount()); j++ {
			child := mods.Child(j)
			switch child.Type() {
			case "marker_annotation", "annotation":
				a := model.Annotation{Text: x.text(child)}
				if name := child.ChildByFieldName("name"); name != nil {
					a.Name = x.text(name)
				}
				out.annotations = append(out.annotations, a)
			default:
				words = append(words, x.text(child))
			}
		}
		out.set = modifier.ParseSet(words...)
	}
	return out
}
