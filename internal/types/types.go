// Package types answers the type questions augmentation and operator
// resolution need: name resolution, assignability and method applicability.
// Types are carried as source text and canonicalized against a class index.
package types

import (
	"strings"

	"github.com/jward/trellis/internal/model"
)

// Index is the class lookup the type system runs against.
// *model.Snapshot satisfies it.
type Index interface {
	Class(qualifiedName string) *model.Class
	BySimpleName(simple string) []string
}

// System resolves and compares types against one Index.
type System struct {
	index Index
}

// New creates a System over idx.
func New(idx Index) *System {
	return &System{index: idx}
}

// Index returns the class index backing the System.
func (ts *System) Index() Index {
	return ts.index
}

var primitives = map[string]bool{
	"boolean": true, "byte": true, "short": true, "char": true,
	"int": true, "long": true, "float": true, "double": true,
}

var boxes = map[string]string{
	"boolean": "java.lang.Boolean",
	"byte":    "java.lang.Byte",
	"short":   "java.lang.Short",
	"char":    "java.lang.Character",
	"int":     "java.lang.Integer",
	"long":    "java.lang.Long",
	"float":   "java.lang.Float",
	"double":  "java.lang.Double",
}

var unboxes = func() map[string]string {
	m := make(map[string]string, len(boxes))
	for p, b := range boxes {
		m[b] = p
	}
	return m
}()

// widening lists, for each primitive, the primitives it widens to (JLS 5.1.2).
var widening = map[string][]string{
	"byte":  {"short", "int", "long", "float", "double"},
	"short": {"int", "long", "float", "double"},
	"char":  {"int", "long", "float", "double"},
	"int":   {"long", "float", "double"},
	"long":  {"float", "double"},
	"float": {"double"},
}

// builtinSupers covers java.lang types that are rarely present in the index.
var builtinSupers = map[string][]string{
	"java.lang.String":    {"java.lang.CharSequence", "java.lang.Comparable", "java.io.Serializable"},
	"java.lang.Integer":   {"java.lang.Number", "java.lang.Comparable"},
	"java.lang.Long":      {"java.lang.Number", "java.lang.Comparable"},
	"java.lang.Short":     {"java.lang.Number", "java.lang.Comparable"},
	"java.lang.Byte":      {"java.lang.Number", "java.lang.Comparable"},
	"java.lang.Float":     {"java.lang.Number", "java.lang.Comparable"},
	"java.lang.Double":    {"java.lang.Number", "java.lang.Comparable"},
	"java.lang.Character": {"java.lang.Comparable", "java.io.Serializable"},
	"java.lang.Boolean":   {"java.lang.Comparable", "java.io.Serializable"},
	"java.lang.Number":    {"java.io.Serializable"},
}

var javaLang = map[string]bool{
	"Object": true, "String": true, "CharSequence": true, "Number": true,
	"Comparable": true, "Boolean": true, "Byte": true, "Short": true,
	"Character": true, "Integer": true, "Long": true, "Float": true,
	"Double": true, "Iterable": true, "Enum": true, "Record": true,
}

const objectType = "java.lang.Object"

// IsPrimitive reports whether t names a primitive type.
func IsPrimitive(t string) bool {
	return primitives[strings.TrimSpace(t)]
}

// IsVoid reports whether t is the void pseudo-type or empty.
func IsVoid(t string) bool {
	t = strings.TrimSpace(t)
	return t == "" || t == "void"
}

// IsBoolean reports whether t is the primitive boolean type.
func IsBoolean(t string) bool {
	return strings.TrimSpace(t) == "boolean"
}

// Erasure strips type arguments and whitespace: "Map<K, V>" -> "Map".
func Erasure(t string) string {
	t = strings.Join(strings.Fields(t), "")
	var b strings.Builder
	depth := 0
	for _, r := range t {
		switch {
		case r == '<':
			depth++
		case r == '>':
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Unbox returns the primitive of a wrapper class, or "" for other types.
func Unbox(t string) string {
	return unboxes[t]
}

// Resolve finds the class a type name refers to from within ctx. ctx may be
// nil, in which case only qualified and unique simple names resolve.
func (ts *System) Resolve(name string, ctx *model.Class) *model.Class {
	name = Erasure(name)
	if name == "" || primitives[name] || strings.HasSuffix(name, "[]") {
		return nil
	}
	for _, candidate := range ts.candidates(name, ctx) {
		if c := ts.index.Class(candidate); c != nil {
			return c
		}
	}
	if !strings.Contains(name, ".") {
		if matches := ts.index.BySimpleName(name); len(matches) == 1 {
			return ts.index.Class(matches[0])
		}
	}
	return nil
}

// candidates lists qualified names name could denote, most specific first.
func (ts *System) candidates(name string, ctx *model.Class) []string {
	out := []string{name}
	if ctx == nil {
		return out
	}
	// Member classes of the context and its outer classes.
	for outer := ctx.QualifiedName; outer != "" && outer != ctx.Package; outer = trimLastSegment(outer) {
		out = append(out, outer+"."+name)
	}
	head, rest, nested := strings.Cut(name, ".")
	var onDemand []string
	for _, imp := range ctx.Imports {
		switch {
		case strings.HasSuffix(imp, ".*"):
			onDemand = append(onDemand, strings.TrimSuffix(imp, "*")+name)
		case model.SimpleName(imp) == head:
			if nested {
				out = append(out, imp+"."+rest)
			} else {
				out = append(out, imp)
			}
		}
	}
	if ctx.Package != "" {
		out = append(out, ctx.Package+"."+name)
	}
	return append(out, onDemand...)
}

func trimLastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return ""
}

// Canonical returns a context-free spelling of t as seen from ctx:
// primitives as-is, arrays element-first, indexed classes by qualified name,
// well-known java.lang names qualified, anything else erased.
func (ts *System) Canonical(t string, ctx *model.Class) string {
	t = Erasure(t)
	if strings.HasSuffix(t, "...") {
		t = strings.TrimSuffix(t, "...") + "[]"
	}
	if strings.HasSuffix(t, "[]") {
		return ts.Canonical(strings.TrimSuffix(t, "[]"), ctx) + "[]"
	}
	if t == "" || primitives[t] || t == "void" || t == "null" {
		return t
	}
	if c := ts.Resolve(t, ctx); c != nil {
		return c.QualifiedName
	}
	if javaLang[t] {
		return "java.lang." + t
	}
	return t
}

// Assignable reports whether a value of canonical type src may be assigned
// to canonical type dst: identity, primitive widening, boxing followed by
// widening reference conversion, unboxing followed by primitive widening,
// or subtyping through the index.
func (ts *System) Assignable(src, dst string) bool {
	if src == "" || dst == "" || src == "void" || dst == "void" {
		return false
	}
	if src == dst {
		return true
	}
	srcPrim, dstPrim := primitives[src], primitives[dst]
	switch {
	case src == "null":
		return !dstPrim
	case srcPrim && dstPrim:
		return widens(src, dst)
	case srcPrim:
		return ts.Subtype(boxes[src], dst)
	case dstPrim:
		p := unboxes[src]
		return p != "" && (p == dst || widens(p, dst))
	}
	return ts.Subtype(src, dst)
}

// AssignableStrict is Assignable without boxing or unboxing.
func (ts *System) AssignableStrict(src, dst string) bool {
	if primitives[src] != primitives[dst] {
		return false
	}
	return ts.Assignable(src, dst)
}

func widens(from, to string) bool {
	for _, w := range widening[from] {
		if w == to {
			return true
		}
	}
	return false
}

// Subtype reports whether reference type sub is a subtype of sup. Both are
// canonical names.
func (ts *System) Subtype(sub, sup string) bool {
	if sub == sup {
		return true
	}
	if sup == objectType {
		return !primitives[sub]
	}
	if strings.HasSuffix(sub, "[]") {
		if strings.HasSuffix(sup, "[]") {
			se, pe := strings.TrimSuffix(sub, "[]"), strings.TrimSuffix(sup, "[]")
			return !primitives[se] && !primitives[pe] && ts.Subtype(se, pe)
		}
		return sup == "java.lang.Cloneable" || sup == "java.io.Serializable"
	}
	visited := map[string]bool{}
	var walk func(name string) bool
	walk = func(name string) bool {
		if name == sup {
			return true
		}
		if visited[name] {
			return false
		}
		visited[name] = true
		for _, s := range ts.directSupertypes(name) {
			if walk(s) {
				return true
			}
		}
		return false
	}
	return walk(sub)
}

// directSupertypes returns canonical names of the immediate supertypes.
func (ts *System) directSupertypes(name string) []string {
	c := ts.index.Class(name)
	if c == nil {
		return builtinSupers[name]
	}
	var out []string
	if c.Super != "" {
		out = append(out, ts.Canonical(c.Super, c))
	}
	for _, iface := range c.Interfaces {
		out = append(out, ts.Canonical(iface, c))
	}
	return out
}

// Supers returns the resolved superclass (first) and interfaces of c.
// Names that do not resolve are skipped.
func (ts *System) Supers(c *model.Class) []*model.Class {
	var out []*model.Class
	if c.Super != "" {
		if s := ts.Resolve(c.Super, c); s != nil {
			out = append(out, s)
		}
	}
	for _, iface := range c.Interfaces {
		if s := ts.Resolve(iface, c); s != nil {
			out = append(out, s)
		}
	}
	return out
}
