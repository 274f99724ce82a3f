// Package model defines the read-only class view that augmentation and
// operator resolution work against.
package model

import (
	"strings"

	"github.com/jward/trellis/internal/modifier"
)

// ClassKind is the declaration form of a class.
type ClassKind string

const (
	KindClass      ClassKind = "class"
	KindInterface  ClassKind = "interface"
	KindEnum       ClassKind = "enum"
	KindRecord     ClassKind = "record"
	KindAnnotation ClassKind = "annotation"
)

// MemberKind distinguishes fields from methods.
type MemberKind string

const (
	MemberField  MemberKind = "field"
	MemberMethod MemberKind = "method"
)

// Annotation is an annotation use as written, e.g. {"var", "@var(PROTECTED)"}.
type Annotation struct {
	Name string
	Text string
}

// Access describes one side (read or write) of a declared property.
// Visibility is 0 when the declaration did not name one.
type Access struct {
	Exposed    bool
	Visibility modifier.Modifier
}

// PropertyDeclaration marks a source field as a property.
type PropertyDeclaration struct {
	Read    Access
	Write   Access
	Mutable bool
}

// AnnotationSpec is one nested annotation carried by a PropertyTag.
type AnnotationSpec struct {
	QualifiedName string
	Text          string
}

// PropertyTag is the property metadata attached to a compiled accessor.
// Name and Flags are pointers so that missing attributes stay observable.
type PropertyTag struct {
	Name        *string
	Flags       *int64
	Annotations []AnnotationSpec
}

// Param is a method parameter.
type Param struct {
	Name string
	Type string
}

// Field is a declared field.
type Field struct {
	Name        string
	Type        string
	Modifiers   modifier.Set
	Annotations []Annotation
	Property    *PropertyDeclaration
}

// Method is a declared method. ReturnType is "void" for none.
type Method struct {
	Owner       string
	Name        string
	ReturnType  string
	Params      []Param
	Modifiers   modifier.Set
	Annotations []Annotation
	Tag         *PropertyTag
}

// Signature returns "name(T1,T2)".
func (m *Method) Signature() string {
	return Signature(m.Name, m.ParamTypes())
}

// Key identifies the method within a snapshot: "Owner#name(T1,T2)".
func (m *Method) Key() string {
	return m.Owner + "#" + m.Signature()
}

// ParamTypes returns the parameter types in order.
func (m *Method) ParamTypes() []string {
	types := make([]string, len(m.Params))
	for i, p := range m.Params {
		types[i] = p.Type
	}
	return types
}

// IsStatic reports whether the method is declared static.
func (m *Method) IsStatic() bool {
	return m.Modifiers.Has(modifier.Static)
}

// Signature formats a method name and parameter types.
func Signature(name string, paramTypes []string) string {
	return name + "(" + strings.Join(paramTypes, ",") + ")"
}

// Class is a read-only view of a class declaration.
type Class struct {
	QualifiedName string
	Package       string
	Module        string
	File          string
	Kind          ClassKind
	Modifiers     modifier.Set
	Super         string
	Interfaces    []string
	Imports       []string
	Fields        []*Field
	Methods       []*Method

	// Compiled is set for binary classes that have no source.
	Compiled bool
	// Extensible is false for declarations whose member list cannot be
	// augmented (annotation types, for example).
	Extensible bool
	// Valid is false once the index has marked the entry stale.
	Valid bool
}

// SimpleName returns the last dotted segment of the qualified name.
func (c *Class) SimpleName() string {
	return SimpleName(c.QualifiedName)
}

// IsInterface reports whether the class is an interface.
func (c *Class) IsInterface() bool {
	return c.Kind == KindInterface || c.Kind == KindAnnotation
}

// Field returns the declared field with the given name.
func (c *Class) Field(name string) *Field {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// MethodsNamed returns the declared methods with the given name.
func (c *Class) MethodsNamed(name string) []*Method {
	var out []*Method
	for _, m := range c.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// SimpleName returns the part of a dotted name after the last dot.
func SimpleName(qualified string) string {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

// ClassIndex looks classes up by qualified name.
type ClassIndex interface {
	Class(qualifiedName string) *Class
}
