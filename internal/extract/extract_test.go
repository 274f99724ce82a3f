package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/modifier"
)

func extract(t *testing.T, src string) []*model.Class {
	t.Helper()
	classes, err := Extract(context.Background(), "/src/Test.java", []byte(src))
	require.NoError(t, err)
	return classes
}

func classNamed(t *testing.T, classes []*model.Class, name string) *model.Class {
	t.Helper()
	for _, c := range classes {
		if c.QualifiedName == name {
			return c
		}
	}
	require.Failf(t, "class not found", "%s", name)
	return nil
}

// =============================================================================
// Declarations
// =============================================================================

func TestExtract_ClassWithFieldsAndMethods(t *testing.T) {
	t.Parallel()
	classes := extract(t, `package com.acme.bank;

import java.util.List;
import java.util.*;
import static java.util.Collections.emptyList;

public final class Account extends Base implements java.io.Serializable, Named {
    private String name;
    protected static int count, limit[];

    public String getName() {
        return name;
    }

    public void setName(String name) {
        this.name = name;
    }

    abstract List<String> tags(int first, String... rest);
}
`)
	require.Len(t, classes, 1)
	c := classes[0]

	assert.Equal(t, "com.acme.bank.Account", c.QualifiedName)
	assert.Equal(t, "com.acme.bank", c.Package)
	assert.Equal(t, "/src/Test.java", c.File)
	assert.Equal(t, model.KindClass, c.Kind)
	assert.Equal(t, modifier.NewSet(modifier.Public, modifier.Final), c.Modifiers)
	assert.Equal(t, "Base", c.Super)
	assert.Equal(t, []string{"java.io.Serializable", "Named"}, c.Interfaces)
	assert.Equal(t, []string{"java.util.List", "java.util.*"}, c.Imports)
	assert.True(t, c.Extensible)
	assert.True(t, c.Valid)
	assert.False(t, c.Compiled)

	require.Len(t, c.Fields, 3)
	assert.Equal(t, "name", c.Fields[0].Name)
	assert.Equal(t, "String", c.Fields[0].Type)
	assert.True(t, c.Fields[0].Modifiers.Has(modifier.Private))
	assert.Nil(t, c.Fields[0].Property)
	assert.Equal(t, "count", c.Fields[1].Name)
	assert.Equal(t, "int", c.Fields[1].Type)
	assert.Equal(t, "limit", c.Fields[2].Name)
	assert.Equal(t, "int[]", c.Fields[2].Type)
	assert.Equal(t, modifier.NewSet(modifier.Protected, modifier.Static), c.Fields[2].Modifiers)

	require.Len(t, c.Methods, 3)
	assert.Equal(t, "com.acme.bank.Account#getName()", c.Methods[0].Key())
	assert.Equal(t, "String", c.Methods[0].ReturnType)
	assert.Equal(t, "setName(String)", c.Methods[1].Signature())
	assert.Equal(t, "void", c.Methods[1].ReturnType)
	assert.Equal(t, "name", c.Methods[1].Params[0].Name)

	tags := c.Methods[2]
	assert.Equal(t, "List<String>", tags.ReturnType)
	assert.Equal(t, []string{"int", "String..."}, tags.ParamTypes())
	assert.Equal(t, "rest", tags.Params[1].Name)
	assert.True(t, tags.Modifiers.Has(modifier.Abstract))
}

func TestExtract_DefaultPackage(t *testing.T) {
	t.Parallel()
	classes := extract(t, `class Plain {}`)
	require.Len(t, classes, 1)
	assert.Equal(t, "Plain", classes[0].QualifiedName)
	assert.Empty(t, classes[0].Package)
	assert.Empty(t, classes[0].Modifiers)
}

func TestExtract_NestedTypes(t *testing.T) {
	t.Parallel()
	classes := extract(t, `package app;
public class Outer {
    static class Inner {
        int x;
    }
    interface Callback {
        void done();
    }
    enum Mode { ON, OFF }
}
`)
	require.Len(t, classes, 4)
	assert.Equal(t, "app.Outer", classes[0].QualifiedName)
	inner := classNamed(t, classes, "app.Outer.Inner")
	assert.Equal(t, "app", inner.Package)
	require.Len(t, inner.Fields, 1)
	assert.Empty(t, classes[0].Fields, "nested members stay with the nested class")

	cb := classNamed(t, classes, "app.Outer.Callback")
	assert.Equal(t, model.KindInterface, cb.Kind)
	require.Len(t, cb.Methods, 1)
	assert.Equal(t, modifier.NewSet(modifier.Public, modifier.Abstract), cb.Methods[0].Modifiers)

	mode := classNamed(t, classes, "app.Outer.Mode")
	assert.Equal(t, model.KindEnum, mode.Kind)
	require.Len(t, mode.Fields, 2)
	assert.Equal(t, "ON", mode.Fields[0].Name)
	assert.Equal(t, "Mode", mode.Fields[0].Type)
	assert.True(t, mode.Fields[0].Modifiers.Has(modifier.Static))
}

func TestExtract_InterfaceMembers(t *testing.T) {
	t.Parallel()
	classes := extract(t, `package app;
public interface Shape extends Comparable<Shape>, Named {
    int SIDES = 0;
    double area();
    static Shape unit() { return null; }
    default String label() { return ""; }
    private void helper() {}
}
`)
	require.Len(t, classes, 1)
	c := classes[0]
	assert.Equal(t, model.KindInterface, c.Kind)
	assert.Empty(t, c.Super)
	assert.Equal(t, []string{"Comparable<Shape>", "Named"}, c.Interfaces)

	require.Len(t, c.Fields, 1)
	assert.Equal(t, modifier.NewSet(modifier.Public, modifier.Static, modifier.Final), c.Fields[0].Modifiers)

	require.Len(t, c.Methods, 4)
	assert.Equal(t, modifier.NewSet(modifier.Public, modifier.Abstract), c.Methods[0].Modifiers)
	assert.Equal(t, modifier.NewSet(modifier.Public, modifier.Static), c.Methods[1].Modifiers)
	assert.Equal(t, modifier.NewSet(modifier.Public), c.Methods[2].Modifiers)
	assert.Equal(t, modifier.NewSet(modifier.Private), c.Methods[3].Modifiers)
}

func TestExtract_RecordComponents(t *testing.T) {
	t.Parallel()
	classes := extract(t, `package app;
public record Point(int x, int y) implements Shape {
    public double length() { return 0; }
}
`)
	require.Len(t, classes, 1)
	c := classes[0]
	assert.Equal(t, model.KindRecord, c.Kind)
	assert.Equal(t, []string{"Shape"}, c.Interfaces)
	require.Len(t, c.Fields, 2)
	assert.Equal(t, "x", c.Fields[0].Name)
	assert.Equal(t, modifier.NewSet(modifier.Private, modifier.Final), c.Fields[0].Modifiers)
	require.Len(t, c.Methods, 1)
}

func TestExtract_AnnotationTypeNotExtensible(t *testing.T) {
	t.Parallel()
	classes := extract(t, `package app;
public @interface Marker {}
`)
	require.Len(t, classes, 1)
	assert.Equal(t, model.KindAnnotation, classes[0].Kind)
	assert.False(t, classes[0].Extensible)
}

func TestExtract_Annotations(t *testing.T) {
	t.Parallel()
	classes := extract(t, `package app;
public class Svc {
    @Deprecated
    @Override
    public String toString() { return ""; }
}
`)
	m := classes[0].Methods[0]
	require.Len(t, m.Annotations, 2)
	assert.Equal(t, model.Annotation{Name: "Deprecated", Text: "@Deprecated"}, m.Annotations[0])
	assert.Equal(t, "Override", m.Annotations[1].Name)
}

// =============================================================================
// Property declarations
// =============================================================================

func TestExtract_PropertyDeclarations(t *testing.T) {
	t.Parallel()
	classes := extract(t, `package app;
import manifold.ext.props.rt.api.*;

public class Person {
    @var String name;
    @var(PropOption.Protected) int age;
    @val String id;
    @var @set(PropOption.Private) String email;
    @get final String code = "x";
    @manifold.ext.props.rt.api.set String password;
    String plain;
}
`)
	c := classes[0]
	require.Len(t, c.Fields, 7)

	name := c.Field("name").Property
	require.NotNil(t, name)
	assert.Equal(t, model.PropertyDeclaration{
		Read:    model.Access{Exposed: true},
		Write:   model.Access{Exposed: true},
		Mutable: true,
	}, *name)
	assert.Equal(t, []model.Annotation{{Name: "var", Text: "@var"}}, c.Field("name").Annotations)

	age := c.Field("age").Property
	require.NotNil(t, age)
	assert.Equal(t, modifier.Protected, age.Read.Visibility)
	assert.Equal(t, modifier.Protected, age.Write.Visibility)

	id := c.Field("id").Property
	require.NotNil(t, id)
	assert.True(t, id.Read.Exposed)
	assert.False(t, id.Write.Exposed)
	assert.False(t, id.Mutable)

	email := c.Field("email").Property
	require.NotNil(t, email)
	assert.Equal(t, modifier.Modifier(0), email.Read.Visibility)
	assert.Equal(t, modifier.Private, email.Write.Visibility)

	code := c.Field("code").Property
	require.NotNil(t, code)
	assert.True(t, code.Read.Exposed)
	assert.False(t, code.Write.Exposed)
	assert.False(t, code.Mutable, "final fields are immutable")

	password := c.Field("password").Property
	require.NotNil(t, password)
	assert.False(t, password.Read.Exposed)
	assert.True(t, password.Write.Exposed)
	assert.True(t, password.Mutable)

	assert.Nil(t, c.Field("plain").Property)
}

func TestAccessArgument(t *testing.T) {
	t.Parallel()
	tests := []struct {
		text string
		want modifier.Modifier
	}{
		{"@var", 0},
		{"@var()", 0},
		{"@var(PROTECTED)", modifier.Protected},
		{"@set(PropOption.Private)", modifier.Private},
		{"@get(value = PropOption.Package)", modifier.Package},
		{"@var({PropOption.Abstract, PropOption.Public})", modifier.Public},
		{"@var(PropOption.Final)", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, accessArgument(tt.text), tt.text)
	}
}

func TestExtract_SeparateDeclarationsDoNotShareProperty(t *testing.T) {
	t.Parallel()
	classes := extract(t, `class A { @var int a, b; }`)
	c := classes[0]
	require.Len(t, c.Fields, 2)
	require.NotNil(t, c.Fields[0].Property)
	require.NotNil(t, c.Fields[1].Property)
	c.Fields[0].Property.Mutable = false
	assert.True(t, c.Fields[1].Property.Mutable)
}
