package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/trellis/internal/augment"
	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/modifier"
)

func account() *model.Class {
	return &model.Class{
		QualifiedName: "app.Account",
		Kind:          model.KindClass,
		Modifiers:     modifier.NewSet(modifier.Public),
		Super:         "app.Base",
		Interfaces:    []string{"app.Named"},
		Fields: []*model.Field{
			{Name: "name", Type: "String", Modifiers: modifier.NewSet(modifier.Private),
				Annotations: []model.Annotation{{Name: "var", Text: "@var"}}},
		},
		Methods: []*model.Method{
			{Owner: "app.Account", Name: "getTotal", ReturnType: "long", Modifiers: modifier.NewSet(modifier.Public)},
		},
	}
}

func TestDeclared(t *testing.T) {
	t.Parallel()
	want := `public class app.Account extends app.Base implements app.Named {
    @var private String name;

    public long getTotal();
}
`
	assert.Equal(t, want, Declared(account()))
}

func TestOutline_InterfaceAndEmpty(t *testing.T) {
	t.Parallel()
	c := &model.Class{QualifiedName: "app.Shape", Kind: model.KindInterface, Interfaces: []string{"A", "B"}}
	assert.Equal(t, "interface app.Shape extends A, B {\n}\n", Declared(c))

	ann := &model.Class{QualifiedName: "app.Marker", Kind: model.KindAnnotation}
	assert.True(t, strings.HasPrefix(Declared(ann), "@interface app.Marker {"))
}

func TestOutline_SyntheticMembers(t *testing.T) {
	t.Parallel()
	syn := Synthetic{
		Fields: []*augment.SyntheticField{{
			Name:        "total",
			Type:        "long",
			Modifiers:   modifier.NewSet(modifier.Private),
			Annotations: []model.AnnotationSpec{augment.VarAnnotation},
			Anchor:      augment.Anchor{Signature: "getTotal()"},
			Origin:      augment.OriginInferred,
		}},
		Methods: []*augment.SyntheticMethod{{
			Name:       "setName",
			Accessor:   augment.Setter,
			Field:      "name",
			ReturnType: "void",
			Params:     []model.Param{{Name: "name", Type: "String"}},
			Modifiers:  modifier.NewSet(modifier.Public),
		}},
	}
	out := Outline(account(), syn)
	assert.Contains(t, out, "    @var private long total; // inferred from getTotal()\n")
	assert.Contains(t, out, "    public void setName(String name); // setter for name\n")
}

func TestDiff(t *testing.T) {
	t.Parallel()
	syn := Synthetic{
		Methods: []*augment.SyntheticMethod{{
			Name:       "getName",
			Accessor:   augment.Getter,
			Field:      "name",
			ReturnType: "String",
			Modifiers:  modifier.NewSet(modifier.Public),
		}},
	}
	d, err := Diff(account(), syn)
	require.NoError(t, err)
	assert.Contains(t, d, "--- app.Account (declared)\n")
	assert.Contains(t, d, "+++ app.Account (augmented)\n")
	assert.Contains(t, d, "+    public String getName(); // getter for name\n")
	assert.NotContains(t, d, "\n-")
}

func TestDiff_NothingAdded(t *testing.T) {
	t.Parallel()
	d, err := Diff(account(), Synthetic{})
	require.NoError(t, err)
	assert.Empty(t, d)
}
