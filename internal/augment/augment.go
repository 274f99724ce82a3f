// Package augment computes the synthetic members of a class: accessor
// methods for declared properties, property fields rebuilt from compiled
// metadata, and property fields inferred from getter/setter pairs.
//
// Augmentation never modifies the class it is given. The result depends only
// on the class snapshot and the requested member kind, so repeated calls
// return identical, identically ordered results.
package augment

import (
	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/modifier"
	"github.com/jward/trellis/internal/types"
)

// Env carries the activation state of one query. Augmentation yields
// nothing unless both flags are set.
type Env struct {
	// FeatureEnabled is true when the class's module uses properties.
	FeatureEnabled bool
	// IndexReady is false while the index is being rebuilt.
	IndexReady bool
}

// Ready is the Env of an enabled feature over a ready index.
var Ready = Env{FeatureEnabled: true, IndexReady: true}

// Origin records which component synthesized a member.
type Origin string

const (
	OriginAccessor      Origin = "accessor"
	OriginReconstructed Origin = "reconstructed"
	OriginInferred      Origin = "inferred"
)

// AccessorKind is the role of a synthesized method.
type AccessorKind string

const (
	Getter AccessorKind = "get"
	Setter AccessorKind = "set"
)

// Anchor points at the declaration that justified a synthetic member.
type Anchor struct {
	Class     string
	Kind      model.MemberKind
	Name      string
	Signature string
}

// Member is a synthesized field or method.
type Member interface {
	MemberName() string
	MemberKind() model.MemberKind
}

// SyntheticField is a field that does not appear in the class declaration.
type SyntheticField struct {
	Name        string
	Type        string
	Modifiers   modifier.Set
	Annotations []model.AnnotationSpec
	Anchor      Anchor
	Origin      Origin
}

func (f *SyntheticField) MemberName() string           { return f.Name }
func (f *SyntheticField) MemberKind() model.MemberKind { return model.MemberField }

// SyntheticMethod is a generated property accessor.
type SyntheticMethod struct {
	Name       string
	Accessor   AccessorKind
	Field      string
	ReturnType string
	Params     []model.Param
	Modifiers  modifier.Set
	Anchor     Anchor
}

func (m *SyntheticMethod) MemberName() string           { return m.Name }
func (m *SyntheticMethod) MemberKind() model.MemberKind { return model.MemberMethod }

// Signature returns "name(T1,T2)".
func (m *SyntheticMethod) Signature() string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Type
	}
	return model.Signature(m.Name, params)
}

// Augmenter computes synthetic members against one type system snapshot.
// It holds no per-call state and is safe for concurrent use.
type Augmenter struct {
	types *types.System
}

// New returns an Augmenter that resolves ancestry and types through ts.
func New(ts *types.System) *Augmenter {
	return &Augmenter{types: ts}
}

// Augment returns the synthetic members of kind for c. Gate misses (feature
// disabled, index not ready, class absent, stale or not extensible) yield an
// empty result.
func (a *Augmenter) Augment(env Env, c *model.Class, kind model.MemberKind) []Member {
	if !env.FeatureEnabled || !env.IndexReady {
		return nil
	}
	if c == nil || !c.Extensible || !c.Valid || c.QualifiedName == "" {
		return nil
	}

	r := newResult()
	switch kind {
	case model.MemberMethod:
		a.generateAccessors(c, r)
	case model.MemberField:
		a.reconstructFields(c, r)
		a.inferFields(c, r)
	}
	return r.members
}

// Fields returns the synthetic fields of c.
func (a *Augmenter) Fields(env Env, c *model.Class) []*SyntheticField {
	var out []*SyntheticField
	for _, m := range a.Augment(env, c, model.MemberField) {
		out = append(out, m.(*SyntheticField))
	}
	return out
}

// Methods returns the synthetic methods of c.
func (a *Augmenter) Methods(env Env, c *model.Class) []*SyntheticMethod {
	var out []*SyntheticMethod
	for _, m := range a.Augment(env, c, model.MemberMethod) {
		out = append(out, m.(*SyntheticMethod))
	}
	return out
}

// result accumulates members in insertion order. Fields are keyed by name,
// methods by name and parameter types. The first member added under a key
// wins.
type result struct {
	members []Member
	keys    map[string]bool
}

func newResult() *result {
	return &result{keys: make(map[string]bool)}
}

func memberKey(kind model.MemberKind, name string) string {
	return string(kind) + ":" + name
}

func keyOf(m Member) string {
	if sm, ok := m.(*SyntheticMethod); ok {
		return memberKey(model.MemberMethod, sm.Signature())
	}
	return memberKey(m.MemberKind(), m.MemberName())
}

func (r *result) add(m Member) bool {
	k := keyOf(m)
	if r.keys[k] {
		return false
	}
	r.keys[k] = true
	r.members = append(r.members, m)
	return true
}

func (r *result) has(kind model.MemberKind, name string) bool {
	return r.keys[memberKey(kind, name)]
}
