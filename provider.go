package trellis

import (
	"github.com/jward/trellis/internal/augment"
	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/operator"
)

// MemberProvider contributes synthetic members to a class's observable
// member set. Implementations must not modify the class and must return
// the same members in the same order for the same inputs.
type MemberProvider interface {
	Augment(env augment.Env, c *model.Class, kind model.MemberKind) []augment.Member
}

// OperatorReference links an overloaded binary expression to the method
// that implements its operator. It is a marker: it spans no text and does
// not take part in rename or rebind.
type OperatorReference interface {
	Element() *operator.BinaryExpr
	RangeInElement() operator.Range
	CanonicalText() string
	Resolve() *model.Method
	IsReferenceTo(m *model.Method) bool
	IsSoft() bool
	HandleElementRename(newName string) *operator.BinaryExpr
	BindToElement(m *model.Method) *operator.BinaryExpr
	IsMarkerOnly() bool
}

var (
	_ MemberProvider    = (*augment.Augmenter)(nil)
	_ OperatorReference = (*operator.Reference)(nil)
)
