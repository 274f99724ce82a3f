package operator

import "github.com/jward/trellis/internal/model"

// Range is a span of text within an element, in bytes.
type Range struct {
	Start, End int
}

// Empty reports whether the range has zero width.
func (r Range) Empty() bool {
	return r.Start == r.End
}

// Reference links an overloaded binary expression to its operator method.
// It is a marker reference: it covers no text of its own, cannot be renamed
// and is never soft, so a failed resolution surfaces as unresolved.
type Reference struct {
	expr     *BinaryExpr
	resolver *Resolver
}

// Element returns the expression the reference is attached to.
func (r *Reference) Element() *BinaryExpr {
	return r.expr
}

// RangeInElement returns the zero-width range the reference covers.
func (r *Reference) RangeInElement() Range {
	return Range{}
}

// CanonicalText is always empty; operators have no name to spell.
func (r *Reference) CanonicalText() string {
	return ""
}

// Resolve returns the operator method, or nil.
func (r *Reference) Resolve() *model.Method {
	return r.resolver.Resolve(r.expr)
}

// IsOverloaded reports whether the expression currently resolves.
func (r *Reference) IsOverloaded() bool {
	return r.Resolve() != nil
}

// IsReferenceTo reports whether the reference resolves to exactly m.
func (r *Reference) IsReferenceTo(m *model.Method) bool {
	if m == nil {
		return false
	}
	got := r.Resolve()
	return got != nil && got.Key() == m.Key()
}

// IsSoft is false: an unresolved operator reference is an error.
func (r *Reference) IsSoft() bool {
	return false
}

// HandleElementRename has no effect and returns nil.
func (r *Reference) HandleElementRename(string) *BinaryExpr {
	return nil
}

// BindToElement has no effect and returns nil.
func (r *Reference) BindToElement(*model.Method) *BinaryExpr {
	return nil
}

// IsMarkerOnly is true.
func (r *Reference) IsMarkerOnly() bool {
	return true
}
