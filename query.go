package trellis

import (
	"fmt"
	"sort"

	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/operator"
	"github.com/jward/trellis/internal/render"
)

// QueryBuilder answers questions about the indexed classes. Every call
// works against the snapshot current at the time of the call.
type QueryBuilder struct {
	engine *Engine
}

// --- Common Types ---

// Pagination controls offset+limit paging on list results.
type Pagination struct {
	Offset int // skip this many results (default 0)
	Limit  int // max results to return (default 50, max 500)
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// normalize returns a Pagination with defaults applied and bounds enforced.
func (p Pagination) normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// PagedResult wraps a page of results with total count for pagination.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int // total matching results (before pagination)
}

// --- Classes ---

// ClassFilter specifies which classes to include. Nil fields match all.
type ClassFilter struct {
	Kinds    []string // match any of these kinds
	Package  *string  // exact match
	Module   *string  // exact match
	Compiled *bool
}

func (f ClassFilter) matches(c *model.Class) bool {
	if len(f.Kinds) > 0 {
		ok := false
		for _, k := range f.Kinds {
			if string(c.Kind) == k {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.Package != nil && c.Package != *f.Package {
		return false
	}
	if f.Module != nil && c.Module != *f.Module {
		return false
	}
	if f.Compiled != nil && c.Compiled != *f.Compiled {
		return false
	}
	return true
}

// ClassSummary is one row of a class listing.
type ClassSummary struct {
	QualifiedName  string
	Kind           string
	Module         string
	File           string
	Compiled       bool
	Fields         int
	Methods        int
	FeatureEnabled bool
}

// Class returns the class with the given qualified name or unique simple
// name. Returns nil with no error if no class matches.
func (q *QueryBuilder) Class(name string) (*model.Class, error) {
	snap, err := q.engine.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("class: %w", err)
	}
	return snap.Lookup(name), nil
}

// Classes lists indexed classes ordered by qualified name.
func (q *QueryBuilder) Classes(filter ClassFilter, page Pagination) (*PagedResult[ClassSummary], error) {
	snap, err := q.engine.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("classes: %w", err)
	}
	page = page.normalize()

	var all []ClassSummary
	for _, name := range snap.Classes.Names() {
		c := snap.Classes.Class(name)
		if !filter.matches(c) {
			continue
		}
		all = append(all, ClassSummary{
			QualifiedName:  c.QualifiedName,
			Kind:           string(c.Kind),
			Module:         c.Module,
			File:           c.File,
			Compiled:       c.Compiled,
			Fields:         len(c.Fields),
			Methods:        len(c.Methods),
			FeatureEnabled: snap.Env(c).FeatureEnabled,
		})
	}

	result := &PagedResult[ClassSummary]{TotalCount: len(all)}
	if page.Offset < len(all) {
		end := min(page.Offset+page.Limit, len(all))
		result.Items = all[page.Offset:end]
	}
	return result, nil
}

// --- Augmentation ---

// AugmentResult holds the synthetic members of one kind for a class.
type AugmentResult struct {
	Class   string
	Kind    MemberKind
	Env     Env
	Reason  string // why the properties feature is on or off for the class
	Fields  []*SyntheticField
	Methods []*SyntheticMethod
}

// Augment returns the synthetic members of kind for the named class.
// Returns nil with no error if no class matches.
func (q *QueryBuilder) Augment(name string, kind MemberKind) (*AugmentResult, error) {
	if kind != MemberField && kind != MemberMethod {
		return nil, fmt.Errorf("augment: unknown member kind %q", kind)
	}
	snap, err := q.engine.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("augment: %w", err)
	}
	c := snap.Lookup(name)
	if c == nil {
		return nil, nil
	}

	env := snap.Env(c)
	_, reason := snap.FeatureCheck(c)
	result := &AugmentResult{Class: c.QualifiedName, Kind: kind, Env: env, Reason: reason}
	for _, m := range snap.Members().Augment(env, c, kind) {
		switch m := m.(type) {
		case *SyntheticField:
			result.Fields = append(result.Fields, m)
		case *SyntheticMethod:
			result.Methods = append(result.Methods, m)
		}
	}
	return result, nil
}

// ClassMembers is a class together with everything augmentation adds to it.
type ClassMembers struct {
	Class     *model.Class
	Env       Env
	Synthetic render.Synthetic
}

// Members returns the declared and synthetic members of the named class.
// Returns nil with no error if no class matches.
func (q *QueryBuilder) Members(name string) (*ClassMembers, error) {
	snap, err := q.engine.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("members: %w", err)
	}
	c := snap.Lookup(name)
	if c == nil {
		return nil, nil
	}
	env := snap.Env(c)
	aug := snap.augmenter
	return &ClassMembers{
		Class: c,
		Env:   env,
		Synthetic: render.Synthetic{
			Fields:  aug.Fields(env, c),
			Methods: aug.Methods(env, c),
		},
	}, nil
}

// DiffResult is the declared-versus-augmented view of a class.
type DiffResult struct {
	Class   string
	Outline string // augmented outline
	Diff    string // unified diff, empty when nothing was added
	Added   int    // number of synthetic members
}

// Diff renders the named class before and after augmentation.
// Returns nil with no error if no class matches.
func (q *QueryBuilder) Diff(name string) (*DiffResult, error) {
	members, err := q.Members(name)
	if err != nil || members == nil {
		return nil, err
	}
	d, err := render.Diff(members.Class, members.Synthetic)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	return &DiffResult{
		Class:   members.Class.QualifiedName,
		Outline: render.Outline(members.Class, members.Synthetic),
		Diff:    d,
		Added:   len(members.Synthetic.Fields) + len(members.Synthetic.Methods),
	}, nil
}

// --- Operators ---

// OperatorResult describes how a binary expression resolves.
type OperatorResult struct {
	Expression string
	Token      string
	Category   string
	LeftType   string // canonical
	RightType  string // canonical, empty when the right operand is missing
	Overloaded bool
	Method     *model.Method     // nil unless Overloaded
	Reference  OperatorReference // nil unless Overloaded
}

// Operator resolves "left op right" where left and right are operand type
// names. An empty op poses as "*"; an empty right leaves the expression
// incomplete. context names the class the expression appears in and scopes
// name resolution; it may be empty.
func (q *QueryBuilder) Operator(left, op, right, context string) (*OperatorResult, error) {
	if op != "" && !validToken(op) {
		return nil, fmt.Errorf("operator: unsupported token %q", op)
	}
	snap, err := q.engine.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("operator: %w", err)
	}

	var ctx *model.Class
	if context != "" {
		if ctx = snap.Lookup(context); ctx == nil {
			return nil, fmt.Errorf("operator: context class %q not found", context)
		}
	}

	expr := &BinaryExpr{Op: op, Left: Operand{Text: left, Type: left}, Context: ctx}
	if right != "" {
		expr.Right = &Operand{Text: right, Type: right}
	}

	result := &OperatorResult{
		Expression: expr.String(),
		Token:      expr.Token(),
		Category:   operator.Classify(expr.Token()).String(),
		LeftType:   snap.Types.Canonical(left, ctx),
	}
	if right != "" {
		result.RightType = snap.Types.Canonical(right, ctx)
	}

	if ref := q.engine.operatorResolver(snap).ReferenceOf(expr); ref != nil {
		result.Overloaded = true
		result.Method = ref.Resolve()
		result.Reference = ref
	}
	return result, nil
}

// operatorResolver returns the shared resolver, bound to snap's epoch.
func (e *Engine) operatorResolver(snap *Snapshot) *operator.Resolver {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resolver == nil {
		e.resolver = operator.NewResolver(snap.Types, snap.Epoch)
	} else if e.resolver.Epoch() != snap.Epoch {
		e.resolver.Rebind(snap.Types, snap.Epoch)
	}
	return e.resolver
}

func validToken(op string) bool {
	for _, t := range operator.Tokens() {
		if t == op {
			return true
		}
	}
	return false
}

// --- Hierarchy ---

// TypeRelation is one edge of a class hierarchy.
type TypeRelation struct {
	Name     string
	Kind     string // class kind of Name
	Relation string // "extends" or "implements"
	Depth    int    // 1 for direct supertypes and subtypes
}

// Hierarchy is the type hierarchy around one class.
type Hierarchy struct {
	Class      string
	Supertypes []TypeRelation // transitive, in ancestry walk order
	Subtypes   []TypeRelation // direct, ordered by name
	Unresolved []string       // supertype names that match no indexed class
}

// Hierarchy returns the supertypes and direct subtypes of the named class.
// Supertypes are walked depth-first, superclass before interfaces, each
// visited once. Returns nil with no error if no class matches.
func (q *QueryBuilder) Hierarchy(name string) (*Hierarchy, error) {
	snap, err := q.engine.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("hierarchy: %w", err)
	}
	c := snap.Lookup(name)
	if c == nil {
		return nil, nil
	}

	h := &Hierarchy{Class: c.QualifiedName}
	visited := map[string]bool{c.QualifiedName: true}
	var walk func(c *model.Class, depth int)
	walk = func(c *model.Class, depth int) {
		for _, sup := range directSupers(c) {
			target := snap.Types.Resolve(sup.name, c)
			if target == nil {
				h.Unresolved = append(h.Unresolved, sup.name)
				continue
			}
			if visited[target.QualifiedName] {
				continue
			}
			visited[target.QualifiedName] = true
			h.Supertypes = append(h.Supertypes, TypeRelation{
				Name:     target.QualifiedName,
				Kind:     string(target.Kind),
				Relation: sup.relation,
				Depth:    depth,
			})
			walk(target, depth+1)
		}
	}
	walk(c, 1)

	for _, n := range snap.Classes.Names() {
		sub := snap.Classes.Class(n)
		for _, sup := range directSupers(sub) {
			if t := snap.Types.Resolve(sup.name, sub); t != nil && t.QualifiedName == c.QualifiedName {
				h.Subtypes = append(h.Subtypes, TypeRelation{
					Name:     sub.QualifiedName,
					Kind:     string(sub.Kind),
					Relation: sup.relation,
					Depth:    1,
				})
				break
			}
		}
	}
	sort.Slice(h.Subtypes, func(i, j int) bool { return h.Subtypes[i].Name < h.Subtypes[j].Name })
	return h, nil
}

type superRef struct {
	name     string
	relation string
}

// directSupers lists the declared supertypes of c, superclass first.
func directSupers(c *model.Class) []superRef {
	var out []superRef
	if c.Super != "" {
		out = append(out, superRef{name: c.Super, relation: "extends"})
	}
	rel := "implements"
	if c.IsInterface() {
		rel = "extends"
	}
	for _, iface := range c.Interfaces {
		out = append(out, superRef{name: iface, relation: rel})
	}
	return out
}
