package operator

import (
	"strings"
	"sync"

	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/types"
)

// Operand is one side of a binary expression. Type is the operand's static
// type as written in source; an empty Type means the host could not type it.
type Operand struct {
	Text string
	Type string
}

// BinaryExpr is a binary expression node. Right is nil while the expression
// is incomplete. Context is the class the expression appears in and scopes
// type-name resolution.
type BinaryExpr struct {
	Op      string
	Left    Operand
	Right   *Operand
	Context *model.Class
}

// Token returns the expression's operator, posing as "*" when it is missing.
func (e *BinaryExpr) Token() string {
	return Normalize(e.Op)
}

// String renders the expression as "left op right".
func (e *BinaryExpr) String() string {
	var b strings.Builder
	b.WriteString(e.Left.Text)
	b.WriteString(" ")
	b.WriteString(e.Token())
	if e.Right != nil {
		b.WriteString(" ")
		b.WriteString(e.Right.Text)
	}
	return b.String()
}

type cacheKey struct {
	op, left, right, context string
}

// Resolver finds operator-implementing methods. Lookups are memoized per
// snapshot epoch; the cache is shared and safe for concurrent use.
type Resolver struct {
	mu    sync.Mutex
	ts    *types.System
	epoch uint64
	cache map[cacheKey]*model.Method
}

// NewResolver creates a Resolver over ts, which was built at epoch.
func NewResolver(ts *types.System, epoch uint64) *Resolver {
	return &Resolver{ts: ts, epoch: epoch, cache: make(map[cacheKey]*model.Method)}
}

// Rebind points the resolver at a new type system. When epoch differs from
// the current one the cache starts over.
func (r *Resolver) Rebind(ts *types.System, epoch uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ts = ts
	if epoch != r.epoch {
		r.epoch = epoch
		r.cache = make(map[cacheKey]*model.Method)
	}
}

// Epoch returns the epoch of the type system currently in use.
func (r *Resolver) Epoch() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.epoch
}

// CacheLen returns the number of memoized lookups.
func (r *Resolver) CacheLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// IsOverloaded reports whether expr's operator resolves to a method.
func (r *Resolver) IsOverloaded(expr *BinaryExpr) bool {
	return r.Resolve(expr) != nil
}

// Resolve returns the method implementing expr's operator, or nil when the
// right operand is missing or nothing applies.
func (r *Resolver) Resolve(expr *BinaryExpr) *model.Method {
	if expr == nil || expr.Right == nil {
		return nil
	}
	tok := expr.Token()
	Classify(tok)

	r.mu.Lock()
	ts, epoch := r.ts, r.epoch
	r.mu.Unlock()

	left := ts.Canonical(expr.Left.Type, expr.Context)
	right := ts.Canonical(expr.Right.Type, expr.Context)
	key := cacheKey{op: tok, left: left, right: right}
	if expr.Context != nil {
		key.context = expr.Context.QualifiedName
	}

	r.mu.Lock()
	m, ok := r.cache[key]
	ok = ok && r.epoch == epoch
	r.mu.Unlock()
	if ok {
		return m
	}

	m = lookup(ts, tok, left, right)

	r.mu.Lock()
	if r.epoch == epoch {
		r.cache[key] = m
	}
	r.mu.Unlock()
	return m
}

// ReferenceOf returns the marker reference for expr, or nil when expr is not
// overloaded.
func (r *Resolver) ReferenceOf(expr *BinaryExpr) *Reference {
	if !r.IsOverloaded(expr) {
		return nil
	}
	return &Reference{expr: expr, resolver: r}
}

// lookup performs one uncached resolution over canonical operand types.
func lookup(ts *types.System, tok, left, right string) *model.Method {
	if builtin(tok, left, right) {
		return nil
	}
	if m := lookupOn(ts, tok, left, right); m != nil {
		return m
	}
	if Commutative(tok) {
		return lookupOn(ts, tok, right, left)
	}
	return nil
}

// builtin reports whether the language defines tok for these operands, in
// which case no method can overload it.
func builtin(tok, left, right string) bool {
	if left == "" || right == "" {
		return true
	}
	if numeric(left) && numeric(right) {
		return true
	}
	if tok == "+" && (left == "java.lang.String" || right == "java.lang.String") {
		return true
	}
	return false
}

func numeric(t string) bool {
	return types.IsPrimitive(t) || types.Unbox(t) != ""
}

// lookupOn searches the methods of receiver for one accepting arg.
func lookupOn(ts *types.System, tok, receiver, arg string) *model.Method {
	c := ts.Resolve(receiver, nil)
	if c == nil {
		return nil
	}
	switch Classify(tok) {
	case Arithmetic:
		return ts.FindMethod(c, MethodName(tok), []string{arg})
	case Relational:
		if m := compareUsing(ts, c, arg); m != nil {
			return m
		}
		return compareTo(ts, c, arg)
	default:
		return compareUsing(ts, c, arg)
	}
}

// compareUsing finds compareToUsing(arg, Operator) on c.
func compareUsing(ts *types.System, c *model.Class, arg string) *model.Method {
	var applicable []*model.Method
	for _, m := range ts.Methods(c, CompareToUsing) {
		if len(m.Params) != 2 || !isOperatorEnum(m.Params[1].Type) {
			continue
		}
		owner := ts.Index().Class(m.Owner)
		if ts.Assignable(arg, ts.Canonical(m.Params[0].Type, owner)) {
			applicable = append(applicable, m)
		}
	}
	return ts.MostSpecific(applicable)
}

// compareTo finds an int-returning compareTo(arg) on c.
func compareTo(ts *types.System, c *model.Class, arg string) *model.Method {
	m := ts.FindMethod(c, CompareTo, []string{arg})
	if m == nil || types.Erasure(m.ReturnType) != "int" {
		return nil
	}
	return m
}

func isOperatorEnum(t string) bool {
	t = types.Erasure(t)
	return t == "Operator" || strings.HasSuffix(t, ".Operator")
}
