// Package operator resolves binary expressions to the methods that overload
// their operator, and exposes that decision as a marker reference.
package operator

import "fmt"

// Category groups operator tokens by the method protocol that overloads them.
type Category int

const (
	Arithmetic Category = iota + 1
	Relational
	Equality
)

func (c Category) String() string {
	switch c {
	case Arithmetic:
		return "arithmetic"
	case Relational:
		return "relational"
	case Equality:
		return "equality"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Missing is the token used when an expression has no operator sign yet,
// as happens while the user is still typing.
const Missing = "*"

var categories = map[string]Category{
	"+":  Arithmetic,
	"-":  Arithmetic,
	"*":  Arithmetic,
	"/":  Arithmetic,
	"%":  Arithmetic,
	"<":  Relational,
	">":  Relational,
	"<=": Relational,
	">=": Relational,
	"==": Equality,
	"!=": Equality,
}

var arithmeticMethods = map[string]string{
	"+": "plus",
	"-": "minus",
	"*": "times",
	"/": "div",
	"%": "rem",
}

// Comparison method names. compareToUsing takes the right operand and the
// operator constant; compareTo takes the right operand and returns int.
const (
	CompareToUsing = "compareToUsing"
	CompareTo      = "compareTo"
)

// Normalize returns tok, or Missing when tok is empty.
func Normalize(tok string) string {
	if tok == "" {
		return Missing
	}
	return tok
}

// Classify returns the category of tok. An unrecognized token means the
// caller built an expression outside the supported operator set, and Classify
// panics.
func Classify(tok string) Category {
	c, ok := categories[Normalize(tok)]
	if !ok {
		panic(fmt.Sprintf("operator: unrecognized operator token %q", tok))
	}
	return c
}

// MethodName returns the method that overloads tok: plus, minus, times, div
// or rem for arithmetic, compareToUsing otherwise.
func MethodName(tok string) string {
	tok = Normalize(tok)
	if Classify(tok) == Arithmetic {
		return arithmeticMethods[tok]
	}
	return CompareToUsing
}

// Commutative reports whether the operands of tok may be swapped when the
// left operand's type does not overload it.
func Commutative(tok string) bool {
	tok = Normalize(tok)
	return tok == "+" || tok == "*"
}

// Tokens returns the recognized operator tokens.
func Tokens() []string {
	return []string{"+", "-", "*", "/", "%", "<", ">", "<=", ">=", "==", "!="}
}
