package augment

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/types"
)

// Capitalize upper-cases the first letter of a property name.
func Capitalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// Decapitalize follows java.beans.Introspector: the first letter is
// lower-cased unless the first two letters are both upper case, so
// "Name" -> "name" and "URL" -> "URL".
func Decapitalize(name string) string {
	r0, size := utf8.DecodeRuneInString(name)
	if r0 == utf8.RuneError {
		return name
	}
	if r1, _ := utf8.DecodeRuneInString(name[size:]); unicode.IsUpper(r0) && unicode.IsUpper(r1) {
		return name
	}
	return string(unicode.ToLower(r0)) + name[size:]
}

// accessorSuffix returns the part of name after prefix when it starts with
// an upper-case letter.
func accessorSuffix(name, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok || rest == "" {
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(rest)
	if !unicode.IsUpper(r) {
		return "", false
	}
	return rest, true
}

// GetterProperty returns the property a method reads: no parameters, a
// non-void return and a "get" prefix, or an "is" prefix with a primitive
// boolean return.
func GetterProperty(m *model.Method) (string, bool) {
	if len(m.Params) != 0 || types.IsVoid(m.ReturnType) {
		return "", false
	}
	if rest, ok := accessorSuffix(m.Name, "get"); ok {
		return Decapitalize(rest), true
	}
	if rest, ok := accessorSuffix(m.Name, "is"); ok && types.IsBoolean(m.ReturnType) {
		return Decapitalize(rest), true
	}
	return "", false
}

// SetterProperty returns the property a one-argument "set" method writes.
func SetterProperty(m *model.Method) (string, bool) {
	if len(m.Params) != 1 {
		return "", false
	}
	if rest, ok := accessorSuffix(m.Name, "set"); ok {
		return Decapitalize(rest), true
	}
	return "", false
}
