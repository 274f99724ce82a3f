// Package modifier maps Java declaration modifiers to and from the packed
// bitmask carried by compiled property metadata.
package modifier

import "strings"

// Modifier is one entry of the fixed modifier vocabulary. The numeric order
// of the constants is the canonical order of every Set.
type Modifier int

const (
	Public Modifier = iota + 1
	Protected
	Private
	Package
	Static
	Abstract
	Final
	Transient
	Volatile
	Synchronized
	Native
	Strictfp
)

type entry struct {
	mod  Modifier
	name string
	bit  int64
}

// vocabulary lists every modifier in canonical order with its bit. The bits
// are the JVM access flags; package-private has no class-file bit and uses
// 0x10000, above the range javac assigns.
var vocabulary = []entry{
	{Public, "public", 0x0001},
	{Protected, "protected", 0x0004},
	{Private, "private", 0x0002},
	{Package, "package", 0x10000},
	{Static, "static", 0x0008},
	{Abstract, "abstract", 0x0400},
	{Final, "final", 0x0010},
	{Transient, "transient", 0x0080},
	{Volatile, "volatile", 0x0040},
	{Synchronized, "synchronized", 0x0020},
	{Native, "native", 0x0100},
	{Strictfp, "strictfp", 0x0800},
}

// All returns the full vocabulary in canonical order.
func All() []Modifier {
	mods := make([]Modifier, len(vocabulary))
	for i, e := range vocabulary {
		mods[i] = e.mod
	}
	return mods
}

func lookup(m Modifier) (entry, bool) {
	if m < Public || int(m) > len(vocabulary) {
		return entry{}, false
	}
	return vocabulary[m-1], true
}

// String returns the Java keyword for m.
func (m Modifier) String() string {
	if e, ok := lookup(m); ok {
		return e.name
	}
	return ""
}

// Bit returns the mask bit for m, or 0 for an unknown modifier.
func (m Modifier) Bit() int64 {
	if e, ok := lookup(m); ok {
		return e.bit
	}
	return 0
}

// IsVisibility reports whether m is one of the four access levels.
func (m Modifier) IsVisibility() bool {
	return m >= Public && m <= Package
}

// Parse returns the modifier for a keyword, case-insensitively.
// "packagelocal" and "package_private" are accepted for Package.
func Parse(name string) (Modifier, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "packagelocal", "package_private", "package-private":
		return Package, true
	}
	for _, e := range vocabulary {
		if e.name == n {
			return e.mod, true
		}
	}
	return 0, false
}

// Set is an ordered set of modifiers. Sets built by NewSet or Decode are
// always in canonical order with no duplicates.
type Set []Modifier

// NewSet builds a canonical Set from mods, dropping duplicates and unknown
// values.
func NewSet(mods ...Modifier) Set {
	var mask uint32
	for _, m := range mods {
		if _, ok := lookup(m); ok {
			mask |= 1 << uint(m)
		}
	}
	var s Set
	for _, e := range vocabulary {
		if mask&(1<<uint(e.mod)) != 0 {
			s = append(s, e.mod)
		}
	}
	return s
}

// ParseSet builds a Set from keywords, ignoring words that are not modifiers.
func ParseSet(names ...string) Set {
	mods := make([]Modifier, 0, len(names))
	for _, n := range names {
		if m, ok := Parse(n); ok {
			mods = append(mods, m)
		}
	}
	return NewSet(mods...)
}

// Decode returns the modifiers whose bits are set in mask, in canonical
// order. Unknown bits are ignored.
func Decode(mask int64) Set {
	var s Set
	for _, e := range vocabulary {
		if mask&e.bit != 0 {
			s = append(s, e.mod)
		}
	}
	return s
}

// Encode packs s into a bitmask.
func Encode(s Set) int64 {
	var mask int64
	for _, m := range s {
		mask |= m.Bit()
	}
	return mask
}

// Has reports whether m is in s.
func (s Set) Has(m Modifier) bool {
	for _, x := range s {
		if x == m {
			return true
		}
	}
	return false
}

// With returns a new canonical Set containing s plus mods.
func (s Set) With(mods ...Modifier) Set {
	all := make([]Modifier, 0, len(s)+len(mods))
	all = append(all, s...)
	all = append(all, mods...)
	return NewSet(all...)
}

// Visibility returns the declared access level, or 0 when none is declared.
func (s Set) Visibility() Modifier {
	for _, m := range s {
		if m.IsVisibility() {
			return m
		}
	}
	return 0
}

// Names returns the keywords of s in order.
func (s Set) Names() []string {
	names := make([]string, len(s))
	for i, m := range s {
		names[i] = m.String()
	}
	return names
}

func (s Set) String() string {
	return strings.Join(s.Names(), " ")
}
