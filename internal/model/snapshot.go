package model

import "sort"

// Snapshot is an immutable set of classes loaded at one index epoch.
// It is safe for concurrent reads.
type Snapshot struct {
	epoch    uint64
	classes  map[string]*Class
	bySimple map[string][]string
	names    []string
}

// NewSnapshot indexes classes by qualified name. Later duplicates replace
// earlier ones.
func NewSnapshot(epoch uint64, classes []*Class) *Snapshot {
	s := &Snapshot{
		epoch:    epoch,
		classes:  make(map[string]*Class, len(classes)),
		bySimple: make(map[string][]string),
	}
	for _, c := range classes {
		if _, dup := s.classes[c.QualifiedName]; !dup {
			s.names = append(s.names, c.QualifiedName)
			simple := c.SimpleName()
			s.bySimple[simple] = append(s.bySimple[simple], c.QualifiedName)
		}
		s.classes[c.QualifiedName] = c
	}
	sort.Strings(s.names)
	return s
}

// Epoch returns the index epoch the snapshot was loaded at.
func (s *Snapshot) Epoch() uint64 {
	return s.epoch
}

// Class returns the class with the given qualified name, or nil.
func (s *Snapshot) Class(qualifiedName string) *Class {
	return s.classes[qualifiedName]
}

// BySimpleName returns the qualified names of classes with this simple name.
func (s *Snapshot) BySimpleName(simple string) []string {
	return s.bySimple[simple]
}

// Names returns all qualified names, sorted.
func (s *Snapshot) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of classes.
func (s *Snapshot) Len() int {
	return len(s.classes)
}

var _ ClassIndex = (*Snapshot)(nil)
