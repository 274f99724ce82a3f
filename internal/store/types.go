package store

import "time"

// File is an indexed source or stub file.
type File struct {
	ID          int64
	Path        string
	Language    string
	Hash        string
	LastIndexed time.Time
}

// Module is a build module declared by a stub script. Classes name their
// module by Module.Name.
type Module struct {
	ID           int64
	FileID       *int64
	Name         string
	Version      string
	Dependencies []Dependency
}

// Dependency is one library a module depends on.
type Dependency struct {
	Name    string
	Version string
}

// Dependency returns the module's dependency on name, or nil.
func (m *Module) Dependency(name string) *Dependency {
	for i := range m.Dependencies {
		if m.Dependencies[i].Name == name {
			return &m.Dependencies[i]
		}
	}
	return nil
}

// Index states stored under MetaIndexState.
const (
	IndexStateIndexing = "indexing"
	IndexStateReady    = "ready"
)

// Metadata keys.
const (
	MetaIndexState = "index_state"
	MetaEpoch      = "epoch"
)
