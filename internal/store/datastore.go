package store

import "github.com/jward/trellis/internal/model"

// DataStore is the interface for extraction-phase data access. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for parallel
// extraction) implement this interface.
type DataStore interface {
	// Extraction inserts. Each returns the assigned ID.
	InsertModule(m *Module) (int64, error)
	InsertClass(fileID *int64, c *model.Class) (int64, error)

	// Cross-file lookup for stub scripts that extend earlier declarations.
	ClassByName(qualifiedName string) (*model.Class, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
