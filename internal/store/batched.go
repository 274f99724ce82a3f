package store

import (
	"sync"

	"github.com/jward/trellis/internal/model"
)

// BufferedClass is a class waiting in a BatchedStore together with the file
// it was extracted from.
type BufferedClass struct {
	FileID *int64
	Class  *model.Class
}

// BatchedStore buffers extraction inserts in memory using fake (negative)
// IDs. It implements DataStore so extraction can write to it without knowing
// whether it is hitting SQLite or an in-memory buffer.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
// ClassByName consults the buffer first and then passes through to the
// underlying Store, which is safe for concurrent reads.
type BatchedStore struct {
	store *Store
	mu    sync.Mutex

	Modules []Module
	Classes []BufferedClass

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore backed by the given Store for read queries.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{
		store:      s,
		nextFakeID: -1,
	}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertModule(m *Module) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	m.ID = fakeID
	b.Modules = append(b.Modules, *m)
	return fakeID, nil
}

func (b *BatchedStore) InsertClass(fileID *int64, c *model.Class) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	b.Classes = append(b.Classes, BufferedClass{FileID: fileID, Class: c})
	return fakeID, nil
}

// ClassByName returns the most recently buffered class with this name, or
// falls back to the database.
func (b *BatchedStore) ClassByName(qualifiedName string) (*model.Class, error) {
	b.mu.Lock()
	for i := len(b.Classes) - 1; i >= 0; i-- {
		if c := b.Classes[i].Class; c.QualifiedName == qualifiedName {
			b.mu.Unlock()
			return c, nil
		}
	}
	b.mu.Unlock()
	return b.store.ClassByName(qualifiedName)
}

// Len returns the number of buffered modules and classes.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Modules) + len(b.Classes)
}
