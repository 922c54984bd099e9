package pool

import (
	"sync"

	"github.com/annotation/stamd/internal/stamstore"
)

// handle is the shared pointer to a store plus its reader/writer lock.
// Cloning the pointer out of the storeTable under the table lock and then
// releasing the table lock (storeTable.get below) avoids holding the table
// lock across any store I/O or per-store locking — the garbage collector
// keeps the underlying store alive for as long as any handle pointer (held
// by a caller mid-request, or by the table) still references it.
type handle struct {
	mu    sync.RWMutex
	store *stamstore.AnnotationStore
}

// storeTable is the mapping store_id -> *handle. Locks are always acquired
// in the order State -> Store when both are needed, and this table's lock
// is only ever held long enough to clone a handle pointer out, never
// across I/O.
type storeTable struct {
	mu   sync.RWMutex
	rows map[string]*handle
}

func newStoreTable() *storeTable {
	return &storeTable{rows: map[string]*handle{}}
}

// insert installs a freshly loaded or created store under id, replacing
// any previous handle.
func (t *storeTable) insert(id string, store *stamstore.AnnotationStore) *handle {
	h := &handle{store: store}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[id] = h
	return h
}

// get clones the handle pointer out of the table under a reader lock: the
// table lookup itself never needs exclusive access, since mutation
// exclusivity on the store is already provided by the per-store writer
// lock, not the table lock.
func (t *storeTable) get(id string) (*handle, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.rows[id]
	return h, ok
}

func (t *storeTable) remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rows, id)
}

// ids lists every currently loaded store id (used by the resident-store
// gauge in metrics.go).
func (t *storeTable) ids() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.rows))
	for id := range t.rows {
		out = append(out, id)
	}
	return out
}
