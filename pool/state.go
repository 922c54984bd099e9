package pool

import (
	"sync"
	"time"
)

// storeState is a record per known store. loading and saving are never
// both true; saving implies presence in the store table; loading=false
// plus table membership means the store is ready for use.
type storeState struct {
	lastAccess time.Time
	loading    bool
	saving     bool
}

func (s storeState) clone() storeState { return s }

// stateTable is the mapping store_id -> storeState, guarded by a single
// reader/writer lock.
type stateTable struct {
	mu   sync.RWMutex
	rows map[string]storeState
}

func newStateTable() *stateTable {
	return &stateTable{rows: map[string]storeState{}}
}

// get returns a copy of the state for id, if known.
func (t *stateTable) get(id string) (storeState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.rows[id]
	return s, ok
}

// insertLoading inserts a fresh entry marked loading=true, last_access=now.
func (t *stateTable) insertLoading(id string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[id] = storeState{lastAccess: now, loading: true, saving: false}
}

// insertReady inserts a fresh entry marked loading=false (used by
// new_store, which does not go through the load spin loop).
func (t *stateTable) insertReady(id string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[id] = storeState{lastAccess: now, loading: false, saving: false}
}

// finishLoading clears loading and returns a copy of the resulting state.
// It reports false if the entry unexpectedly vanished (InternalError in
// the caller).
func (t *stateTable) finishLoading(id string, now time.Time) (storeState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.rows[id]
	if !ok {
		return storeState{}, false
	}
	s.loading = false
	s.lastAccess = now
	t.rows[id] = s
	return s, true
}

// touch bumps last_access on an existing entry and returns a copy.
func (t *stateTable) touch(id string, now time.Time) (storeState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.rows[id]
	if !ok {
		return storeState{}, false
	}
	s.lastAccess = now
	t.rows[id] = s
	return s, true
}

// setSaving flips the saving flag and returns whether the entry existed.
func (t *stateTable) setSaving(id string, saving bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.rows[id]
	if !ok {
		return false
	}
	s.saving = saving
	t.rows[id] = s
	return true
}

// remove deletes the entry for id, tolerating absence.
func (t *stateTable) remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rows, id)
}

// idsOlderThan returns every id whose last_access is at least maxAge in the
// past (or every id, if all is true) — the collection step of a flush.
func (t *stateTable) idsOlderThan(maxAge time.Duration, now time.Time, all bool) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.rows))
	for id, s := range t.rows {
		if all || now.Sub(s.lastAccess) >= maxAge {
			ids = append(ids, id)
		}
	}
	return ids
}
