package pool

import (
	"os"
	"time"

	"github.com/annotation/stamd/internal/stamstore"
)

// waitInterval is the fixed poll interval used by both the load spin loop
// and waitUntilReady. Polling on a bounded interval is a deliberate
// simplicity choice over a condition variable or per-store notify channel.
const waitInterval = 100 * time.Millisecond

// load loads a store if it is not already loaded, blocking (via a bounded
// poll) if another goroutine is already loading it. Exactly one goroutine
// performs the load I/O for any given id at a time. It returns a copy of
// the resulting state.
func (p *StorePool) load(id string) (storeState, *Error) {
	for {
		s, ok := p.states.get(id)
		if !ok {
			break // not loaded yet, and nobody is loading it either
		}
		if s.loading {
			p.metrics.loadSpins.Inc()
			time.Sleep(waitInterval)
			continue
		}
		// Already loaded: bump last_access and return.
		touched, ok := p.states.touch(id, p.now())
		if !ok {
			return storeState{}, errInternal("state must exist")
		}
		return touched, nil
	}

	filename, serr := sanitizeID(id)
	if serr != nil {
		return storeState{}, serr
	}
	path := p.storePath(filename)
	if _, err := os.Stat(path); err != nil {
		return storeState{}, errNotFound("no such annotationstore exists")
	}

	// Check and insert under one State write lock, so that of several
	// goroutines that all found no entry above only one goes on to load.
	now := p.now()
	p.states.mu.Lock()
	if _, exists := p.states.rows[id]; exists {
		p.states.mu.Unlock()
		return p.load(id)
	}
	p.states.rows[id] = storeState{lastAccess: now, loading: true, saving: false}
	p.states.mu.Unlock()

	// The actual, potentially expensive load I/O happens with no table
	// lock held. A best-effort cross-process lock guards against a second
	// stamd process writing the same file mid-read.
	var store *stamstore.AnnotationStore
	var loadErr error
	lockErr := withCrossProcessLock(p.lockPath(filename), func() error {
		p.log.WithField("store", id).Info("loading store")
		store, loadErr = stamstore.Load(path)
		return nil
	})
	if lockErr != nil {
		// withCrossProcessLock never returns a non-nil error from fn()
		// here since fn itself returns nil; kept for completeness.
		return storeState{}, errInternal(lockErr.Error())
	}
	if loadErr != nil {
		// Preserve the state entry with loading=false rather than removing
		// it, so a retry takes the "already loaded" branch above and then
		// fails with InternalError on the Store Table lookup instead of
		// silently retrying the load.
		p.states.finishLoading(id, p.now())
		return storeState{}, errStam(loadErr)
	}

	p.metrics.loads.Inc()
	cfg, err := deriveWebAnnoConfig(id, p.extraContexts, p.namespaces, p.noExtraTarget)
	if err != nil {
		return storeState{}, errInternal(err.Error())
	}
	p.stores.insert(id, store)
	p.webanno.insert(id, cfg)

	finished, ok := p.states.finishLoading(id, p.now())
	if !ok {
		return storeState{}, errInternal("state must exist")
	}
	return finished, nil
}

// waitUntilReady blocks (via bounded poll) while id is loading or saving.
// It returns NotFound if the store is not tracked at all.
func (p *StorePool) waitUntilReady(id string) (storeState, *Error) {
	for {
		s, ok := p.states.get(id)
		if !ok {
			return storeState{}, errNotFound("no such store loaded")
		}
		if !s.loading && !s.saving {
			return s, nil
		}
		p.metrics.saveSpins.Inc()
		time.Sleep(waitInterval)
	}
}

func (p *StorePool) now() time.Time {
	if p.clock != nil {
		return p.clock()
	}
	return time.Now()
}
