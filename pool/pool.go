// Package pool implements the Store Pool: a lazily-loading,
// reference-counted, timed-eviction cache of mutable annotation stores
// with per-store reader/writer coordination, write-back persistence and a
// background janitor.
package pool

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/annotation/stamd/internal/stamstore"
)

// Config configures a new StorePool, gathering the pool-relevant CLI flags
// (bind is used by the HTTP layer, not the pool itself).
type Config struct {
	BaseDir       string
	Extension     string
	BaseURL       string
	ReadOnly      bool
	UnloadTime    time.Duration
	ExtraContexts []string
	Namespaces    map[string]string
	NoExtraTarget bool
	Logger        *logrus.Logger
	Registerer    prometheus.Registerer
}

// StorePool is the shared, singleton handle every HTTP handler borrows.
// No other globals exist.
type StorePool struct {
	basedir       string
	extension     string
	baseURL       string
	readonly      bool
	unloadTime    time.Duration
	extraContexts []string
	namespaces    map[string]string
	noExtraTarget bool

	states  *stateTable
	stores  *storeTable
	webanno *webAnnoTable
	metrics *poolMetrics
	log     *logrus.Entry

	clock func() time.Time // overridable for tests; nil means time.Now

	janitorCancel chan struct{}
	janitorDone   chan struct{}
}

// New constructs a StorePool rooted at cfg.BaseDir. The base directory
// must already exist.
func New(cfg Config) (*StorePool, error) {
	info, err := os.Stat(cfg.BaseDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("base directory must exist: %s", cfg.BaseDir)
	}
	if cfg.Extension == "" {
		cfg.Extension = "store.stam.json"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}

	states := newStateTable()
	stores := newStoreTable()
	webanno := newWebAnnoTable()

	p := &StorePool{
		basedir:       cfg.BaseDir,
		extension:     cfg.Extension,
		baseURL:       cfg.BaseURL,
		readonly:      cfg.ReadOnly,
		unloadTime:    cfg.UnloadTime,
		extraContexts: cfg.ExtraContexts,
		namespaces:    cfg.Namespaces,
		noExtraTarget: cfg.NoExtraTarget,
		states:        states,
		stores:        stores,
		webanno:       webanno,
		log:           logger.WithField("component", "pool"),
	}
	p.metrics = newPoolMetrics(cfg.Registerer, func() float64 { return float64(len(stores.ids())) })
	return p, nil
}

// BaseDir returns the configured base directory.
func (p *StorePool) BaseDir() string { return p.basedir }

// Extension returns the configured store file extension.
func (p *StorePool) Extension() string { return p.extension }

// ReadOnly reports whether the pool rejects all mutating operations.
func (p *StorePool) ReadOnly() bool { return p.readonly }

// ListStores enumerates every store known to exist on disk, not just the
// ones currently resident in memory.
func (p *StorePool) ListStores() ([]string, error) {
	entries, err := os.ReadDir(p.basedir)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	suffix := "." + p.extension
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
			ids = append(ids, name[:len(name)-len(suffix)])
		}
	}
	return ids, nil
}

func (p *StorePool) storePath(id string) string {
	return filepath.Join(p.basedir, id+"."+p.extension)
}

func (p *StorePool) lockPath(id string) string {
	return filepath.Join(p.basedir, "."+id+".lock")
}

func (p *StorePool) resourcePath(id string) string {
	return filepath.Join(p.basedir, id+".txt")
}

// Map provides read access to a store: it loads the store if necessary,
// acquires the per-store reader lock, invokes f, and releases on exit.
func (p *StorePool) Map(id string, f func(*stamstore.AnnotationStore) (interface{}, *Error)) (interface{}, *Error) {
	if _, err := p.load(id); err != nil {
		return nil, err
	}
	h, ok := p.stores.get(id)
	if !ok {
		return nil, errInternal("annotationstore not loaded")
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return f(h.store)
}

// MapMut provides write access to a store.
func (p *StorePool) MapMut(id string, f func(*stamstore.AnnotationStore) (interface{}, *Error)) (interface{}, *Error) {
	if p.readonly {
		return nil, errPermissionDenied("service is configured as read-only")
	}
	if _, err := p.load(id); err != nil {
		return nil, err
	}
	h, ok := p.stores.get(id)
	if !ok {
		return nil, errInternal("annotationstore not loaded")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return f(h.store)
}

// NewStore creates a brand-new, empty annotation store. It rejects ids
// whose backing file already exists on disk, checked against the
// fully-resolved basedir-joined path rather than a possibly-relative one,
// so the existence check can't be fooled by the caller's working
// directory. The empty store is written to that path straight away, so a
// later create of the same id is refused even after the store is evicted.
func (p *StorePool) NewStore(id string) *Error {
	if p.readonly {
		return errPermissionDenied("service is configured as read-only")
	}
	filename, serr := sanitizeID(id)
	if serr != nil {
		return serr
	}
	path := p.storePath(filename)
	if _, err := os.Stat(path); err == nil {
		return errPermissionDenied("store already exists")
	}

	store := stamstore.New()
	store.SetFilename(path)
	if saveErr := store.Save(); saveErr != nil {
		return errStam(saveErr)
	}

	cfg, err := deriveWebAnnoConfig(id, p.extraContexts, p.namespaces, p.noExtraTarget)
	if err != nil {
		return errInternal(err.Error())
	}

	now := p.now()
	p.states.insertReady(id, now)
	p.stores.insert(id, store)
	p.webanno.insert(id, cfg)
	p.log.WithField("store", id).Info("created store")
	return nil
}

// NewResource creates a text resource inside storeID. It rejects resource
// ids whose sibling .txt file already exists on disk, again checked
// against the fully-resolved path.
func (p *StorePool) NewResource(storeID, resourceID, text string) *Error {
	if p.readonly {
		return errPermissionDenied("service is configured as read-only")
	}
	filename, serr := sanitizeID(resourceID)
	if serr != nil {
		return serr
	}
	path := p.resourcePath(filename)
	if _, err := os.Stat(path); err == nil {
		return errPermissionDenied("resource already exists")
	}

	_, err := p.MapMut(storeID, func(store *stamstore.AnnotationStore) (interface{}, *Error) {
		if addErr := store.AddResource(resourceID, text, path); addErr != nil {
			return nil, errStam(addErr)
		}
		return nil, nil
	})
	return err
}

// Save ensures durability for one store. It is idempotent: a second call
// with no intervening mutation performs no write.
func (p *StorePool) Save(id string) *Error {
	if _, err := p.waitUntilReady(id); err != nil {
		return err
	}
	if p.readonly {
		return errPermissionDenied("service is configured as read-only")
	}
	if !p.states.setSaving(id, true) {
		return errInternal("state must exist")
	}

	h, ok := p.stores.get(id)
	if ok {
		// A reader lock is held during saving (not a writer lock), so
		// concurrent reads stay possible while mutations are excluded.
		h.mu.RLock()
		var saveErr error
		if h.store.Changed() {
			p.log.WithField("store", id).Info("saving store")
			lockErr := withCrossProcessLock(p.lockPath(id), func() error {
				saveErr = h.store.Save()
				return nil
			})
			if lockErr != nil {
				saveErr = lockErr
			}
			if saveErr == nil {
				p.metrics.saves.Inc()
			}
		}
		h.mu.RUnlock()
		if saveErr != nil {
			p.states.setSaving(id, false)
			return errStam(saveErr)
		}
	}

	if !p.states.setSaving(id, false) {
		return errInternal("state must exist")
	}
	return nil
}

// Unload evicts one store: saves it first (unless read-only), then removes
// it from the Store, WebAnnoConfig and State tables in that order,
// tolerating absence of the entry in any of them.
func (p *StorePool) Unload(id string) *Error {
	if _, err := p.waitUntilReady(id); err != nil {
		if err.Kind == NotFound {
			return nil // already absent: no-op success
		}
		return err
	}
	if !p.readonly {
		if err := p.Save(id); err != nil {
			return err
		}
	}
	p.stores.remove(id)
	p.webanno.remove(id)
	p.states.remove(id)
	p.metrics.evictions.Inc()
	p.log.WithField("store", id).Info("unloaded store")
	return nil
}

// Flush evicts every store whose last access is at least the configured
// idle threshold in the past, or every store if force is true. It returns
// the ids it unloaded and propagates the first error.
func (p *StorePool) Flush(force bool) ([]string, *Error) {
	ids := p.states.idsOlderThan(p.unloadTime, p.now(), force)
	for _, id := range ids {
		if err := p.Unload(id); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// WebAnnoConfig returns the JSON-LD presentation config for a resident
// store, loading it first if necessary.
func (p *StorePool) WebAnnoConfig(id string) (*WebAnnoConfig, *Error) {
	if _, err := p.load(id); err != nil {
		return nil, err
	}
	cfg, ok := p.webanno.get(id)
	if !ok {
		return nil, errInternal("webanno config must exist")
	}
	return cfg, nil
}

// BaseURL returns the configured public base URL, used to build canonical
// IRIs in WebAnnoConfig.
func (p *StorePool) BaseURL() string { return p.baseURL }
