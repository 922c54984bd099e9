package pool

import (
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// webAnnoTemplate is the global JSON-LD context template every store's
// WebAnnoConfig is derived from. It ships as YAML, kept human-editable
// rather than as a Go struct literal, and is parsed each time a store's
// config is derived.
const webAnnoTemplate = `
context:
  - "https://www.w3.org/ns/anno.jsonld"
vocab: "https://www.w3.org/ns/activitystreams#"
`

type templateSpec struct {
	Context []string `yaml:"context"`
	Vocab   string   `yaml:"vocab"`
}

func loadWebAnnoTemplate() (templateSpec, error) {
	var t templateSpec
	if err := yaml.Unmarshal([]byte(webAnnoTemplate), &t); err != nil {
		return templateSpec{}, fmt.Errorf("webanno template: %w", err)
	}
	return t, nil
}

// WebAnnoConfig is the per-store JSON-LD presentation config derived from
// the global template. It does not hold the base URL: the canonical IRIs
// for annotations, resources and data sets are built by its IRI methods
// from a base URL passed in by the caller. Its lifetime is tied to the
// store's presence in the Store Table (pool.go inserts/removes it
// alongside the store handle).
type WebAnnoConfig struct {
	StoreID       string
	Context       []string
	Namespaces    map[string]string
	NoExtraTarget bool
}

// deriveWebAnnoConfig builds a WebAnnoConfig for storeID from the global
// template, extra contexts and namespaces.
func deriveWebAnnoConfig(storeID string, extraContexts []string, ns map[string]string, noExtraTarget bool) (*WebAnnoConfig, error) {
	tmpl, err := loadWebAnnoTemplate()
	if err != nil {
		return nil, err
	}
	ctx := make([]string, 0, len(tmpl.Context)+len(extraContexts))
	ctx = append(ctx, tmpl.Context...)
	ctx = append(ctx, extraContexts...)

	namespaces := make(map[string]string, len(ns)+1)
	for k, v := range ns {
		namespaces[k] = v
	}
	if tmpl.Vocab != "" {
		namespaces["as"] = tmpl.Vocab
	}

	return &WebAnnoConfig{
		StoreID:       storeID,
		Context:       ctx,
		Namespaces:    namespaces,
		NoExtraTarget: noExtraTarget,
	}, nil
}

// AnnotationIRI returns the canonical IRI for an annotation in this store
// under the pool's configured base URL.
func (c *WebAnnoConfig) AnnotationIRI(baseURL, id string) string {
	return join(baseURL, c.StoreID, "annotations", id)
}

// ResourceIRI returns the canonical IRI for a resource in this store.
func (c *WebAnnoConfig) ResourceIRI(baseURL, id string) string {
	return join(baseURL, c.StoreID, "resources", id)
}

// DatasetIRI returns the canonical IRI for a dataset in this store.
func (c *WebAnnoConfig) DatasetIRI(baseURL, id string) string {
	return join(baseURL, c.StoreID, "datasets", id)
}

func join(parts ...string) string {
	trimmed := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed = append(trimmed, strings.Trim(p, "/"))
	}
	return strings.Join(trimmed, "/")
}

// webAnnoTable is the Web-Annotation Config Table, guarded by its own lock
// so a lookup never contends with the State or Store tables.
type webAnnoTable struct {
	mu   sync.RWMutex
	rows map[string]*WebAnnoConfig
}

func newWebAnnoTable() *webAnnoTable {
	return &webAnnoTable{rows: map[string]*WebAnnoConfig{}}
}

func (t *webAnnoTable) insert(id string, cfg *WebAnnoConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[id] = cfg
}

func (t *webAnnoTable) get(id string) (*WebAnnoConfig, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cfg, ok := t.rows[id]
	return cfg, ok
}

func (t *webAnnoTable) remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rows, id)
}
