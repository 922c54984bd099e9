package stamstore

import (
	"encoding/json"
	"os"
	"sync/atomic"
)

// Annotation is a minimal STAM annotation: a set of targets (references into
// resources) plus a data set of key/value pairs.
type Annotation struct {
	ID     string            `json:"@id"`
	Target []Selector        `json:"target"`
	Data   map[string]string `json:"data,omitempty"`
}

// Selector addresses a range of text within a resource.
type Selector struct {
	Resource string `json:"resource"`
	Begin    int    `json:"begin"`
	End      int    `json:"end"`
}

// Resource is a text document that annotations may target.
type Resource struct {
	ID   string `json:"@id"`
	Text string `json:"text"`
}

// storeFile is the on-disk JSON representation of an AnnotationStore. It is
// deliberately small: the point of this package is to give the pool
// something real to load, mutate and persist, not to be a faithful STAM
// JSON serializer.
type storeFile struct {
	Resources   map[string]*Resource   `json:"resources"`
	Annotations map[string]*Annotation `json:"annotations"`
}

// AnnotationStore is the opaque, mutable value the pool manages. It is not
// safe for concurrent use; all synchronization is the caller's (the
// pool's) responsibility.
type AnnotationStore struct {
	filename string
	data     storeFile
	dirty    atomic.Bool
}

// New returns an empty annotation store with no backing file.
func New() *AnnotationStore {
	return &AnnotationStore{
		data: storeFile{
			Resources:   map[string]*Resource{},
			Annotations: map[string]*Annotation{},
		},
	}
}

// Load reads an annotation store from path.
func Load(path string) (*AnnotationStore, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, newError("load", "%v", err)
	}
	s := New()
	if len(b) > 0 {
		if err := json.Unmarshal(b, &s.data); err != nil {
			return nil, newError("load", "invalid store JSON: %v", err)
		}
	}
	if s.data.Resources == nil {
		s.data.Resources = map[string]*Resource{}
	}
	if s.data.Annotations == nil {
		s.data.Annotations = map[string]*Annotation{}
	}
	s.filename = path
	return s, nil
}

// SetFilename assigns the path a newly created store will be saved to.
func (s *AnnotationStore) SetFilename(path string) {
	s.filename = path
}

// Filename returns the path this store will be saved to.
func (s *AnnotationStore) Filename() string {
	return s.filename
}

// Changed reports whether the store has been mutated since it was loaded
// (or created) without an intervening Save.
func (s *AnnotationStore) Changed() bool {
	return s.dirty.Load()
}

// Save persists the store back to its originating filename.
func (s *AnnotationStore) Save() error {
	b, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return newError("save", "%v", err)
	}
	if err := os.WriteFile(s.filename, b, 0o644); err != nil {
		return newError("save", "%v", err)
	}
	s.dirty.Store(false)
	return nil
}

// AddResource inserts a new text resource, also writing its sidecar .txt
// file at textPath.
func (s *AnnotationStore) AddResource(id, text, textPath string) error {
	if _, exists := s.data.Resources[id]; exists {
		return newError("add_resource", "resource %q already exists", id)
	}
	if err := os.WriteFile(textPath, []byte(text), 0o644); err != nil {
		return newError("add_resource", "%v", err)
	}
	s.data.Resources[id] = &Resource{ID: id, Text: text}
	s.dirty.Store(true)
	return nil
}

// Resource looks up a resource by id.
func (s *AnnotationStore) Resource(id string) (*Resource, bool) {
	r, ok := s.data.Resources[id]
	return r, ok
}

// Resources returns all resources, in no particular order.
func (s *AnnotationStore) Resources() []*Resource {
	out := make([]*Resource, 0, len(s.data.Resources))
	for _, r := range s.data.Resources {
		out = append(out, r)
	}
	return out
}

// Annotation looks up an annotation by id.
func (s *AnnotationStore) Annotation(id string) (*Annotation, bool) {
	a, ok := s.data.Annotations[id]
	return a, ok
}

// Annotations returns all annotations, in no particular order.
func (s *AnnotationStore) Annotations() []*Annotation {
	out := make([]*Annotation, 0, len(s.data.Annotations))
	for _, a := range s.data.Annotations {
		out = append(out, a)
	}
	return out
}

func (s *AnnotationStore) addAnnotation(a *Annotation) {
	s.data.Annotations[a.ID] = a
	s.dirty.Store(true)
}
