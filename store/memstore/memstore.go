package memstore

import (
	"context"
	"reflect"
	"sync"

	"slotbook/store"

	"github.com/google/uuid"
)

// Mem is an in-memory store.Store with the same conditional-update
// semantics as the Mongo implementation. Every operation runs under one
// mutex, which makes ConditionalUpdate a genuine compare-and-swap:
// concurrent writers racing on the same version see exactly one winner.
type Mem struct {
	mu          sync.Mutex
	collections map[string]map[string]store.Doc
}

func New() *Mem {
	return &Mem{collections: make(map[string]map[string]store.Doc)}
}

func (m *Mem) coll(name string) map[string]store.Doc {
	c, ok := m.collections[name]
	if !ok {
		c = make(map[string]store.Doc)
		m.collections[name] = c
	}
	return c
}

func (m *Mem) Get(_ context.Context, collection, id string) (store.Doc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.coll(collection)[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(doc), nil
}

func (m *Mem) Put(_ context.Context, collection, id string, doc store.Doc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := clone(doc)
	stored["id"] = id
	m.coll(collection)[id] = stored
	return nil
}

func (m *Mem) ConditionalUpdate(_ context.Context, collection, id string, expected, set store.Doc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.coll(collection)[id]
	if !ok {
		return store.ErrNotFound
	}
	for k, want := range expected {
		if !reflect.DeepEqual(doc[k], want) {
			return store.ErrConflict
		}
	}
	for k, v := range clone(set) {
		doc[k] = v
	}
	return nil
}

func (m *Mem) Query(_ context.Context, collection string, filter store.Doc) ([]store.Doc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Doc
	for _, doc := range m.coll(collection) {
		match := true
		for k, want := range filter {
			if !reflect.DeepEqual(doc[k], want) {
				match = false
				break
			}
		}
		if match {
			out = append(out, clone(doc))
		}
	}
	return out, nil
}

func (m *Mem) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(collection)
	if _, ok := c[id]; !ok {
		return store.ErrNotFound
	}
	delete(c, id)
	return nil
}

func (m *Mem) CreateWithGeneratedID(_ context.Context, collection string, doc store.Doc) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	stored := clone(doc)
	stored["id"] = id
	m.coll(collection)[id] = stored
	return id, nil
}

func clone(doc store.Doc) store.Doc {
	out := make(store.Doc, len(doc))
	for k, v := range doc {
		if ss, ok := v.([]string); ok {
			cp := make([]string, len(ss))
			copy(cp, ss)
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}
