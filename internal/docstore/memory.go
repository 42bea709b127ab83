package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests. It mirrors the semantics
// of the SQLite store exactly, including the absence of any concurrency token
// on documents: a stale read followed by a write silently overwrites.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Fields
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]Fields)}
}

func (s *MemoryStore) collection(name string) map[string]Fields {
	c, ok := s.collections[name]
	if !ok {
		c = make(map[string]Fields)
		s.collections[name] = c
	}
	return c
}

// copyFields deep-copies a field map through a JSON round trip so callers
// never share memory with the store.
func copyFields(fields Fields) Fields {
	raw, err := json.Marshal(fields)
	if err != nil {
		// Fields come from json.Marshal-able models; this cannot fail for
		// documents that made it into the store.
		panic(fmt.Sprintf("docstore: unmarshalable fields: %v", err))
	}
	var out Fields
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("docstore: uncopyable fields: %v", err))
	}
	return out
}

// Insert persists a new document under a fresh UUID.
func (s *MemoryStore) Insert(_ context.Context, collection string, fields Fields) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.collection(collection)[id] = copyFields(fields)
	return id, nil
}

// GetByID retrieves a copy of a document's fields.
func (s *MemoryStore) GetByID(_ context.Context, collection, id string) (Fields, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyFields(fields), nil
}

// ReplaceFields overwrites the named top-level fields of a document.
func (s *MemoryStore) ReplaceFields(_ context.Context, collection, id string, partial Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range copyFields(partial) {
		fields[k] = v
	}
	return nil
}

// DeleteByID removes a document; missing ids are a no-op.
func (s *MemoryStore) DeleteByID(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], id)
	return nil
}

// QueryEquals returns documents whose top-level field equals value.
func (s *MemoryStore) QueryEquals(_ context.Context, collection, field string, value any) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []Document
	for id, fields := range s.collections[collection] {
		if valueEquals(fields[field], value) {
			docs = append(docs, Document{ID: id, Fields: copyFields(fields)})
		}
	}
	return docs, nil
}

// QueryArrayContains returns documents whose array field contains value.
func (s *MemoryStore) QueryArrayContains(_ context.Context, collection, field string, value any) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []Document
	for id, fields := range s.collections[collection] {
		elems, ok := fields[field].([]any)
		if !ok {
			continue
		}
		for _, elem := range elems {
			if valueEquals(elem, value) {
				docs = append(docs, Document{ID: id, Fields: copyFields(fields)})
				break
			}
		}
	}
	return docs, nil
}

// All returns every document in a collection.
func (s *MemoryStore) All(_ context.Context, collection string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []Document
	for id, fields := range s.collections[collection] {
		docs = append(docs, Document{ID: id, Fields: copyFields(fields)})
	}
	return docs, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
