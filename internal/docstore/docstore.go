// Package docstore provides abstractions for document persistence. Documents
// are JSON-like field maps keyed by an opaque, store-assigned id and grouped
// into named collections. This abstraction allows swapping backends (SQLite,
// a hosted document database, an in-memory store for tests) without changing
// the service layer.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection names used by the application.
const (
	CollectionUsers  = "users"
	CollectionLists  = "lists"
	CollectionEvents = "events"
)

// ErrNotFound is returned when a document id does not exist in a collection.
var ErrNotFound = errors.New("docstore: document not found")

// Fields is the JSON-like body of a document, excluding its id.
type Fields map[string]any

// Document pairs a document id with its fields, as returned by queries.
type Document struct {
	ID     string
	Fields Fields
}

// Store defines the document persistence contract.
//
// ReplaceFields merges only the named top-level fields into the document;
// unnamed fields are left untouched. There is no optimistic-concurrency
// token: callers that read, modify and write a document race with each other
// at document granularity (last writer wins).
type Store interface {
	// Insert persists a new document and returns the assigned id.
	Insert(ctx context.Context, collection string, fields Fields) (string, error)

	// GetByID retrieves a document's fields. Returns ErrNotFound if the id
	// does not exist.
	GetByID(ctx context.Context, collection, id string) (Fields, error)

	// ReplaceFields overwrites the named top-level fields of a document.
	// Returns ErrNotFound if the id does not exist.
	ReplaceFields(ctx context.Context, collection, id string, partial Fields) error

	// DeleteByID removes a document. Deleting a missing id is a no-op.
	DeleteByID(ctx context.Context, collection, id string) error

	// QueryEquals returns every document whose top-level field equals value.
	QueryEquals(ctx context.Context, collection, field string, value any) ([]Document, error)

	// QueryArrayContains returns every document whose top-level array field
	// contains value as an element.
	QueryArrayContains(ctx context.Context, collection, field string, value any) ([]Document, error)

	// All returns every document in a collection.
	All(ctx context.Context, collection string) ([]Document, error)

	// Close releases any resources held by the store.
	Close() error
}

// Encode converts a model struct into Fields via its JSON tags. The "id" key
// is stripped: document ids live outside the field map.
func Encode(v any) (Fields, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	var fields Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	delete(fields, "id")
	return fields, nil
}

// Decode populates a model struct from Fields via its JSON tags.
func Decode(fields Fields, v any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("docstore: decode: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("docstore: decode: %w", err)
	}
	return nil
}

// valueEquals compares a decoded JSON value against a query argument. JSON
// round trips turn all numbers into float64, so numeric arguments are
// normalized before comparison.
func valueEquals(stored, arg any) bool {
	switch a := arg.(type) {
	case int:
		f, ok := stored.(float64)
		return ok && f == float64(a)
	case int64:
		f, ok := stored.(float64)
		return ok && f == float64(a)
	case float64:
		f, ok := stored.(float64)
		return ok && f == a
	default:
		return stored == arg
	}
}
