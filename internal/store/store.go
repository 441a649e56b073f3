// Package store defines the document persistence interface used for user
// data: work history, expenses, profiles and sign-in records.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
//
// Documents live at slash-separated paths such as profiles/{uid}. A
// collection is the path prefix up to the last slash, so
// users/{uid}/workHistory/{id} is a document in the collection
// users/{uid}/workHistory.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("store: document not found")
	ErrInvalidPath = errors.New("store: invalid document path")
)

// Document is one stored record.
type Document struct {
	ID        string         `json:"id"`
	Path      string         `json:"path"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// Append stores data as a new document in collection under a generated
	// id and returns that id.
	Append(ctx context.Context, collection string, data map[string]any) (string, error)

	// Upsert writes the document at path. With merge set, top-level fields
	// of data overlay the existing document; otherwise data replaces it.
	Upsert(ctx context.Context, path string, data map[string]any, merge bool) error

	// Get returns the document at path or ErrNotFound.
	Get(ctx context.Context, path string) (Document, error)

	// List returns the documents of collection, newest first.
	List(ctx context.Context, collection string) ([]Document, error)
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// split returns the collection and id of a document path.
func split(path string) (collection, id string, err error) {
	path = strings.Trim(path, "/")
	i := strings.LastIndexByte(path, '/')
	if i <= 0 || i == len(path)-1 || strings.Contains(path, "//") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return path[:i], path[i+1:], nil
}

func validCollection(collection string) error {
	c := strings.Trim(collection, "/")
	if c == "" || strings.Contains(c, "//") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, collection)
	}
	return nil
}

// merge overlays top-level fields of patch onto a copy of base.
func merge(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Encode converts a JSON-tagged struct into document fields.
func Encode(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Decode fills v from the document fields.
func (d Document) Decode(v any) error {
	b, err := json.Marshal(d.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
