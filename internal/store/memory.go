package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store with an in-memory map. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]memDoc
	seq  uint64
	now  func() time.Time
}

type memDoc struct {
	Document
	collection string
	seq        uint64
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]memDoc),
		now:  time.Now,
	}
}

func (s *MemoryStore) Append(_ context.Context, collection string, data map[string]any) (string, error) {
	if err := validCollection(collection); err != nil {
		return "", err
	}
	collection = strings.Trim(collection, "/")
	id := uuid.New().String()
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	path := Join(collection, id)
	s.docs[path] = memDoc{
		Document: Document{
			ID:        id,
			Path:      path,
			Data:      merge(nil, data),
			CreatedAt: now,
			UpdatedAt: now,
		},
		collection: collection,
		seq:        s.seq,
	}
	return id, nil
}

func (s *MemoryStore) Upsert(_ context.Context, path string, data map[string]any, mergeFields bool) error {
	collection, id, err := split(path)
	if err != nil {
		return err
	}
	path = Join(collection, id)
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.docs[path]
	if !ok {
		s.seq++
		s.docs[path] = memDoc{
			Document: Document{
				ID:        id,
				Path:      path,
				Data:      merge(nil, data),
				CreatedAt: now,
				UpdatedAt: now,
			},
			collection: collection,
			seq:        s.seq,
		}
		return nil
	}
	if mergeFields {
		existing.Data = merge(existing.Data, data)
	} else {
		existing.Data = merge(nil, data)
	}
	existing.UpdatedAt = now
	s.docs[path] = existing
	return nil
}

func (s *MemoryStore) Get(_ context.Context, path string) (Document, error) {
	collection, id, err := split(path)
	if err != nil {
		return Document{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[Join(collection, id)]
	if !ok {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return copyDoc(d.Document), nil
}

func (s *MemoryStore) List(_ context.Context, collection string) ([]Document, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	collection = strings.Trim(collection, "/")

	s.mu.RLock()
	matched := make([]memDoc, 0)
	for _, d := range s.docs {
		if d.collection == collection {
			matched = append(matched, d)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].seq > matched[j].seq
	})
	out := make([]Document, len(matched))
	for i, d := range matched {
		out[i] = copyDoc(d.Document)
	}
	return out, nil
}

// copyDoc copies the top-level field map to avoid external mutation.
func copyDoc(d Document) Document {
	d.Data = merge(nil, d.Data)
	return d
}
