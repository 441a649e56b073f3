package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) Append(ctx context.Context, collection string, data map[string]any) (string, error) {
	id, err := s.primary.Append(ctx, collection, data)
	if err != nil {
		return "", err
	}
	s.rdb.Del(ctx, listKey(collection))
	return id, nil
}

func (s *CachedStore) Upsert(ctx context.Context, path string, data map[string]any, merge bool) error {
	if err := s.primary.Upsert(ctx, path, data, merge); err != nil {
		return err
	}
	// Invalidate cache; next read will re-populate.
	keys := []string{docKey(path)}
	if collection, _, err := split(path); err == nil {
		keys = append(keys, listKey(collection))
	}
	s.rdb.Del(ctx, keys...)
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) Get(ctx context.Context, path string) (Document, error) {
	data, err := s.rdb.Get(ctx, docKey(path)).Bytes()
	if err == nil {
		var d Document
		if json.Unmarshal(data, &d) == nil {
			return d, nil
		}
	}

	// Cache miss: read from primary.
	d, err := s.primary.Get(ctx, path)
	if err != nil {
		return Document{}, err
	}
	if data, err := json.Marshal(d); err == nil {
		s.rdb.Set(ctx, docKey(path), data, s.ttl)
	}
	return d, nil
}

func (s *CachedStore) List(ctx context.Context, collection string) ([]Document, error) {
	data, err := s.rdb.Get(ctx, listKey(collection)).Bytes()
	if err == nil {
		var docs []Document
		if json.Unmarshal(data, &docs) == nil {
			return docs, nil
		}
	}

	docs, err := s.primary.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(docs); err == nil {
		s.rdb.Set(ctx, listKey(collection), data, s.ttl)
	}
	return docs, nil
}

// --- Cache helpers ---

func docKey(path string) string        { return fmt.Sprintf("doc:%s", strings.Trim(path, "/")) }
func listKey(collection string) string { return fmt.Sprintf("list:%s", strings.Trim(collection, "/")) }
