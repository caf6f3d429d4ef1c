package docstore

import (
	"context"
	"sync"

	"github.com/samber/oops"
)

// MemoryStore est un store en mémoire, utilisé pour les tests et le développement local.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

func (s *MemoryStore) Collection(name string) Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		c = &memoryCollection{name: name, unique: make(map[string]struct{})}
		s.collections[name] = c
	}
	return c
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close(context.Context) error { return nil }

type memoryCollection struct {
	mu     sync.RWMutex
	name   string
	docs   []Document
	unique map[string]struct{}
}

func (c *memoryCollection) FindOne(_ context.Context, filter Filter) (Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, doc := range c.docs {
		if Matches(doc, filter) {
			return clone(doc), nil
		}
	}
	return nil, ErrNoDocuments
}

func (c *memoryCollection) FindMany(_ context.Context, filter Filter, limit int64) ([]Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Document, 0)
	for _, doc := range c.docs {
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
		if Matches(doc, filter) {
			out = append(out, clone(doc))
		}
	}
	return out, nil
}

func (c *memoryCollection) InsertOne(_ context.Context, doc Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if field, ok := c.conflict(doc, -1); ok {
		return oops.Code("DOCSTORE_DUPLICATE_KEY").
			With("collection", c.name, "field", field).
			Wrap(ErrDuplicateKey)
	}
	c.docs = append(c.docs, clone(doc))
	return nil
}

func (c *memoryCollection) UpdateOne(_ context.Context, filter Filter, set Document) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, doc := range c.docs {
		if !Matches(doc, filter) {
			continue
		}
		merged := clone(doc)
		for k, v := range set {
			merged[k] = cloneValue(v)
		}
		if field, ok := c.conflict(merged, i); ok {
			return 0, oops.Code("DOCSTORE_DUPLICATE_KEY").
				With("collection", c.name, "field", field).
				Wrap(ErrDuplicateKey)
		}
		c.docs[i] = merged
		return 1, nil
	}
	return 0, nil
}

func (c *memoryCollection) DeleteOne(_ context.Context, filter Filter) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, doc := range c.docs {
		if Matches(doc, filter) {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (c *memoryCollection) Count(_ context.Context, filter Filter) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int64
	for _, doc := range c.docs {
		if Matches(doc, filter) {
			n++
		}
	}
	return n, nil
}

func (c *memoryCollection) EnsureUniqueIndex(_ context.Context, field string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.unique[field] = struct{}{}
	return nil
}

// conflict cherche un autre document (index != skip) partageant une valeur indexée unique.
func (c *memoryCollection) conflict(doc Document, skip int) (string, bool) {
	for field := range c.unique {
		v, ok := doc[field]
		if !ok {
			continue
		}
		for i, other := range c.docs {
			if i == skip {
				continue
			}
			if ov, ok := other[field]; ok && valuesEqual(ov, v) {
				return field, true
			}
		}
	}
	return "", false
}
