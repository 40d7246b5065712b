package store

import (
	"context"
	"slices"
	"sync"

	"github.com/growup/backend/internal/models"
)

type memoryCollection struct {
	order []string
	docs  map[string]Document
	keys  map[string]string // unique key -> id
}

// memoryBackend implements Backend in process memory
type memoryBackend struct {
	mu          sync.RWMutex
	collections map[models.Collection]*memoryCollection
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *memoryBackend {
	return &memoryBackend{
		collections: make(map[models.Collection]*memoryCollection),
	}
}

func (b *memoryBackend) collection(name models.Collection) *memoryCollection {
	c, ok := b.collections[name]
	if !ok {
		c = &memoryCollection{
			docs: make(map[string]Document),
			keys: make(map[string]string),
		}
		b.collections[name] = c
	}
	return c
}

// Insert adds doc at the end of the collection
func (b *memoryBackend) Insert(ctx context.Context, name models.Collection, doc Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.collection(name)
	if _, exists := c.docs[doc.ID]; exists {
		return models.ErrDuplicateKey
	}
	if doc.Key != "" {
		if _, taken := c.keys[doc.Key]; taken {
			return models.ErrDuplicateKey
		}
		c.keys[doc.Key] = doc.ID
	}
	c.docs[doc.ID] = cloneDocument(doc)
	c.order = append(c.order, doc.ID)
	return nil
}

// Update replaces the document with id by the result of mutate
func (b *memoryBackend) Update(ctx context.Context, name models.Collection, id string, mutate func(Document) (Document, error)) (Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.collection(name)
	current, ok := c.docs[id]
	if !ok {
		return Document{}, models.ErrNotFound
	}

	next, err := mutate(cloneDocument(current))
	if err != nil {
		return Document{}, err
	}

	if next.Key != current.Key {
		if next.Key != "" {
			if owner, taken := c.keys[next.Key]; taken && owner != id {
				return Document{}, models.ErrDuplicateKey
			}
			c.keys[next.Key] = id
		}
		if current.Key != "" {
			delete(c.keys, current.Key)
		}
	}
	c.docs[id] = cloneDocument(next)
	return cloneDocument(next), nil
}

// Delete removes the document with id
func (b *memoryBackend) Delete(ctx context.Context, name models.Collection, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.collection(name)
	doc, ok := c.docs[id]
	if !ok {
		return false, nil
	}
	delete(c.docs, id)
	if doc.Key != "" {
		delete(c.keys, doc.Key)
	}
	c.order = slices.DeleteFunc(c.order, func(existing string) bool { return existing == id })
	return true, nil
}

// List returns every document in insertion order
func (b *memoryBackend) List(ctx context.Context, name models.Collection) ([]Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, ok := b.collections[name]
	if !ok {
		return []Document{}, nil
	}
	docs := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		docs = append(docs, cloneDocument(c.docs[id]))
	}
	return docs, nil
}

// Get returns the document with id
func (b *memoryBackend) Get(ctx context.Context, name models.Collection, id string) (Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, ok := b.collections[name]
	if !ok {
		return Document{}, models.ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return Document{}, models.ErrNotFound
	}
	return cloneDocument(doc), nil
}

// GetByKey returns the document with the unique key
func (b *memoryBackend) GetByKey(ctx context.Context, name models.Collection, key string) (Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, ok := b.collections[name]
	if !ok {
		return Document{}, models.ErrNotFound
	}
	id, ok := c.keys[key]
	if !ok {
		return Document{}, models.ErrNotFound
	}
	return cloneDocument(c.docs[id]), nil
}

func cloneDocument(doc Document) Document {
	doc.Body = slices.Clone(doc.Body)
	return doc
}
