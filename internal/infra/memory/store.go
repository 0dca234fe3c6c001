package memory

import (
	"context"
	"sync"

	"cohort-portal-service/internal/docstore"
	"github.com/google/uuid"
)

// Store is an in-memory implementation of docstore.Store.
// Documents are kept serialized so callers never share maps with the store.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	order []string
	docs  map[string][]byte
}

var _ docstore.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		collections: make(map[string]*collection),
	}
}

func (s *Store) Create(_ context.Context, name string, doc docstore.Doc) (string, error) {
	raw, err := docstore.Encode(withoutID(doc))
	if err != nil {
		return "", err
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collectionLocked(name)
	c.order = append(c.order, id)
	c.docs[id] = raw
	return id, nil
}

func (s *Store) Put(_ context.Context, name, id string, doc docstore.Doc) error {
	raw, err := docstore.Encode(withoutID(doc))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collectionLocked(name)
	if _, ok := c.docs[id]; !ok {
		c.order = append(c.order, id)
	}
	c.docs[id] = raw
	return nil
}

func (s *Store) Get(_ context.Context, name, id string) (docstore.Doc, error) {
	s.mu.RLock()
	c, ok := s.collections[name]
	var raw []byte
	if ok {
		raw, ok = c.docs[id]
	}
	s.mu.RUnlock()
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return decodeWithID(id, raw)
}

func (s *Store) Query(_ context.Context, name string, q docstore.Query) ([]docstore.Doc, error) {
	s.mu.RLock()
	c, ok := s.collections[name]
	if !ok {
		s.mu.RUnlock()
		return []docstore.Doc{}, nil
	}
	ids := append([]string(nil), c.order...)
	raws := make([][]byte, len(ids))
	for i, id := range ids {
		raws[i] = c.docs[id]
	}
	s.mu.RUnlock()

	docs := make([]docstore.Doc, 0, len(ids))
	for i, id := range ids {
		doc, err := decodeWithID(id, raws[i])
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docstore.Apply(docs, q), nil
}

func (s *Store) Update(_ context.Context, name, id string, patch docstore.Doc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return docstore.ErrNotFound
	}
	raw, ok := c.docs[id]
	if !ok {
		return docstore.ErrNotFound
	}
	current, err := docstore.Decode(raw)
	if err != nil {
		return err
	}
	for k, v := range withoutID(patch) {
		current[k] = v
	}
	merged, err := docstore.Encode(current)
	if err != nil {
		return err
	}
	c.docs[id] = merged
	return nil
}

func (s *Store) Delete(_ context.Context, name, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return nil
	}
	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) collectionLocked(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[string][]byte)}
		s.collections[name] = c
	}
	return c
}

func withoutID(doc docstore.Doc) docstore.Doc {
	if _, ok := doc[docstore.IDField]; !ok {
		return doc
	}
	out := make(docstore.Doc, len(doc))
	for k, v := range doc {
		if k != docstore.IDField {
			out[k] = v
		}
	}
	return out
}

func decodeWithID(id string, raw []byte) (docstore.Doc, error) {
	doc, err := docstore.Decode(raw)
	if err != nil {
		return nil, err
	}
	doc[docstore.IDField] = id
	return doc, nil
}
