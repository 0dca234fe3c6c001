package app_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"cohort-portal-service/internal/docstore"
	"cohort-portal-service/internal/infra/memory"
)

// stepClock returns a clock that advances one minute per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

// barrierStore holds the first `parties` queries on one collection until all
// of them have read, so every caller acts on the same snapshot.
type barrierStore struct {
	docstore.Store
	collection string
	parties    int

	mu      sync.Mutex
	arrived int
	release chan struct{}
}

func newBarrierStore(collection string, parties int) *barrierStore {
	return &barrierStore{
		Store:      memory.NewStore(),
		collection: collection,
		parties:    parties,
		release:    make(chan struct{}),
	}
}

func (b *barrierStore) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Doc, error) {
	docs, err := b.Store.Query(ctx, collection, q)
	if collection == b.collection {
		if werr := b.wait(ctx); werr != nil {
			return nil, werr
		}
	}
	return docs, err
}

// wait blocks the first `parties` callers until all of them have arrived.
func (b *barrierStore) wait(ctx context.Context) error {
	b.mu.Lock()
	b.arrived++
	if b.arrived == b.parties {
		close(b.release)
	}
	b.mu.Unlock()
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// firstSightStore holds the first `parties` Gets on users until all of them
// have read, so concurrent first sign-ins all see the profile as absent.
// It counts Puts on users.
type firstSightStore struct {
	*barrierStore
	puts atomic.Int32
}

func newFirstSightStore(parties int) *firstSightStore {
	return &firstSightStore{barrierStore: newBarrierStore(docstore.Users, parties)}
}

func (s *firstSightStore) Get(ctx context.Context, collection, id string) (docstore.Doc, error) {
	doc, err := s.barrierStore.Store.Get(ctx, collection, id)
	if collection == s.collection {
		if werr := s.wait(ctx); werr != nil {
			return nil, werr
		}
	}
	return doc, err
}

func (s *firstSightStore) Put(ctx context.Context, collection, id string, doc docstore.Doc) error {
	if collection == s.collection {
		s.puts.Add(1)
	}
	return s.barrierStore.Store.Put(ctx, collection, id, doc)
}

var errBackend = errors.New("backend unavailable")

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) Create(context.Context, string, docstore.Doc) (string, error) {
	return "", errBackend
}
func (brokenStore) Put(context.Context, string, string, docstore.Doc) error { return errBackend }
func (brokenStore) Get(context.Context, string, string) (docstore.Doc, error) {
	return nil, errBackend
}
func (brokenStore) Query(context.Context, string, docstore.Query) ([]docstore.Doc, error) {
	return nil, errBackend
}
func (brokenStore) Update(context.Context, string, string, docstore.Doc) error { return errBackend }
func (brokenStore) Delete(context.Context, string, string) error              { return errBackend }
