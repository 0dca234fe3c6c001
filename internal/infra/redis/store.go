package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cohort-portal-service/internal/docstore"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const maxUpdateAttempts = 5

// Store keeps each collection in a single Redis hash:
//
//	HSET docs:{collection} {id} {json}
//
// Queries load the whole hash and filter in process, which matches the
// full-scan access pattern of the portal (no pagination).
type Store struct {
	client *redis.Client
	prefix string
}

var _ docstore.Store = (*Store)(nil)

func NewStore(client *redis.Client) *Store {
	return &Store{client: client, prefix: "docs:"}
}

func (s *Store) Create(ctx context.Context, collection string, doc docstore.Doc) (string, error) {
	raw, err := docstore.Encode(withoutID(doc))
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	created, err := s.client.HSetNX(ctx, s.key(collection), id, raw).Result()
	if err != nil {
		return "", fmt.Errorf("create %s: %w", collection, err)
	}
	if !created {
		return "", fmt.Errorf("create %s: id collision on %s", collection, id)
	}
	return id, nil
}

func (s *Store) Put(ctx context.Context, collection, id string, doc docstore.Doc) error {
	raw, err := docstore.Encode(withoutID(doc))
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.key(collection), id, raw).Err(); err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Doc, error) {
	raw, err := s.client.HGet(ctx, s.key(collection), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return decodeWithID(id, raw)
}

func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Doc, error) {
	all, err := s.client.HGetAll(ctx, s.key(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	docs := make([]docstore.Doc, 0, len(all))
	for id, raw := range all {
		doc, err := decodeWithID(id, []byte(raw))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	// hashes are unordered; approximate insertion order by creation time
	sort.SliceStable(docs, func(i, j int) bool {
		ci, cj := docstore.String(docs[i]["createdAt"]), docstore.String(docs[j]["createdAt"])
		if ci != cj {
			return ci < cj
		}
		return docstore.String(docs[i][docstore.IDField]) < docstore.String(docs[j][docstore.IDField])
	})
	return docstore.Apply(docs, q), nil
}

// Update merges patch under WATCH so concurrent updates to the same document
// retry instead of overwriting each other's fields.
func (s *Store) Update(ctx context.Context, collection, id string, patch docstore.Doc) error {
	key := s.key(collection)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, id).Bytes()
		if errors.Is(err, redis.Nil) {
			return docstore.ErrNotFound
		}
		if err != nil {
			return err
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
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, id, merged)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("update %s/%s: %w", collection, id, err)
		}
		return err
	}
	return fmt.Errorf("update %s/%s: too much contention", collection, id)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := s.client.HDel(ctx, s.key(collection), id).Err(); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) key(collection string) string {
	return s.prefix + collection
}

func withoutID(doc docstore.Doc) docstore.Doc {
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
