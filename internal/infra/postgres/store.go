package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cohort-portal-service/internal/docstore"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store keeps every collection in one JSONB table (see migrations).
// Top-level merges use the jsonb || operator, so Update is atomic per document.
type Store struct {
	pool *pgxpool.Pool
}

var _ docstore.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Create(ctx context.Context, collection string, doc docstore.Doc) (string, error) {
	raw, err := docstore.Encode(withoutID(doc))
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
		collection, id, string(raw))
	if err != nil {
		return "", fmt.Errorf("create %s: %w", collection, err)
	}
	return id, nil
}

func (s *Store) Put(ctx context.Context, collection, id string, doc docstore.Doc) error {
	raw, err := docstore.Encode(withoutID(doc))
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`,
		collection, id, string(raw))
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Doc, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return decodeWithID(id, raw)
}

func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Doc, error) {
	sql, args, err := buildQuery(collection, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []docstore.Doc{}
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		doc, err := decodeWithID(id, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *Store) Update(ctx context.Context, collection, id string, patch docstore.Doc) error {
	raw, err := docstore.Encode(withoutID(patch))
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET data = data || $3::jsonb WHERE collection = $1 AND id = $2`,
		collection, id, string(raw))
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// buildQuery translates a docstore.Query into SQL over the JSONB column.
// Field names are bound as parameters; only the operators are spliced in.
func buildQuery(collection string, q docstore.Query) (string, []any, error) {
	var sb strings.Builder
	args := []any{collection}
	sb.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)

	for _, f := range q.Filters {
		var op string
		switch f.Op {
		case docstore.Eq:
			op = "="
		case docstore.Gte:
			op = ">="
		default:
			return "", nil, fmt.Errorf("unsupported filter op %q", f.Op)
		}

		args = append(args, f.Field)
		fieldArg := len(args)
		switch v := docstore.NormalizeValue(f.Value).(type) {
		case string:
			args = append(args, v)
			fmt.Fprintf(&sb, ` AND data->>$%d %s $%d`, fieldArg, op, len(args))
		case json.Number:
			args = append(args, v.String())
			fmt.Fprintf(&sb, ` AND (data->>$%d)::numeric %s $%d::numeric`, fieldArg, op, len(args))
		case bool:
			args = append(args, v)
			fmt.Fprintf(&sb, ` AND (data->>$%d)::boolean %s $%d`, fieldArg, op, len(args))
		default:
			return "", nil, fmt.Errorf("unsupported filter value %T for %s", v, f.Field)
		}
	}

	if q.Order != nil {
		args = append(args, q.Order.Field)
		dir := "ASC"
		if q.Order.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, ` ORDER BY data->>$%d %s, seq %s`, len(args), dir, dir)
	} else {
		sb.WriteString(` ORDER BY seq ASC`)
	}
	return sb.String(), args, nil
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
