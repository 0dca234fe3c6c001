// Package docstore is the document-store boundary: named collections of
// schemaless documents with create/get/query/update/delete.
//
// Backends live under internal/infra. All of them normalize values the same
// way (see Normalize) so a document reads back identically regardless of
// where it was stored.
package docstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and Update when the document is absent.
var ErrNotFound = errors.New("document not found")

// IDField is the key under which every returned document carries its id.
const IDField = "id"

// Collections used by the portal.
const (
	Users       = "users"
	Groups      = "groups"
	Proposals   = "projectProposals"
	Lessons     = "lessons"
	Quizzes     = "quizzes"
	QuizResults = "quizResults"
)

// Doc is a single document. Values are limited to what survives a JSON round trip.
type Doc map[string]any

// Op is a filter comparison.
type Op string

const (
	Eq  Op = "=="
	Gte Op = ">="
)

// Filter restricts a query to documents whose Field compares to Value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Order sorts query results by Field.
type Order struct {
	Field string
	Desc  bool
}

// Query is a conjunction of filters with optional ordering.
// Without an order, documents come back in insertion order.
type Query struct {
	Filters []Filter
	Order   *Order
}

// Where builds an equality filter.
func Where(field string, value any) Filter {
	return Filter{Field: field, Op: Eq, Value: value}
}

// AtLeast builds a >= filter.
func AtLeast(field string, value any) Filter {
	return Filter{Field: field, Op: Gte, Value: value}
}

// Store is implemented by every backend.
type Store interface {
	// Create inserts doc under a generated id and returns it.
	Create(ctx context.Context, collection string, doc Doc) (string, error)
	// Put writes doc under id, replacing any existing document.
	Put(ctx context.Context, collection, id string, doc Doc) error
	Get(ctx context.Context, collection, id string) (Doc, error)
	Query(ctx context.Context, collection string, q Query) ([]Doc, error)
	// Update merges the top-level fields of patch into the stored document.
	Update(ctx context.Context, collection, id string, patch Doc) error
	// Delete removes the document; deleting an absent document is not an error.
	Delete(ctx context.Context, collection, id string) error
}
