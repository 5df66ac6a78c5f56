// Package search indexes posts and published writings and answers
// free-text queries, through Elasticsearch when configured and through SQL
// substring matching otherwise.
package search

import (
	"context"
	"errors"
)

// ErrInvalidType is returned for a Query.Type other than posts or writings.
var ErrInvalidType = errors.New("search type must be posts or writings")

// Indexer keeps the index in step with the database.
type Indexer interface {
	Index(ctx context.Context, doc Document) error
	Delete(ctx context.Context, docType, id string) error
}

// Searcher answers queries.
type Searcher interface {
	Search(ctx context.Context, q Query) (*Result, error)
}

// Normalize validates the type and clamps paging.
func (q Query) Normalize() (Query, error) {
	switch q.Type {
	case "", TypePosts, TypeWritings:
	default:
		return q, ErrInvalidType
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q, nil
}

func (q Query) types() []string {
	if q.Type == "" {
		return []string{TypePosts, TypeWritings}
	}
	return []string{q.Type}
}
