// Package store talks to the content store that holds every accepted
// record. The store has no upsert primitive, so callers must check for
// duplicates before calling Create.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Movie-Song/sns-contents-tracker/internal/config"
	"github.com/Movie-Song/sns-contents-tracker/internal/content"
)

var (
	ErrQuery = errors.New("store query failed")
	ErrWrite = errors.New("store write failed")
)

// Filter narrows a query. Zero fields are ignored; an empty Filter selects
// every stored record.
type Filter struct {
	// URL matches the stored URL exactly.
	URL string
	// Date matches records published on this YYYY-MM-DD day.
	Date string
	// Since matches records published on or after this YYYY-MM-DD day.
	Since string
}

type Query struct {
	Filter       Filter
	SortDateDesc bool
}

// Store is the query/create surface of the content store.
type Store interface {
	Query(ctx context.Context, q Query) ([]content.StoredRecord, error)
	Create(ctx context.Context, rec content.Record) (content.StoredRecord, error)
}

// Open returns the backend selected in cfg. The returned close function
// releases any local resources.
func Open(cfg config.StoreConfig, httpClient *http.Client) (Store, func() error, error) {
	switch cfg.Backend {
	case config.BackendNotion:
		return NewNotion(cfg.Notion, httpClient), func() error { return nil }, nil
	case config.BackendSQLite:
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func queryErr(err error) error {
	return fmt.Errorf("%w: %w", ErrQuery, err)
}

func writeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrWrite, err)
}
