// Package store defines the bulk CRUD contract clover reconciles against,
// with a Postgres-backed implementation and an in-memory implementation.
package store

import (
	"context"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Filter is the minimal predicate shape the reconcilers need: equality,
// set membership, oldest-first ordering and a row limit. Anything richer
// belongs in a real query layer, not here.
type Filter struct {
	// Equals matches records where the column equals the literal value.
	Equals map[string]any
	// In matches records where the column equals one of the given values.
	In map[string][]any
	// OldestFirst orders results by creation time ascending, used to pick a
	// canonical record when duplicates already exist in storage.
	OldestFirst bool
	// Limit caps the number of rows returned. Zero means no limit.
	Limit int
}

// Failure reports a single record that could not be upserted while the rest
// of the batch proceeded.
type Failure struct {
	Record models.Record
	Err    error
}

// Store is a transactional bulk CRUD service over typed records. A query
// returning zero rows is not an error. Upsert matches by ID when present,
// creates otherwise, and writes generated IDs back onto the input records.
type Store interface {
	Query(ctx context.Context, recordType string, filter Filter) ([]models.Record, error)
	Upsert(ctx context.Context, records []models.Record) ([]Failure, error)
	Insert(ctx context.Context, records []models.Record) error
	Delete(ctx context.Context, records []models.Record) error
}
