// Package bulkload provides insert-then-delete round trips for leads and
// cases. They demonstrate bulk store semantics and the client-side row
// ceiling; no reconciliation logic applies here.
package bulkload

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/store"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// RowLimitError reports a requested batch size over the configured per-call
// row ceiling. It is raised before any store call is made.
type RowLimitError struct {
	Requested int
	Limit     int
}

func (e *RowLimitError) Error() string {
	return fmt.Sprintf("requested %d rows exceeds the per-call row ceiling of %d", e.Requested, e.Limit)
}

// Loader runs bulk insert/delete round trips against the record store.
// maxRows is injected configuration, not an ambient global, so it is
// testable and overridable per instance.
type Loader struct {
	store   store.Store
	logger  ectologger.Logger
	maxRows int
}

// NewLoader creates a loader with the given per-call row ceiling.
func NewLoader(st store.Store, logger ectologger.Logger, maxRows int) *Loader {
	return &Loader{
		store:   st,
		logger:  logger,
		maxRows: maxRows,
	}
}

func (l *Loader) checkCeiling(requested int) error {
	if requested > l.maxRows {
		return &RowLimitError{Requested: requested, Limit: l.maxRows}
	}
	return nil
}

// InsertAndDeleteLeads builds one lead per last name, inserts the batch, then
// deletes it. The row ceiling is checked before any store call.
func (l *Loader) InsertAndDeleteLeads(ctx context.Context, lastNames []string, company string) error {
	ctx, span := tracing.StartSpan(ctx, "bulkload.Loader.InsertAndDeleteLeads")
	defer span.End()

	if err := l.checkCeiling(len(lastNames)); err != nil {
		return err
	}

	records := make([]models.Record, 0, len(lastNames))
	for _, lastName := range lastNames {
		records = append(records, &models.Lead{
			LastName: lastName,
			Company:  company,
		})
	}

	if err := l.store.Insert(ctx, records); err != nil {
		return fmt.Errorf("failed to insert leads: %w", err)
	}
	if err := l.store.Delete(ctx, records); err != nil {
		return fmt.Errorf("failed to delete leads: %w", err)
	}

	l.logger.WithContext(ctx).WithFields(map[string]any{"count": len(records)}).Info("Completed lead round trip")
	return nil
}

// InsertAndDeleteCases builds one case per subject, inserts the batch, then
// deletes it. The row ceiling is checked before any store call.
func (l *Loader) InsertAndDeleteCases(ctx context.Context, subjects []string) error {
	ctx, span := tracing.StartSpan(ctx, "bulkload.Loader.InsertAndDeleteCases")
	defer span.End()

	if err := l.checkCeiling(len(subjects)); err != nil {
		return err
	}

	records := make([]models.Record, 0, len(subjects))
	for _, subject := range subjects {
		records = append(records, &models.Case{
			Subject: subject,
			Status:  "New",
		})
	}

	if err := l.store.Insert(ctx, records); err != nil {
		return fmt.Errorf("failed to insert cases: %w", err)
	}
	if err := l.store.Delete(ctx, records); err != nil {
		return fmt.Errorf("failed to delete cases: %w", err)
	}

	l.logger.WithContext(ctx).WithFields(map[string]any{"count": len(records)}).Info("Completed case round trip")
	return nil
}
