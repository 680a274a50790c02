package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/google/uuid"
)

const (
	accountsTable      = "accounts"
	contactsTable      = "contacts"
	opportunitiesTable = "opportunities"
	leadsTable         = "leads"
	casesTable         = "cases"
)

var (
	accountStruct     = database.NewStruct(new(models.Account))
	contactStruct     = database.NewStruct(new(models.Contact))
	opportunityStruct = database.NewStruct(new(models.Opportunity))
	leadStruct        = database.NewStruct(new(models.Lead))
	caseStruct        = database.NewStruct(new(models.Case))
)

func tableFor(recordType string) (string, error) {
	switch recordType {
	case models.RecordTypeAccount:
		return accountsTable, nil
	case models.RecordTypeContact:
		return contactsTable, nil
	case models.RecordTypeOpportunity:
		return opportunitiesTable, nil
	case models.RecordTypeLead:
		return leadsTable, nil
	case models.RecordTypeCase:
		return casesTable, nil
	default:
		return "", fmt.Errorf("unsupported record type %q", recordType)
	}
}

// PostgresStore implements Store on top of the clover Postgres schema.
type PostgresStore struct {
	db     database.DB
	logger ectologger.Logger
}

// NewPostgresStore creates a Postgres-backed record store.
func NewPostgresStore(db database.DB, logger ectologger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

func applyFilter(sb *database.SelectBuilder, filter Filter) {
	conds := make([]string, 0, len(filter.Equals)+len(filter.In))
	for field, value := range filter.Equals {
		conds = append(conds, sb.Equal(field, value))
	}
	for field, values := range filter.In {
		conds = append(conds, sb.In(field, values...))
	}
	if len(conds) > 0 {
		sb.Where(conds...)
	}
	if filter.OldestFirst {
		sb.OrderBy("created_at ASC")
	}
	if filter.Limit > 0 {
		sb.Limit(filter.Limit)
	}
}

// Query returns all records of the given type matching the filter. Zero rows
// is an empty slice, never an error.
func (s *PostgresStore) Query(ctx context.Context, recordType string, filter Filter) ([]models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "store.PostgresStore.Query")
	defer span.End()

	table, err := tableFor(recordType)
	if err != nil {
		return nil, err
	}

	switch recordType {
	case models.RecordTypeAccount:
		sb := accountStruct.SelectFrom(table)
		applyFilter(sb, filter)
		query, args := sb.Build()
		var rows []models.Account
		if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("record_type", recordType).Error("failed to query records")
			return nil, fmt.Errorf("failed to query accounts: %w", err)
		}
		out := make([]models.Record, 0, len(rows))
		for i := range rows {
			out = append(out, &rows[i])
		}
		return out, nil
	case models.RecordTypeContact:
		sb := contactStruct.SelectFrom(table)
		applyFilter(sb, filter)
		query, args := sb.Build()
		var rows []models.Contact
		if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("record_type", recordType).Error("failed to query records")
			return nil, fmt.Errorf("failed to query contacts: %w", err)
		}
		out := make([]models.Record, 0, len(rows))
		for i := range rows {
			out = append(out, &rows[i])
		}
		return out, nil
	case models.RecordTypeOpportunity:
		sb := opportunityStruct.SelectFrom(table)
		applyFilter(sb, filter)
		query, args := sb.Build()
		var rows []models.Opportunity
		if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("record_type", recordType).Error("failed to query records")
			return nil, fmt.Errorf("failed to query opportunities: %w", err)
		}
		out := make([]models.Record, 0, len(rows))
		for i := range rows {
			out = append(out, &rows[i])
		}
		return out, nil
	case models.RecordTypeLead:
		sb := leadStruct.SelectFrom(table)
		applyFilter(sb, filter)
		query, args := sb.Build()
		var rows []models.Lead
		if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("record_type", recordType).Error("failed to query records")
			return nil, fmt.Errorf("failed to query leads: %w", err)
		}
		out := make([]models.Record, 0, len(rows))
		for i := range rows {
			out = append(out, &rows[i])
		}
		return out, nil
	default:
		sb := caseStruct.SelectFrom(table)
		applyFilter(sb, filter)
		query, args := sb.Build()
		var rows []models.Case
		if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("record_type", recordType).Error("failed to query records")
			return nil, fmt.Errorf("failed to query cases: %w", err)
		}
		out := make([]models.Record, 0, len(rows))
		for i := range rows {
			out = append(out, &rows[i])
		}
		return out, nil
	}
}

// Upsert writes each record, matching existing rows by ID and creating the
// rest. Records that fail are reported in the returned slice while the rest
// of the batch proceeds.
func (s *PostgresStore) Upsert(ctx context.Context, records []models.Record) ([]Failure, error) {
	ctx, span := tracing.StartSpan(ctx, "store.PostgresStore.Upsert")
	defer span.End()

	now := time.Now().UTC()

	var failures []Failure
	for _, record := range records {
		if record.RecordID() == "" {
			record.SetRecordID(uuid.New().String())
		}
		if err := s.upsertOne(ctx, record, now); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"record_type": record.RecordType(),
				"record_id":   record.RecordID(),
			}).Error("failed to upsert record")
			failures = append(failures, Failure{Record: record, Err: err})
		}
	}

	return failures, nil
}

func (s *PostgresStore) upsertOne(ctx context.Context, record models.Record, now time.Time) error {
	var ib *database.InsertBuilder

	switch rec := record.(type) {
	case *models.Account:
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
		ib = accountStruct.InsertInto(accountsTable, rec)
		ub := ib.OnConflict("id")
		ub.Set(
			ub.Assign("name", database.Excluded("name")),
			ub.Assign("industry", database.Excluded("industry")),
			ub.Assign("description", database.Excluded("description")),
			ub.Assign("website", database.Excluded("website")),
			ub.Assign("updated_at", database.Excluded("updated_at")),
		)
	case *models.Contact:
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
		ib = contactStruct.InsertInto(contactsTable, rec)
		ub := ib.OnConflict("id")
		ub.Set(
			ub.Assign("last_name", database.Excluded("last_name")),
			ub.Assign("account_id", database.Excluded("account_id")),
			ub.Assign("phone", database.Excluded("phone")),
			ub.Assign("updated_at", database.Excluded("updated_at")),
		)
	case *models.Opportunity:
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
		ib = opportunityStruct.InsertInto(opportunitiesTable, rec)
		ub := ib.OnConflict("id")
		ub.Set(
			ub.Assign("name", database.Excluded("name")),
			ub.Assign("stage", database.Excluded("stage")),
			ub.Assign("close_date", database.Excluded("close_date")),
			ub.Assign("amount", database.Excluded("amount")),
			ub.Assign("account_id", database.Excluded("account_id")),
			ub.Assign("updated_at", database.Excluded("updated_at")),
		)
	case *models.Lead:
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
		ib = leadStruct.InsertInto(leadsTable, rec)
		ub := ib.OnConflict("id")
		ub.Set(
			ub.Assign("last_name", database.Excluded("last_name")),
			ub.Assign("company", database.Excluded("company")),
			ub.Assign("updated_at", database.Excluded("updated_at")),
		)
	case *models.Case:
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
		ib = caseStruct.InsertInto(casesTable, rec)
		ub := ib.OnConflict("id")
		ub.Set(
			ub.Assign("subject", database.Excluded("subject")),
			ub.Assign("status", database.Excluded("status")),
			ub.Assign("updated_at", database.Excluded("updated_at")),
		)
	default:
		return fmt.Errorf("unsupported record type %q", record.RecordType())
	}

	query, args := ib.Build()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert %s: %w", record.RecordType(), err)
	}
	return nil
}

// Insert writes the batch as new rows, one statement per record type, all in
// one transaction so a mixed batch lands or fails as a unit.
func (s *PostgresStore) Insert(ctx context.Context, records []models.Record) error {
	ctx, span := tracing.StartSpan(ctx, "store.PostgresStore.Insert")
	defer span.End()

	now := time.Now().UTC()
	for _, record := range records {
		if record.RecordID() == "" {
			record.SetRecordID(uuid.New().String())
		}
	}

	ctx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, recordType := range groupOrder(records) {
		group := ofType(records, recordType)

		table, err := tableFor(recordType)
		if err != nil {
			return err
		}

		var ib *database.InsertBuilder
		switch recordType {
		case models.RecordTypeAccount:
			ib = accountStruct.InsertInto(table, stampAll(group, now)...)
		case models.RecordTypeContact:
			ib = contactStruct.InsertInto(table, stampAll(group, now)...)
		case models.RecordTypeOpportunity:
			ib = opportunityStruct.InsertInto(table, stampAll(group, now)...)
		case models.RecordTypeLead:
			ib = leadStruct.InsertInto(table, stampAll(group, now)...)
		default:
			ib = caseStruct.InsertInto(table, stampAll(group, now)...)
		}

		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"record_type": recordType,
				"count":       len(group),
			}).Error("failed to insert records")
			return fmt.Errorf("failed to insert %s batch: %w", recordType, err)
		}
	}

	return tx.Commit(ctx)
}

// Delete removes the batch by ID, one statement per record type, in one
// transaction.
func (s *PostgresStore) Delete(ctx context.Context, records []models.Record) error {
	ctx, span := tracing.StartSpan(ctx, "store.PostgresStore.Delete")
	defer span.End()

	ctx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, recordType := range groupOrder(records) {
		group := ofType(records, recordType)

		table, err := tableFor(recordType)
		if err != nil {
			return err
		}

		ids := make([]any, 0, len(group))
		for _, record := range group {
			ids = append(ids, record.RecordID())
		}

		db := database.NewDeleteBuilder()
		db.DeleteFrom(table)
		db.Where(db.In("id", ids...))

		query, args := db.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"record_type": recordType,
				"count":       len(group),
			}).Error("failed to delete records")
			return fmt.Errorf("failed to delete %s batch: %w", recordType, err)
		}
	}

	return tx.Commit(ctx)
}

// groupOrder returns the distinct record types in first-seen order.
func groupOrder(records []models.Record) []string {
	var order []string
	seen := make(map[string]bool)
	for _, record := range records {
		if !seen[record.RecordType()] {
			seen[record.RecordType()] = true
			order = append(order, record.RecordType())
		}
	}
	return order
}

func ofType(records []models.Record, recordType string) []models.Record {
	var group []models.Record
	for _, record := range records {
		if record.RecordType() == recordType {
			group = append(group, record)
		}
	}
	return group
}

func stampAll(records []models.Record, now time.Time) []any {
	values := make([]any, 0, len(records))
	for _, record := range records {
		switch rec := record.(type) {
		case *models.Account:
			rec.CreatedAt, rec.UpdatedAt = now, now
		case *models.Contact:
			rec.CreatedAt, rec.UpdatedAt = now, now
		case *models.Opportunity:
			rec.CreatedAt, rec.UpdatedAt = now, now
		case *models.Lead:
			rec.CreatedAt, rec.UpdatedAt = now, now
		case *models.Case:
			rec.CreatedAt, rec.UpdatedAt = now, now
		}
		values = append(values, record)
	}
	return values
}
