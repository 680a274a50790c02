package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests and local development.
// Records are held in insertion order per type, which doubles as the
// oldest-first ordering.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]models.Record

	// UpsertFailureHook, when set, is consulted per record during Upsert;
	// a non-nil error marks that record as failed without persisting it.
	UpsertFailureHook func(models.Record) error

	QueryCalls  int
	UpsertCalls int
	InsertCalls int
	DeleteCalls int
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]models.Record),
	}
}

// Query returns copies of all records of the given type matching the filter.
func (s *MemoryStore) Query(_ context.Context, recordType string, filter Filter) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.QueryCalls++

	var out []models.Record
	for _, record := range s.records[recordType] {
		if matches(record, filter) {
			out = append(out, clone(record))
		}
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// Upsert stores each record, replacing an existing record with the same ID
// and creating the rest. Generated IDs are written back onto the inputs.
func (s *MemoryStore) Upsert(_ context.Context, records []models.Record) ([]Failure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpsertCalls++

	now := time.Now().UTC()

	var failures []Failure
	for _, record := range records {
		if s.UpsertFailureHook != nil {
			if err := s.UpsertFailureHook(record); err != nil {
				failures = append(failures, Failure{Record: record, Err: err})
				continue
			}
		}

		if record.RecordID() == "" {
			record.SetRecordID(uuid.New().String())
		}
		stamp(record, now)

		existing := s.records[record.RecordType()]
		replaced := false
		for i, current := range existing {
			if current.RecordID() == record.RecordID() {
				existing[i] = clone(record)
				replaced = true
				break
			}
		}
		if !replaced {
			s.records[record.RecordType()] = append(existing, clone(record))
		}
	}

	return failures, nil
}

// Insert appends the batch as new records.
func (s *MemoryStore) Insert(_ context.Context, records []models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InsertCalls++

	now := time.Now().UTC()
	for _, record := range records {
		if record.RecordID() == "" {
			record.SetRecordID(uuid.New().String())
		}
		stamp(record, now)
		s.records[record.RecordType()] = append(s.records[record.RecordType()], clone(record))
	}
	return nil
}

// Delete removes the batch by ID.
func (s *MemoryStore) Delete(_ context.Context, records []models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DeleteCalls++

	for _, record := range records {
		existing := s.records[record.RecordType()]
		for i, current := range existing {
			if current.RecordID() == record.RecordID() {
				s.records[record.RecordType()] = append(existing[:i], existing[i+1:]...)
				break
			}
		}
	}
	return nil
}

// Count returns the number of stored records of the given type.
func (s *MemoryStore) Count(recordType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[recordType])
}

func matches(record models.Record, filter Filter) bool {
	for field, value := range filter.Equals {
		if fieldValue(record, field) != toComparable(value) {
			return false
		}
	}
	for field, values := range filter.In {
		found := false
		for _, value := range values {
			if fieldValue(record, field) == toComparable(value) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func toComparable(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// fieldValue resolves the columns the reconcilers filter on. Anything else
// is a programming error surfaced as an empty value.
func fieldValue(record models.Record, field string) string {
	switch rec := record.(type) {
	case *models.Account:
		switch field {
		case "id":
			return rec.ID
		case "name":
			return rec.Name
		}
	case *models.Contact:
		switch field {
		case "id":
			return rec.ID
		case "last_name":
			return toComparable(rec.LastName)
		case "account_id":
			return toComparable(rec.AccountID)
		}
	case *models.Opportunity:
		switch field {
		case "id":
			return rec.ID
		case "name":
			return rec.Name
		case "account_id":
			return rec.AccountID
		case "stage":
			return rec.Stage
		}
	case *models.Lead:
		switch field {
		case "id":
			return rec.ID
		case "last_name":
			return rec.LastName
		case "company":
			return rec.Company
		}
	case *models.Case:
		switch field {
		case "id":
			return rec.ID
		case "subject":
			return rec.Subject
		case "status":
			return rec.Status
		}
	}
	return ""
}

func stamp(record models.Record, now time.Time) {
	switch rec := record.(type) {
	case *models.Account:
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
	case *models.Contact:
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
	case *models.Opportunity:
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
	case *models.Lead:
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
	case *models.Case:
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
	}
}

func clone(record models.Record) models.Record {
	switch rec := record.(type) {
	case *models.Account:
		copied := *rec
		copied.Industry = cloneString(rec.Industry)
		copied.Description = cloneString(rec.Description)
		copied.Website = cloneString(rec.Website)
		return &copied
	case *models.Contact:
		copied := *rec
		copied.LastName = cloneString(rec.LastName)
		copied.AccountID = cloneString(rec.AccountID)
		copied.Phone = cloneString(rec.Phone)
		return &copied
	case *models.Opportunity:
		copied := *rec
		return &copied
	case *models.Lead:
		copied := *rec
		return &copied
	case *models.Case:
		copied := *rec
		return &copied
	}
	return record
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
