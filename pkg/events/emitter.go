// Package events handles event emission for record lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter handles event emission for clover
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitAccountCreated emits an account.created event
func (e *Emitter) EmitAccountCreated(ctx context.Context, account *models.Account) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitAccountCreated")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"name":           account.Name,
	})

	event := &kafka.RecordEvent{
		EventType:  "account.created",
		RecordType: models.RecordTypeAccount,
		RecordID:   account.ID,
		Data:       data,
	}

	if err := e.producer.PublishRecordEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit account.created event")
		return err
	}

	return nil
}

// EmitContactsLinked emits one contact.linked event per linked contact.
// Contacts without a resolved account are skipped.
func (e *Emitter) EmitContactsLinked(ctx context.Context, contacts []*models.Contact) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitContactsLinked")
	defer span.End()

	events := make([]*kafka.RecordEvent, 0, len(contacts))
	for _, contact := range contacts {
		if contact.AccountID == nil || *contact.AccountID == "" {
			continue
		}

		data, _ := json.Marshal(map[string]any{
			"schema_version": SchemaVersion,
			"account_id":     *contact.AccountID,
		})

		events = append(events, &kafka.RecordEvent{
			EventType:  "contact.linked",
			RecordType: models.RecordTypeContact,
			RecordID:   contact.ID,
			Data:       data,
		})
	}

	if err := e.producer.PublishRecordEvents(ctx, events); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit contact.linked events")
		return err
	}

	return nil
}

// EmitBatchReconciled emits a batch.reconciled event summarizing a processed
// contact batch
func (e *Emitter) EmitBatchReconciled(ctx context.Context, batchID string, source string, contactCount int) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitBatchReconciled")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"source":         source,
		"contact_count":  contactCount,
	})

	event := &kafka.RecordEvent{
		EventType:  "batch.reconciled",
		RecordType: models.RecordTypeContact,
		RecordID:   batchID,
		Data:       data,
	}

	if err := e.producer.PublishRecordEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit batch.reconciled event")
		return err
	}

	return nil
}
