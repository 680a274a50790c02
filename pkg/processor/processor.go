// Package processor handles incoming contact batch messages. It converts each
// batch into contact models and runs account reconciliation, then reports the
// outcome on the record events topic.
package processor

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/reconcile"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Processor handles contact batch processing
type Processor struct {
	logger     ectologger.Logger
	reconciler *reconcile.ContactAccountReconciler
	emitter    *events.Emitter
}

// NewProcessor creates a new batch processor. The emitter may be nil when the
// producer is disabled; events are then skipped.
func NewProcessor(logger ectologger.Logger, reconciler *reconcile.ContactAccountReconciler, emitter *events.Emitter) *Processor {
	return &Processor{
		logger:     logger,
		reconciler: reconciler,
		emitter:    emitter,
	}
}

// HandleMessage processes a single contact batch message. A reconciliation
// failure is returned so the consumer does not commit and the batch is
// retried; event emission failures are logged only.
func (p *Processor) HandleMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.HandleMessage")
	defer span.End()

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"batch_id": msg.GetBatchID(),
		"source":   msg.GetSource(),
	})

	contacts := msg.ToContacts()
	if len(contacts) == 0 {
		log.Info("Contact batch is empty; nothing to reconcile")
		return nil
	}

	if err := p.reconciler.Reconcile(ctx, contacts); err != nil {
		log.WithError(err).Error("Failed to reconcile contact batch")
		return err
	}

	if p.emitter != nil {
		if err := p.emitter.EmitContactsLinked(ctx, contacts); err != nil {
			log.WithError(err).Error("Failed to emit contact.linked events")
		}
		if err := p.emitter.EmitBatchReconciled(ctx, msg.GetBatchID(), msg.GetSource(), len(contacts)); err != nil {
			log.WithError(err).Error("Failed to emit batch.reconciled event")
		}
	}

	log.WithFields(map[string]any{"contact_count": len(contacts)}).Info("Processed contact batch")
	return nil
}
