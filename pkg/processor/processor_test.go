package processor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/reconcile"
	"github.com/Ramsey-B/clover/pkg/store"
)

func newTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newIncoming(t *testing.T, batch kafka.ContactBatchMessage) *kafka.IncomingMessage {
	t.Helper()
	value, err := json.Marshal(batch)
	require.NoError(t, err)
	msg := &kafka.IncomingMessage{Value: value, Headers: map[string]string{}}
	require.NoError(t, msg.ParseContactBatch())
	return msg
}

func TestProcessor_HandleMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("reconciles a contact batch", func(t *testing.T) {
		mem := store.NewMemoryStore()
		reconciler := reconcile.NewContactAccountReconciler(mem, newTestLogger())
		proc := NewProcessor(newTestLogger(), reconciler, nil)

		doe := "Doe"
		msg := newIncoming(t, kafka.ContactBatchMessage{
			BatchID: "batch-1",
			Source:  "import",
			Contacts: []kafka.ContactPayload{
				{LastName: &doe},
				{LastName: nil},
			},
		})

		require.NoError(t, proc.HandleMessage(ctx, msg))

		assert.Equal(t, 1, mem.Count(models.RecordTypeAccount))
		assert.Equal(t, 1, mem.Count(models.RecordTypeContact))
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		mem := store.NewMemoryStore()
		reconciler := reconcile.NewContactAccountReconciler(mem, newTestLogger())
		proc := NewProcessor(newTestLogger(), reconciler, nil)

		msg := newIncoming(t, kafka.ContactBatchMessage{BatchID: "batch-2"})

		require.NoError(t, proc.HandleMessage(ctx, msg))
		assert.Equal(t, 0, mem.QueryCalls)
		assert.Equal(t, 0, mem.UpsertCalls)
	})
}

func TestIncomingMessage_ParseContactBatch(t *testing.T) {
	t.Run("rejects a batch without an ID", func(t *testing.T) {
		msg := &kafka.IncomingMessage{Value: []byte(`{"contacts": []}`)}
		assert.Error(t, msg.ParseContactBatch())
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		msg := &kafka.IncomingMessage{Value: []byte(`{`)}
		assert.Error(t, msg.ParseContactBatch())
	})
}
