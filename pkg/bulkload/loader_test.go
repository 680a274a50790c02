package bulkload

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/store"
)

func newTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestLoader_InsertAndDeleteLeads(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip leaves the store empty", func(t *testing.T) {
		mem := store.NewMemoryStore()
		loader := NewLoader(mem, newTestLogger(), 100)

		err := loader.InsertAndDeleteLeads(ctx, []string{"Doe", "Smith", "Jones"}, "Acme")
		require.NoError(t, err)

		assert.Equal(t, 0, mem.Count(models.RecordTypeLead))
		assert.Equal(t, 1, mem.InsertCalls)
		assert.Equal(t, 1, mem.DeleteCalls)
	})

	t.Run("row ceiling rejects before any store call", func(t *testing.T) {
		mem := store.NewMemoryStore()
		loader := NewLoader(mem, newTestLogger(), 2)

		err := loader.InsertAndDeleteLeads(ctx, []string{"Doe", "Smith", "Jones"}, "Acme")
		require.Error(t, err)

		var limitErr *RowLimitError
		require.True(t, errors.As(err, &limitErr))
		assert.Equal(t, 3, limitErr.Requested)
		assert.Equal(t, 2, limitErr.Limit)

		assert.Equal(t, 0, mem.InsertCalls)
		assert.Equal(t, 0, mem.DeleteCalls)
	})
}

func TestLoader_InsertAndDeleteCases(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip leaves the store empty", func(t *testing.T) {
		mem := store.NewMemoryStore()
		loader := NewLoader(mem, newTestLogger(), 100)

		err := loader.InsertAndDeleteCases(ctx, []string{"Broken widget", "Late shipment"})
		require.NoError(t, err)

		assert.Equal(t, 0, mem.Count(models.RecordTypeCase))
		assert.Equal(t, 1, mem.InsertCalls)
		assert.Equal(t, 1, mem.DeleteCalls)
	})

	t.Run("row ceiling rejects before any store call", func(t *testing.T) {
		mem := store.NewMemoryStore()
		loader := NewLoader(mem, newTestLogger(), 1)

		err := loader.InsertAndDeleteCases(ctx, []string{"a", "b"})
		require.Error(t, err)

		var limitErr *RowLimitError
		require.True(t, errors.As(err, &limitErr))
		assert.Equal(t, 0, mem.InsertCalls)
		assert.Equal(t, 0, mem.DeleteCalls)
	})

	t.Run("batch at the ceiling is allowed", func(t *testing.T) {
		mem := store.NewMemoryStore()
		loader := NewLoader(mem, newTestLogger(), 2)

		require.NoError(t, loader.InsertAndDeleteCases(ctx, []string{"a", "b"}))
		assert.Equal(t, 1, mem.InsertCalls)
	})
}
