package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestMemoryStore_Query(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()

	first := &models.Account{Name: "Acme"}
	second := &models.Account{Name: "Acme"}
	third := &models.Account{Name: "Globex"}
	require.NoError(t, mem.Insert(ctx, []models.Record{first, second, third}))

	t.Run("no match returns empty without error", func(t *testing.T) {
		found, err := mem.Query(ctx, models.RecordTypeAccount, Filter{
			Equals: map[string]any{"name": "Initech"},
		})
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("oldest first with limit returns the first inserted", func(t *testing.T) {
		found, err := mem.Query(ctx, models.RecordTypeAccount, Filter{
			Equals:      map[string]any{"name": "Acme"},
			OldestFirst: true,
			Limit:       1,
		})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, first.ID, found[0].(*models.Account).ID)
	})

	t.Run("set membership filter", func(t *testing.T) {
		found, err := mem.Query(ctx, models.RecordTypeAccount, Filter{
			In: map[string][]any{"name": {"Acme", "Globex"}},
		})
		require.NoError(t, err)
		assert.Len(t, found, 3)
	})

	t.Run("results are copies", func(t *testing.T) {
		found, err := mem.Query(ctx, models.RecordTypeAccount, Filter{
			Equals: map[string]any{"name": "Globex"},
		})
		require.NoError(t, err)
		require.Len(t, found, 1)
		found[0].(*models.Account).Name = "mutated"

		again, err := mem.Query(ctx, models.RecordTypeAccount, Filter{
			Equals: map[string]any{"name": "Globex"},
		})
		require.NoError(t, err)
		assert.Len(t, again, 1)
	})
}

func TestMemoryStore_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns and writes back IDs", func(t *testing.T) {
		mem := NewMemoryStore()
		account := &models.Account{Name: "Acme"}

		failures, err := mem.Upsert(ctx, []models.Record{account})
		require.NoError(t, err)
		assert.Empty(t, failures)
		assert.NotEmpty(t, account.ID)
	})

	t.Run("replaces by ID instead of duplicating", func(t *testing.T) {
		mem := NewMemoryStore()
		account := &models.Account{Name: "Acme"}
		_, err := mem.Upsert(ctx, []models.Record{account})
		require.NoError(t, err)

		account.Name = "Acme Holdings"
		_, err = mem.Upsert(ctx, []models.Record{account})
		require.NoError(t, err)

		assert.Equal(t, 1, mem.Count(models.RecordTypeAccount))
		found, err := mem.Query(ctx, models.RecordTypeAccount, Filter{
			Equals: map[string]any{"id": account.ID},
		})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Acme Holdings", found[0].(*models.Account).Name)
	})

	t.Run("failure hook reports partial failures", func(t *testing.T) {
		mem := NewMemoryStore()
		mem.UpsertFailureHook = func(record models.Record) error {
			if record.(*models.Account).Name == "bad" {
				return errors.New("duplicate value on unique field")
			}
			return nil
		}

		good := &models.Account{Name: "good"}
		bad := &models.Account{Name: "bad"}
		failures, err := mem.Upsert(ctx, []models.Record{good, bad})
		require.NoError(t, err)

		require.Len(t, failures, 1)
		assert.Same(t, bad, failures[0].Record)
		assert.Equal(t, 1, mem.Count(models.RecordTypeAccount))
		assert.NotEmpty(t, good.ID)
		assert.Empty(t, bad.ID)
	})
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()

	lead := &models.Lead{LastName: "Doe", Company: "Acme"}
	require.NoError(t, mem.Insert(ctx, []models.Record{lead}))
	require.Equal(t, 1, mem.Count(models.RecordTypeLead))

	require.NoError(t, mem.Delete(ctx, []models.Record{lead}))
	assert.Equal(t, 0, mem.Count(models.RecordTypeLead))
}
