package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/store"
)

func newTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestOpportunityReconciler_Reconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account and opportunities when absent", func(t *testing.T) {
		mem := store.NewMemoryStore()
		reconciler := NewOpportunityReconciler(mem, newTestLogger())

		err := reconciler.Reconcile(ctx, "Acme", []string{"Renewal", "Expansion", "Renewal"})
		require.NoError(t, err)

		accounts, err := mem.Query(ctx, models.RecordTypeAccount, store.Filter{})
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		account := accounts[0].(*models.Account)
		assert.Equal(t, "Acme", account.Name)
		assert.NotEmpty(t, account.ID)

		opps, err := mem.Query(ctx, models.RecordTypeOpportunity, store.Filter{})
		require.NoError(t, err)
		require.Len(t, opps, 2) // duplicate name collapses

		for _, record := range opps {
			opp := record.(*models.Opportunity)
			assert.Equal(t, "Qualification", opp.Stage)
			assert.Equal(t, account.ID, opp.AccountID)
			assert.True(t, opp.Amount.Equal(defaultOpportunityAmount))
			assert.WithinDuration(t, time.Now().UTC().AddDate(0, 3, 0), opp.CloseDate, time.Minute)
		}
	})

	t.Run("repeat call is idempotent", func(t *testing.T) {
		mem := store.NewMemoryStore()
		reconciler := NewOpportunityReconciler(mem, newTestLogger())

		require.NoError(t, reconciler.Reconcile(ctx, "Acme", []string{"Renewal", "Expansion"}))

		opps, err := mem.Query(ctx, models.RecordTypeOpportunity, store.Filter{})
		require.NoError(t, err)
		firstIDs := map[string]string{}
		for _, record := range opps {
			opp := record.(*models.Opportunity)
			firstIDs[opp.Name] = opp.ID
		}

		require.NoError(t, reconciler.Reconcile(ctx, "Acme", []string{"Renewal", "Expansion"}))

		assert.Equal(t, 1, mem.Count(models.RecordTypeAccount))
		opps, err = mem.Query(ctx, models.RecordTypeOpportunity, store.Filter{})
		require.NoError(t, err)
		require.Len(t, opps, 2)
		for _, record := range opps {
			opp := record.(*models.Opportunity)
			assert.Equal(t, firstIDs[opp.Name], opp.ID)
		}
	})

	t.Run("links to the oldest matching account", func(t *testing.T) {
		mem := store.NewMemoryStore()
		oldest := &models.Account{Name: "Acme"}
		newer := &models.Account{Name: "Acme"}
		require.NoError(t, mem.Insert(ctx, []models.Record{oldest, newer}))

		reconciler := NewOpportunityReconciler(mem, newTestLogger())
		require.NoError(t, reconciler.Reconcile(ctx, "Acme", []string{"Renewal"}))

		assert.Equal(t, 2, mem.Count(models.RecordTypeAccount))

		opps, err := mem.Query(ctx, models.RecordTypeOpportunity, store.Filter{})
		require.NoError(t, err)
		require.Len(t, opps, 1)
		assert.Equal(t, oldest.ID, opps[0].(*models.Opportunity).AccountID)
	})

	t.Run("same name on another account does not suppress creation", func(t *testing.T) {
		mem := store.NewMemoryStore()
		other := &models.Account{Name: "Globex"}
		require.NoError(t, mem.Insert(ctx, []models.Record{other}))
		require.NoError(t, mem.Insert(ctx, []models.Record{
			&models.Opportunity{Name: "Renewal", AccountID: other.ID, Stage: "Closed Won"},
		}))

		reconciler := NewOpportunityReconciler(mem, newTestLogger())
		require.NoError(t, reconciler.Reconcile(ctx, "Acme", []string{"Renewal"}))

		opps, err := mem.Query(ctx, models.RecordTypeOpportunity, store.Filter{})
		require.NoError(t, err)
		assert.Len(t, opps, 2)

		untouched, err := mem.Query(ctx, models.RecordTypeOpportunity, store.Filter{
			Equals: map[string]any{"account_id": other.ID},
		})
		require.NoError(t, err)
		require.Len(t, untouched, 1)
		assert.Equal(t, "Closed Won", untouched[0].(*models.Opportunity).Stage)
	})

	t.Run("empty name list resolves account only", func(t *testing.T) {
		mem := store.NewMemoryStore()
		reconciler := NewOpportunityReconciler(mem, newTestLogger())

		require.NoError(t, reconciler.Reconcile(ctx, "Acme", nil))

		assert.Equal(t, 1, mem.Count(models.RecordTypeAccount))
		assert.Equal(t, 0, mem.Count(models.RecordTypeOpportunity))
		assert.Equal(t, 1, mem.QueryCalls)
		assert.Equal(t, 1, mem.UpsertCalls)
	})

	t.Run("account upsert failure skips opportunity writes", func(t *testing.T) {
		mem := store.NewMemoryStore()
		mem.UpsertFailureHook = func(record models.Record) error {
			if record.RecordType() == models.RecordTypeAccount {
				return errors.New("row locked by another job")
			}
			return nil
		}
		reconciler := NewOpportunityReconciler(mem, newTestLogger())

		require.NoError(t, reconciler.Reconcile(ctx, "Acme", []string{"Renewal"}))

		assert.Equal(t, 0, mem.Count(models.RecordTypeAccount))
		assert.Equal(t, 0, mem.Count(models.RecordTypeOpportunity))
		assert.Equal(t, 1, mem.QueryCalls)
		assert.Equal(t, 1, mem.UpsertCalls)
	})

	t.Run("per record upsert failures are not treated as errors", func(t *testing.T) {
		mem := store.NewMemoryStore()
		mem.UpsertFailureHook = func(record models.Record) error {
			if record.RecordType() == models.RecordTypeOpportunity {
				return errors.New("row locked by another job")
			}
			return nil
		}
		reconciler := NewOpportunityReconciler(mem, newTestLogger())

		require.NoError(t, reconciler.Reconcile(ctx, "Acme", []string{"Renewal"}))
		assert.Equal(t, 0, mem.Count(models.RecordTypeOpportunity))
	})
}

func TestDistinctStrings(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, distinctStrings([]string{"b", "a", "b", "c", "a"}))
	assert.Nil(t, distinctStrings(nil))
}
