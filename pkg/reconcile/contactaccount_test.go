package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/store"
)

func strPtr(s string) *string {
	return &s
}

func TestContactAccountReconciler_Reconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("derives one account per distinct last name", func(t *testing.T) {
		mem := store.NewMemoryStore()
		reconciler := NewContactAccountReconciler(mem, newTestLogger())

		contacts := []*models.Contact{
			{LastName: strPtr("Doe")},
			{LastName: strPtr("Doe")},
			{LastName: nil},
			{LastName: strPtr("Jane")},
		}

		require.NoError(t, reconciler.Reconcile(ctx, contacts))

		assert.Equal(t, 2, mem.Count(models.RecordTypeAccount))
		assert.Equal(t, 3, mem.Count(models.RecordTypeContact))

		require.NotNil(t, contacts[0].AccountID)
		require.NotNil(t, contacts[1].AccountID)
		require.NotNil(t, contacts[3].AccountID)
		assert.Equal(t, *contacts[0].AccountID, *contacts[1].AccountID)
		assert.NotEqual(t, *contacts[0].AccountID, *contacts[3].AccountID)

		// The contact without a last name is skipped entirely
		assert.Nil(t, contacts[2].AccountID)
	})

	t.Run("reuses a pre-existing account", func(t *testing.T) {
		mem := store.NewMemoryStore()
		existing := &models.Account{Name: "Smith"}
		require.NoError(t, mem.Insert(ctx, []models.Record{existing}))

		reconciler := NewContactAccountReconciler(mem, newTestLogger())
		contacts := []*models.Contact{{LastName: strPtr("Smith")}}

		require.NoError(t, reconciler.Reconcile(ctx, contacts))

		assert.Equal(t, 1, mem.Count(models.RecordTypeAccount))
		require.NotNil(t, contacts[0].AccountID)
		assert.Equal(t, existing.ID, *contacts[0].AccountID)
	})

	t.Run("empty input is a complete no-op", func(t *testing.T) {
		mem := store.NewMemoryStore()
		reconciler := NewContactAccountReconciler(mem, newTestLogger())

		require.NoError(t, reconciler.Reconcile(ctx, nil))

		assert.Equal(t, 0, mem.QueryCalls)
		assert.Equal(t, 0, mem.UpsertCalls)
	})

	t.Run("all ineligible contacts stop before any store call", func(t *testing.T) {
		mem := store.NewMemoryStore()
		reconciler := NewContactAccountReconciler(mem, newTestLogger())

		contacts := []*models.Contact{
			{LastName: nil},
			{LastName: strPtr("")},
		}

		require.NoError(t, reconciler.Reconcile(ctx, contacts))

		assert.Equal(t, 0, mem.QueryCalls)
		assert.Equal(t, 0, mem.UpsertCalls)
		assert.Nil(t, contacts[0].AccountID)
		assert.Nil(t, contacts[1].AccountID)
	})

	t.Run("created accounts are reported through the callback", func(t *testing.T) {
		mem := store.NewMemoryStore()
		existing := &models.Account{Name: "Smith"}
		require.NoError(t, mem.Insert(ctx, []models.Record{existing}))

		reconciler := NewContactAccountReconciler(mem, newTestLogger())
		var reported []string
		reconciler.OnAccountCreated(func(_ context.Context, account *models.Account) {
			assert.NotEmpty(t, account.ID)
			reported = append(reported, account.Name)
		})

		contacts := []*models.Contact{
			{LastName: strPtr("Doe")},
			{LastName: strPtr("Doe")},
			{LastName: strPtr("Jane")},
			{LastName: strPtr("Smith")},
		}

		require.NoError(t, reconciler.Reconcile(ctx, contacts))

		// Only accounts created by this call are reported, not re-used ones.
		assert.ElementsMatch(t, []string{"Doe", "Jane"}, reported)
	})

	t.Run("repeat call creates no duplicate accounts", func(t *testing.T) {
		mem := store.NewMemoryStore()
		reconciler := NewContactAccountReconciler(mem, newTestLogger())

		first := []*models.Contact{{LastName: strPtr("Doe")}}
		require.NoError(t, reconciler.Reconcile(ctx, first))

		second := []*models.Contact{{LastName: strPtr("Doe")}}
		require.NoError(t, reconciler.Reconcile(ctx, second))

		assert.Equal(t, 1, mem.Count(models.RecordTypeAccount))
		require.NotNil(t, second[0].AccountID)
		assert.Equal(t, *first[0].AccountID, *second[0].AccountID)
	})
}
