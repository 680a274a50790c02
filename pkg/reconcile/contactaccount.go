package reconcile

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/store"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ContactAccountReconciler derives an account per distinct contact last name,
// creating missing accounts without duplicates, and links each eligible
// contact to its account. Contacts with no last name are skipped entirely.
type ContactAccountReconciler struct {
	store            store.Store
	logger           ectologger.Logger
	onAccountCreated func(context.Context, *models.Account)
}

// NewContactAccountReconciler creates a new contact/account reconciler.
func NewContactAccountReconciler(st store.Store, logger ectologger.Logger) *ContactAccountReconciler {
	return &ContactAccountReconciler{
		store:  st,
		logger: logger,
	}
}

// OnAccountCreated registers a callback invoked once per account the
// reconciler creates. Accounts that fail to persist are not reported.
func (r *ContactAccountReconciler) OnAccountCreated(fn func(context.Context, *models.Account)) {
	r.onAccountCreated = fn
}

func eligible(contact *models.Contact) bool {
	return contact.LastName != nil && *contact.LastName != ""
}

// Reconcile links every eligible contact to the account named after its last
// name, creating at most one account per distinct last name. The AccountID of
// eligible records in contacts is updated in place. An empty input is a
// complete no-op.
func (r *ContactAccountReconciler) Reconcile(ctx context.Context, contacts []*models.Contact) error {
	ctx, span := tracing.StartSpan(ctx, "reconcile.ContactAccountReconciler.Reconcile")
	defer span.End()

	if len(contacts) == 0 {
		return nil
	}

	log := r.logger.WithContext(ctx).WithField("contact_count", len(contacts))

	linkable := ectolinq.Filter(contacts, eligible)
	skipped := len(contacts) - len(linkable)

	var lastNames []string
	for _, contact := range linkable {
		lastNames = append(lastNames, *contact.LastName)
	}
	lastNames = distinctStrings(lastNames)

	if len(lastNames) == 0 {
		log.WithField("skipped", skipped).Info("no contacts eligible for account reconciliation")
		return nil
	}

	names := make([]any, 0, len(lastNames))
	for _, name := range lastNames {
		names = append(names, name)
	}

	found, err := r.store.Query(ctx, models.RecordTypeAccount, store.Filter{
		In: map[string][]any{"name": names},
	})
	if err != nil {
		return fmt.Errorf("failed to query accounts by last name: %w", err)
	}

	lookup := make(map[string]*models.Account, len(lastNames))
	for _, record := range found {
		account := record.(*models.Account)
		if _, ok := lookup[account.Name]; !ok {
			lookup[account.Name] = account
		}
	}

	// One new account per distinct last name absent from the lookup. The
	// lookup points at the same records as the creation batch, so the IDs the
	// store assigns land in both.
	var created []models.Record
	for _, name := range lastNames {
		if _, ok := lookup[name]; !ok {
			account := &models.Account{Name: name}
			lookup[name] = account
			created = append(created, account)
		}
	}

	if len(created) > 0 {
		if _, err := r.store.Upsert(ctx, created); err != nil {
			return fmt.Errorf("failed to create accounts: %w", err)
		}
		if r.onAccountCreated != nil {
			for _, record := range created {
				account := record.(*models.Account)
				if account.ID == "" {
					continue
				}
				r.onAccountCreated(ctx, account)
			}
		}
	}

	batch := make([]models.Record, 0, len(linkable))
	for _, contact := range linkable {
		account, ok := lookup[*contact.LastName]
		if !ok || account.ID == "" {
			// Should not occur given the creation pass, but a contact is
			// excluded rather than upserted with an empty foreign key.
			continue
		}
		accountID := account.ID
		contact.AccountID = &accountID
		batch = append(batch, contact)
	}

	if len(batch) > 0 {
		if _, err := r.store.Upsert(ctx, batch); err != nil {
			return fmt.Errorf("failed to upsert contacts: %w", err)
		}
	}

	log.WithFields(map[string]any{
		"linked":           len(batch),
		"skipped":          skipped,
		"accounts_created": len(created),
	}).Info("reconciled contact accounts")

	return nil
}
