// Package reconcile implements clover's relational upsert reconciliation
// procedures. Both reconcilers follow the same shape: collect distinct keys,
// batch-query existing matches, batch-create what is missing, batch-link,
// batch-upsert. The number of store round trips is fixed regardless of input
// size.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/store"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/shopspring/decimal"
)

const (
	defaultOpportunityStage = "Qualification"
	// Close date is stamped this many months out from the reconciliation call.
	opportunityCloseMonths = 3
)

var defaultOpportunityAmount = decimal.NewFromInt(50000)

// OpportunityReconciler links batches of opportunity names to a single
// resolved account without creating duplicates.
type OpportunityReconciler struct {
	store  store.Store
	logger ectologger.Logger
}

// NewOpportunityReconciler creates a new opportunity reconciler.
func NewOpportunityReconciler(st store.Store, logger ectologger.Logger) *OpportunityReconciler {
	return &OpportunityReconciler{
		store:  st,
		logger: logger,
	}
}

// Reconcile ensures the named account exists, ensures exactly one opportunity
// per distinct name exists linked to it, and stamps the business defaults on
// each. Duplicate names collapse to one record; repeat calls are idempotent
// on the opportunity set.
func (r *OpportunityReconciler) Reconcile(ctx context.Context, accountName string, opportunityNames []string) error {
	ctx, span := tracing.StartSpan(ctx, "reconcile.OpportunityReconciler.Reconcile")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"account_name": accountName,
		"name_count":   len(opportunityNames),
	})

	distinct := distinctStrings(opportunityNames)

	// Oldest account first so pre-existing duplicates in storage collapse
	// onto one canonical record.
	found, err := r.store.Query(ctx, models.RecordTypeAccount, store.Filter{
		Equals:      map[string]any{"name": accountName},
		OldestFirst: true,
		Limit:       1,
	})
	if err != nil {
		return fmt.Errorf("failed to resolve account %q: %w", accountName, err)
	}

	var account *models.Account
	if len(found) > 0 {
		account = found[0].(*models.Account)
	} else {
		account = &models.Account{Name: accountName}
	}

	if _, err := r.store.Upsert(ctx, []models.Record{account}); err != nil {
		return fmt.Errorf("failed to upsert account %q: %w", accountName, err)
	}

	if account.ID == "" {
		// The account row came back as a per-record failure, so there is no
		// FK to stamp. Opportunities are never written with a placeholder.
		log.Warn("account was not persisted; skipping opportunity reconciliation")
		return nil
	}

	if len(distinct) == 0 {
		log.WithField("account_id", account.ID).Info("no opportunity names given; account resolved only")
		return nil
	}

	names := make([]any, 0, len(distinct))
	for _, name := range distinct {
		names = append(names, name)
	}

	// The account_id filter is mandatory: an opportunity with a matching name
	// on a different account must not suppress creation here.
	existing, err := r.store.Query(ctx, models.RecordTypeOpportunity, store.Filter{
		Equals: map[string]any{"account_id": account.ID},
		In:     map[string][]any{"name": names},
	})
	if err != nil {
		return fmt.Errorf("failed to query existing opportunities: %w", err)
	}

	byName := make(map[string]*models.Opportunity, len(existing))
	for _, record := range existing {
		opp := record.(*models.Opportunity)
		byName[opp.Name] = opp
	}

	closeDate := time.Now().UTC().AddDate(0, opportunityCloseMonths, 0)

	batch := make([]models.Record, 0, len(distinct))
	for _, name := range distinct {
		opp, ok := byName[name]
		if !ok {
			opp = &models.Opportunity{Name: name}
		}
		opp.Stage = defaultOpportunityStage
		opp.CloseDate = closeDate
		opp.Amount = defaultOpportunityAmount
		opp.AccountID = account.ID
		batch = append(batch, opp)
	}

	// Fire and forget: per-record upsert failures are not inspected, failed
	// records keep their previous state.
	if _, err := r.store.Upsert(ctx, batch); err != nil {
		return fmt.Errorf("failed to upsert opportunities: %w", err)
	}

	log.WithFields(map[string]any{
		"account_id":     account.ID,
		"distinct_names": len(distinct),
		"reused":         len(byName),
	}).Info("reconciled opportunities")

	return nil
}

// distinctStrings collapses the input to distinct values in first-seen order.
func distinctStrings(values []string) []string {
	var distinct []string
	seen := make(map[string]bool, len(values))
	for _, value := range values {
		if !seen[value] {
			seen[value] = true
			distinct = append(distinct, value)
		}
	}
	return distinct
}
