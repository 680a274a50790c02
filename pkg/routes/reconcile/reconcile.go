package reconcile

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/reconcile"
)

var validate = validator.New()

// Register registers reconciliation routes
func Register(g *echo.Group) {
	g.POST("/opportunities", ReconcileOpportunities)
	g.POST("/contact-accounts", ReconcileContactAccounts)
}

// ReconcileOpportunities links a batch of opportunity names to one account,
// creating the account and any missing opportunities as needed
func ReconcileOpportunities(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.ReconcileOpportunitiesRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, reconciler, err := ectoinject.GetContext[*reconcile.OpportunityReconciler](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := reconciler.Reconcile(ctx, req.AccountName, req.OpportunityNames); err != nil {
		return err
	}

	distinct := make(map[string]struct{}, len(req.OpportunityNames))
	for _, name := range req.OpportunityNames {
		distinct[name] = struct{}{}
	}

	return c.JSON(http.StatusOK, models.ReconcileOpportunitiesResponse{
		AccountName:   req.AccountName,
		DistinctNames: len(distinct),
	})
}

// ReconcileContactAccounts derives accounts from contact last names and links
// each eligible contact to its account
func ReconcileContactAccounts(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.ReconcileContactAccountsRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	contacts := make([]*models.Contact, 0, len(req.Contacts))
	for _, input := range req.Contacts {
		contacts = append(contacts, &models.Contact{
			ID:       input.ID,
			LastName: input.LastName,
			Phone:    input.Phone,
		})
	}

	ctx, reconciler, err := ectoinject.GetContext[*reconcile.ContactAccountReconciler](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := reconciler.Reconcile(ctx, contacts); err != nil {
		return err
	}

	resp := models.ReconcileContactAccountsResponse{Linked: []models.ContactLink{}}
	for _, contact := range contacts {
		if contact.AccountID == nil || *contact.AccountID == "" {
			resp.Skipped++
			continue
		}
		lastName := ""
		if contact.LastName != nil {
			lastName = *contact.LastName
		}
		resp.Linked = append(resp.Linked, models.ContactLink{
			ContactID: contact.ID,
			AccountID: *contact.AccountID,
			LastName:  lastName,
		})
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithFields(map[string]any{
			"linked":  len(resp.Linked),
			"skipped": resp.Skipped,
		}).Info("Reconciled contact accounts")
	}

	return c.JSON(http.StatusOK, resp)
}
