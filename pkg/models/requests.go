package models

// ReconcileOpportunitiesRequest links a batch of opportunity names to one account.
type ReconcileOpportunitiesRequest struct {
	AccountName      string   `json:"account_name" validate:"required"`
	OpportunityNames []string `json:"opportunity_names"`
}

// ReconcileOpportunitiesResponse reports what the reconciler was asked to do.
type ReconcileOpportunitiesResponse struct {
	AccountName   string `json:"account_name"`
	DistinctNames int    `json:"distinct_names"`
}

// ContactInput is a single contact in a reconciliation request.
type ContactInput struct {
	ID       string  `json:"id,omitempty"`
	LastName *string `json:"last_name"`
	Phone    *string `json:"phone,omitempty"`
}

// ReconcileContactAccountsRequest derives and attaches per-contact accounts.
type ReconcileContactAccountsRequest struct {
	Contacts []ContactInput `json:"contacts" validate:"required"`
}

// ReconcileContactAccountsResponse reports the linked contacts.
type ReconcileContactAccountsResponse struct {
	Linked  []ContactLink `json:"linked"`
	Skipped int           `json:"skipped"`
}

// ContactLink is one contact/account pairing produced by reconciliation.
type ContactLink struct {
	ContactID string `json:"contact_id"`
	AccountID string `json:"account_id"`
	LastName  string `json:"last_name"`
}

// BulkLeadsRequest round-trips N leads through the store.
type BulkLeadsRequest struct {
	LastNames []string `json:"last_names" validate:"required,min=1"`
	Company   string   `json:"company" validate:"required"`
}

// BulkCasesRequest round-trips N cases through the store.
type BulkCasesRequest struct {
	Subjects []string `json:"subjects" validate:"required,min=1"`
}

// BulkRoundTripResponse reports how many records were inserted and deleted.
type BulkRoundTripResponse struct {
	Inserted int `json:"inserted"`
	Deleted  int `json:"deleted"`
}
