package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Opportunity is a deal record tied to an account. Name is the dedup key
// within a single reconciliation call.
type Opportunity struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Stage     string          `json:"stage" db:"stage"`
	CloseDate time.Time       `json:"close_date" db:"close_date"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	AccountID string          `json:"account_id" db:"account_id"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

func (o *Opportunity) RecordType() string { return RecordTypeOpportunity }
func (o *Opportunity) RecordID() string { return o.ID }
func (o *Opportunity) SetRecordID(id string) { o.ID = id }
