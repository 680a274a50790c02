package models

import "time"

// Contact is a person record. A nil LastName means the contact is not
// eligible for account reconciliation.
type Contact struct {
	ID        string    `json:"id" db:"id"`
	LastName  *string   `json:"last_name,omitempty" db:"last_name"`
	AccountID *string   `json:"account_id,omitempty" db:"account_id"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (c *Contact) RecordType() string { return RecordTypeContact }
func (c *Contact) RecordID() string { return c.ID }
func (c *Contact) SetRecordID(id string) { c.ID = id }
