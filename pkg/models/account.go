package models

import "time"

// Account is the canonical party record. Name is the natural dedup key used
// by both reconcilers.
type Account struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Industry    *string   `json:"industry,omitempty" db:"industry"`
	Description *string   `json:"description,omitempty" db:"description"`
	Website     *string   `json:"website,omitempty" db:"website"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

func (a *Account) RecordType() string { return RecordTypeAccount }
func (a *Account) RecordID() string { return a.ID }
func (a *Account) SetRecordID(id string) { a.ID = id }
