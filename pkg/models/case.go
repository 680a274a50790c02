package models

import "time"

// Case is a simple support record used by the bulk round-trip loaders.
type Case struct {
	ID        string    `json:"id" db:"id"`
	Subject   string    `json:"subject" db:"subject"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (c *Case) RecordType() string { return RecordTypeCase }
func (c *Case) RecordID() string { return c.ID }
func (c *Case) SetRecordID(id string) { c.ID = id }
