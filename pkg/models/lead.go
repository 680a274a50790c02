package models

import "time"

// Lead is a simple prospect record used by the bulk round-trip loaders.
type Lead struct {
	ID        string    `json:"id" db:"id"`
	LastName  string    `json:"last_name" db:"last_name"`
	Company   string    `json:"company" db:"company"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (l *Lead) RecordType() string { return RecordTypeLead }
func (l *Lead) RecordID() string { return l.ID }
func (l *Lead) SetRecordID(id string) { l.ID = id }
