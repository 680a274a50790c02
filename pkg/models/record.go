package models

// Record type keys used by the store to route records to their tables.
const (
	RecordTypeAccount     = "account"
	RecordTypeContact     = "contact"
	RecordTypeOpportunity = "opportunity"
	RecordTypeLead        = "lead"
	RecordTypeCase        = "case"
)

// Record is any persistable CRM record. An empty ID means the record has not
// been persisted yet; the store assigns IDs on insert/upsert and writes them
// back through SetRecordID so callers can immediately use them as foreign keys.
type Record interface {
	RecordType() string
	RecordID() string
	SetRecordID(id string)
}
