package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Parsed content
	ContactBatch *ContactBatchMessage
}

// ContactBatchMessage is a batch of raw contacts emitted by an upstream
// integration. Last names may be absent; those contacts are carried through
// so the reconciler can apply its own skip rules.
type ContactBatchMessage struct {
	BatchID  string           `json:"batch_id"`
	Source   string           `json:"source"`
	Contacts []ContactPayload `json:"contacts"`
}

// ContactPayload is the wire shape of a single contact in a batch
type ContactPayload struct {
	LastName *string `json:"last_name"`
	Phone    *string `json:"phone,omitempty"`
}

// ParseContactBatch parses the message value as a contact batch
func (m *IncomingMessage) ParseContactBatch() error {
	var batch ContactBatchMessage
	if err := json.Unmarshal(m.Value, &batch); err != nil {
		return err
	}
	if batch.BatchID == "" {
		return fmt.Errorf("contact batch missing batch_id")
	}
	m.ContactBatch = &batch
	return nil
}

// GetBatchID returns the batch ID from the parsed body, falling back to headers
func (m *IncomingMessage) GetBatchID() string {
	if m.ContactBatch != nil {
		return m.ContactBatch.BatchID
	}
	return m.Headers["batch_id"]
}

// GetSource returns the upstream integration that produced the batch
func (m *IncomingMessage) GetSource() string {
	if m.ContactBatch != nil && m.ContactBatch.Source != "" {
		return m.ContactBatch.Source
	}
	return m.Headers["source"]
}

// ToContacts converts the batch payloads into contact models
func (m *IncomingMessage) ToContacts() []*models.Contact {
	if m.ContactBatch == nil {
		return nil
	}
	contacts := make([]*models.Contact, 0, len(m.ContactBatch.Contacts))
	for _, payload := range m.ContactBatch.Contacts {
		contacts = append(contacts, &models.Contact{
			LastName: payload.LastName,
			Phone:    payload.Phone,
		})
	}
	return contacts
}
