package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Collections named in change messages.
const (
	CollectionClients  = "clients"
	CollectionStaff    = "staff"
	CollectionSessions = "sessions"
	CollectionPayments = "payments"
)

// Change operations.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// ChangeMessage announces that records of one collection changed. It carries
// ids only; consumers read the records from the shared store.
type ChangeMessage struct {
	Collection string    `json:"collection"`
	Op         string    `json:"op"`
	IDs        []string  `json:"ids"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewChangeMessage stamps a change with the current time.
func NewChangeMessage(collection, op string, ids ...string) *ChangeMessage {
	if ids == nil {
		ids = []string{}
	}
	return &ChangeMessage{
		Collection: collection,
		Op:         op,
		IDs:        ids,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and validates a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Collection {
	case CollectionClients, CollectionStaff, CollectionSessions, CollectionPayments:
	default:
		return nil, fmt.Errorf("unknown collection %q", msg.Collection)
	}
	switch msg.Op {
	case OpCreated, OpUpdated, OpDeleted:
	default:
		return nil, fmt.Errorf("unknown op %q", msg.Op)
	}
	return &msg, nil
}
