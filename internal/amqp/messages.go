package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names a change to the stored expenses.
type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseDeleted EventType = "expense.deleted"
)

// ExpenseEvent is published after an expense is added or deleted.
// Amount and Date are empty for deletions.
type ExpenseEvent struct {
	Type        EventType `json:"type"`
	ID          uuid.UUID `json:"id"`
	Date        string    `json:"date,omitempty"`
	Description string    `json:"description,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseEvent creates an event stamped with the current time.
func NewExpenseEvent(t EventType, id uuid.UUID) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      t,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
