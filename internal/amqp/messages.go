package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExpenseChangedMessage announces a committed change to one expense.
// Consumers re-read the store; the message carries no expense data.
type ExpenseChangedMessage struct {
	ID        string    `json:"id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseChangedMessage(id, op string, at time.Time) *ExpenseChangedMessage {
	if at.IsZero() {
		at = time.Now()
	}
	return &ExpenseChangedMessage{ID: id, Op: op, Timestamp: at}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseChangedMessageFromJSON decodes and sanity-checks a message body.
func ExpenseChangedMessageFromJSON(data []byte) (*ExpenseChangedMessage, error) {
	var msg ExpenseChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" || msg.Op == "" {
		return nil, fmt.Errorf("message missing id or op")
	}
	return &msg, nil
}
