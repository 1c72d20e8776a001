package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExpenseCreatedMessage announces a new ledger expense. It carries only
// identifiers; the consumer fetches the full expense from the database.
type ExpenseCreatedMessage struct {
	MessageID string    `json:"message_id"`
	ExpenseID int64     `json:"expense_id"`
	PayerID   int64     `json:"payer_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseCreatedMessage(expenseID, payerID int64) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		MessageID: uuid.NewString(),
		ExpenseID: expenseID,
		PayerID:   payerID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
