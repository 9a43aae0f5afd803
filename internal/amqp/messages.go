package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// BudgetSavedMessage announces that an identity saved a new budget version.
// It carries no document; consumers read the latest one from the repository.
type BudgetSavedMessage struct {
	Identity  string    `json:"identity"`
	UpdatedAt time.Time `json:"updated_at"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBudgetSavedMessage(identity string, updatedAt time.Time) *BudgetSavedMessage {
	return &BudgetSavedMessage{
		Identity:  identity,
		UpdatedAt: updatedAt,
		Timestamp: time.Now(),
	}
}

func (m *BudgetSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetSavedMessageFromJSON decodes a message and rejects one without an
// identity.
func BudgetSavedMessageFromJSON(data []byte) (*BudgetSavedMessage, error) {
	var msg BudgetSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Identity == "" {
		return nil, fmt.Errorf("budget saved message without identity")
	}
	return &msg, nil
}
