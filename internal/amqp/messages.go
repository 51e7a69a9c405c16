package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"faturamento/internal/core"
)

// ItemsChangedMessage tells consumers that the items of a ledger changed.
// It carries no item data; consumers reload the ledger from the store.
type ItemsChangedMessage struct {
	Ledger    core.Ledger `json:"ledger"`
	ItemID    string      `json:"item_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewItemsChangedMessage(ledger core.Ledger, itemID string) *ItemsChangedMessage {
	return &ItemsChangedMessage{
		Ledger:    ledger,
		ItemID:    itemID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ItemsChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ItemsChangedMessageFromJSON decodes and checks a message body.
func ItemsChangedMessageFromJSON(data []byte) (*ItemsChangedMessage, error) {
	var msg ItemsChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Ledger.IsValid() {
		return nil, fmt.Errorf("message ledger %q: %w", msg.Ledger, core.ErrInvalidLedger)
	}
	return &msg, nil
}
