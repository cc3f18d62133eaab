package amqp

import (
	"encoding/json"
	"time"
)

// ReceiptIngestedMessage announces that one receipt was persisted. It
// carries only the identifiers the snapshot worker needs to recompute the
// affected user-month; the worker fetches receipt data from the store.
type ReceiptIngestedMessage struct {
	ReceiptID string    `json:"receipt_id"`
	UID       string    `json:"uid"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReceiptIngestedMessage creates an ingestion event for the receipt's
// calendar month.
func NewReceiptIngestedMessage(receiptID, uid string, receiptTime time.Time) *ReceiptIngestedMessage {
	receiptTime = receiptTime.UTC()
	return &ReceiptIngestedMessage{
		ReceiptID: receiptID,
		UID:       uid,
		Year:      receiptTime.Year(),
		Month:     int(receiptTime.Month()),
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReceiptIngestedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReceiptIngestedMessageFromJSON creates a message from JSON bytes
func ReceiptIngestedMessageFromJSON(data []byte) (*ReceiptIngestedMessage, error) {
	var msg ReceiptIngestedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
