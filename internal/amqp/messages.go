package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ImportCompletedMessage announces that a CSV import batch finished for
// one user. Consumers re-read the store; the message carries counts
// only. EventID makes redeliveries distinguishable from new batches.
type ImportCompletedMessage struct {
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	TotalRows     int       `json:"total_rows"`
	ProcessedRows int       `json:"processed_rows"`
	Skipped       int       `json:"skipped"`
	Errors        int       `json:"errors"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewImportCompletedMessage(userID string, total, processed, skipped, errors int) *ImportCompletedMessage {
	return &ImportCompletedMessage{
		EventID:       uuid.NewString(),
		UserID:        userID,
		TotalRows:     total,
		ProcessedRows: processed,
		Skipped:       skipped,
		Errors:        errors,
		Timestamp:     time.Now(),
	}
}

func (m *ImportCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ImportCompletedMessageFromJSON(data []byte) (*ImportCompletedMessage, error) {
	var msg ImportCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
