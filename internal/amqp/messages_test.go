package amqp

import (
	"testing"
	"time"
)

func TestNewImportCompletedMessage(t *testing.T) {
	msg := NewImportCompletedMessage("user-1", 10, 8, 1, 2)

	if msg.UserID != "user-1" || msg.TotalRows != 10 || msg.ProcessedRows != 8 {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if msg.EventID == "" {
		t.Error("EventID should be set")
	}
}

func TestImportCompletedMessage_JSON(t *testing.T) {
	msg := &ImportCompletedMessage{
		UserID:        "user-1",
		TotalRows:     5,
		ProcessedRows: 4,
		Skipped:       1,
		Errors:        1,
		Timestamp:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ImportCompletedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ImportCompletedMessageFromJSON() error = %v", err)
	}

	if parsed.UserID != msg.UserID || parsed.ProcessedRows != msg.ProcessedRows {
		t.Errorf("roundtrip mismatch: %+v", parsed)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestImportCompletedMessage_InvalidJSON(t *testing.T) {
	if _, err := ImportCompletedMessageFromJSON([]byte(`{"total_rows": "nope"}`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
