package utils

import (
	"encoding/base64"
	"testing"
)

func TestNewEventID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewEventID()
		if len(id) != 22 {
			t.Fatalf("NewEventID() = %s, len %d, want 22", id, len(id))
		}
		if _, err := base64.RawURLEncoding.DecodeString(id); err != nil {
			t.Fatalf("NewEventID() = %s, not url safe base64: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("NewEventID() returned %s twice", id)
		}
		seen[id] = true
	}
}
