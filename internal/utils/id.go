package utils

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// NewEventID returns a random url safe id, 22 characters long
func NewEventID() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}
