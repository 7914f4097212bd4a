package core

import "github.com/google/uuid"

// NewID returns a time-ordered run identifier (UUIDv7), falling back to v4
// when the v7 generator fails.
func NewID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
