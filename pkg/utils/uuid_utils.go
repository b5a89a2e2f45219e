package utils

import (
	"github.com/google/uuid"
)

var newUUIDv7 = uuid.NewV7

// GenerateUUIDv7 returns a time-ordered id: 48-bit millisecond timestamp plus random bits.
func GenerateUUIDv7() uuid.UUID {
	id, err := newUUIDv7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// NewTransferID returns a fresh time-ordered transfer id as a string.
func NewTransferID() string {
	return GenerateUUIDv7().String()
}
