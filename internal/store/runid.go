package store

import "github.com/google/uuid"

// RunIDGenerator produces IDs for persisted runs.
type RunIDGenerator interface {
	NewRunID() string
}

// UUIDv7Generator issues time-ordered UUIDv7 run IDs, so IDs of runs
// recorded one after another sort in recording order.
type UUIDv7Generator struct{}

// NewRunID implements RunIDGenerator.
func (UUIDv7Generator) NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 fails only when the random source does.
		return uuid.NewString()
	}
	return id.String()
}
