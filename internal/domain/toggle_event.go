package domain

import (
	"time"

	"github.com/google/uuid"
)

// ToggleEvent settled outcome of a single toggle request.
type ToggleEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"ts"`
	Symbol    string    `json:"symbol"`
	Enabled   bool      `json:"enabled"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
}

// NewToggleEvent creates a new ToggleEvent with a fresh id.
func NewToggleEvent(timestamp time.Time, symbol string, enabled bool, err error) ToggleEvent {
	ev := ToggleEvent{
		ID:        uuid.NewString(),
		Timestamp: timestamp,
		Symbol:    symbol,
		Enabled:   enabled,
		OK:        err == nil,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

// ToggleEventRecord bundles a toggle event with its journal index.
type ToggleEventRecord struct {
	Index uint64
	Event ToggleEvent
}
