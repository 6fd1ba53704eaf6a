// Package events publishes the outcome of each umbrella check to an
// external sink so other systems can follow what the agent decided.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// CheckEvent is the wire form of one completed check.
type CheckEvent struct {
	RunID       string    `json:"run_id"`
	Email       string    `json:"email"`
	City        string    `json:"city"`
	CountryCode string    `json:"country_code"`
	Status      string    `json:"status"`
	Notified    bool      `json:"notified"`
	Reason      string    `json:"reason,omitempty"`
	ErrorKind   string    `json:"error_kind,omitempty"`
	Condition   string    `json:"condition,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	CheckedAt   time.Time `json:"checked_at"`
}

// Publisher sends check events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event CheckEvent) error
	Close() error
}

func encode(event CheckEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("serialize check event: %w", err)
	}
	return data, nil
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, CheckEvent) error {
	return nil
}

func (Noop) Close() error {
	return nil
}
