// Package subscription defines the registered (email, location, daily time)
// triples that drive recurring weather checks.
package subscription

import (
	"time"

	"github.com/i474232898/umbrella-agent/internal/weather"
)

// Subscription is identified by its Email; at most one exists per address.
type Subscription struct {
	Email     string           `json:"email"`
	Location  weather.Location `json:"location"`
	NotifyAt  string           `json:"notify_at"` // daily wall-clock time, "HH:MM"
	Enabled   bool             `json:"enabled"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Key returns the identity of the subscription.
func (s Subscription) Key() string {
	return s.Email
}
