package agent

import (
	"time"

	"github.com/i474232898/umbrella-agent/internal/events"
	"github.com/i474232898/umbrella-agent/internal/weather"
)

// Status is the terminal state of one check.
type Status string

const (
	StatusNotified           Status = "notified"
	StatusSkipped            Status = "skipped"
	StatusWeatherFetchFailed Status = "weather-fetch-failed"
	StatusNotifyFailed       Status = "notify-failed"
)

// CheckOutcome records what a single RunCheck did.
type CheckOutcome struct {
	RunID     string            `json:"run_id"`
	Email     string            `json:"email"`
	Location  weather.Location  `json:"location"`
	Status    Status            `json:"status"`
	Notified  bool              `json:"notified"`
	Reason    string            `json:"reason,omitempty"`
	ErrorKind string            `json:"error_kind,omitempty"`
	Error     string            `json:"error,omitempty"`
	Weather   *weather.Snapshot `json:"weather,omitempty"`
	MessageID string            `json:"message_id,omitempty"`
	CheckedAt time.Time         `json:"checked_at"`
}

func (o CheckOutcome) event() events.CheckEvent {
	ev := events.CheckEvent{
		RunID:       o.RunID,
		Email:       o.Email,
		City:        o.Location.City,
		CountryCode: o.Location.Country,
		Status:      string(o.Status),
		Notified:    o.Notified,
		Reason:      o.Reason,
		ErrorKind:   o.ErrorKind,
		CheckedAt:   o.CheckedAt,
	}
	if o.Weather != nil {
		ev.Condition = string(o.Weather.Condition)
		ev.Provider = o.Weather.Provider
	}
	return ev
}
