// Package notify delivers umbrella reminders to recipients.
package notify

import (
	"context"
	"time"
)

// Message is a single plain-text notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Ack confirms that the remote side accepted a message.
type Ack struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers one message per call and never retries internally.
// Failures are always returned as *DeliveryError.
type Sender interface {
	Send(ctx context.Context, msg Message) (Ack, error)
}
