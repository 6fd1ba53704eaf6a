package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DryRunSender logs messages instead of delivering them.
type DryRunSender struct {
	logger logrus.FieldLogger
}

func NewDryRunSender(logger logrus.FieldLogger) *DryRunSender {
	return &DryRunSender{logger: logger.WithField("component", "notifier")}
}

func (d *DryRunSender) Send(_ context.Context, msg Message) (Ack, error) {
	if msg.To == "" {
		return Ack{}, &DeliveryError{Kind: KindRejected, Err: errMissingRecipient}
	}
	ack := Ack{MessageID: "dry-run-" + uuid.NewString(), SentAt: time.Now().UTC()}
	d.logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("dry run: email not sent")
	return ack, nil
}
