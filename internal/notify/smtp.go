package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the submission server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	// Password is an app-scoped secret; it is never logged.
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPNotifier sends messages over SMTP with mandatory STARTTLS.
type SMTPNotifier struct {
	cfg    SMTPConfig
	logger logrus.FieldLogger
}

func NewSMTPNotifier(cfg SMTPConfig, logger logrus.FieldLogger) *SMTPNotifier {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPNotifier{cfg: cfg, logger: logger.WithField("component", "notifier")}
}

// Send blocks until the server accepts or rejects the message.
func (n *SMTPNotifier) Send(ctx context.Context, msg Message) (Ack, error) {
	if n.cfg.Username == "" || n.cfg.Password == "" {
		return Ack{}, &DeliveryError{Kind: KindAuth, Err: errMissingCredentials}
	}
	if strings.TrimSpace(msg.To) == "" {
		return Ack{}, &DeliveryError{Kind: KindRejected, Err: errMissingRecipient}
	}

	m := mail.NewMsg()
	if err := m.From(n.cfg.From); err != nil {
		return Ack{}, &DeliveryError{Kind: KindRejected, Err: fmt.Errorf("invalid sender: %w", err)}
	}
	if err := m.To(msg.To); err != nil {
		return Ack{}, &DeliveryError{Kind: KindRejected, Err: fmt.Errorf("invalid recipient: %w", err)}
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	client, err := mail.NewClient(n.cfg.Host,
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.Username),
		mail.WithPassword(n.cfg.Password),
		mail.WithTimeout(n.cfg.Timeout),
	)
	if err != nil {
		return Ack{}, &DeliveryError{Kind: KindTransport, Err: fmt.Errorf("create smtp client: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		de := Classify(err)
		n.logger.WithFields(logrus.Fields{"to": msg.To, "kind": de.Kind}).Warn("email delivery failed")
		return Ack{}, de
	}

	ack := Ack{SentAt: time.Now().UTC()}
	if ids := m.GetGenHeader(mail.HeaderMessageID); len(ids) > 0 {
		ack.MessageID = ids[0]
	}
	n.logger.WithFields(logrus.Fields{"to": msg.To, "message_id": ack.MessageID}).Info("email sent")
	return ack, nil
}
