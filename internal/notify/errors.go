package notify

import (
	"errors"
	"fmt"
	"net/textproto"
	"strings"

	"github.com/wneessen/go-mail"
)

// ErrorKind classifies why a delivery failed.
type ErrorKind string

const (
	KindAuth      ErrorKind = "auth"
	KindTransport ErrorKind = "transport"
	KindRejected  ErrorKind = "rejected"
)

var (
	errMissingCredentials = errors.New("smtp credentials are not configured")
	errMissingRecipient   = errors.New("recipient is required")
)

// DeliveryError is returned by every Sender on failure.
type DeliveryError struct {
	Kind ErrorKind
	Err  error
}

func (e *DeliveryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("delivery failed (%s)", e.Kind)
	}
	return fmt.Sprintf("delivery failed (%s): %v", e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Transient reports whether a later attempt could succeed. Only transport
// failures qualify; bad credentials and refused messages never do.
func (e *DeliveryError) Transient() bool {
	return e.Kind == KindTransport
}

// IsTransient reports whether err is a DeliveryError worth retrying.
func IsTransient(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de) && de.Transient()
}

// KindOf returns the kind of a DeliveryError, or "" for any other error.
func KindOf(err error) ErrorKind {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// Classify maps an SMTP client error onto a DeliveryError.
func Classify(err error) *DeliveryError {
	if err == nil {
		return nil
	}

	var de *DeliveryError
	if errors.As(err, &de) {
		return de
	}

	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		switch sendErr.Reason {
		case mail.ErrSMTPMailFrom, mail.ErrSMTPRcptTo, mail.ErrGetSender, mail.ErrGetRcpts:
			return &DeliveryError{Kind: KindRejected, Err: err}
		}
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch {
		case tpErr.Code == 530 || tpErr.Code == 534 || tpErr.Code == 535:
			return &DeliveryError{Kind: KindAuth, Err: err}
		case tpErr.Code >= 500:
			return &DeliveryError{Kind: KindRejected, Err: err}
		}
		return &DeliveryError{Kind: KindTransport, Err: err}
	}

	if strings.Contains(strings.ToLower(err.Error()), "auth") {
		return &DeliveryError{Kind: KindAuth, Err: err}
	}
	return &DeliveryError{Kind: KindTransport, Err: err}
}
