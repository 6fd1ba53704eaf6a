package weather

import (
	"context"
	"errors"
)

// Provider abstracts a weather data source (e.g. OpenWeatherMap, WeatherAPI).
// Implementations perform one outbound request per call and never retry.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Snapshot, error)
}

// Reasons carried by ProviderError.
const (
	ReasonTransport       = "transport failure"
	ReasonMalformed       = "malformed response"
	ReasonInvalidLocation = "invalid location"
	ReasonNotConfigured   = "provider not configured"
)

// ProviderError is returned by every Provider on failure.
type ProviderError struct {
	Provider string
	Reason   string
	Err      error

	// Permanent marks a transport failure that repeating cannot fix,
	// such as a rejected API key or an unknown city.
	Permanent bool
}

func (e *ProviderError) Error() string {
	msg := e.Reason
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Transient reports whether retrying the same request may succeed.
func (e *ProviderError) Transient() bool {
	return e.Reason == ReasonTransport && !e.Permanent
}

// TransportError wraps cause as a transport failure from provider.
func TransportError(provider string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Reason: ReasonTransport, Err: cause}
}

// RejectedError wraps cause as a transport failure the upstream will keep
// returning for the same request, such as a 4xx status other than 429.
func RejectedError(provider string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Reason: ReasonTransport, Err: cause, Permanent: true}
}

// MalformedError wraps cause as a malformed response from provider.
func MalformedError(provider string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Reason: ReasonMalformed, Err: cause}
}

// IsTransient reports whether err is a ProviderError worth retrying.
func IsTransient(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Transient()
}
