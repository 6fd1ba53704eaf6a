package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/umbrella-agent/internal/weather"
)

// maxBodyBytes caps how much of a provider response we are willing to decode.
const maxBodyBytes = 1 << 20

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errMissingAPIKey = errors.New("api key is not configured")
)

// Option customizes a provider.
type Option func(*base)

// WithBaseURL overrides the provider endpoint (used by tests and self-hosted mirrors).
func WithBaseURL(u string) Option {
	return func(b *base) {
		if u != "" {
			b.baseURL = u
		}
	}
}

// WithBreakerSettings replaces the default circuit breaker settings.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(b *base) {
		if st.Name == "" {
			st.Name = b.name
		}
		b.circuit = gobreaker.NewCircuitBreaker(st)
	}
}

// base holds what every HTTP provider shares.
type base struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func newBase(name, apiKey, baseURL string, client *http.Client, opts []Option) base {
	b := base{
		name:    name,
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) Name() string {
	return b.name
}

// checkInput rejects calls that would never succeed before any request is made.
func (b *base) checkInput(loc weather.Location) error {
	if !loc.Valid() {
		return &weather.ProviderError{
			Provider: b.name,
			Reason:   weather.ReasonInvalidLocation,
			Err:      fmt.Errorf("city %q, country %q", loc.City, loc.Country),
		}
	}
	if b.apiKey == "" {
		return &weather.ProviderError{Provider: b.name, Reason: weather.ReasonNotConfigured, Err: errMissingAPIKey}
	}
	if b.client == nil {
		return &weather.ProviderError{Provider: b.name, Reason: weather.ReasonNotConfigured, Err: errNoHTTPClient}
	}
	return nil
}

// getJSON performs a single GET through the circuit breaker and decodes the body into out.
// Every failure is returned as a *weather.ProviderError.
func (b *base) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return weather.TransportError(b.name, fmt.Errorf("create request: %w", err))
	}

	// Only transport errors, 429 and 5xx count against the breaker; other
	// statuses are the caller's problem, not the upstream's health.
	result, err := b.circuit.Execute(func() (interface{}, error) {
		resp, execErr := b.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return weather.TransportError(b.name, err)
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return weather.TransportError(b.name, fmt.Errorf("unexpected result type from circuit breaker"))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return weather.RejectedError(b.name, fmt.Errorf("%w: %d: %s", errUnexpected, resp.StatusCode, body))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return weather.MalformedError(b.name, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func fetchedAt(unix int64) time.Time {
	if unix > 0 {
		return time.Unix(unix, 0).UTC()
	}
	return time.Now().UTC()
}
