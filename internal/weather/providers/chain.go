package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/i474232898/umbrella-agent/internal/weather"
)

// Chain tries each provider in order and returns the first snapshot.
// An invalid location short-circuits, since no provider can answer it.
type Chain struct {
	providers []weather.Provider
}

func NewChain(providers ...weather.Provider) *Chain {
	return &Chain{providers: providers}
}

func (c *Chain) Name() string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return strings.Join(names, ">")
}

func (c *Chain) Fetch(ctx context.Context, loc weather.Location) (weather.Snapshot, error) {
	if len(c.providers) == 0 {
		return weather.Snapshot{}, &weather.ProviderError{Reason: weather.ReasonNotConfigured, Err: errors.New("no weather providers configured")}
	}

	var lastErr error
	for _, p := range c.providers {
		snap, err := p.Fetch(ctx, loc)
		if err == nil {
			return snap, nil
		}
		lastErr = err

		var pe *weather.ProviderError
		if errors.As(err, &pe) && pe.Reason == weather.ReasonInvalidLocation {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return weather.Snapshot{}, lastErr
}
