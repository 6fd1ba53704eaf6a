package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/umbrella-agent/internal/weather"
)

type stubProvider struct {
	name  string
	snap  weather.Snapshot
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(_ context.Context, _ weather.Location) (weather.Snapshot, error) {
	s.calls++
	return s.snap, s.err
}

func TestChain_FallsBackOnFailure(t *testing.T) {
	first := &stubProvider{name: "a", err: weather.TransportError("a", errors.New("down"))}
	second := &stubProvider{name: "b", snap: weather.Snapshot{Provider: "b"}}

	c := NewChain(first, second)
	snap, err := c.Fetch(context.Background(), mainz)
	require.NoError(t, err)
	assert.Equal(t, "b", snap.Provider)
	assert.Equal(t, "a>b", c.Name())
}

func TestChain_ReturnsLastError(t *testing.T) {
	first := &stubProvider{name: "a", err: weather.TransportError("a", errors.New("down"))}
	second := &stubProvider{name: "b", err: weather.MalformedError("b", errors.New("bad"))}

	_, err := NewChain(first, second).Fetch(context.Background(), mainz)
	requireProviderError(t, err, weather.ReasonMalformed)
}

func TestChain_InvalidLocationStops(t *testing.T) {
	first := &stubProvider{name: "a", err: &weather.ProviderError{Reason: weather.ReasonInvalidLocation}}
	second := &stubProvider{name: "b"}

	_, err := NewChain(first, second).Fetch(context.Background(), mainz)
	requireProviderError(t, err, weather.ReasonInvalidLocation)
	assert.Equal(t, 0, second.calls)
}

func TestChain_Empty(t *testing.T) {
	_, err := NewChain().Fetch(context.Background(), mainz)
	requireProviderError(t, err, weather.ReasonNotConfigured)
}
