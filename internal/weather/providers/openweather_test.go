package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/umbrella-agent/internal/weather"
)

const testAPIKey = "test-key"

var mainz = weather.Location{City: "Mainz", Country: "DE"}

func newOpenWeather(t *testing.T, handler http.HandlerFunc) (*OpenWeatherProvider, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := &http.Client{Timeout: 2 * time.Second}
	return NewOpenWeatherProvider(client, testAPIKey, WithBaseURL(srv.URL)), &calls
}

func requireProviderError(t *testing.T, err error, reason string) *weather.ProviderError {
	t.Helper()
	var pe *weather.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, reason, pe.Reason)
	return pe
}

func TestOpenWeather_Fetch_Success(t *testing.T) {
	p, calls := newOpenWeather(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Mainz,DE", q.Get("q"))
		assert.Equal(t, testAPIKey, q.Get("appid"))
		assert.Equal(t, "metric", q.Get("units"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"dt": 1700000000,
			"weather": [{"main": "Rain", "description": "light rain"}],
			"main": {"temp": 15.2, "humidity": 80},
			"clouds": {"all": 75}
		}`))
	})

	snap, err := p.Fetch(context.Background(), mainz)
	require.NoError(t, err)

	assert.Equal(t, int32(1), *calls)
	assert.Equal(t, mainz, snap.Location)
	assert.Equal(t, "rain", snap.Main)
	assert.Equal(t, "light rain", snap.Description)
	assert.Equal(t, weather.ConditionRain, snap.Condition)
	assert.Equal(t, 15.2, snap.Temperature)
	assert.Equal(t, 80, snap.Humidity)
	assert.Equal(t, 0.75, snap.RainProbability)
	assert.Equal(t, "openweathermap", snap.Provider)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), snap.FetchedAt)
}

func TestOpenWeather_Fetch_MissingCloudsDefaultsToZero(t *testing.T) {
	p, _ := newOpenWeather(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"weather":[{"main":"Clear","description":"clear sky"}],"main":{"temp":25,"humidity":30}}`))
	})

	snap, err := p.Fetch(context.Background(), mainz)
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.RainProbability)
	assert.Equal(t, weather.ConditionClear, snap.Condition)
}

func TestOpenWeather_Fetch_Malformed(t *testing.T) {
	bodies := map[string]string{
		"not json":            `<html>oops</html>`,
		"empty weather":       `{"weather":[],"main":{"temp":1,"humidity":2}}`,
		"missing main":        `{"weather":[{"main":"Rain","description":"rain"}]}`,
		"missing temp":        `{"weather":[{"main":"Rain","description":"rain"}],"main":{"humidity":2}}`,
		"missing humidity":    `{"weather":[{"main":"Rain","description":"rain"}],"main":{"temp":2}}`,
		"missing description": `{"weather":[{"main":"Rain"}],"main":{"temp":1,"humidity":2}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			p, _ := newOpenWeather(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := p.Fetch(context.Background(), mainz)
			pe := requireProviderError(t, err, weather.ReasonMalformed)
			assert.False(t, pe.Transient())
		})
	}
}

func TestOpenWeather_Fetch_HTTPStatusIsTransportFailure(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusTooManyRequests, http.StatusBadGateway} {
		p, calls := newOpenWeather(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		})
		_, err := p.Fetch(context.Background(), mainz)
		pe := requireProviderError(t, err, weather.ReasonTransport)
		assert.Equal(t, int32(1), *calls, "no retries in the provider layer (status %d)", status)

		wantTransient := status == http.StatusTooManyRequests || status >= 500
		assert.Equal(t, wantTransient, pe.Transient(), "status %d", status)
	}
}

func TestOpenWeather_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(&http.Client{Timeout: 50 * time.Millisecond}, testAPIKey, WithBaseURL(srv.URL))
	_, err := p.Fetch(context.Background(), mainz)
	pe := requireProviderError(t, err, weather.ReasonTransport)
	assert.True(t, pe.Transient())
}

func TestOpenWeather_Fetch_InvalidInputMakesNoRequest(t *testing.T) {
	p, calls := newOpenWeather(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := p.Fetch(context.Background(), weather.Location{City: "", Country: "DE"})
	requireProviderError(t, err, weather.ReasonInvalidLocation)

	noKey := NewOpenWeatherProvider(http.DefaultClient, "", WithBaseURL(p.baseURL))
	_, err = noKey.Fetch(context.Background(), mainz)
	requireProviderError(t, err, weather.ReasonNotConfigured)

	assert.Equal(t, int32(0), *calls)
}
