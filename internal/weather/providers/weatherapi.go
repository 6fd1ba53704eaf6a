package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/i474232898/umbrella-agent/internal/weather"
)

// WeatherAPIBaseURL is the current-conditions endpoint of WeatherAPI.com.
const WeatherAPIBaseURL = "https://api.weatherapi.com/v1/current.json"

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	base
}

func NewWeatherAPIProvider(client *http.Client, apiKey string, opts ...Option) *WeatherAPIProvider {
	return &WeatherAPIProvider{base: newBase("weatherapi", apiKey, WeatherAPIBaseURL, client, opts)}
}

type weatherAPIPayload struct {
	Location struct {
		LocaltimeEpoch int64 `json:"localtime_epoch"`
	} `json:"location"`
	Current *struct {
		TempC     *float64 `json:"temp_c"`
		Humidity  *float64 `json:"humidity"`
		Cloud     float64  `json:"cloud"`
		Condition *struct {
			Text *string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Snapshot, error) {
	if err := p.checkInput(loc); err != nil {
		return weather.Snapshot{}, err
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	// WeatherAPI accepts "city,country" for q.
	values.Set("q", loc.Query())

	var payload weatherAPIPayload
	if err := p.getJSON(ctx, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), &payload); err != nil {
		return weather.Snapshot{}, err
	}

	cur := payload.Current
	switch {
	case cur == nil:
		return weather.Snapshot{}, weather.MalformedError(p.name, errors.New("missing current"))
	case cur.Condition == nil || cur.Condition.Text == nil:
		return weather.Snapshot{}, weather.MalformedError(p.name, errors.New("missing current.condition.text"))
	case cur.TempC == nil:
		return weather.Snapshot{}, weather.MalformedError(p.name, errors.New("missing current.temp_c"))
	case cur.Humidity == nil:
		return weather.Snapshot{}, weather.MalformedError(p.name, errors.New("missing current.humidity"))
	}

	text := strings.TrimSpace(*cur.Condition.Text)
	return weather.Snapshot{
		Location:        loc,
		Condition:       weather.Categorize(text),
		Main:            strings.ToLower(text),
		Description:     text,
		Temperature:     *cur.TempC,
		Humidity:        int(math.Round(*cur.Humidity)),
		RainProbability: weather.CloudsToRainProbability(cur.Cloud),
		Provider:        p.name,
		FetchedAt:       fetchedAt(payload.Location.LocaltimeEpoch),
	}, nil
}
