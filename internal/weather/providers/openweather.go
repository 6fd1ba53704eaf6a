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

// OpenWeatherBaseURL is the current-conditions endpoint of OpenWeatherMap.
const OpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	base
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...Option) *OpenWeatherProvider {
	return &OpenWeatherProvider{base: newBase("openweathermap", apiKey, OpenWeatherBaseURL, client, opts)}
}

// openWeatherPayload uses pointers so absent fields can be told apart from zero values.
type openWeatherPayload struct {
	Dt      int64 `json:"dt"`
	Weather []struct {
		Main        *string `json:"main"`
		Description *string `json:"description"`
	} `json:"weather"`
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Snapshot, error) {
	if err := p.checkInput(loc); err != nil {
		return weather.Snapshot{}, err
	}

	values := url.Values{}
	values.Set("q", loc.Query())
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")

	var payload openWeatherPayload
	if err := p.getJSON(ctx, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), &payload); err != nil {
		return weather.Snapshot{}, err
	}

	if err := payload.validate(); err != nil {
		return weather.Snapshot{}, weather.MalformedError(p.name, err)
	}

	main := *payload.Weather[0].Main
	return weather.Snapshot{
		Location:        loc,
		Condition:       weather.Categorize(main + " " + *payload.Weather[0].Description),
		Main:            strings.ToLower(main),
		Description:     *payload.Weather[0].Description,
		Temperature:     *payload.Main.Temp,
		Humidity:        int(math.Round(*payload.Main.Humidity)),
		RainProbability: weather.CloudsToRainProbability(payload.Clouds.All),
		Provider:        p.name,
		FetchedAt:       fetchedAt(payload.Dt),
	}, nil
}

// validate checks the fields the snapshot needs. clouds is optional and defaults to 0.
func (pl *openWeatherPayload) validate() error {
	switch {
	case len(pl.Weather) == 0:
		return errors.New("missing weather[0]")
	case pl.Weather[0].Main == nil:
		return errors.New("missing weather[0].main")
	case pl.Weather[0].Description == nil:
		return errors.New("missing weather[0].description")
	case pl.Main == nil:
		return errors.New("missing main")
	case pl.Main.Temp == nil:
		return errors.New("missing main.temp")
	case pl.Main.Humidity == nil:
		return errors.New("missing main.humidity")
	}
	return nil
}
