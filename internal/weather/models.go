package weather

import (
	"strings"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionClear        Condition = "clear"
	ConditionRain         Condition = "rain"
	ConditionDrizzle      Condition = "drizzle"
	ConditionThunderstorm Condition = "thunderstorm"
	ConditionShower       Condition = "shower"
	ConditionOther        Condition = "other"
)

// Location represents a logical place for which we check weather.
// City/Country must be provided; Country is an ISO 3166 alpha-2 code.
type Location struct {
	City    string `json:"city" yaml:"city"`
	Country string `json:"country_code" yaml:"country_code"`
}

// Key returns a canonical string key for this location.
func (l Location) Key() string {
	return l.City + ":" + l.Country
}

// Query returns the "city,CC" form accepted by the providers.
func (l Location) Query() string {
	if l.Country == "" {
		return l.City
	}
	return l.City + "," + l.Country
}

// Valid reports whether the location has a city and a two-letter country code.
func (l Location) Valid() bool {
	if strings.TrimSpace(l.City) == "" || len(l.Country) != 2 {
		return false
	}
	for _, r := range l.Country {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// Snapshot is the normalized weather reading at a point in time.
// It is fetched fresh for every check and never stored.
type Snapshot struct {
	Location  Location  `json:"location"`
	Condition Condition `json:"condition"`
	// Main is the lower-cased provider condition text, used for keyword matching.
	Main string `json:"main"`
	// Description is the provider's display text, kept as returned.
	Description     string    `json:"description"`
	Temperature     float64   `json:"temperatureC"`
	Humidity        int       `json:"humidityPercent"`
	RainProbability float64   `json:"rainProbability"` // cloud coverage as a 0..1 proxy
	Provider        string    `json:"provider"`
	FetchedAt       time.Time `json:"fetchedAt"` // always UTC
}

// Categorize maps provider condition text to a Condition.
func Categorize(text string) Condition {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "thunder"):
		return ConditionThunderstorm
	case strings.Contains(t, "drizzle"):
		return ConditionDrizzle
	case strings.Contains(t, "shower"):
		return ConditionShower
	case strings.Contains(t, "rain"):
		return ConditionRain
	case strings.Contains(t, "clear"), strings.Contains(t, "sunny"):
		return ConditionClear
	default:
		return ConditionOther
	}
}

// CloudsToRainProbability converts a cloud coverage percentage into a 0..1 value.
func CloudsToRainProbability(cloudPct float64) float64 {
	switch {
	case cloudPct <= 0:
		return 0
	case cloudPct >= 100:
		return 1
	default:
		return cloudPct / 100
	}
}
