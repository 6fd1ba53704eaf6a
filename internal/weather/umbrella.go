package weather

import "github.com/i474232898/umbrella-agent/internal/common"

const (
	// DefaultRainThreshold is the rain probability above which an umbrella is recommended.
	DefaultRainThreshold = 0.3

	reasonNoData = "Unable to fetch weather data"
)

// DefaultRainKeywords are matched against the lower-cased condition text.
var DefaultRainKeywords = []string{"rain", "drizzle", "thunderstorm", "shower"}

// Recommendation is the outcome of the umbrella rule.
type Recommendation struct {
	NeedsUmbrella bool   `json:"needsUmbrella"`
	Reason        string `json:"reason"`
}

// UmbrellaRule decides whether a snapshot warrants carrying an umbrella.
// The zero value is not useful; use DefaultUmbrellaRule or set both fields.
type UmbrellaRule struct {
	RainThreshold float64
	Keywords      []string
}

// DefaultUmbrellaRule returns the rule with the default threshold and keywords.
func DefaultUmbrellaRule() UmbrellaRule {
	kw := make([]string, len(DefaultRainKeywords))
	copy(kw, DefaultRainKeywords)
	return UmbrellaRule{RainThreshold: DefaultRainThreshold, Keywords: kw}
}

// Decide evaluates the rule; first match wins:
// no data, rain keyword in condition, probability above threshold, clear.
func (r UmbrellaRule) Decide(s *Snapshot) Recommendation {
	if s == nil {
		return Recommendation{NeedsUmbrella: false, Reason: reasonNoData}
	}
	if common.HasAny(s.Main, r.Keywords...) {
		return Recommendation{NeedsUmbrella: true, Reason: "It's currently " + s.Description}
	}
	if s.RainProbability > r.RainThreshold {
		return Recommendation{NeedsUmbrella: true, Reason: "High chance of rain - " + s.Description}
	}
	return Recommendation{NeedsUmbrella: false, Reason: "Clear weather - " + s.Description}
}
