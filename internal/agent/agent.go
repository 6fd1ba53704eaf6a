// Package agent runs a single umbrella check: fetch the weather, apply the
// umbrella rule and email a reminder when one is warranted.
package agent

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/i474232898/umbrella-agent/internal/events"
	"github.com/i474232898/umbrella-agent/internal/notify"
	"github.com/i474232898/umbrella-agent/internal/observability"
	"github.com/i474232898/umbrella-agent/internal/subscription"
	"github.com/i474232898/umbrella-agent/internal/weather"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultSendTimeout  = 10 * time.Second

	publishTimeout = 5 * time.Second
)

// Config holds the tunables of an Agent.
type Config struct {
	FetchTimeout time.Duration
	SendTimeout  time.Duration
	Rule         weather.UmbrellaRule
	Retry        BackoffConfig
}

// Option customizes an Agent.
type Option func(*Agent)

// WithPublisher publishes every outcome to p.
func WithPublisher(p events.Publisher) Option {
	return func(a *Agent) { a.publisher = p }
}

// WithMetrics records outcomes in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// WithClock overrides the time source.
func WithClock(c clockwork.Clock) Option {
	return func(a *Agent) { a.clock = c }
}

// Agent composes a weather provider, the umbrella rule and a sender.
// It keeps no state between checks and is safe for concurrent use.
type Agent struct {
	provider     weather.Provider
	sender       notify.Sender
	rule         weather.UmbrellaRule
	fetchTimeout time.Duration
	sendTimeout  time.Duration
	backoff      BackoffConfig

	publisher events.Publisher
	metrics   *observability.Metrics
	clock     clockwork.Clock
	logger    logrus.FieldLogger
}

func NewAgent(provider weather.Provider, sender notify.Sender, cfg Config, logger logrus.FieldLogger, opts ...Option) *Agent {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	if len(cfg.Rule.Keywords) == 0 && cfg.Rule.RainThreshold == 0 {
		cfg.Rule = weather.DefaultUmbrellaRule()
	}

	a := &Agent{
		provider:     provider,
		sender:       sender,
		rule:         cfg.Rule,
		fetchTimeout: cfg.FetchTimeout,
		sendTimeout:  cfg.SendTimeout,
		backoff:      cfg.Retry,
		publisher:    events.Noop{},
		clock:        clockwork.NewRealClock(),
		logger:       logger.WithField("component", "agent"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RunCheck performs one complete check for sub. Failures are reported in
// the returned outcome and never escape as errors or panics.
func (a *Agent) RunCheck(ctx context.Context, sub subscription.Subscription) CheckOutcome {
	start := a.clock.Now()
	out := CheckOutcome{
		RunID:     uuid.NewString(),
		Email:     sub.Email,
		Location:  sub.Location,
		CheckedAt: start.UTC(),
	}

	a.check(ctx, sub, &out)

	a.record(out, a.clock.Since(start))
	a.publish(ctx, out)
	return out
}

func (a *Agent) check(ctx context.Context, sub subscription.Subscription, out *CheckOutcome) {
	snap, err := a.fetch(ctx, sub.Location)
	if err != nil {
		out.Status = StatusWeatherFetchFailed
		out.Reason = a.rule.Decide(nil).Reason
		var pe *weather.ProviderError
		if errors.As(err, &pe) {
			out.Reason += ": " + pe.Reason
		}
		out.Error = err.Error()
		return
	}
	out.Weather = &snap

	rec := a.rule.Decide(&snap)
	out.Reason = rec.Reason
	if !rec.NeedsUmbrella {
		out.Status = StatusSkipped
		return
	}

	msg, err := composeReminder(sub.Email, &snap, rec, a.clock.Now())
	if err != nil {
		out.Status = StatusNotifyFailed
		out.ErrorKind = string(notify.KindRejected)
		out.Error = err.Error()
		return
	}

	ack, err := a.send(ctx, msg)
	if err != nil {
		out.Status = StatusNotifyFailed
		out.ErrorKind = string(notify.Classify(err).Kind)
		out.Error = err.Error()
		return
	}
	out.Status = StatusNotified
	out.Notified = true
	out.MessageID = ack.MessageID
}

func (a *Agent) fetch(ctx context.Context, loc weather.Location) (weather.Snapshot, error) {
	var snap weather.Snapshot
	err := a.retry(ctx, "fetch", a.fetchTimeout, weather.IsTransient, func(ctx context.Context) error {
		start := a.clock.Now()
		s, err := a.provider.Fetch(ctx, loc)
		a.observeFetch(a.clock.Since(start), err)
		if err != nil {
			return err
		}
		snap = s
		return nil
	})
	return snap, err
}

func (a *Agent) send(ctx context.Context, msg notify.Message) (notify.Ack, error) {
	var ack notify.Ack
	err := a.retry(ctx, "send", a.sendTimeout, notify.IsTransient, func(ctx context.Context) error {
		ac, err := a.sender.Send(ctx, msg)
		if err != nil {
			return err
		}
		ack = ac
		return nil
	})
	return ack, err
}

func (a *Agent) observeFetch(d time.Duration, err error) {
	if a.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	a.metrics.WeatherFetchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (a *Agent) record(out CheckOutcome, d time.Duration) {
	entry := a.logger.WithFields(logrus.Fields{
		"run_id":   out.RunID,
		"email":    out.Email,
		"location": out.Location.Key(),
		"status":   out.Status,
		"reason":   out.Reason,
	})
	switch out.Status {
	case StatusNotified, StatusSkipped:
		entry.Info("check completed")
	default:
		entry.WithField("error_kind", out.ErrorKind).WithField("error", out.Error).Warn("check failed")
	}

	if a.metrics == nil {
		return
	}
	a.metrics.ChecksTotal.WithLabelValues(string(out.Status)).Inc()
	a.metrics.CheckDuration.Observe(d.Seconds())
	switch out.Status {
	case StatusNotified:
		a.metrics.DeliveriesTotal.WithLabelValues("sent").Inc()
	case StatusNotifyFailed:
		a.metrics.DeliveriesTotal.WithLabelValues(out.ErrorKind).Inc()
	}
}

// publish is best effort; a sink failure never changes the outcome.
func (a *Agent) publish(ctx context.Context, out CheckOutcome) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := a.publisher.Publish(ctx, out.event()); err != nil {
		a.logger.WithError(err).WithField("run_id", out.RunID).Warn("publish check event failed")
		if a.metrics != nil {
			a.metrics.EventsPublishErrors.Inc()
		}
	}
}
