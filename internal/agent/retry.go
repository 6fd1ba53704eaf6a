package agent

import (
	"context"
	"math"
	"time"
)

// BackoffConfig controls exponential backoff between attempts of a
// transient failure. MaxRetries of 0 disables retrying.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (b BackoffConfig) delay(attempt int) time.Duration {
	d := b.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
	if b.MaxInterval > 0 && d > b.MaxInterval {
		d = b.MaxInterval
	}
	return d
}

// retry runs op until it succeeds, returns a non-transient error, the retry
// budget is spent or ctx is done. Each attempt gets its own timeout.
func (a *Agent) retry(ctx context.Context, stage string, timeout time.Duration, transient func(error) bool, op func(context.Context) error) error {
	var attempt int
	for {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		err := op(attemptCtx)
		cancel()

		if err == nil || !transient(err) || attempt >= a.backoff.MaxRetries || a.backoff.InitialInterval <= 0 {
			return err
		}

		delay := a.backoff.delay(attempt)
		a.logger.WithField("stage", stage).
			WithField("attempt", attempt+1).
			WithField("delay", delay.String()).
			WithError(err).
			Warn("transient failure, retrying")
		if a.metrics != nil {
			a.metrics.Retries.WithLabelValues(stage).Inc()
		}

		select {
		case <-ctx.Done():
			return err
		case <-a.clock.After(delay):
		}
		attempt++
	}
}
