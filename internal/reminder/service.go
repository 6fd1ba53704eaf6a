// Package reminder ties subscriptions, the agent and the scheduler together.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/i474232898/umbrella-agent/internal/agent"
	"github.com/i474232898/umbrella-agent/internal/common"
	"github.com/i474232898/umbrella-agent/internal/scheduler"
	"github.com/i474232898/umbrella-agent/internal/store"
	"github.com/i474232898/umbrella-agent/internal/subscription"
	"github.com/sirupsen/logrus"
)

// DefaultNotifyAt is used when a registration omits notify_at.
const DefaultNotifyAt = "07:00"

// Schedule is the part of the scheduler the service drives.
type Schedule interface {
	Upsert(sub subscription.Subscription) error
	Remove(email string) bool
	Get(email string) (scheduler.Entry, bool)
	Len() int
}

// Registration is the result of registering a subscription.
type Registration struct {
	Subscription subscription.Subscription `json:"subscription"`
	Outcome      agent.CheckOutcome        `json:"outcome"`
	NextCheckAt  *time.Time                `json:"next_check_at,omitempty"`
}

// View is a stored subscription together with its next scheduled check.
type View struct {
	subscription.Subscription
	NextCheckAt *time.Time `json:"next_check_at,omitempty"`
}

// Service registers, lists and removes subscriptions.
type Service struct {
	// mu makes store and schedule writes one replace, so the latest
	// registration for an email wins in both.
	mu sync.Mutex

	store           store.Store
	checker         scheduler.Runner
	schedule        Schedule
	defaultNotifyAt string
	logger          logrus.FieldLogger
}

func NewService(st store.Store, checker scheduler.Runner, schedule Schedule, defaultNotifyAt string, logger logrus.FieldLogger) *Service {
	if defaultNotifyAt == "" {
		defaultNotifyAt = DefaultNotifyAt
	}
	return &Service{
		store:           st,
		checker:         checker,
		schedule:        schedule,
		defaultNotifyAt: defaultNotifyAt,
		logger:          logger.WithField("component", "reminder"),
	}
}

// Register validates req, persists it (replacing any subscription with the
// same email), installs the daily entry and runs one check immediately.
// The caller waits for that check, so its latency includes one weather
// fetch and possibly one email.
func (s *Service) Register(ctx context.Context, req subscription.Request) (Registration, error) {
	valid, err := req.Validate(s.defaultNotifyAt)
	if err != nil {
		return Registration{}, err
	}

	sub, err := s.replace(ctx, subscription.Subscription{
		Email:    valid.Email,
		Location: valid.Location(),
		NotifyAt: valid.NotifyAt,
		Enabled:  true,
	})
	if err != nil {
		return Registration{}, err
	}

	outcome := s.checker.RunCheck(ctx, sub)

	s.logger.WithFields(logrus.Fields{
		"email":     sub.Email,
		"location":  sub.Location.Key(),
		"notify_at": sub.NotifyAt,
		"status":    outcome.Status,
	}).Info("subscription registered")

	return Registration{Subscription: sub, Outcome: outcome, NextCheckAt: s.nextCheck(sub.Email)}, nil
}

func (s *Service) replace(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.store.Upsert(ctx, sub)
	if err != nil {
		return subscription.Subscription{}, fmt.Errorf("save subscription: %w", err)
	}
	if err := s.schedule.Upsert(saved); err != nil {
		return subscription.Subscription{}, fmt.Errorf("schedule subscription: %w", err)
	}
	return saved, nil
}

// Remove deletes the subscription and its scheduler entry.
func (s *Service) Remove(ctx context.Context, email string) error {
	email = common.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, email); err != nil {
		return err
	}
	s.schedule.Remove(email)
	s.logger.WithField("email", email).Info("subscription removed")
	return nil
}

func (s *Service) List(ctx context.Context) ([]View, error) {
	subs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(subs))
	for _, sub := range subs {
		views = append(views, View{Subscription: sub, NextCheckAt: s.nextCheck(sub.Email)})
	}
	return views, nil
}

func (s *Service) Get(ctx context.Context, email string) (View, error) {
	sub, err := s.store.Get(ctx, common.NormalizeEmail(email))
	if err != nil {
		return View{}, err
	}
	return View{Subscription: sub, NextCheckAt: s.nextCheck(sub.Email)}, nil
}

// CheckNow runs an immediate check for an existing subscription.
func (s *Service) CheckNow(ctx context.Context, email string) (agent.CheckOutcome, error) {
	sub, err := s.store.Get(ctx, common.NormalizeEmail(email))
	if err != nil {
		return agent.CheckOutcome{}, err
	}
	return s.checker.RunCheck(ctx, sub), nil
}

// Restore schedules every stored subscription without running a check.
func (s *Service) Restore(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load subscriptions: %w", err)
	}
	var errs []error
	for _, sub := range subs {
		if err := s.schedule.Upsert(sub); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sub.Email, err))
		}
	}
	n := s.schedule.Len()
	s.logger.WithField("scheduled", n).Info("subscriptions restored")
	return n, errors.Join(errs...)
}

// Seed registers each request. Invalid entries are logged and skipped.
func (s *Service) Seed(ctx context.Context, reqs []subscription.Request) int {
	var n int
	for _, req := range reqs {
		if _, err := s.Register(ctx, req); err != nil {
			s.logger.WithError(err).WithField("email", req.Email).Warn("skipping seed subscription")
			continue
		}
		n++
	}
	return n
}

// Count returns the number of scheduled subscriptions.
func (s *Service) Count() int {
	return s.schedule.Len()
}

func (s *Service) nextCheck(email string) *time.Time {
	e, ok := s.schedule.Get(email)
	if !ok {
		return nil
	}
	next := e.NextRun
	return &next
}

// IsNotFound reports whether err means the subscription does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
