package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/i474232898/umbrella-agent/internal/agent"
	"github.com/i474232898/umbrella-agent/internal/observability"
	"github.com/i474232898/umbrella-agent/internal/subscription"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// DefaultWorkers bounds concurrent scheduled checks.
const DefaultWorkers = 4

// Runner executes one check for a subscription.
type Runner interface {
	RunCheck(ctx context.Context, sub subscription.Subscription) agent.CheckOutcome
}

// Options configures a Scheduler. Zero values get defaults.
type Options struct {
	Location *time.Location
	Workers  int
	Clock    clockwork.Clock
	Metrics  *observability.Metrics
	Logger   logrus.FieldLogger
}

// Entry is a read-only view of one scheduled subscription.
type Entry struct {
	Subscription subscription.Subscription `json:"subscription"`
	NextRun      time.Time                 `json:"next_run"`
	LastFired    time.Time                 `json:"last_fired,omitempty"`
	Running      bool                      `json:"running"`
}

type entry struct {
	sub       subscription.Subscription
	trigger   Trigger
	lastFired time.Time
	running   bool
}

// Scheduler keeps at most one daily entry per email and dispatches due
// entries to a bounded pool of workers once per minute.
type Scheduler struct {
	mu      sync.Mutex
	entries map[string]*entry
	stopped bool

	runner  Runner
	loc     *time.Location
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  logrus.FieldLogger

	jobs     chan subscription.Subscription
	workers  sync.WaitGroup
	inflight sync.WaitGroup

	cron *gocron.Scheduler
}

// New creates a Scheduler and starts its worker pool. Call Start to begin
// ticking on the wall clock.
func New(runner Runner, opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = observability.NewDiscardLogger()
	}

	s := &Scheduler{
		entries: make(map[string]*entry),
		runner:  runner,
		loc:     opts.Location,
		clock:   opts.Clock,
		metrics: opts.Metrics,
		logger:  opts.Logger.WithField("component", "scheduler"),
		jobs:    make(chan subscription.Subscription, 64),
		cron:    gocron.NewScheduler(opts.Location),
	}
	s.startWorkers(opts.Workers)
	return s
}

func (s *Scheduler) startWorkers(n int) {
	for i := 0; i < n; i++ {
		s.workers.Add(1)
		go func() {
			defer s.workers.Done()
			for sub := range s.jobs {
				s.run(sub)
			}
		}()
	}
}

func (s *Scheduler) run(sub subscription.Subscription) {
	defer s.inflight.Done()
	defer s.finish(sub.Email)

	out := s.runner.RunCheck(context.Background(), sub)
	s.logger.WithFields(logrus.Fields{
		"email":  sub.Email,
		"status": out.Status,
	}).Debug("scheduled check finished")
}

func (s *Scheduler) finish(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[email]; ok {
		e.running = false
	}
}

// Upsert installs sub, replacing any entry for the same email. A disabled
// subscription only removes the existing entry.
func (s *Scheduler) Upsert(sub subscription.Subscription) error {
	trigger, err := DailyAt(sub.NotifyAt, s.loc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.entries[sub.Email]
	delete(s.entries, sub.Email)

	if sub.Enabled {
		e := &entry{sub: sub, trigger: trigger}
		if existed {
			// a replace must not fire twice in the same minute
			e.lastFired = prev.lastFired
			e.running = prev.running
		}
		s.entries[sub.Email] = e
	}
	s.updateGauge()

	s.logger.WithFields(logrus.Fields{
		"email":    sub.Email,
		"location": sub.Location.Key(),
		"trigger":  trigger.String(),
		"enabled":  sub.Enabled,
		"replaced": existed,
	}).Info("subscription scheduled")
	return nil
}

// Remove drops the entry for email and reports whether one existed.
func (s *Scheduler) Remove(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[email]
	delete(s.entries, email)
	s.updateGauge()
	return ok
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entries returns a snapshot of all entries ordered by email.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.view(now))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Subscription.Email < out[j].Subscription.Email
	})
	return out
}

// Get returns the entry for email.
func (s *Scheduler) Get(email string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[email]
	if !ok {
		return Entry{}, false
	}
	return e.view(s.clock.Now()), true
}

func (e *entry) view(now time.Time) Entry {
	return Entry{
		Subscription: e.sub,
		NextRun:      e.trigger.Next(now),
		LastFired:    e.lastFired,
		Running:      e.running,
	}
}

// Tick dispatches every entry due in the minute containing now that has
// not already fired in that minute and is not running. It returns the
// emails dispatched.
func (s *Scheduler) Tick(now time.Time) []string {
	minute := now.Truncate(time.Minute)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	var due []subscription.Subscription
	for _, e := range s.entries {
		if e.running || e.lastFired.Equal(minute) || !e.trigger.Due(minute) {
			continue
		}
		e.running = true
		e.lastFired = minute
		due = append(due, e.sub)
	}
	// Add before unlocking so Stop cannot close jobs underneath us.
	s.inflight.Add(len(due))
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].Email < due[j].Email })

	emails := make([]string, 0, len(due))
	for _, sub := range due {
		s.jobs <- sub
		emails = append(emails, sub.Email)
	}

	if s.metrics != nil {
		s.metrics.SchedulerTicks.Inc()
		s.metrics.DispatchedChecks.Add(float64(len(due)))
	}
	if len(due) > 0 {
		s.logger.WithField("minute", minute.In(s.loc).Format("15:04")).
			WithField("dispatched", len(due)).
			Info("dispatched due checks")
	}
	return emails
}

// Start ticks once per minute on the wall clock.
func (s *Scheduler) Start() error {
	_, err := s.cron.Cron("* * * * *").SingletonMode().Do(func() {
		s.Tick(s.clock.Now())
	})
	if err != nil {
		return fmt.Errorf("schedule minute tick: %w", err)
	}

	s.cron.StartAsync()
	s.logger.WithField("entries", s.Len()).Info("scheduler started")
	return nil
}

// Wait blocks until every dispatched check has finished.
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}

// Stop stops ticking, lets queued and running checks finish, and shuts the
// worker pool down. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.cron.Stop()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.inflight.Wait()
	close(s.jobs)
	s.workers.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) updateGauge() {
	if s.metrics != nil {
		s.metrics.Subscriptions.Set(float64(len(s.entries)))
	}
}
