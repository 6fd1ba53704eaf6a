package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Trigger fires once a day at a fixed wall-clock time in a time zone.
type Trigger struct {
	at       string
	schedule *cron.SpecSchedule
}

// DailyAt parses "HH:MM" into a trigger evaluated in loc.
func DailyAt(at string, loc *time.Location) (Trigger, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return Trigger{}, fmt.Errorf("invalid daily time %q: %w", at, err)
	}
	if loc == nil {
		loc = time.Local
	}

	parsed, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()))
	if err != nil {
		return Trigger{}, fmt.Errorf("build schedule for %q: %w", at, err)
	}
	spec, ok := parsed.(*cron.SpecSchedule)
	if !ok {
		return Trigger{}, fmt.Errorf("unexpected schedule type %T", parsed)
	}
	spec.Location = loc
	return Trigger{at: at, schedule: spec}, nil
}

// Due reports whether the trigger fires in the minute starting at minute.
func (t Trigger) Due(minute time.Time) bool {
	minute = minute.Truncate(time.Minute)
	return t.schedule.Next(minute.Add(-time.Second)).Equal(minute)
}

// Next returns the first firing strictly after after.
func (t Trigger) Next(after time.Time) time.Time {
	return t.schedule.Next(after)
}

func (t Trigger) String() string {
	return "daily at " + t.at + " " + t.schedule.Location.String()
}
