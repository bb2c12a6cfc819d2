package warm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/rwhitmore/realtyops/settings"
)

// Interval is the warming recurrence.
type Interval string

const (
	Hourly     Interval = "hourly"
	TwiceDaily Interval = "twicedaily"
	Daily      Interval = "daily"
	Weekly     Interval = "weekly"
)

// ParseInterval validates an interval name from settings.
func ParseInterval(s string) (Interval, error) {
	switch Interval(s) {
	case Hourly, TwiceDaily, Daily, Weekly:
		return Interval(s), nil
	}
	return "", fmt.Errorf("warm: unknown interval %q", s)
}

// Scheduler installs a single recurring warming trigger. Re-scheduling first
// clears the existing trigger, so there is never more than one.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger

	mu        sync.Mutex
	entry     cron.EntryID
	scheduled bool
}

// NewScheduler creates a scheduler firing in the given location.
func NewScheduler(loc *time.Location, logger zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		logger: logger,
	}
}

// Schedule installs job at the next wall-clock occurrence of hour:minute for
// the interval; an occurrence already past advances by one interval unit.
// Idempotent: any existing trigger is removed first.
func (s *Scheduler) Schedule(interval Interval, hour, minute int, job func()) error {
	spec, err := cronSpec(interval, hour, minute)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduled {
		s.cron.Remove(s.entry)
		s.scheduled = false
	}

	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("warm: schedule: %w", err)
	}
	s.entry = id
	s.scheduled = true

	s.logger.Info().
		Str("interval", string(interval)).
		Str("spec", spec).
		Msg("warm: schedule installed")
	return nil
}

// ScheduleFromSettings installs job per the warming fields in cfg.
func (s *Scheduler) ScheduleFromSettings(cfg *settings.Settings, job func()) error {
	interval, err := ParseInterval(cfg.WarmingSchedule)
	if err != nil {
		return err
	}
	return s.Schedule(interval, cfg.WarmingHour, cfg.WarmingMinute, job)
}

// Start begins firing triggers. Safe to call once.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts triggering and waits for a running job to finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Next returns the next scheduled run, zero when nothing is scheduled or the
// scheduler has not started.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scheduled {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// cronSpec maps an interval and wall-clock time onto a cron expression.
// Hourly fires at the given minute of every hour; twicedaily adds a second
// firing twelve hours after the configured hour.
func cronSpec(interval Interval, hour, minute int) (string, error) {
	if hour < 0 || hour > 23 {
		return "", fmt.Errorf("warm: hour %d out of range", hour)
	}
	if minute < 0 || minute > 59 {
		return "", fmt.Errorf("warm: minute %d out of range", minute)
	}

	switch interval {
	case Hourly:
		return fmt.Sprintf("%d * * * *", minute), nil
	case TwiceDaily:
		second := (hour + 12) % 24
		first := hour
		if second < first {
			first, second = second, first
		}
		return fmt.Sprintf("%d %d,%d * * *", minute, first, second), nil
	case Daily:
		return fmt.Sprintf("%d %d * * *", minute, hour), nil
	case Weekly:
		return fmt.Sprintf("%d %d * * 0", minute, hour), nil
	}
	return "", fmt.Errorf("warm: unknown interval %q", interval)
}
