// Package schedule changes what the clock shows at times given as cron
// expressions.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/BeatGlow/wallclock/internal/clock"
	"github.com/BeatGlow/wallclock/internal/config"
	"github.com/BeatGlow/wallclock/internal/metrics"
)

// Actions
const (
	ActionMessage   = "message"
	ActionClear     = "clear"
	ActionCountdown = "countdown"
)

// Scheduler runs the configured entries against a clock state.
type Scheduler struct {
	cron  *cron.Cron
	state *clock.State
	now   func() time.Time
}

// New parses entries with the standard five field cron syntax, evaluated in loc.
func New(state *clock.State, entries []config.Schedule, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	logger := cronLogger{slog.Default().With("component", "schedule")}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger)),
		),
		state: state,
		now:   time.Now,
	}
	for i, entry := range entries {
		if err := validate(entry); err != nil {
			return nil, fmt.Errorf("schedule: entry %d: %w", i, err)
		}
		if _, err := s.cron.AddFunc(entry.Cron, func() { s.Apply(entry) }); err != nil {
			return nil, fmt.Errorf("schedule: entry %d: %q: %w", i, entry.Cron, err)
		}
	}
	return s, nil
}

func validate(entry config.Schedule) error {
	switch entry.Action {
	case ActionMessage:
		if entry.Text == "" {
			return fmt.Errorf("%s without text", entry.Action)
		}
	case ActionCountdown:
		if entry.Seconds <= 0 {
			return fmt.Errorf("%s needs a positive number of seconds", entry.Action)
		}
	case ActionClear:
	default:
		return fmt.Errorf("unknown action %q", entry.Action)
	}
	return nil
}

// Len returns the number of scheduled entries.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Apply performs the action of entry right away.
func (s *Scheduler) Apply(entry config.Schedule) {
	switch entry.Action {
	case ActionMessage:
		s.state.SetMessage(clock.Message{
			Colour: clock.RGB(entry.RGB),
			Text:   entry.Text,
			Height: entry.Height,
			Flash:  time.Duration(entry.Flash) * time.Millisecond,
		})
	case ActionClear:
		s.state.Clear()
	case ActionCountdown:
		s.state.SetCountdown(s.now().Add(time.Duration(entry.Seconds) * time.Second))
	default:
		return
	}
	metrics.ScheduleRuns.WithLabelValues(entry.Action).Inc()
	slog.Info("schedule: ran", "action", entry.Action, "cron", entry.Cron)
}

// Run starts the scheduler and stops it when ctx is done, waiting for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "schedule: starting", "entries", s.Len(), "location", s.cron.Location())
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

// cronLogger hands cron's own logging to slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
