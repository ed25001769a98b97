package run

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"arstatements/internal/logger"
	"arstatements/internal/statement"
)

// Scheduler triggers a run once a day at a fixed time on selected weekdays.
type Scheduler struct {
	runner   *Runner
	spec     string
	schedule cron.Schedule
	location *time.Location
	log      zerolog.Logger
}

// NewScheduler parses dailyAt ("06:00") and days ("L-K-M-J-V") into a cron
// schedule evaluated in loc (time.Local when nil).
func NewScheduler(runner *Runner, dailyAt, days string, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	spec, err := CronSpec(dailyAt, days)
	if err != nil {
		return nil, err
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	if s, ok := schedule.(*cron.SpecSchedule); ok {
		s.Location = loc
	}
	return &Scheduler{
		runner:   runner,
		spec:     spec,
		schedule: schedule,
		location: loc,
		log:      logger.WithComponent("scheduler"),
	}, nil
}

// CronSpec translates a daily time and hyphen-delimited weekday codes into a
// standard five-field cron spec, e.g. "06:00" + "L-K-M-J-V" → "0 6 * * 1,2,3,4,5".
func CronSpec(dailyAt, days string) (string, error) {
	at, err := time.Parse("15:04", strings.TrimSpace(dailyAt))
	if err != nil {
		return "", fmt.Errorf("invalid schedule time %q: %w", dailyAt, err)
	}

	seen := make(map[time.Weekday]bool)
	var dow []int
	for _, part := range strings.Split(days, "-") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		code, err := statement.ParseWeekday(part)
		if err != nil {
			return "", fmt.Errorf("invalid schedule days %q: %w", days, err)
		}
		day, _ := code.Time()
		if !seen[day] {
			seen[day] = true
			dow = append(dow, int(day))
		}
	}
	if len(dow) == 0 {
		return "", fmt.Errorf("invalid schedule days %q: no day selected", days)
	}
	sort.Ints(dow)

	fields := make([]string, len(dow))
	for i, d := range dow {
		fields[i] = strconv.Itoa(d)
	}
	return fmt.Sprintf("%d %d * * %s", at.Minute(), at.Hour(), strings.Join(fields, ",")), nil
}

// Spec returns the cron spec the scheduler runs on.
func (s *Scheduler) Spec() string {
	return s.spec
}

// ShouldRun reports whether the minute containing now is scheduled.
func (s *Scheduler) ShouldRun(now time.Time) bool {
	minute := now.Truncate(time.Minute)
	return s.schedule.Next(minute.Add(-time.Second)).Equal(minute)
}

// Start blocks until ctx is done, running the runner on schedule. A running
// job is allowed to finish before Start returns.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.runner == nil {
		return
	}
	c := cron.New(cron.WithLocation(s.location))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		s.runOnce(ctx, time.Now().In(s.location))
	}))
	c.Start()

	s.log.Info().
		Str("spec", s.spec).
		Str("location", s.location.String()).
		Time("next", s.schedule.Next(time.Now())).
		Msg("Scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context, now time.Time) {
	stats, err := s.runner.Run(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("Scheduled run failed")
		return
	}
	s.log.Info().
		Str("run_id", stats.RunID).
		Int("clients", stats.ClientsProcessed).
		Dur("duration", stats.Duration).
		Msg("Scheduled run completed")
}
