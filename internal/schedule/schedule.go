// Package schedule fires periodic regeneration triggers.
package schedule

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps a gocron scheduler running a single regeneration job.
type Scheduler struct {
	scheduler gocron.Scheduler
	jobID     string
}

// New schedules trigger according to spec, which is either a Go duration
// ("10m") or a five-field cron expression ("*/10 * * * *").
func New(spec string, trigger func()) (*Scheduler, error) {
	def, err := definition(spec)
	if err != nil {
		return nil, err
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	job, err := s.NewJob(def,
		gocron.NewTask(trigger),
		gocron.WithName("regenerate"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create regeneration job: %w", err)
	}
	return &Scheduler{scheduler: s, jobID: job.ID().String()}, nil
}

func definition(spec string) (gocron.JobDefinition, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("empty schedule")
	}
	if d, err := time.ParseDuration(spec); err == nil {
		if d <= 0 {
			return nil, fmt.Errorf("schedule interval must be positive, got %s", spec)
		}
		return gocron.DurationJob(d), nil
	}
	if len(strings.Fields(spec)) != 5 {
		return nil, fmt.Errorf("schedule %q is neither a duration nor a cron expression", spec)
	}
	return gocron.CronJob(spec, false), nil
}

func (s *Scheduler) JobID() string { return s.jobID }

// NextRun reports when the job fires next.
func (s *Scheduler) NextRun() (time.Time, error) {
	for _, j := range s.scheduler.Jobs() {
		if j.ID().String() == s.jobID {
			return j.NextRun()
		}
	}
	return time.Time{}, fmt.Errorf("job %s not found", s.jobID)
}

func (s *Scheduler) Start() {
	slog.Info("Starting regeneration scheduler", slog.String("job_id", s.jobID))
	s.scheduler.Start()
}

func (s *Scheduler) Stop() error {
	slog.Info("Stopping regeneration scheduler")
	return s.scheduler.Shutdown()
}
