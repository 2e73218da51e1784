package worker

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/iabalyuk/gorzdravbot/logging"
)

// Sweepable is an in-memory store with expiring entries.
type Sweepable interface {
	Sweep() int
}

// Sweeper periodically drops expired conversation states and button pages.
type Sweeper struct {
	scheduler gocron.Scheduler
	targets   map[string]Sweepable
	logger    *logging.Logger
}

// NewSweeper schedules a sweep of every target each interval. Call Start to
// begin and Stop to shut the scheduler down.
func NewSweeper(interval time.Duration, targets map[string]Sweepable, logger *logging.Logger, clock clockwork.Clock) (*Sweeper, error) {
	if logger == nil {
		logger = logging.Default()
	}
	var opts []gocron.SchedulerOption
	if clock != nil {
		opts = append(opts, gocron.WithClock(clock))
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	sw := &Sweeper{scheduler: s, targets: targets, logger: logger.With("component", "sweeper")}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(sw.SweepOnce),
		gocron.WithName("sweep-caches"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to schedule sweep job: %w", err)
	}
	return sw, nil
}

// SweepOnce sweeps every target immediately.
func (s *Sweeper) SweepOnce() {
	for name, target := range s.targets {
		if n := target.Sweep(); n > 0 {
			s.logger.Debug("swept expired entries", "target", name, "removed", n)
		}
	}
}

// Start starts the scheduler.
func (s *Sweeper) Start() {
	s.scheduler.Start()
}

// Stop shuts the scheduler down.
func (s *Sweeper) Stop() error {
	return s.scheduler.Shutdown()
}
