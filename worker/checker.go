package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/iabalyuk/gorzdravbot/gorzdrav"
	"github.com/iabalyuk/gorzdravbot/logging"
	"github.com/iabalyuk/gorzdravbot/metrics"
	"github.com/iabalyuk/gorzdravbot/storage"
)

// DoctorSource is the part of the scheduling client the checker needs.
type DoctorSource interface {
	GetDoctor(ctx context.Context, facilityID int, specialtyID, doctorID string) (*gorzdrav.Doctor, error)
	ListAppointments(ctx context.Context, facilityID int, doctorID string) ([]gorzdrav.Appointment, error)
}

// WatchStore is the part of the storage the checker needs.
type WatchStore interface {
	ActiveDoctorsWithUsers(ctx context.Context) ([]storage.WatchedDoctor, error)
	SetWatching(ctx context.Context, userID int64, watching bool) error
}

// Notifier delivers a notification to a user.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// Checker periodically polls watched doctors and notifies their users.
type Checker struct {
	source    DoctorSource
	store     WatchStore
	notifier  Notifier
	metrics   *metrics.Metrics
	logger    *logging.Logger
	clock     clockwork.Clock
	interval  time.Duration
	sendDelay time.Duration

	cancel       context.CancelFunc
	wg           sync.WaitGroup
	isRunning    bool
	runningMutex sync.Mutex
}

// CheckerConfig configures NewChecker.
type CheckerConfig struct {
	Source    DoctorSource
	Store     WatchStore
	Notifier  Notifier
	Metrics   *metrics.Metrics
	Logger    *logging.Logger
	Clock     clockwork.Clock
	Interval  time.Duration
	SendDelay time.Duration
}

// NewChecker creates a checker.
func NewChecker(cfg CheckerConfig) *Checker {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Minute
	}
	return &Checker{
		source:    cfg.Source,
		store:     cfg.Store,
		notifier:  cfg.Notifier,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.With("component", "checker"),
		clock:     cfg.Clock,
		interval:  cfg.Interval,
		sendDelay: cfg.SendDelay,
	}
}

// Start runs the checker in the background until Stop.
func (c *Checker) Start() {
	c.runningMutex.Lock()
	defer c.runningMutex.Unlock()

	if c.isRunning {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.isRunning = true
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Run(ctx)
	}()
}

// Stop cancels the loop and waits for the current cycle to return.
func (c *Checker) Stop() {
	c.runningMutex.Lock()
	if !c.isRunning {
		c.runningMutex.Unlock()
		return
	}
	c.logger.Info("stopping checker")
	c.cancel()
	c.isRunning = false
	c.runningMutex.Unlock()

	c.wg.Wait()
	c.logger.Info("checker stopped")
}

// Run executes cycles separated by the interval until ctx is done.
func (c *Checker) Run(ctx context.Context) {
	c.logger.Info("checker loop started", "interval", c.interval.String())
	for {
		if err := c.RunCycle(ctx); err != nil && ctx.Err() == nil {
			c.logger.Error("check cycle failed", "error", err)
		}

		select {
		case <-c.clock.After(c.interval):
		case <-ctx.Done():
			c.logger.Info("checker loop stopping")
			return
		}
	}
}

// RunCycle checks every watched doctor once. A failure for one doctor does
// not prevent the others from being checked.
func (c *Checker) RunCycle(ctx context.Context) error {
	started := c.clock.Now()
	logger := c.logger.With("cycle_id", uuid.NewString())

	watched, err := c.store.ActiveDoctorsWithUsers(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load watched doctors: %w", err)
		c.metrics.ObserveCycle(0, c.clock.Since(started), err)
		return err
	}
	logger.Debug("check cycle started", "doctors", len(watched))

	notified := 0
	for _, wd := range watched {
		if ctx.Err() != nil {
			break
		}
		n, err := c.processDoctor(ctx, logger, wd)
		notified += n
		if err != nil {
			logger.Warn("doctor check failed", "doctor", wd.Doctor.ID, "error", err)
		}
	}

	c.metrics.ObserveCycle(len(watched), c.clock.Since(started), ctx.Err())
	logger.Info("check cycle finished",
		"doctors", len(watched),
		"notified", notified,
		"duration", c.clock.Since(started).Round(time.Millisecond).String(),
	)
	return ctx.Err()
}

// ProcessDoctor checks one doctor and notifies the matching users. It
// returns how many users were notified.
func (c *Checker) ProcessDoctor(ctx context.Context, wd storage.WatchedDoctor) (int, error) {
	return c.processDoctor(ctx, c.logger, wd)
}

func (c *Checker) processDoctor(ctx context.Context, logger *logging.Logger, wd storage.WatchedDoctor) (int, error) {
	d := wd.Doctor
	logger = logger.With("doctor", d.ID)

	doc, err := c.source.GetDoctor(ctx, d.FacilityID, d.SpecialtyID, d.DoctorID)
	if err != nil {
		c.observeAPIError(err)
		return 0, fmt.Errorf("failed to get doctor: %w", err)
	}
	if doc == nil {
		logger.Debug("doctor not listed")
		return 0, nil
	}
	if !doc.HasFreePlaces() {
		return 0, nil
	}
	doc.DistrictID = d.DistrictID

	today := c.clock.Now().In(gorzdrav.Location)

	var appointments []gorzdrav.Appointment
	if anyWindow(wd.Users) {
		appointments, err = c.source.ListAppointments(ctx, d.FacilityID, d.DoctorID)
		if err != nil {
			// Users with a window are skipped this cycle.
			c.observeAPIError(err)
			logger.Warn("failed to list appointments", "error", err)
			appointments = nil
		}
	}

	nearest, ok := NearestVisit(appointments, today)
	if !ok && doc.NearestDate != nil {
		nearest = doc.NearestDate.Time
	}
	link := gorzdrav.BookingLink(d.DistrictID, d.FacilityID, d.SpecialtyID, d.DoctorID)
	text := ComposeNotification(doc, nearest, link)

	notified := 0
	var errs []error
	for _, u := range wd.Users {
		if !InWindow(appointments, window(u), today) {
			logger.Debug("no appointment within day window", "user", u.ID, "window", window(u))
			continue
		}
		if notified > 0 && !c.pause(ctx) {
			return notified, ctx.Err()
		}

		if err := c.notifier.Notify(ctx, u.ID, text); err != nil {
			c.metrics.ObserveNotification(false)
			errs = append(errs, fmt.Errorf("notify user %d: %w", u.ID, err))
			continue
		}
		c.metrics.ObserveNotification(true)
		notified++

		if err := c.store.SetWatching(ctx, u.ID, false); err != nil {
			errs = append(errs, fmt.Errorf("disable watching for user %d: %w", u.ID, err))
			continue
		}
		logger.Info("user notified", "user", u.ID)
	}
	return notified, errors.Join(errs...)
}

func (c *Checker) pause(ctx context.Context) bool {
	if c.sendDelay <= 0 {
		return true
	}
	select {
	case <-c.clock.After(c.sendDelay):
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Checker) observeAPIError(err error) {
	kind := "transport"
	if apiErr, ok := gorzdrav.AsAPIError(err); ok {
		kind = apiErr.Kind.String()
	}
	c.metrics.ObserveAPIError(kind)
}

func window(u storage.User) int {
	if u.DayWindow == nil {
		return 0
	}
	return *u.DayWindow
}

func anyWindow(users []storage.User) bool {
	for _, u := range users {
		if window(u) > 0 {
			return true
		}
	}
	return false
}
