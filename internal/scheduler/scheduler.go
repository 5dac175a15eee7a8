package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher is anything whose cached state can be refreshed on a schedule.
type Refresher interface {
	Refresh(ctx context.Context) bool
}

// Scheduler periodically refreshes the connectivity probe so that queries
// read a recent answer instead of probing inline.
type Scheduler struct {
	refresher Refresher
	logger    *zap.Logger
	interval  time.Duration
	timeout   time.Duration
	cron      *cron.Cron
	entryID   cron.EntryID
	running   bool
	mu        sync.Mutex
	lastRun   time.Time
	lastState bool
}

func NewScheduler(refresher Refresher, interval time.Duration, logger *zap.Logger) *Scheduler {
	timeout := interval
	if timeout <= 0 || timeout > 10*time.Second {
		timeout = 10 * time.Second
	}

	return &Scheduler{
		refresher: refresher,
		logger:    logger,
		interval:  interval,
		timeout:   timeout,
	}
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	id, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), s.runRefresh)
	if err != nil {
		return fmt.Errorf("failed to schedule connectivity refresh: %w", err)
	}

	s.cron = c
	s.entryID = id
	s.running = true
	c.Start()

	s.logger.Info("Scheduler started",
		zap.Duration("interval", s.interval),
		zap.Time("next_run", c.Entry(id).Next))

	// Run immediately on start
	go s.runRefresh()

	return nil
}

func (s *Scheduler) runRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	startTime := time.Now()
	online := s.refresher.Refresh(ctx)

	s.mu.Lock()
	s.lastRun = startTime
	s.lastState = online
	s.mu.Unlock()

	s.logger.Debug("Connectivity refreshed",
		zap.Bool("online", online),
		zap.Duration("duration", time.Since(startTime)))
}

// Stop halts the schedule and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	c := s.cron
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-c.Stop().Done()
}

func (s *Scheduler) ForceRun() {
	s.logger.Info("Manually triggering connectivity refresh")
	go s.runRefresh()
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":  s.running,
		"interval": s.interval.String(),
		"last_run": s.lastRun,
		"online":   s.lastState,
	}
	if s.running {
		status["next_run"] = s.cron.Entry(s.entryID).Next
	}
	return status
}
