// Package jobs holds the scheduled background work of the service.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"deal_diligence/pkg/core/logger"
	"deal_diligence/pkg/core/store"
	"deal_diligence/pkg/models"
)

const (
	DefaultSweepSchedule = "@every 5m"
	DefaultStaleAfter    = 30 * time.Minute
	DefaultTimeZone      = "UTC"
)

// Dispatcher starts a background analysis job for a deal.
type Dispatcher interface {
	Dispatch(dealID int64) (jobID string, started bool)
}

// SweepConfig controls when the sweeper runs and what counts as stuck.
type SweepConfig struct {
	Schedule   string
	StaleAfter time.Duration
	TimeZone   string
}

// StaleSweeper re-triggers deals left in analyzing by a run that died
// between stages. Completed stages are simply recomputed by the new run.
type StaleSweeper struct {
	repo       store.Repository
	dispatcher Dispatcher
	cfg        SweepConfig
	cron       *cron.Cron
	now        func() time.Time
}

func NewStaleSweeper(repo store.Repository, d Dispatcher, cfg SweepConfig) *StaleSweeper {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSweepSchedule
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = DefaultTimeZone
	}
	return &StaleSweeper{repo: repo, dispatcher: d, cfg: cfg, now: time.Now}
}

// Start schedules the sweep and returns immediately.
func (s *StaleSweeper) Start(ctx context.Context) error {
	loc, err := time.LoadLocation(s.cfg.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	s.cron = cron.New(cron.WithLocation(loc))

	_, err = s.cron.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.Sweep(ctx); err != nil {
			logger.Log.WithError(err).Error("stale-run sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("unable to schedule stale-run sweeper: %w", err)
	}

	s.cron.Start()
	logger.Log.WithFields(logrus.Fields{"schedule": s.cfg.Schedule, "stale_after": s.cfg.StaleAfter}).Info("stale-run sweeper started")
	return nil
}

// Stop halts scheduling and waits for a running sweep to return.
func (s *StaleSweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Sweep dispatches every deal stuck in analyzing for longer than StaleAfter
// and returns how many jobs it started.
func (s *StaleSweeper) Sweep(ctx context.Context) (int, error) {
	sess, err := s.repo.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer sess.Close()

	cutoff := s.now().Add(-s.cfg.StaleAfter)
	ids, err := sess.FindStaleDeals(ctx, models.DealAnalyzing, cutoff)
	if err != nil {
		return 0, err
	}

	started := 0
	for _, id := range ids {
		jobID, ok := s.dispatcher.Dispatch(id)
		log := logger.Deal(id).WithField("job_id", jobID)
		if !ok {
			log.Debug("stale deal already has a job in flight")
			continue
		}
		log.Warn("re-triggering stale analysis run")
		started++
	}
	return started, nil
}
