package pricing

import (
	"context"
	"sync/atomic"
	"time"

	"pricecore/internal/domain"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultRecomputeInterval = 10 * time.Minute
const defaultRefreshInterval = 5 * time.Minute

// RateRefresher is the scheduler's view of the exchange-rate cache.
type RateRefresher interface {
	Refresh(ctx context.Context, base string) (*domain.RateSnapshot, error)
}

// Scheduler drives the two periodic activities: markup recomputation and
// exchange-rate refresh. Executions of the same activity never overlap; a
// tick that lands while the prior run is still in flight is logged and
// dropped, not queued.
type Scheduler struct {
	recompute *RecomputeJob
	refresher RateRefresher
	bases     []string

	recomputeInterval time.Duration
	refreshInterval   time.Duration

	recomputeRunning atomic.Bool
	refreshRunning   atomic.Bool
	// -----
	sched gocron.Scheduler
}

func NewScheduler(recompute *RecomputeJob, refresher RateRefresher, bases []string, recomputeInterval, refreshInterval time.Duration) *Scheduler {
	if recomputeInterval <= 0 {
		recomputeInterval = defaultRecomputeInterval
	}
	if refreshInterval <= 0 {
		refreshInterval = defaultRefreshInterval
	}
	return &Scheduler{
		recompute:         recompute,
		refresher:         refresher,
		bases:             bases,
		recomputeInterval: recomputeInterval,
		refreshInterval:   refreshInterval,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	s.sched = scheduler

	recomputeJob := func(jobCtx context.Context) {
		if !s.recomputeRunning.CompareAndSwap(false, true) {
			logrus.Warn("Markup recompute tick skipped: prior run still in flight")
			return
		}
		defer s.recomputeRunning.Store(false)

		execID := uuid.NewString()
		if runErr := s.recompute.Run(jobCtx, execID); runErr != nil {
			logrus.Errorf("Markup recompute run %s failed: %v", execID, runErr)
		}
	}

	refreshJob := func(jobCtx context.Context) {
		if !s.refreshRunning.CompareAndSwap(false, true) {
			logrus.Warn("Rate refresh tick skipped: prior run still in flight")
			return
		}
		defer s.refreshRunning.Store(false)

		for _, base := range s.bases {
			if _, refreshErr := s.refresher.Refresh(jobCtx, base); refreshErr != nil {
				// Stale-but-available beats unavailable: the cache kept the
				// prior snapshot, so this is only worth a log line.
				logrus.WithError(refreshErr).WithField("base", base).Warn("Rate refresh failed, serving previous snapshot")
			}
		}
	}

	if _, err = scheduler.NewJob(
		gocron.DurationJob(s.recomputeInterval),
		gocron.NewTask(recomputeJob),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return err
	}

	if _, err = scheduler.NewJob(
		gocron.DurationJob(s.refreshInterval),
		gocron.NewTask(refreshJob),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return err
	}

	scheduler.Start()

	// Stop scheduler when the provided context is canceled.
	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

func (s *Scheduler) Shutdown() error {
	if s.sched == nil {
		return nil
	}
	err := s.sched.Shutdown()
	s.sched = nil
	return err
}
