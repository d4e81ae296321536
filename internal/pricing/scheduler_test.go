package pricing

import (
	"context"
	"testing"
	"time"

	"pricecore/internal/domain"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubRefresher struct{}

func (stubRefresher) Refresh(ctx context.Context, base string) (*domain.RateSnapshot, error) {
	return nil, nil
}

func newSchedulerUnderTest(recomputeInterval, refreshInterval time.Duration) *Scheduler {
	catalog := NewMockCatalogStore()
	catalog.On("ListActive", mock.Anything).Return([]domain.PricedEntity{}, nil).Maybe()
	job := NewRecomputeJob(catalog, NewMarkupEngine(new(MockSignalSource), nil), nil, 1, 0)
	return NewScheduler(job, stubRefresher{}, []string{"USD"}, recomputeInterval, refreshInterval)
}

func TestNewScheduler_Constructs(t *testing.T) {
	s := newSchedulerUnderTest(10*time.Second, 10*time.Second)
	require.NotNil(t, s)
	require.Nil(t, s.sched)
}

func TestScheduler_Shutdown_NoScheduler_ReturnsNil(t *testing.T) {
	s := newSchedulerUnderTest(10*time.Second, 10*time.Second)
	err := s.Shutdown()
	require.NoError(t, err)
	require.Nil(t, s.sched)
}

func TestScheduler_Start_And_ContextCancel_ShutsDown(t *testing.T) {
	s := newSchedulerUnderTest(10*time.Second, 10*time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	// Start scheduler
	require.NoError(t, s.Start(ctx))
	require.NotNil(t, s.sched)

	// Cancel and ensure Shutdown is called by goroutine
	cancel()

	// Wait until s.sched becomes nil (Shutdown sets it to nil)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.sched == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.Nil(t, s.sched, "expected scheduler to be shutdown after ctx cancel")
}

func TestScheduler_Shutdown_AfterStart_Idempotent(t *testing.T) {
	s := newSchedulerUnderTest(10*time.Second, 10*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	require.NotNil(t, s.sched)

	// First shutdown should stop scheduler and set field to nil
	require.NoError(t, s.Shutdown())
	require.Nil(t, s.sched)

	// Second shutdown should be a no-op and return nil
	require.NoError(t, s.Shutdown())
}

func TestNewScheduler_UsesProvidedIntervals(t *testing.T) {
	s := newSchedulerUnderTest(42*time.Second, 17*time.Second)
	require.Equal(t, 42*time.Second, s.recomputeInterval)
	require.Equal(t, 17*time.Second, s.refreshInterval)
}

func TestNewScheduler_DefaultsIntervalsWhenInvalid(t *testing.T) {
	s := newSchedulerUnderTest(0, -time.Second)
	require.Equal(t, defaultRecomputeInterval, s.recomputeInterval)
	require.Equal(t, defaultRefreshInterval, s.refreshInterval)
}
