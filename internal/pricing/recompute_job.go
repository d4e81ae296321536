package pricing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pricecore/internal/adapters"
	"pricecore/internal/domain"
	"pricecore/internal/platform/metrics"

	"github.com/sirupsen/logrus"
)

const defaultRecomputeWorkers = 5
const defaultEntityCeiling = 30 * time.Second

// RecomputeJob is the periodic markup-recompute batch. Entities are
// independent, so derivation is fanned out over a bounded worker pool; one
// entity failing only skips that entity.
type RecomputeJob struct {
	catalog adapters.CatalogStore
	engine  *MarkupEngine
	metrics *metrics.Metrics

	workers       int
	entityCeiling time.Duration
}

func NewRecomputeJob(catalog adapters.CatalogStore, engine *MarkupEngine, m *metrics.Metrics, workers int, entityCeiling time.Duration) *RecomputeJob {
	if workers <= 0 {
		workers = defaultRecomputeWorkers
	}
	if entityCeiling <= 0 {
		entityCeiling = defaultEntityCeiling
	}
	return &RecomputeJob{catalog: catalog, engine: engine, metrics: m, workers: workers, entityCeiling: entityCeiling}
}

// Run recomputes markup and re-derives the final price for every active
// priced entity and each of its variants.
func (j *RecomputeJob) Run(ctx context.Context, execID string) error {
	started := time.Now()

	// STEP 1: load active entities and flatten roots + variants into one
	// work list. Each variant is priced on its own inputs, never its root's.
	entities, err := j.catalog.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active entities: %w", err)
	}

	items := flatten(entities)
	if len(items) == 0 {
		logrus.Infof("No active entities to recompute this time; execID: %s", execID)
		return nil
	}

	logrus.Infof("%d priced entities found, start recomputing markup; execID: %s", len(items), execID)

	// STEP 2: fan the items out over the worker pool.
	workQueue := make(chan domain.PricedEntity, len(items))
	for _, it := range items {
		workQueue <- it
	}
	close(workQueue)

	var updated, skipped atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < j.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			j.runWorker(ctx, workerID, execID, workQueue, &updated, &skipped)
		}(i)
	}
	wg.Wait()

	if j.metrics != nil {
		j.metrics.RecomputeRunsTotal.Inc()
		j.metrics.RecomputeEntitiesTotal.Add(float64(updated.Load()))
		j.metrics.RecomputeSkippedTotal.Add(float64(skipped.Load()))
		j.metrics.RecomputeRunDuration.Observe(time.Since(started).Seconds())
	}

	logrus.Infof("Markup recompute finished: %d updated, %d skipped; execID: %s", updated.Load(), skipped.Load(), execID)
	return nil
}

func flatten(entities []domain.PricedEntity) []domain.PricedEntity {
	items := make([]domain.PricedEntity, 0, len(entities))
	for _, e := range entities {
		variants := e.Variants
		e.Variants = nil
		items = append(items, e)
		items = append(items, variants...)
	}
	return items
}

func (j *RecomputeJob) runWorker(ctx context.Context, workerID int, execID string, workQueue <-chan domain.PricedEntity, updated, skipped *atomic.Int64) {
	for {
		select {
		case <-ctx.Done():
			// Stop scheduling further items; the item in flight was allowed
			// to finish before we got here.
			return
		case entity, ok := <-workQueue:
			if !ok {
				return
			}
			if err := j.processEntity(ctx, &entity); err != nil {
				skipped.Add(1)
				logrus.WithError(err).WithFields(logrus.Fields{
					"worker":   workerID,
					"execID":   execID,
					"entityID": entity.ID,
				}).Warn("Entity skipped, retained at last known markup")
				continue
			}
			updated.Add(1)
		}
	}
}

func (j *RecomputeJob) processEntity(ctx context.Context, entity *domain.PricedEntity) error {
	entityCtx, cancel := context.WithTimeout(ctx, j.entityCeiling)
	defer cancel()

	if _, err := j.engine.RecomputeMarkup(entityCtx, entity); err != nil {
		return err
	}

	finalPrice, err := Derive(entity.MerchantPrice, entity.BaseMarkupPct, entity.DynamicMarkupPct)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEntityRecomputeFailed, err)
	}
	entity.FinalPrice = finalPrice

	if err := j.catalog.UpdatePrice(entityCtx, entity.ID, entity.Fields()); err != nil {
		return fmt.Errorf("%w: write-back: %w", domain.ErrEntityRecomputeFailed, err)
	}
	return nil
}
