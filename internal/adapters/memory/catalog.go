package memory

import (
	"context"
	"sync"

	"pricecore/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogStore is an in-memory implementation of the catalog collaborator's
// price-field contract. The storefront's real catalog service is wired in
// production; this one backs local runs and tests.
type CatalogStore struct {
	mu       sync.RWMutex
	entities map[uuid.UUID]*domain.PricedEntity
	// variantRoots maps a variant id to its owning root so variants are
	// addressable by their own id, like any priced entity.
	variantRoots map[uuid.UUID]uuid.UUID
}

func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		entities:     make(map[uuid.UUID]*domain.PricedEntity),
		variantRoots: make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *CatalogStore) Put(entity domain.PricedEntity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := cloneEntity(entity)
	s.entities[e.ID] = e
	for _, v := range e.Variants {
		s.variantRoots[v.ID] = e.ID
	}
}

func (s *CatalogStore) ListActive(ctx context.Context) ([]domain.PricedEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PricedEntity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, *cloneEntity(*e))
	}
	return out, nil
}

func (s *CatalogStore) Get(ctx context.Context, id uuid.UUID) (*domain.PricedEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entities[id]; ok {
		return cloneEntity(*e), nil
	}
	if rootID, ok := s.variantRoots[id]; ok {
		root := s.entities[rootID]
		for i := range root.Variants {
			if root.Variants[i].ID == id {
				return cloneEntity(root.Variants[i]), nil
			}
		}
	}
	return nil, domain.ErrEntityNotFound
}

func (s *CatalogStore) UpdatePrice(ctx context.Context, id uuid.UUID, fields domain.PriceFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entities[id]; ok {
		applyFields(e, fields)
		return nil
	}
	if rootID, ok := s.variantRoots[id]; ok {
		root := s.entities[rootID]
		for i := range root.Variants {
			if root.Variants[i].ID == id {
				applyFields(&root.Variants[i], fields)
				return nil
			}
		}
	}
	return domain.ErrEntityNotFound
}

func applyFields(e *domain.PricedEntity, fields domain.PriceFields) {
	e.MerchantPrice = fields.MerchantPrice
	e.BaseMarkupPct = fields.BaseMarkupPct
	e.DynamicMarkupPct = fields.DynamicMarkupPct
	e.FinalPrice = fields.FinalPrice
}

func cloneEntity(e domain.PricedEntity) *domain.PricedEntity {
	out := e
	out.Variants = make([]domain.PricedEntity, len(e.Variants))
	copy(out.Variants, e.Variants)
	return &out
}

// SignalSource is an in-memory demand-signal source. Entities without a
// recorded signal report ErrSignalUnknown, which the markup engine treats as
// zero.
type SignalSource struct {
	mu      sync.RWMutex
	signals map[uuid.UUID]decimal.Decimal
}

func NewSignalSource() *SignalSource {
	return &SignalSource{signals: make(map[uuid.UUID]decimal.Decimal)}
}

func (s *SignalSource) Record(entityID uuid.UUID, signal decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals[entityID] = signal
}

func (s *SignalSource) Signal(ctx context.Context, entityID uuid.UUID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.signals[entityID]; ok {
		return v, nil
	}
	return decimal.Zero, domain.ErrSignalUnknown
}
