package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"pricecore/internal/adapters"
	"pricecore/internal/audit"
	"pricecore/internal/domain"
	"pricecore/internal/pricing"
	"pricecore/internal/rates"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateCache is the handler's view of the exchange-rate cache.
type RateCache interface {
	GetRate(ctx context.Context, base, target string) (domain.ResolvedRate, error)
	Refresh(ctx context.Context, base string) (*domain.RateSnapshot, error)
}

// Repairer scopes the auditor surface the handlers need.
type Repairer interface {
	ScanAll(ctx context.Context) (*domain.AuditReport, error)
	Repair(ctx context.Context, entityIDs []uuid.UUID, factor decimal.Decimal) ([]domain.RepairRecord, error)
}

type Handler struct {
	validator *rates.CurrencyValidator
	cache     RateCache
	converter *pricing.Converter
	catalog   adapters.CatalogStore
	auditor   Repairer
}

var _ Repairer = (*audit.Auditor)(nil)

func New(validator *rates.CurrencyValidator, cache RateCache, converter *pricing.Converter, catalog adapters.CatalogStore, auditor Repairer) *Handler {
	return &Handler{validator: validator, cache: cache, converter: converter, catalog: catalog, auditor: auditor}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: errorMsg,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
