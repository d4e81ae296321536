package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MagnitudeClass string

const (
	MagnitudeLow     MagnitudeClass = "low"
	MagnitudeNormal  MagnitudeClass = "normal"
	MagnitudeHigh    MagnitudeClass = "high"
	MagnitudeExtreme MagnitudeClass = "extreme"
)

// Audit finding reasons.
const (
	FindingInvariantMismatch = "invariant_mismatch"
	FindingMagnitudeLow      = "magnitude_low"
	FindingMagnitudeHigh     = "magnitude_high"
	FindingMagnitudeExtreme  = "magnitude_extreme"
	FindingCategoryAnomaly   = "category_range_anomaly"
)

// AuditFinding flags one priced entity (root or variant).
type AuditFinding struct {
	EntityID   uuid.UUID       `json:"entity_id"`
	RootID     uuid.UUID       `json:"root_id"`
	CategoryID string          `json:"category_id"`
	FinalPrice decimal.Decimal `json:"final_price"`
	Class      MagnitudeClass  `json:"class"`
	Reasons    []string        `json:"reasons"`
	// ExpectedFinalPrice is set for invariant mismatches: what re-deriving
	// from the stored merchant price and markups yields.
	ExpectedFinalPrice *decimal.Decimal `json:"expected_final_price,omitempty"`
}

// AuditReport is handed off to the operator-facing report sink as a
// structured record; the engine does not render it.
type AuditReport struct {
	ID         uuid.UUID      `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Scanned    int            `json:"scanned"`
	Flagged    int            `json:"flagged"`
	Findings   []AuditFinding `json:"findings"`
}

// RepairRecord is the before/after snapshot logged for every entity changed
// by a scoped repair.
type RepairRecord struct {
	EntityID   uuid.UUID       `json:"entity_id"`
	RootID     uuid.UUID       `json:"root_id"`
	Factor     decimal.Decimal `json:"factor"`
	Before     PriceFields     `json:"before"`
	After      PriceFields     `json:"after"`
	RepairedAt time.Time       `json:"repaired_at"`
}
