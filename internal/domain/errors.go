package domain

import "errors"

var (
	// ErrInvalidInput marks malformed or out-of-range pricing inputs.
	// Callers are expected to clamp before deriving; the calculator rejects
	// instead of clamping so upstream scaling bugs surface.
	ErrInvalidInput = errors.New("invalid pricing input")

	ErrRateUnavailable       = errors.New("no usable exchange rate")
	ErrConversionUnavailable = errors.New("conversion unavailable")
	ErrProviderFetchFailed   = errors.New("rate provider fetch failed")

	ErrEntityRecomputeFailed       = errors.New("entity recompute failed")
	ErrRepairRequiresExplicitScope = errors.New("repair requires an explicit entity id set and factor")

	ErrEntityNotFound   = errors.New("priced entity not found")
	ErrCurrencyNotFound = errors.New("currency config not found")

	// ErrSignalUnknown is returned by demand-signal sources when no signal
	// exists for an entity. Treated as zero signal, never as a failure.
	ErrSignalUnknown = errors.New("demand signal unknown")
)
