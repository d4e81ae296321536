package rates

import (
	"errors"
	"maps"
	"slices"
)

var (
	ErrCodeRequired    = errors.New("currency code is required")
	ErrCodeMalformed   = errors.New("currency code must be a 3-letter ISO code")
	ErrCodeUnsupported = errors.New("currency not supported")
)

// CurrencyValidator checks request currency codes against the set of active
// currencies. Built once at startup from the currency store.
type CurrencyValidator struct {
	activeCodesSet map[string]struct{} // read only copy
	activeCodesLst []string            // read only copy
}

func (v *CurrencyValidator) ValidateCode(code string) error {
	if code == "" {
		return ErrCodeRequired
	}
	if len(code) != 3 {
		return ErrCodeMalformed
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return ErrCodeMalformed
		}
	}
	if _, ok := v.activeCodesSet[code]; !ok {
		return ErrCodeUnsupported
	}
	return nil
}

func (v *CurrencyValidator) ActiveCodes() []string {
	return slices.Clone(v.activeCodesLst)
}

func NewValidator(activeCurrencies map[string]struct{}) *CurrencyValidator {
	codesSet := maps.Clone(activeCurrencies)
	codesLst := make([]string, 0, len(codesSet))
	for code := range codesSet {
		codesLst = append(codesLst, code)
	}
	slices.Sort(codesLst)

	return &CurrencyValidator{
		activeCodesSet: codesSet,
		activeCodesLst: codesLst,
	}
}
