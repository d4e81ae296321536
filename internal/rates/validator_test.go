package rates

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCurrencyValidator_ValidateCode_Errors(t *testing.T) {
	validator := NewValidator(map[string]struct{}{"USD": {}, "EUR": {}})

	require.Equal(t, ErrCodeRequired, validator.ValidateCode(""))
	require.Equal(t, ErrCodeMalformed, validator.ValidateCode("US"))
	require.Equal(t, ErrCodeMalformed, validator.ValidateCode("USDT"))
	require.Equal(t, ErrCodeMalformed, validator.ValidateCode("usd"))
	require.Equal(t, ErrCodeMalformed, validator.ValidateCode("US1"))
	require.Equal(t, ErrCodeUnsupported, validator.ValidateCode("ABC"))
}

func TestCurrencyValidator_ValidateCode_Success(t *testing.T) {
	validator := NewValidator(map[string]struct{}{"USD": {}, "EUR": {}})
	require.NoError(t, validator.ValidateCode("USD"))
	require.NoError(t, validator.ValidateCode("EUR"))
}

func TestNewValidator_ClonesMap(t *testing.T) {
	sourceCurrencies := map[string]struct{}{"USD": {}, "EUR": {}}
	validator := NewValidator(sourceCurrencies)

	// mutate source after creation
	delete(sourceCurrencies, "USD")

	// validator should still allow USD (clone must not be affected)
	require.NoError(t, validator.ValidateCode("USD"))
}

func TestCurrencyValidator_ActiveCodes(t *testing.T) {
	validator := NewValidator(map[string]struct{}{"USD": {}, "EUR": {}, "JPY": {}})

	got := validator.ActiveCodes()

	require.Equal(t, []string{"EUR", "JPY", "USD"}, got)

	// ensure caller modifications do not affect validator internal state
	got[0] = "XXX"
	require.Equal(t, []string{"EUR", "JPY", "USD"}, validator.ActiveCodes())
}
