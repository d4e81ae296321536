package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"pricecore/internal/domain"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Testify mocks ---

type MockRateGetter struct{ mock.Mock }

func (m *MockRateGetter) GetRate(ctx context.Context, base, target string) (domain.ResolvedRate, error) {
	args := m.Called(ctx, base, target)
	r, _ := args.Get(0).(domain.ResolvedRate)
	return r, args.Error(1)
}

type MockCurrencyStore struct{ mock.Mock }

func (m *MockCurrencyStore) Get(ctx context.Context, code string) (*domain.CurrencyConfig, error) {
	args := m.Called(ctx, code)
	cfg, _ := args.Get(0).(*domain.CurrencyConfig)
	return cfg, args.Error(1)
}

func (m *MockCurrencyStore) ListActive(ctx context.Context) ([]domain.CurrencyConfig, error) {
	args := m.Called(ctx)
	cfgs, _ := args.Get(0).([]domain.CurrencyConfig)
	return cfgs, args.Error(1)
}

func (m *MockCurrencyStore) Save(ctx context.Context, cfg domain.CurrencyConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func snapshotRate(rate string) domain.ResolvedRate {
	return domain.ResolvedRate{Rate: d(rate), AsOf: time.Now(), Source: domain.RateSourceSnapshot}
}

func TestConvert_SameCurrencyIsIdentity(t *testing.T) {
	rateGetter := new(MockRateGetter)
	currencies := new(MockCurrencyStore)
	conv := NewConverter("USD", rateGetter, currencies)

	for _, amount := range []string{"0.01", "100", "115.135", "999999.99"} {
		got, err := conv.Convert(context.Background(), d(amount), "USD")
		require.NoError(t, err)
		require.True(t, got.Equal(d(amount)), "identity law broken for %s", amount)
	}

	// identity path does no lookups at all
	rateGetter.AssertNotCalled(t, "GetRate", mock.Anything, mock.Anything, mock.Anything)
	currencies.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestConvert_SnapshotRate(t *testing.T) {
	rateGetter := new(MockRateGetter)
	currencies := new(MockCurrencyStore)
	conv := NewConverter("USD", rateGetter, currencies)

	currencies.On("Get", mock.Anything, "EGP").Return(nil, domain.ErrCurrencyNotFound).Once()
	rateGetter.On("GetRate", mock.Anything, "USD", "EGP").Return(snapshotRate("48.5"), nil).Once()

	got, err := conv.Convert(context.Background(), d("100"), "EGP")

	require.NoError(t, err)
	require.Equal(t, "4850.00", got.StringFixed(2))
	rateGetter.AssertExpectations(t)
}

func TestConvert_RoundsHalfToEven(t *testing.T) {
	rateGetter := new(MockRateGetter)
	currencies := new(MockCurrencyStore)
	conv := NewConverter("USD", rateGetter, currencies)

	currencies.On("Get", mock.Anything, "EUR").Return(nil, domain.ErrCurrencyNotFound)
	rateGetter.On("GetRate", mock.Anything, "USD", "EUR").Return(snapshotRate("1"), nil)

	// x.xx5 ties resolve toward the even cent in both directions
	got, err := conv.Convert(context.Background(), d("0.125"), "EUR")
	require.NoError(t, err)
	require.Equal(t, "0.12", got.StringFixed(2))

	got, err = conv.Convert(context.Background(), d("0.135"), "EUR")
	require.NoError(t, err)
	require.Equal(t, "0.14", got.StringFixed(2))
}

func TestConvert_UsesPerCurrencyPrecision(t *testing.T) {
	rateGetter := new(MockRateGetter)
	currencies := new(MockCurrencyStore)
	conv := NewConverter("USD", rateGetter, currencies)

	tnd := &domain.CurrencyConfig{Code: "TND", IsActive: true, DecimalPlaces: 3}
	currencies.On("Get", mock.Anything, "TND").Return(tnd, nil).Once()
	rateGetter.On("GetRate", mock.Anything, "USD", "TND").Return(snapshotRate("3.14159"), nil).Once()

	got, err := conv.Convert(context.Background(), d("10"), "TND")

	require.NoError(t, err)
	require.Equal(t, "31.416", got.StringFixed(3))
}

func TestConvert_RateUnavailableBecomesConversionUnavailable(t *testing.T) {
	rateGetter := new(MockRateGetter)
	currencies := new(MockCurrencyStore)
	conv := NewConverter("USD", rateGetter, currencies)

	currencies.On("Get", mock.Anything, "XOF").Return(nil, domain.ErrCurrencyNotFound).Once()
	rateGetter.On("GetRate", mock.Anything, "USD", "XOF").
		Return(domain.ResolvedRate{}, domain.ErrRateUnavailable).Once()

	_, err := conv.Convert(context.Background(), d("100"), "XOF")

	// the converter never defaults a missing rate to 1.0
	require.ErrorIs(t, err, domain.ErrConversionUnavailable)
}

func TestConvert_UnexpectedRateErrorPassesThrough(t *testing.T) {
	rateGetter := new(MockRateGetter)
	currencies := new(MockCurrencyStore)
	conv := NewConverter("USD", rateGetter, currencies)

	wantErr := errors.New("cache exploded")
	currencies.On("Get", mock.Anything, "EUR").Return(nil, domain.ErrCurrencyNotFound).Once()
	rateGetter.On("GetRate", mock.Anything, "USD", "EUR").Return(domain.ResolvedRate{}, wantErr).Once()

	_, err := conv.Convert(context.Background(), d("100"), "EUR")

	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrConversionUnavailable)
	require.ErrorIs(t, err, wantErr)
}
