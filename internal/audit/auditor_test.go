package audit

import (
	"context"
	"sync"
	"testing"

	"pricecore/internal/adapters"
	"pricecore/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Testify mocks ---

type MockCatalogStore struct {
	mock.Mock
	mu      sync.Mutex
	updates map[uuid.UUID]domain.PriceFields
}

func NewMockCatalogStore() *MockCatalogStore {
	return &MockCatalogStore{updates: make(map[uuid.UUID]domain.PriceFields)}
}

func (m *MockCatalogStore) ListActive(ctx context.Context) ([]domain.PricedEntity, error) {
	args := m.Called(ctx)
	entities, _ := args.Get(0).([]domain.PricedEntity)
	return entities, args.Error(1)
}

func (m *MockCatalogStore) Get(ctx context.Context, id uuid.UUID) (*domain.PricedEntity, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*domain.PricedEntity)
	return e, args.Error(1)
}

func (m *MockCatalogStore) UpdatePrice(ctx context.Context, id uuid.UUID, fields domain.PriceFields) error {
	args := m.Called(ctx, id, fields)
	if args.Error(0) == nil {
		m.mu.Lock()
		m.updates[id] = fields
		m.mu.Unlock()
	}
	return args.Error(0)
}

func (m *MockCatalogStore) written(id uuid.UUID) (domain.PriceFields, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.updates[id]
	return f, ok
}

type MockReportSink struct{ mock.Mock }

func (m *MockReportSink) SaveReport(ctx context.Context, report *domain.AuditReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportSink) SaveRepairs(ctx context.Context, records []domain.RepairRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func defaultThresholds() Thresholds {
	return Thresholds{Low: d("1"), High: d("10000"), Extreme: d("100000")}
}

func consistentEntity(category, merchant string) domain.PricedEntity {
	m := d(merchant)
	// base 10%, dynamic 0 -> final = merchant * 1.1
	return domain.PricedEntity{
		ID:            uuid.New(),
		CategoryID:    category,
		MerchantPrice: m,
		BaseMarkupPct: d("10"),
		FinalPrice:    m.Mul(d("1.1")),
	}
}

func newTestAuditor(catalog *MockCatalogStore, sink adapters.ReportSink) *Auditor {
	return NewAuditor(catalog, sink, nil, defaultThresholds(), d("0.000001"))
}

// --- Scan ---

func TestScan_CleanCatalogHasNoFindings(t *testing.T) {
	auditor := newTestAuditor(NewMockCatalogStore(), nil)

	entities := []domain.PricedEntity{
		consistentEntity("shoes", "100"),
		consistentEntity("shoes", "120"),
		consistentEntity("shoes", "90"),
	}

	report, err := auditor.Scan(context.Background(), entities)

	require.NoError(t, err)
	require.Equal(t, 3, report.Scanned)
	require.Zero(t, report.Flagged)
	require.Empty(t, report.Findings)
}

func TestScan_FlagsHundredfoldScaleBug(t *testing.T) {
	auditor := newTestAuditor(NewMockCatalogStore(), nil)

	// merchantPrice=500 with stored finalPrice=50000: the classic 100x bug
	corrupt := domain.PricedEntity{
		ID:            uuid.New(),
		CategoryID:    "shoes",
		MerchantPrice: d("500"),
		BaseMarkupPct: d("10"),
		FinalPrice:    d("50000"),
	}
	entities := []domain.PricedEntity{
		consistentEntity("shoes", "90"),
		consistentEntity("shoes", "100"),
		consistentEntity("shoes", "120"),
		corrupt,
	}

	report, err := auditor.Scan(context.Background(), entities)

	require.NoError(t, err)
	require.Equal(t, 1, report.Flagged)

	finding := report.Findings[0]
	require.Equal(t, corrupt.ID, finding.EntityID)
	require.Contains(t, finding.Reasons, domain.FindingInvariantMismatch)
	require.Contains(t, finding.Reasons, domain.FindingCategoryAnomaly)
	require.Equal(t, domain.MagnitudeHigh, finding.Class)
	require.NotNil(t, finding.ExpectedFinalPrice)
	require.True(t, finding.ExpectedFinalPrice.Equal(d("550")))
}

func TestScan_ClassifiesMagnitudeBuckets(t *testing.T) {
	auditor := newTestAuditor(NewMockCatalogStore(), nil)

	low := consistentEntity("", "0.50")
	normal := consistentEntity("", "100")
	high := consistentEntity("", "20000")
	extreme := consistentEntity("", "200000")

	report, err := auditor.Scan(context.Background(), []domain.PricedEntity{low, normal, high, extreme})

	require.NoError(t, err)
	byID := make(map[uuid.UUID]domain.AuditFinding)
	for _, f := range report.Findings {
		byID[f.EntityID] = f
	}

	require.Equal(t, domain.MagnitudeLow, byID[low.ID].Class)
	require.Equal(t, domain.MagnitudeHigh, byID[high.ID].Class)
	require.Equal(t, domain.MagnitudeExtreme, byID[extreme.ID].Class)
	_, normalFlagged := byID[normal.ID]
	require.False(t, normalFlagged, "normal-range consistent entity must not be flagged")
}

func TestScan_VariantsAuditedIndividually(t *testing.T) {
	auditor := newTestAuditor(NewMockCatalogStore(), nil)

	badVariant := domain.PricedEntity{
		ID:            uuid.New(),
		CategoryID:    "shoes",
		MerchantPrice: d("50"),
		BaseMarkupPct: d("10"),
		FinalPrice:    d("999"), // does not match its own invariant
	}
	root := consistentEntity("shoes", "100")
	root.Variants = []domain.PricedEntity{badVariant}

	report, err := auditor.Scan(context.Background(), []domain.PricedEntity{root})

	require.NoError(t, err)
	require.Equal(t, 2, report.Scanned)
	require.Equal(t, 1, report.Flagged)
	require.Equal(t, badVariant.ID, report.Findings[0].EntityID)
	require.Equal(t, root.ID, report.Findings[0].RootID)
}

func TestScan_SmallCategoriesSkipRelativeCheck(t *testing.T) {
	auditor := newTestAuditor(NewMockCatalogStore(), nil)

	// two entities in the category: not enough for a meaningful median
	a := consistentEntity("niche", "10")
	b := consistentEntity("niche", "5000")

	report, err := auditor.Scan(context.Background(), []domain.PricedEntity{a, b})

	require.NoError(t, err)
	for _, f := range report.Findings {
		require.NotContains(t, f.Reasons, domain.FindingCategoryAnomaly)
	}
}

func TestScan_HandsReportToSink(t *testing.T) {
	sink := new(MockReportSink)
	auditor := newTestAuditor(NewMockCatalogStore(), sink)

	sink.On("SaveReport", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := auditor.Scan(context.Background(), []domain.PricedEntity{consistentEntity("", "100")})

	require.NoError(t, err)
	sink.AssertExpectations(t)
}

func TestScanAll_ListsActiveEntities(t *testing.T) {
	catalog := NewMockCatalogStore()
	auditor := newTestAuditor(catalog, nil)

	catalog.On("ListActive", mock.Anything).Return([]domain.PricedEntity{consistentEntity("", "100")}, nil).Once()

	report, err := auditor.ScanAll(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, report.Scanned)
	catalog.AssertExpectations(t)
}
