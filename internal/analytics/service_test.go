package analytics

import (
	"context"
	"testing"
	"time"

	"printforge/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, subscription *models.Subscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) List(ctx context.Context, limit, offset int) ([]*models.Subscription, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Subscription, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ListStartedSince(ctx context.Context, since time.Time) ([]*models.Subscription, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) MarkRefunded(ctx context.Context, id uuid.UUID, note string) error {
	args := m.Called(ctx, id, note)
	return args.Error(0)
}

func (m *MockPaymentRepository) List(ctx context.Context, limit, offset int) ([]*models.PaymentRecord, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.PaymentRecord, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) ListCompletedSince(ctx context.Context, since time.Time) ([]*models.Payment, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListAllCompleted(ctx context.Context) ([]*models.Payment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CountByStatus(ctx context.Context) (int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Error(2)
}

type AnalyticsServiceTestSuite struct {
	suite.Suite
	mockSubRepo     *MockSubscriptionRepository
	mockPaymentRepo *MockPaymentRepository
	service         *Service

	// Frozen clock: noon keeps day truncation away from boundaries.
	today time.Time
}

func (suite *AnalyticsServiceTestSuite) SetupTest() {
	suite.mockSubRepo = &MockSubscriptionRepository{}
	suite.mockPaymentRepo = &MockPaymentRepository{}
	suite.service = NewService(suite.mockSubRepo, suite.mockPaymentRepo)
	suite.today = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	suite.service.now = func() time.Time { return suite.today }

	suite.mockSubRepo.Test(suite.T())
	suite.mockPaymentRepo.Test(suite.T())
}

func (suite *AnalyticsServiceTestSuite) TearDownTest() {
	suite.mockSubRepo.AssertExpectations(suite.T())
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func TestAnalyticsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceTestSuite))
}

func (suite *AnalyticsServiceTestSuite) day(offset int) time.Time {
	return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func timePtr(t time.Time) *time.Time { return &t }

func (suite *AnalyticsServiceTestSuite) TestSummaryStats_EmptyData() {
	ctx := context.Background()

	suite.mockSubRepo.On("List", ctx, analyticsScanLimit, 0).Return([]*models.Subscription{}, nil)
	suite.mockPaymentRepo.On("CountByStatus", ctx).Return(0, 0, nil)
	suite.mockPaymentRepo.On("ListAllCompleted", ctx).Return([]*models.Payment{}, nil)

	stats, err := suite.service.SummaryStats(ctx)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, stats.TotalSubscriptions)
	assert.Equal(suite.T(), 0.0, stats.MRR)
	assert.Equal(suite.T(), 0.0, stats.ARPU)
	assert.Equal(suite.T(), 0.0, stats.AveragePaymentValue)
}

func (suite *AnalyticsServiceTestSuite) TestSummaryStats_MRRCountsOnlyEffectivelyActive() {
	ctx := context.Background()
	userA := uuid.New()
	userB := uuid.New()

	subscriptions := []*models.Subscription{
		{ID: uuid.New(), UserID: userA, Price: 20.00, Status: models.SubscriptionActive, StartDate: suite.day(-60)},
		{ID: uuid.New(), UserID: userA, Price: 10.00, Status: models.SubscriptionActive, StartDate: suite.day(-30)},
		// Stored Active but the end date has passed: excluded from MRR.
		{ID: uuid.New(), UserID: userB, Price: 10.00, Status: models.SubscriptionActive, StartDate: suite.day(-90), EndDate: timePtr(suite.day(-1))},
		{ID: uuid.New(), UserID: userB, Price: 20.00, Status: models.SubscriptionCancelled, StartDate: suite.day(-90), EndDate: timePtr(suite.day(-10))},
	}

	suite.mockSubRepo.On("List", ctx, analyticsScanLimit, 0).Return(subscriptions, nil)
	suite.mockPaymentRepo.On("CountByStatus", ctx).Return(5, 4, nil)
	suite.mockPaymentRepo.On("ListAllCompleted", ctx).Return([]*models.Payment{
		{Amount: 20.00}, {Amount: 20.00}, {Amount: 10.00}, {Amount: 10.00},
	}, nil)

	stats, err := suite.service.SummaryStats(ctx)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 4, stats.TotalSubscriptions)
	assert.Equal(suite.T(), 2, stats.ActiveSubscriptions)
	assert.Equal(suite.T(), 30.00, stats.MRR)
	// Both active subscriptions belong to one user.
	assert.Equal(suite.T(), 30.00, stats.ARPU)
	assert.Equal(suite.T(), 5, stats.TotalPayments)
	assert.Equal(suite.T(), 4, stats.SuccessfulPayments)
	assert.Equal(suite.T(), 60.00, stats.TotalRevenue)
	assert.Equal(suite.T(), 15.00, stats.AveragePaymentValue)
}

func (suite *AnalyticsServiceTestSuite) TestDailySeries_DensifiesGapDays() {
	ctx := context.Background()
	start := suite.day(-4)

	payments := []*models.Payment{
		{Amount: 10.00, PaymentDate: suite.day(-4).Add(9 * time.Hour), Status: models.PaymentCompleted},
		{Amount: 5.00, PaymentDate: suite.day(-1).Add(17 * time.Hour), Status: models.PaymentCompleted},
	}

	suite.mockPaymentRepo.On("ListCompletedSince", ctx, start).Return(payments, nil)

	series, err := suite.service.DailySeries(ctx, SourcePayments, 4)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), series, 5)

	values := make([]float64, 0, len(series))
	cumulatives := make([]float64, 0, len(series))
	for i, point := range series {
		assert.Equal(suite.T(), suite.day(-4+i), point.Date)
		values = append(values, point.Value)
		cumulatives = append(cumulatives, point.Cumulative)
	}
	assert.Equal(suite.T(), []float64{10, 0, 0, 5, 0}, values)
	assert.Equal(suite.T(), []float64{10, 10, 10, 15, 15}, cumulatives)
}

func (suite *AnalyticsServiceTestSuite) TestDailySeries_CumulativeNeverDecreases() {
	ctx := context.Background()

	payments := []*models.Payment{
		{Amount: 7.50, PaymentDate: suite.day(-20), Status: models.PaymentCompleted},
		{Amount: 2.50, PaymentDate: suite.day(-20).Add(3 * time.Hour), Status: models.PaymentCompleted},
		{Amount: 12.00, PaymentDate: suite.day(-3), Status: models.PaymentCompleted},
	}

	suite.mockPaymentRepo.On("ListCompletedSince", ctx, mock.AnythingOfType("time.Time")).Return(payments, nil)

	series, err := suite.service.DailySeries(ctx, SourcePayments, 30)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), series, 31)
	for i := 1; i < len(series); i++ {
		assert.GreaterOrEqual(suite.T(), series[i].Cumulative, series[i-1].Cumulative)
	}
	assert.Equal(suite.T(), 22.00, series[len(series)-1].Cumulative)
}

func (suite *AnalyticsServiceTestSuite) TestDailySeries_SubscriptionStartsSource() {
	ctx := context.Background()

	subscriptions := []*models.Subscription{
		{ID: uuid.New(), Price: 20.00, StartDate: suite.day(-2), Status: models.SubscriptionActive},
		{ID: uuid.New(), Price: 10.00, StartDate: suite.day(-2).Add(6 * time.Hour), Status: models.SubscriptionActive},
	}

	suite.mockSubRepo.On("ListStartedSince", ctx, suite.day(-7)).Return(subscriptions, nil)

	series, err := suite.service.DailySeries(ctx, SourceSubscriptionStarts, 7)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), series, 8)
	assert.Equal(suite.T(), 30.00, series[5].Value)
	assert.Equal(suite.T(), 30.00, series[7].Cumulative)
}

func (suite *AnalyticsServiceTestSuite) TestDailySeries_UnknownSource() {
	ctx := context.Background()

	series, err := suite.service.DailySeries(ctx, "invoices", 7)
	assert.Nil(suite.T(), series)
	assert.Error(suite.T(), err)
}

func (suite *AnalyticsServiceTestSuite) TestDailySeries_EmptyDataIsZeroFilled() {
	ctx := context.Background()

	suite.mockPaymentRepo.On("ListCompletedSince", ctx, mock.AnythingOfType("time.Time")).Return([]*models.Payment{}, nil)

	series, err := suite.service.DailySeries(ctx, SourcePayments, 7)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), series, 8)
	for _, point := range series {
		assert.Equal(suite.T(), 0.0, point.Value)
		assert.Equal(suite.T(), 0.0, point.Cumulative)
	}
}

func (suite *AnalyticsServiceTestSuite) TestActiveTrend_CancellationReconstructsHistory() {
	ctx := context.Background()

	subscriptions := []*models.Subscription{
		// Cancelled two days ago; still counts on earlier days.
		{ID: uuid.New(), StartDate: suite.day(-30), EndDate: timePtr(suite.day(-2)), Status: models.SubscriptionCancelled},
		// Open-ended, active the whole window.
		{ID: uuid.New(), StartDate: suite.day(-30), Status: models.SubscriptionActive},
		// Starts mid-window.
		{ID: uuid.New(), StartDate: suite.day(-1), Status: models.SubscriptionActive},
	}

	suite.mockSubRepo.On("List", ctx, analyticsScanLimit, 0).Return(subscriptions, nil)

	trend, err := suite.service.ActiveSubscriptionsTrend(ctx, 4)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), trend, 5)

	counts := make([]int, 0, len(trend))
	for _, point := range trend {
		counts = append(counts, point.ActiveCount)
	}
	// day -4..-2: cancelled sub still in range; day -1: it is gone but
	// the new one starts; today: same.
	assert.Equal(suite.T(), []int{2, 2, 2, 2, 2}, counts)
}

func (suite *AnalyticsServiceTestSuite) TestChurnTrend_CohortMath() {
	ctx := context.Background()

	subscriptions := []*models.Subscription{
		// In the February cohort, ended mid-February.
		{ID: uuid.New(), StartDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), EndDate: timePtr(time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)), Status: models.SubscriptionCancelled},
		// In the February cohort, survived it.
		{ID: uuid.New(), StartDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Status: models.SubscriptionActive},
		// Started inside February, not part of its cohort.
		{ID: uuid.New(), StartDate: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), Status: models.SubscriptionActive},
	}

	suite.mockSubRepo.On("List", ctx, analyticsScanLimit, 0).Return(subscriptions, nil)

	trend, err := suite.service.ChurnTrend(ctx, 60)
	assert.NoError(suite.T(), err)
	// Window of 60 days back from 2024-03-15 spans Jan..Mar.
	assert.Len(suite.T(), trend, 3)

	byMonth := make(map[time.Month]float64)
	for _, point := range trend {
		byMonth[point.Month.Month()] = point.ChurnRate
	}
	assert.Equal(suite.T(), 0.0, byMonth[time.January])
	assert.Equal(suite.T(), 0.5, byMonth[time.February])
	assert.Equal(suite.T(), 0.0, byMonth[time.March])
}

func (suite *AnalyticsServiceTestSuite) TestChurnTrend_EmptyCohortIsZero() {
	ctx := context.Background()

	suite.mockSubRepo.On("List", ctx, analyticsScanLimit, 0).Return([]*models.Subscription{}, nil)

	trend, err := suite.service.ChurnTrend(ctx, 30)
	assert.NoError(suite.T(), err)
	for _, point := range trend {
		assert.Equal(suite.T(), 0.0, point.ChurnRate)
	}
}

func TestClampDayWindow(t *testing.T) {
	assert.Equal(t, DefaultDayWindow, ClampDayWindow(0))
	assert.Equal(t, DefaultDayWindow, ClampDayWindow(-5))
	assert.Equal(t, 30, ClampDayWindow(30))
	assert.Equal(t, MaxDayWindow, ClampDayWindow(100000))
}
