package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"printforge/internal/analytics"
	"printforge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type fakeObjectStore struct {
	buckets  map[string]bool
	uploaded map[string]string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		buckets:  make(map[string]bool),
		uploaded: make(map[string]string),
	}
}

func (f *fakeObjectStore) Upload(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.uploaded[bucketName+"/"+objectName] = string(data)
	return nil
}

func (f *fakeObjectStore) PresignedURL(bucketName, objectName string, expiry time.Duration) (string, error) {
	return "https://minio.local/" + bucketName + "/" + objectName, nil
}

func (f *fakeObjectStore) EnsureBucketExists(ctx context.Context, bucketName string) error {
	f.buckets[bucketName] = true
	return nil
}

type StatementServiceTestSuite struct {
	suite.Suite
	mockSubRepo     *MockSubscriptionRepository
	mockPaymentRepo *MockPaymentRepository
	store           *fakeObjectStore
	service         StatementService
}

func (suite *StatementServiceTestSuite) SetupTest() {
	suite.mockSubRepo = &MockSubscriptionRepository{}
	suite.mockPaymentRepo = &MockPaymentRepository{}
	suite.store = newFakeObjectStore()

	analyticsSvc := analytics.NewService(suite.mockSubRepo, suite.mockPaymentRepo)
	suite.service = NewStatementService(analyticsSvc, suite.store)
}

func TestStatementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(StatementServiceTestSuite))
}

func (suite *StatementServiceTestSuite) TestExport_WritesDatedCSV() {
	ctx := context.Background()

	suite.mockSubRepo.On("List", ctx, mock.AnythingOfType("int"), 0).Return([]*models.Subscription{}, nil)
	suite.mockSubRepo.On("ListStartedSince", ctx, mock.AnythingOfType("time.Time")).Return([]*models.Subscription{}, nil)
	suite.mockPaymentRepo.On("CountByStatus", ctx).Return(3, 2, nil)
	suite.mockPaymentRepo.On("ListAllCompleted", ctx).Return([]*models.Payment{{Amount: 10.00}, {Amount: 20.00}}, nil)
	suite.mockPaymentRepo.On("ListCompletedSince", ctx, mock.AnythingOfType("time.Time")).Return([]*models.Payment{}, nil)

	objectName, err := suite.service.Export(ctx)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "statements/"+time.Now().UTC().Format("2006-01-02")+".csv", objectName)
	assert.True(suite.T(), suite.store.buckets["billing-statements"])

	content := suite.store.uploaded["billing-statements/"+objectName]
	assert.Contains(suite.T(), content, "metric,value")
	assert.Contains(suite.T(), content, "total_payments,3")
	assert.Contains(suite.T(), content, "total_revenue,30.00")
	assert.Contains(suite.T(), content, "date,daily_volume,cumulative_volume")
	// One header, eight metrics, a blank line, a series header, then one
	// row per day of the default window.
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	assert.Len(suite.T(), lines, 11+analytics.DefaultDayWindow+1)
}

func (suite *StatementServiceTestSuite) TestDownloadURL() {
	url, err := suite.service.DownloadURL("statements/2024-03-15.csv", 15*time.Minute)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "https://minio.local/billing-statements/statements/2024-03-15.csv", url)
}
