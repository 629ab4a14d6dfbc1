package reporting

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/OceanScout/internal/infrastructure/storage/minio"
	"github.com/turtacn/OceanScout/pkg/errors"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) (*minio.ReportObject, error) {
	args := m.Called(ctx, key, data, contentType, metadata)
	if obj, ok := args.Get(0).(*minio.ReportObject); ok {
		return obj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, *minio.ReportObject, error) {
	args := m.Called(ctx, key)
	return nil, nil, args.Error(2)
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) List(ctx context.Context, prefix string) ([]minio.ReportObject, error) {
	args := m.Called(ctx, prefix)
	return nil, args.Error(1)
}

func (m *mockStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type PublisherTestSuite struct {
	suite.Suite
	ctx       context.Context
	store     *mockStore
	collector prometheus.MetricsCollector
	pub       *Publisher
}

func (s *PublisherTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = new(mockStore)
	var err error
	s.collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, logging.NewNopLogger())
	s.Require().NoError(err)
	s.pub = NewPublisher(s.store, prometheus.NewAppMetrics(s.collector), logging.NewNopLogger(),
		PublisherOptions{PresignExpiry: 15 * time.Minute})
}

func (s *PublisherTestSuite) scrape() string {
	w := httptest.NewRecorder()
	s.collector.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	return w.Body.String()
}

func (s *PublisherTestSuite) TestRender() {
	r := newReport(s.T(), 10)
	doc, err := s.pub.Render(s.ctx, r, FormatCSV)
	s.Require().NoError(err)
	s.Equal("yoga-mat-20240701.csv", doc.FileName)
	s.Equal(int64(len(doc.Data)), doc.Size)
	s.Equal(FormatCSV.ContentType(), doc.ContentType)
	s.Contains(s.scrape(), `test_reports_rendered_total{format="csv",status="success"} 1`)

	_, err = s.pub.Render(s.ctx, r, "pdf")
	s.True(errors.IsCode(err, errors.ErrCodeReportFormatInvalid))
}

func (s *PublisherTestSuite) TestPublish() {
	r := newReport(s.T(), 10)
	key := "reports/yoga-mat/" + r.RunID.String() + ".xlsx"

	s.store.On("Put", s.ctx, key, mock.AnythingOfType("[]uint8"), FormatXLSX.ContentType(),
		mock.MatchedBy(func(m map[string]string) bool {
			return m["keyword"] == "Yoga Mat" && m["run-id"] == r.RunID.String()
		})).
		Return(&minio.ReportObject{Key: key, Size: 2048}, nil).Once()
	s.store.On("PresignGet", s.ctx, key, 15*time.Minute).Return("https://example.test/"+key, nil).Once()

	out, err := s.pub.Publish(s.ctx, r, FormatXLSX)
	s.Require().NoError(err)
	s.Equal(key, out.Key)
	s.Equal(int64(2048), out.Size)
	s.Equal("https://example.test/"+key, out.URL)
	s.False(out.ExpiresAt.IsZero())
	s.Contains(s.scrape(), `test_report_uploads_total{status="success"} 1`)
	s.store.AssertExpectations(s.T())
}

func (s *PublisherTestSuite) TestPublish_PresignFailureKeepsUpload() {
	r := newReport(s.T(), 5)
	s.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&minio.ReportObject{Key: "k", Size: 1}, nil)
	s.store.On("PresignGet", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New(errors.ErrCodeStorageError, "presign failed"))

	out, err := s.pub.Publish(s.ctx, r, FormatCSV)
	s.Require().NoError(err)
	s.Empty(out.URL)
}

func (s *PublisherTestSuite) TestPublish_UploadFailure() {
	r := newReport(s.T(), 5)
	s.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeStorageError, "bucket gone"))

	_, err := s.pub.Publish(s.ctx, r, FormatCSV)
	s.True(errors.IsCode(err, errors.ErrCodeReportUploadFailed))
	s.Contains(s.scrape(), `test_report_uploads_total{status="failure"} 1`)
	s.store.AssertNotCalled(s.T(), "PresignGet", mock.Anything, mock.Anything, mock.Anything)
}

func (s *PublisherTestSuite) TestPublish_NoStore() {
	pub := NewPublisher(nil, nil, nil, PublisherOptions{})
	_, err := pub.Publish(s.ctx, newReport(s.T(), 3), FormatCSV)
	s.True(errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

func TestPublisherTestSuite(t *testing.T) {
	suite.Run(t, new(PublisherTestSuite))
}
