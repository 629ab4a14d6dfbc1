package analysis

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/internal/infrastructure/database/redis"
	"github.com/turtacn/OceanScout/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/OceanScout/internal/testutil"
	"github.com/turtacn/OceanScout/pkg/errors"
	"github.com/turtacn/OceanScout/pkg/types/common"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*common.ProducerMessage
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, msg *common.ProducerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) messages() []*common.ProducerMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*common.ProducerMessage(nil), p.msgs...)
}

type stubProvider struct {
	data  *product.KeywordMarketData
	err   error
	calls int
}

func (p *stubProvider) Fetch(context.Context, string) (*product.KeywordMarketData, error) {
	p.calls++
	return p.data, p.err
}

type ServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	mr        *miniredis.Miniredis
	products  *testutil.MemoryProductRepository
	markets   *testutil.MemoryMarketDataRepository
	runs      *testutil.MemoryRunRepository
	provider  *stubProvider
	publisher *recordingPublisher
	collector prometheus.MetricsCollector
	svc       Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	log := logging.NewNopLogger()

	s.mr = miniredis.RunT(s.T())
	client := redis.NewClientFromUniversal(goredis.NewClient(&goredis.Options{Addr: s.mr.Addr()}), log)
	s.T().Cleanup(func() { _ = client.Close() })

	var err error
	s.collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, log)
	s.Require().NoError(err)

	s.products = testutil.NewMemoryProductRepository()
	s.markets = testutil.NewMemoryMarketDataRepository()
	s.runs = testutil.NewMemoryRunRepository()
	s.provider = &stubProvider{}
	s.publisher = &recordingPublisher{}

	s.svc, err = NewService(Dependencies{
		Engine:     MustNewEngine(testAnalysisConfig()),
		Products:   s.products,
		MarketData: s.markets,
		Runs:       s.runs,
		Provider:   s.provider,
		Cache:      redis.NewRedisCache(client, log, redis.WithPrefix("test:"), redis.WithJitter(false)),
		Locker:     redis.NewLockFactory(client, "test:", log),
		Publisher:  s.publisher,
		Metrics:    prometheus.NewAppMetrics(s.collector),
		Logger:     log,
	}, Options{Source: "api"})
	s.Require().NoError(err)

	s.Require().NoError(s.products.SaveBatch(s.ctx, "yoga mat", testutil.Products(30)))
	s.Require().NoError(s.markets.Save(s.ctx, testutil.MarketData("yoga mat")))
}

func (s *ServiceTestSuite) scrape() string {
	w := httptest.NewRecorder()
	s.collector.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	return w.Body.String()
}

func (s *ServiceTestSuite) TestRun_LoadsFromStores() {
	r, err := s.svc.Run(s.ctx, Request{Keyword: "  yoga mat "})
	s.Require().NoError(err)

	s.Equal("yoga mat", r.Keyword)
	s.NotEqual(uuid.Nil, r.RunID)
	s.False(r.GeneratedAt.IsZero())
	s.False(r.Cached)
	s.Equal(30, r.ProductCount)
	s.Require().NotNil(r.MarketData)
	s.Equal(0, s.provider.calls)
	s.Equal(1, s.runs.Len())

	msgs := s.publisher.messages()
	s.Require().Len(msgs, 1)
	s.Equal(kafka.TopicAnalysisCompleted, msgs[0].Topic)
	s.Equal("yoga mat", string(msgs[0].Key))

	env, err := kafka.DecodeEnvelope(&common.Message{Value: msgs[0].Value})
	s.Require().NoError(err)
	var payload kafka.AnalysisCompletedPayload
	s.Require().NoError(env.Unmarshal(&payload))
	s.Equal(r.RunID.String(), payload.RunID)
	s.Equal(r.Fingerprint, payload.Fingerprint)

	s.Contains(s.scrape(), `test_analysis_runs_total{cached="false",status="success"} 1`)
}

func (s *ServiceTestSuite) TestRun_CacheHitSkipsWork() {
	first, err := s.svc.Run(s.ctx, Request{Keyword: "yoga mat", UseCache: true})
	s.Require().NoError(err)

	second, err := s.svc.Run(s.ctx, Request{Keyword: "yoga mat", UseCache: true})
	s.Require().NoError(err)

	s.True(second.Cached)
	s.Equal(first.RunID, second.RunID)
	s.Equal(first.Assessment.Total, second.Assessment.Total)
	s.Equal(1, s.runs.Len())
	s.Len(s.publisher.messages(), 1)

	out := s.scrape()
	s.Contains(out, `test_analysis_runs_total{cached="true",status="success"} 1`)
	s.Contains(out, `test_cache_hits_total{cache="report"} 1`)
}

func (s *ServiceTestSuite) TestPurgeCache() {
	first, err := s.svc.Run(s.ctx, Request{Keyword: "yoga mat", UseCache: true})
	s.Require().NoError(err)
	s.True(s.mr.Exists("test:report:" + first.Fingerprint))

	n, err := s.svc.PurgeCache(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	second, err := s.svc.Run(s.ctx, Request{Keyword: "yoga mat", UseCache: true})
	s.Require().NoError(err)
	s.False(second.Cached)
	s.NotEqual(first.RunID, second.RunID)
}

func (s *ServiceTestSuite) TestPurgeCache_WithoutCache() {
	svc, err := NewService(Dependencies{
		Engine:   MustNewEngine(testAnalysisConfig()),
		Products: s.products,
		Runs:     s.runs,
	}, Options{})
	s.Require().NoError(err)

	n, err := svc.PurgeCache(s.ctx)
	s.NoError(err)
	s.Zero(n)
}

func (s *ServiceTestSuite) TestRun_WithoutCacheAlwaysRuns() {
	_, err := s.svc.Run(s.ctx, Request{Keyword: "yoga mat"})
	s.Require().NoError(err)
	second, err := s.svc.Run(s.ctx, Request{Keyword: "yoga mat"})
	s.Require().NoError(err)

	s.False(second.Cached)
	s.Equal(2, s.runs.Len())
}

func (s *ServiceTestSuite) TestRun_ChangedDataMissesCache() {
	first, err := s.svc.Run(s.ctx, Request{Keyword: "yoga mat", UseCache: true})
	s.Require().NoError(err)

	s.Require().NoError(s.products.SaveBatch(s.ctx, "yoga mat", testutil.Products(31)))
	second, err := s.svc.Run(s.ctx, Request{Keyword: "yoga mat", UseCache: true})
	s.Require().NoError(err)

	s.False(second.Cached)
	s.NotEqual(first.Fingerprint, second.Fingerprint)
}

func (s *ServiceTestSuite) TestRun_CachedReportKeepsKeywordCasing() {
	products := testutil.Products(10)
	first, err := s.svc.Run(s.ctx, Request{Keyword: "Yoga Mat", Products: products, UseCache: true})
	s.Require().NoError(err)

	second, err := s.svc.Run(s.ctx, Request{Keyword: "yoga mat", Products: products, UseCache: true})
	s.Require().NoError(err)

	s.False(second.Cached)
	s.Equal("yoga mat", second.Keyword)
	s.NotEqual(first.Fingerprint, second.Fingerprint)
}

func (s *ServiceTestSuite) TestRun_InlineDatasetFetchesMarketData() {
	s.provider.data = testutil.MarketData("desk lamp")

	r, err := s.svc.Run(s.ctx, Request{Keyword: "desk lamp", Products: testutil.Products(10)})
	s.Require().NoError(err)

	s.Equal(10, r.ProductCount)
	s.Require().NotNil(r.MarketData)
	s.Equal(1, s.provider.calls)

	stored, err := s.markets.GetByKeyword(s.ctx, "desk lamp")
	s.Require().NoError(err)
	s.NotNil(stored)
}

func (s *ServiceTestSuite) TestRun_ProviderFailureDegradesToNoMarketData() {
	s.provider.err = errors.New(errors.ErrCodeMarketDataFetch, "feed down")

	r, err := s.svc.Run(s.ctx, Request{Keyword: "desk lamp", Products: testutil.Products(5)})
	s.Require().NoError(err)
	s.Nil(r.MarketData)
	s.Contains(s.scrape(), `test_marketdata_fetch_total{status="failure"} 1`)
}

func (s *ServiceTestSuite) TestRun_InlineMarketDataIsUsedAsIs() {
	md := testutil.MarketData("desk lamp")
	r, err := s.svc.Run(s.ctx, Request{Keyword: "desk lamp", Products: testutil.Products(5), Market: md})
	s.Require().NoError(err)
	s.Equal(md.MonthlySearches, r.MarketData.MonthlySearches)
	s.Equal(0, s.provider.calls)
}

func (s *ServiceTestSuite) TestRun_ValidationErrors() {
	_, err := s.svc.Run(s.ctx, Request{Keyword: "k", Products: []product.Product{
		testutil.NewProduct("B1", testutil.WithRating(7)),
	}})
	s.True(errors.IsCode(err, errors.ErrCodeProductInvalidRating))

	_, err = s.svc.Run(s.ctx, Request{Keyword: ""})
	s.True(errors.IsCode(err, errors.ErrCodeDatasetKeywordMissing))

	s.Equal(0, s.runs.Len())
	s.Contains(s.scrape(), `test_analysis_runs_total{cached="false",status="failure"} 2`)
}

func (s *ServiceTestSuite) TestRun_PublishFailureDoesNotFailRun() {
	s.publisher.err = errors.New(errors.ErrCodeMessagePublish, "broker down")

	_, err := s.svc.Run(s.ctx, Request{Keyword: "yoga mat"})
	s.NoError(err)
	s.Equal(1, s.runs.Len())
	s.Contains(s.scrape(), `test_messages_published_total{status="failure",topic="analysis.completed"} 1`)
}

func (s *ServiceTestSuite) TestRun_PersistFailureFailsRun() {
	s.runs.Err = errors.New(errors.ErrCodeDatabaseError, "db down")

	_, err := s.svc.Run(s.ctx, Request{Keyword: "yoga mat"})
	s.True(errors.IsCode(err, errors.ErrCodeDatabaseError))
	s.Empty(s.publisher.messages())
}

func (s *ServiceTestSuite) TestRun_ReleasesLock() {
	r, err := s.svc.Run(s.ctx, Request{Keyword: "yoga mat"})
	s.Require().NoError(err)
	s.False(s.mr.Exists("test:lock:analysis:" + r.Fingerprint))
}

func (s *ServiceTestSuite) TestGetAndLatest() {
	r, err := s.svc.Run(s.ctx, Request{Keyword: "yoga mat"})
	s.Require().NoError(err)

	got, err := s.svc.Get(s.ctx, r.RunID)
	s.Require().NoError(err)
	s.Equal(r.RunID, got.RunID)
	s.Equal(r.Fingerprint, got.Fingerprint)

	latest, err := s.svc.Latest(s.ctx, "yoga mat")
	s.Require().NoError(err)
	s.Equal(r.RunID, latest.RunID)

	_, err = s.svc.Get(s.ctx, uuid.New())
	s.True(errors.IsCode(err, errors.ErrCodeAnalysisRunNotFound))
}

func (s *ServiceTestSuite) TestCompare() {
	s.Require().NoError(s.products.SaveBatch(s.ctx, "desk lamp", testutil.Products(8)))

	ranked, err := s.svc.Compare(s.ctx, []string{"desk lamp", "yoga mat"}, false)
	s.Require().NoError(err)
	s.Require().Len(ranked, 2)
	s.GreaterOrEqual(ranked[0].Total, ranked[1].Total)
	s.Equal(2, s.runs.Len())

	_, err = s.svc.Compare(s.ctx, nil, false)
	s.True(errors.IsCode(err, errors.ErrCodeValidation))
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func TestNewService_RequiresEngine(t *testing.T) {
	_, err := NewService(Dependencies{}, Options{})
	if !errors.IsCode(err, errors.ErrCodeAnalysisConfigInvalid) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestService_NoopCollaborators(t *testing.T) {
	svc, err := NewService(Dependencies{Engine: MustNewEngine(testAnalysisConfig())}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	r, err := svc.Run(ctx, Request{Keyword: "k", Products: testutil.Products(3), UseCache: true})
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := json.Marshal(r)
	if len(raw) == 0 || r.Cached {
		t.Fatalf("unexpected report %s", raw)
	}

	if _, err := svc.Run(ctx, Request{Keyword: "k"}); !errors.IsCode(err, errors.ErrCodeValidation) {
		t.Fatalf("expected validation error without product store, got %v", err)
	}
	if _, err := svc.Get(ctx, r.RunID); !errors.IsCode(err, errors.ErrCodeServiceUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
