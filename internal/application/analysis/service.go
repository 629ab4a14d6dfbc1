package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/OceanScout/internal/analytics/scoring"
	domainanalysis "github.com/turtacn/OceanScout/internal/domain/analysis"
	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/OceanScout/pkg/errors"
)

const (
	defaultResultTTL   = 6 * time.Hour
	defaultConcurrency = 4
	cacheKeyPrefix     = "report:"
	lockKeyPrefix      = "analysis:"
)

// Request asks for one analysis.  Products and Market may be supplied
// inline; when Products is nil the dataset is loaded from the product store,
// and when Market is nil it is looked up in the market data store and then
// the provider.
type Request struct {
	Keyword  string                     `json:"keyword"`
	Products []product.Product          `json:"products,omitempty"`
	Market   *product.KeywordMarketData `json:"market,omitempty"`
	UseCache bool                       `json:"use_cache"`
}

// Service runs and retrieves analyses.  It is safe for concurrent use.
type Service interface {
	// Run analyses one keyword.
	Run(ctx context.Context, req Request) (*Report, error)
	// Compare runs each keyword from the stores and grades them against
	// each other, best first.
	Compare(ctx context.Context, keywords []string, useCache bool) ([]scoring.Assessment, error)
	// Get returns the stored report of a run.
	Get(ctx context.Context, id uuid.UUID) (*Report, error)
	// Latest returns the most recent stored report for keyword.
	Latest(ctx context.Context, keyword string) (*Report, error)
	// PurgeCache drops every cached report and returns how many were
	// dropped.  Cache keys cover the dataset only, so reports cached before
	// a scoring configuration change are stale until purged or expired.
	PurgeCache(ctx context.Context) (int64, error)
}

// Options tunes the service.
type Options struct {
	// Source labels metrics: "api", "cli" or "worker".
	Source      string
	ResultTTL   time.Duration
	TopicPrefix string
	// Concurrency bounds Compare.
	Concurrency int
}

// Dependencies lists the collaborators of the service.  Only Engine is
// required; every other nil port falls back to a no-op.
type Dependencies struct {
	Engine     *Engine
	Products   product.ProductRepository
	MarketData product.MarketDataRepository
	Runs       domainanalysis.RunRepository
	Provider   MarketDataProvider
	Cache      ReportCache
	Locker     Locker
	Publisher  EventPublisher
	Metrics    *prometheus.AppMetrics
	Logger     logging.Logger
}

type serviceImpl struct {
	engine     *Engine
	products   product.ProductRepository
	marketData product.MarketDataRepository
	runs       domainanalysis.RunRepository
	provider   MarketDataProvider
	cache      ReportCache
	locker     Locker
	publisher  EventPublisher
	metrics    *prometheus.AppMetrics
	logger     logging.Logger
	opts       Options
	now        func() time.Time
}

// NewService constructs a Service.
func NewService(deps Dependencies, opts Options) (Service, error) {
	if deps.Engine == nil {
		return nil, errors.New(errors.ErrCodeAnalysisConfigInvalid, "analysis engine is required")
	}
	if opts.Source == "" {
		opts.Source = "api"
	}
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = defaultResultTTL
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	s := &serviceImpl{
		engine:     deps.Engine,
		products:   deps.Products,
		marketData: deps.MarketData,
		runs:       deps.Runs,
		provider:   deps.Provider,
		cache:      deps.Cache,
		locker:     deps.Locker,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		opts:       opts,
		now:        func() time.Time { return time.Now().UTC() },
	}
	if s.provider == nil {
		s.provider = noopMarketData{}
	}
	if s.cache == nil {
		s.cache = noopCache{}
	}
	if s.locker == nil {
		s.locker = noopLocker{}
	}
	if s.publisher == nil {
		s.publisher = noopPublisher{}
	}
	if s.metrics == nil {
		s.metrics = prometheus.NewNopAppMetrics()
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	return s, nil
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func (s *serviceImpl) Run(ctx context.Context, req Request) (report *Report, err error) {
	start := time.Now()
	s.metrics.AnalysisInFlight.WithLabelValues(s.opts.Source).Inc()
	defer func() {
		s.metrics.AnalysisInFlight.WithLabelValues(s.opts.Source).Dec()
		obs := prometheus.RunObservation{Source: s.opts.Source, Err: err, Duration: time.Since(start)}
		if report != nil {
			obs.Cached = report.Cached
			obs.ProductCount = report.ProductCount
			obs.BlueOceanCount = report.BlueOceanCount()
			obs.OpportunityScore = report.Assessment.Total
			obs.Grade = string(report.Assessment.Grade)
		}
		prometheus.RecordAnalysisRun(s.metrics, obs)
	}()

	// 1. Load and validate
	ds, err := s.dataset(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	fingerprint := ds.Fingerprint()
	log := s.logger.With(logging.String("keyword", ds.Keyword), logging.String("fingerprint", fingerprint[:12]))

	// 2. Cache
	if req.UseCache {
		if cached, ok := s.cached(ctx, fingerprint); ok {
			log.Info("Serving cached analysis", logging.String("run_id", cached.RunID.String()))
			return cached, nil
		}
	}

	// 3. Collapse identical concurrent runs
	release, lockErr := s.locker.Acquire(ctx, lockKeyPrefix+fingerprint)
	if lockErr != nil {
		log.Warn("Proceeding without analysis lock", logging.Err(lockErr))
	} else {
		defer release()
		if req.UseCache {
			if cached, ok := s.cached(ctx, fingerprint); ok {
				return cached, nil
			}
		}
	}

	// 4. Analyze
	report, err = s.engine.Analyze(ds)
	if err != nil {
		return nil, err
	}
	report.RunID = uuid.New()
	report.GeneratedAt = s.now()
	report.DurationMS = time.Since(start).Milliseconds()

	// 5. Persist
	if s.runs != nil {
		run, err := report.ToRun()
		if err != nil {
			return nil, err
		}
		dbStart := time.Now()
		err = s.runs.Save(ctx, run)
		prometheus.RecordDBQuery(s.metrics, "save_run", time.Since(dbStart), err)
		if err != nil {
			return nil, err
		}
	}

	// 6. Cache and publish; failures here do not fail the run
	if err := s.cache.Set(ctx, cacheKeyPrefix+fingerprint, report, s.opts.ResultTTL); err != nil {
		log.Warn("Failed to cache analysis report", logging.Err(err))
	}
	s.publishCompleted(ctx, report, log)

	log.Info("Analysis completed",
		logging.String("run_id", report.RunID.String()),
		logging.Int("products", report.ProductCount),
		logging.Int("blue_ocean", report.BlueOceanCount()),
		logging.Float64("score", report.Assessment.Total),
		logging.String("grade", string(report.Assessment.Grade)),
		logging.Duration("duration", report.Duration()),
	)
	return report, nil
}

func (s *serviceImpl) dataset(ctx context.Context, req Request) (product.Dataset, error) {
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return product.Dataset{}, errors.New(errors.ErrCodeDatasetKeywordMissing, "keyword is required")
	}
	ds := product.Dataset{Keyword: keyword, Products: req.Products, Market: req.Market}

	if ds.Products == nil {
		if s.products == nil {
			return product.Dataset{}, errors.New(errors.ErrCodeValidation, "no products supplied and no product store configured").
				WithDetail("keyword=" + keyword)
		}
		list, err := s.products.ListByKeyword(ctx, keyword)
		if err != nil {
			return product.Dataset{}, err
		}
		ds.Products = list
	}
	if ds.Market == nil {
		ds.Market = s.lookupMarketData(ctx, keyword)
	}
	return ds, nil
}

// lookupMarketData tries the store, then the provider.  Data fetched from
// the provider is stored for later runs.  Every failure degrades to "no
// market data".
func (s *serviceImpl) lookupMarketData(ctx context.Context, keyword string) *product.KeywordMarketData {
	if s.marketData != nil {
		md, err := s.marketData.GetByKeyword(ctx, keyword)
		if err != nil {
			s.logger.Warn("Market data lookup failed", logging.String("keyword", keyword), logging.Err(err))
		} else if md != nil {
			return md
		}
	}

	md, err := s.provider.Fetch(ctx, keyword)
	prometheus.RecordMarketDataFetch(s.metrics, md != nil, err)
	if err != nil {
		s.logger.Warn("Market data provider failed", logging.String("keyword", keyword), logging.Err(err))
		return nil
	}
	if md != nil && s.marketData != nil {
		if err := s.marketData.Save(ctx, md); err != nil {
			s.logger.Warn("Failed to store fetched market data", logging.String("keyword", keyword), logging.Err(err))
		}
	}
	return md
}

func (s *serviceImpl) cached(ctx context.Context, fingerprint string) (*Report, bool) {
	var r Report
	err := s.cache.Get(ctx, cacheKeyPrefix+fingerprint, &r)
	prometheus.RecordCacheAccess(s.metrics, "report", err == nil)
	if err != nil {
		if !errors.IsCode(err, errors.ErrCodeCacheMiss) {
			s.logger.Warn("Report cache read failed", logging.Err(err))
		}
		return nil, false
	}
	r.Cached = true
	return &r, true
}

func (s *serviceImpl) PurgeCache(ctx context.Context) (int64, error) {
	n, err := s.cache.DeleteByPrefix(ctx, cacheKeyPrefix)
	if err != nil {
		return n, err
	}
	s.logger.Info("Purged cached reports", logging.Int64("count", n))
	return n, nil
}

func (s *serviceImpl) publishCompleted(ctx context.Context, r *Report, log logging.Logger) {
	topic := kafka.Topic(s.opts.TopicPrefix, kafka.TopicAnalysisCompleted)
	err := s.publish(ctx, topic, r)
	prometheus.RecordPublish(s.metrics, topic, err)
	if err != nil {
		log.Warn("Failed to publish analysis event", logging.String("topic", topic), logging.Err(err))
	}
}

func (s *serviceImpl) publish(ctx context.Context, topic string, r *Report) error {
	env, err := kafka.NewEnvelope(kafka.EventAnalysisCompleted, r.CompletedPayload())
	if err != nil {
		return err
	}
	msg, err := env.Encode(topic, r.Keyword)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, msg)
}

// ---------------------------------------------------------------------------
// Compare / Get / Latest
// ---------------------------------------------------------------------------

func (s *serviceImpl) Compare(ctx context.Context, keywords []string, useCache bool) ([]scoring.Assessment, error) {
	if len(keywords) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "at least one keyword is required")
	}
	reports := make([]*Report, len(keywords))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, kw := range keywords {
		i, kw := i, kw
		g.Go(func() error {
			r, err := s.Run(gctx, Request{Keyword: kw, UseCache: useCache})
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s.engine.Compare(reports), nil
}

func (s *serviceImpl) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	if s.runs == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "run store is not configured")
	}
	run, err := s.runs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return ReportFromRun(run)
}

func (s *serviceImpl) Latest(ctx context.Context, keyword string) (*Report, error) {
	if s.runs == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "run store is not configured")
	}
	run, err := s.runs.LatestByKeyword(ctx, strings.TrimSpace(keyword))
	if err != nil {
		return nil, err
	}
	return ReportFromRun(run)
}
