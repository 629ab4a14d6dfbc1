package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/OceanScout/internal/application/analysis"
	"github.com/turtacn/OceanScout/internal/application/reporting"
	"github.com/turtacn/OceanScout/internal/config"
	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/internal/interfaces/http/middleware"
	"github.com/turtacn/OceanScout/internal/testutil"
	"github.com/turtacn/OceanScout/pkg/errors"
	"github.com/turtacn/OceanScout/pkg/types/common"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingQueue struct {
	mu   sync.Mutex
	msgs []*common.ProducerMessage
	err  error
}

func (q *recordingQueue) Publish(_ context.Context, msg *common.ProducerMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, msg)
	return nil
}

type mockReports struct {
	mock.Mock
}

func (m *mockReports) Render(ctx context.Context, r *analysis.Report, f reporting.Format) (*reporting.Document, error) {
	args := m.Called(ctx, r, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reporting.Document), args.Error(1)
}

func (m *mockReports) Publish(ctx context.Context, r *analysis.Report, f reporting.Format) (*reporting.Published, error) {
	args := m.Called(ctx, r, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reporting.Published), args.Error(1)
}

type envelope struct {
	Success   bool                `json:"success"`
	Data      json.RawMessage     `json:"data"`
	Error     *common.ErrorDetail `json:"error"`
	RequestID string              `json:"request_id"`
}

type HandlerTestSuite struct {
	suite.Suite
	ctx     context.Context
	runs    *testutil.MemoryRunRepository
	queue   *recordingQueue
	reports *mockReports
	svc     analysis.Service
	engine  *gin.Engine
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) SetupTest() {
	s.ctx = context.Background()
	log := logging.NewNopLogger()

	cfg := config.Default().Analysis
	cfg.AsOf = testutil.ReferenceDate.Format("2006-01-02")

	products := testutil.NewMemoryProductRepository()
	s.Require().NoError(products.SaveBatch(s.ctx, "yoga mat", testutil.Products(20)))
	s.runs = testutil.NewMemoryRunRepository()
	s.queue = &recordingQueue{}
	s.reports = &mockReports{}

	var err error
	s.svc, err = analysis.NewService(analysis.Dependencies{
		Engine:   analysis.MustNewEngine(cfg),
		Products: products,
		Runs:     s.runs,
		Logger:   log,
	}, analysis.Options{Source: "api"})
	s.Require().NoError(err)

	s.engine = s.newEngine(NewReportHandler(s.svc, reporting.NewPublisher(nil, nil, log, reporting.PublisherOptions{}), reporting.FormatCSV, log))
}

func (s *HandlerTestSuite) newEngine(reports *ReportHandler) *gin.Engine {
	log := logging.NewNopLogger()
	analyses := NewAnalysisHandler(s.svc, s.queue, "", log)
	e := gin.New()
	e.Use(middleware.RequestID())
	e.POST("/analyses", analyses.Run)
	e.POST("/analyses/async", analyses.Enqueue)
	e.GET("/analyses/:id", analyses.Get)
	e.GET("/keywords/:keyword/analysis", analyses.Latest)
	e.POST("/compare", analyses.Compare)
	e.GET("/analyses/:id/report", reports.Download)
	e.POST("/analyses/:id/report", reports.Publish)
	e.GET("/keywords/:keyword/report", reports.DownloadLatest)
	return e
}

func (s *HandlerTestSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			s.Require().NoError(json.NewEncoder(&buf).Encode(body))
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, r)
	return w
}

func (s *HandlerTestSuite) decode(w *httptest.ResponseRecorder, data interface{}) envelope {
	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && env.Success {
		s.Require().NoError(json.Unmarshal(env.Data, data))
	}
	return env
}

func (s *HandlerTestSuite) runStored() *analysis.Report {
	w := s.do(http.MethodPost, "/analyses", RunAnalysisRequest{Keyword: "yoga mat"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var r analysis.Report
	s.decode(w, &r)
	return &r
}

func (s *HandlerTestSuite) TestRun_StoredProducts() {
	w := s.do(http.MethodPost, "/analyses", RunAnalysisRequest{Keyword: "yoga mat"})

	s.Equal(http.StatusCreated, w.Code)
	var r analysis.Report
	env := s.decode(w, &r)
	s.True(env.Success)
	s.NotEmpty(env.RequestID)
	s.Equal("yoga mat", r.Keyword)
	s.Equal(20, r.ProductCount)
	s.Equal("/api/v1/analyses/"+r.RunID.String(), w.Header().Get("Location"))
	s.Equal(1, s.runs.Len())
}

func (s *HandlerTestSuite) TestRun_InlineDataset() {
	w := s.do(http.MethodPost, "/analyses", RunAnalysisRequest{
		Keyword:  "desk lamp",
		Products: testutil.Products(5),
		Market:   testutil.MarketData("desk lamp"),
	})

	s.Equal(http.StatusCreated, w.Code)
	var r analysis.Report
	s.decode(w, &r)
	s.Equal(5, r.ProductCount)
	s.NotNil(r.MarketData)
}

func (s *HandlerTestSuite) TestRun_Errors() {
	tests := []struct {
		name   string
		body   interface{}
		status int
		code   errors.ErrorCode
	}{
		{"malformed json", `{"keyword":`, http.StatusBadRequest, errors.ErrCodeSerialization},
		{"missing keyword", RunAnalysisRequest{}, http.StatusBadRequest, errors.ErrCodeDatasetKeywordMissing},
		{"invalid rating", RunAnalysisRequest{
			Keyword:  "bad",
			Products: []product.Product{testutil.NewProduct("B000000001", testutil.WithRating(7))},
		}, http.StatusUnprocessableEntity, errors.ErrCodeProductInvalidRating},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.do(http.MethodPost, "/analyses", tt.body)
			s.Equal(tt.status, w.Code, w.Body.String())
			env := s.decode(w, nil)
			s.False(env.Success)
			s.Require().NotNil(env.Error)
			s.Equal(string(tt.code), env.Error.Code)
		})
	}
}

func (s *HandlerTestSuite) TestGetAndLatest() {
	r := s.runStored()

	w := s.do(http.MethodGet, "/analyses/"+r.RunID.String(), nil)
	s.Equal(http.StatusOK, w.Code)
	var got analysis.Report
	s.decode(w, &got)
	s.Equal(r.RunID, got.RunID)

	w = s.do(http.MethodGet, "/keywords/yoga%20mat/analysis", nil)
	s.Equal(http.StatusOK, w.Code)
	s.decode(w, &got)
	s.Equal(r.RunID, got.RunID)

	w = s.do(http.MethodGet, "/analyses/not-a-uuid", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/analyses/"+uuid.NewString(), nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal(string(errors.ErrCodeAnalysisRunNotFound), s.decode(w, nil).Error.Code)

	w = s.do(http.MethodGet, "/keywords/unknown/analysis", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestCompare() {
	w := s.do(http.MethodPost, "/compare", CompareRequest{Keywords: []string{"yoga mat"}})
	s.Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/compare", CompareRequest{})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlerTestSuite) TestEnqueue() {
	w := s.do(http.MethodPost, "/analyses/async", EnqueueRequest{Keyword: "yoga mat"})
	s.Equal(http.StatusAccepted, w.Code, w.Body.String())
	var ack EnqueueResponse
	s.decode(w, &ack)
	s.NotEmpty(ack.EventID)
	s.Require().Len(s.queue.msgs, 1)
	s.Equal("analysis.requested", s.queue.msgs[0].Topic)

	w = s.do(http.MethodPost, "/analyses/async", EnqueueRequest{})
	s.Equal(http.StatusBadRequest, w.Code)

	h := NewAnalysisHandler(s.svc, nil, "", logging.NewNopLogger())
	e := gin.New()
	e.POST("/analyses/async", h.Enqueue)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyses/async", strings.NewReader(`{"keyword":"x"}`)))
	s.Equal(http.StatusServiceUnavailable, rec.Code)
}

func (s *HandlerTestSuite) TestDownload_Formats() {
	r := s.runStored()

	w := s.do(http.MethodGet, "/analyses/"+r.RunID.String()+"/report", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	s.Contains(w.Header().Get("Content-Disposition"), `attachment; filename="yoga-mat-`)
	s.Contains(w.Body.String(), "# Summary")

	w = s.do(http.MethodGet, "/keywords/yoga%20mat/report?format=xlsx", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(reporting.FormatXLSX.ContentType(), w.Header().Get("Content-Type"))
	s.True(bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	w = s.do(http.MethodGet, "/analyses/"+r.RunID.String()+"/report?format=pdf", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(string(errors.ErrCodeReportFormatInvalid), s.decode(w, nil).Error.Code)
}

func (s *HandlerTestSuite) TestPublish() {
	r := s.runStored()

	w := s.do(http.MethodPost, "/analyses/"+r.RunID.String()+"/report", nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)

	s.engine = s.newEngine(NewReportHandler(s.svc, s.reports, reporting.FormatCSV, logging.NewNopLogger()))
	expires := time.Now().Add(time.Hour).UTC()
	s.reports.On("Publish", mock.Anything, mock.MatchedBy(func(got *analysis.Report) bool {
		return got.RunID == r.RunID
	}), reporting.FormatXLSX).Return(&reporting.Published{
		Key:       "reports/yoga-mat/" + r.RunID.String() + ".xlsx",
		URL:       "http://minio/signed",
		Format:    reporting.FormatXLSX,
		ExpiresAt: expires,
	}, nil).Once()

	w = s.do(http.MethodPost, "/analyses/"+r.RunID.String()+"/report?format=xlsx", nil)
	s.Equal(http.StatusCreated, w.Code, w.Body.String())
	var pub reporting.Published
	s.decode(w, &pub)
	s.Equal("http://minio/signed", pub.URL)
	s.reports.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) TestInternalErrorsAreMasked() {
	s.engine = s.newEngine(NewReportHandler(s.svc, s.reports, reporting.FormatCSV, logging.NewNopLogger()))
	r := s.runStored()
	s.reports.On("Render", mock.Anything, mock.Anything, reporting.FormatCSV).
		Return(nil, errors.New(errors.ErrCodeReportRenderFailed, "disk on fire")).Once()

	w := s.do(http.MethodGet, "/analyses/"+r.RunID.String()+"/report", nil)
	s.Equal(http.StatusInternalServerError, w.Code)
	env := s.decode(w, nil)
	s.Equal(string(errors.ErrCodeReportRenderFailed), env.Error.Code)
	s.Equal("report rendering failed", env.Error.Message)
	s.NotContains(w.Body.String(), "disk on fire")
}

func (s *HandlerTestSuite) TestDeadlineExceededMapsToTimeout() {
	s.engine = s.newEngine(NewReportHandler(s.svc, s.reports, reporting.FormatCSV, logging.NewNopLogger()))
	r := s.runStored()
	s.reports.On("Render", mock.Anything, mock.Anything, reporting.FormatCSV).
		Return(nil, context.DeadlineExceeded).Once()

	w := s.do(http.MethodGet, "/analyses/"+r.RunID.String()+"/report", nil)
	s.Equal(http.StatusGatewayTimeout, w.Code)
	env := s.decode(w, nil)
	s.Equal(string(errors.ErrCodeTimeout), env.Error.Code)
	s.Equal("request timed out", env.Error.Message)
}

func (s *HandlerTestSuite) TestNoRouteAndNoMethod() {
	s.engine.HandleMethodNotAllowed = true
	s.engine.NoRoute(NoRoute)
	s.engine.NoMethod(NoMethod)

	w := s.do(http.MethodGet, "/nowhere", nil)
	s.Equal(http.StatusNotFound, w.Code)
	env := s.decode(w, nil)
	s.Equal(string(errors.ErrCodeNotFound), env.Error.Code)
	s.Equal("no route for /nowhere", env.Error.Message)
	s.NotEmpty(env.RequestID)

	w = s.do(http.MethodDelete, "/compare", nil)
	s.Equal(http.StatusMethodNotAllowed, w.Code)
	s.Equal(string(errors.ErrCodeMethodNotAllowed), s.decode(w, nil).Error.Code)
}
