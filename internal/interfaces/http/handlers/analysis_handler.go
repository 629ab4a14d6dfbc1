package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/OceanScout/internal/application/analysis"
	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// AnalysisHandler runs, queues and retrieves analyses.
type AnalysisHandler struct {
	svc         analysis.Service
	queue       analysis.EventPublisher
	topicPrefix string
	logger      logging.Logger
}

// NewAnalysisHandler creates an AnalysisHandler.  A nil queue disables
// asynchronous requests.
func NewAnalysisHandler(svc analysis.Service, queue analysis.EventPublisher, topicPrefix string, logger logging.Logger) *AnalysisHandler {
	return &AnalysisHandler{svc: svc, queue: queue, topicPrefix: topicPrefix, logger: logger}
}

// RunAnalysisRequest is the body of POST /analyses.  Without products the
// keyword's stored products are analysed.
type RunAnalysisRequest struct {
	Keyword  string                     `json:"keyword"`
	Products []product.Product          `json:"products,omitempty"`
	Market   *product.KeywordMarketData `json:"market,omitempty"`
	UseCache *bool                      `json:"use_cache,omitempty"`
}

// CompareRequest is the body of POST /compare.
type CompareRequest struct {
	Keywords []string `json:"keywords"`
	UseCache *bool    `json:"use_cache,omitempty"`
}

// EnqueueRequest is the body of POST /analyses/async.
type EnqueueRequest struct {
	Keyword  string `json:"keyword"`
	UseCache *bool  `json:"use_cache,omitempty"`
}

// EnqueueResponse acknowledges a queued analysis.
type EnqueueResponse struct {
	EventID string `json:"event_id"`
	Keyword string `json:"keyword"`
}

func useCache(v *bool) bool { return v == nil || *v }

// Run handles POST /analyses.  A fresh run answers 201 with its location; a
// cached one 200.
func (h *AnalysisHandler) Run(c *gin.Context) {
	var req RunAnalysisRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	r, err := h.svc.Run(c.Request.Context(), analysis.Request{
		Keyword:  req.Keyword,
		Products: req.Products,
		Market:   req.Market,
		UseCache: useCache(req.UseCache),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Location", "/api/v1/analyses/"+r.RunID.String())
	status := http.StatusCreated
	if r.Cached {
		status = http.StatusOK
	}
	respond(c, status, r)
}

// Enqueue handles POST /analyses/async.
func (h *AnalysisHandler) Enqueue(c *gin.Context) {
	if h.queue == nil {
		respondError(c, errors.New(errors.ErrCodeServiceUnavailable, "asynchronous analysis requires kafka"))
		return
	}
	var req EnqueueRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	id, err := analysis.PublishRequest(c.Request.Context(), h.queue, h.topicPrefix, req.Keyword, useCache(req.UseCache))
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.Info("Analysis queued", logging.String("keyword", req.Keyword), logging.String("event_id", id))
	respond(c, http.StatusAccepted, EnqueueResponse{EventID: id, Keyword: req.Keyword})
}

// Get handles GET /analyses/:id.
func (h *AnalysisHandler) Get(c *gin.Context) {
	id, err := runIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	r, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

// Latest handles GET /keywords/:keyword/analysis.
func (h *AnalysisHandler) Latest(c *gin.Context) {
	r, err := h.svc.Latest(c.Request.Context(), c.Param("keyword"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

// Compare handles POST /compare.
func (h *AnalysisHandler) Compare(c *gin.Context) {
	var req CompareRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	assessments, err := h.svc.Compare(c.Request.Context(), req.Keywords, useCache(req.UseCache))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, assessments)
}
