package analysis

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/OceanScout/internal/analytics/blueocean"
	"github.com/turtacn/OceanScout/internal/analytics/competitor"
	"github.com/turtacn/OceanScout/internal/analytics/market"
	"github.com/turtacn/OceanScout/internal/analytics/scoring"
	"github.com/turtacn/OceanScout/internal/analytics/segmentation"
	"github.com/turtacn/OceanScout/internal/analytics/trend"
	domainanalysis "github.com/turtacn/OceanScout/internal/domain/analysis"
	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// Report is the complete outcome of one analysis run.
type Report struct {
	RunID        uuid.UUID `json:"run_id"`
	Keyword      string    `json:"keyword"`
	Fingerprint  string    `json:"fingerprint"`
	GeneratedAt  time.Time `json:"generated_at"`
	DurationMS   int64     `json:"duration_ms"`
	Cached       bool      `json:"cached"`
	ProductCount int       `json:"product_count"`

	MarketData   *product.KeywordMarketData `json:"market_data,omitempty"`
	Market       *market.Result             `json:"market"`
	BlueOcean    *blueocean.Result          `json:"blue_ocean"`
	TopProducts  []scoring.Ranked           `json:"top_products"`
	Opportunity  scoring.Opportunity        `json:"market_opportunity"`
	Segmentation *segmentation.Result       `json:"segmentation"`
	Trend        *trend.Result              `json:"trend"`
	Competitor   *competitor.Result         `json:"competitor"`
	Assessment   scoring.Assessment         `json:"assessment"`
}

// BlueOceanCount returns the number of qualifying products.
func (r *Report) BlueOceanCount() int {
	if r.BlueOcean == nil {
		return 0
	}
	return r.BlueOcean.BlueOceanCount
}

// Duration returns the run duration.
func (r *Report) Duration() time.Duration {
	return time.Duration(r.DurationMS) * time.Millisecond
}

// ToRun converts the report into its persisted record.
func (r *Report) ToRun() (*domainanalysis.Run, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode report")
	}
	return &domainanalysis.Run{
		ID:               r.RunID,
		Keyword:          r.Keyword,
		Fingerprint:      r.Fingerprint,
		ProductCount:     r.ProductCount,
		BlueOceanCount:   r.BlueOceanCount(),
		OpportunityScore: r.Assessment.Total,
		Grade:            string(r.Assessment.Grade),
		Duration:         r.Duration(),
		Report:           raw,
		CreatedAt:        r.GeneratedAt,
	}, nil
}

// CompletedPayload builds the analysis.completed event body.
func (r *Report) CompletedPayload() kafka.AnalysisCompletedPayload {
	return kafka.AnalysisCompletedPayload{
		RunID:            r.RunID.String(),
		Keyword:          r.Keyword,
		Fingerprint:      r.Fingerprint,
		ProductCount:     r.ProductCount,
		BlueOceanCount:   r.BlueOceanCount(),
		OpportunityScore: r.Assessment.Total,
		Grade:            string(r.Assessment.Grade),
		DurationMS:       r.DurationMS,
		Cached:           r.Cached,
		CompletedAt:      r.GeneratedAt,
	}
}

// ReportFromRun decodes the report stored with run.
func ReportFromRun(run *domainanalysis.Run) (*Report, error) {
	if run == nil || len(run.Report) == 0 {
		return nil, errors.New(errors.ErrCodeAnalysisRunNotFound, "analysis run has no report")
	}
	var r Report
	if err := json.Unmarshal(run.Report, &r); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode stored report").
			WithDetail("run_id=" + run.ID.String())
	}
	return &r, nil
}
