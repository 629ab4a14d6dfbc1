// Package analysis orchestrates one analysis run: it loads and validates a
// dataset, runs every analyzer over it, grades the keyword and records the
// outcome in the configured stores.
package analysis

import (
	"github.com/turtacn/OceanScout/internal/analytics/blueocean"
	"github.com/turtacn/OceanScout/internal/analytics/competitor"
	"github.com/turtacn/OceanScout/internal/analytics/market"
	"github.com/turtacn/OceanScout/internal/analytics/scoring"
	"github.com/turtacn/OceanScout/internal/analytics/segmentation"
	"github.com/turtacn/OceanScout/internal/analytics/trend"
	"github.com/turtacn/OceanScout/internal/config"
	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// Engine runs the analyzers over a dataset.  It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	market       *market.Analyzer
	blueOcean    *blueocean.Analyzer
	scoring      *scoring.Analyzer
	segmentation *segmentation.Analyzer
	trend        *trend.Analyzer
	competitor   *competitor.Analyzer
}

// NewEngine builds every analyzer from cfg.
func NewEngine(cfg config.AnalysisConfig) (*Engine, error) {
	if _, err := cfg.AsOfTime(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAnalysisConfigInvalid, "invalid analysis.as_of")
	}
	bo, err := blueocean.NewAnalyzer(cfg.BlueOceanConfig())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAnalysisConfigInvalid, "invalid blue-ocean configuration")
	}
	sc, err := scoring.NewAnalyzer(cfg.ScoringConfig())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAnalysisConfigInvalid, "invalid scoring configuration")
	}
	co, err := competitor.NewAnalyzer(cfg.CompetitorConfig())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAnalysisConfigInvalid, "invalid competitor configuration")
	}
	return &Engine{
		market:       market.NewAnalyzer(cfg.MarketConfig()),
		blueOcean:    bo,
		scoring:      sc,
		segmentation: segmentation.NewAnalyzer(cfg.SegmentationConfig()),
		trend:        trend.NewAnalyzer(cfg.TrendConfig()),
		competitor:   co,
	}, nil
}

// MustNewEngine is NewEngine for configurations known to be valid.
func MustNewEngine(cfg config.AnalysisConfig) *Engine {
	e, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return e
}

// Analyze validates ds and runs the analyzers in sequence.  The returned
// report carries no run identity; the Service assigns it.
func (e *Engine) Analyze(ds product.Dataset) (*Report, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	products, md := ds.Products, ds.Market

	m, err := e.market.Analyze(products, md)
	if err != nil {
		return nil, err
	}
	bo, err := e.blueOcean.Analyze(products, md)
	if err != nil {
		return nil, err
	}
	top, err := e.scoring.Rank(products, 0)
	if err != nil {
		return nil, err
	}
	tr, err := e.trend.Analyze(products, md)
	if err != nil {
		return nil, err
	}
	seg, err := e.segmentation.Analyze(products, md)
	if err != nil {
		return nil, err
	}
	comp, err := e.competitor.Analyze(products, md)
	if err != nil {
		return nil, err
	}

	return &Report{
		Keyword:      ds.Keyword,
		Fingerprint:  ds.Fingerprint(),
		ProductCount: len(products),
		MarketData:   md,
		Market:       m,
		BlueOcean:    bo,
		TopProducts:  top,
		Opportunity:  e.scoring.MarketOpportunity(*m, *tr),
		Segmentation: seg,
		Trend:        tr,
		Competitor:   comp,
		Assessment: e.scoring.Assess(scoring.Evidence{
			Keyword:    ds.Keyword,
			MarketData: md,
			Market:     m,
			BlueOcean:  bo,
			Trend:      tr,
		}),
	}, nil
}

// Compare grades several finished reports against each other, best first.
func (e *Engine) Compare(reports []*Report) []scoring.Assessment {
	evidence := make([]scoring.Evidence, 0, len(reports))
	for _, r := range reports {
		if r == nil {
			continue
		}
		evidence = append(evidence, scoring.Evidence{
			Keyword:    r.Keyword,
			MarketData: r.MarketData,
			Market:     r.Market,
			BlueOcean:  r.BlueOcean,
			Trend:      r.Trend,
		})
	}
	return e.scoring.CompareOpportunities(evidence)
}
