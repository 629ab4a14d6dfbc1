package scoring

import (
	"time"

	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// ProductWeights weight the per-product sub-scores.
type ProductWeights struct {
	Sales   float64 `json:"sales"`
	Rating  float64 `json:"rating"`
	Price   float64 `json:"price"`
	Reviews float64 `json:"reviews"`
	Age     float64 `json:"age"`
}

// OpportunityWeights weight the market opportunity components.
type OpportunityWeights struct {
	Size        float64 `json:"size"`
	Growth      float64 `json:"growth"`
	Competition float64 `json:"competition"`
}

// DimensionWeights weight the six dimensions of the comprehensive score.
type DimensionWeights struct {
	Demand      float64 `json:"demand"`
	Competition float64 `json:"competition"`
	Profit      float64 `json:"profit"`
	Barrier     float64 `json:"barrier"`
	Seasonality float64 `json:"seasonality"`
	Trend       float64 `json:"trend"`
}

// BalancedDimensionWeights is the general-purpose dimension table.
func BalancedDimensionWeights() DimensionWeights {
	return DimensionWeights{Demand: 0.20, Competition: 0.20, Profit: 0.20, Barrier: 0.15, Seasonality: 0.10, Trend: 0.15}
}

// BlueOceanDimensionWeights favours competition and profit, the two
// dimensions that separate mid-tier niches from crowded ones.
func BlueOceanDimensionWeights() DimensionWeights {
	return DimensionWeights{Demand: 0.18, Competition: 0.22, Profit: 0.22, Barrier: 0.13, Seasonality: 0.10, Trend: 0.15}
}

// Config holds the scoring weights.
type Config struct {
	// AsOf is the reference date for listing age.  Zero means the latest
	// available date in the product set.
	AsOf time.Time

	ExcludeAnomalies bool

	// TopN caps Rank when the caller passes a non-positive limit.
	TopN int

	ProductWeights     ProductWeights
	OpportunityWeights OpportunityWeights
	DimensionWeights   DimensionWeights
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ExcludeAnomalies:   true,
		TopN:               10,
		ProductWeights:     ProductWeights{Sales: 0.30, Rating: 0.25, Price: 0.20, Reviews: 0.15, Age: 0.10},
		OpportunityWeights: OpportunityWeights{Size: 0.40, Growth: 0.30, Competition: 0.30},
		DimensionWeights:   BlueOceanDimensionWeights(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TopN <= 0 {
		c.TopN = d.TopN
	}
	if c.ProductWeights == (ProductWeights{}) {
		c.ProductWeights = d.ProductWeights
	}
	if c.OpportunityWeights == (OpportunityWeights{}) {
		c.OpportunityWeights = d.OpportunityWeights
	}
	if c.DimensionWeights == (DimensionWeights{}) {
		c.DimensionWeights = d.DimensionWeights
	}
	return c
}

// Validate checks that every weight table sums to 1.
func (c Config) Validate() error {
	p, o, d := c.ProductWeights, c.OpportunityWeights, c.DimensionWeights
	tables := []struct {
		name    string
		weights []float64
	}{
		{"product", []float64{p.Sales, p.Rating, p.Price, p.Reviews, p.Age}},
		{"opportunity", []float64{o.Size, o.Growth, o.Competition}},
		{"dimension", []float64{d.Demand, d.Competition, d.Profit, d.Barrier, d.Seasonality, d.Trend}},
	}
	for _, t := range tables {
		if !stats.WeightsValid(t.weights...) {
			return errors.Newf(errors.ErrCodeAnalysisWeightsInvalid, "%s weights %v must be non-negative and sum to 1", t.name, t.weights)
		}
	}
	return nil
}
