// Package analysis defines the persisted record of an analysis run.
package analysis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Run is one completed analysis.  Report holds the full JSON report; the
// other fields are denormalised for listing and lookup.
type Run struct {
	ID               uuid.UUID       `json:"id"`
	Keyword          string          `json:"keyword"`
	Fingerprint      string          `json:"fingerprint"`
	ProductCount     int             `json:"product_count"`
	BlueOceanCount   int             `json:"blue_ocean_count"`
	OpportunityScore float64         `json:"opportunity_score"`
	Grade            string          `json:"grade"`
	Duration         time.Duration   `json:"duration"`
	Report           json.RawMessage `json:"report,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// RunRepository persists runs.  Get and LatestByKeyword return an error with
// code ANALYSIS_RUN_NOT_FOUND when nothing matches.
type RunRepository interface {
	Save(ctx context.Context, run *Run) error
	Get(ctx context.Context, id uuid.UUID) (*Run, error)
	LatestByKeyword(ctx context.Context, keyword string) (*Run, error)
}
