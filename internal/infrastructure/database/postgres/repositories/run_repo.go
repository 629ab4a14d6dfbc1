package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/OceanScout/internal/domain/analysis"
	"github.com/turtacn/OceanScout/internal/infrastructure/database/postgres"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/pkg/errors"
)

type postgresRunRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresRunRepo returns a RunRepository backed by the analysis_runs
// table.
func NewPostgresRunRepo(conn *postgres.Connection, log logging.Logger) analysis.RunRepository {
	return &postgresRunRepo{
		conn:     conn,
		log:      log,
		executor: conn.DB(),
	}
}

const runSelectColumns = `id, keyword, fingerprint, product_count, blue_ocean_count, opportunity_score,
	grade, duration_ms, report, created_at`

// Save inserts run, assigning an ID and creation time when unset.
func (r *postgresRunRepo) Save(ctx context.Context, run *analysis.Run) error {
	if run == nil || run.Keyword == "" {
		return errors.New(errors.ErrCodeValidation, "analysis run requires a keyword")
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	report := []byte(run.Report)
	if len(report) == 0 {
		report = []byte("{}")
	}

	query := `
		INSERT INTO analysis_runs (
			id, keyword, fingerprint, product_count, blue_ocean_count, opportunity_score,
			grade, duration_ms, report, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.executor.ExecContext(ctx, query,
		run.ID, run.Keyword, run.Fingerprint, run.ProductCount, run.BlueOceanCount,
		run.OpportunityScore, run.Grade, run.Duration.Milliseconds(), report, run.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save analysis run")
	}
	return nil
}

// Get returns the run with id.
func (r *postgresRunRepo) Get(ctx context.Context, id uuid.UUID) (*analysis.Run, error) {
	query := `SELECT ` + runSelectColumns + ` FROM analysis_runs WHERE id = $1`
	return scanRun(r.executor.QueryRowContext(ctx, query, id))
}

// LatestByKeyword returns the most recent run of keyword.
func (r *postgresRunRepo) LatestByKeyword(ctx context.Context, keyword string) (*analysis.Run, error) {
	query := `SELECT ` + runSelectColumns + ` FROM analysis_runs WHERE keyword = $1 ORDER BY created_at DESC LIMIT 1`
	return scanRun(r.executor.QueryRowContext(ctx, query, keyword))
}

func scanRun(row scanner) (*analysis.Run, error) {
	var (
		run        analysis.Run
		durationMS int64
		report     []byte
	)
	err := row.Scan(
		&run.ID, &run.Keyword, &run.Fingerprint, &run.ProductCount, &run.BlueOceanCount,
		&run.OpportunityScore, &run.Grade, &durationMS, &report, &run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeAnalysisRunNotFound, "analysis run not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan analysis run")
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.Report = report
	return &run, nil
}
