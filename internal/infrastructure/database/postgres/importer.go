package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/OceanScout/internal/config"
	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// productColumns is the COPY column order of the products table.
var productColumns = []string{
	"keyword", "asin", "title", "feature_bullets", "brand", "category",
	"price", "rating", "reviews_count", "sales_volume", "bsr_rank",
	"available_date", "weight_lb", "has_anomaly", "updated_at",
}

// txStarter is the part of *pgxpool.Pool the importer needs.
type txStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// BulkImporter replaces the listings of a keyword using the COPY protocol.
// It is the fast path for loading scraped datasets; the database/sql
// repositories serve reads and small writes.
type BulkImporter struct {
	db  txStarter
	log logging.Logger
	now func() time.Time
}

// NewBulkImporter wraps a pgx pool.
func NewBulkImporter(pool *pgxpool.Pool, log logging.Logger) *BulkImporter {
	return newBulkImporter(pool, log)
}

func newBulkImporter(db txStarter, log logging.Logger) *BulkImporter {
	return &BulkImporter{db: db, log: log, now: time.Now}
}

// NewPool opens a pgx pool over the same database as the sql connection.
func NewPool(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "invalid pgx pool configuration")
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create pgx pool")
	}
	return pool, nil
}

// ReplaceKeyword deletes the stored listings of keyword and copies products
// in their place inside one transaction.  It returns the number of rows
// copied.
func (b *BulkImporter) ReplaceKeyword(ctx context.Context, keyword string, products []product.Product) (int64, error) {
	if keyword == "" {
		return 0, errors.New(errors.ErrCodeValidation, "keyword is required")
	}
	if err := product.ValidateAll(products); err != nil {
		return 0, err
	}

	start := b.now()
	tx, err := b.db.Begin(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin import transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM products WHERE keyword = $1", keyword); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to clear keyword products")
	}

	updated := start.UTC()
	rows := pgx.CopyFromSlice(len(products), func(i int) ([]any, error) {
		return productRow(keyword, products[i], updated), nil
	})
	n, err := tx.CopyFrom(ctx, pgx.Identifier{"products"}, productColumns, rows)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to copy products")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit import")
	}

	b.log.Info("Imported products",
		logging.String("keyword", keyword),
		logging.Int64("rows", n),
		logging.Duration("elapsed", b.now().Sub(start)),
	)
	return n, nil
}

func productRow(keyword string, p product.Product, updated time.Time) []any {
	bullets := p.FeatureBullets
	if bullets == nil {
		bullets = []string{}
	}
	return []any{
		keyword, p.ASIN, p.Title, bullets, p.Brand, p.Category,
		p.Price, p.Rating, p.ReviewsCount, p.SalesVolume, p.BSRRank,
		p.AvailableDate, p.WeightLb, p.HasAnomaly, updated,
	}
}
