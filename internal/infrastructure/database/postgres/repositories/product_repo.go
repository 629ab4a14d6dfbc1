package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/internal/infrastructure/database/postgres"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/pkg/errors"
)

type postgresProductRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresProductRepo returns a ProductRepository backed by the products
// table.
func NewPostgresProductRepo(conn *postgres.Connection, log logging.Logger) product.ProductRepository {
	return &postgresProductRepo{
		conn:     conn,
		log:      log,
		executor: conn.DB(),
	}
}

const productSelectColumns = `asin, title, feature_bullets, brand, category, price, rating, reviews_count,
	sales_volume, bsr_rank, available_date, weight_lb, has_anomaly`

// ListByKeyword returns the listings stored for keyword ordered by ASIN.
func (r *postgresProductRepo) ListByKeyword(ctx context.Context, keyword string) ([]product.Product, error) {
	query := `SELECT ` + productSelectColumns + ` FROM products WHERE keyword = $1 ORDER BY asin`
	rows, err := r.executor.QueryContext(ctx, query, keyword)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list products")
	}
	defer rows.Close()

	var out []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate products")
	}
	return out, nil
}

// SaveBatch upserts products under keyword in one transaction.
func (r *postgresProductRepo) SaveBatch(ctx context.Context, keyword string, products []product.Product) error {
	if keyword == "" {
		return errors.New(errors.ErrCodeValidation, "keyword is required")
	}
	if err := product.ValidateAll(products); err != nil {
		return err
	}

	const upsert = `
		INSERT INTO products (
			keyword, asin, title, feature_bullets, brand, category, price, rating, reviews_count,
			sales_volume, bsr_rank, available_date, weight_lb, has_anomaly, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
		ON CONFLICT (keyword, asin) DO UPDATE SET
			title = EXCLUDED.title, feature_bullets = EXCLUDED.feature_bullets, brand = EXCLUDED.brand,
			category = EXCLUDED.category, price = EXCLUDED.price, rating = EXCLUDED.rating,
			reviews_count = EXCLUDED.reviews_count, sales_volume = EXCLUDED.sales_volume,
			bsr_rank = EXCLUDED.bsr_rank, available_date = EXCLUDED.available_date,
			weight_lb = EXCLUDED.weight_lb, has_anomaly = EXCLUDED.has_anomaly, updated_at = NOW()
	`
	err := r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		for _, p := range products {
			bullets := p.FeatureBullets
			if bullets == nil {
				bullets = []string{}
			}
			_, err := tx.ExecContext(ctx, upsert,
				keyword, p.ASIN, p.Title, pq.Array(bullets), p.Brand, p.Category,
				param(p.Price), param(p.Rating), p.ReviewsCount,
				param(p.SalesVolume), param(p.BSRRank), param(p.AvailableDate),
				param(p.WeightLb), p.HasAnomaly,
			)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save product").
					WithDetail("asin=" + p.ASIN)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.log.Debug("Saved products", logging.String("keyword", keyword), logging.Int("count", len(products)))
	return nil
}

func scanProduct(row scanner) (*product.Product, error) {
	var (
		p         product.Product
		bullets   pq.StringArray
		price     sql.Null[float64]
		rating    sql.Null[float64]
		sales     sql.Null[int]
		bsr       sql.Null[int]
		available sql.Null[time.Time]
		weight    sql.Null[float64]
	)
	err := row.Scan(
		&p.ASIN, &p.Title, &bullets, &p.Brand, &p.Category, &price, &rating, &p.ReviewsCount,
		&sales, &bsr, &available, &weight, &p.HasAnomaly,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan product")
	}
	if len(bullets) > 0 {
		p.FeatureBullets = []string(bullets)
	}
	p.Price = optional(price)
	p.Rating = optional(rating)
	p.SalesVolume = optional(sales)
	p.BSRRank = optional(bsr)
	if available.Valid {
		d := available.V.UTC()
		p.AvailableDate = &d
	}
	p.WeightLb = optional(weight)
	return &p, nil
}
