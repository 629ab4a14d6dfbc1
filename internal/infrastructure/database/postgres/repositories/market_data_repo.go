package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/internal/infrastructure/database/postgres"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/pkg/errors"
)

type postgresMarketDataRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresMarketDataRepo returns a MarketDataRepository backed by the
// keyword_market_data table.
func NewPostgresMarketDataRepo(conn *postgres.Connection, log logging.Logger) product.MarketDataRepository {
	return &postgresMarketDataRepo{
		conn:     conn,
		log:      log,
		executor: conn.DB(),
	}
}

// GetByKeyword returns (nil, nil) when keyword has no stored intelligence.
func (r *postgresMarketDataRepo) GetByKeyword(ctx context.Context, keyword string) (*product.KeywordMarketData, error) {
	query := `
		SELECT keyword, monthly_searches, purchase_rate, click_rate, conversion_rate, monopoly_rate,
			cr4, cpc_bid, trend_direction, keyword_extensions
		FROM keyword_market_data WHERE keyword = $1
	`
	var (
		m                                         product.KeywordMarketData
		purchase, click, conversion, monopoly, cr sql.Null[float64]
		cpc                                       sql.Null[float64]
		extJSON                                   []byte
	)
	err := r.executor.QueryRowContext(ctx, query, keyword).Scan(
		&m.Keyword, &m.MonthlySearches, &purchase, &click, &conversion, &monopoly,
		&cr, &cpc, &m.TrendDirection, &extJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get keyword market data")
	}
	m.PurchaseRate = optional(purchase)
	m.ClickRate = optional(click)
	m.ConversionRate = optional(conversion)
	m.MonopolyRate = optional(monopoly)
	m.CR4 = optional(cr)
	m.CPCBid = optional(cpc)
	if len(extJSON) > 0 {
		if err := json.Unmarshal(extJSON, &m.KeywordExtensions); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to decode keyword extensions")
		}
		if len(m.KeywordExtensions) == 0 {
			m.KeywordExtensions = nil
		}
	}
	return &m, nil
}

// Save upserts data keyed by its keyword.
func (r *postgresMarketDataRepo) Save(ctx context.Context, data *product.KeywordMarketData) error {
	if data == nil || data.Keyword == "" {
		return errors.New(errors.ErrCodeValidation, "keyword market data requires a keyword")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	ext := data.KeywordExtensions
	if ext == nil {
		ext = []product.KeywordExtension{}
	}
	extJSON, err := json.Marshal(ext)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode keyword extensions")
	}

	query := `
		INSERT INTO keyword_market_data (
			keyword, monthly_searches, purchase_rate, click_rate, conversion_rate, monopoly_rate,
			cr4, cpc_bid, trend_direction, keyword_extensions, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (keyword) DO UPDATE SET
			monthly_searches = EXCLUDED.monthly_searches, purchase_rate = EXCLUDED.purchase_rate,
			click_rate = EXCLUDED.click_rate, conversion_rate = EXCLUDED.conversion_rate,
			monopoly_rate = EXCLUDED.monopoly_rate, cr4 = EXCLUDED.cr4, cpc_bid = EXCLUDED.cpc_bid,
			trend_direction = EXCLUDED.trend_direction, keyword_extensions = EXCLUDED.keyword_extensions,
			updated_at = NOW()
	`
	_, err = r.executor.ExecContext(ctx, query,
		data.Keyword, data.MonthlySearches, param(data.PurchaseRate), param(data.ClickRate),
		param(data.ConversionRate), param(data.MonopolyRate), param(data.CR4),
		param(data.CPCBid), data.TrendDirection, extJSON,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save keyword market data")
	}
	return nil
}
