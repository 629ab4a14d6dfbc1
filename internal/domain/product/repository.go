package product

import (
	"context"
)

// ProductRepository defines the persistence operations for product listings.
type ProductRepository interface {
	ListByKeyword(ctx context.Context, keyword string) ([]Product, error)
	SaveBatch(ctx context.Context, keyword string, products []Product) error
}

// MarketDataRepository persists keyword market intelligence.  GetByKeyword
// returns (nil, nil) when no record exists.
type MarketDataRepository interface {
	GetByKeyword(ctx context.Context, keyword string) (*KeywordMarketData, error)
	Save(ctx context.Context, data *KeywordMarketData) error
}

// LoadDataset assembles a Dataset from the two repositories.
func LoadDataset(ctx context.Context, keyword string, products ProductRepository, markets MarketDataRepository) (Dataset, error) {
	list, err := products.ListByKeyword(ctx, keyword)
	if err != nil {
		return Dataset{}, err
	}
	var market *KeywordMarketData
	if markets != nil {
		market, err = markets.GetByKeyword(ctx, keyword)
		if err != nil {
			return Dataset{}, err
		}
	}
	return Dataset{Keyword: keyword, Products: list, Market: market}, nil
}
