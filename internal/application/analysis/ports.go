package analysis

import (
	"context"
	"time"

	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/pkg/errors"
	"github.com/turtacn/OceanScout/pkg/types/common"
)

// ---------------------------------------------------------------------------
// Adapter Interfaces (ports for infrastructure)
// ---------------------------------------------------------------------------

// ReportCache stores finished reports by dataset fingerprint.  The redis
// cache satisfies it.
type ReportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
}

// Locker serialises identical runs across processes.  The redis lock
// factory satisfies it.
type Locker interface {
	Acquire(ctx context.Context, name string) (release func(), err error)
}

// EventPublisher publishes analysis events.  The kafka producer satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, msg *common.ProducerMessage) error
}

// MarketDataProvider looks up keyword intelligence.  The market data client
// satisfies it.
type MarketDataProvider interface {
	Fetch(ctx context.Context, keyword string) (*product.KeywordMarketData, error)
}

// ---------------------------------------------------------------------------
// No-op fallbacks
// ---------------------------------------------------------------------------

var errNoopCacheMiss = errors.New(errors.ErrCodeCacheMiss, "cache miss")

// noopCache is used when no cache is provided.
type noopCache struct{}

func (noopCache) Get(context.Context, string, interface{}) error                { return errNoopCacheMiss }
func (noopCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (noopCache) DeleteByPrefix(context.Context, string) (int64, error)         { return 0, nil }

// noopLocker is used when no locker is provided.
type noopLocker struct{}

func (noopLocker) Acquire(context.Context, string) (func(), error) { return func() {}, nil }

// noopPublisher is used when no publisher is provided.
type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, *common.ProducerMessage) error { return nil }

// noopMarketData is used when no provider is provided.
type noopMarketData struct{}

func (noopMarketData) Fetch(context.Context, string) (*product.KeywordMarketData, error) {
	return nil, nil
}
