package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	client *Client
	mr     *miniredis.Miniredis
	cache  Cache
}

func (s *CacheTestSuite) SetupTest() {
	s.client, s.mr = newTestClient(s.T())
	s.cache = NewRedisCache(s.client, logging.NewNopLogger(),
		WithPrefix("test:"), WithDefaultTTL(time.Hour), WithJitter(false))
}

type cachedReport struct {
	Keyword string  `json:"keyword"`
	Score   float64 `json:"score"`
}

func (s *CacheTestSuite) TestSetThenGet() {
	ctx := context.Background()
	want := cachedReport{Keyword: "yoga mat", Score: 72.5}

	s.Require().NoError(s.cache.Set(ctx, "report:1", want, 0))
	s.Equal(time.Hour, s.mr.TTL("test:report:1"))

	var got cachedReport
	s.Require().NoError(s.cache.Get(ctx, "report:1", &got))
	s.Equal(want, got)
}

func (s *CacheTestSuite) TestGet_Miss() {
	var got cachedReport
	s.ErrorIs(s.cache.Get(context.Background(), "absent", &got), ErrCacheMiss)
}

func (s *CacheTestSuite) TestGet_CorruptValue() {
	s.Require().NoError(s.mr.Set("test:bad", "{not json"))

	var got cachedReport
	err := s.cache.Get(context.Background(), "bad", &got)
	s.True(errors.IsCode(err, errors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestSet_UnencodableValue() {
	err := s.cache.Set(context.Background(), "ch", make(chan int), 0)
	s.True(errors.IsCode(err, errors.ErrCodeSerialization))
	s.False(s.mr.Exists("test:ch"))
}

func (s *CacheTestSuite) TestExpiry() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "short", cachedReport{}, time.Minute))

	s.mr.FastForward(2 * time.Minute)

	var got cachedReport
	s.ErrorIs(s.cache.Get(ctx, "short", &got), ErrCacheMiss)
}

func (s *CacheTestSuite) TestDelete() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "a", cachedReport{}, 0))
	s.Require().NoError(s.cache.Set(ctx, "b", cachedReport{}, 0))

	s.NoError(s.cache.Delete(ctx, "a", "b", "never-set"))
	s.False(s.mr.Exists("test:a"))
	s.False(s.mr.Exists("test:b"))
	s.NoError(s.cache.Delete(ctx))
}

func (s *CacheTestSuite) TestDeleteByPrefix_SpansBatches() {
	ctx := context.Background()
	for i := 0; i < purgeBatch+25; i++ {
		s.Require().NoError(s.cache.Set(ctx, fmt.Sprintf("report:%03d", i), cachedReport{}, 0))
	}
	s.Require().NoError(s.cache.Set(ctx, "analysis:lockish", cachedReport{}, 0))
	s.Require().NoError(s.mr.Set("other:report:x", "1"))

	n, err := s.cache.DeleteByPrefix(ctx, "report:")
	s.NoError(err)
	s.Equal(int64(purgeBatch+25), n)
	s.True(s.mr.Exists("test:analysis:lockish"))
	s.True(s.mr.Exists("other:report:x"))

	n, err = s.cache.DeleteByPrefix(ctx, "report:")
	s.NoError(err)
	s.Zero(n)
}

func (s *CacheTestSuite) TestClosedClient() {
	ctx := context.Background()
	s.Require().NoError(s.client.Close())

	var got cachedReport
	s.ErrorIs(s.cache.Get(ctx, "k", &got), ErrClientClosed)
	s.ErrorIs(s.cache.Set(ctx, "k", got, 0), ErrClientClosed)
	s.ErrorIs(s.cache.Delete(ctx, "k"), ErrClientClosed)
	_, err := s.cache.DeleteByPrefix(ctx, "")
	s.ErrorIs(err, ErrClientClosed)
}

func TestCacheTestSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestSpread_StaysWithinTenPercent(t *testing.T) {
	c := &redisCache{jitter: true}
	for i := 0; i < 100; i++ {
		assert.InDelta(t, float64(time.Hour), float64(c.spread(time.Hour)), float64(6*time.Minute)+1)
	}
	c.jitter = false
	assert.Equal(t, time.Hour, c.spread(time.Hour))
}
