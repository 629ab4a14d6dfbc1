package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OceanScout/internal/config"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/pkg/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.MarketDataConfig{
		BaseURL:       srv.URL,
		APIKey:        "secret",
		Timeout:       2 * time.Second,
		RetryCount:    2,
		RetryWaitTime: time.Millisecond,
	}, logging.NewNopLogger())
}

func TestNew_EmptyBaseURLIsDisabled(t *testing.T) {
	p := New(config.MarketDataConfig{}, logging.NewNopLogger())
	require.IsType(t, Disabled{}, p)

	data, err := p.Fetch(context.Background(), "yoga mat")
	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestFetch_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/keywords/yoga%20mat/market", r.URL.EscapedPath())
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"monthly_searches":42000,"cr4":0.35,"trend_direction":"up",
			"keyword_extensions":[{"keyword":"yoga mat thick","search_volume":9000}]}`))
	})

	data, err := c.Fetch(context.Background(), "yoga mat")
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, "yoga mat", data.Keyword)
	assert.EqualValues(t, 42000, data.MonthlySearches)
	require.NotNil(t, data.CR4)
	assert.InDelta(t, 0.35, *data.CR4, 1e-9)
	assert.Len(t, data.KeywordExtensions, 1)
}

func TestFetch_NotFoundMeansNoData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	data, err := c.Fetch(context.Background(), "unknown")
	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"keyword":"desk lamp","monthly_searches":10}`))
	})

	data, err := c.Fetch(context.Background(), "desk lamp")
	require.NoError(t, err)
	assert.EqualValues(t, 10, data.MonthlySearches)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetch_Errors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantErr errors.ErrorCode
	}{
		{"client error", http.StatusUnauthorized, `{}`, errors.ErrCodeMarketDataFetch},
		{"bad json", http.StatusOK, `{"monthly_searches":`, errors.ErrCodeMarketDataDecode},
		{"invalid ratio", http.StatusOK, `{"monthly_searches":1,"cr4":1.5}`, errors.ErrCodeKeywordDataInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.Fetch(context.Background(), "k")
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tc.wantErr), "got %v", err)
		})
	}
}

func TestFetch_EmptyKeyword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected request")
	})
	_, err := c.Fetch(context.Background(), "  ")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}
