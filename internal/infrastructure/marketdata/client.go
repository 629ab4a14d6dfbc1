// Package marketdata reads keyword-level market intelligence from an HTTP
// feed that publishes already collected KeywordMarketData documents.
package marketdata

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/turtacn/OceanScout/internal/config"
	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// keywordPath is the feed endpoint; {keyword} is path-escaped by resty.
const keywordPath = "/v1/keywords/{keyword}/market"

// Provider fetches market data for a keyword.  A nil result with a nil
// error means the feed has nothing for that keyword.
type Provider interface {
	Fetch(ctx context.Context, keyword string) (*product.KeywordMarketData, error)
}

// Client is the resty-backed Provider.
type Client struct {
	http   *resty.Client
	logger logging.Logger
}

// New returns a Provider for cfg.  An empty BaseURL yields a provider that
// always reports "no data".
func New(cfg config.MarketDataConfig, log logging.Logger) Provider {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return Disabled{}
	}
	return NewClient(cfg, log)
}

// NewClient builds the HTTP client.  Transport errors and 5xx responses are
// retried RetryCount times.
func NewClient(cfg config.MarketDataConfig, log logging.Logger) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitTime).
		SetRetryMaxWaitTime(4*cfg.RetryWaitTime+time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	if cfg.APIKey != "" {
		rc.SetHeader("X-Api-Key", cfg.APIKey)
	}
	return &Client{http: rc, logger: log}
}

// Fetch implements Provider.
func (c *Client) Fetch(ctx context.Context, keyword string) (*product.KeywordMarketData, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, errors.New(errors.ErrCodeValidation, "keyword is required")
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("keyword", keyword).
		Get(keywordPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMarketDataFetch, "market data request failed").
			WithDetail("keyword=" + keyword)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		c.logger.Debug("No market data for keyword", logging.String("keyword", keyword))
		return nil, nil
	case resp.IsError():
		return nil, errors.Newf(errors.ErrCodeMarketDataFetch, "market data feed returned %d", resp.StatusCode()).
			WithDetail("keyword=" + keyword)
	}

	var data product.KeywordMarketData
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMarketDataDecode, "invalid market data payload").
			WithDetail("keyword=" + keyword)
	}
	if data.Keyword == "" {
		data.Keyword = keyword
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	c.logger.Info("Fetched keyword market data",
		logging.String("keyword", keyword),
		logging.Int64("monthly_searches", data.MonthlySearches),
		logging.Int("extensions", len(data.KeywordExtensions)),
		logging.Duration("latency", time.Since(start)),
	)
	return &data, nil
}

// Disabled is the Provider used when no feed is configured.
type Disabled struct{}

// Fetch always returns nil, nil.
func (Disabled) Fetch(context.Context, string) (*product.KeywordMarketData, error) {
	return nil, nil
}
