package provider

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
	"github.com/5ys-5y5/alsign-sub001/pkg/config"
	"github.com/5ys-5y5/alsign-sub001/pkg/httputil"
	"github.com/5ys-5y5/alsign-sub001/pkg/logger"
)

// Client fetches raw quarterly fundamentals from the data provider's JSON
// API. The engine never uses this directly; commands and scheduled jobs
// materialize EventContexts through it.
type Client struct {
	httpClient *httputil.Client
	baseURL    string
	apiKey     string
	logger     *logger.Logger
}

// NewClient creates a provider client with retry and rate limiting from
// config. The rate limit mirrors the provider's documented request budget.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	httpClient := httputil.New(log, cfg.Provider.Timeout).
		WithRateLimit(cfg.Provider.RatePerSec, cfg.Provider.RateBurst)

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.Provider.BaseURL,
		apiKey:     cfg.Provider.APIKey,
		logger:     log.WithField("module", "provider"),
	}
}

// quarterlyResponse is the provider's fundamentals payload.
type quarterlyResponse struct {
	Ticker   string `json:"ticker"`
	Quarters []struct {
		PeriodEnd string             `json:"period_end"` // YYYY-MM-DD
		Fields    map[string]float64 `json:"fields"`
	} `json:"quarters"`
}

// FetchQuarterly returns up to lookback quarters for a ticker, most recent
// first. Callers must request enough lookback for the oldest event they plan
// to evaluate; the engine's point-in-time filter can only drop records, never
// conjure them.
func (c *Client) FetchQuarterly(ctx context.Context, ticker string, lookback int) ([]contracts.QuarterlyRecord, error) {
	endpoint := fmt.Sprintf("%s/v1/fundamentals/quarterly?ticker=%s&limit=%d&apikey=%s",
		c.baseURL, url.QueryEscape(ticker), lookback, url.QueryEscape(c.apiKey))

	var payload quarterlyResponse
	if err := c.httpClient.GetJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("fetch quarterly fundamentals for %s: %w", ticker, err)
	}

	records := make([]contracts.QuarterlyRecord, 0, len(payload.Quarters))
	for _, q := range payload.Quarters {
		periodEnd, err := time.Parse("2006-01-02", q.PeriodEnd)
		if err != nil {
			c.logger.WithFields(map[string]any{
				"ticker":     ticker,
				"period_end": q.PeriodEnd,
			}).Warn("Skipping quarter with unparseable period end")
			continue
		}
		records = append(records, contracts.QuarterlyRecord{
			PeriodEnd: periodEnd,
			Fields:    q.Fields,
		})
	}

	// The engine expects records sorted descending by period end.
	sort.Slice(records, func(i, j int) bool {
		return records[i].PeriodEnd.After(records[j].PeriodEnd)
	})

	c.logger.WithFields(map[string]any{
		"ticker": ticker,
		"count":  len(records),
	}).Debug("Fetched quarterly fundamentals")

	return records, nil
}
