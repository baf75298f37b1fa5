package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the EODHD API.
	DefaultBaseURL = "https://eodhd.com/api"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 10

	// DefaultExchange is the exchange suffix applied to bare tickers.
	DefaultExchange = "US"
)

// Client is an EODHD API client.
type Client struct {
	baseURL         string
	apiKey          string
	defaultExchange string
	httpClient      *http.Client
	logger          arbor.ILogger
	limiter         *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithDefaultExchange sets the exchange suffix for bare tickers.
func WithDefaultExchange(exchange string) ClientOption {
	return func(c *Client) {
		c.defaultExchange = exchange
	}
}

// NewClient creates a new EODHD API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:         DefaultBaseURL,
		apiKey:          apiKey,
		defaultExchange: DefaultExchange,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NormalizeTicker upper-cases a ticker and appends the default exchange
// suffix when none is present ("aapl" becomes "AAPL.US").
func (c *Client) NormalizeTicker(ticker string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return ticker
	}
	if !strings.Contains(ticker, ".") {
		ticker = ticker + "." + c.defaultExchange
	}
	return ticker
}

// get performs a GET request to the API.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{RetryAfter: time.Second}
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("EODHD API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// GetEOD retrieves end-of-day candles for a ticker, oldest first.
// The period parameter is a history span ("3m", "6m", "1y", "2y", "5y");
// empty defaults to one year.
func (c *Client) GetEOD(ctx context.Context, ticker string, period string) ([]Candle, error) {
	from, err := periodStart(period, time.Now())
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("from", from.Format("2006-01-02"))
	params.Set("period", "d")
	params.Set("order", "a")

	var result []Candle
	if err := c.get(ctx, "/eod/"+c.NormalizeTicker(ticker), params, &result); err != nil {
		return nil, err
	}

	for i := range result {
		if t, err := time.Parse("2006-01-02", result[i].DateStr); err == nil {
			result[i].Date = t
		}
	}

	return result, nil
}

// GetQuote retrieves the latest real-time quote for a ticker.
// Note: may require a higher tier subscription.
func (c *Client) GetQuote(ctx context.Context, ticker string) (*Quote, error) {
	var result Quote
	if err := c.get(ctx, "/real-time/"+c.NormalizeTicker(ticker), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// periodStart converts a history span to a from-date relative to now.
func periodStart(period string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "", "1y":
		return now.AddDate(-1, 0, 0), nil
	case "3m":
		return now.AddDate(0, -3, 0), nil
	case "6m":
		return now.AddDate(0, -6, 0), nil
	case "2y":
		return now.AddDate(-2, 0, 0), nil
	case "5y":
		return now.AddDate(-5, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported history period %q", period)
	}
}

// Closes extracts the adjusted close series from candles, falling back to
// the raw close when no adjustment is present.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, candle := range candles {
		if candle.AdjustedClose != 0 {
			out[i] = candle.AdjustedClose
		} else {
			out[i] = candle.Close
		}
	}
	return out
}
