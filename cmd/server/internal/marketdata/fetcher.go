package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// RawQuote is the provider's view of one symbol before enrichment.
type RawQuote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         FlexFloat `json:"price"`
	Change        FlexFloat `json:"change"`
	ChangePercent FlexFloat `json:"percent_change"`
	Volume        FlexFloat `json:"volume"`
	Timestamp     int64     `json:"timestamp"`
}

// FlexFloat tolerates the provider sending numbers either bare or quoted.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

// Fetcher is the provider surface the refresh cycle depends on.
type Fetcher interface {
	FetchQuotes(ctx context.Context, symbols []string) ([]RawQuote, error)
	Fetch24hRange(ctx context.Context, symbol string) (high, low float64)
}

// HTTPFetcher pulls quotes and 24h ranges from the market-data provider
// over plain HTTP. Stateless; the client timeout bounds every call.
type HTTPFetcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPFetcher(baseURL, apiKey string, client *http.Client, logger *zap.Logger) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{baseURL: baseURL, apiKey: apiKey, client: client, logger: logger}
}

// FetchQuotes requests the whole batch in one call. Any provider or decode
// error fails the whole batch; the caller skips the cycle.
func (f *HTTPFetcher) FetchQuotes(ctx context.Context, symbols []string) ([]RawQuote, error) {
	params := url.Values{}
	params.Set("symbol", strings.Join(symbols, ","))
	params.Set("apikey", f.apiKey)

	body, err := f.get(ctx, "/quote", params)
	if err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}

	// Single-symbol requests come back as one object, batches as an array
	var quotes []RawQuote
	if err := json.Unmarshal(body, &quotes); err != nil {
		var single RawQuote
		if err := json.Unmarshal(body, &single); err != nil {
			return nil, fmt.Errorf("decode quotes: %w", err)
		}
		quotes = []RawQuote{single}
	}
	return quotes, nil
}

type timeSeriesResponse struct {
	Values []struct {
		High string `json:"high"`
		Low  string `json:"low"`
	} `json:"values"`
	Status string `json:"status"`
}

// Fetch24hRange derives the 24h high/low from hourly candles. Failure
// degrades to zeros rather than aborting the cycle.
func (f *HTTPFetcher) Fetch24hRange(ctx context.Context, symbol string) (float64, float64) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", "1h")
	params.Set("outputsize", "24")
	params.Set("apikey", f.apiKey)

	body, err := f.get(ctx, "/time_series", params)
	if err != nil {
		f.logger.Warn("24h range fetch failed", zap.String("symbol", symbol), zap.Error(err))
		return 0, 0
	}

	var resp timeSeriesResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Values) == 0 {
		f.logger.Warn("24h range decode failed", zap.String("symbol", symbol), zap.Error(err))
		return 0, 0
	}

	var high, low float64
	seeded := false
	for _, v := range resp.Values {
		h, errH := strconv.ParseFloat(v.High, 64)
		l, errL := strconv.ParseFloat(v.Low, 64)
		if errH != nil || errL != nil {
			continue
		}
		if !seeded || h > high {
			high = h
		}
		if !seeded || l < low {
			low = l
		}
		seeded = true
	}
	return high, low
}

func (f *HTTPFetcher) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
