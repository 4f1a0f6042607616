package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const yahooUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"

// YahooSource fetches closes from the Yahoo v8 chart endpoint, rotating hosts
// and backing off between rounds.
type YahooSource struct {
	client   *http.Client
	baseURLs []string
	backoffs []time.Duration
	pause    time.Duration // between symbols
}

func NewYahooSource(client *http.Client) *YahooSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &YahooSource{
		client:   client,
		baseURLs: []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"},
		backoffs: []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second},
		pause:    120 * time.Millisecond,
	}
}

func (y *YahooSource) Name() string { return "yahoo" }

// Fetch fetches every symbol in turn. A failure on any symbol fails the call.
func (y *YahooSource) Fetch(ctx context.Context, symbols []string, start, end time.Time, interval Interval) ([]AssetData, error) {
	if len(symbols) == 0 {
		return nil, errors.New("no symbols provided")
	}
	assets := make([]AssetData, 0, len(symbols))
	for i, symbol := range symbols {
		if i > 0 && y.pause > 0 {
			if err := sleepCtx(ctx, y.pause); err != nil {
				return nil, err
			}
		}
		ts, cl, err := y.fetchSeries(ctx, symbol, start, end, interval)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", symbol, err)
		}
		if len(ts) == 0 {
			return nil, fmt.Errorf("no data available for %s", symbol)
		}
		assets = append(assets, AssetData{Symbol: symbol, Timestamps: ts, Prices: cl})
	}
	return assets, nil
}

// fetchSeries fetches timestamps and closes for a single symbol, preferring
// adjusted closes when Yahoo provides them.
func (y *YahooSource) fetchSeries(ctx context.Context, symbol string, start, end time.Time, interval Interval) ([]int64, []float64, error) {
	var yc yahooChartResp
	var lastErr error
	for attempt := 0; attempt < len(y.backoffs)+1; attempt++ {
		for _, base := range y.baseURLs {
			yc = yahooChartResp{}
			lastErr = y.get(ctx, chartURL(base, symbol, start, end, interval), symbol, &yc)
			if lastErr == nil {
				break
			}
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			slog.Debug("yahoo: attempt failed", "symbol", symbol, "base", base, "attempt", attempt, "err", lastErr)
		}
		if lastErr == nil {
			break
		}
		if attempt < len(y.backoffs) {
			if err := sleepCtx(ctx, y.backoffs[attempt]); err != nil {
				return nil, nil, err
			}
		}
	}
	if lastErr != nil {
		return nil, nil, lastErr
	}
	if yc.Chart.Error != nil {
		return nil, nil, fmt.Errorf("yahoo error %s: %s", yc.Chart.Error.Code, yc.Chart.Error.Description)
	}
	if len(yc.Chart.Result) == 0 {
		return nil, nil, errors.New("no data")
	}
	r := yc.Chart.Result[0]
	var cl []float64
	switch {
	case len(r.Indicators.AdjClose) > 0 && len(r.Indicators.AdjClose[0].AdjClose) > 0:
		cl = r.Indicators.AdjClose[0].AdjClose
	case len(r.Indicators.Quote) > 0:
		cl = r.Indicators.Quote[0].Close
	default:
		return nil, nil, errors.New("no data")
	}
	ts, cl := filterPositive(r.Timestamp, cl)
	ts, cl = filterRange(ts, cl, start, end)
	return ts, cl, nil
}

func (y *YahooSource) get(ctx context.Context, u, symbol string, out *yahooChartResp) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/chart", strings.ToUpper(symbol)))
	resp, err := y.client.Do(req)
	if err != nil {
		return err
	}
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("failed to read yahoo response: %w", readErr)
	}
	if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
		return fmt.Errorf("yahoo %s returned 429: Edge: Too Many Requests", req.URL.Host)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo %s returned %d: %s", req.URL.Host, resp.StatusCode, preview(body))
	}
	if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
		return fmt.Errorf("yahoo returned non-json body: %s", preview(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse yahoo json: %v; body: %s", err, preview(body))
	}
	return nil
}

func chartURL(base, symbol string, start, end time.Time, interval Interval) string {
	q := url.Values{}
	q.Set("period1", fmt.Sprint(start.Unix()))
	q.Set("period2", fmt.Sprint(end.Unix()))
	q.Set("interval", string(interval))
	q.Set("events", "div,splits")
	return fmt.Sprintf("%s/v8/finance/chart/%s?%s", base, url.PathEscape(strings.ToUpper(symbol)), q.Encode())
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
