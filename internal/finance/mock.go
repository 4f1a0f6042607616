package finance

import (
	"context"
	"errors"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"
)

type mockProfile struct {
	base         float64
	annualGrowth float64
	volatility   float64 // monthly
}

var mockProfiles = map[string]mockProfile{
	"SPY":   {base: 280, annualGrowth: 0.12, volatility: 0.04},
	"QQQ":   {base: 180, annualGrowth: 0.18, volatility: 0.05},
	"AAPL":  {base: 40, annualGrowth: 0.25, volatility: 0.06},
	"MSFT":  {base: 120, annualGrowth: 0.28, volatility: 0.05},
	"GOOGL": {base: 55, annualGrowth: 0.20, volatility: 0.055},
	"AMZN":  {base: 90, annualGrowth: 0.15, volatility: 0.065},
	"NVDA":  {base: 40, annualGrowth: 0.85, volatility: 0.12},
	"META":  {base: 140, annualGrowth: 0.30, volatility: 0.08},
	"TSLA":  {base: 60, annualGrowth: 0.45, volatility: 0.15},
	"BRK-B": {base: 200, annualGrowth: 0.10, volatility: 0.03},
	"JPM":   {base: 110, annualGrowth: 0.08, volatility: 0.04},
	"FXAIX": {base: 100, annualGrowth: 0.12, volatility: 0.04},
}

var defaultMockProfile = mockProfile{base: 100, annualGrowth: 0.10, volatility: 0.05}

// MockSource generates deterministic synthetic monthly prices. The same ticker
// always yields the same path; the requested interval is ignored.
type MockSource struct{}

func NewMockSource() *MockSource { return &MockSource{} }

func (MockSource) Name() string { return "mock" }

func (MockSource) Fetch(_ context.Context, symbols []string, start, end time.Time, _ Interval) ([]AssetData, error) {
	if len(symbols) == 0 {
		return nil, errors.New("no symbols provided")
	}
	grid := monthStarts(start, end)
	if len(grid) == 0 {
		return nil, errors.New("date range holds no month start")
	}
	assets := make([]AssetData, 0, len(symbols))
	for _, s := range symbols {
		assets = append(assets, mockSeries(s, grid))
	}
	return assets, nil
}

func mockSeries(symbol string, grid []time.Time) AssetData {
	profile, ok := mockProfiles[strings.ToUpper(symbol)]
	if !ok {
		profile = defaultMockProfile
	}
	rng := rand.New(rand.NewSource(tickerSeed(symbol)))
	monthlyGrowth := profile.annualGrowth / 12
	floor := profile.base * 0.2

	a := AssetData{
		Symbol:     symbol,
		Timestamps: make([]int64, len(grid)),
		Prices:     make([]float64, len(grid)),
	}
	price := profile.base
	for i, t := range grid {
		if i > 0 {
			change := monthlyGrowth + rng.NormFloat64()*profile.volatility
			price = price * (1 + change)
			if price < floor {
				price = floor
			}
		}
		a.Timestamps[i] = t.Unix()
		a.Prices[i] = price
	}
	return a
}

func tickerSeed(symbol string) int64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToUpper(symbol)))
	return int64(h.Sum64() % 1000)
}

// monthStarts returns the first day of every month in [start, end], UTC.
func monthStarts(start, end time.Time) []time.Time {
	start, end = start.UTC(), end.UTC()
	t := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	if t.Before(start) {
		t = t.AddDate(0, 1, 0)
	}
	var out []time.Time
	for !t.After(end) {
		out = append(out, t)
		t = t.AddDate(0, 1, 0)
	}
	return out
}
