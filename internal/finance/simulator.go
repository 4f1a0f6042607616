package finance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"dcaBot/internal/accumulator"
)

// Comparison is the outcome of one Request: the basket and the benchmark
// funded on the same schedule over the same periods.
type Comparison struct {
	Request      Request
	Source       string    // price source that supplied the data
	Frequency    Frequency // effective schedule, monthly after a synthetic fallback
	Contribution float64   // effective per-period contribution

	Portfolio        *accumulator.Result
	PortfolioSummary Summary
	Benchmark        *accumulator.Result // nil without benchmark
	BenchmarkSummary Summary
}

// Row is one period of a comparison ledger.
type Row struct {
	Time           time.Time `json:"date"`
	PortfolioValue float64   `json:"portfolioValue"`
	BenchmarkValue float64   `json:"indexValue,omitempty"`
	TotalInvested  float64   `json:"totalInvested"`
}

// Rows flattens the comparison into one row per period.
func (c *Comparison) Rows() []Row {
	values := c.Portfolio.Values()
	invested := c.Portfolio.Invested()
	var bench []float64
	if c.Benchmark != nil {
		bench = c.Benchmark.Values()
	}
	rows := make([]Row, c.Portfolio.Len())
	for i, t := range c.Portfolio.Times() {
		rows[i] = Row{Time: t, PortfolioValue: values[i], TotalInvested: invested[i]}
		if bench != nil {
			rows[i].BenchmarkValue = bench[i]
		}
	}
	return rows
}

// Simulator runs comparisons against a primary price source, falling back to
// a secondary one (normally MockSource) when the primary fails.
type Simulator struct {
	primary  PriceSource
	fallback PriceSource
	now      func() time.Time
}

// NewSimulator returns a simulator. fallback may be nil.
func NewSimulator(primary, fallback PriceSource) *Simulator {
	return &Simulator{primary: primary, fallback: fallback, now: time.Now}
}

// Run validates req, loads aligned prices and simulates the basket and the
// benchmark.
func (s *Simulator) Run(ctx context.Context, req Request) (*Comparison, error) {
	req.Normalize()
	if err := req.Validate(s.now()); err != nil {
		return nil, err
	}

	freq := req.Frequency
	contribution := req.Contribution
	src := s.primary
	symbols := req.Symbols()

	grid, prices, err := s.load(ctx, src, symbols, req, freq)
	if err != nil {
		if s.fallback == nil || ctx.Err() != nil {
			return nil, err
		}
		slog.Warn("simulate: real data unavailable, using fallback prices",
			"source", src.Name(), "fallback", s.fallback.Name(), "err", err)
		src = s.fallback
		if freq == FrequencyWeekly {
			contribution *= weeksPerMonth
			if err := checkAmount("contribution", contribution); err != nil {
				return nil, err
			}
		}
		freq = FrequencyMonthly
		grid, prices, err = s.load(ctx, src, symbols, req, freq)
		if err != nil {
			return nil, err
		}
	}

	series := toPriceSeries(symbols, grid, prices)
	bySymbol := make(map[string]accumulator.PriceSeries, len(series))
	for _, ps := range series {
		bySymbol[ps.AssetID] = ps
	}

	policy := accumulator.Policy{
		InitialInvestment:    decimal.NewFromFloat(req.InitialInvestment),
		PeriodicContribution: decimal.NewFromFloat(contribution),
	}

	basket := make([]accumulator.PriceSeries, 0, len(req.Tickers))
	for _, t := range req.Tickers {
		basket = append(basket, bySymbol[t])
	}
	out := &Comparison{
		Request:      req,
		Source:       src.Name(),
		Frequency:    freq,
		Contribution: contribution,
	}
	out.Portfolio, err = accumulator.Simulate(basket, policy)
	if err != nil {
		return nil, fmt.Errorf("simulate portfolio: %w", err)
	}
	out.PortfolioSummary, err = Summarize(out.Portfolio, freq.PeriodsPerYear())
	if err != nil {
		return nil, fmt.Errorf("summarize portfolio: %w", err)
	}
	if req.Benchmark != "" {
		out.Benchmark, err = accumulator.SimulateSingle(bySymbol[req.Benchmark], policy)
		if err != nil {
			return nil, fmt.Errorf("simulate %s: %w", req.Benchmark, err)
		}
		out.BenchmarkSummary, err = Summarize(out.Benchmark, freq.PeriodsPerYear())
		if err != nil {
			return nil, fmt.Errorf("summarize %s: %w", req.Benchmark, err)
		}
	}
	slog.Info("simulate: done", "source", out.Source, "tickers", req.Tickers, "benchmark", req.Benchmark,
		"periods", out.Portfolio.Len(), "final", out.PortfolioSummary.FinalValue)
	return out, nil
}

func (s *Simulator) load(ctx context.Context, src PriceSource, symbols []string, req Request, freq Frequency) ([]time.Time, [][]float64, error) {
	assets, err := src.Fetch(ctx, symbols, req.Start, req.End, freq.Interval())
	if err != nil {
		return nil, nil, fmt.Errorf("%s prices: %w", src.Name(), err)
	}
	ordered := make([]AssetData, len(symbols))
	for i, sym := range symbols {
		found := false
		for _, a := range assets {
			if a.Symbol == sym {
				ordered[i] = a
				found = true
				break
			}
		}
		if !found {
			return nil, nil, fmt.Errorf("%s prices: no data for %s", src.Name(), sym)
		}
	}
	grid, prices, err := alignSeries(ordered)
	if err != nil {
		return nil, nil, fmt.Errorf("%s prices: %w", src.Name(), err)
	}
	return grid, prices, nil
}
