package accumulator

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSeries is the price history of one asset on a period grid.
type PriceSeries struct {
	AssetID string
	Periods []time.Time
	Prices  []decimal.Decimal
}

// Policy is the contribution schedule applied to a basket.
type Policy struct {
	InitialInvestment    decimal.Decimal // deployed at period 0
	PeriodicContribution decimal.Decimal // deployed at every period t > 0
}

// Holding is the state of one asset after the purchase of a period.
type Holding struct {
	AssetID  string
	Price    decimal.Decimal
	Bought   int64 // whole shares bought this period
	Shares   int64 // whole shares held after the purchase
	Leftover decimal.Decimal
}

// Value returns shares held times the period price.
func (h Holding) Value() decimal.Decimal {
	return h.Price.Mul(decimal.NewFromInt(h.Shares))
}

// Period is one row of the simulation ledger.
type Period struct {
	Time           time.Time
	Contributed    decimal.Decimal // capital injected at this period, basket level
	TotalInvested  decimal.Decimal
	PortfolioValue decimal.Decimal
	Holdings       []Holding // same order as Result.Assets
}

// Result is the period-indexed ledger of a simulation run.
// It is built once by Simulate and never mutated afterwards.
type Result struct {
	Assets  []string
	Periods []Period
}

// Len returns the number of periods.
func (r *Result) Len() int { return len(r.Periods) }

// Final returns the last period of the ledger.
func (r *Result) Final() Period { return r.Periods[len(r.Periods)-1] }

// Times returns the period timestamps.
func (r *Result) Times() []time.Time {
	out := make([]time.Time, len(r.Periods))
	for i, p := range r.Periods {
		out[i] = p.Time
	}
	return out
}

// Values returns portfolio values as floats, for charting.
func (r *Result) Values() []float64 {
	out := make([]float64, len(r.Periods))
	for i, p := range r.Periods {
		out[i] = p.PortfolioValue.InexactFloat64()
	}
	return out
}

// Invested returns cumulative invested capital as floats, for charting.
func (r *Result) Invested() []float64 {
	out := make([]float64, len(r.Periods))
	for i, p := range r.Periods {
		out[i] = p.TotalInvested.InexactFloat64()
	}
	return out
}

// Contributions returns the capital injected at each period as floats.
func (r *Result) Contributions() []float64 {
	out := make([]float64, len(r.Periods))
	for i, p := range r.Periods {
		out[i] = p.Contributed.InexactFloat64()
	}
	return out
}

// Shares returns the share count of asset at every period, or nil when the
// asset is not part of the result.
func (r *Result) Shares(assetID string) []int64 {
	idx := -1
	for i, a := range r.Assets {
		if a == assetID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]int64, len(r.Periods))
	for i, p := range r.Periods {
		out[i] = p.Holdings[idx].Shares
	}
	return out
}
