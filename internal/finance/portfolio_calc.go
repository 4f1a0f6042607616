package finance

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"dcaBot/internal/accumulator"
)

// Summary holds headline figures of a simulation run.
type Summary struct {
	FinalValue      float64 `json:"finalValue"`
	TotalInvested   float64 `json:"totalInvested"`
	Profit          float64 `json:"profit"`
	LeftoverCash    float64 `json:"leftoverCash"`
	ReturnPct       float64 `json:"returnPct"`       // final value over total invested, as percentage
	TimeWeightedPct float64 `json:"timeWeightedPct"` // growth of one unit invested at period 0, contributions removed
	VolatilityPct   float64 `json:"volatilityPct"`   // annualized, of contribution-adjusted period returns
	MaxDrawdownPct  float64 `json:"maxDrawdownPct"`  // on the time-weighted growth index
	Periods         int     `json:"periods"`
}

// Summarize computes the summary of res. Period returns are taken on the
// account value (shares plus leftover cash) net of the capital injected in
// the period, so contributions do not count as performance.
func Summarize(res *accumulator.Result, periodsPerYear float64) (Summary, error) {
	if res == nil || res.Len() == 0 {
		return Summary{}, fmt.Errorf("insufficient portfolio data")
	}

	final := res.Final()
	s := Summary{
		FinalValue:    final.PortfolioValue.InexactFloat64(),
		TotalInvested: final.TotalInvested.InexactFloat64(),
		LeftoverCash:  leftoverCash(res).InexactFloat64(),
		Periods:       res.Len(),
	}
	s.Profit = s.FinalValue - s.TotalInvested
	if s.TotalInvested > 0 {
		s.ReturnPct = (s.FinalValue/s.TotalInvested - 1) * 100
	}

	account := accountValues(res)
	contributions := res.Contributions()
	var returns []float64
	growth := []float64{1}
	for t := 1; t < len(account); t++ {
		if account[t-1] <= 0 {
			continue
		}
		r := (account[t]-contributions[t])/account[t-1] - 1
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return Summary{}, fmt.Errorf("invalid period return at %d: %f", t, r)
		}
		returns = append(returns, r)
		growth = append(growth, growth[len(growth)-1]*(1+r))
	}
	s.TimeWeightedPct = (growth[len(growth)-1] - 1) * 100
	s.MaxDrawdownPct = calculateMaxDrawdown(growth) * 100

	if len(returns) >= 2 {
		sd, err := stats.StandardDeviationSample(returns)
		if err != nil {
			return Summary{}, fmt.Errorf("volatility: %w", err)
		}
		s.VolatilityPct = sd * math.Sqrt(periodsPerYear) * 100
	}
	return s, nil
}

// accountValues returns share value plus leftover cash at every period.
func accountValues(res *accumulator.Result) []float64 {
	out := make([]float64, res.Len())
	for i, p := range res.Periods {
		v := p.PortfolioValue
		for _, h := range p.Holdings {
			v = v.Add(h.Leftover)
		}
		out[i] = v.InexactFloat64()
	}
	return out
}

// calculateMaxDrawdown calculates the maximum drawdown as a fraction
// Maximum drawdown is the largest peak-to-trough decline in value
func calculateMaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0.0
	}

	maxDrawdown := 0.0
	peak := values[0]

	// Handle edge case where first value is 0 or negative
	if peak <= 0 {
		for i := 1; i < len(values); i++ {
			if values[i] > 0 {
				peak = values[i]
				break
			}
		}
		if peak <= 0 {
			return 0.0
		}
	}

	for _, value := range values {
		if value > peak {
			peak = value
		}
		if peak > 0 && value >= 0 {
			drawdown := (peak - value) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}

// leftoverCash returns the total uninvested cash after the last period.
func leftoverCash(res *accumulator.Result) decimal.Decimal {
	total := decimal.Zero
	for _, h := range res.Final().Holdings {
		total = total.Add(h.Leftover)
	}
	return total
}
