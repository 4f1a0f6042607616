// Package accumulator simulates periodic whole-share purchases over a price
// series: dollar-cost averaging with leftover cash carried to the next
// period, for one asset or an equal-split basket.
package accumulator

import (
	"math"

	"github.com/shopspring/decimal"
)

// SimulateSingle runs Simulate on a basket of one asset.
func SimulateSingle(series PriceSeries, policy Policy) (*Result, error) {
	return Simulate([]PriceSeries{series}, policy)
}

// Simulate buys whole shares of every asset of the basket at each period.
//
// At period 0 each asset receives InitialInvestment/N, at each later period
// PeriodicContribution/N plus its own leftover cash from the previous period.
// Shares are never sold. The result has exactly one row per period, period 0
// included. Input is validated entirely before any state is built; on error
// no partial result is returned.
func Simulate(basket []PriceSeries, policy Policy) (*Result, error) {
	if err := validate(basket, policy); err != nil {
		return nil, err
	}

	initialPerAsset, initialRest := splitEvenly(policy.InitialInvestment, len(basket))
	contributionPerAsset, contributionRest := splitEvenly(policy.PeriodicContribution, len(basket))

	ledgers := make([][]Holding, len(basket))
	for i, s := range basket {
		initial, contribution := initialPerAsset, contributionPerAsset
		if i == 0 {
			initial = initial.Add(initialRest)
			contribution = contribution.Add(contributionRest)
		}
		ledgers[i] = fold(s, initial, contribution)
	}

	periods := basket[0].Periods
	res := &Result{
		Assets:  make([]string, len(basket)),
		Periods: make([]Period, len(periods)),
	}
	for i, s := range basket {
		res.Assets[i] = s.AssetID
	}

	invested := decimal.Zero
	for t := range periods {
		contributed := policy.PeriodicContribution
		if t == 0 {
			contributed = policy.InitialInvestment
		}
		invested = invested.Add(contributed)

		value := decimal.Zero
		holdings := make([]Holding, len(basket))
		for i := range basket {
			holdings[i] = ledgers[i][t]
			value = value.Add(holdings[i].Value())
		}
		res.Periods[t] = Period{
			Time:           periods[t],
			Contributed:    contributed,
			TotalInvested:  invested,
			PortfolioValue: value,
			Holdings:       holdings,
		}
	}
	return res, nil
}

// splitPrecision is the number of decimal places of a per-asset share of a
// basket amount.
const splitPrecision = 16

// splitEvenly floors amount/n to splitPrecision places. rest is what the
// floor leaves over (less than n units of the last place); Simulate hands it
// to the first asset so the split never loses or creates cash.
func splitEvenly(amount decimal.Decimal, n int) (share, rest decimal.Decimal) {
	count := decimal.NewFromInt(int64(n))
	q, _ := amount.QuoRem(count, splitPrecision)
	return q, amount.Sub(q.Mul(count))
}

// fold walks one asset period by period. Each step depends on the previous
// leftover, so the walk is strictly sequential.
func fold(s PriceSeries, initial, contribution decimal.Decimal) []Holding {
	out := make([]Holding, len(s.Prices))
	var shares int64
	leftover := decimal.Zero
	for t, price := range s.Prices {
		available := initial
		if t > 0 {
			available = contribution.Add(leftover)
		}
		bought, rest := available.QuoRem(price, 0)
		shares += bought.IntPart()
		leftover = rest
		out[t] = Holding{
			AssetID:  s.AssetID,
			Price:    price,
			Bought:   bought.IntPart(),
			Shares:   shares,
			Leftover: leftover,
		}
	}
	return out
}

func validate(basket []PriceSeries, policy Policy) error {
	if policy.InitialInvestment.IsNegative() {
		return invalid("", -1, "initial investment %s is negative", policy.InitialInvestment)
	}
	if policy.PeriodicContribution.IsNegative() {
		return invalid("", -1, "periodic contribution %s is negative", policy.PeriodicContribution)
	}
	if len(basket) == 0 {
		return invalid("", -1, "no price series")
	}

	seen := make(map[string]struct{}, len(basket))
	ref := basket[0]
	for _, s := range basket {
		if s.AssetID == "" {
			return invalid("", -1, "empty asset id")
		}
		if _, dup := seen[s.AssetID]; dup {
			return invalid(s.AssetID, -1, "duplicate asset id")
		}
		seen[s.AssetID] = struct{}{}

		if len(s.Periods) == 0 {
			return invalid(s.AssetID, -1, "no periods")
		}
		if len(s.Prices) != len(s.Periods) {
			return invalid(s.AssetID, -1, "%d prices for %d periods", len(s.Prices), len(s.Periods))
		}
		if len(s.Periods) != len(ref.Periods) {
			return invalid(s.AssetID, -1, "misaligned: %d periods, %s has %d", len(s.Periods), ref.AssetID, len(ref.Periods))
		}
		for t, p := range s.Prices {
			if p.Sign() <= 0 {
				return invalid(s.AssetID, t, "price %s is not positive", p)
			}
			if t > 0 && !s.Periods[t].After(s.Periods[t-1]) {
				return invalid(s.AssetID, t, "period %s is not after %s", s.Periods[t].Format("2006-01-02"), s.Periods[t-1].Format("2006-01-02"))
			}
			if !s.Periods[t].Equal(ref.Periods[t]) {
				return invalid(s.AssetID, t, "misaligned: timestamp %s, %s has %s", s.Periods[t].Format("2006-01-02"), ref.AssetID, ref.Periods[t].Format("2006-01-02"))
			}
		}
	}

	// Every share is paid for, so no asset can hold more than all capital
	// ever deployed divided by its lowest price. Share counts are int64.
	capital := policy.InitialInvestment.Add(
		policy.PeriodicContribution.Mul(decimal.NewFromInt(int64(len(ref.Periods) - 1))))
	maxShares := decimal.NewFromInt(math.MaxInt64)
	for _, s := range basket {
		low := s.Prices[0]
		for _, p := range s.Prices[1:] {
			if p.LessThan(low) {
				low = p
			}
		}
		if capital.Div(low).GreaterThan(maxShares) {
			return invalid(s.AssetID, -1, "capital %s at price %s exceeds %d shares", capital, low, int64(math.MaxInt64))
		}
	}
	return nil
}
