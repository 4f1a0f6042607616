package finance

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"dcaBot/internal/accumulator"
)

// dayKey truncates a unix timestamp to its UTC calendar day.
func dayKey(ts int64) time.Time {
	t := time.Unix(ts, 0).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// alignSeries puts every asset on the days common to all of them. When an
// asset has several points on one day the last one wins. The returned grid is
// strictly increasing and prices[i] follows assets[i].
func alignSeries(assets []AssetData) ([]time.Time, [][]float64, error) {
	if len(assets) == 0 {
		return nil, nil, fmt.Errorf("no assets provided")
	}

	byDay := make([]map[time.Time]float64, len(assets))
	count := map[time.Time]int{}
	for i, a := range assets {
		ts, cl := filterPositive(a.Timestamps, a.Prices)
		if len(ts) == 0 {
			return nil, nil, fmt.Errorf("no valid price data for %s", a.Symbol)
		}
		m := make(map[time.Time]float64, len(ts))
		for j, t := range ts {
			m[dayKey(t)] = cl[j]
		}
		for day := range m {
			count[day]++
		}
		byDay[i] = m
	}

	common := make([]time.Time, 0, len(count))
	for day, c := range count {
		if c == len(assets) {
			common = append(common, day)
		}
	}
	if len(common) == 0 {
		return nil, nil, fmt.Errorf("no overlapping periods across %d assets", len(assets))
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	prices := make([][]float64, len(assets))
	for i := range assets {
		row := make([]float64, len(common))
		for j, day := range common {
			row[j] = byDay[i][day]
		}
		prices[i] = row
	}
	return common, prices, nil
}

// toPriceSeries converts aligned float prices into accumulator input.
func toPriceSeries(symbols []string, grid []time.Time, prices [][]float64) []accumulator.PriceSeries {
	out := make([]accumulator.PriceSeries, len(symbols))
	for i, s := range symbols {
		ps := accumulator.PriceSeries{
			AssetID: s,
			Periods: grid,
			Prices:  make([]decimal.Decimal, len(grid)),
		}
		for j, p := range prices[i] {
			ps.Prices[j] = decimal.NewFromFloat(p)
		}
		out[i] = ps
	}
	return out
}
