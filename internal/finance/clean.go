package finance

import (
	"math"
	"time"
)

// filterPositive removes points whose price is missing, NaN, infinite, zero or
// negative, keeping timestamp and value arrays aligned. Yahoo reports missing
// bars as null, which decode to zero.
func filterPositive(ts []int64, cl []float64) ([]int64, []float64) {
	if len(ts) != len(cl) {
		n := len(ts)
		if len(cl) < n {
			n = len(cl)
		}
		ts = ts[:n]
		cl = cl[:n]
	}
	outTs := make([]int64, 0, len(ts))
	outCl := make([]float64, 0, len(cl))
	for i := 0; i < len(ts); i++ {
		if math.IsNaN(cl[i]) || math.IsInf(cl[i], 0) || cl[i] <= 0 {
			continue
		}
		outTs = append(outTs, ts[i])
		outCl = append(outCl, cl[i])
	}
	return outTs, outCl
}

// filterRange keeps points with start <= t <= end.
func filterRange(ts []int64, cl []float64, start, end time.Time) ([]int64, []float64) {
	lo, hi := start.Unix(), end.Unix()
	outTs := make([]int64, 0, len(ts))
	outCl := make([]float64, 0, len(cl))
	for i, t := range ts {
		if t < lo || t > hi {
			continue
		}
		outTs = append(outTs, t)
		outCl = append(outCl, cl[i])
	}
	return outTs, outCl
}
