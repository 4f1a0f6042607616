package finance

import (
	"time"
)

// yahooChartResp mirrors Yahoo v8 chart response (trimmed to needed fields)
type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// AssetData is a raw price history as returned by a PriceSource,
// before cleaning and alignment.
type AssetData struct {
	Symbol     string
	Timestamps []int64 // unix seconds
	Prices     []float64
}

// Interval is the bar size requested from a price source.
type Interval string

const (
	IntervalWeekly  Interval = "1wk"
	IntervalMonthly Interval = "1mo"
)

// ttl cache entry
type cacheEntry[V any] struct {
	createdAt time.Time
	value     V
}
