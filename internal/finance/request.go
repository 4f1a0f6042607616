package finance

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Frequency is the contribution schedule of a simulation request.
type Frequency string

const (
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ParseFrequency accepts weekly/monthly in any case and the Yahoo interval
// spellings 1wk/1mo.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekly", "week", "w", "1wk":
		return FrequencyWeekly, nil
	case "monthly", "month", "m", "1mo":
		return FrequencyMonthly, nil
	}
	return "", &RequestError{Field: "frequency", Reason: fmt.Sprintf("unknown frequency %q (use weekly or monthly)", s)}
}

func (f Frequency) Interval() Interval {
	if f == FrequencyWeekly {
		return IntervalWeekly
	}
	return IntervalMonthly
}

func (f Frequency) PeriodsPerYear() float64 {
	if f == FrequencyWeekly {
		return 52
	}
	return 12
}

// weeksPerMonth converts a weekly contribution to a monthly one when prices
// fall back to the monthly synthetic grid.
const weeksPerMonth = 4.33

// ErrInvalidRequest is matched by every *RequestError via errors.Is.
var ErrInvalidRequest = errors.New("invalid request")

type RequestError struct {
	Field  string
	Reason string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrInvalidRequest, e.Field, e.Reason)
}

func (e *RequestError) Is(target error) bool { return target == ErrInvalidRequest }

// Request describes one comparison run: an equal-split basket of tickers
// against a single benchmark, funded on the same schedule.
type Request struct {
	Tickers           []string
	Benchmark         string // optional
	Start             time.Time
	End               time.Time
	InitialInvestment float64
	Contribution      float64
	Frequency         Frequency
}

var (
	DefaultTickers   = []string{"AAPL", "NVDA", "MSFT", "AMZN", "META", "GOOGL", "TSLA", "BRK-B", "JPM"}
	DefaultBenchmark = "SPY"
)

// DefaultRequest returns the defaults of the original dashboard.
func DefaultRequest() Request {
	return Request{
		Tickers:           append([]string(nil), DefaultTickers...),
		Benchmark:         DefaultBenchmark,
		Start:             time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		End:               time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		InitialInvestment: 500,
		Contribution:      400,
		Frequency:         FrequencyMonthly,
	}
}

// Normalize upper-cases and trims symbols and drops duplicate tickers.
func (r *Request) Normalize() {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(r.Tickers))
	for _, t := range r.Tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	r.Tickers = out
	r.Benchmark = strings.ToUpper(strings.TrimSpace(r.Benchmark))
	if r.Frequency == "" {
		r.Frequency = FrequencyMonthly
	}
}

// Validate checks a normalized request against now.
func (r Request) Validate(now time.Time) error {
	if len(r.Tickers) == 0 {
		return &RequestError{Field: "tickers", Reason: "please provide at least one ticker symbol"}
	}
	if !r.Start.Before(r.End) {
		return &RequestError{Field: "startDate", Reason: "start date must be before end date"}
	}
	if r.End.After(now) {
		return &RequestError{Field: "endDate", Reason: "end date cannot be in the future"}
	}
	if err := checkAmount("initialInvestment", r.InitialInvestment); err != nil {
		return err
	}
	if err := checkAmount("contribution", r.Contribution); err != nil {
		return err
	}
	if _, err := ParseFrequency(string(r.Frequency)); err != nil {
		return err
	}
	return nil
}

// checkAmount rejects negative and non-finite amounts.
func checkAmount(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &RequestError{Field: field, Reason: "must be a finite number"}
	}
	if v < 0 {
		return &RequestError{Field: field, Reason: "must not be negative"}
	}
	return nil
}

// Symbols returns every symbol to fetch: tickers first, then the benchmark
// unless it already is one of the tickers.
func (r Request) Symbols() []string {
	out := append([]string(nil), r.Tickers...)
	if r.Benchmark == "" {
		return out
	}
	for _, t := range r.Tickers {
		if t == r.Benchmark {
			return out
		}
	}
	return append(out, r.Benchmark)
}
