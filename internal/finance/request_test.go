package finance

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	req, err := ParseCommand("/dca@MyBot aapl msft, aapl vs qqq initial=$1,000 contrib=200 from=2019-01-01 to=2024-06-30 freq=weekly")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, req.Tickers)
	assert.Equal(t, "QQQ", req.Benchmark)
	assert.Equal(t, 1000.0, req.InitialInvestment)
	assert.Equal(t, 200.0, req.Contribution)
	assert.Equal(t, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), req.Start)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), req.End)
	assert.Equal(t, FrequencyWeekly, req.Frequency)
}

func TestParseCommand_Defaults(t *testing.T) {
	req, err := ParseCommand("/dca")
	require.NoError(t, err)
	assert.Equal(t, DefaultRequest(), req)
}

func TestParseCommand_Errors(t *testing.T) {
	for _, in := range []string{
		"/dca SPY vs",
		"/dca SPY initial=abc",
		"/dca AAPL vs SPY initial=NaN",
		"/dca AAPL vs SPY contrib=Inf",
		"/dca AAPL vs SPY contrib=-inf",
		"/dca SPY from=01/02/2020",
		"/dca SPY freq=daily",
		"/dca SPY color=blue",
	} {
		_, err := ParseCommand(in)
		assert.ErrorIs(t, err, ErrInvalidRequest, in)
	}
}

func TestParseFrequency(t *testing.T) {
	for in, want := range map[string]Frequency{"Weekly": FrequencyWeekly, "1wk": FrequencyWeekly, "monthly": FrequencyMonthly, "1MO": FrequencyMonthly} {
		got, err := ParseFrequency(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, IntervalWeekly, FrequencyWeekly.Interval())
	assert.Equal(t, IntervalMonthly, FrequencyMonthly.Interval())
	assert.Equal(t, 52.0, FrequencyWeekly.PeriodsPerYear())
}

func TestRequestValidate(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	base := DefaultRequest()
	require.NoError(t, base.Validate(now))

	tests := []struct {
		name  string
		edit  func(*Request)
		field string
	}{
		{"no tickers", func(r *Request) { r.Tickers = nil }, "tickers"},
		{"start after end", func(r *Request) { r.Start = r.End }, "startDate"},
		{"end in future", func(r *Request) { r.End = now.AddDate(0, 0, 1) }, "endDate"},
		{"negative initial", func(r *Request) { r.InitialInvestment = -1 }, "initialInvestment"},
		{"negative contribution", func(r *Request) { r.Contribution = -1 }, "contribution"},
		{"NaN initial", func(r *Request) { r.InitialInvestment = math.NaN() }, "initialInvestment"},
		{"infinite initial", func(r *Request) { r.InitialInvestment = math.Inf(1) }, "initialInvestment"},
		{"NaN contribution", func(r *Request) { r.Contribution = math.NaN() }, "contribution"},
		{"infinite contribution", func(r *Request) { r.Contribution = math.Inf(1) }, "contribution"},
		{"bad frequency", func(r *Request) { r.Frequency = "daily" }, "frequency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := DefaultRequest()
			tt.edit(&req)
			err := req.Validate(now)
			var re *RequestError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.field, re.Field)
		})
	}
}

func TestRequestSymbols(t *testing.T) {
	req := Request{Tickers: []string{" spy", "AAPL", "aapl", ""}, Benchmark: "spy"}
	req.Normalize()
	assert.Equal(t, []string{"SPY", "AAPL"}, req.Tickers)
	assert.Equal(t, []string{"SPY", "AAPL"}, req.Symbols())
	assert.Equal(t, FrequencyMonthly, req.Frequency)

	req.Benchmark = "QQQ"
	assert.Equal(t, []string{"SPY", "AAPL", "QQQ"}, req.Symbols())
	req.Benchmark = ""
	assert.Equal(t, []string{"SPY", "AAPL"}, req.Symbols())
}

func TestSplitTickers(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "MSFT", "JPM"}, SplitTickers("AAPL, MSFT,JPM "))
}
