package finance

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var reCommandPrefix = regexp.MustCompile(`^/[\w-]+(?:@[\w_]+)?`)

// ParseCommand parses a simulation command string.
// Format: /dca AAPL MSFT vs SPY initial=1000 contrib=200 from=2019-01-01 to=2025-01-01 freq=weekly
// Every part is optional; missing parts keep DefaultRequest values. Tickers
// given on the command line replace the default basket.
func ParseCommand(input string) (Request, error) {
	req := DefaultRequest()

	input = strings.TrimSpace(input)
	input = strings.TrimSpace(reCommandPrefix.ReplaceAllString(input, ""))

	parts := strings.Fields(input)
	var tickers []string
	for i := 0; i < len(parts); i++ {
		part := parts[i]
		if strings.EqualFold(part, "vs") {
			if i+1 >= len(parts) {
				return Request{}, &RequestError{Field: "benchmark", Reason: "missing symbol after vs"}
			}
			i++
			req.Benchmark = parts[i]
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			tickers = append(tickers, strings.Trim(part, ","))
			continue
		}
		var err error
		switch strings.ToLower(key) {
		case "initial", "init":
			req.InitialInvestment, err = parseAmount(key, value)
		case "contrib", "contribution":
			req.Contribution, err = parseAmount(key, value)
		case "from", "start":
			req.Start, err = parseDate(key, value)
		case "to", "end":
			req.End, err = parseDate(key, value)
		case "freq", "frequency":
			req.Frequency, err = ParseFrequency(value)
		case "vs", "index", "benchmark":
			req.Benchmark = value
		default:
			err = &RequestError{Field: key, Reason: "unknown option"}
		}
		if err != nil {
			return Request{}, err
		}
	}
	if len(tickers) > 0 {
		req.Tickers = tickers
	}
	req.Normalize()
	return req, nil
}

func parseAmount(field, s string) (float64, error) {
	clean := strings.NewReplacer("$", "", ",", "", "_", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &RequestError{Field: field, Reason: fmt.Sprintf("invalid amount %q", s)}
	}
	return v, nil
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &RequestError{Field: field, Reason: fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", s)}
	}
	return t, nil
}

// ParseDate parses a YYYY-MM-DD date for the named field.
func ParseDate(field, s string) (time.Time, error) { return parseDate(field, s) }

// SplitTickers splits a comma or space separated ticker list.
func SplitTickers(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
}
