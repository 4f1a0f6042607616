package finance

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/vicanso/go-charts/v2"
)

// ChartRenderer renders comparison charts to PNG and caches the images.
type ChartRenderer struct {
	cache *chartCache
}

func NewChartRenderer(ttl time.Duration) *ChartRenderer {
	return &ChartRenderer{cache: newChartCache(ttl)}
}

// ComparisonChart draws the basket value, the benchmark value and the total
// invested over time.
func (r *ChartRenderer) ComparisonChart(c *Comparison) ([]byte, error) {
	if c == nil || c.Portfolio == nil || c.Portfolio.Len() == 0 {
		return nil, errors.New("no simulation to plot")
	}

	cacheKey := chartKey(c)
	if img, found := r.cache.get(cacheKey); found {
		return img, nil
	}

	times := c.Portfolio.Times()
	xLabels := make([]string, len(times))
	for i, t := range times {
		if len(times) <= 60 && c.Frequency == FrequencyWeekly {
			xLabels[i] = t.Format("Jan 02 '06")
		} else {
			xLabels[i] = t.Format("Jan '06")
		}
	}

	values := [][]float64{c.Portfolio.Values()}
	names := []string{"Portfolio"}
	if c.Benchmark != nil {
		values = append(values, c.Benchmark.Values())
		names = append(names, c.Request.Benchmark)
	}
	values = append(values, c.Portfolio.Invested())
	names = append(names, "Total Invested")

	// Y-axis range with padding
	minVal, maxVal := values[0][0], values[0][0]
	for _, series := range values {
		for _, v := range series {
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = maxVal*0.05 + 1
	}
	yMin := minVal - padding
	if yMin < 0 {
		yMin = 0
	}
	yMax := maxVal + padding

	title := fmt.Sprintf("Portfolio %+.1f%%", c.PortfolioSummary.ReturnPct)
	if c.Benchmark != nil {
		title += fmt.Sprintf(" vs %s %+.1f%%", c.Request.Benchmark, c.BenchmarkSummary.ReturnPct)
	}
	subtitle := fmt.Sprintf("%s • %s • %s", strings.Join(c.Request.Tickers, ", "), c.Frequency, c.Source)

	splitNum := 6
	if len(xLabels) <= 30 {
		splitNum = len(xLabels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	p, err := charts.LineRender(
		values,
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names, Left: charts.PositionRight}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}

	r.cache.set(cacheKey, buf)
	slog.Debug("chart: rendered", "key", cacheKey, "bytes", len(buf), "cached", r.cache.c.len())
	return buf, nil
}

func chartKey(c *Comparison) string {
	req := c.Request
	return fmt.Sprintf("dca-%s-%s-%s-%s-%s-%s-%s-%s",
		strings.Join(req.Tickers, ","), req.Benchmark,
		req.Start.Format("2006-01-02"), req.End.Format("2006-01-02"),
		strconv.FormatFloat(req.InitialInvestment, 'f', -1, 64),
		strconv.FormatFloat(c.Contribution, 'f', -1, 64), c.Frequency, c.Source)
}
