package finance

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
)

// usd formats an amount as US dollars, e.g. $1,234.56.
func usd(v float64) string {
	return money.NewFromFloat(v, money.USD).Display()
}

// FormatReport renders a comparison as plain text for chat replies and the CLI.
func FormatReport(c *Comparison) string {
	var b strings.Builder
	req := c.Request
	fmt.Fprintf(&b, "DCA %s → %s (%s, %d periods)\n",
		req.Start.Format("2006-01-02"), req.End.Format("2006-01-02"), c.Frequency, c.Portfolio.Len())
	fmt.Fprintf(&b, "Initial %s, then %s per period", usd(req.InitialInvestment), usd(c.Contribution))
	if c.Source != "" {
		fmt.Fprintf(&b, " • prices: %s", c.Source)
	}
	b.WriteString("\n")
	if c.Frequency != req.Frequency {
		fmt.Fprintf(&b, "Note: %s contribution of %s scaled to %s monthly (synthetic monthly prices)\n",
			req.Frequency, usd(req.Contribution), usd(c.Contribution))
	}
	b.WriteString("\n")
	writeSummary(&b, "Portfolio ("+strings.Join(req.Tickers, ", ")+")", c.PortfolioSummary)
	if c.Benchmark != nil {
		b.WriteString("\n")
		writeSummary(&b, req.Benchmark, c.BenchmarkSummary)
		diff := c.PortfolioSummary.FinalValue - c.BenchmarkSummary.FinalValue
		verdict := "ahead of"
		if diff < 0 {
			verdict = "behind"
			diff = -diff
		}
		fmt.Fprintf(&b, "\nPortfolio is %s %s by %s\n", verdict, req.Benchmark, usd(diff))
	}
	return b.String()
}

func writeSummary(b *strings.Builder, name string, s Summary) {
	fmt.Fprintf(b, "%s\n", name)
	fmt.Fprintf(b, "  Final value:    %s\n", usd(s.FinalValue))
	fmt.Fprintf(b, "  Total invested: %s\n", usd(s.TotalInvested))
	fmt.Fprintf(b, "  Profit:         %s (%+.2f%%)\n", usd(s.Profit), s.ReturnPct)
	fmt.Fprintf(b, "  Uninvested:     %s\n", usd(s.LeftoverCash))
	fmt.Fprintf(b, "  TWR %+.2f%% | Vol %.2f%% | MaxDD %.2f%%\n", s.TimeWeightedPct, s.VolatilityPct, s.MaxDrawdownPct)
}
