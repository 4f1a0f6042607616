package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"dcaBot/internal/finance"
)

// scenario is the YAML form of a simulation request.
type scenario struct {
	Tickers      []string `yaml:"tickers"`
	Benchmark    *string  `yaml:"benchmark"`
	Start        string   `yaml:"start"`
	End          string   `yaml:"end"`
	Initial      *float64 `yaml:"initial"`
	Contribution *float64 `yaml:"contribution"`
	Frequency    string   `yaml:"frequency"`
}

func loadScenario(r io.Reader) (finance.Request, error) {
	var sc scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return finance.Request{}, fmt.Errorf("scenario: %w", err)
	}
	return sc.apply(finance.DefaultRequest())
}

func (sc scenario) apply(req finance.Request) (finance.Request, error) {
	var err error
	if len(sc.Tickers) > 0 {
		req.Tickers = sc.Tickers
	}
	if sc.Benchmark != nil {
		req.Benchmark = *sc.Benchmark
	}
	if sc.Start != "" {
		if req.Start, err = finance.ParseDate("start", sc.Start); err != nil {
			return req, err
		}
	}
	if sc.End != "" {
		if req.End, err = finance.ParseDate("end", sc.End); err != nil {
			return req, err
		}
	}
	if sc.Initial != nil {
		req.InitialInvestment = *sc.Initial
	}
	if sc.Contribution != nil {
		req.Contribution = *sc.Contribution
	}
	if sc.Frequency != "" {
		if req.Frequency, err = finance.ParseFrequency(sc.Frequency); err != nil {
			return req, err
		}
	}
	return req, nil
}

func simulateCmd() *cobra.Command {
	var (
		sc           scenario
		tickers      string
		benchmark    string
		initial      float64
		contribution float64
		scenarioFile string
		chartFile    string
		mock         bool
		timeout      time.Duration
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one basket vs benchmark comparison",
		Example: `  dcasim simulate --tickers AAPL,MSFT --benchmark SPY --start 2019-01-01 --end 2024-01-01
  dcasim simulate --scenario scenario.yaml --chart out.png
  dcasim simulate --mock --frequency weekly --contribution 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

			req := finance.DefaultRequest()
			if scenarioFile != "" {
				f, err := os.Open(scenarioFile)
				if err != nil {
					return err
				}
				req, err = loadScenario(f)
				f.Close()
				if err != nil {
					return err
				}
			}

			// flags given explicitly win over the scenario file
			flags := cmd.Flags()
			if flags.Changed("tickers") {
				sc.Tickers = finance.SplitTickers(tickers)
			}
			if flags.Changed("benchmark") {
				sc.Benchmark = &benchmark
			}
			if flags.Changed("initial") {
				sc.Initial = &initial
			}
			if flags.Changed("contribution") {
				sc.Contribution = &contribution
			}
			req, err := sc.apply(req)
			if err != nil {
				return err
			}

			var sim *finance.Simulator
			if mock {
				sim = finance.NewSimulator(finance.NewMockSource(), nil)
			} else {
				sim = finance.NewSimulator(finance.NewYahooSource(&http.Client{Timeout: timeout}), finance.NewMockSource())
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
			defer cancelTimeout()

			c, err := sim.Run(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := writeLedger(out, c); err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprint(out, finance.FormatReport(c))

			if chartFile != "" {
				img, err := finance.NewChartRenderer(0).ComparisonChart(c)
				if err != nil {
					return err
				}
				if err := os.WriteFile(chartFile, img, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(out, "\nChart written to %s\n", chartFile)
			}
			return nil
		},
	}

	def := finance.DefaultRequest()
	cmd.Flags().StringVar(&tickers, "tickers", strings.Join(def.Tickers, ","), "Comma separated basket tickers")
	cmd.Flags().StringVar(&benchmark, "benchmark", def.Benchmark, "Benchmark ticker (empty to skip)")
	cmd.Flags().StringVar(&sc.Start, "start", "", "Start date YYYY-MM-DD (default "+def.Start.Format("2006-01-02")+")")
	cmd.Flags().StringVar(&sc.End, "end", "", "End date YYYY-MM-DD (default "+def.End.Format("2006-01-02")+")")
	cmd.Flags().Float64Var(&initial, "initial", def.InitialInvestment, "Initial investment")
	cmd.Flags().Float64Var(&contribution, "contribution", def.Contribution, "Contribution per period")
	cmd.Flags().StringVar(&sc.Frequency, "frequency", "", "Contribution frequency: weekly or monthly (default monthly)")
	cmd.Flags().StringVar(&scenarioFile, "scenario", "", "YAML scenario file")
	cmd.Flags().StringVar(&chartFile, "chart", "", "Write the comparison chart PNG to this file")
	cmd.Flags().BoolVar(&mock, "mock", false, "Use synthetic prices instead of Yahoo Finance")
	cmd.Flags().DurationVar(&timeout, "timeout", 45*time.Second, "Price download timeout")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	return cmd
}

// writeLedger prints one row per period with the share count of every
// basket asset.
func writeLedger(w io.Writer, c *finance.Comparison) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{"Date", "Invested", "Portfolio"}
	if c.Benchmark != nil {
		header = append(header, c.Request.Benchmark)
	}
	header = append(header, c.Portfolio.Assets...)
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for i, p := range c.Portfolio.Periods {
		row := []string{
			p.Time.Format("2006-01-02"),
			p.TotalInvested.StringFixed(2),
			p.PortfolioValue.StringFixed(2),
		}
		if c.Benchmark != nil {
			row = append(row, c.Benchmark.Periods[i].PortfolioValue.StringFixed(2))
		}
		for _, h := range p.Holdings {
			row = append(row, fmt.Sprintf("%d", h.Shares))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	return tw.Flush()
}
