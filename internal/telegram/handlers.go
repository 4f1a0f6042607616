package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dcaBot/internal/accumulator"
	"dcaBot/internal/finance"
	"dcaBot/internal/storage"
)

var (
	// /dca [T1 T2 ...] [vs BENCH] [key=value ...]
	reDCA = regexp.MustCompile(`^/dca(?:@[\w_]+)?(?:\s+.*)?$`)
	// /dcax: same arguments, plus a narrative
	reDCAX = regexp.MustCompile(`^/dcax(?:@[\w_]+)?(?:\s+.*)?$`)
	// /history [N]
	reHistory = regexp.MustCompile(`^/history(?:@[\w_]+)?(?:\s+(\d+))?$`)
	// /help
	reHelp = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
)

// sender is the part of *tgbotapi.BotAPI the handlers use.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Narrator explains a comparison in plain language.
type Narrator interface {
	Explain(ctx context.Context, c *finance.Comparison) (string, error)
}

// Deps are the services behind the bot commands. Store and Narrator may be
// nil.
type Deps struct {
	Store     *storage.Store
	Simulator *finance.Simulator
	Charts    *finance.ChartRenderer
	Narrator  Narrator
	Timeout   time.Duration
}

type Handlers struct {
	api sender
	Deps
}

func NewHandlers(api sender, deps Deps) *Handlers {
	if deps.Timeout <= 0 {
		deps.Timeout = 45 * time.Second
	}
	return &Handlers{api: api, Deps: deps}
}

// HandleMessage runs on its own goroutine per update, so a panic is
// recovered here and reported to the chat instead of taking the process down.
func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("telegram: handler panic", "chat_id", m.Chat.ID, "text", m.Text, "panic", r)
			h.reply(m.Chat.ID, "Something went wrong while handling that command.")
		}
	}()
	txt := strings.TrimSpace(m.Text)
	switch {
	case reDCA.MatchString(txt):
		h.handleDCA(m.Chat.ID, txt, false)

	case reDCAX.MatchString(txt):
		h.handleDCA(m.Chat.ID, txt, true)

	case reHistory.MatchString(txt):
		n := 5
		if g := reHistory.FindStringSubmatch(txt); len(g) == 2 && g[1] != "" {
			n, _ = strconv.Atoi(g[1])
			if n < 1 {
				n = 1
			}
			if n > 20 {
				n = 20
			}
		}
		h.handleHistory(m.Chat.ID, n)

	case reHelp.MatchString(txt):
		h.handleHelp(m.Chat.ID)
	}
}

func (h *Handlers) handleDCA(chatID int64, txt string, narrate bool) {
	req, err := finance.ParseCommand(txt)
	if err != nil {
		h.reply(chatID, "Invalid command: "+err.Error()+"\nSee /help")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.Timeout)
	defer cancel()
	c, err := h.Simulator.Run(ctx, req)
	if err != nil {
		if errors.Is(err, finance.ErrInvalidRequest) || errors.Is(err, accumulator.ErrInvalidInput) {
			h.reply(chatID, "Invalid request: "+err.Error())
		} else {
			slog.Error("telegram: simulation failed", "chat_id", chatID, "err", err)
			h.reply(chatID, "Simulation failed: "+err.Error())
		}
		return
	}

	if h.Charts != nil {
		img, err := h.Charts.ComparisonChart(c)
		if err != nil {
			slog.Warn("telegram: chart failed", "chat_id", chatID, "err", err)
		} else {
			name := strings.Join(c.Request.Tickers, "_") + "_dca.png"
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: img})
			photo.Caption = caption(c)
			h.send(photo)
		}
	}
	h.reply(chatID, finance.FormatReport(c))

	if h.Store != nil {
		if _, err := h.Store.SaveRun(storage.NewRun(chatID, c)); err != nil {
			slog.Error("telegram: save run failed", "chat_id", chatID, "err", err)
		}
	}

	if !narrate {
		return
	}
	if h.Narrator == nil {
		h.reply(chatID, "Narration is not configured on this bot.")
		return
	}
	out, err := h.Narrator.Explain(ctx, c)
	if err != nil {
		h.reply(chatID, "Narration failed: "+err.Error())
		return
	}
	msg := tgbotapi.NewMessage(chatID, out)
	msg.ParseMode = "Markdown"
	h.send(msg)
}

func (h *Handlers) handleHistory(chatID int64, n int) {
	if h.Store == nil {
		h.reply(chatID, "History is not available.")
		return
	}
	runs, err := h.Store.RecentRuns(chatID, n)
	if err != nil {
		h.reply(chatID, "History failed: "+err.Error())
		return
	}
	if len(runs) == 0 {
		h.reply(chatID, "No simulations yet. Try /dca")
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Last %d simulations\n", len(runs))
	for _, r := range runs {
		fmt.Fprintf(&b, "\n%s %s", r.CreatedAt.UTC().Format("2006-01-02 15:04"), strings.Join(r.Tickers, ","))
		if r.Benchmark != "" {
			fmt.Fprintf(&b, " vs %s", r.Benchmark)
		}
		fmt.Fprintf(&b, " • %s..%s %s • %s of %s",
			r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"), r.Frequency,
			usd(r.FinalValue), usd(r.TotalInvested))
		if r.Benchmark != "" {
			fmt.Fprintf(&b, " (%s %s)", r.Benchmark, usd(r.BenchmarkValue))
		}
	}
	h.reply(chatID, b.String())
}

func (h *Handlers) handleHelp(chatID int64) {
	help := "Commands\n\n" +
		"- /dca [T1 T2 ...] [vs BENCH] [initial=N] [contrib=N] [from=YYYY-MM-DD] [to=YYYY-MM-DD] [freq=weekly|monthly] - Whole-share DCA of an equal-split basket against a benchmark\n" +
		"- /dcax ... - Same as /dca plus a short plain-language explanation\n" +
		"- /history [N] - Your last N simulations (default: 5, max: 20)\n" +
		"\nDefaults: " + strings.Join(finance.DefaultTickers, " ") + " vs " + finance.DefaultBenchmark +
		", 500 initial, 400 monthly, 2015-01-01 to 2025-02-01.\n" +
		"Only whole shares are bought; leftover cash carries to the next period."
	h.reply(chatID, help)
}

func caption(c *finance.Comparison) string {
	s := fmt.Sprintf("%s • %s", strings.Join(c.Request.Tickers, ", "), usd(c.PortfolioSummary.FinalValue))
	if c.Benchmark != nil {
		s += fmt.Sprintf(" vs %s %s", c.Request.Benchmark, usd(c.BenchmarkSummary.FinalValue))
	}
	return s
}

func usd(v float64) string { return money.NewFromFloat(v, money.USD).Display() }

func (h *Handlers) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		slog.Warn("telegram: send failed", "err", err)
	}
}
