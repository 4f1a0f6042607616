package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"dcaBot/internal/config"
	"dcaBot/internal/finance"
	"dcaBot/internal/openai"
	"dcaBot/internal/server"
	"dcaBot/internal/storage"
	"dcaBot/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config: invalid", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	// Ensure parent directory for the DB exists
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	db, err := storage.OpenSQLite("file:" + cfg.DBPath + "?_fk=1")
	if err != nil {
		slog.Error("db: open failed", "path", cfg.DBPath, "err", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("db: opened sqlite", "path", cfg.DBPath)
	if err := storage.InitSchema(db); err != nil {
		slog.Error("db: schema failed", "err", err)
		os.Exit(1)
	}
	slog.Info("db: schema ensured (simulations table)")
	store := storage.NewStore(db)

	yahoo := finance.NewYahooSource(&http.Client{Timeout: cfg.FetchTimeout})
	var fallback finance.PriceSource
	if cfg.MockFallback {
		fallback = finance.NewMockSource()
	}
	sim := finance.NewSimulator(finance.NewCachedSource(yahoo, cfg.PriceCacheTTL), fallback)
	charts := finance.NewChartRenderer(cfg.ChartCacheTTL)

	deps := server.Deps{Simulator: sim, Charts: charts, Store: store, Timeout: cfg.FetchTimeout}
	if cfg.BotEnabled() {
		td := telegram.Deps{Store: store, Simulator: sim, Charts: charts, Timeout: cfg.FetchTimeout}
		if cfg.OpenAIKey != "" {
			td.Narrator = openai.NewNarrator(cfg.OpenAIKey, cfg.OpenAIModel)
		}
		tg, err := telegram.NewBot(cfg.TelegramToken, cfg.WebhookPublicURL, td)
		if err != nil {
			slog.Error("telegram: init failed", "err", err)
			os.Exit(1)
		}
		slog.Info("telegram: bot initialized", "webhook", cfg.WebhookPublicURL, "narration", td.Narrator != nil)
		deps.Webhook = tg.WebhookHandler // registers /telegram/webhook
	} else {
		slog.Info("telegram: TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	slog.Info("http: listening", "addr", addr)
	if err := server.ListenAndServe(ctx, addr, server.NewRouter(deps)); err != nil {
		slog.Error("http: server error", "err", err)
		os.Exit(1)
	}
}
