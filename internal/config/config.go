package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	TelegramToken    string // optional; the bot is disabled without it
	WebhookPublicURL string
	OpenAIKey        string // optional; /dcax narration is disabled without it
	OpenAIModel      string
	Port             string
	DBPath           string
	PriceCacheTTL    time.Duration
	ChartCacheTTL    time.Duration
	FetchTimeout     time.Duration
	MockFallback     bool
	LogLevel         slog.Level
}

// BotEnabled reports whether a telegram token is configured.
func (c Config) BotEnabled() bool { return c.TelegramToken != "" }

func (c Config) Validate() error {
	var errs []error
	if c.BotEnabled() && c.WebhookPublicURL == "" {
		errs = append(errs, errors.New("missing env WEBHOOK_PUBLIC_URL (required with TELEGRAM_BOT_TOKEN)"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("missing env PORT"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("missing env DB_PATH"))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout))
	}
	if c.PriceCacheTTL < 0 || c.ChartCacheTTL < 0 {
		errs = append(errs, errors.New("cache TTLs must not be negative"))
	}
	return errors.Join(errs...)
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", "9095")
	v.SetDefault("db_path", "/app/data/dca.db")
	v.SetDefault("openai_model", "gpt-4")
	v.SetDefault("price_cache_ttl", "10m")
	v.SetDefault("chart_cache_ttl", "60s")
	v.SetDefault("fetch_timeout", "45s")
	v.SetDefault("mock_fallback", true)
	v.SetDefault("log_level", "info")
}

// Load reads configuration from the environment, a .env file in the working
// directory and, when CONFIG_FILE is set, a config file. Environment wins.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	defaults(v)

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := Config{
		TelegramToken:    v.GetString("telegram_bot_token"),
		WebhookPublicURL: v.GetString("webhook_public_url"),
		OpenAIKey:        v.GetString("openai_api_key"),
		OpenAIModel:      v.GetString("openai_model"),
		Port:             v.GetString("port"),
		DBPath:           v.GetString("db_path"),
		PriceCacheTTL:    v.GetDuration("price_cache_ttl"),
		ChartCacheTTL:    v.GetDuration("chart_cache_ttl"),
		FetchTimeout:     v.GetDuration("fetch_timeout"),
		MockFallback:     v.GetBool("mock_fallback"),
		LogLevel:         level,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
