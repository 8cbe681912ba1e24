// Package config loads the engine configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"signal-systemv1/internal/model"
	"signal-systemv1/internal/strategy"
)

// Config stores the full engine configuration. Values are read by viper from
// a config file or environment variables (dots replaced by underscores, e.g.
// FEED_URL, BROKER_TOTP_SECRET).
type Config struct {
	Products []string `mapstructure:"products"`

	Feed     FeedConfig                 `mapstructure:"feed"`
	Broker   BrokerConfig               `mapstructure:"broker"`
	Redis    RedisConfig                `mapstructure:"redis"`
	Journal  JournalConfig              `mapstructure:"journal"`
	Metrics  MetricsConfig              `mapstructure:"metrics"`
	Webhook  WebhookConfig              `mapstructure:"webhook"`
	Paper    PaperConfig                `mapstructure:"paper"`
	Strategy map[string]strategy.Params `mapstructure:"strategy"`
}

// FeedConfig defines the websocket price feed settings.
type FeedConfig struct {
	URL        string `mapstructure:"url"`
	BufferSize int    `mapstructure:"buffer_size"`
}

// BrokerConfig defines the order-execution collaborator credentials. Live
// trading is disabled when the API key is empty.
type BrokerConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	ClientCode string `mapstructure:"client_code"`
	Password   string `mapstructure:"password"`
	TOTPSecret string `mapstructure:"totp_secret"`
}

// RedisConfig defines the event publishing settings. Publishing is disabled
// when the address is empty.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
}

// JournalConfig defines the trade journal settings.
type JournalConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
}

// MetricsConfig defines the metrics/health HTTP endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// WebhookConfig defines the signal alert webhook. Disabled when empty.
type WebhookConfig struct {
	URL string `mapstructure:"url"`
}

// PaperConfig seeds the paper account the simulated executor checks
// affordability against. Both sides of every product are funded so a
// simulation session can round-trip entries and exits.
type PaperConfig struct {
	QuoteFunds float64 `mapstructure:"quote_funds"` // per quote currency, e.g. USD
	BaseFunds  float64 `mapstructure:"base_funds"`  // per base currency, e.g. BTC
}

// Load reads configuration from path (a directory containing config.yaml) and
// the environment. A missing config file is not an error: defaults and
// environment overrides still apply.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if len(cfg.Products) == 0 {
		return Config{}, errors.New("config: at least one product required")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("products", []string{"BTC-USD"})
	v.SetDefault("feed.url", "wss://ws-feed.exchange.coinbase.com")
	v.SetDefault("feed.buffer_size", 1024)
	v.SetDefault("redis.addr", "")
	v.SetDefault("journal.sqlite_path", "data/trades.db")
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("paper.quote_funds", 100000.0)
	v.SetDefault("paper.base_funds", 10.0)

	v.SetDefault("strategy.sma.period", 20)
	v.SetDefault("strategy.sma.trade_amount", 0.01)
	v.SetDefault("strategy.sma.min_movement_pct", 0.5)

	v.SetDefault("strategy.rsi.period", 14)
	v.SetDefault("strategy.rsi.oversold", 30)
	v.SetDefault("strategy.rsi.overbought", 70)
	v.SetDefault("strategy.rsi.trade_amount", 0.01)
	v.SetDefault("strategy.rsi.min_movement_pct", 0.5)

	v.SetDefault("strategy.macd.fast_period", 12)
	v.SetDefault("strategy.macd.slow_period", 26)
	v.SetDefault("strategy.macd.signal_period", 9)
	v.SetDefault("strategy.macd.trade_amount", 0.01)
	v.SetDefault("strategy.macd.min_movement_pct", 0.5)
}

// ProductIDs returns the configured products as typed IDs.
func (c Config) ProductIDs() []model.ProductID {
	out := make([]model.ProductID, len(c.Products))
	for i, p := range c.Products {
		out[i] = model.ProductID(p)
	}
	return out
}

// StrategyParams returns the per-kind parameters keyed for the manager.
func (c Config) StrategyParams() map[strategy.Kind]strategy.Params {
	return map[strategy.Kind]strategy.Params{
		strategy.KindSMA:  c.Strategy["sma"],
		strategy.KindRSI:  c.Strategy["rsi"],
		strategy.KindMACD: c.Strategy["macd"],
	}
}

// PaperFunds builds the paper account balances for the configured products.
// Currencies shared by several products are funded once.
func (c Config) PaperFunds() map[string]float64 {
	funds := make(map[string]float64)
	for _, p := range c.ProductIDs() {
		funds[p.Base()] = c.Paper.BaseFunds
		funds[p.Quote()] = c.Paper.QuoteFunds
	}
	return funds
}

// LiveEnabled reports whether live order execution is configured.
func (c Config) LiveEnabled() bool {
	return c.Broker.APIKey != "" && c.Broker.BaseURL != ""
}
