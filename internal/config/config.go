package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Polymarket PolymarketConfig `mapstructure:"polymarket"`
	Detector   DetectorConfig   `mapstructure:"detector"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	API        APIConfig        `mapstructure:"api"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// PolymarketConfig holds trade feed configuration
type PolymarketConfig struct {
	DataAPIURL   string        `mapstructure:"data_api_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Limit        int           `mapstructure:"limit"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// DetectorConfig holds detection thresholds and state capacities
type DetectorConfig struct {
	MinNotionalUSD     float64 `mapstructure:"min_notional_usd"`
	NewWalletMaxTrades int     `mapstructure:"new_wallet_max_trades"`
	MaxWalletTrades    int     `mapstructure:"max_wallet_trades"`
	MinPriceDeviation  float64 `mapstructure:"min_price_deviation"`
	MinAlertScore      float64 `mapstructure:"min_alert_score"`
	PriceWindowSize    int     `mapstructure:"price_window_size"`
	RecentTradesSize   int     `mapstructure:"recent_trades_size"`
	SummaryInterval    int     `mapstructure:"summary_interval"`
}

// StorageConfig holds alert persistence configuration
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	Enabled  bool   `mapstructure:"enabled"`
}

// APIConfig holds the read-only alerts API configuration
type APIConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// MetricsConfig holds the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("WHALEWATCH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("polymarket.data_api_url", "https://data-api.polymarket.com")
	v.SetDefault("polymarket.poll_interval", "5s")
	v.SetDefault("polymarket.limit", 200)
	v.SetDefault("polymarket.timeout", "10s")

	v.SetDefault("detector.min_notional_usd", 3000.0)
	v.SetDefault("detector.new_wallet_max_trades", 3)
	v.SetDefault("detector.max_wallet_trades", 20)
	v.SetDefault("detector.min_price_deviation", 0.07)
	v.SetDefault("detector.min_alert_score", 60.0)
	v.SetDefault("detector.price_window_size", 200)
	v.SetDefault("detector.recent_trades_size", 1000)
	v.SetDefault("detector.summary_interval", 12)

	v.SetDefault("storage.db_path", "./data/whalewatch.db")

	v.SetDefault("telegram.enabled", false)

	v.SetDefault("api.enabled", false)
	v.SetDefault("api.listen_addr", ":8080")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_addr", ":9090")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Polymarket.DataAPIURL == "" {
		return fmt.Errorf("polymarket.data_api_url is required")
	}
	if c.Polymarket.PollInterval < time.Second {
		return fmt.Errorf("polymarket.poll_interval must be at least 1 second")
	}
	if c.Polymarket.Limit < 1 || c.Polymarket.Limit > 1000 {
		return fmt.Errorf("polymarket.limit must be between 1 and 1000")
	}
	if c.Polymarket.Timeout < time.Second {
		return fmt.Errorf("polymarket.timeout must be at least 1 second")
	}

	if c.Detector.MinNotionalUSD <= 0 {
		return fmt.Errorf("detector.min_notional_usd must be positive")
	}
	if c.Detector.NewWalletMaxTrades < 1 {
		return fmt.Errorf("detector.new_wallet_max_trades must be at least 1")
	}
	if c.Detector.MaxWalletTrades < c.Detector.NewWalletMaxTrades {
		return fmt.Errorf("detector.max_wallet_trades must be >= detector.new_wallet_max_trades")
	}
	if c.Detector.MinPriceDeviation <= 0 || c.Detector.MinPriceDeviation >= 1 {
		return fmt.Errorf("detector.min_price_deviation must be between 0 and 1")
	}
	if c.Detector.MinAlertScore < 0 || c.Detector.MinAlertScore > 100 {
		return fmt.Errorf("detector.min_alert_score must be between 0 and 100")
	}
	if c.Detector.PriceWindowSize < 5 {
		return fmt.Errorf("detector.price_window_size must be at least 5")
	}
	if c.Detector.RecentTradesSize < 1 {
		return fmt.Errorf("detector.recent_trades_size must be at least 1")
	}
	if c.Detector.SummaryInterval < 1 {
		return fmt.Errorf("detector.summary_interval must be at least 1")
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.API.Enabled && c.API.ListenAddr == "" {
		return fmt.Errorf("api.listen_addr is required when api is enabled")
	}
	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return fmt.Errorf("metrics.listen_addr is required when metrics is enabled")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
