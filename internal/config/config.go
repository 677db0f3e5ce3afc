package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as a Go duration string ("2s", "500ms") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		Enabled  bool     `yaml:"enabled"`
		BotToken string   `yaml:"bot_token"`
		ChatIDs  []string `yaml:"chat_ids"`
	} `yaml:"telegram"`
	Exchange struct {
		Source         string   `yaml:"source"` // binance or kraken
		BaseURL        string   `yaml:"base_url"`
		APIKey         string   `yaml:"api_key"`
		LookbackDays   int      `yaml:"lookback_days"`
		RequestPause   Duration `yaml:"request_pause"`
		MaxRetries     int      `yaml:"max_retries"`
		RetryBaseDelay Duration `yaml:"retry_base_delay"`
	} `yaml:"exchange"`
	CoinGecko struct {
		BaseURL          string   `yaml:"base_url"`
		APIKey           string   `yaml:"api_key"`
		PerPage          int      `yaml:"per_page"`
		MaxCoins         int      `yaml:"max_coins"`
		ExcludedKeywords []string `yaml:"excluded_keywords"`
	} `yaml:"coingecko"`
	Storage struct {
		Backend   string `yaml:"backend"` // file, jsonbin or redis
		CoinsFile string `yaml:"coins_file"`
		HeldFile  string `yaml:"held_file"`
		JSONBin   struct {
			BaseURL    string `yaml:"base_url"`
			MasterKey  string `yaml:"master_key"`
			CoinsBinID string `yaml:"coins_bin_id"`
			HeldBinID  string `yaml:"held_bin_id"`
		} `yaml:"jsonbin"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			CoinsKey string `yaml:"coins_key"`
			HeldKey  string `yaml:"held_key"`
		} `yaml:"redis"`
	} `yaml:"storage"`
	Schedule struct {
		DailyCron   string `yaml:"daily_cron"`
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	HTTP struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"http"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Backtest struct {
		Notional float64 `yaml:"notional"`
	} `yaml:"backtest"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides and defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
		c.Telegram.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_CHAT_IDS"); v != "" {
		c.Telegram.ChatIDs = splitList(v)
	}
	if v := os.Getenv("EXCHANGE_API_KEY"); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.CoinGecko.APIKey = v
	}
	if v := os.Getenv("JSONBIN_MASTER_KEY"); v != "" {
		c.Storage.JSONBin.MasterKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Storage.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Storage.Redis.Password = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("HTTP_LISTEN_ADDR"); v != "" {
		c.HTTP.ListenAddr = v
	}
}

func (c *Config) applyDefaults() {
	if c.Exchange.Source == "" {
		c.Exchange.Source = "binance"
	}
	if c.Exchange.LookbackDays == 0 {
		c.Exchange.LookbackDays = 180
	}
	if c.Exchange.RequestPause == 0 {
		c.Exchange.RequestPause = Duration(2 * time.Second)
	}
	if c.Exchange.MaxRetries == 0 {
		c.Exchange.MaxRetries = 5
	}
	if c.Exchange.RetryBaseDelay == 0 {
		c.Exchange.RetryBaseDelay = Duration(3 * time.Second)
	}
	if c.CoinGecko.BaseURL == "" {
		c.CoinGecko.BaseURL = "https://api.coingecko.com"
	}
	if c.CoinGecko.PerPage == 0 {
		c.CoinGecko.PerPage = 50
	}
	if c.CoinGecko.MaxCoins == 0 {
		c.CoinGecko.MaxCoins = 20
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.CoinsFile == "" {
		c.Storage.CoinsFile = "data/coins_list.json"
	}
	if c.Storage.HeldFile == "" {
		c.Storage.HeldFile = "data/bought_coins_list.json"
	}
	if c.Storage.JSONBin.BaseURL == "" {
		c.Storage.JSONBin.BaseURL = "https://api.jsonbin.io/v3"
	}
	if c.Storage.Redis.CoinsKey == "" {
		c.Storage.Redis.CoinsKey = "coinsentinel:coins"
	}
	if c.Storage.Redis.HeldKey == "" {
		c.Storage.Redis.HeldKey = "coinsentinel:held"
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 1 0 * * *"
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 30 23 * * 0"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Backtest.Notional == 0 {
		c.Backtest.Notional = 100
	}
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if len(c.Telegram.ChatIDs) == 0 {
			return fmt.Errorf("telegram.chat_ids is required when telegram is enabled")
		}
	}
	switch c.Exchange.Source {
	case "binance", "kraken":
	default:
		return fmt.Errorf("exchange.source must be binance or kraken, got %q", c.Exchange.Source)
	}
	if c.Exchange.LookbackDays < 50 {
		return fmt.Errorf("exchange.lookback_days must be at least 50, got %d", c.Exchange.LookbackDays)
	}
	if c.Exchange.MaxRetries < 1 {
		return fmt.Errorf("exchange.max_retries must be positive")
	}
	if c.CoinGecko.MaxCoins < 1 {
		return fmt.Errorf("coingecko.max_coins must be positive")
	}
	switch c.Storage.Backend {
	case "file":
	case "jsonbin":
		if c.Storage.JSONBin.MasterKey == "" || c.Storage.JSONBin.CoinsBinID == "" || c.Storage.JSONBin.HeldBinID == "" {
			return fmt.Errorf("storage.jsonbin requires master_key, coins_bin_id and held_bin_id")
		}
	case "redis":
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("storage.redis.addr is required")
		}
	default:
		return fmt.Errorf("storage.backend must be file, jsonbin or redis, got %q", c.Storage.Backend)
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Schedule.DailyCron); err != nil {
		return fmt.Errorf("schedule.daily_cron: %w", err)
	}
	if _, err := parser.Parse(c.Schedule.RefreshCron); err != nil {
		return fmt.Errorf("schedule.refresh_cron: %w", err)
	}
	if c.Backtest.Notional <= 0 {
		return fmt.Errorf("backtest.notional must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
