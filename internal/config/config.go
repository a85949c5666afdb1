// Package config loads and validates monitor configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/keno-monitor/internal/monitor"
)

// DefaultUserAgent is the browser identity presented to the target page.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// TelegramConfig holds the bot credentials. Both are required before the
// monitor loop can start; the status server runs without them.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// MonitorConfig governs the supervising loop.
type MonitorConfig struct {
	TargetURL           string        `mapstructure:"target_url"`
	TickInterval        time.Duration `mapstructure:"tick_interval"`
	MinTickSleep        time.Duration `mapstructure:"min_tick_sleep"`
	CooldownWindow      time.Duration `mapstructure:"cooldown_window"`
	StatusEvery         int           `mapstructure:"status_every"`
	InnerErrorThreshold int64         `mapstructure:"inner_error_threshold"`
	InnerBackoff        time.Duration `mapstructure:"inner_backoff"`
	OuterBackoff        time.Duration `mapstructure:"outer_backoff"`
}

// FetcherConfig configures page fetch behavior.
type FetcherConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// NotifierConfig throttles outbound Telegram traffic.
type NotifierConfig struct {
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment. An empty path searches the
// working directory for an optional config.yaml; a missing file is not an
// error. The PORT environment variable, when set, overrides server.port
// because hosting platforms inject it.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KENO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return Config{}, fmt.Errorf("%w: parse PORT %q: %v", monitor.ErrConfiguration, port, err)
		}
		cfg.Server.Port = p
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("monitor.target_url", "https://flashsport.bet/")
	v.SetDefault("monitor.tick_interval", monitor.DefaultTickInterval)
	v.SetDefault("monitor.min_tick_sleep", monitor.DefaultMinTickSleep)
	v.SetDefault("monitor.cooldown_window", monitor.DefaultCooldownWindow)
	v.SetDefault("monitor.status_every", monitor.DefaultStatusEvery)
	v.SetDefault("monitor.inner_error_threshold", monitor.DefaultInnerErrorThreshold)
	v.SetDefault("monitor.inner_backoff", monitor.DefaultInnerBackoff)
	v.SetDefault("monitor.outer_backoff", monitor.DefaultOuterBackoff)
	v.SetDefault("fetcher.timeout", 5*time.Second)
	v.SetDefault("fetcher.user_agent", DefaultUserAgent)
	v.SetDefault("notifier.rate_limit", 0.5)
	v.SetDefault("notifier.rate_burst", 5)
	v.SetDefault("server.port", 10000)
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits. Telegram
// credentials are deliberately not checked here: without them the process
// still serves the status surface, only the monitor loop stays down.
func (c Config) Validate() error {
	if c.Monitor.TargetURL == "" {
		return fmt.Errorf("%w: monitor.target_url must be set", monitor.ErrConfiguration)
	}
	if c.Monitor.TickInterval <= 0 {
		return fmt.Errorf("%w: monitor.tick_interval must be > 0", monitor.ErrConfiguration)
	}
	if c.Monitor.MinTickSleep <= 0 {
		return fmt.Errorf("%w: monitor.min_tick_sleep must be > 0", monitor.ErrConfiguration)
	}
	if c.Monitor.CooldownWindow < 0 {
		return fmt.Errorf("%w: monitor.cooldown_window must be >= 0", monitor.ErrConfiguration)
	}
	if c.Monitor.StatusEvery <= 0 {
		return fmt.Errorf("%w: monitor.status_every must be > 0", monitor.ErrConfiguration)
	}
	if c.Monitor.InnerErrorThreshold < 1 {
		return fmt.Errorf("%w: monitor.inner_error_threshold must be >= 1", monitor.ErrConfiguration)
	}
	if c.Monitor.InnerBackoff <= 0 {
		return fmt.Errorf("%w: monitor.inner_backoff must be > 0", monitor.ErrConfiguration)
	}
	if c.Monitor.OuterBackoff <= 0 {
		return fmt.Errorf("%w: monitor.outer_backoff must be > 0", monitor.ErrConfiguration)
	}
	if c.Fetcher.Timeout <= 0 {
		return fmt.Errorf("%w: fetcher.timeout must be > 0", monitor.ErrConfiguration)
	}
	if c.Notifier.RateLimit <= 0 {
		return fmt.Errorf("%w: notifier.rate_limit must be > 0", monitor.ErrConfiguration)
	}
	if c.Notifier.RateBurst < 1 {
		return fmt.Errorf("%w: notifier.rate_burst must be >= 1", monitor.ErrConfiguration)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port must be in 1..65535", monitor.ErrConfiguration)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("%w: server.request_timeout must be > 0", monitor.ErrConfiguration)
	}
	return nil
}

// HasTelegramCredentials reports whether both bot credentials are present.
func (c Config) HasTelegramCredentials() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != 0
}

// SupervisorConfig maps the monitor section onto the supervisor's knobs.
func (c Config) SupervisorConfig() monitor.Config {
	return monitor.Config{
		TargetURL:           c.Monitor.TargetURL,
		TickInterval:        c.Monitor.TickInterval,
		MinTickSleep:        c.Monitor.MinTickSleep,
		CooldownWindow:      c.Monitor.CooldownWindow,
		StatusEvery:         c.Monitor.StatusEvery,
		InnerErrorThreshold: c.Monitor.InnerErrorThreshold,
		InnerBackoff:        c.Monitor.InnerBackoff,
		OuterBackoff:        c.Monitor.OuterBackoff,
	}
}
