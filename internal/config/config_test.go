package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JakeFAU/keno-monitor/internal/monitor"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Monitor.TargetURL != "https://flashsport.bet/" {
		t.Fatalf("unexpected target url: %s", cfg.Monitor.TargetURL)
	}
	if cfg.Monitor.TickInterval != 2*time.Second {
		t.Fatalf("expected tick interval 2s, got %v", cfg.Monitor.TickInterval)
	}
	if cfg.Monitor.MinTickSleep != 500*time.Millisecond {
		t.Fatalf("expected min sleep 500ms, got %v", cfg.Monitor.MinTickSleep)
	}
	if cfg.Monitor.StatusEvery != 150 {
		t.Fatalf("expected status every 150, got %d", cfg.Monitor.StatusEvery)
	}
	if cfg.Monitor.InnerErrorThreshold != 10 {
		t.Fatalf("expected threshold 10, got %d", cfg.Monitor.InnerErrorThreshold)
	}
	if cfg.Fetcher.Timeout != 5*time.Second {
		t.Fatalf("expected fetch timeout 5s, got %v", cfg.Fetcher.Timeout)
	}
	if !strings.Contains(cfg.Fetcher.UserAgent, "Chrome/91") {
		t.Fatalf("expected browser user agent, got %s", cfg.Fetcher.UserAgent)
	}
	if cfg.Server.Port != 10000 {
		t.Fatalf("expected port 10000, got %d", cfg.Server.Port)
	}
	if cfg.HasTelegramCredentials() {
		t.Fatal("expected no telegram credentials by default")
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
telegram:
  bot_token: "123456:token"
  chat_id: 987654321
monitor:
  target_url: https://example.org/keno
  tick_interval: 1s
  min_tick_sleep: 250ms
  cooldown_window: 30s
  status_every: 10
  inner_error_threshold: 5
  inner_backoff: 2s
  outer_backoff: 6s
fetcher:
  timeout: 10s
  user_agent: test-agent
notifier:
  rate_limit: 1.0
  rate_burst: 3
server:
  port: 9090
  request_timeout: 5s
logging:
  development: true
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.HasTelegramCredentials() {
		t.Fatal("expected telegram credentials")
	}
	if cfg.Telegram.ChatID != 987654321 {
		t.Fatalf("unexpected chat id: %d", cfg.Telegram.ChatID)
	}
	if cfg.Monitor.TargetURL != "https://example.org/keno" {
		t.Fatalf("unexpected target url: %s", cfg.Monitor.TargetURL)
	}
	if cfg.Monitor.CooldownWindow != 30*time.Second {
		t.Fatalf("expected cooldown 30s, got %v", cfg.Monitor.CooldownWindow)
	}
	if cfg.Fetcher.UserAgent != "test-agent" {
		t.Fatalf("unexpected user agent: %s", cfg.Fetcher.UserAgent)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.Logging.Development {
		t.Fatal("expected development logging")
	}

	sup := cfg.SupervisorConfig()
	if sup.TargetURL != "https://example.org/keno" || sup.TickInterval != time.Second {
		t.Fatalf("supervisor config not mapped: %+v", sup)
	}
	if sup.InnerErrorThreshold != 5 || sup.StatusEvery != 10 {
		t.Fatalf("supervisor config not mapped: %+v", sup)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("KENO_MONITOR_TARGET_URL", "https://env.example.org/")
	t.Setenv("KENO_MONITOR_TICK_INTERVAL", "750ms")
	t.Setenv("KENO_TELEGRAM_CHAT_ID", "42")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Monitor.TargetURL != "https://env.example.org/" {
		t.Fatalf("expected env override, got %s", cfg.Monitor.TargetURL)
	}
	if cfg.Monitor.TickInterval != 750*time.Millisecond {
		t.Fatalf("expected 750ms tick, got %v", cfg.Monitor.TickInterval)
	}
	if cfg.Telegram.ChatID != 42 {
		t.Fatalf("expected chat id 42, got %d", cfg.Telegram.ChatID)
	}
}

func TestLoadHonorsPortEnv(t *testing.T) {
	t.Setenv("PORT", "8181")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8181 {
		t.Fatalf("expected PORT override 8181, got %d", cfg.Server.Port)
	}

	t.Setenv("PORT", "not-a-port")
	if _, err := Load(""); !errors.Is(err, monitor.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Monitor: MonitorConfig{
			TargetURL:           "https://flashsport.bet/",
			TickInterval:        2 * time.Second,
			MinTickSleep:        500 * time.Millisecond,
			CooldownWindow:      10 * time.Second,
			StatusEvery:         150,
			InnerErrorThreshold: 10,
			InnerBackoff:        5 * time.Second,
			OuterBackoff:        12 * time.Second,
		},
		Fetcher:  FetcherConfig{Timeout: 5 * time.Second, UserAgent: DefaultUserAgent},
		Notifier: NotifierConfig{RateLimit: 0.5, RateBurst: 5},
		Server:   ServerConfig{Port: 10000, RequestTimeout: 15 * time.Second},
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("expected base config to validate, got %v", err)
	}

	tests := []struct {
		name string
		mod  func(Config) Config
		want string
	}{
		{
			name: "missing target url",
			mod: func(c Config) Config {
				c.Monitor.TargetURL = ""
				return c
			},
			want: "monitor.target_url",
		},
		{
			name: "invalid tick interval",
			mod: func(c Config) Config {
				c.Monitor.TickInterval = 0
				return c
			},
			want: "monitor.tick_interval",
		},
		{
			name: "invalid threshold",
			mod: func(c Config) Config {
				c.Monitor.InnerErrorThreshold = 0
				return c
			},
			want: "monitor.inner_error_threshold",
		},
		{
			name: "invalid fetch timeout",
			mod: func(c Config) Config {
				c.Fetcher.Timeout = 0
				return c
			},
			want: "fetcher.timeout",
		},
		{
			name: "invalid rate burst",
			mod: func(c Config) Config {
				c.Notifier.RateBurst = 0
				return c
			},
			want: "notifier.rate_burst",
		},
		{
			name: "invalid port",
			mod: func(c Config) Config {
				c.Server.Port = 70000
				return c
			},
			want: "server.port",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.mod(base).Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
			if !errors.Is(err, monitor.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}
