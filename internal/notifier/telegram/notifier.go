// Package telegram delivers monitor messages to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/JakeFAU/keno-monitor/internal/monitor"
)

// textLimit keeps each chunk under Telegram's 4096-character message cap
// with headroom for entity expansion.
const textLimit = 4000

// Config controls the Telegram notifier.
type Config struct {
	Token     string
	ChatID    int64
	RateLimit float64 // sustained messages per second
	RateBurst int
	// APIURL overrides the Bot API endpoint, for proxies and tests.
	APIURL string
	// Offline skips the startup token probe against the Bot API.
	Offline bool
}

// Notifier implements monitor.Notifier over the Telegram Bot API. Sends are
// throttled through a token bucket so alert bursts do not trip Telegram's
// flood limits.
type Notifier struct {
	bot     *tele.Bot
	chat    *tele.Chat
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New builds a Notifier. Missing credentials and a rejected token both come
// back wrapped in monitor.ErrConfiguration.
func New(cfg Config, logger *zap.Logger) (*Notifier, error) {
	if cfg.Token == "" || cfg.ChatID == 0 {
		return nil, fmt.Errorf("%w: telegram token and chat id are required", monitor.ErrConfiguration)
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 0.5
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		URL:     cfg.APIURL,
		Offline: cfg.Offline,
		Client:  &http.Client{Timeout: 30 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create telegram bot: %v", monitor.ErrConfiguration, err)
	}

	return &Notifier{
		bot:     bot,
		chat:    &tele.Chat{ID: cfg.ChatID},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		logger:  logger,
	}, nil
}

// Notify sends one message, split into chunks when it exceeds the Telegram
// size limit. Failures are wrapped in monitor.ErrNotify.
func (n *Notifier) Notify(ctx context.Context, msg monitor.Message) error {
	for _, chunk := range splitText(msg.Text, textLimit) {
		if err := n.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limit wait: %v", monitor.ErrNotify, err)
		}
		if _, err := n.bot.Send(n.chat, chunk, sendOptions()); err != nil {
			return fmt.Errorf("%w: send %s message: %v", monitor.ErrNotify, msg.Kind, err)
		}
	}
	n.logger.Debug("telegram message sent", zap.String("kind", string(msg.Kind)))
	return nil
}

func sendOptions() *tele.SendOptions {
	return &tele.SendOptions{
		ParseMode:             tele.ModeMarkdown,
		DisableWebPagePreview: true,
	}
}

// splitText breaks long messages into chunks within limit, preferring
// newline boundaries so Markdown lines stay intact.
func splitText(s string, limit int) []string {
	if limit <= 0 {
		limit = textLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := start + limit
		if end > len(rs) {
			end = len(rs)
		}
		if end < len(rs) {
			cut := -1
			for i := end - 1; i > start; i-- {
				if rs[i] == '\n' {
					// Avoid extremely small chunks.
					if i-start >= limit/3 {
						cut = i + 1
						break
					}
				}
			}
			if cut != -1 {
				end = cut
			}
		}

		chunk := strings.TrimRight(string(rs[start:end]), "\n")
		out = append(out, chunk)

		start = end
		// Skip leading newlines to avoid empty chunks.
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}
