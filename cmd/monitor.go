package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/keno-monitor/internal/api"
	"github.com/JakeFAU/keno-monitor/internal/clock/system"
	"github.com/JakeFAU/keno-monitor/internal/config"
	"github.com/JakeFAU/keno-monitor/internal/detector"
	collyfetcher "github.com/JakeFAU/keno-monitor/internal/fetcher/colly"
	"github.com/JakeFAU/keno-monitor/internal/hash/sha256"
	"github.com/JakeFAU/keno-monitor/internal/history"
	"github.com/JakeFAU/keno-monitor/internal/id/uuid"
	"github.com/JakeFAU/keno-monitor/internal/logging"
	"github.com/JakeFAU/keno-monitor/internal/metrics"
	"github.com/JakeFAU/keno-monitor/internal/monitor"
	memorynotifier "github.com/JakeFAU/keno-monitor/internal/notifier/memory"
	telegramnotifier "github.com/JakeFAU/keno-monitor/internal/notifier/telegram"
)

var dryRun bool

// newMonitorCmd creates and configures the 'monitor' subcommand.
func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Starts the monitor loop and status server",
		Long: `Starts the supervising monitor loop against the configured Keno page
and serves the HTTP status surface. Without Telegram credentials only
the status surface runs; with --dry-run the loop polls the live page
but records alerts in memory instead of delivering them.`,
		RunE: runMonitorCommand,
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run the loop with an in-memory notifier instead of Telegram")
	return cmd
}

func runMonitorCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development || development)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state := monitor.NewState()
	hist := history.NewStore(history.DefaultCapacity)
	clock := system.New()

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		return err
	}
	if notifier != nil {
		if err := startSupervisor(ctx, cfg, state, hist, clock, notifier, logger); err != nil {
			return err
		}
	} else {
		logger.Warn("telegram credentials missing; monitor loop disabled, serving status surface only")
	}

	apiServer := api.NewServer(state, hist, clock, cfg, logger.Named("api"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}

// buildNotifier picks the outbound channel: the in-memory recorder under
// --dry-run, Telegram when credentials are present, nil otherwise. A nil
// notifier keeps the monitor loop down.
func buildNotifier(cfg config.Config, logger *zap.Logger) (monitor.Notifier, error) {
	if dryRun {
		logger.Info("dry run: alerts recorded in memory, not delivered")
		return memorynotifier.New(), nil
	}
	if !cfg.HasTelegramCredentials() {
		return nil, nil
	}
	notifier, err := telegramnotifier.New(telegramnotifier.Config{
		Token:     cfg.Telegram.BotToken,
		ChatID:    cfg.Telegram.ChatID,
		RateLimit: cfg.Notifier.RateLimit,
		RateBurst: cfg.Notifier.RateBurst,
	}, logger.Named("telegram"))
	if err != nil {
		return nil, fmt.Errorf("telegram notifier init: %w", err)
	}
	return notifier, nil
}

// startSupervisor assembles the full monitor pipeline and launches it on its
// own goroutine. It runs until ctx is canceled.
func startSupervisor(
	ctx context.Context,
	cfg config.Config,
	state *monitor.State,
	hist *history.Store,
	clock *system.Clock,
	notifier monitor.Notifier,
	logger *zap.Logger,
) error {
	factory := func() (monitor.Fetcher, error) {
		return collyfetcher.New(collyfetcher.Config{
			UserAgent: cfg.Fetcher.UserAgent,
			Timeout:   cfg.Fetcher.Timeout,
		}), nil
	}

	sup, err := monitor.New(
		cfg.SupervisorConfig(),
		state,
		detector.New(),
		notifier,
		factory,
		sha256.New(),
		hist,
		uuid.NewUUIDGenerator(),
		clock,
		logger.Named("monitor"),
	)
	if err != nil {
		return fmt.Errorf("supervisor init: %w", err)
	}
	go sup.Run(ctx)
	return nil
}
