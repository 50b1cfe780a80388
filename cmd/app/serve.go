package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"telegram-storefront/internal/application"
	tele "telegram-storefront/internal/infra/adapters/telegram"
	httpapi "telegram-storefront/internal/infra/http"
	"telegram-storefront/internal/infra/i18n"
	"telegram-storefront/internal/infra/logging"
	"telegram-storefront/internal/infra/metrics"
	red "telegram-storefront/internal/infra/redis"
	"telegram-storefront/internal/infra/scheduler"
	"telegram-storefront/internal/infra/worker"
	"telegram-storefront/internal/presentation"
	"telegram-storefront/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll Telegram and serve the shop",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, err := buildInfra(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer in.Close()

	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Language)
	if err != nil {
		return err
	}

	var limiter *red.RateLimiter
	if in.redis != nil && cfg.Bot.RateLimit > 0 {
		limiter = red.NewRateLimiter(in.redis)
	}
	pool := worker.NewPool(cfg.Bot.Workers, logger)
	formatter := presentation.NewFormatter(tr)
	bot, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, pool, limiter, formatter, logger)
	if err != nil {
		return err
	}

	shop := usecase.NewStorefront(in.shop, bot, formatter, logger).WithDevMode(cfg.Runtime.Dev)
	sm, err := usecase.NewStateMachine(in.states, in.locker, shop.Handlers(), logger, usecase.WithLockTTL(cfg.State.LockTTL))
	if err != nil {
		return err
	}
	bot.SetHandler(application.NewBotFacade(sm, cfg.Runtime.Dev, logger))

	if cfg.Cache.WarmInterval > 0 {
		warmer := scheduler.NewScheduler("catalog_warmer", cfg.Cache.WarmInterval, in.catalog, logger)
		warmer.Start(ctx)
		defer warmer.Stop()
	}

	ops := httpapi.NewServer(&cfg.Admin, in.states, logger)
	go func() {
		if err := ops.Start(); err != nil {
			logger.Error().Err(err).Msg("ops HTTP server stopped")
		}
	}()

	logger.Info().
		Str("state_backend", cfg.State.Backend).
		Str("lock", cfg.State.Lock).
		Int("workers", cfg.Bot.Workers).
		Msg("storefront started")

	err = bot.StartPolling(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := ops.Shutdown(shutdownCtx); serr != nil {
		logger.Warn().Err(serr).Msg("ops server shutdown")
	}
	logger.Info().Msg("storefront stopped")

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
