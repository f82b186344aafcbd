// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"telegram-subscription-shop/internal/application"
	"telegram-subscription-shop/internal/config"
	"telegram-subscription-shop/internal/domain/ports/adapter"
	"telegram-subscription-shop/internal/domain/ports/repository"
	payAdapters "telegram-subscription-shop/internal/infra/adapters/payment"
	tele "telegram-subscription-shop/internal/infra/adapters/telegram"
	"telegram-subscription-shop/internal/infra/api"
	"telegram-subscription-shop/internal/infra/catalog"
	"telegram-subscription-shop/internal/infra/clock"
	"telegram-subscription-shop/internal/infra/db/memory"
	pg "telegram-subscription-shop/internal/infra/db/postgres"
	"telegram-subscription-shop/internal/infra/i18n"
	"telegram-subscription-shop/internal/infra/logging"
	"telegram-subscription-shop/internal/infra/metrics"
	red "telegram-subscription-shop/internal/infra/redis"
	"telegram-subscription-shop/internal/infra/worker"
	"telegram-subscription-shop/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode: noop bot, in-memory store, no redis")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	for _, w := range cfg.Runtime.Warnings {
		logger.Warn().Msg(w)
	}
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("service stopped")
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "ru")
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}
	clk := clock.NewSystem()

	// ---- Catalog ----
	cat, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	logger.Info().Int("offers", len(cat.List())).Str("currency", cat.Currency()).Msg("catalog loaded")

	// ---- Redis ----
	var (
		limiter tele.Limiter
		seq     repository.InvoiceSequence = payAdapters.NewMonotonicSequence()
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
		seq = red.NewInvoiceSequence(redisClient)
	} else {
		logger.Warn().Msg("redis not configured; invoice ids are unique per process only and rate limiting is off")
	}

	// ---- Greeting store ----
	var greetRepo repository.GreetingRepository
	if cfg.Database.URL != "" {
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		if err := pg.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		greetRepo = pg.NewPostgresGreetingRepo(pool)
	} else {
		logger.Warn().Msg("database not configured; greetings are kept in memory")
		greetRepo = memory.NewGreetingRepo(clk)
	}

	// ---- Payment gateway ----
	rk := cfg.Payment.Robokassa
	gateway, err := payAdapters.NewRobokassaGateway(payAdapters.RobokassaOptions{
		MerchantLogin: rk.MerchantLogin,
		Password1:     rk.Password1,
		Password2:     rk.Password2,
		TestMode:      rk.TestMode,
		BaseURL:       rk.BaseURL,
		Culture:       rk.Culture,
	}, cat, seq, clk)
	if err != nil {
		return fmt.Errorf("robokassa: %w", err)
	}
	logger.Info().
		Str("merchant", rk.MerchantLogin).
		Bool("test_mode", rk.TestMode).
		Bool("distinct_result_secret", cfg.DistinctSecrets()).
		Msg("robokassa gateway ready")

	// ---- Notification workers ----
	pool := worker.NewPool(cfg.Worker.Notifiers, logger)
	pool.Start(context.Background())
	defer pool.Stop()

	// ---- Telegram ----
	// The facade needs the payment use case, which needs a bot to notify through,
	// so the real adapter is bound to the notifier after construction.
	bot := &botRef{}
	if cfg.Manager.ChatID == 0 {
		logger.Warn().Msg("MANAGER_CHAT_ID not set; manager notifications are disabled")
	}
	notifUC := usecase.NewNotificationUseCase(bot, cat, tr, cfg.Manager.ChatID, logger)
	paymentUC := usecase.NewPaymentUseCase(gateway, cat, notifUC, pool, logger, cfg.Runtime.Dev)
	greetingUC := usecase.NewGreetingUseCase(greetRepo, logger)
	if err := greetingUC.EnsureSeed(ctx, usecase.DefaultGreeting); err != nil {
		return fmt.Errorf("seed greeting: %w", err)
	}

	facade := application.NewBotFacade(paymentUC, greetingUC, cat, tr, cfg.Bot.SupportURL, cfg.Bot.WelcomePhoto)

	errc := make(chan error, 2)
	if cfg.Bot.Token != "" {
		tg, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, facade, limiter, tr, logger)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		bot.TelegramBotAdapter = tg
		if strings.ToLower(cfg.Bot.Mode) != "polling" {
			logger.Warn().Str("mode", cfg.Bot.Mode).Msg("only polling is implemented; falling back to polling")
		}
		go func() {
			if err := tg.StartPolling(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errc <- fmt.Errorf("telegram polling: %w", err)
			}
		}()
	} else {
		logger.Warn().Msg("bot token not set; using noop telegram adapter")
		bot.TelegramBotAdapter = tele.NewNoopBotAdapter(logger)
	}

	// ---- HTTP ----
	var auth *api.AuthManager
	if cfg.Admin.JWTSecret != "" {
		auth = api.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	}
	srv := api.NewServer(paymentUC, greetingUC, cat, tr, api.Options{
		BotUsername:    cfg.Bot.Username,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		Auth:           auth,
	}, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Bool("admin_api", auth != nil).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http server: %w", err)
		}
	}()

	// ---- Graceful shutdown ----
	runErr := waitForStop(ctx, errc, logger)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	return runErr
}

// waitForStop blocks until a shutdown signal or a component failure.
// Only a component failure is returned as an error.
func waitForStop(ctx context.Context, errc <-chan error, logger *zerolog.Logger) error {
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
		return nil
	case err := <-errc:
		logger.Error().Err(err).Msg("component failed; shutting down")
		return err
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

// botRef lets the notifier be built before the Telegram adapter exists.
type botRef struct {
	adapter.TelegramBotAdapter
}
