package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/usman-manii/wallpaintingservices-sub000/app"
	"github.com/usman-manii/wallpaintingservices-sub000/config"
	"github.com/usman-manii/wallpaintingservices-sub000/content"
	"github.com/usman-manii/wallpaintingservices-sub000/distribute"
	"github.com/usman-manii/wallpaintingservices-sub000/jobqueue"
	"github.com/usman-manii/wallpaintingservices-sub000/llm"
	"github.com/usman-manii/wallpaintingservices-sub000/logger"
	"github.com/usman-manii/wallpaintingservices-sub000/resilience"
	"github.com/usman-manii/wallpaintingservices-sub000/server"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		if _, err := os.Stat("config.yml"); err == nil {
			cfgPath = "config.yml"
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Error("pgxpool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	jobs := jobqueue.NewPostgresStore(pool)
	posts := content.NewPostgresStore(pool)
	if err := jobs.InitSchema(ctx); err != nil {
		log.Error("init jobs schema", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := posts.InitSchema(ctx); err != nil {
		log.Error("init posts schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// One breaker per protected dependency, created once for the process
	// lifetime. Breaker state is process-local; sibling worker instances
	// trip independently.
	claudeBreaker := resilience.NewBreaker("claude", resilience.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		SuccessThreshold: cfg.Breaker.SuccessThreshold,
		ResetTimeout:     cfg.Breaker.ResetTimeout,
	}, log)

	callerCfg := resilience.CallerConfig{
		MaxRetries:        cfg.Retry.MaxRetries,
		InitialDelay:      cfg.Retry.InitialDelay,
		MaxDelay:          cfg.Retry.MaxDelay,
		BackoffMultiplier: cfg.Retry.BackoffMultiplier,
		JitterPct:         cfg.Retry.JitterPct,
	}
	if cfg.Claude.Timeout != "" {
		d, err := time.ParseDuration(cfg.Claude.Timeout)
		if err != nil {
			log.Error("invalid claude.timeout", slog.String("error", err.Error()))
			os.Exit(1)
		}
		callerCfg.Timeout = d
	}

	var limiter *rate.Limiter
	if cfg.Claude.RatePerS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Claude.RatePerS), 1)
	}
	claudeCaller := resilience.NewCaller(callerCfg, claudeBreaker, limiter, log)

	generator, err := llm.NewClaude(llm.ClaudeConfig{
		APIKey:    cfg.Claude.APIKey,
		Model:     cfg.Claude.Model,
		MaxTokens: cfg.Claude.MaxTokens,
	}, claudeCaller, log)
	if err != nil {
		log.Error("claude", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var channels []distribute.Channel
	if len(cfg.Search.Addresses) > 0 {
		search, err := distribute.NewSearchChannel(distribute.SearchConfig{
			Addresses: cfg.Search.Addresses,
			Username:  cfg.Search.Username,
			Password:  cfg.Search.Password,
			Index:     cfg.Search.Index,
		})
		if err != nil {
			log.Error("search channel", slog.String("error", err.Error()))
			os.Exit(1)
		}
		channels = append(channels, search)
	}
	if cfg.Distribution.WebhookURL != "" {
		webhookBreaker := resilience.NewBreaker("webhook", resilience.BreakerConfig{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			SuccessThreshold: cfg.Breaker.SuccessThreshold,
			ResetTimeout:     cfg.Breaker.ResetTimeout,
		}, log)
		webhookCaller := resilience.NewCaller(callerCfg, webhookBreaker, nil, log)
		channels = append(channels, distribute.NewWebhookChannel("webhook", cfg.Distribution.WebhookURL, webhookCaller))
	}
	distributor := distribute.NewDistributor(cfg.Distribution.DefaultChannels, log, channels...)

	application := app.New(jobs, posts, generator, distributor, log)

	dispatcher := jobqueue.NewDispatcher(jobs, log)
	application.RegisterHandlers(dispatcher)

	worker := jobqueue.NewWorker(jobs, dispatcher, jobqueue.WorkerConfig{
		PollInterval: cfg.Worker.PollInterval,
	}, log)

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.NewRouter(jobs, log),
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)

	var wg sync.WaitGroup

	wg.Go(func() {
		log.Info("starting worker")
		worker.Run(ctx)
		log.Info("worker stopped")
	})

	wg.Go(func() {
		log.Info("http server listening", slog.String("addr", cfg.Server.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", slog.String("error", err.Error()))
		}
		log.Info("http server stopped")
	})

	<-stopChan
	log.Info("shutting down")

	go func() {
		<-stopChan
		log.Warn("force shutdown")
		os.Exit(1)
	}()

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", slog.String("error", err.Error()))
	}

	wg.Wait()
}
