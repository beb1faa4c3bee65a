package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"trackit/internal/advice"
	"trackit/internal/auth"
	"trackit/internal/cache"
	"trackit/internal/config"
	"trackit/internal/events"
	apphttp "trackit/internal/http"
	applog "trackit/internal/log"
	"trackit/internal/services"
	"trackit/internal/store"
	"trackit/internal/store/memory"
	"trackit/internal/store/sqlite"
)

func main() {
	// Load .env for local development (ignore errors in production).
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		registry store.Registry
		datasets store.Datasets
	)
	cacheManager := cache.NewManager()

	switch cfg.DataBackend {
	case "sqlite":
		st, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to open sqlite store",
				applog.FieldError, err.Error(),
				"path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer st.Close()
		cacheManager.Register(st.DatasetCache())
		registry, datasets = st, st
		logger.Info("Initialized sqlite backend", applog.FieldBackend, cfg.DataBackend, "path", cfg.SQLiteDBPath)
	default:
		st := memory.New()
		registry, datasets = st, st
		logger.Info("Initialized memory backend", applog.FieldBackend, cfg.DataBackend)
	}

	cacheManager.StartCleanup(10 * time.Minute)
	defer cacheManager.Stop()

	var publisher services.ChangePublisher
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", applog.FieldError, err.Error())
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("Change event publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Change event publishing disabled")
	}

	var advisor advice.Advisor
	switch cfg.AdviceBackend {
	case "gemini":
		g, err := advice.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.AdviceTimeout, logger)
		if err != nil {
			logger.Error("Failed to initialize Gemini advisor", applog.FieldError, err.Error())
			os.Exit(1)
		}
		advisor = g
		logger.Info("Initialized Gemini advisor", "model", cfg.GeminiModel)
	default:
		advisor = advice.Static{}
		logger.Info("Initialized static advisor")
	}

	sessions := auth.NewSessions()
	authSvc := auth.NewService(registry, datasets, sessions, logger)
	tracker := services.NewTracker(datasets, publisher, advisor, logger)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}, authSvc, sessions, tracker, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting trackit server", "port", cfg.Port, applog.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
