package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"voya/config"
	"voya/database"
	"voya/handlers"
	"voya/logger"
	"voya/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "voya: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; in production the variables are set directly
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, storeName, err := database.Open(ctx, database.Options{
		DatabaseURL: cfg.Database.URL,
		SupabaseURL: cfg.Database.SupabaseURL,
		SupabaseKey: cfg.Database.SupabaseKey,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	if storeName == "memory" {
		log.Warn("⚠️  No DATABASE_URL or Supabase credentials, itineraries are kept in memory only")
	} else {
		log.Info("✅ Itinerary store ready", zap.String("backend", storeName))
	}

	providers, err := services.NewProviders(cfg.AI.Providers, cfg.AI.Timeout)
	if err != nil {
		return fmt.Errorf("init AI providers: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := services.NewMetrics(reg)
	chain := services.NewChain(providers, log, metrics)
	if len(providers) == 0 {
		log.Warn("⚠️  No AI providers configured, itinerary generation will fail")
	} else {
		log.Info("✅ AI providers ready", zap.Strings("order", chain.ProviderIDs()))
	}

	recorder := services.NewRecorder(store, services.LogSink{Log: log, Metrics: metrics}, cfg.Database.PersistTimeout, log)

	search := services.NewSearchClient(cfg.Search.APIKey, cfg.Search.URL, cfg.Search.Timeout, log, metrics)
	if !search.Configured() {
		log.Warn("⚠️  SERPAPI_KEY not set, flight and hotel search will return errors")
	}

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(handlers.Deps{
		Chain:      chain,
		Recorder:   recorder,
		Search:     search,
		Store:      store,
		StoreName:  storeName,
		Metrics:    metrics,
		Log:        log,
		CORSOrigin: cfg.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 VOYA backend starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
	case <-ctx.Done():
		log.Info("🛑 Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}

	recorder.Wait()
	log.Info("👋 Server stopped")
	return nil
}
