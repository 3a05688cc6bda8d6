package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rupeeriser/budget-buddy/internal/api"
	"github.com/rupeeriser/budget-buddy/internal/assistant"
	"github.com/rupeeriser/budget-buddy/internal/config"
	infraBQ "github.com/rupeeriser/budget-buddy/internal/infra/bigquery"
	"github.com/rupeeriser/budget-buddy/internal/interpreter"
	"github.com/rupeeriser/budget-buddy/internal/jobs"
	"github.com/rupeeriser/budget-buddy/internal/jobs/inmemory"
	"github.com/rupeeriser/budget-buddy/internal/logger"
	"github.com/rupeeriser/budget-buddy/internal/store"
	boltstore "github.com/rupeeriser/budget-buddy/internal/store/bolt"
	memstore "github.com/rupeeriser/budget-buddy/internal/store/inmemory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.LogLevel)
	ctx := context.Background()

	// Initialize store
	recordStore, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("Failed to open store")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := assistant.NewMetrics(registry)

	// Language model and fallback interpreter
	gen, err := assistant.NewGenerator(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.AIProvider).Msg("Failed to create language model client")
	}
	interp := interpreter.New(nil, log)
	parser := assistant.NewParser(gen, interp, metrics, cfg.AITimeout, log)
	advisor := assistant.NewAdvisor(gen, metrics, cfg.AITimeout, log)

	// Export sink
	var sink jobs.TransactionSink
	if cfg.ExportEnabled() {
		exporter, err := infraBQ.NewExporter(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery exporter")
		}
		defer exporter.Close()
		sink = exporter
		log.Info().Str("project", cfg.BigQueryProject).Str("dataset", cfg.BigQueryDataset).Msg("Transaction export enabled")
	} else {
		log.Warn().Msg("No BigQuery project configured - transaction export disabled")
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore, inmemory.WithLogger(log))

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	go func() {
		log.Info().Msg("Starting export worker")
		if err := jobQueue.Start(workerCtx, jobs.NewExportHandler(sink, log)); err != nil {
			log.Error().Err(err).Msg("Export worker stopped with error")
		}
	}()

	handler := api.NewRouter(api.Deps{
		Store:       recordStore,
		Publisher:   jobQueue,
		JobStore:    jobStore,
		Parser:      parser,
		Advisor:     advisor,
		Keywords:    interp.Keywords(),
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		DefaultUser: cfg.DefaultUser,
		Log:         log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("store", cfg.Store).
			Str("ai_provider", cfg.AIProvider).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Wait for in-flight exports before the store goes away.
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	if err := recordStore.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close store")
	}

	log.Info().Msg("Server exited")
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store {
	case config.StoreBolt:
		return boltstore.Open(cfg.BoltPath)
	default:
		return memstore.NewStore(), nil
	}
}
