// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"availability-notifier/internal/common/camunda"
	"availability-notifier/internal/common/config"
	"availability-notifier/internal/common/logger"
	"availability-notifier/internal/common/observability"
	"availability-notifier/internal/notify"

	cs "availability-notifier/internal/workers/availability/create-subscription"
	ns "availability-notifier/internal/workers/availability/notify-subscribers"
)

const storeQueryConcurrency = 8

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting availability notifier",
		zap.String("environment", cfg.App.Environment),
		zap.String("store", cfg.Store.Backend),
		zap.String("source", cfg.Source.Backend),
		zap.String("channel", cfg.Messaging.Channel),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	if cfg.Tracing.Enabled {
		tracing, err := observability.NewTracing(cfg.App.Name, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			zapLog.Fatal("tracing init failed", zap.Error(err))
		}
		defer tracing.Shutdown()
	}

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Backends ---
	deps, err := buildDependencies(ctx, cfg, zapLog, log)
	if err != nil {
		zapLog.Fatal("dependency init failed", zap.Error(err))
	}
	defer deps.Close()

	templates, err := loadTemplates(cfg)
	if err != nil {
		zapLog.Fatal("template registry load failed", zap.Error(err))
	}

	controller := notify.NewController(notify.ControllerOptions{
		Source:     deps.source,
		Aggregator: notify.NewAggregator(deps.store, templates, log, storeQueryConcurrency),
		Dispatcher: notify.NewDispatcher(deps.sender, templates, log,
			notify.WithRateLimit(cfg.Messaging.RatePerSecond),
			notify.WithMaxConcurrency(cfg.Messaging.MaxConcurrency),
		),
		Retirer:       notify.NewRetirer(deps.store, log),
		Reporter:      deps.reporter,
		Observability: obs,
		Logger:        log,
		NewRunID:      uuid.NewString,
	})

	// --- Workers ---
	var workers []worker.JobWorker

	notifyHandler, err := ns.NewHandler(ns.HandlerOptions{
		AppConfig: cfg,
		Runner:    controller,
		Logger:    log,
	})
	if err != nil {
		zapLog.Fatal("failed to create notify-subscribers handler", zap.Error(err))
	}
	if jw := camunda.StartWorker(zeebe.GetClient(), ns.TaskType, config.GetWorkerConfig(cfg, ns.TaskType), notifyHandler.Handle, zapLog); jw != nil {
		workers = append(workers, jw)
	}

	subscribeHandler, err := cs.NewHandler(cs.HandlerOptions{
		AppConfig: cfg,
		Store:     deps.store,
		Logger:    log,
	})
	if err != nil {
		zapLog.Fatal("failed to create create-subscription handler", zap.Error(err))
	}
	if jw := camunda.StartWorker(zeebe.GetClient(), cs.TaskType, config.GetWorkerConfig(cfg, cs.TaskType), subscribeHandler.Handle, zapLog); jw != nil {
		workers = append(workers, jw)
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: cfg.Server.Address, Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, jw := range workers {
		jw.Close()
		jw.AwaitClose()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Availability notifier stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
