package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"regdesk/internal/common/camunda"
	checkregistration "regdesk/internal/workers/registration/check-registration"
	submitregistration "regdesk/internal/workers/registration/submit-registration"
)

type jobWorker interface {
	Register(zlog *zap.Logger) error
	Close()
	GetTaskType() string
}

// runWorkers serves the registration job workers until ctx is cancelled.
func runWorkers(ctx context.Context, a *app) error {
	gw, err := a.workerGateway(ctx)
	if err != nil {
		return err
	}
	notifier, err := a.notifications(ctx)
	if err != nil {
		return err
	}

	var cc *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		cc, err = camunda.NewClientWithConfig(camunda.ConfigFrom(a.cfg.Camunda))
		return err
	}, 10, 2*time.Second, a.zapLog, "Zeebe client initialization")
	if err != nil {
		return err
	}
	defer cc.Close()
	a.zapLog.Info("Zeebe client connected successfully")

	submit, err := submitregistration.NewHandler(submitregistration.HandlerOptions{
		AppConfig: a.cfg,
		Camunda:   cc,
		Logger:    a.log,
		Gateway:   gw,
		Catalog:   a.catalog,
		Notifier:  notifier,
		Recorder:  a.recorder(),
	})
	if err != nil {
		return err
	}
	check, err := checkregistration.NewHandler(checkregistration.HandlerOptions{
		AppConfig: a.cfg,
		Camunda:   cc,
		Logger:    a.log,
		Gateway:   gw,
		Recorder:  a.recorder(),
	})
	if err != nil {
		return err
	}

	handlers := []jobWorker{submit, check}
	for _, h := range handlers {
		if err := h.Register(a.zapLog); err != nil {
			return err
		}
	}
	defer func() {
		for _, h := range handlers {
			h.Close()
		}
	}()

	srv := healthServer(a, cc)
	go func() {
		a.zapLog.Info("Health/Metrics server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	a.zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.zapLog.Warn("Health/Metrics server shutdown", zap.Error(err))
	}
	return nil
}

func healthServer(a *app, cc *camunda.Client) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := cc.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "zeebe unavailable")
			return
		}
		if a.redis != nil {
			if err := a.redis.Ping(r.Context()); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, "session store unavailable")
				return
			}
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              a.cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
