package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"deal_diligence/pkg/api"
	"deal_diligence/pkg/api/analysis"
	apiconfig "deal_diligence/pkg/api/config"
	"deal_diligence/pkg/core/app"
	"deal_diligence/pkg/core/config"
	"deal_diligence/pkg/core/jobs"
	"deal_diligence/pkg/core/logger"
	"deal_diligence/pkg/core/pipeline"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("bootstrap failed")
	}
	defer a.Close()

	// Jobs outlive the request that triggered them.
	dispatcher := pipeline.NewDispatcher(ctx, a.Orchestrator)

	if cfg.Sweeper.Enabled {
		sweeper := jobs.NewStaleSweeper(a.Store, dispatcher, jobs.SweepConfig{
			Schedule:   cfg.Sweeper.Schedule,
			StaleAfter: cfg.Sweeper.StaleDuration(),
		})
		if err := sweeper.Start(ctx); err != nil {
			logger.Log.WithError(err).Fatal("failed to start sweeper")
		}
		defer sweeper.Stop()
	}

	r := mux.NewRouter()
	r.Use(api.CORS)
	apiconfig.NewHandler(a.Agents).Register(r)
	analysis.NewHandler(a.Store, dispatcher, a.Orchestrator).Register(r)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Warn("graceful shutdown failed")
		}
	}()

	logger.Log.Infof("API server starting on %s", cfg.Server.Addr)
	logger.Log.Info("  - POST /api/deals/{id}/analyze")
	logger.Log.Info("  - GET  /api/deals/{id}/analysis")
	logger.Log.Info("  - GET  /api/deals/{id}/analysis/{type}")
	logger.Log.Info("  - GET  /api/deals/{id}/results")
	logger.Log.Info("  - GET  /api/config")
	logger.Log.Info("  - POST /api/config/switch")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.WithError(err).Fatal("server failed to start")
	}

	logger.Log.Info("waiting for running analysis jobs")
	dispatcher.Wait()
}
