// Command pipeline runs the analysis for a batch of deals and exits.
//
//	pipeline -config config/config.yaml 12 15 16
//	pipeline -stale 30m
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"deal_diligence/pkg/core/app"
	"deal_diligence/pkg/core/config"
	"deal_diligence/pkg/core/logger"
	"deal_diligence/pkg/models"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	workers := flag.Int("workers", 0, "concurrent deals (default from config)")
	stale := flag.Duration("stale", 0, "also run deals stuck in analyzing for longer than this")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("invalid configuration")
	}
	if *workers <= 0 {
		*workers = cfg.Pipeline.Workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("bootstrap failed")
	}
	defer a.Close()

	ids, err := dealIDs(flag.Args())
	if err != nil {
		logger.Log.WithError(err).Fatal("invalid deal id")
	}
	if *stale > 0 {
		more, err := staleDeals(ctx, a, *stale)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to list stale deals")
		}
		ids = append(ids, more...)
	}
	if len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "usage: pipeline [-config path] [-workers n] [-stale dur] <deal-id>...")
		os.Exit(2)
	}

	start := time.Now()
	var (
		mu       sync.Mutex
		failures = map[int64]error{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*workers)
	for _, id := range ids {
		g.Go(func() error {
			if err := a.Orchestrator.Run(gctx, id); err != nil {
				mu.Lock()
				failures[id] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	fmt.Printf("Processed %d deals in %s, %d failed\n", len(ids), time.Since(start).Round(time.Millisecond), len(failures))
	for id, err := range failures {
		fmt.Printf("  deal %d: %v\n", id, err)
	}
	if len(failures) > 0 {
		os.Exit(1)
	}
}

func dealIDs(args []string) ([]int64, error) {
	out := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", a, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func staleDeals(ctx context.Context, a *app.App, after time.Duration) ([]int64, error) {
	sess, err := a.Store.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()
	return sess.FindStaleDeals(ctx, models.DealAnalyzing, time.Now().Add(-after))
}
