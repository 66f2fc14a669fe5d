// Command seed stores the Apex Cloud Solutions demo deal with all of its
// analyses computed, so the API has data without any model credentials.
package main

import (
	"context"
	"flag"
	"fmt"

	"deal_diligence/pkg/core/app"
	"deal_diligence/pkg/core/config"
	"deal_diligence/pkg/core/logger"
	"deal_diligence/pkg/core/store"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("invalid configuration")
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		logger.Log.WithError(err).Fatal("failed to init logger")
	}

	ctx := context.Background()
	repo, err := store.New(ctx, cfg.Database.Driver, app.DSN(cfg.Database))
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to open store")
	}
	defer repo.Close()

	id, err := app.SeedDemo(ctx, repo)
	if err != nil {
		logger.Log.WithError(err).Fatal("seeding failed")
	}
	fmt.Printf("Seeded demo deal %d (%s store)\n", id, cfg.Database.Driver)
}
