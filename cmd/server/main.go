package main

import (
	"context"

	"gorm.io/gorm"

	"github.com/nasulife/nasutomo/internal/app"
	"github.com/nasulife/nasutomo/internal/cache"
	"github.com/nasulife/nasutomo/internal/config"
	"github.com/nasulife/nasutomo/internal/db"
	svcErr "github.com/nasulife/nasutomo/internal/errors"
	"github.com/nasulife/nasutomo/internal/logger"
	"github.com/nasulife/nasutomo/internal/retry"
	"github.com/nasulife/nasutomo/internal/server"
	"github.com/nasulife/nasutomo/internal/service/chat"
	"github.com/nasulife/nasutomo/internal/service/matches"
	"github.com/nasulife/nasutomo/internal/ws"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// A configuration error is fatal and not retryable.
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		return
	}

	ctx := context.Background()

	// Init DB with bounded backoff; the dependency may still be coming
	// up alongside us.
	var gormDB *gorm.DB
	if err := retry.Do(ctx, retry.DefaultAttempts, retry.DefaultBase, func() error {
		var err error
		gormDB, err = db.NewDB(cfg)
		return err
	}); err != nil {
		log.Error("failed to init db", "diagnostic", svcErr.Classify(err), "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := retry.Do(ctx, retry.DefaultAttempts, retry.DefaultBase, func() error {
		return redisCache.Ping(ctx)
	}); err != nil {
		log.Error("failed to connect to redis", "diagnostic", svcErr.Classify(err), "err", err)
		return
	}

	hub := ws.NewHub(redisCache, log)

	appCtx := app.New(gormDB, redisCache, hub, log)

	registrars := []server.Registrar{
		matches.NewRegistrar(appCtx),
		chat.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(gormDB); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting API server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start API server", "err", err)
	}
}
