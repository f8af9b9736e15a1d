package main

import (
	"context"
	"fmt"
	"time"

	"icomag/internal/blob"
	"icomag/internal/config"
	"icomag/internal/database"
	"icomag/internal/logger"
	"icomag/internal/router"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}

	log := logger.New(cfg.Log.Level)

	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("init database")
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	// attachment storage is optional; without a bucket the attachment
	// routes are simply not mounted
	var store *blob.Store
	if cfg.Storage.Bucket != "" {
		store, err = blob.NewStore(
			context.Background(), db, log,
			cfg.Storage.Bucket,
			time.Duration(cfg.Storage.URLExpiryMins)*time.Minute,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("init attachment store")
		}
		defer store.Close()
	}

	r := router.SetupRouter(cfg, db, log, store)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("icomag listening")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
