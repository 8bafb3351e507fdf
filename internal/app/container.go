package app

import (
	"context"
	"time"

	"skill-connect/internal/config"
	"skill-connect/internal/database"
	dbpostgres "skill-connect/internal/database/postgres"
	"skill-connect/internal/domain/skill"
	"skill-connect/internal/infrastructure/cache"
	"skill-connect/internal/repository"
	"skill-connect/internal/usecase"

	"go.uber.org/zap"
)

type Container struct {
	Config   config.Config
	Log      *zap.Logger
	DB       database.DB
	Cache    *cache.Redis
	Taxonomy *skill.Taxonomy
	Engine   *usecase.Engine
}

func NewContainer(cfg config.Config, log *zap.Logger) (*Container, error) {
	taxonomy, err := skill.NewTaxonomy()
	if err != nil {
		return nil, err
	}

	opts := make([]usecase.EngineOption, 0, 2)

	var db database.DB
	if cfg.Database.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err = dbpostgres.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		opts = append(opts, usecase.WithSnapshots(repository.NewPostgresSnapshotRepository(db)))
	}

	redisCache := cache.NewRedis(cfg.Redis, log)
	opts = append(opts, usecase.WithCache(redisCache))

	engine := usecase.NewEngine(cfg.Matching, taxonomy, log, opts...)

	return &Container{
		Config:   cfg,
		Log:      log,
		DB:       db,
		Cache:    redisCache,
		Taxonomy: taxonomy,
		Engine:   engine,
	}, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
