package main

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/talentflow/internal/adapters/blob"
	"github.com/okian/talentflow/internal/adapters/cache"
	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/adapters/resume"
	"github.com/okian/talentflow/internal/adapters/sheets"
	service "github.com/okian/talentflow/internal/app"
	"github.com/okian/talentflow/internal/auth"
	"github.com/okian/talentflow/internal/config"
	"github.com/okian/talentflow/pkg/logger"
)

const pgMaxConnLifetime = 30 * time.Minute

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, cfgKey{}, cfg)
}

func configFrom(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(cfgKey{}).(*config.Config); ok {
		return cfg
	}
	return config.New()
}

// deps holds the wired collaborators shared by every subcommand.
type deps struct {
	cfg   *config.Config
	store *repository.Store
	cache *cache.Cache
	maker *auth.Maker
	svc   *service.Service
}

func (d *deps) Close() error {
	if d.store == nil {
		return nil
	}
	return d.store.Close()
}

func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		return repository.OpenSQLite(ctx, cfg.SQLitePath)
	case config.StorePostgres:
		return repository.OpenPostgres(ctx, cfg.DatabaseURL,
			repository.WithMaxConns(cfg.DBMaxConns),
			repository.WithMaxConnLifetime(pgMaxConnLifetime),
		)
	default:
		return repository.NewMemoryStore(), nil
	}
}

func openCache(ctx context.Context, cfg *config.Config, log logger.Logger) (*cache.Cache, error) {
	if cfg.CacheBackend != config.CacheRedis {
		return cache.New(cache.NewMemoryBackend(), cache.WithLogger(log)), nil
	}
	client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := cache.Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
	}
	return cache.New(cache.NewRedisBackend(client, cache.WithTagTTL(cfg.CacheListTTL*2)), cache.WithLogger(log)), nil
}

// wire builds the store, cache, token maker and service from configuration.
func wire(ctx context.Context, cfg *config.Config) (*deps, error) {
	log := logger.Get()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}
	d := &deps{cfg: cfg, store: store}

	if d.cache, err = openCache(ctx, cfg, log.Named("cache")); err != nil {
		_ = d.Close()
		return nil, err
	}
	if d.maker, err = auth.NewMaker(cfg.JWTSecret); err != nil {
		_ = d.Close()
		return nil, err
	}
	blobs, err := blob.NewStore(cfg.BlobDir)
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("failed to open blob dir: %w", err)
	}

	d.svc = service.New(store, d.cache,
		service.WithLogger(log.Named("service")),
		service.WithCacheTTLs(cfg.CacheListTTL, cfg.CacheDetailTTL),
		service.WithRequestTimeout(cfg.RequestTimeout),
		service.WithSyncer(sheets.New(cfg.SyncURL,
			sheets.WithTimeout(cfg.SyncTimeout),
			sheets.WithLogger(log.Named("sheets")),
		)),
		service.WithBlobStore(blobs),
		service.WithResumeParser(resume.NewParser(resume.WithLogger(log.Named("resume")))),
		service.WithWorkerCount(cfg.SyncWorkers),
		service.WithQueueSize(cfg.SyncQueueSize),
		service.WithDedupeSize(cfg.SyncDedupe),
	)
	return d, nil
}
