package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"telegram-storefront/internal/config"
	"telegram-storefront/internal/domain/ports/adapter"
	"telegram-storefront/internal/domain/ports/repository"
	"telegram-storefront/internal/infra/adapters/commerce"
	pg "telegram-storefront/internal/infra/db/postgres"
	red "telegram-storefront/internal/infra/redis"
	"telegram-storefront/internal/infra/worker"
)

// infra holds the process-wide connections. Close releases whatever was opened.
type infra struct {
	redis  *red.Client
	pgPool *pgxpool.Pool

	states repository.StateRepository
	locker repository.Locker
	tokens  *commerce.TokenCache
	catalog *commerce.CachedCatalog
	shop    adapter.Commerce
}

func (i *infra) Close() {
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.pgPool != nil {
		i.pgPool.Close()
	}
}

func buildInfra(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*infra, error) {
	in := &infra{}

	if cfg.Redis.URL != "" {
		in.redis = red.NewClient(ctx, &cfg.Redis, logger)
	}

	switch cfg.State.Backend {
	case "postgres":
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			in.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		in.pgPool = pool
		repo := pg.NewStateRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			// Same policy as the redis probe: keep running, events fail until the DB is back.
			logger.Warn().Err(err).Msg("postgres schema check failed; continuing")
		}
		in.states = repo
	default:
		in.states = red.NewStateRepo(in.redis, cfg.State.KeyPrefix, cfg.State.TTL)
	}

	switch cfg.State.Lock {
	case "redis":
		in.locker = red.NewLocker(in.redis, cfg.State.KeyPrefix)
	default:
		in.locker = worker.NewKeyedMutex()
	}

	httpClient := &http.Client{Timeout: cfg.Commerce.Timeout}
	in.tokens = commerce.NewTokenCache(
		commerce.NewClientCredentials(cfg.Commerce.BaseURL, cfg.Commerce.ClientID, cfg.Commerce.ClientSecret, httpClient),
		cfg.Commerce.TokenLeeway,
	)
	client := commerce.NewClient(cfg.Commerce.BaseURL, httpClient, in.tokens, logger)
	in.catalog = commerce.NewCachedCatalog(client, cfg.Cache.CatalogTTL, cfg.Cache.ImageTTL)
	in.shop = in.catalog
	return in, nil
}
