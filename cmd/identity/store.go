package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/identity-service/internal/api/handler"
	"github.com/99minutos/identity-service/internal/core/ports"
	"github.com/99minutos/identity-service/internal/infrastructure/config"
	"github.com/99minutos/identity-service/internal/infrastructure/db/memory"
	mongostore "github.com/99minutos/identity-service/internal/infrastructure/db/mongo"
	"github.com/99minutos/identity-service/internal/infrastructure/db/postgres"
	redisstore "github.com/99minutos/identity-service/internal/infrastructure/db/redis"
)

// storage is the wired persistence layer for one process.
type storage struct {
	users   ports.UserRepository
	limiter ports.RateLimiter
	checks  map[string]handler.CheckFunc
	closers []func()
}

func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStorage connects the configured user store and rate limiter backend.
// When migrate is set, pending PostgreSQL migrations run before the pool is
// used.
func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger, migrate bool) (*storage, error) {
	st := &storage{checks: map[string]handler.CheckFunc{}}

	switch cfg.StorageDriver {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory user store; data is lost on restart")
		st.users = memory.NewUserRepository()

	case config.DriverMongo:
		client, db, err := connectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = client.Disconnect(context.Background()) })

		repo := mongostore.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			st.Close()
			return nil, err
		}
		st.users = repo
		st.checks["mongodb"] = handler.MongoCheck(db)
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	case config.DriverPostgres:
		if migrate {
			if err := migratePostgres(cfg, "up", log); err != nil {
				return nil, err
			}
		}
		pool, err := connectPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, pool.Close)
		st.users = postgres.NewUserRepository(pool)
		st.checks["postgres"] = pool.Ping
		log.Info().Msg("connected to PostgreSQL")

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	if cfg.Redis.Addr == "" {
		st.limiter = memory.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		return st, nil
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Attempts: cfg.ConnectAttempts,
	})
	if err != nil {
		st.Close()
		return nil, err
	}
	st.closers = append(st.closers, func() { _ = rdb.Close() })
	st.limiter = redisstore.NewRateLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	st.checks["redis"] = handler.RedisCheck(rdb)
	log.Info().Str("addr", cfg.Redis.Addr).Msg("rate limiter backed by Redis")

	return st, nil
}

func connectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	return mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Attempts: cfg.ConnectAttempts,
	})
}

func connectPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return postgres.Connect(ctx, postgres.Config{
		URL:      cfg.Postgres.URL,
		MaxConns: cfg.Postgres.MaxConns,
		Attempts: cfg.ConnectAttempts,
	})
}
