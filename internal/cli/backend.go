package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"quizhub-service/internal/app"
	"quizhub-service/internal/config"
	"quizhub-service/internal/infra/memory"
	"quizhub-service/internal/infra/postgres"
	"quizhub-service/internal/infra/redis"
	"quizhub-service/internal/infra/sqlite"
	"quizhub-service/internal/logger"
)

// backend is the set of storage adapters selected by config.
type backend struct {
	store    app.Store
	cache    app.QuizCache
	sessions app.SessionRepository
	closers  []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend picks Postgres, then SQLite, then memory for the durable store,
// and Redis for sessions and the quiz cache when an address is configured.
func openBackend(ctx context.Context, cfg config.Config, log *logger.Logger) (*backend, error) {
	b := &backend{}
	var loader memory.QuizLoader

	switch {
	case cfg.Postgres.URL != "":
		store := postgres.Open(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = store.Close() })
		if err := migrateDB(ctx, store.DB(), log); err != nil {
			b.Close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect pgx pool: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		b.store = store
		loader = postgres.NewQuizLoader(pool)
		log.Info("using postgres store")
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(cfg.SQLite.Path, log)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = store.Close() })
		b.store = store
		loader = store
	default:
		store := memory.NewStore()
		b.store = store
		loader = store
		log.Info("using in-memory store")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			b.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.cache = redis.NewQuizCache(client, loader, quizTTL)
		b.sessions = redis.NewSessionStore(client, config.TTLDuration(cfg.Redis.TTL, 24*time.Hour))
		log.Info("using redis sessions and quiz cache", "addr", cfg.Redis.Addr)
	} else {
		b.cache = memory.NewQuizCache(loader, quizTTL)
		b.sessions = memory.NewSessionStore()
	}
	return b, nil
}
