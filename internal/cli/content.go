package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"character-quiz-bot/internal/app"
	"character-quiz-bot/internal/config"
	"character-quiz-bot/internal/domain"
	"character-quiz-bot/internal/infra/file"
	"character-quiz-bot/internal/infra/memory"
	"character-quiz-bot/internal/infra/postgres"
	redisinfra "character-quiz-bot/internal/infra/redis"
	"character-quiz-bot/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// rawContentLoader is a content source that can also hand out the unparsed
// documents, which lets the Redis cache sit in front of it.
type rawContentLoader interface {
	app.ContentLoader
	LoadRaw(ctx context.Context) (domain.RawContent, error)
}

// openContentSource returns the loader the bot reads content through, cached in
// Redis when a client is given. A source that cannot be opened does not stop
// startup: the returned loader fails with ErrContentMissing so the bot runs in
// degraded mode.
func openContentSource(ctx context.Context, cfg config.Config, redisClient *redis.Client, logger *log.Logger) (app.ContentLoader, func()) {
	loader, closeLoader, err := openContentLoader(ctx, cfg)
	if err != nil {
		logger.Printf("content source %s unavailable: %v", cfg.Content.Source, err)
		return memory.NewFailingContentLoader(fmt.Errorf("%w: %v", domain.ErrContentMissing, err)), func() {}
	}
	if redisClient != nil {
		ttl := config.TTLDuration(cfg.Content.CacheTTL, 10*time.Minute)
		return redisinfra.NewContentCache(redisClient, loader, ttl), closeLoader
	}
	return loader, closeLoader
}

// openContentLoader returns the loader for cfg.Content.Source and a func that
// releases its resources.
func openContentLoader(ctx context.Context, cfg config.Config) (rawContentLoader, func(), error) {
	switch cfg.Content.Source {
	case config.SourcePostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewContentLoader(pool), pool.Close, nil
	case config.SourceSQLite:
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case config.SourceFile:
		return file.NewContentLoader(cfg.Content.QuestionsPath, cfg.Content.OutcomesPath), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown content source %q", cfg.Content.Source)
	}
}
