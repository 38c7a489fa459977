package redis

import (
	"context"
	"math/rand"
	"time"

	"character-quiz-bot/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// RawContentLoader fetches unparsed content documents from a backing store (e.g., Postgres).
type RawContentLoader interface {
	LoadRaw(ctx context.Context) (domain.RawContent, error)
}

// ContentCache caches the raw content documents in Redis and falls back to a
// loader on cache miss, so several bot replicas share one database read.
// Documents are stored as plain strings:
//
//	SET quiz:content:questions <json>
//	SET quiz:content:outcomes  <json>
type ContentCache struct {
	client *redis.Client
	loader RawContentLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewContentCache(client *redis.Client, loader RawContentLoader, ttl time.Duration) *ContentCache {
	return &ContentCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ContentCache) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	raw, err := c.LoadRaw(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ParseQuestions(raw.Questions)
}

func (c *ContentCache) LoadOutcomes(ctx context.Context) (*domain.Catalog, error) {
	raw, err := c.LoadRaw(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ParseOutcomes(raw.Outcomes)
}

// LoadRaw returns the cached documents, loading and caching them on a miss.
func (c *ContentCache) LoadRaw(ctx context.Context) (domain.RawContent, error) {
	if raw, ok := c.cached(ctx); ok {
		return raw, nil
	}

	result, err, _ := c.sf.Do("content", func() (interface{}, error) {
		// Re-check cache in case another replica filled it.
		if raw, ok := c.cached(ctx); ok {
			return raw, nil
		}

		raw, err := c.loader.LoadRaw(ctx)
		if err != nil {
			return domain.RawContent{}, err
		}

		ttl := c.ttlWithJitter()
		pipe := c.client.Pipeline()
		pipe.Set(ctx, questionsKey, string(raw.Questions), ttl)
		pipe.Set(ctx, outcomesKey, string(raw.Outcomes), ttl)
		_, _ = pipe.Exec(ctx)

		return raw, nil
	})
	if err != nil {
		return domain.RawContent{}, err
	}
	return result.(domain.RawContent), nil
}

const (
	questionsKey = "quiz:content:questions"
	outcomesKey  = "quiz:content:outcomes"
)

func (c *ContentCache) cached(ctx context.Context) (domain.RawContent, bool) {
	vals, err := c.client.MGet(ctx, questionsKey, outcomesKey).Result()
	if err != nil || len(vals) != 2 {
		return domain.RawContent{}, false
	}
	questions, ok1 := vals[0].(string)
	outcomes, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return domain.RawContent{}, false
	}
	return domain.RawContent{Questions: []byte(questions), Outcomes: []byte(outcomes)}, true
}

func (c *ContentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
