package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"character-quiz-bot/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestContentCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{raw: sampleContent()}
	cache := NewContentCache(newClient(mr), loader, time.Minute)

	questions, err := cache.LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load questions: %v", err)
	}
	if len(questions) != 1 || questions[0].Prompt != "Любимый цвет?" {
		t.Fatalf("unexpected questions %+v", questions)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:content:questions") || !mr.Exists("quiz:content:outcomes") {
		t.Fatalf("expected content keys to be set")
	}

	// Second call should hit cache, loader not incremented.
	catalog, err := cache.LoadOutcomes(context.Background())
	if err != nil {
		t.Fatalf("load outcomes: %v", err)
	}
	if got := catalog.Names(); len(got) != 2 || got[0] != "Б" || got[1] != "А" {
		t.Fatalf("expected cached catalog order preserved, got %v", got)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestContentCacheReloadsAfterExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{raw: sampleContent()}
	cache := NewContentCache(newClient(mr), loader, time.Minute)

	if _, err := cache.LoadRaw(context.Background()); err != nil {
		t.Fatalf("load raw: %v", err)
	}
	ttl := mr.TTL("quiz:content:questions")
	if ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected ttl with jitter, got %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := cache.LoadRaw(context.Background()); err != nil {
		t.Fatalf("load raw: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls=%d", loader.calls)
	}
}

func TestContentCachePropagatesLoaderError(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{err: domain.ErrContentMissing}
	cache := NewContentCache(newClient(mr), loader, time.Minute)

	if _, err := cache.LoadQuestions(context.Background()); !errors.Is(err, domain.ErrContentMissing) {
		t.Fatalf("expected content missing, got %v", err)
	}
	if mr.Exists("quiz:content:questions") {
		t.Fatalf("failed load must not be cached")
	}
}

type countingLoader struct {
	mu    sync.Mutex
	raw   domain.RawContent
	err   error
	calls int
}

func (l *countingLoader) LoadRaw(context.Context) (domain.RawContent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.raw, l.err
}

func sampleContent() domain.RawContent {
	return domain.RawContent{
		Questions: []byte(`[{"question":"Любимый цвет?","options":[{"text":"Красный","scores":{"А":1}},{"text":"Синий","scores":{"Б":1}}]}]`),
		Outcomes:  []byte(`{"Б":{"name":"Б","description":"второй"},"А":{"name":"А","description":"первый"}}`),
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
