package redis

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"character-quiz-bot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions live in a local map; they are deliberately not written to Redis
//     and do not survive a restart.
//   - Redis holds a liveness key per user with a TTL that is refreshed on every
//     save. A session whose key has expired is treated as gone, so idle expiry
//     is shared across replicas that route the same user.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*domain.Session),
	}
}

// Save refreshes the liveness key and only then replaces the local copy, so a
// failed write leaves the previous state in place.
func (s *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.client.Set(ctx, s.key(session.UserID), session.UpdatedAt.Unix(), s.ttl).Err(); err != nil {
		return fmt.Errorf("refresh session %s: %w", session.UserID, err)
	}
	s.sessions[session.UserID] = session.Clone()
	return nil
}

func (s *SessionStore) Get(ctx context.Context, userID string) (*domain.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	alive, err := s.client.Exists(ctx, s.key(userID)).Result()
	if err != nil {
		// best-effort: keep serving the local copy while Redis is unreachable
		log.Printf("session liveness check for %s: %v", userID, err)
		return session.Clone(), nil
	}
	if alive == 0 {
		s.mu.Lock()
		delete(s.sessions, userID)
		s.mu.Unlock()
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// EvictIdle drops sessions idle since before idleSince or whose liveness key expired.
func (s *SessionStore) EvictIdle(ctx context.Context, idleSince time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []string
	for userID, session := range s.sessions {
		if session.UpdatedAt.Before(idleSince) {
			stale = append(stale, userID)
			continue
		}
		alive, err := s.client.Exists(ctx, s.key(userID)).Result()
		if err != nil {
			return 0, err
		}
		if alive == 0 {
			stale = append(stale, userID)
		}
	}

	keys := make([]string, 0, len(stale))
	for _, userID := range stale {
		delete(s.sessions, userID)
		keys = append(keys, s.key(userID))
	}
	if len(keys) > 0 {
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return len(stale), err
		}
	}
	return len(stale), nil
}

func (s *SessionStore) key(userID string) string {
	return "quiz:session:" + userID
}
