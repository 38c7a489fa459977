package app

import (
	"context"
	"log"
	"time"
)

// Reaper periodically evicts sessions that have been idle longer than ttl.
type Reaper struct {
	sessions SessionRepository
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *log.Logger
}

func NewReaper(sessions SessionRepository, ttl, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{
		sessions: sessions,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		logger:   log.Default(),
	}
}

// Sweep runs one eviction pass and returns how many sessions were dropped.
func (r *Reaper) Sweep(ctx context.Context) int {
	if r.ttl <= 0 {
		return 0
	}
	n, err := r.sessions.EvictIdle(ctx, r.now().Add(-r.ttl))
	if err != nil {
		r.logger.Printf("session reaper: %v", err)
		return n
	}
	if n > 0 {
		r.logger.Printf("session reaper: evicted %d idle sessions", n)
	}
	return n
}

// Run sweeps on every tick until ctx is done. It returns immediately when ttl is disabled.
func (r *Reaper) Run(ctx context.Context) error {
	if r.ttl <= 0 {
		return nil
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}
