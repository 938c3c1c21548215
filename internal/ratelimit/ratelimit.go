// Package ratelimit paces translation requests and enforces a per-provider
// request budget for one run.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/awano27/daily-ai-news/internal/logger"
)

// ErrBudgetExhausted is returned by Acquire once a provider has used its budget.
var ErrBudgetExhausted = errors.New("request budget exhausted")

// Limiter is shared by all translation providers of a run.
type Limiter struct {
	mu          sync.Mutex
	pace        *rate.Limiter
	maxPer      int // 0 = unlimited
	used        map[string]int
	denied      map[string]int
	cacheHits   int
	cacheMisses int
}

// New returns a limiter allowing rps requests per second across providers and
// at most maxPerProvider requests per provider. rps <= 0 disables pacing.
func New(rps float64, maxPerProvider int) *Limiter {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Limiter{
		pace:   rate.NewLimiter(limit, 1),
		maxPer: maxPerProvider,
		used:   make(map[string]int),
		denied: make(map[string]int),
	}
}

// Acquire reserves one request for provider, waiting for the pacing limiter.
func (l *Limiter) Acquire(ctx context.Context, provider string) error {
	l.mu.Lock()
	if l.maxPer > 0 && l.used[provider] >= l.maxPer {
		l.denied[provider]++
		first := l.denied[provider] == 1
		l.mu.Unlock()
		if first {
			logger.Warn("translation budget reached", "provider", provider, "limit", l.maxPer)
		}
		return fmt.Errorf("%s: %w (%d)", provider, ErrBudgetExhausted, l.maxPer)
	}
	l.used[provider]++
	l.cacheMisses++
	l.mu.Unlock()

	if err := l.pace.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate wait: %w", provider, err)
	}
	return nil
}

// RecordCacheHit counts a translation served from the store.
func (l *Limiter) RecordCacheHit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cacheHits++
}

// Used is the number of requests reserved by provider so far.
func (l *Limiter) Used(provider string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used[provider]
}

func (l *Limiter) CacheHitRate() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hitRate()
}

func (l *Limiter) hitRate() float64 {
	total := l.cacheHits + l.cacheMisses
	if total == 0 {
		return 0
	}
	return float64(l.cacheHits) / float64(total) * 100
}

func (l *Limiter) Stats() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()

	used := make(map[string]int, len(l.used))
	for k, v := range l.used {
		used[k] = v
	}
	return map[string]any{
		"requests":       used,
		"limit":          l.maxPer,
		"cache_hits":     l.cacheHits,
		"cache_misses":   l.cacheMisses,
		"cache_hit_rate": l.hitRate(),
	}
}

// LogStats writes a one-line usage summary.
func (l *Limiter) LogStats() {
	s := l.Stats()
	logger.Info("translation usage",
		"requests", s["requests"],
		"limit", s["limit"],
		"cache_hits", s["cache_hits"],
		"cache_hit_rate", fmt.Sprintf("%.1f%%", s["cache_hit_rate"]),
	)
}
