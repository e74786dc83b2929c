// Package ratelimit provides per-client request budgets using token buckets.
package ratelimit

import (
	"sync"
	"time"
)

// bucket is a token bucket for one client+endpoint pair. Tokens refill
// continuously at refillRate per second up to capacity.
type bucket struct {
	mu         sync.Mutex
	capacity   float64
	refillRate float64
	tokens     float64
	lastRefill time.Time
	lastUsed   time.Time
}

func newBucket(capacity int, refillRate float64) *bucket {
	now := time.Now()
	return &bucket{
		capacity:   float64(capacity),
		refillRate: refillRate,
		tokens:     float64(capacity), // start full
		lastRefill: now,
		lastUsed:   now,
	}
}

// take refills the bucket, then consumes one token if available. It
// reports whether the request may proceed, the whole tokens left, and
// when the bucket will be full again.
func (b *bucket) take() (ok bool, remaining int, resetAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
	b.lastUsed = now

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		ok = true
	}

	remaining = int(b.tokens)
	if b.tokens < b.capacity {
		deficit := b.capacity - b.tokens
		resetAt = now.Add(time.Duration(deficit / b.refillRate * float64(time.Second)))
	} else {
		resetAt = now
	}
	return ok, remaining, resetAt
}

// nextToken returns how long until one token is available. Zero when a
// token is already there.
func (b *bucket) nextToken() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tokens >= 1.0 {
		return 0
	}
	need := 1.0 - b.tokens
	return time.Duration(need / b.refillRate * float64(time.Second))
}

// Info reports the rate limit state a request was judged against.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Allowlist       map[string]bool
	Denylist        map[string]bool
	Endpoints       []EndpointConfig
}

// Limiter enforces per-client, per-endpoint request budgets.
type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket

	config      *Config
	cleanupTick *time.Ticker
	cleanupStop chan struct{}
}

// NewLimiter creates a rate limiter with the given configuration. A nil
// config enables the limiter with library defaults.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
			Allowlist:       make(map[string]bool),
			Denylist:        make(map[string]bool),
		}
	}

	l := &Limiter{
		buckets: make(map[string]*bucket),
		config:  config,
	}

	if config.Enabled && config.CleanupInterval > 0 {
		l.cleanupTick = time.NewTicker(config.CleanupInterval)
		l.cleanupStop = make(chan struct{})
		go l.cleanupLoop()
	}

	return l
}

// Allow checks whether a request from clientID against path+method fits
// its budget.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Allowlist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Denylist[clientID] {
		return false, Info{Allowed: false}
	}

	ep := MatchEndpoint(path, method, l.config.Endpoints)
	if ep == nil {
		ep = &EndpointConfig{
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
			Burst:  l.config.DefaultLimit,
		}
	}
	if ep.Limit <= 0 {
		// Unlimited endpoint, e.g. health checks.
		return true, Info{Allowed: true}
	}

	key := clientID + ":" + path + ":" + method
	b := l.getBucket(key, ep)

	ok, remaining, resetAt := b.take()
	info := Info{
		Allowed:   ok,
		Limit:     ep.Limit,
		Remaining: remaining,
		ResetTime: resetAt,
	}
	if !ok {
		info.RetryAfter = b.nextToken()
	}
	return ok, info
}

func (l *Limiter) getBucket(key string, ep *EndpointConfig) *bucket {
	l.mu.RLock()
	b, exists := l.buckets[key]
	l.mu.RUnlock()
	if exists {
		return b
	}

	capacity := ep.Burst
	if capacity <= 0 {
		capacity = ep.Limit
	}
	refillRate := float64(ep.Limit) / ep.Window.Seconds()

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, exists := l.buckets[key]; exists {
		return existing
	}
	b = newBucket(capacity, refillRate)
	l.buckets[key] = b
	return b
}

func (l *Limiter) cleanupLoop() {
	for {
		select {
		case <-l.cleanupTick.C:
			l.evictIdle(time.Hour)
		case <-l.cleanupStop:
			return
		}
	}
}

// evictIdle drops buckets not used within maxIdle. An evicted client
// simply starts a fresh (full) bucket on its next request.
func (l *Limiter) evictIdle(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		b.mu.Lock()
		idle := b.lastUsed.Before(cutoff)
		b.mu.Unlock()
		if idle {
			delete(l.buckets, key)
		}
	}
}

// Stop halts the background cleanup goroutine.
func (l *Limiter) Stop() {
	if l.cleanupTick != nil {
		l.cleanupTick.Stop()
	}
	if l.cleanupStop != nil {
		close(l.cleanupStop)
	}
}
