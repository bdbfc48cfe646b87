package sampler

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachingOrchestrator memoizes GenerateVariants results for a TTL. The
// key covers every sampling-affecting input, and the cache is bypassed
// whenever the request would legitimately mutate the preference store
// (previous_selection set) or expects a fresh seed, so a cached hit can
// never swallow a feedback write.
type CachingOrchestrator struct {
	inner *Orchestrator
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

type cacheEntry struct {
	result    Result
	expiresAt time.Time
}

// NewCachingOrchestrator wraps an orchestrator with TTL memoization.
// A non-positive TTL disables caching entirely.
func NewCachingOrchestrator(inner *Orchestrator, ttl time.Duration) *CachingOrchestrator {
	return &CachingOrchestrator{
		inner:   inner,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Inner exposes the wrapped orchestrator for diagnostics endpoints
func (c *CachingOrchestrator) Inner() *Orchestrator {
	return c.inner
}

// GenerateVariants serves identical requests from cache within the TTL.
// Concurrent identical misses collapse into one backend pass.
func (c *CachingOrchestrator) GenerateVariants(ctx context.Context, req Request) Result {
	req = req.normalized()
	if c.ttl <= 0 || req.PreviousSelection != "" || req.RandomizeSeed {
		return c.inner.GenerateVariants(ctx, req)
	}

	key := requestKey(req)

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && time.Now().Before(entry.expiresAt) {
		c.mu.Unlock()
		return entry.result
	}
	delete(c.entries, key)
	c.mu.Unlock()

	v, _, _ := c.group.Do(key, func() (interface{}, error) {
		result := c.inner.GenerateVariants(ctx, req)
		// Error results are not worth pinning for the full TTL
		if result.Error == "" {
			c.mu.Lock()
			c.entries[key] = cacheEntry{result: result, expiresAt: time.Now().Add(c.ttl)}
			c.sweepLocked()
			c.mu.Unlock()
		}
		return result, nil
	})
	return v.(Result)
}

// sweepLocked drops expired entries; caller holds the mutex
func (c *CachingOrchestrator) sweepLocked() {
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// requestKey digests every input that can influence the output
func requestKey(req Request) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|%v|", req.Model, req.Positive, req.Negative, req.Seed, req.LearningEnabled)
	fmt.Fprintf(h, "%d|%f|%f|%s|%s|", req.Base.Steps, req.Base.CFG, req.Base.Denoise, req.Base.Sampler, req.Base.Scheduler)
	fmt.Fprintf(h, "%f|%f|%f|", req.Priorities[0], req.Priorities[1], req.Priorities[2])
	fmt.Fprintf(h, "%s|%dx%d|", req.PreviousSelection, req.Latent.Width, req.Latent.Height)

	var buf [8]byte
	for _, f := range req.Latent.Data {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
