// Package ratelimit paces outgoing tile requests with a fixed inter-request
// delay and detects rate limit responses from the tile server. Failed tiles
// are never retried; a detected limit is recorded and surfaced so the operator
// can see why tiles went blank.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateLimitEvent records a rate limit occurrence for a provider
type RateLimitEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	Provider   string    `json:"provider"`
	StatusCode int       `json:"statusCode"` // HTTP status code (403, 429, 509)
}

// Limiter enforces a fixed delay between requests and tracks rate limit state
type Limiter struct {
	delay  time.Duration
	mu     sync.Mutex
	last   time.Time
	events map[string]*RateLimitEvent // provider -> last rate limit event
	logger *zap.Logger
}

// NewLimiter creates a limiter with the given inter-request delay
func NewLimiter(delay time.Duration, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{
		delay:  delay,
		events: make(map[string]*RateLimitEvent),
		logger: logger,
	}
}

// Wait blocks until the configured delay since the previous request has
// elapsed, or until the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	next := l.last.Add(l.delay)
	if next.Before(now) {
		next = now
	}
	l.last = next
	l.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CheckResponse analyzes an HTTP status code for rate limit indicators and
// records the event. Returns true if the provider is being rate limited.
func (l *Limiter) CheckResponse(providerName string, statusCode int) bool {
	isRateLimited := statusCode == 429 || // Too Many Requests
		statusCode == 403 || // Forbidden (some servers use this for rate limits)
		statusCode == 509 // Bandwidth Limit Exceeded

	l.mu.Lock()
	defer l.mu.Unlock()

	if !isRateLimited {
		if _, existed := l.events[providerName]; existed {
			delete(l.events, providerName)
			l.logger.Info("rate limit cleared", zap.String("provider", providerName))
		}
		return false
	}

	event := &RateLimitEvent{
		Timestamp:  time.Now(),
		Provider:   providerName,
		StatusCode: statusCode,
	}
	if _, existed := l.events[providerName]; !existed {
		l.logger.Warn("rate limit detected, tiles will be skipped",
			zap.String("provider", providerName),
			zap.Int("status", statusCode))
	}
	l.events[providerName] = event
	return true
}

// IsRateLimited reports whether a provider has hit a rate limit this run
func (l *Limiter) IsRateLimited(providerName string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, limited := l.events[providerName]
	return limited
}

// CurrentState returns a copy of the last rate limit event for a provider, if any
func (l *Limiter) CurrentState(providerName string) *RateLimitEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	if event, exists := l.events[providerName]; exists {
		eventCopy := *event
		return &eventCopy
	}
	return nil
}
