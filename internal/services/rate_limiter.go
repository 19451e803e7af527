package services

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter spaces outbound API calls at a fixed requests-per-minute rate.
// Callers are admitted one at a time; a caller holding the slot sleeps out
// the remainder of the interval since the previous request.
type RateLimiter struct {
	slot chan struct{}

	mu                sync.Mutex
	requestsPerMinute int
	lastRequestTime   time.Time
}

func NewRateLimiter(requestsPerMinute int) (*RateLimiter, error) {
	if requestsPerMinute <= 0 {
		return nil, fmt.Errorf("requests per minute must be positive, got %d", requestsPerMinute)
	}
	return &RateLimiter{
		slot:              make(chan struct{}, 1),
		requestsPerMinute: requestsPerMinute,
	}, nil
}

// Wait blocks until the caller may issue one request or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	select {
	case r.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-r.slot }()

	r.mu.Lock()
	delay := time.Minute / time.Duration(r.requestsPerMinute)
	last := r.lastRequestTime
	r.mu.Unlock()

	if !last.IsZero() {
		if remaining := delay - time.Since(last); remaining > 0 {
			timer := time.NewTimer(remaining)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}

	r.mu.Lock()
	r.lastRequestTime = time.Now()
	r.mu.Unlock()
	return nil
}

// UpdateRequestsPerMinute changes the rate for subsequent waits.
func (r *RateLimiter) UpdateRequestsPerMinute(n int) error {
	if n <= 0 {
		return fmt.Errorf("requests per minute must be positive, got %d", n)
	}
	r.mu.Lock()
	r.requestsPerMinute = n
	r.mu.Unlock()
	return nil
}

func (r *RateLimiter) RequestsPerMinute() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requestsPerMinute
}
