package limiter

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// HostRateLimiter throttles outbound API calls per remote host.
type HostRateLimiter struct {
	hosts map[string]*rate.Limiter
	mu    *sync.Mutex
	limit rate.Limit
	burst int
}

// NewHostRateLimiter new host rate limiter
func NewHostRateLimiter(r rate.Limit, b int) *HostRateLimiter {
	return &HostRateLimiter{
		hosts: make(map[string]*rate.Limiter),
		mu:    &sync.Mutex{},
		limit: r,
		burst: b,
	}
}

// GetLimiter get limiter
func (r *HostRateLimiter) GetLimiter(host string) *rate.Limiter {
	r.mu.Lock()

	limiter, exists := r.hosts[host]
	if !exists {
		r.mu.Unlock()
		return r.addHost(host)
	}
	r.mu.Unlock()

	return limiter
}

// Wait block until a request to host is allowed
func (r *HostRateLimiter) Wait(ctx context.Context, host string) error {
	return r.GetLimiter(host).Wait(ctx)
}

// addHost add host
func (r *HostRateLimiter) addHost(host string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter := rate.NewLimiter(r.limit, r.burst)
	r.hosts[host] = limiter

	return limiter
}
