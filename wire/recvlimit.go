package wire

import (
	"context"
	"sync/atomic"

	"go.uber.org/ratelimit"
	"golang.org/x/time/rate"
)

// RecvLimiter paces inbound message consumption with a token bucket.
// Callers consult it once per decoded message; the framing layer itself
// never refuses frames. The limiter is hot-swappable so a config reload
// can change the rate without touching in-flight connections.
type RecvLimiter struct {
	limiter atomic.Pointer[rate.Limiter]
}

// NewRecvLimiter creates a token bucket allowing limit messages per second
// with the given burst.
func NewRecvLimiter(limit int, burst int) *RecvLimiter {
	l := &RecvLimiter{}
	l.limiter.Store(rate.NewLimiter(rate.Limit(limit), burst))
	return l
}

// Wait blocks until a token is available or ctx is done.
func (l *RecvLimiter) Wait(ctx context.Context) error {
	return l.limiter.Load().Wait(ctx)
}

// Allow reports whether a message may be consumed right now, without
// blocking.
func (l *RecvLimiter) Allow() bool {
	return l.limiter.Load().Allow()
}

// Reload swaps in a new rate at runtime. 接收端限流热更新.
func (l *RecvLimiter) Reload(limit int, burst int) {
	l.limiter.Store(rate.NewLimiter(rate.Limit(limit), burst))
}

// FunnelLimiter paces inbound consumption with a leaky bucket, spacing
// messages evenly instead of admitting bursts. Used where deterministic
// drain pacing matters more than throughput.
type FunnelLimiter struct {
	limiter atomic.Pointer[ratelimit.Limiter]
}

// NewFunnelLimiter creates a leaky bucket allowing limit messages per
// second.
func NewFunnelLimiter(limit int) *FunnelLimiter {
	limiter := ratelimit.New(limit)
	l := &FunnelLimiter{}
	l.limiter.Store(&limiter)
	return l
}

// Take blocks until the next message slot.
func (l *FunnelLimiter) Take() {
	(*l.limiter.Load()).Take()
}

// Reload swaps in a new rate at runtime.
func (l *FunnelLimiter) Reload(limit int) {
	limiter := ratelimit.New(limit)
	l.limiter.Store(&limiter)
}
