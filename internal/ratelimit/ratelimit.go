package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter gates outbound requests.
type Limiter interface {
	// Wait blocks until the caller may proceed or ctx is done
	Wait(ctx context.Context) error
}

// Window enforces a fixed ceiling of grants per one-second window. Calls
// inside the ceiling return immediately; calls over it block until the
// window elapses and are counted against the fresh window. A limit of
// zero degenerates to one full-window wait per call.
type Window struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	count  int
	start  time.Time
}

// NewWindow creates a limiter allowing limit grants per second.
func NewWindow(limit int) *Window {
	return newWindow(limit, time.Second)
}

func newWindow(limit int, window time.Duration) *Window {
	if limit < 0 {
		limit = 0
	}
	return &Window{
		limit:  limit,
		window: window,
		start:  time.Now(),
	}
}

// Wait blocks until a grant is available or ctx is done.
func (w *Window) Wait(ctx context.Context) error {
	for {
		w.mu.Lock()
		now := time.Now()
		if now.Sub(w.start) >= w.window {
			w.start = now
			w.count = 0
		}
		if w.count < w.limit {
			w.count++
			w.mu.Unlock()
			return nil
		}
		deadline := w.start.Add(w.window)
		w.mu.Unlock()

		if err := sleepUntil(ctx, deadline); err != nil {
			return err
		}

		if w.limit == 0 {
			// The full-window wait itself is the grant.
			w.mu.Lock()
			w.start = time.Now()
			w.count = 0
			w.mu.Unlock()
			return nil
		}
	}
}

// Limit returns the configured grants per window.
func (w *Window) Limit() int {
	return w.limit
}

func sleepUntil(ctx context.Context, deadline time.Time) error {
	d := time.Until(deadline)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoOp grants immediately. Useful when rate limiting is handled
// elsewhere or disabled in tests.
type NoOp struct{}

// Wait implements Limiter.
func (NoOp) Wait(ctx context.Context) error {
	return ctx.Err()
}
