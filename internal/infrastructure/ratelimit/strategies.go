package ratelimit

import (
	"time"

	"golang.org/x/time/rate"
)

// tokenBucket delegates to golang.org/x/time/rate: capacity is the burst
// limit, refill is continuous at MaxRequests per window.
type tokenBucket struct {
	limiter *rate.Limiter
	window  time.Duration
	clock   func() time.Time
}

func newTokenBucket(cfg Config, clock func() time.Time) *tokenBucket {
	burst := cfg.BurstLimit
	if burst <= 0 {
		burst = cfg.MaxRequests
	}
	refill := rate.Limit(float64(cfg.MaxRequests) / cfg.Window.Seconds())
	return &tokenBucket{
		limiter: rate.NewLimiter(refill, burst),
		window:  cfg.Window,
		clock:   clock,
	}
}

func (b *tokenBucket) check(now time.Time) Result {
	if b.limiter.AllowN(now, 1) {
		return Result{
			Allowed:   true,
			Remaining: int(b.limiter.TokensAt(now)),
			ResetTime: now.Add(b.window),
		}
	}

	reservation := b.limiter.ReserveN(now, 1)
	retryAfter := reservation.DelayFrom(now)
	reservation.CancelAt(now)

	return Result{
		Allowed:    false,
		Remaining:  0,
		ResetTime:  now.Add(retryAfter),
		RetryAfter: retryAfter,
	}
}

func (b *tokenBucket) recordResult(time.Time, bool) {}

// slidingWindow keeps request timestamps and discards those older than the
// window on each check.
type slidingWindow struct {
	maxRequests int
	window      time.Duration
	timestamps  []time.Time
}

func newSlidingWindow(cfg Config) *slidingWindow {
	return &slidingWindow{maxRequests: cfg.MaxRequests, window: cfg.Window}
}

func (w *slidingWindow) check(now time.Time) Result {
	cutoff := now.Add(-w.window)
	kept := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.timestamps = kept

	if len(w.timestamps) < w.maxRequests {
		w.timestamps = append(w.timestamps, now)
		return Result{
			Allowed:   true,
			Remaining: w.maxRequests - len(w.timestamps),
			ResetTime: w.timestamps[0].Add(w.window),
		}
	}

	retryAfter := w.timestamps[0].Add(w.window).Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Result{
		Allowed:    false,
		Remaining:  0,
		ResetTime:  w.timestamps[0].Add(w.window),
		RetryAfter: retryAfter,
	}
}

func (w *slidingWindow) recordResult(time.Time, bool) {}

// fixedWindow resets a counter whenever a full window has elapsed.
type fixedWindow struct {
	maxRequests int
	window      time.Duration
	count       int
	windowStart time.Time
}

func newFixedWindow(cfg Config) *fixedWindow {
	return &fixedWindow{maxRequests: cfg.MaxRequests, window: cfg.Window}
}

func (w *fixedWindow) check(now time.Time) Result {
	if w.windowStart.IsZero() || now.Sub(w.windowStart) >= w.window {
		w.windowStart = now
		w.count = 0
	}

	reset := w.windowStart.Add(w.window)
	if w.count < w.maxRequests {
		w.count++
		return Result{
			Allowed:   true,
			Remaining: w.maxRequests - w.count,
			ResetTime: reset,
		}
	}

	return Result{
		Allowed:    false,
		Remaining:  0,
		ResetTime:  reset,
		RetryAfter: reset.Sub(now),
	}
}

func (w *fixedWindow) recordResult(time.Time, bool) {}

// adaptive gates admission against a dynamically adjusted limit. The limit
// shrinks when the downstream error rate over the adjust interval is high and
// grows back toward the configured base when calls succeed.
type adaptive struct {
	base               int
	window             time.Duration
	errorRateThreshold float64
	backoffMultiplier  float64
	adjustInterval     time.Duration

	currentLimit float64
	successes    int
	errors       int
	lastAdjust   time.Time

	count       int
	windowStart time.Time
}

func newAdaptive(cfg Config) *adaptive {
	return &adaptive{
		base:               cfg.MaxRequests,
		window:             cfg.Window,
		errorRateThreshold: cfg.ErrorRateThreshold,
		backoffMultiplier:  cfg.BackoffMultiplier,
		adjustInterval:     cfg.AdjustInterval,
		currentLimit:       float64(cfg.MaxRequests),
	}
}

func (a *adaptive) check(now time.Time) Result {
	a.maybeAdjust(now)

	if a.windowStart.IsZero() || now.Sub(a.windowStart) >= a.window {
		a.windowStart = now
		a.count = 0
	}

	limit := int(a.currentLimit)
	if limit < 1 {
		limit = 1
	}
	reset := a.windowStart.Add(a.window)

	if a.count < limit {
		a.count++
		return Result{
			Allowed:   true,
			Remaining: limit - a.count,
			ResetTime: reset,
		}
	}
	return Result{
		Allowed:    false,
		Remaining:  0,
		ResetTime:  reset,
		RetryAfter: reset.Sub(now),
	}
}

func (a *adaptive) recordResult(now time.Time, success bool) {
	if success {
		a.successes++
	} else {
		a.errors++
	}
	a.maybeAdjust(now)
}

func (a *adaptive) maybeAdjust(now time.Time) {
	if a.lastAdjust.IsZero() {
		a.lastAdjust = now
		return
	}
	if now.Sub(a.lastAdjust) < a.adjustInterval {
		return
	}

	total := a.successes + a.errors
	if total > 0 {
		errorRate := float64(a.errors) / float64(total)
		switch {
		case errorRate > a.errorRateThreshold:
			a.currentLimit *= a.backoffMultiplier
			if a.currentLimit < 1 {
				a.currentLimit = 1
			}
		case errorRate < a.errorRateThreshold/2:
			a.currentLimit *= 1.2
			if a.currentLimit > float64(a.base) {
				a.currentLimit = float64(a.base)
			}
		}
	}

	a.successes = 0
	a.errors = 0
	a.lastAdjust = now
}
