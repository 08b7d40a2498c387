package ratelimit

import (
	"sync"
	"time"
)

type Strategy string

const (
	StrategyTokenBucket   Strategy = "token_bucket"
	StrategySlidingWindow Strategy = "sliding_window"
	StrategyFixedWindow   Strategy = "fixed_window"
	StrategyAdaptive      Strategy = "adaptive"
)

type Config struct {
	Strategy    Strategy
	MaxRequests int
	Window      time.Duration

	// BurstLimit overrides the token-bucket capacity; zero falls back to
	// MaxRequests.
	BurstLimit int

	// Adaptive tuning. The limit shrinks by BackoffMultiplier when the
	// observed error rate over an adjust interval exceeds ErrorRateThreshold
	// and grows by 1.2x (capped at MaxRequests) when it stays below half the
	// threshold.
	ErrorRateThreshold float64
	BackoffMultiplier  float64
	AdjustInterval     time.Duration

	// MaxIdentifiers bounds the per-identifier state map; the oldest
	// identifier is dropped when the bound is exceeded.
	MaxIdentifiers int
}

func (c Config) normalize() Config {
	out := c
	if out.Strategy == "" {
		out.Strategy = StrategyTokenBucket
	}
	if out.MaxRequests <= 0 {
		out.MaxRequests = 10
	}
	if out.Window <= 0 {
		out.Window = time.Minute
	}
	if out.ErrorRateThreshold <= 0 || out.ErrorRateThreshold >= 1 {
		out.ErrorRateThreshold = 0.1
	}
	if out.BackoffMultiplier <= 0 || out.BackoffMultiplier >= 1 {
		out.BackoffMultiplier = 0.8
	}
	if out.AdjustInterval <= 0 {
		out.AdjustInterval = time.Minute
	}
	if out.MaxIdentifiers <= 0 {
		out.MaxIdentifiers = 1024
	}
	return out
}

// Result is the admission decision for one request.
type Result struct {
	Allowed    bool          `json:"allowed"`
	Remaining  int           `json:"remaining"`
	ResetTime  time.Time     `json:"reset_time"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

type Stats struct {
	Total   uint64 `json:"total"`
	Allowed uint64 `json:"allowed"`
	Blocked uint64 `json:"blocked"`
}

// Limiter admits requests per logical identifier under one strategy.
// Per-identifier state lives for the process lifetime, bounded by
// MaxIdentifiers.
type Limiter struct {
	cfg   Config
	clock func() time.Time

	mu     sync.Mutex
	states map[string]strategyState
	order  []string
	stats  Stats
}

// strategyState is one identifier's admission state.
type strategyState interface {
	check(now time.Time) Result
	recordResult(now time.Time, success bool)
}

func New(cfg Config) *Limiter {
	return newWithClock(cfg, time.Now)
}

func newWithClock(cfg Config, clock func() time.Time) *Limiter {
	return &Limiter{
		cfg:    cfg.normalize(),
		clock:  clock,
		states: make(map[string]strategyState),
	}
}

func (l *Limiter) Strategy() Strategy {
	return l.cfg.Strategy
}

// Check performs the admission decision for identifier.
func (l *Limiter) Check(identifier string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := l.state(identifier).check(l.clock())
	l.stats.Total++
	if result.Allowed {
		l.stats.Allowed++
	} else {
		l.stats.Blocked++
	}
	return result
}

// RecordResult feeds the adaptive strategy with the outcome of a completed
// operation. It is a no-op for the static strategies.
func (l *Limiter) RecordResult(identifier string, success bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state(identifier).recordResult(l.clock(), success)
}

func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Clear drops all identifier state and resets statistics.
func (l *Limiter) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.states = make(map[string]strategyState)
	l.order = nil
	l.stats = Stats{}
}

func (l *Limiter) state(identifier string) strategyState {
	if state, ok := l.states[identifier]; ok {
		return state
	}

	var state strategyState
	switch l.cfg.Strategy {
	case StrategySlidingWindow:
		state = newSlidingWindow(l.cfg)
	case StrategyFixedWindow:
		state = newFixedWindow(l.cfg)
	case StrategyAdaptive:
		state = newAdaptive(l.cfg)
	default:
		state = newTokenBucket(l.cfg, l.clock)
	}

	l.states[identifier] = state
	l.order = append(l.order, identifier)
	for len(l.order) > l.cfg.MaxIdentifiers {
		oldest := l.order[0]
		l.order = l.order[1:]
		delete(l.states, oldest)
	}
	return state
}
