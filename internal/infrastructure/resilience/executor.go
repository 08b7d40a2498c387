package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// RetryAttempt records one failed call inside an Execute run. The ordered
// attempt list is the audit trail returned to the caller.
type RetryAttempt struct {
	Attempt   int             `json:"attempt"`
	Timestamp time.Time       `json:"timestamp"`
	Error     ClassifiedError `json:"error"`
	Delay     time.Duration   `json:"delay"`
}

type Executor struct {
	cfg        Config
	classifier *Classifier
	history    *historyStore

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewExecutor(cfg Config, classifier *Classifier) *Executor {
	if classifier == nil {
		classifier = NewClassifier()
	}
	normalized := cfg.normalize()
	return &Executor{
		cfg:        normalized,
		classifier: classifier,
		history:    newHistoryStore(normalized.HistoryLimit),
		breakers:   make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Execute runs fn under the retry policy. Each attempt is raced against the
// configured attempt timeout; failures are classified and retried with
// exponential backoff plus jitter, a rate-limit retry-after hint overriding
// the computed delay when larger. The returned attempt list holds exactly one
// entry per failed call: empty on first-try success, full on exhaustion.
func (e *Executor) Execute(
	ctx context.Context,
	operation string,
	fn func(context.Context) error,
	classify ClassifyFunc,
) ([]RetryAttempt, error) {
	if fn == nil {
		return nil, fmt.Errorf("resilience: operation callback is nil")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classify == nil {
		classify = func(err error) ClassifiedError {
			return e.classifier.Classify(err, nil)
		}
	}

	if !e.cfg.BreakerEnabled {
		return e.executeWithRetry(ctx, op, fn, classify)
	}

	var attempts []RetryAttempt
	breaker := e.circuitBreaker(op, classify)
	_, err := breaker.Execute(func() (any, error) {
		var innerErr error
		attempts, innerErr = e.executeWithRetry(ctx, op, fn, classify)
		return nil, innerErr
	})
	return attempts, err
}

// History returns the recorded attempt trail of a previously failed
// operation, or nil when none survives in the bounded side table.
func (e *Executor) History(operation string) []RetryAttempt {
	return e.history.get(operation)
}

func (e *Executor) executeWithRetry(
	ctx context.Context,
	operation string,
	fn func(context.Context) error,
	classify ClassifyFunc,
) ([]RetryAttempt, error) {
	maxAttempts := e.cfg.RetryMaxAttempts
	backoff := e.cfg.RetryInitialBackoff
	attempts := make([]RetryAttempt, 0, maxAttempts)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			e.history.put(operation, attempts)
			return attempts, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.AttemptTimeout)
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			e.history.delete(operation)
			return attempts, nil
		}

		class := classify(err)
		wait := e.nextDelay(backoff, class)
		attempts = append(attempts, RetryAttempt{
			Attempt:   attempt,
			Timestamp: time.Now().UTC(),
			Error:     class,
			Delay:     wait,
		})

		if !class.Retryable || !e.kindAllowed(class.Kind) || attempt == maxAttempts {
			e.history.put(operation, attempts)
			return attempts, err
		}

		slog.Warn("retry_attempt",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"kind", string(class.Kind),
			"backoff_ms", float64(wait.Microseconds())/1000.0,
			"error", err,
		)

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				e.history.put(operation, attempts)
				return attempts, err
			case <-timer.C:
			}
		}

		backoff = time.Duration(float64(backoff) * e.cfg.RetryMultiplier)
		if backoff > e.cfg.RetryMaxBackoff {
			backoff = e.cfg.RetryMaxBackoff
		}
	}

	return attempts, nil
}

func (e *Executor) nextDelay(backoff time.Duration, class ClassifiedError) time.Duration {
	wait := backoff
	if e.cfg.RetryJitter > 0 {
		wait += time.Duration(rand.Int64N(int64(e.cfg.RetryJitter)))
	}
	if wait > e.cfg.RetryMaxBackoff {
		wait = e.cfg.RetryMaxBackoff
	}
	if class.RetryAfter > wait {
		wait = class.RetryAfter
	}
	return wait
}

func (e *Executor) kindAllowed(kind ErrorKind) bool {
	for _, allowed := range e.cfg.RetryableKinds {
		if allowed == kind {
			return true
		}
	}
	return false
}

func (e *Executor) circuitBreaker(operation string, classify ClassifyFunc) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if breaker, ok := e.breakers[operation]; ok {
		return breaker
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: e.cfg.BreakerHalfOpenMaxCalls,
		Timeout:     e.cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < e.cfg.BreakerMinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= e.cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return !breakerRecords(err, classify(err))
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	}

	breaker := gobreaker.NewCircuitBreaker[any](settings)
	e.breakers[operation] = breaker
	return breaker
}

// breakerRecords reports whether a failure should count against the circuit
// breaker. Caller-side problems (cancellation, bad input, local parsing) say
// nothing about upstream health.
func breakerRecords(err error, class ClassifiedError) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch class.Kind {
	case KindAuthentication, KindValidation, KindParsing, KindAPI, KindQuotaExceeded:
		return false
	default:
		return true
	}
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
