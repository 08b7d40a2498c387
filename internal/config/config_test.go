package config

import (
	"testing"
	"time"
)

func TestLoadIncludesResilienceDefaults(t *testing.T) {
	t.Setenv("RETRY_MAX_ATTEMPTS", "")
	t.Setenv("RETRY_INITIAL_BACKOFF", "")
	t.Setenv("BREAKER_FAILURE_RATIO", "")
	t.Setenv("RATE_LIMIT_STRATEGY", "")
	t.Setenv("CACHE_POLICY", "")

	cfg := Load()
	if cfg.RetryMaxAttempts != 3 {
		t.Fatalf("expected default retry attempts 3, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryInitialBackoff != time.Second {
		t.Fatalf("expected default initial backoff 1s, got %v", cfg.RetryInitialBackoff)
	}
	if cfg.RetryJitter != 500*time.Millisecond {
		t.Fatalf("expected default retry jitter 500ms, got %v", cfg.RetryJitter)
	}
	if cfg.FreshnessWarningAge != 12*time.Hour {
		t.Fatalf("expected default freshness warning age 12h, got %v", cfg.FreshnessWarningAge)
	}
	if cfg.FreshnessCriticalAge != 48*time.Hour {
		t.Fatalf("expected default freshness critical age 48h, got %v", cfg.FreshnessCriticalAge)
	}
	if cfg.BreakerFailureRatio != 0.6 {
		t.Fatalf("expected default breaker ratio 0.6, got %v", cfg.BreakerFailureRatio)
	}
	if cfg.RateLimitStrategy != "adaptive" {
		t.Fatalf("expected default rate limit strategy adaptive, got %q", cfg.RateLimitStrategy)
	}
	if cfg.CachePolicy != "lru" {
		t.Fatalf("expected default cache policy lru, got %q", cfg.CachePolicy)
	}
	if cfg.PerplexityModel != "sonar-pro" {
		t.Fatalf("expected default model sonar-pro, got %q", cfg.PerplexityModel)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("RETRY_INITIAL_BACKOFF", "250ms")
	t.Setenv("RETRY_JITTER", "2s")
	t.Setenv("BREAKER_ENABLED", "false")
	t.Setenv("RATE_LIMIT_ERROR_RATE_THRESHOLD", "0.15")
	t.Setenv("CACHE_TTL", "10m")
	t.Setenv("API_RATE_LIMIT_RPS", "12.5")

	cfg := Load()
	if cfg.RetryMaxAttempts != 5 {
		t.Fatalf("expected retry attempts 5, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryInitialBackoff != 250*time.Millisecond {
		t.Fatalf("expected initial backoff 250ms, got %v", cfg.RetryInitialBackoff)
	}
	if cfg.RetryJitter != 2*time.Second {
		t.Fatalf("expected retry jitter 2s, got %v", cfg.RetryJitter)
	}
	if cfg.BreakerEnabled {
		t.Fatal("expected breaker disabled")
	}
	if cfg.RateLimitErrorRate != 0.15 {
		t.Fatalf("expected error rate threshold 0.15, got %v", cfg.RateLimitErrorRate)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Fatalf("expected cache ttl 10m, got %v", cfg.CacheTTL)
	}
	if cfg.APIRateLimitRPS != 12.5 {
		t.Fatalf("expected api rps 12.5, got %v", cfg.APIRateLimitRPS)
	}
}

func TestLoadFallsBackOnMalformedValues(t *testing.T) {
	t.Setenv("RETRY_MAX_ATTEMPTS", "many")
	t.Setenv("RETRY_INITIAL_BACKOFF", "soon")
	t.Setenv("API_RATE_LIMIT_RPS", "fast")

	cfg := Load()
	if cfg.RetryMaxAttempts != 3 {
		t.Fatalf("expected fallback retry attempts 3, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryInitialBackoff != time.Second {
		t.Fatalf("expected fallback backoff 1s, got %v", cfg.RetryInitialBackoff)
	}
	if cfg.APIRateLimitRPS != 50 {
		t.Fatalf("expected fallback rps 50, got %v", cfg.APIRateLimitRPS)
	}
}
