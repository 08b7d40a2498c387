package domain

import "time"

// AttemptReport is the caller-facing record of one failed generation
// attempt, flattened from the retry engine's internal bookkeeping.
type AttemptReport struct {
	Attempt   int       `json:"attempt"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	DelayMs   int64     `json:"delay_ms"`
}

// FallbackReport marks a result as degraded: it was produced by a fallback
// strategy rather than a fresh generation.
type FallbackReport struct {
	Strategy   string  `json:"strategy"`
	Message    string  `json:"message,omitempty"`
	Confidence float64 `json:"confidence"`
}

// PlanOutcome is everything a plan call produced: the itinerary plus the
// resilience audit trail callers use to decide how much to trust it.
type PlanOutcome struct {
	Itinerary *Itinerary          `json:"itinerary"`
	Parse     ParseMetadata       `json:"parse"`
	Warnings  []ValidationIssue   `json:"warnings,omitempty"`
	Attempts  []AttemptReport     `json:"attempts,omitempty"`
	Fallback  *FallbackReport     `json:"fallback,omitempty"`
	FromCache bool                `json:"from_cache"`
	Freshness *ItineraryFreshness `json:"freshness,omitempty"`
	Usage     *TokenUsage         `json:"usage,omitempty"`
}
