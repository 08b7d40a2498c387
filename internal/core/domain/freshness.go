package domain

import "time"

type SourceType string

const (
	SourcePricing        SourceType = "pricing"
	SourceWeather        SourceType = "weather"
	SourceEvents         SourceType = "events"
	SourceTransportation SourceType = "transportation"
	SourceAccommodation  SourceType = "accommodation"
	SourceGeneral        SourceType = "general"
)

type RefreshUrgency string

const (
	RefreshImmediate RefreshUrgency = "immediate"
	RefreshHigh      RefreshUrgency = "high"
	RefreshMedium    RefreshUrgency = "medium"
	RefreshLow       RefreshUrgency = "low"
)

type StalenessSeverity string

const (
	StalenessWarning  StalenessSeverity = "warning"
	StalenessCritical StalenessSeverity = "critical"
)

type StalenessIndicator struct {
	Severity StalenessSeverity `json:"severity"`
	Message  string            `json:"message"`
}

// FreshnessAssessment is recomputed on every validation call and never cached
// beyond the owning data-source record.
type FreshnessAssessment struct {
	DataTimestamp   time.Time            `json:"data_timestamp"`
	LastValidated   time.Time            `json:"last_validated"`
	SourceType      SourceType           `json:"source_type"`
	FreshnessScore  float64              `json:"freshness_score"`
	ExpiryDate      time.Time            `json:"expiry_date"`
	Indicators      []StalenessIndicator `json:"indicators,omitempty"`
	Recommendation  RefreshUrgency       `json:"recommendation"`
}

// ItineraryFreshness composes per-component assessments into an overall view.
type ItineraryFreshness struct {
	OverallScore    float64               `json:"overall_score"`
	Components      []FreshnessAssessment `json:"components"`
	Recommendation  RefreshUrgency        `json:"recommendation"`
	Recommendations []string              `json:"recommendations,omitempty"`
}
