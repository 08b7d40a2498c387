package freshness

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
)

type Config struct {
	// MaxAges overrides the per-source-type maximum acceptable age.
	MaxAges map[domain.SourceType]time.Duration

	// WarningAge and CriticalAge are the global staleness thresholds applied
	// regardless of source type.
	WarningAge  time.Duration
	CriticalAge time.Duration

	// MaxSources bounds the per-dataID record table.
	MaxSources int
}

func defaultMaxAges() map[domain.SourceType]time.Duration {
	return map[domain.SourceType]time.Duration{
		domain.SourcePricing:        6 * time.Hour,
		domain.SourceWeather:        3 * time.Hour,
		domain.SourceEvents:         12 * time.Hour,
		domain.SourceTransportation: 8 * time.Hour,
		domain.SourceAccommodation:  12 * time.Hour,
		domain.SourceGeneral:        24 * time.Hour,
	}
}

func (c Config) normalize() Config {
	out := c
	defaults := defaultMaxAges()
	if out.MaxAges == nil {
		out.MaxAges = defaults
	} else {
		for sourceType, age := range defaults {
			if _, ok := out.MaxAges[sourceType]; !ok {
				out.MaxAges[sourceType] = age
			}
		}
	}
	if out.WarningAge <= 0 {
		out.WarningAge = 12 * time.Hour
	}
	if out.CriticalAge <= 0 {
		out.CriticalAge = 48 * time.Hour
	}
	if out.MaxSources <= 0 {
		out.MaxSources = 1024
	}
	return out
}

type sourceRecord struct {
	sourceType    domain.SourceType
	firstSeen     time.Time
	lastValidated time.Time
	validations   int
}

// Validator scores data age against per-type maximum ages and raises
// staleness indicators. Per-dataID records are created lazily on first
// validation and bounded by MaxSources.
type Validator struct {
	cfg   Config
	clock func() time.Time

	mu      sync.Mutex
	sources map[string]*sourceRecord
	order   []string
}

func NewValidator(cfg Config) *Validator {
	return newWithClock(cfg, time.Now)
}

func newWithClock(cfg Config, clock func() time.Time) *Validator {
	return &Validator{
		cfg:     cfg.normalize(),
		clock:   clock,
		sources: make(map[string]*sourceRecord),
	}
}

// Validate recomputes the freshness assessment of one data point.
func (v *Validator) Validate(dataID string, dataTimestamp time.Time, sourceType domain.SourceType) domain.FreshnessAssessment {
	now := v.clock()
	v.track(dataID, sourceType, now)

	maxAge, ok := v.cfg.MaxAges[sourceType]
	if !ok {
		maxAge = v.cfg.MaxAges[domain.SourceGeneral]
	}

	age := now.Sub(dataTimestamp)
	if age < 0 {
		age = 0
	}
	score := 1 - float64(age)/float64(maxAge)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	assessment := domain.FreshnessAssessment{
		DataTimestamp:  dataTimestamp,
		LastValidated:  now,
		SourceType:     sourceType,
		FreshnessScore: score,
		ExpiryDate:     dataTimestamp.Add(maxAge),
	}

	if age >= v.cfg.CriticalAge {
		assessment.Indicators = append(assessment.Indicators, domain.StalenessIndicator{
			Severity: domain.StalenessCritical,
			Message:  fmt.Sprintf("data is %s old, beyond the %s critical threshold", formatAge(age), formatAge(v.cfg.CriticalAge)),
		})
	} else if age >= v.cfg.WarningAge {
		assessment.Indicators = append(assessment.Indicators, domain.StalenessIndicator{
			Severity: domain.StalenessWarning,
			Message:  fmt.Sprintf("data is %s old, beyond the %s warning threshold", formatAge(age), formatAge(v.cfg.WarningAge)),
		})
	}
	if age >= maxAge {
		assessment.Indicators = append(assessment.Indicators, domain.StalenessIndicator{
			Severity: domain.StalenessWarning,
			Message:  fmt.Sprintf("%s data exceeded its %s maximum age", sourceType, formatAge(maxAge)),
		})
	}

	assessment.Recommendation = urgency(score, age, v.cfg)
	return assessment
}

// ValidateItinerary composes per-component assessments: generation metadata,
// pricing, and one events assessment per day, all anchored on GeneratedAt.
func (v *Validator) ValidateItinerary(itinerary *domain.Itinerary) domain.ItineraryFreshness {
	generated := itinerary.Metadata.GeneratedAt

	components := []domain.FreshnessAssessment{
		v.Validate(itinerary.ID+":metadata", generated, domain.SourceGeneral),
		v.Validate(itinerary.ID+":pricing", generated, domain.SourcePricing),
	}
	for _, day := range itinerary.Days {
		components = append(components, v.Validate(
			fmt.Sprintf("%s:day-%d", itinerary.ID, day.Day),
			generated,
			domain.SourceEvents,
		))
	}

	var sum float64
	overall := domain.RefreshLow
	seen := make(map[string]struct{})
	var recommendations []string
	for i, component := range components {
		sum += component.FreshnessScore
		if urgencyRank(component.Recommendation) > urgencyRank(overall) {
			overall = component.Recommendation
		}
		if component.Recommendation == domain.RefreshLow {
			continue
		}
		text := componentRecommendation(i, component)
		if _, dup := seen[text]; !dup {
			seen[text] = struct{}{}
			recommendations = append(recommendations, text)
		}
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i] < recommendations[j]
	})

	return domain.ItineraryFreshness{
		OverallScore:    sum / float64(len(components)),
		Components:      components,
		Recommendation:  overall,
		Recommendations: recommendations,
	}
}

func (v *Validator) track(dataID string, sourceType domain.SourceType, now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()

	record, ok := v.sources[dataID]
	if !ok {
		record = &sourceRecord{sourceType: sourceType, firstSeen: now}
		v.sources[dataID] = record
		v.order = append(v.order, dataID)
		for len(v.order) > v.cfg.MaxSources {
			oldest := v.order[0]
			v.order = v.order[1:]
			delete(v.sources, oldest)
		}
	}
	record.lastValidated = now
	record.validations++
}

func urgency(score float64, age time.Duration, cfg Config) domain.RefreshUrgency {
	switch {
	case score < 0.3 || age > cfg.CriticalAge:
		return domain.RefreshImmediate
	case score < 0.5 || age > cfg.WarningAge:
		return domain.RefreshHigh
	case score < 0.7:
		return domain.RefreshMedium
	default:
		return domain.RefreshLow
	}
}

func urgencyRank(u domain.RefreshUrgency) int {
	switch u {
	case domain.RefreshImmediate:
		return 3
	case domain.RefreshHigh:
		return 2
	case domain.RefreshMedium:
		return 1
	default:
		return 0
	}
}

func componentRecommendation(index int, component domain.FreshnessAssessment) string {
	name := string(component.SourceType)
	if index == 0 {
		name = "itinerary"
	}
	return fmt.Sprintf("refresh %s data (%s urgency, score %.2f)", name, component.Recommendation, component.FreshnessScore)
}

func formatAge(d time.Duration) string {
	hours := d.Hours()
	if hours >= 1 {
		return fmt.Sprintf("%.0fh", hours)
	}
	return fmt.Sprintf("%.0fm", d.Minutes())
}
