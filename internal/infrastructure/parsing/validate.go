package parsing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
)

// schemaIssues flattens a kin-openapi validation error into field-tagged
// issues.
func schemaIssues(err error) []domain.ValidationIssue {
	if err == nil {
		return nil
	}
	var multi openapi3.MultiError
	if !errors.As(err, &multi) {
		multi = openapi3.MultiError{err}
	}

	out := make([]domain.ValidationIssue, 0, len(multi))
	for _, sub := range multi {
		issue := domain.ValidationIssue{Message: sub.Error()}
		var schemaErr *openapi3.SchemaError
		if errors.As(sub, &schemaErr) {
			issue.Field = strings.Join(schemaErr.JSONPointer(), ".")
			if schemaErr.Reason != "" {
				issue.Message = schemaErr.Reason
			}
		}
		out = append(out, issue)
	}
	return out
}

// consistencyWarnings covers the soft checks: ISO date formats and the
// totalDays/days agreement. These never reject a candidate, they only cost
// confidence.
func consistencyWarnings(payload itineraryPayload) []domain.ValidationIssue {
	var out []domain.ValidationIssue

	checkDate := func(field, value string) {
		if value == "" {
			out = append(out, domain.ValidationIssue{Field: field, Message: "missing date"})
			return
		}
		if _, err := time.Parse("2006-01-02", value); err != nil {
			out = append(out, domain.ValidationIssue{
				Field:   field,
				Message: fmt.Sprintf("date %q is not in YYYY-MM-DD format", value),
			})
		}
	}
	checkDate("startDate", payload.StartDate)
	checkDate("endDate", payload.EndDate)
	for i, day := range payload.Days {
		checkDate(fmt.Sprintf("days.%d.date", i), day.Date)
	}

	if payload.TotalDays != len(payload.Days) {
		out = append(out, domain.ValidationIssue{
			Field:   "totalDays",
			Message: fmt.Sprintf("totalDays is %d but %d days are present", payload.TotalDays, len(payload.Days)),
		})
	}
	return out
}

func scoreConfidence(payload itineraryPayload, valid bool, warningCount int) float64 {
	score := 0.5
	if valid {
		score += 0.3
	}
	if len(payload.Days) > 0 {
		score += 0.1
	}
	if payload.TotalCost.Amount > 0 {
		score += 0.05
	}
	if payload.Travelers.Adults+payload.Travelers.Children+payload.Travelers.Infants > 0 {
		score += 0.05
	}
	score -= 0.02 * float64(warningCount)

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
