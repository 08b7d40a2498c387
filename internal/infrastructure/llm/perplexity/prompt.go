package perplexity

import (
	"fmt"
	"strings"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
)

const systemPrompt = `You are a travel planning assistant.
Return a single strict JSON object with keys:
title (string), destination (string), startDate (YYYY-MM-DD), endDate (YYYY-MM-DD),
totalDays (integer), totalCost {amount (number), currency (string)},
days (array of {day (integer), date (YYYY-MM-DD), title (string), activities (array of
{time, title, description, location, duration, cost, category}), totalCost (number)}),
travelers {adults, children, infants}.
No markdown, no commentary, no extra keys.`

func buildPlanPrompt(req domain.PlanRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan a trip to %s from %s to %s", req.Destination, req.StartDate, req.EndDate)
	fmt.Fprintf(&b, " for %d adults", req.Travelers.Adults)
	if req.Travelers.Children > 0 {
		fmt.Fprintf(&b, ", %d children", req.Travelers.Children)
	}
	if req.Travelers.Infants > 0 {
		fmt.Fprintf(&b, ", %d infants", req.Travelers.Infants)
	}
	b.WriteString(".\n")
	if len(req.Interests) > 0 {
		fmt.Fprintf(&b, "Interests: %s.\n", strings.Join(req.Interests, ", "))
	}
	if req.Budget != "" {
		fmt.Fprintf(&b, "Budget level: %s.\n", req.Budget)
	}
	b.WriteString("Use current prices and opening hours where available.")
	return b.String()
}
