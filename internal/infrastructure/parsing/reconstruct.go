package parsing

import (
	"regexp"
	"strings"
)

// Destinations are taken as the capitalized word run after a lead-in such
// as "trip to" or "Destination:", so trailing prose does not bleed in.
var reconstructDestPattern = regexp.MustCompile(`(?i:destination|trip to|travel(?:ing)? to|visit(?:ing)?|itinerary for)[:\s]+([A-Z][a-zA-Z'-]*(?:(?:,\s?| )[A-Z][a-zA-Z'-]*)*)`)

// reconstruct assembles a minimal one-day itinerary from whatever fields
// regex extraction can recover from otherwise unparseable text. It reports
// false when neither a destination nor a date is recoverable, which is the
// only way a parse call ends in hard failure.
func reconstruct(content string) (itineraryPayload, bool) {
	var payload itineraryPayload

	if m := reconstructDestPattern.FindStringSubmatch(content); m != nil {
		payload.Destination = strings.Trim(strings.TrimSpace(m[1]), ".,")
	}
	dates := datePattern.FindAllString(content, -1)
	if len(dates) > 0 {
		payload.StartDate = dates[0]
		payload.EndDate = dates[len(dates)-1]
	}
	if payload.Destination == "" && len(dates) == 0 {
		return itineraryPayload{}, false
	}

	if payload.Destination == "" {
		payload.Destination = "Unknown destination"
	}
	payload.Title = payload.Destination + " Itinerary"

	day := dayPayload{
		Day:  1,
		Date: payload.StartDate,
		Activities: []activityPayload{{
			Title:       "Arrival in " + payload.Destination,
			Description: "Reconstructed from an unstructured response; details unavailable.",
			Category:    "transportation",
		}},
	}
	payload.Days = []dayPayload{day}
	payload.TotalDays = 1
	return payload, true
}
