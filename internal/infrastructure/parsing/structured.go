package parsing

import (
	"regexp"
	"strings"
)

var (
	structDayPattern  = regexp.MustCompile(`^\s*[Dd]ay\s+(\d+)[:\s]*(.*)$`)
	structDestPattern = regexp.MustCompile(`(?i)^\s*(?:itinerary|destination|trip)(?:\s+for)?[:\s]+(.+)$`)
	structTimePattern = regexp.MustCompile(`^(\d{1,2}:\d{2}(?:\s*[AaPp][Mm])?)\s*[-–:]\s*(.+)$`)
)

// parseStructuredText handles plain-text itineraries organized as "Day N:"
// blocks with one activity per following line. It reports false when no day
// block is present.
func parseStructuredText(content string) (itineraryPayload, bool) {
	var payload itineraryPayload
	var current *dayPayload
	dayIndex := 0

	flush := func() {
		if current != nil {
			payload.Days = append(payload.Days, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := structDayPattern.FindStringSubmatch(trimmed); m != nil {
			flush()
			dayIndex++
			day := dayPayload{Day: dayIndex, Title: strings.TrimSpace(m[2])}
			if n, ok := atoiSafe(m[1]); ok {
				day.Day = n
			}
			if d := datePattern.FindString(trimmed); d != "" {
				day.Date = d
				day.Title = strings.TrimSpace(strings.Replace(day.Title, d, "", 1))
				day.Title = strings.Trim(day.Title, " ()-")
			}
			current = &day
			continue
		}
		if m := structDestPattern.FindStringSubmatch(trimmed); m != nil && payload.Destination == "" {
			payload.Destination = strings.TrimSpace(m[1])
			continue
		}
		if current == nil {
			continue
		}
		if strings.EqualFold(trimmed, "activities:") {
			continue
		}
		body := strings.TrimPrefix(strings.TrimPrefix(trimmed, "- "), "* ")
		activity := activityPayload{Title: body}
		if m := structTimePattern.FindStringSubmatch(body); m != nil {
			activity.Time = m[1]
			activity.Title = strings.TrimSpace(m[2])
		}
		current.Activities = append(current.Activities, activity)
	}
	flush()

	if len(payload.Days) == 0 {
		return itineraryPayload{}, false
	}
	if payload.Destination == "" {
		payload.Destination = payload.Days[0].Title
	}
	if payload.Title == "" {
		payload.Title = strings.TrimSpace(payload.Destination + " Itinerary")
	}
	dates := datePattern.FindAllString(content, -1)
	if len(dates) > 0 {
		payload.StartDate = dates[0]
		payload.EndDate = dates[len(dates)-1]
	}
	payload.TotalDays = len(payload.Days)
	return payload, true
}
