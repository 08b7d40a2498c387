package parsing

import (
	"regexp"
	"strings"
)

var (
	mdTitlePattern = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	mdDayPattern   = regexp.MustCompile(`(?m)^(?:#{2,}\s*|\*\*)[Dd]ay\s+(\d+)[:\s]*([^*\n]*?)(?:\*\*)?\s*$`)
	mdBulletTime   = regexp.MustCompile(`^(?:\*\*)?(\d{1,2}:\d{2}(?:\s*[AaPp][Mm])?)(?:\*\*)?\s*[-–:]?\s*(.+)$`)
	datePattern    = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	destPattern    = regexp.MustCompile(`(?im)^\*{0,2}destination\*{0,2}[:\s]+\*{0,2}([^*\n]+?)\*{0,2}\s*$`)
)

// parseMarkdown converts a markdown itinerary (day headings with activity
// bullets) into a candidate payload. It reports false when no day heading
// is present.
func parseMarkdown(content string) (itineraryPayload, bool) {
	dayMatches := mdDayPattern.FindAllStringSubmatchIndex(content, -1)
	if len(dayMatches) == 0 {
		return itineraryPayload{}, false
	}

	var payload itineraryPayload
	if m := mdTitlePattern.FindStringSubmatch(content); m != nil {
		payload.Title = strings.TrimSpace(m[1])
	}
	if m := destPattern.FindStringSubmatch(content); m != nil {
		payload.Destination = strings.TrimSpace(m[1])
	}
	if payload.Title == "" {
		payload.Title = payload.Destination + " Itinerary"
	}
	if payload.Destination == "" {
		payload.Destination = payload.Title
	}

	for i, match := range dayMatches {
		sectionStart := match[1]
		sectionEnd := len(content)
		if i+1 < len(dayMatches) {
			sectionEnd = dayMatches[i+1][0]
		}
		section := content[sectionStart:sectionEnd]

		day := dayPayload{
			Day:        i + 1,
			Title:      strings.TrimSpace(content[match[4]:match[5]]),
			Activities: parseBulletActivities(section),
		}
		if n, ok := atoiSafe(content[match[2]:match[3]]); ok {
			day.Day = n
		}
		if d := datePattern.FindString(section); d != "" {
			day.Date = d
		} else if d := datePattern.FindString(day.Title); d != "" {
			day.Date = d
		}
		payload.Days = append(payload.Days, day)
	}

	dates := datePattern.FindAllString(content, -1)
	if len(dates) > 0 {
		payload.StartDate = dates[0]
		payload.EndDate = dates[len(dates)-1]
	}
	payload.TotalDays = len(payload.Days)
	return payload, true
}

func parseBulletActivities(section string) []activityPayload {
	var out []activityPayload
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") && !strings.HasPrefix(line, "* ") {
			continue
		}
		body := strings.TrimSpace(line[2:])
		if body == "" {
			continue
		}
		activity := activityPayload{Title: body}
		if m := mdBulletTime.FindStringSubmatch(body); m != nil {
			activity.Time = m[1]
			activity.Title = strings.TrimSpace(strings.Trim(m[2], "* "))
		}
		out = append(out, activity)
	}
	return out
}

func atoiSafe(s string) (int, bool) {
	n := 0
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
