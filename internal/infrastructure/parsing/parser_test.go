package parsing

import (
	"strings"
	"testing"
	"time"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
	"github.com/tripforge/itinerary-ai/internal/infrastructure/citations"
)

const tokyoJSON = `{
  "title": "Tokyo Adventure",
  "destination": "Tokyo, Japan",
  "startDate": "2026-04-10",
  "endDate": "2026-04-10",
  "totalDays": 1,
  "totalCost": {"amount": 250, "currency": "USD"},
  "days": [
    {
      "day": 1,
      "date": "2026-04-10",
      "title": "Arrival",
      "activities": [
        {"time": "09:00", "title": "Senso-ji Temple", "location": "Asakusa", "category": "sightseeing"}
      ],
      "totalCost": 250
    }
  ],
  "travelers": {"adults": 2, "children": 0, "infants": 0}
}`

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	parser, err := NewParser(citations.NewManager())
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	parser.clock = func() time.Time { return time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC) }
	parser.newID = func() string { return "itin-test-1" }
	return parser
}

func TestParsePureJSON(t *testing.T) {
	parser := newTestParser(t)

	result := parser.Parse(tokyoJSON, []string{"https://www.japan.travel/en/tokyo/"}, []string{"Best time to visit Tokyo?"})
	if !result.Success {
		t.Fatalf("parse failed: %+v", result.Errors)
	}
	if result.Metadata.ParseMethod != domain.ParseJSONExtraction {
		t.Fatalf("parse method = %s, want %s", result.Metadata.ParseMethod, domain.ParseJSONExtraction)
	}
	if result.Metadata.Confidence < 0.7 {
		t.Fatalf("confidence = %.2f, want >= 0.7", result.Metadata.Confidence)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", result.Warnings)
	}

	it := result.Data
	if it.Title != "Tokyo Adventure" || it.Destination != "Tokyo, Japan" {
		t.Fatalf("unexpected itinerary header: %+v", it)
	}
	if len(it.Days) != 1 || it.Days[0].Activities[0].Title != "Senso-ji Temple" {
		t.Fatalf("unexpected days: %+v", it.Days)
	}
	if it.TotalCost.Amount != 250 || it.Travelers.Adults != 2 {
		t.Fatalf("cost/travelers not carried: %+v", it)
	}
	if it.ID != "itin-test-1" {
		t.Fatalf("id = %q", it.ID)
	}
	if it.Metadata.GeneratedAt.IsZero() {
		t.Fatal("generatedAt not set")
	}
	if len(it.Metadata.CitationData) != 1 || it.Metadata.CitationData[0].Type != domain.CitationOfficialTourism {
		t.Fatalf("citations not enriched: %+v", it.Metadata.CitationData)
	}
	if len(it.Metadata.RelatedQuestions) != 1 {
		t.Fatalf("related questions not carried: %+v", it.Metadata.RelatedQuestions)
	}
}

func TestParseJSONEmbeddedInProse(t *testing.T) {
	parser := newTestParser(t)

	content := "Here is your itinerary:\n\n```json\n" + tokyoJSON + "\n```\n\nEnjoy your trip!"
	result := parser.Parse(content, nil, nil)
	if !result.Success {
		t.Fatalf("parse failed: %+v", result.Errors)
	}
	if result.Metadata.ParseMethod != domain.ParseJSONExtraction {
		t.Fatalf("parse method = %s", result.Metadata.ParseMethod)
	}
	if result.Data.Title != "Tokyo Adventure" {
		t.Fatalf("title = %q", result.Data.Title)
	}
	if result.Metadata.ExtractedLength >= result.Metadata.OriginalLength {
		t.Fatalf("extracted %d should be shorter than original %d",
			result.Metadata.ExtractedLength, result.Metadata.OriginalLength)
	}
}

func TestParseMarkdownItinerary(t *testing.T) {
	parser := newTestParser(t)

	content := strings.Join([]string{
		"# Tokyo Trip",
		"",
		"Destination: Tokyo, Japan",
		"",
		"## Day 1: Arrival (2026-04-10)",
		"- **09:00** Senso-ji Temple",
		"- **13:00** Lunch in Asakusa",
		"",
		"## Day 2: Museums (2026-04-11)",
		"- **10:00** Tokyo National Museum",
	}, "\n")

	result := parser.Parse(content, nil, nil)
	if !result.Success {
		t.Fatalf("parse failed: %+v", result.Errors)
	}
	if result.Metadata.ParseMethod != domain.ParseMarkdown {
		t.Fatalf("parse method = %s", result.Metadata.ParseMethod)
	}
	it := result.Data
	if it.Destination != "Tokyo, Japan" {
		t.Fatalf("destination = %q", it.Destination)
	}
	if len(it.Days) != 2 {
		t.Fatalf("days = %d, want 2", len(it.Days))
	}
	if it.Days[0].Date != "2026-04-10" || it.Days[1].Date != "2026-04-11" {
		t.Fatalf("dates not extracted: %+v", it.Days)
	}
	if len(it.Days[0].Activities) != 2 || it.Days[0].Activities[0].Time != "09:00" {
		t.Fatalf("activities not extracted: %+v", it.Days[0].Activities)
	}
	if it.StartDate != "2026-04-10" || it.EndDate != "2026-04-11" {
		t.Fatalf("trip dates = %q..%q", it.StartDate, it.EndDate)
	}
	if result.Metadata.Confidence < 0.8 {
		t.Fatalf("confidence = %.2f", result.Metadata.Confidence)
	}
}

func TestParseStructuredTextItinerary(t *testing.T) {
	parser := newTestParser(t)

	content := strings.Join([]string{
		"Itinerary: Kyoto",
		"Day 1: Arrival (2026-05-01)",
		"- 09:00 - Fushimi Inari Shrine",
		"- 14:00 - Gion district walk",
		"Day 2: Temples (2026-05-02)",
		"- 10:00 - Kinkaku-ji",
	}, "\n")

	result := parser.Parse(content, nil, nil)
	if !result.Success {
		t.Fatalf("parse failed: %+v", result.Errors)
	}
	if result.Metadata.ParseMethod != domain.ParseStructuredText {
		t.Fatalf("parse method = %s", result.Metadata.ParseMethod)
	}
	it := result.Data
	if it.Destination != "Kyoto" {
		t.Fatalf("destination = %q", it.Destination)
	}
	if len(it.Days) != 2 || it.Days[0].Title != "Arrival" {
		t.Fatalf("days: %+v", it.Days)
	}
	if it.Days[0].Activities[0].Time != "09:00" || it.Days[0].Activities[0].Title != "Fushimi Inari Shrine" {
		t.Fatalf("activities: %+v", it.Days[0].Activities)
	}
}

func TestParseWarningsLowerConfidence(t *testing.T) {
	parser := newTestParser(t)

	content := `{
	  "title": "Tokyo Adventure",
	  "destination": "Tokyo, Japan",
	  "startDate": "April 10th",
	  "endDate": "2026-04-10",
	  "totalDays": 3,
	  "totalCost": {"amount": 250, "currency": "USD"},
	  "days": [{"day": 1, "date": "2026-04-10", "activities": []}],
	  "travelers": {"adults": 2, "children": 0, "infants": 0}
	}`

	result := parser.Parse(content, nil, nil)
	if !result.Success {
		t.Fatalf("parse failed: %+v", result.Errors)
	}
	if len(result.Warnings) != 2 {
		t.Fatalf("warnings = %+v, want startDate format and totalDays mismatch", result.Warnings)
	}
	want := 1.0 - 0.02*2
	if diff := result.Metadata.Confidence - want; diff > 0.001 || diff < -0.001 {
		t.Fatalf("confidence = %.3f, want %.3f", result.Metadata.Confidence, want)
	}
}

func TestParseReconstructsFromFreeText(t *testing.T) {
	parser := newTestParser(t)

	content := "We suggest a trip to Paris from 2026-06-01 through 2026-06-03 with plenty of walking."
	result := parser.Parse(content, nil, nil)
	if !result.Success {
		t.Fatalf("reconstruction should succeed: %+v", result.Errors)
	}
	if result.Metadata.ParseMethod != domain.ParseReconstruction {
		t.Fatalf("parse method = %s", result.Metadata.ParseMethod)
	}
	if result.Metadata.Confidence != reconstructionConfidence {
		t.Fatalf("confidence = %.2f, want %.2f", result.Metadata.Confidence, reconstructionConfidence)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("reconstruction must carry a degradation warning")
	}
	it := result.Data
	if it.Destination != "Paris" {
		t.Fatalf("destination = %q", it.Destination)
	}
	if len(it.Days) != 1 || it.StartDate != "2026-06-01" || it.EndDate != "2026-06-03" {
		t.Fatalf("reconstructed shape: %+v", it)
	}
}

func TestParseGibberishNeverPanics(t *testing.T) {
	parser := newTestParser(t)

	for _, content := range []string{"", "zzz qqq xyzzy", "{{{{", `{"title": "x"}`} {
		result := parser.Parse(content, nil, nil)
		if result.Success {
			if result.Metadata.ParseMethod != domain.ParseReconstruction {
				t.Fatalf("%q: unexpected strategy success %s", content, result.Metadata.ParseMethod)
			}
			if result.Metadata.Confidence > reconstructionConfidence {
				t.Fatalf("%q: confidence %.2f above reconstruction cap", content, result.Metadata.Confidence)
			}
			if len(result.Warnings) == 0 {
				t.Fatalf("%q: degraded success without warnings", content)
			}
			continue
		}
		if len(result.Errors) == 0 {
			t.Fatalf("%q: failure without errors", content)
		}
	}
}

func TestParseRejectsInvalidCandidateBeforeReconstruction(t *testing.T) {
	parser := newTestParser(t)

	// Valid JSON but missing required itinerary fields, and no recoverable
	// destination or dates in the surrounding text.
	result := parser.Parse(`{"title": "Mystery"}`, nil, nil)
	if result.Success {
		t.Fatalf("expected failure, got %+v", result)
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected schema errors")
	}
}
