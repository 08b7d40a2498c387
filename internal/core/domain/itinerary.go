package domain

import "time"

// PlanRequest captures what the caller wants generated.
type PlanRequest struct {
	Destination string    `json:"destination"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Travelers   Travelers `json:"travelers"`
	Interests   []string  `json:"interests,omitempty"`
	Budget      string    `json:"budget,omitempty"`
}

type Travelers struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

type Cost struct {
	Amount    float64            `json:"amount"`
	Currency  string             `json:"currency"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

type Activity struct {
	Time        string  `json:"time,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Location    string  `json:"location,omitempty"`
	Duration    string  `json:"duration,omitempty"`
	Cost        float64 `json:"cost,omitempty"`
	Category    string  `json:"category,omitempty"`
}

type ItineraryDay struct {
	Day        int        `json:"day"`
	Date       string     `json:"date"`
	Title      string     `json:"title,omitempty"`
	Activities []Activity `json:"activities"`
	TotalCost  float64    `json:"total_cost,omitempty"`
}

// Itinerary is the domain object the pipeline produces. TotalDays is expected
// to equal len(Days) but the parser only warns on a mismatch; consumers
// clone-and-modify, the pipeline never mutates a stored itinerary in place.
type Itinerary struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Destination string            `json:"destination"`
	StartDate   string            `json:"start_date"`
	EndDate     string            `json:"end_date"`
	TotalDays   int               `json:"total_days"`
	TotalCost   Cost              `json:"total_cost"`
	Days        []ItineraryDay    `json:"days"`
	Travelers   Travelers         `json:"travelers"`
	Metadata    ItineraryMetadata `json:"metadata"`
}

type ItineraryMetadata struct {
	GeneratedAt      time.Time  `json:"generated_at"`
	Model            string     `json:"model,omitempty"`
	Citations        []string   `json:"citations,omitempty"`
	RelatedQuestions []string   `json:"related_questions,omitempty"`
	CitationData     []Citation `json:"citation_data,omitempty"`
}
