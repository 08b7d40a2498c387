package domain

import "time"

type CitationType string

const (
	CitationOfficialTourism CitationType = "official_tourism"
	CitationGovernment      CitationType = "government"
	CitationNews            CitationType = "news"
	CitationTravelGuide     CitationType = "travel_guide"
	CitationBooking         CitationType = "booking"
	CitationReview          CitationType = "review"
	CitationBlog            CitationType = "blog"
	CitationSocial          CitationType = "social"
	CitationReference       CitationType = "reference"
	CitationUnknown         CitationType = "unknown"
)

// Citation is a deduplicated source reference attached to a generated
// itinerary. Quality is assessed once, at parse time.
type Citation struct {
	ID          string          `json:"id"`
	URL         string          `json:"url"`
	Title       string          `json:"title"`
	Domain      string          `json:"domain"`
	Snippet     string          `json:"snippet,omitempty"`
	AccessDate  time.Time       `json:"access_date"`
	PublishDate *time.Time      `json:"publish_date,omitempty"`
	Author      string          `json:"author,omitempty"`
	SiteName    string          `json:"site_name,omitempty"`
	Type        CitationType    `json:"type"`
	Quality     CitationQuality `json:"quality"`
}

type CitationQuality struct {
	Score           float64  `json:"score"`
	Factors         []string `json:"factors,omitempty"`
	Issues          []string `json:"issues,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}
