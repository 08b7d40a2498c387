package citations

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
)

// Manager turns the raw citation URLs of a search response into deduplicated,
// quality-scored citations. Scoring is an offline heuristic over the domain
// name and URL shape; nothing is fetched.
type Manager struct {
	clock func() time.Time
}

func NewManager() *Manager {
	return &Manager{clock: time.Now}
}

// Process parses, classifies, and deduplicates raw citation URLs. The
// dedup key is the domain plus the normalized derived title; the first
// occurrence wins.
func (m *Manager) Process(rawURLs []string) []domain.Citation {
	seen := make(map[string]struct{})
	out := make([]domain.Citation, 0, len(rawURLs))

	for _, raw := range rawURLs {
		citation, ok := m.build(raw)
		if !ok {
			continue
		}
		key := citation.Domain + "|" + normalizeTitle(citation.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, citation)
	}
	return out
}

func (m *Manager) build(raw string) (domain.Citation, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.Citation{}, false
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return domain.Citation{}, false
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	citation := domain.Citation{
		ID:         uuid.NewString(),
		URL:        trimmed,
		Title:      titleFromPath(parsed, host),
		Domain:     host,
		AccessDate: m.clock().UTC(),
		Type:       classifyDomain(host),
	}
	citation.Quality = assessQuality(citation, parsed)
	return citation, true
}

var domainTypes = map[string]domain.CitationType{
	"japan.travel":       domain.CitationOfficialTourism,
	"visitbritain.com":   domain.CitationOfficialTourism,
	"france.fr":          domain.CitationOfficialTourism,
	"spain.info":         domain.CitationOfficialTourism,
	"lonelyplanet.com":   domain.CitationTravelGuide,
	"fodors.com":         domain.CitationTravelGuide,
	"frommers.com":       domain.CitationTravelGuide,
	"timeout.com":        domain.CitationTravelGuide,
	"atlasobscura.com":   domain.CitationTravelGuide,
	"booking.com":        domain.CitationBooking,
	"expedia.com":        domain.CitationBooking,
	"airbnb.com":         domain.CitationBooking,
	"hotels.com":         domain.CitationBooking,
	"tripadvisor.com":    domain.CitationReview,
	"yelp.com":           domain.CitationReview,
	"wikipedia.org":      domain.CitationReference,
	"wikivoyage.org":     domain.CitationReference,
	"nytimes.com":        domain.CitationNews,
	"theguardian.com":    domain.CitationNews,
	"bbc.com":            domain.CitationNews,
	"cnn.com":            domain.CitationNews,
	"reddit.com":         domain.CitationSocial,
	"instagram.com":      domain.CitationSocial,
	"facebook.com":       domain.CitationSocial,
	"x.com":              domain.CitationSocial,
	"medium.com":         domain.CitationBlog,
	"substack.com":       domain.CitationBlog,
}

func classifyDomain(host string) domain.CitationType {
	if t, ok := domainTypes[host]; ok {
		return t
	}
	for suffixDomain, t := range domainTypes {
		if strings.HasSuffix(host, "."+suffixDomain) {
			return t
		}
	}
	switch {
	case strings.HasSuffix(host, ".gov") || strings.Contains(host, ".gov."):
		return domain.CitationGovernment
	case strings.HasSuffix(host, ".edu"):
		return domain.CitationReference
	case strings.Contains(host, "blog"):
		return domain.CitationBlog
	default:
		return domain.CitationUnknown
	}
}

// typeReputation orders source kinds by how much weight a travel
// recommendation should give them.
var typeReputation = map[domain.CitationType]float64{
	domain.CitationGovernment:      0.95,
	domain.CitationOfficialTourism: 0.9,
	domain.CitationReference:       0.8,
	domain.CitationNews:            0.75,
	domain.CitationTravelGuide:     0.7,
	domain.CitationBooking:         0.6,
	domain.CitationReview:          0.55,
	domain.CitationBlog:            0.4,
	domain.CitationSocial:          0.3,
	domain.CitationUnknown:         0.4,
}

func assessQuality(citation domain.Citation, parsed *url.URL) domain.CitationQuality {
	quality := domain.CitationQuality{
		Score:   typeReputation[citation.Type],
		Factors: []string{fmt.Sprintf("source type %s", citation.Type)},
	}

	if parsed.Scheme == "https" {
		quality.Score += 0.05
		quality.Factors = append(quality.Factors, "served over https")
	} else {
		quality.Issues = append(quality.Issues, "not served over https")
		quality.Recommendations = append(quality.Recommendations, "prefer an https source for this reference")
	}

	if citation.PublishDate != nil {
		age := citation.AccessDate.Sub(*citation.PublishDate)
		switch {
		case age < 90*24*time.Hour:
			quality.Score += 0.05
			quality.Factors = append(quality.Factors, "published within the last 90 days")
		case age > 2*365*24*time.Hour:
			quality.Score -= 0.1
			quality.Issues = append(quality.Issues, "published more than two years ago")
			quality.Recommendations = append(quality.Recommendations, "verify details against a newer source")
		}
	}

	switch citation.Type {
	case domain.CitationSocial:
		quality.Issues = append(quality.Issues, "social media content is unverified")
		quality.Recommendations = append(quality.Recommendations, "cross-check against an official source")
	case domain.CitationUnknown:
		quality.Issues = append(quality.Issues, "unrecognized source domain")
	}

	if quality.Score > 1 {
		quality.Score = 1
	}
	if quality.Score < 0 {
		quality.Score = 0
	}
	return quality
}

func titleFromPath(parsed *url.URL, host string) string {
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	last := ""
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			last = segments[i]
			break
		}
	}
	if last == "" {
		return host
	}
	last = strings.TrimSuffix(last, ".html")
	last = strings.ReplaceAll(last, "-", " ")
	last = strings.ReplaceAll(last, "_", " ")
	return strings.TrimSpace(last)
}

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}
