package parsing

import "github.com/tripforge/itinerary-ai/internal/core/domain"

// itineraryPayload is the wire shape the model is prompted to emit. The
// field names are camelCase on the wire and converted to domain objects
// after validation.
type itineraryPayload struct {
	Title       string           `json:"title"`
	Destination string           `json:"destination"`
	StartDate   string           `json:"startDate"`
	EndDate     string           `json:"endDate"`
	TotalDays   int              `json:"totalDays"`
	TotalCost   costPayload      `json:"totalCost"`
	Days        []dayPayload     `json:"days"`
	Travelers   travelersPayload `json:"travelers"`
}

type costPayload struct {
	Amount    float64            `json:"amount"`
	Currency  string             `json:"currency"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

type dayPayload struct {
	Day        int               `json:"day"`
	Date       string            `json:"date"`
	Title      string            `json:"title,omitempty"`
	Activities []activityPayload `json:"activities"`
	TotalCost  float64           `json:"totalCost,omitempty"`
}

type activityPayload struct {
	Time        string  `json:"time,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Location    string  `json:"location,omitempty"`
	Duration    string  `json:"duration,omitempty"`
	Cost        float64 `json:"cost,omitempty"`
	Category    string  `json:"category,omitempty"`
}

type travelersPayload struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

func (p itineraryPayload) toDomain() *domain.Itinerary {
	days := make([]domain.ItineraryDay, 0, len(p.Days))
	for _, d := range p.Days {
		activities := make([]domain.Activity, 0, len(d.Activities))
		for _, a := range d.Activities {
			activities = append(activities, domain.Activity{
				Time:        a.Time,
				Title:       a.Title,
				Description: a.Description,
				Location:    a.Location,
				Duration:    a.Duration,
				Cost:        a.Cost,
				Category:    a.Category,
			})
		}
		days = append(days, domain.ItineraryDay{
			Day:        d.Day,
			Date:       d.Date,
			Title:      d.Title,
			Activities: activities,
			TotalCost:  d.TotalCost,
		})
	}
	return &domain.Itinerary{
		Title:       p.Title,
		Destination: p.Destination,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		TotalDays:   p.TotalDays,
		TotalCost: domain.Cost{
			Amount:    p.TotalCost.Amount,
			Currency:  p.TotalCost.Currency,
			Breakdown: p.TotalCost.Breakdown,
		},
		Days: days,
		Travelers: domain.Travelers{
			Adults:   p.Travelers.Adults,
			Children: p.Travelers.Children,
			Infants:  p.Travelers.Infants,
		},
	}
}
