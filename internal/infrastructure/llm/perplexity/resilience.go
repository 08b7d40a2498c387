package perplexity

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/tripforge/itinerary-ai/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "perplexity status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("perplexity %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("perplexity %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// NewClassifyFunc bridges client errors into the shared rule-table
// classifier, attaching the HTTP status when the failure carries one so
// the status rules apply before message matching.
func NewClassifyFunc(classifier *resilience.Classifier) resilience.ClassifyFunc {
	return func(err error) resilience.ClassifiedError {
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) {
			return classifier.Classify(err, &resilience.HTTPContext{
				StatusCode: statusErr.StatusCode,
				Endpoint:   statusErr.Operation,
			})
		}

		class := classifier.Classify(err, nil)
		var netErr net.Error
		if class.Kind == resilience.KindUnknown && errors.As(err, &netErr) {
			class.Kind = resilience.KindNetwork
			class.Retryable = true
		}
		return class
	}
}
