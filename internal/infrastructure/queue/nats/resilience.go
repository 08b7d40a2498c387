package nats

import (
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
	"github.com/tripforge/itinerary-ai/internal/infrastructure/resilience"
)

// newClassifyFunc maps well-known transient NATS errors onto the network
// kind before falling through to the shared rule table.
func newClassifyFunc(classifier *resilience.Classifier) resilience.ClassifyFunc {
	return func(err error) resilience.ClassifiedError {
		class := classifier.Classify(err, nil)
		if class.Kind != resilience.KindUnknown {
			return class
		}
		if errors.Is(err, nats.ErrNoServers) ||
			errors.Is(err, nats.ErrTimeout) ||
			errors.Is(err, nats.ErrConnectionClosed) ||
			errors.Is(err, nats.ErrDisconnected) {
			class.Kind = resilience.KindNetwork
			class.Retryable = true
		}
		return class
	}
}

func wrapTemporaryIfNeeded(err error, classify resilience.ClassifyFunc) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classify(err).Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	}
	return err
}
