package eventbus

import (
	"github.com/uber-go/tally"
)

// Metrics tracks internal state of the event bus.
type Metrics struct {
	Published         tally.Counter
	Delivered         tally.Counter
	Dropped           tally.Counter
	Timeouts          tally.Counter
	PublishAfterClose tally.Counter

	Subscribers tally.Gauge
}

// NewMetrics returns a new Metrics struct, with all metrics initialized
// and rooted at the given tally.Scope.
func NewMetrics(scope tally.Scope) *Metrics {
	return &Metrics{
		Published:         scope.Counter("published"),
		Delivered:         scope.Counter("delivered"),
		Dropped:           scope.Counter("dropped"),
		Timeouts:          scope.Counter("timeouts"),
		PublishAfterClose: scope.Counter("publish_after_close"),
		Subscribers:       scope.Gauge("subscribers"),
	}
}
