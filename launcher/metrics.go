package launcher

import (
	"github.com/uber-go/tally"
)

// Metrics is the struct containing all the counters that track internal
// state of the task launcher.
type Metrics struct {
	SubmitSuccess tally.Counter
	SubmitFail    tally.Counter

	OffersAccepted tally.Counter
	OffersDeclined tally.Counter

	FilterRejects  tally.Counter
	FilterPanics   tally.Counter
	LaunchRejected tally.Counter

	ProcessBatchDuration tally.Timer
}

// NewMetrics returns a new Metrics struct, with all metrics initialized
// and rooted at the given tally.Scope.
func NewMetrics(scope tally.Scope) *Metrics {
	successScope := scope.Tagged(map[string]string{"result": "success"})
	failScope := scope.Tagged(map[string]string{"result": "fail"})
	offerScope := scope.SubScope("offers")

	return &Metrics{
		SubmitSuccess: successScope.Counter("submit"),
		SubmitFail:    failScope.Counter("submit"),

		OffersAccepted: offerScope.Counter("accepted"),
		OffersDeclined: offerScope.Counter("declined"),

		FilterRejects:  scope.Counter("filter_rejects"),
		FilterPanics:   scope.Counter("filter_panics"),
		LaunchRejected: scope.Counter("launch_rejected"),

		ProcessBatchDuration: scope.Timer("process_batch_duration"),
	}
}
