package session

import (
	"github.com/uber-go/tally"
)

// Metrics is the struct containing all the counters that track internal
// state of the session manager.
type Metrics struct {
	Connect     tally.Counter
	ConnectFail tally.Counter

	TaskLaunch     tally.Counter
	TaskLaunchFail tally.Counter

	TaskKill     tally.Counter
	TaskKillFail tally.Counter

	OfferDecline     tally.Counter
	OfferDeclineFail tally.Counter

	SessionStop tally.Counter

	TaskWatches    tally.Gauge
	PendingWatches tally.Gauge
}

// NewMetrics returns a new Metrics struct, with all metrics initialized
// and rooted at the given tally.Scope.
func NewMetrics(scope tally.Scope) *Metrics {
	successScope := scope.Tagged(map[string]string{"result": "success"})
	failScope := scope.Tagged(map[string]string{"result": "fail"})

	return &Metrics{
		Connect:     successScope.Counter("connect"),
		ConnectFail: failScope.Counter("connect"),

		TaskLaunch:     successScope.Counter("launch"),
		TaskLaunchFail: failScope.Counter("launch"),

		TaskKill:     successScope.Counter("kill"),
		TaskKillFail: failScope.Counter("kill"),

		OfferDecline:     successScope.Counter("decline"),
		OfferDeclineFail: failScope.Counter("decline"),

		SessionStop: scope.Counter("stop"),

		TaskWatches:    scope.Gauge("task_watches"),
		PendingWatches: scope.Gauge("pending_watches"),
	}
}
