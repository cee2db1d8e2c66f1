package mesos

import (
	"github.com/coxswain-io/coxswain/common/async"
	"github.com/coxswain-io/coxswain/common/eventbus"
)

// Status is the driver status word returned by lifecycle calls.
type Status int

const (
	// DriverNotStarted means Start has not been called or reported a
	// failure.
	DriverNotStarted Status = iota
	// DriverRunning means the driver's internal loop is live.
	DriverRunning
	// DriverAborted means Abort tore the driver down.
	DriverAborted
	// DriverStopped means Stop completed.
	DriverStopped
)

var statusNames = map[Status]string{
	DriverNotStarted: "DRIVER_NOT_STARTED",
	DriverRunning:    "DRIVER_RUNNING",
	DriverAborted:    "DRIVER_ABORTED",
	DriverStopped:    "DRIVER_STOPPED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "DRIVER_UNKNOWN"
}

// IsRunning reports whether the driver loop is live.
func (s Status) IsRunning() bool {
	return s == DriverRunning
}

// Driver is the low-level command surface to the master. It serializes
// calls onto the wire and deserializes callbacks into events on the bus
// returned by Events. Implementations must be safe for concurrent
// command invocation.
type Driver interface {
	// Start brings up the driver's internal loop and initiates the
	// framework subscription.
	Start() Status

	// Stop tears the session down. With failover true the master keeps
	// tasks running so a replacement framework instance can pick them
	// up; with failover false tasks are killed.
	Stop(failover bool)

	// Abort tears the driver down without deactivating the framework.
	Abort()

	// Join blocks until the driver's internal loop exits and returns
	// the final status. Run it on an executor that tolerates blocking.
	Join() Status

	// LaunchTasks launches the given tasks against the given offers.
	LaunchTasks(offerIDs []OfferID, tasks []TaskInfo) error

	// DeclineOffer returns an unused offer to the master.
	DeclineOffer(offerID OfferID) error

	// KillTask asks the master to kill a launched task.
	KillTask(taskID TaskID) error

	// Events returns the bus the driver publishes callback events on.
	Events() *eventbus.Bus

	// Executor returns a worker pool that tolerates blocking jobs,
	// used for Join.
	Executor() *async.Pool
}
