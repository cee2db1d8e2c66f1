package session

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/coxswain-io/coxswain/mesos"
)

var (
	// ErrNotDisconnected is returned when Connect is attempted while a
	// session is already connecting or connected.
	ErrNotDisconnected = errors.New("connect requires a disconnected session")

	// ErrNotConnected is returned when launch, kill or a stop operation
	// is attempted without a connected session.
	ErrNotConnected = errors.New("operation requires a connected session")

	// ErrDisconnected is returned when decline is attempted on a
	// disconnected session.
	ErrDisconnected = errors.New("decline requires a live session")

	// ErrConnectTimeout is the domain mapping of a connect subscription
	// timeout.
	ErrConnectTimeout = errors.New("connection attempt timed out")

	// ErrLaunchTimeout is the domain mapping of a launch watch timeout.
	ErrLaunchTimeout = errors.New("task launch attempt timed out")

	// ErrKillTimeout is the domain mapping of a kill watch timeout.
	ErrKillTimeout = errors.New("task kill timed out")

	// ErrDriverNotRunning is returned on the connect result when the
	// driver fails to start.
	ErrDriverNotRunning = errors.New("driver is not running after start")

	// ErrConnectionLost is returned on the connect result when the
	// session disconnects before registration completes.
	ErrConnectionLost = errors.New("disconnected before registration completed")

	// ErrSessionStopped fails launch and kill results whose watches were
	// unsubscribed by a stop operation.
	ErrSessionStopped = errors.New("session stopped while task watch pending")

	// ErrStopStateChanged is raised when the session state was mutated
	// underneath a stop operation.
	ErrStopStateChanged = errors.New("session state changed during stop teardown")
)

// MasterError carries a master-side error message surfaced during an
// operation.
type MasterError struct {
	Message string
}

func (e *MasterError) Error() string {
	return fmt.Sprintf("master error: %s", e.Message)
}

// TaskFailedError reports a task that entered an unexpected state while
// a launch or kill watch was pending.
type TaskFailedError struct {
	TaskID  mesos.TaskID
	State   mesos.TaskState
	Message string
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf(
		"task %s entered state %s: %s", e.TaskID, e.State, e.Message)
}
