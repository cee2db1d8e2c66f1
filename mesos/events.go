package mesos

import (
	"github.com/coxswain-io/coxswain/common/eventbus"
)

// RegisteredEvent is published once the master acknowledges the
// framework subscription.
type RegisteredEvent struct {
	FrameworkID FrameworkID
	Master      MasterInfo
}

// DisconnectedEvent is published when the event stream to the master is
// severed.
type DisconnectedEvent struct{}

// ErrorEvent carries a master-side error message.
type ErrorEvent struct {
	Message string
}

// OffersEvent carries one or more resource offers.
type OffersEvent struct {
	Offers []*Offer
}

// TaskUpdateEvent reports a task state transition.
type TaskUpdateEvent struct {
	TaskID  TaskID
	State   TaskState
	Message string
}

// IsConnectionEvent accepts the events that can resolve a connection
// attempt: registration, disconnection, or a master error.
func IsConnectionEvent(ev eventbus.Event) bool {
	switch ev.(type) {
	case *RegisteredEvent, *DisconnectedEvent, *ErrorEvent:
		return true
	}
	return false
}

// IsOffersEvent accepts offer events.
func IsOffersEvent(ev eventbus.Event) bool {
	_, ok := ev.(*OffersEvent)
	return ok
}

// IsTaskUpdateFor returns a filter accepting task updates for the given
// task only.
func IsTaskUpdateFor(id TaskID) eventbus.Filter {
	return func(ev eventbus.Event) bool {
		update, ok := ev.(*TaskUpdateEvent)
		return ok && update.TaskID == id
	}
}
