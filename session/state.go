package session

// State is the lifecycle state of a framework session. All transitions
// go through compare-and-set on the manager's atomic state word.
type State int32

const (
	// Disconnected is the initial state; no driver loop is live.
	Disconnected State = iota
	// Connecting means the driver was started and the session awaits
	// registration.
	Connecting
	// Connected means the master acknowledged the framework
	// subscription.
	Connected
	// Disconnecting means a stop operation is draining the session.
	Disconnecting
)

var stateNames = map[State]string{
	Disconnected:  "DISCONNECTED",
	Connecting:    "CONNECTING",
	Connected:     "CONNECTED",
	Disconnecting: "DISCONNECTING",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}
