// Package conn manages the lifecycle of a client transport connection:
// the connectivity state machine, backoff-driven reconnection and the
// idle tracking that closes connections nobody is using.
package conn

// ConnectivityState describes where a managed connection currently is in
// its lifecycle. Shutdown is terminal: once entered, no other state is
// reachable.
type ConnectivityState int

const (
	// Idle means no connection exists and none is being attempted.
	Idle ConnectivityState = iota
	// Connecting means a dial or handshake is in flight.
	Connecting
	// Ready means the transport is established and usable for streams.
	Ready
	// TransientFailure means the last attempt failed and a redial is
	// pending on the backoff schedule.
	TransientFailure
	// Shutdown means the connection is permanently closed.
	Shutdown
)

func (s ConnectivityState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case TransientFailure:
		return "transientFailure"
	case Shutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state can never be left again.
func (s ConnectivityState) Terminal() bool {
	return s == Shutdown
}
