package conn

// StateDelegate observes every connectivity transition of a managed
// connection. Calls arrive on the connection's executor, one at a time.
type StateDelegate interface {
	ConnectivityChanged(old, new ConnectivityState)
}

// StateDelegateFunc adapts a function to the StateDelegate interface.
type StateDelegateFunc func(old, new ConnectivityState)

func (f StateDelegateFunc) ConnectivityChanged(old, new ConnectivityState) {
	f(old, new)
}

// StateMonitor holds the connectivity state and fans transitions out to a
// persistent delegate and to one-shot callbacks. It is confined to the
// connection's executor and therefore unsynchronized.
type StateMonitor struct {
	state    ConnectivityState
	delegate StateDelegate
	onNext   map[ConnectivityState][]func()
}

// NewStateMonitor creates a monitor starting in Idle. delegate may be nil.
func NewStateMonitor(delegate StateDelegate) *StateMonitor {
	return &StateMonitor{
		state:    Idle,
		delegate: delegate,
		onNext:   make(map[ConnectivityState][]func()),
	}
}

// State returns the current connectivity state.
func (m *StateMonitor) State() ConnectivityState {
	return m.state
}

// OnNext registers fn to run the next time the monitor enters state. The
// registration is consumed by that one transition; observing a later
// occurrence needs a new registration.
func (m *StateMonitor) OnNext(state ConnectivityState, fn func()) {
	if fn == nil {
		return
	}
	m.onNext[state] = append(m.onNext[state], fn)
}

// ToState moves the monitor to next and reports whether anything changed.
// Setting the current state again is a no-op, and leaving Shutdown is
// refused. On a real change the delegate sees (old, next) first, then the
// one-shot callbacks for next fire in registration order and are cleared.
func (m *StateMonitor) ToState(next ConnectivityState) bool {
	if next == m.state {
		return false
	}
	if m.state.Terminal() {
		return false
	}

	old := m.state
	m.state = next

	if m.delegate != nil {
		m.delegate.ConnectivityChanged(old, next)
	}

	if fns := m.onNext[next]; len(fns) > 0 {
		delete(m.onNext, next)
		for _, fn := range fns {
			fn()
		}
	}
	return true
}
