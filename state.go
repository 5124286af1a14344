package redisconn

import "sync"

// LifecycleState is the coarse phase of the handler's relationship with a
// single transport attachment (spec §4.1). CLOSED is terminal: once
// reached, no further transition is ever observed.
type LifecycleState int

const (
	NotConnected LifecycleState = iota
	Registered
	Connected
	Activating
	Active
	Disconnected
	Deactivating
	Deactivated
	Closed
)

func (s LifecycleState) String() string {
	switch s {
	case NotConnected:
		return "not connected"
	case Registered:
		return "registered"
	case Connected:
		return "connected"
	case Activating:
		return "activating"
	case Active:
		return "active"
	case Disconnected:
		return "disconnected"
	case Deactivating:
		return "deactivating"
	case Deactivated:
		return "deactivated"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// lifecycle guards LifecycleState transitions and the current transport
// reference under one mutex, distinct from the write lock, to avoid
// lock-ordering hazards between producers submitting commands and the I/O
// context driving transitions (spec §4.1, §5 "state lock").
type lifecycle struct {
	mu        sync.Mutex
	state     LifecycleState
	transport Transport
}

// set unconditionally assigns the state. Used only for the initial
// NotConnected value and from contexts that already checked for Closed.
func (l *lifecycle) set(s LifecycleState) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// setIfNotClosed transitions to s unless the current state is already
// Closed, in which case it is a no-op. This is the sole gate that makes
// Closed terminal.
func (l *lifecycle) setIfNotClosed(s LifecycleState) {
	l.mu.Lock()
	if l.state != Closed {
		l.state = s
	}
	l.mu.Unlock()
}

func (l *lifecycle) get() LifecycleState {
	l.mu.Lock()
	s := l.state
	l.mu.Unlock()
	return s
}

// isConnected reports whether the transport is still usable: true for the
// ordinal range [Connected, Disconnected] inclusive. The transport remains
// usable during the Disconnected -> Deactivating window for in-flight
// accounting, but not later.
func (l *lifecycle) isConnected() bool {
	s := l.get()
	return s >= Connected && s <= Disconnected
}

func (l *lifecycle) isClosed() bool {
	return l.get() == Closed
}

// setTransport assigns the transport reference under the state lock.
func (l *lifecycle) setTransport(t Transport) {
	l.mu.Lock()
	l.transport = t
	l.mu.Unlock()
}

// getTransport reads the transport reference under the state lock.
func (l *lifecycle) getTransport() Transport {
	l.mu.Lock()
	t := l.transport
	l.mu.Unlock()
	return t
}
