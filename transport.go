package redisconn

import "github.com/relaydb/redisconn/command"

// UserEvent is a pipeline-level event the core fires downward into the
// transport, mirroring the duplex-handler user events of spec §6.
type UserEvent int

const (
	EventActivated UserEvent = iota
	EventPrepareClose
	EventClose
)

// WriteCallback is invoked once a single write's outcome is known. nil err
// means the transport accepted the bytes; used only for the AT_MOST_ONCE
// per-write completion listener of spec §4.9. A nil WriteCallback is the
// "void promise" of spec §4.4 step 3's AT_LEAST_ONCE branch.
type WriteCallback func(err error)

// Transport is the duplex byte channel the core writes commands to and
// reads replies from. It is deliberately out of THE CORE's scope (spec §1):
// this interface is its entire contract. Implementations live in package
// transport.
type Transport interface {
	// IsActive reports whether the transport's handshake has completed
	// and it currently accepts writes.
	IsActive() bool

	// RemoteAddr returns the peer address, used only for log prefixes.
	RemoteAddr() string

	// Write hands cmd's encoded bytes to the transport's send buffer
	// without necessarily flushing them on the wire. cb is nil for a
	// void promise.
	Write(cmd command.Command, cb WriteCallback)

	// Flush forces any buffered writes onto the wire.
	Flush()

	// FireUserEvent sends a pipeline-level user event downward.
	FireUserEvent(evt UserEvent)

	// Submit schedules fn to run on the I/O context after the current
	// handler chain unwinds (spec §5 "Events fired via
	// eventLoop().submit(...)").
	Submit(fn func())

	// Close requests the transport close and returns a future that
	// closes once the close has completed.
	Close() <-chan struct{}
}

// EventSink is the capability set a Transport drives (spec Design Notes
// §9's replacement for duplex-handler inheritance): registered, active,
// read, inactive, unregistered, exception. Handler implements it.
type EventSink interface {
	OnRegistered(t Transport)
	OnActive()
	OnRead(chunk []byte, readable bool)
	OnInactive()
	OnUnregistered()

	// OnException reports a transport-level error. The bool return is
	// the spec §4.7 "propagate" signal: true means the cause was not
	// absorbed into the cached connection error and the transport
	// should treat the channel as broken (closing it, which in turn
	// drives OnInactive/OnUnregistered the normal way).
	OnException(cause error) bool

	// OnOutboundWrite is the transport-adjacent write hook of spec §4.5,
	// called by the transport the moment it accepts cmd off its internal
	// send queue, immediately before encoding it onto the wire. It is
	// the sole entry point that extends the dispatch queue.
	OnOutboundWrite(cmd command.Command) error
}
