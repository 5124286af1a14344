package redisconn

import "errors"

// ErrClosed is returned synchronously from Write when the handler has
// already reached LifecycleState Closed (spec §7 ClosedConnection). The
// command is left untouched.
var ErrClosed = errors.New("redisconn: connection closed")

// errDisconnectedNoReconnect completes a command exceptionally when the
// transport is down and auto-reconnect is disabled (spec §7
// DisconnectedNoReconnect).
var errDisconnectedNoReconnect = errors.New("redisconn: disconnected, reconnect disabled")

// errActivationNoTransport guards against activation running without a
// registered transport (OnActive called before OnRegistered, or after
// OnUnregistered). The bundled transport.Conn/Dialer never triggers this:
// newConn calls OnRegistered before it starts the reactor goroutine that
// delivers OnActive. It
// exists for EventSink implementations that don't uphold that ordering.
var errActivationNoTransport = errors.New("redisconn: activation failed, no registered transport")

// errResetMsg is the output error set on commands cancelled by Reset (spec
// §7 UserReset).
const errResetMsg = "Reset"

// errConnectionClosedMsg is the output error set on commands cancelled on
// Close (spec §7 ConnectionClosed).
const errConnectionClosedMsg = "Connection closed"
