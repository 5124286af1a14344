// Package command defines the contract between the connection core and the
// units of work it dispatches: a Command carries an outbound RESP payload
// and an optional Output sink for the decoded reply. The core treats
// Command as opaque beyond this contract; each Command encodes itself
// (Encode), and decoding lives elsewhere (package resp).
package command

import (
	"bufio"
	"sync/atomic"
)

var nextID uint64

// NewID mints a process-wide monotonic command identity. Commands compare
// by identity, never by value, so two commands built from equal arguments
// remain distinguishable in the dispatch queue and holding buffer.
func NewID() uint64 {
	return atomic.AddUint64(&nextID, 1)
}

// Output consumes the decoded tokens of a single RESP reply. A command
// without an Output is fire-and-forget: the core completes it the moment
// it is handed to the transport, without waiting on a server reply.
type Output interface {
	// SetErr marks the output with a protocol or server error. Further
	// token calls for the same reply are undefined and ignored.
	SetErr(msg string)

	// SetStatus records a RESP simple string (+OK\r\n and friends).
	SetStatus(status string)

	// SetInt records a RESP integer reply.
	SetInt(n int64)

	// SetBulk records a RESP bulk string. ok is false for the null bulk
	// reply ($-1\r\n), in which case b is nil.
	SetBulk(b []byte, ok bool)

	// BeginArray announces an upcoming RESP array of n bulk-string
	// elements. n is -1 for the null array (*-1\r\n).
	BeginArray(n int)
}

// Command is the unit of work the core writes to the transport and
// correlates with an inbound reply. Completion happens exactly once, by
// whichever of Complete, Fail, or Cancel runs first; subsequent calls are
// no-ops.
type Command interface {
	// ID returns the command's identity, used for queue membership tests.
	ID() uint64

	// Output returns the reply sink, or nil for fire-and-forget commands.
	Output() Output

	// Encode writes the RESP request form of the command to w. Called by
	// the transport layer, never by the core.
	Encode(w *bufio.Writer) error

	// Complete finishes the command normally. A no-op if already terminal.
	Complete()

	// Fail finishes the command exceptionally with cause. A no-op if
	// already terminal.
	Fail(cause error)

	// Cancel finishes the command without a result, flagging IsCancelled.
	// A no-op if already terminal.
	Cancel()

	// IsCancelled reports whether Cancel produced this command's terminal
	// state.
	IsCancelled() bool

	// Done returns a channel closed once the command reaches a terminal
	// state, letting a caller block on its own command without a type
	// assertion back to a concrete implementation.
	Done() <-chan struct{}

	// Err returns the completion cause recorded by Fail, if any, valid
	// once Done is closed.
	Err() error
}
