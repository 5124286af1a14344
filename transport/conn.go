// Package transport implements the duplex byte channel the connection
// core treats as an external collaborator (spec §1): a net.Conn dial,
// wrapped in buffered I/O and a single reactor goroutine, that drives
// redisconn.EventSink with registered/active/read/inactive/unregistered/
// exception events. Reconnection supervision, deliberately out of the
// core's scope, lives in Dialer below.
package transport

import (
	"bufio"
	"errors"
	"net"
	"sync"

	"github.com/relaydb/redisconn"
	"github.com/relaydb/redisconn/command"
)

// errConnClosed is the WriteCallback error delivered when a write is
// enqueued after the connection has begun shutting down.
var errConnClosed = errors.New("redisconn/transport: connection closed")

const readChunkSize = 4096

// writeRequest is one entry in a Conn's internal send queue.
type writeRequest struct {
	cmd command.Command
	cb  redisconn.WriteCallback
}

// readEvent carries one net.Conn.Read outcome from the raw network reader
// goroutine to the reactor. It never touches the EventSink itself: only
// the reactor does that, so every call into sink is made from exactly one
// goroutine for the lifetime of a Conn.
type readEvent struct {
	chunk []byte
	err   error
}

// Conn is a single physical connection attempt: one TCP/TLS socket and one
// reactor goroutine that serializes every EventSink call (OnRead,
// OnActive, OnOutboundWrite, OnInactive, OnUnregistered, OnException)
// against that socket's I/O, plus whatever work producers Submit onto it.
// A second goroutine, netReader, only ever calls nc.Read and forwards
// bytes; it never calls into sink, so the EventSink's single-threaded
// contract holds regardless of how many producer goroutines call Write,
// Flush, or Submit concurrently. It implements redisconn.Transport.
type Conn struct {
	nc   net.Conn
	addr string
	sink redisconn.EventSink

	writer *bufio.Writer

	readCh     chan readEvent
	sendCh     chan writeRequest
	flushCh    chan struct{}
	activateCh chan struct{}
	submitCh   chan func()

	closeReqCh   chan struct{}
	closeReqOnce sync.Once
	closeFuture  chan struct{}

	mu     sync.Mutex
	active bool
	closed bool
}

// newConn wraps an already-established net.Conn and starts its reactor. It
// immediately fires OnRegistered on sink, matching spec §4.7; this one call
// happens synchronously in the caller's goroutine, before any other
// goroutine exists to race it.
func newConn(nc net.Conn, sink redisconn.EventSink) *Conn {
	c := &Conn{
		nc:          nc,
		addr:        nc.RemoteAddr().String(),
		sink:        sink,
		writer:      bufio.NewWriterSize(nc, 16*1024),
		readCh:      make(chan readEvent, 16),
		sendCh:      make(chan writeRequest, 256),
		flushCh:     make(chan struct{}, 1),
		activateCh:  make(chan struct{}, 1),
		submitCh:    make(chan func(), 64),
		closeReqCh:  make(chan struct{}),
		closeFuture: make(chan struct{}),
	}

	sink.OnRegistered(c)

	go c.netReader()
	go c.reactor()

	return c
}

// MarkActive is called by Dialer once the connection is considered usable
// (immediately after connect for plain TCP, or after a handshake step a
// richer deployment might add). It schedules OnActive onto the reactor
// rather than calling it directly, since Dialer runs on its own goroutine.
func (c *Conn) MarkActive() {
	select {
	case c.activateCh <- struct{}{}:
	case <-c.closeFuture:
	}
}

func (c *Conn) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active && !c.closed
}

func (c *Conn) RemoteAddr() string {
	return c.addr
}

// closedFlag reports whether the reactor has torn the connection down, for
// tests observing the peer-initiated close path without racing the close
// future directly.
func (c *Conn) closedFlag() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Write enqueues cmd for the reactor. The reactor invokes
// sink.OnOutboundWrite immediately before encoding, matching spec §4.5.
func (c *Conn) Write(cmd command.Command, cb redisconn.WriteCallback) {
	select {
	case <-c.closeFuture:
		if cb != nil {
			cb(errConnClosed)
		}
		return
	default:
	}
	select {
	case c.sendCh <- writeRequest{cmd: cmd, cb: cb}:
	case <-c.closeFuture:
		if cb != nil {
			cb(errConnClosed)
		}
	}
}

func (c *Conn) Flush() {
	select {
	case c.flushCh <- struct{}{}:
	default:
	}
}

func (c *Conn) FireUserEvent(evt redisconn.UserEvent) {
	switch evt {
	case redisconn.EventPrepareClose:
		// No transport-level action: writes keep being accepted until
		// EventClose shuts the connection down.
	case redisconn.EventClose:
		c.requestClose()
	case redisconn.EventActivated:
		// No transport-level action; purely an upper-layer notification.
	}
}

// Submit schedules fn to run on the reactor, after whatever EventSink call
// is currently in progress unwinds.
func (c *Conn) Submit(fn func()) {
	select {
	case c.submitCh <- fn:
	case <-c.closeFuture:
	}
}

func (c *Conn) Close() <-chan struct{} {
	c.requestClose()
	return c.closeFuture
}

func (c *Conn) requestClose() {
	c.closeReqOnce.Do(func() { close(c.closeReqCh) })
}

// netReader only ever calls nc.Read and forwards outcomes to the reactor
// over readCh; it never touches sink. It exits once it has delivered a
// read error, or once the reactor has torn the connection down and closed
// closeFuture, whichever comes first.
func (c *Conn) netReader() {
	buf := make([]byte, readChunkSize)
	for {
		n, err := c.nc.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case c.readCh <- readEvent{chunk: chunk}:
			case <-c.closeFuture:
				return
			}
		}
		if err != nil {
			select {
			case c.readCh <- readEvent{err: err}:
			case <-c.closeFuture:
			}
			return
		}
	}
}

// reactor is the single goroutine that ever calls into sink: every EventSink
// method, every command Encode, and every Submit callback runs here, one at
// a time, for the lifetime of the Conn.
func (c *Conn) reactor() {
	for {
		select {
		case ev := <-c.readCh:
			if len(ev.chunk) > 0 {
				c.sink.OnRead(ev.chunk, true)
			}
			if ev.err != nil {
				if c.handleException(ev.err) {
					return
				}
			}

		case <-c.activateCh:
			c.mu.Lock()
			c.active = true
			c.mu.Unlock()
			c.sink.OnActive()

		case <-c.flushCh:
			if err := c.writer.Flush(); err != nil {
				if c.handleException(err) {
					return
				}
			}

		case req := <-c.sendCh:
			if err := c.sink.OnOutboundWrite(req.cmd); err != nil {
				if req.cb != nil {
					req.cb(err)
				}
				continue
			}
			err := req.cmd.Encode(c.writer)
			if req.cb != nil {
				req.cb(err)
			}
			if err != nil {
				if c.handleException(err) {
					return
				}
			}

		case fn := <-c.submitCh:
			fn()

		case <-c.closeReqCh:
			c.doShutdown()
			return
		}
	}
}

// handleException reports err to sink and, if sink asks the channel be
// treated as broken, tears the connection down. It returns true when the
// reactor should stop (the connection is now shut down).
func (c *Conn) handleException(err error) bool {
	if c.sink.OnException(err) {
		c.doShutdown()
		return true
	}
	return false
}

// doShutdown runs once, only ever from the reactor goroutine, either from
// closeReqCh or from handleException. Both call sites return immediately
// afterward, so it can never run twice.
func (c *Conn) doShutdown() {
	c.mu.Lock()
	c.closed = true
	c.active = false
	c.mu.Unlock()

	c.nc.Close()
	c.sink.OnInactive()
	c.sink.OnUnregistered()
	close(c.closeFuture)
}
