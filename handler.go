// Package redisconn implements the core of a client-side Redis protocol
// connection handler: the write path, the decode path, the dispatch
// queue/holding buffer discipline, the lifecycle state machine, and the
// reliability policy that mediate between an application-facing command
// issuer and a byte-oriented duplex transport.
package redisconn

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relaydb/redisconn/command"
)

// UpperHandler receives lifecycle notifications once a transport has
// (re)activated or deactivated (spec §6 "set_upper_handler").
type UpperHandler interface {
	Activated()
	Deactivated()
}

// Handler is THE CORE described by the specification. It is safe for
// concurrent use by any number of producer goroutines; exactly one I/O
// context is expected to deliver transport events.
type Handler struct {
	opts *Options
	mode ReliabilityMode
	log  *logrus.Logger

	lc lifecycle

	writeMu sync.Mutex // write lock: §4.4, §4.8, §4.10

	q cmdQueue // dispatch queue Q
	h cmdQueue // holding buffer H

	dec *decoderAdapter // inbound buffer B + decoder, nil outside registration

	errMu sync.Mutex
	connErr error // cached connection error E

	upperMu sync.Mutex
	upper   UpperHandler

	pingStop chan struct{} // non-nil while a liveness prober is running

	timeoutMu sync.Mutex
	timeouts  map[uint64]*time.Timer

	activityMu sync.Mutex
	lastActivity time.Time
}

// New constructs a Handler. It does not own a transport until OnRegistered
// is invoked by the I/O context.
func New(opts ...Option) *Handler {
	o := newOptions(opts...)
	h := &Handler{
		opts:     o,
		mode:     o.reliabilityMode(),
		log:      o.logger,
		timeouts: make(map[uint64]*time.Timer),
	}
	h.lc.set(NotConnected)
	return h
}

// SetUpperHandler registers the optional upper-layer handler invoked with
// Activated/Deactivated callbacks (spec §6).
func (h *Handler) SetUpperHandler(u UpperHandler) {
	h.upperMu.Lock()
	h.upper = u
	h.upperMu.Unlock()
}

func (h *Handler) upperHandler() UpperHandler {
	h.upperMu.Lock()
	u := h.upper
	h.upperMu.Unlock()
	return u
}

// IsClosed reports whether the handler has reached LifecycleState Closed.
func (h *Handler) IsClosed() bool {
	return h.lc.isClosed()
}

// State returns the current lifecycle state, for observability only.
func (h *Handler) State() LifecycleState {
	return h.lc.get()
}

func (h *Handler) currentTransport() Transport {
	return h.lc.getTransport()
}

func (h *Handler) cachedErr() error {
	h.errMu.Lock()
	e := h.connErr
	h.errMu.Unlock()
	return e
}

func (h *Handler) setCachedErr(err error) {
	h.errMu.Lock()
	h.connErr = err
	h.errMu.Unlock()
}

func (h *Handler) clearCachedErr() {
	h.setCachedErr(nil)
}

func (h *Handler) publishQueueMetrics() {
	h.opts.metrics.setQueueLengths(h.q.len(), h.h.len())
}

// Write is the application-facing entry point (spec §4.4). It returns cmd
// unchanged; failures are surfaced either synchronously (ErrClosed) or via
// cmd's own completion.
func (h *Handler) Write(cmd command.Command) (command.Command, error) {
	// Pre-checks, no lock.
	if h.lc.isClosed() {
		return cmd, ErrClosed
	}

	transport := h.currentTransport()
	if (transport == nil || !h.lc.isConnected()) && !h.opts.autoReconnect {
		cmd.Fail(errDisconnectedNoReconnect)
		h.logEntry().WithError(errDisconnectedNoReconnect).Debug("write failed: disconnected, reconnect disabled")
		return cmd, nil
	}

	start := time.Now()
	h.writeMu.Lock()
	h.opts.metrics.observeWriteLockWait(time.Since(start).Seconds())
	defer h.writeMu.Unlock()

	h.writeLocked(cmd)
	return cmd, nil
}

// writeLocked performs the write-path critical section of spec §4.4 step
// 3/4. The caller must hold writeMu.
func (h *Handler) writeLocked(cmd command.Command) {
	transport := h.currentTransport()

	if transport != nil && h.lc.isConnected() && transport.IsActive() {
		h.logEntry().WithField("cmd_id", cmd.ID()).Debug("write: transport active, writing through")
		h.opts.metrics.incWritten()

		switch h.mode {
		case AtMostOnce:
			transport.Write(cmd, h.atMostOnceCallback(cmd))
		case AtLeastOnce:
			transport.Write(cmd, nil)
		}
		transport.Flush()
		h.armTimeout(cmd)
		h.touchActivity()
		return
	}

	// Transport absent or not active: buffer, or idempotently no-op, or
	// fast-fail from the cached error.
	if h.h.contains(cmd) || h.q.contains(cmd) {
		h.logEntry().WithField("cmd_id", cmd.ID()).Debug("write: already queued, ignoring resubmission")
		return
	}
	if err := h.cachedErr(); err != nil {
		h.logEntry().WithField("cmd_id", cmd.ID()).WithError(err).Debug("write: failing fast from cached error")
		cmd.Fail(err)
		return
	}
	h.logEntry().WithField("cmd_id", cmd.ID()).Debug("write: buffering until transport activates")
	h.h.pushBack(cmd)
	h.publishQueueMetrics()
}

// atMostOnceCallback implements spec §4.9: on write failure, complete the
// command exceptionally and remove it from Q by identity so it cannot
// block subsequent responses.
func (h *Handler) atMostOnceCallback(cmd command.Command) WriteCallback {
	return func(err error) {
		if err == nil {
			return
		}
		h.writeMu.Lock()
		h.q.removeByID(cmd.ID())
		h.writeMu.Unlock()
		h.cancelTimeout(cmd)
		cmd.Fail(err)
		h.opts.metrics.incCompleted("exceptional")
		h.logEntry().WithField("cmd_id", cmd.ID()).WithError(err).Debug("at-most-once write failed")
	}
}

// OnOutboundWrite is the transport-adjacent write hook of spec §4.5: the
// sole entry point that extends Q. Transport implementations call this
// immediately before encoding cmd onto the wire.
func (h *Handler) OnOutboundWrite(cmd command.Command) error {
	if cmd.Output() == nil {
		cmd.Complete()
		h.opts.metrics.incCompleted("normal")
		return nil
	}
	h.q.pushBack(cmd)
	h.publishQueueMetrics()
	return nil
}

// OnRead is the read path of spec §4.6.
func (h *Handler) OnRead(chunk []byte, readable bool) {
	if !readable || h.dec == nil {
		return
	}
	if len(chunk) > 0 {
		h.logEntry().WithField("bytes", len(chunk)).Trace("received raw bytes")
		h.touchActivity()
	}
	h.dec.feed(chunk)

	for {
		cmd, ok := h.q.front()
		if !ok {
			break
		}
		out := cmd.Output()
		done, err := h.dec.decode(cmd, out)
		if err != nil {
			h.dec.reset()
			h.OnException(err)
			return
		}
		if !done {
			break
		}
		h.q.popFront()
		h.cancelTimeout(cmd)
		cmd.Complete()
		h.opts.metrics.incCompleted("normal")
		h.dec.compact()
		h.publishQueueMetrics()
	}
}
