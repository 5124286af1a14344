package redisconn

// Reset implements spec §4.10 "reset()": cancels every command currently
// held in the dispatch queue and holding buffer, clears both, and resets
// decode state. Safe to call repeatedly; a second call finds both queues
// already empty and is equivalent to a no-op, satisfying the §8
// idempotence property.
func (h *Handler) Reset() {
	h.writeMu.Lock()
	h.q.cancelAll(errResetMsg)
	h.h.cancelAll(errResetMsg)
	h.writeMu.Unlock()

	if h.dec != nil {
		h.dec.reset()
	}
	h.publishQueueMetrics()
	h.logEntry().Debug("reset: queues cancelled and cleared")
}

// Close implements spec §4.10 "close()": transitions to LifecycleState
// Closed (suppressing all further transitions per §4.1), fires
// PrepareClose and Close into the transport, and blocks until the
// transport's close future completes. Calling Close more than once is a
// no-op after the first call.
func (h *Handler) Close() {
	h.lc.mu.Lock()
	if h.lc.state == Closed {
		h.lc.mu.Unlock()
		return
	}
	h.lc.state = Closed
	transport := h.lc.transport
	h.lc.mu.Unlock()

	h.opts.metrics.setState(Closed)
	h.logEntry().Debug("close: transitioning to closed")

	if transport == nil {
		return
	}
	transport.FireUserEvent(EventPrepareClose)
	transport.FireUserEvent(EventClose)
	<-transport.Close()
}
