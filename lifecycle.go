package redisconn

// OnRegistered implements spec §4.7 "On registered": allocate B, construct
// a fresh decoder, record the transport reference, transition to
// Registered.
func (h *Handler) OnRegistered(t Transport) {
	h.dec = newDecoderAdapter()
	h.lc.setTransport(t)
	h.lc.setIfNotClosed(Registered)
	h.opts.metrics.setState(h.lc.get())
	h.logEntry().Debug("transport registered")
}

// OnActive implements spec §4.7 "On active".
func (h *Handler) OnActive() {
	h.lc.setIfNotClosed(Connected)
	h.opts.metrics.setState(h.lc.get())
	h.logEntry().Debug("transport connected")

	if err := h.executeQueuedCommands(); err != nil {
		if h.opts.cancelOnReconnectFailure {
			h.Reset()
		}
		h.logEntry().WithError(err).Debug("executeQueuedCommands failed during activation")
		// Re-raised to the transport by scheduling OnException(err) on
		// its I/O context via Submit; the propagate result of that call
		// is not acted on here.
		if t := h.currentTransport(); t != nil {
			t.Submit(func() { h.OnException(err) })
		}
		return
	}

	h.startPingProbe()

	if t := h.currentTransport(); t != nil {
		t.Submit(func() {
			t.FireUserEvent(EventActivated)
		})
	}
}

// OnInactive implements spec §4.7 "On inactive".
func (h *Handler) OnInactive() {
	h.stopPingProbe()
	h.lc.setIfNotClosed(Disconnected)
	h.opts.metrics.setState(h.lc.get())
	h.logEntry().Debug("transport disconnected")

	if u := h.upperHandler(); u != nil {
		h.lc.setIfNotClosed(Deactivating)
		h.opts.metrics.setState(h.lc.get())
		u.Deactivated()
		h.lc.setIfNotClosed(Deactivated)
		h.opts.metrics.setState(h.lc.get())
	}

	if h.dec != nil {
		h.dec.reset()
	}
}

// OnUnregistered implements spec §4.7 "On unregistered".
func (h *Handler) OnUnregistered() {
	h.dec = nil
	if h.lc.get() == Closed {
		h.writeMu.Lock()
		h.q.cancelAll(errConnectionClosedMsg)
		h.h.cancelAll(errConnectionClosedMsg)
		h.writeMu.Unlock()
		h.publishQueueMetrics()
	}
	h.lc.setTransport(nil)
	h.logEntry().Debug("transport unregistered")
}

// OnException implements spec §4.7 "On exception" / §7 PipelineException.
// It returns true when the cause should be treated as channel-breaking by
// the transport (the "propagate" outcome), false when it was absorbed into
// the cached connection error.
func (h *Handler) OnException(cause error) bool {
	h.writeMu.Lock()
	head, ok := h.q.popFront()
	h.writeMu.Unlock()

	if ok {
		h.cancelTimeout(head)
		head.Fail(cause)
		h.opts.metrics.incCompleted("exceptional")
		h.publishQueueMetrics()
		h.logEntry().WithError(cause).Debug("exception attributed to oldest unacknowledged command")
	}

	transport := h.currentTransport()
	if transport == nil || !transport.IsActive() || !h.lc.isConnected() {
		h.setCachedErr(cause)
		h.logEntry().WithError(cause).Debug("exception cached, not propagating")
		return false
	}
	return true
}
