package redisconn

import "github.com/sirupsen/logrus"

// logPrefix renders the "[<remote address> | <state>]" prefix spec §6
// mandates on every log line. It is recomputed on demand from the handler's
// current address and lifecycle state rather than cached, since cleaning
// up a stale cached value (spec §4.7 "clear the cached log prefix" on
// active) matters only for a string-concatenation implementation; holding
// the two source fields and formatting lazily sidesteps that bookkeeping
// without changing the observable log output.
func logPrefix(addr string, state LifecycleState) string {
	if addr == "" {
		addr = "not connected"
	}
	return "[" + addr + " | " + state.String() + "]"
}

func (h *Handler) logEntry() *logrus.Entry {
	addr := ""
	if t := h.currentTransport(); t != nil {
		addr = t.RemoteAddr()
	}
	return h.log.WithField("prefix", logPrefix(addr, h.lc.get()))
}
