package redisconn

import (
	"time"

	"github.com/relaydb/redisconn/command"
)

// touchActivity records that bytes were just written or read, resetting
// the liveness prober's idle clock.
func (h *Handler) touchActivity() {
	h.activityMu.Lock()
	h.lastActivity = time.Now()
	h.activityMu.Unlock()
}

func (h *Handler) idleSince() time.Duration {
	h.activityMu.Lock()
	last := h.lastActivity
	h.activityMu.Unlock()
	if last.IsZero() {
		return 0
	}
	return time.Since(last)
}

// startPingProbe implements the supplemented liveness-probe feature
// (SPEC_FULL §12): while enabled via Options.WithPingInterval, a PING is
// written through the normal write path whenever the connection has sat
// idle for at least the configured interval. It is a no-op when the
// interval is zero (the default).
func (h *Handler) startPingProbe() {
	if h.opts.pingInterval <= 0 {
		return
	}
	h.stopPingProbe()

	stop := make(chan struct{})
	h.pingStop = stop
	h.touchActivity()

	go func() {
		ticker := time.NewTicker(h.opts.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if h.idleSince() < h.opts.pingInterval {
					continue
				}
				if h.lc.get() != Active {
					continue
				}
				ping := command.NewRedis(&command.ValueOutput{}, "PING")
				h.Write(ping)
			}
		}
	}()
}

func (h *Handler) stopPingProbe() {
	if h.pingStop != nil {
		close(h.pingStop)
		h.pingStop = nil
	}
}
