package redisconn

import (
	"strconv"

	"github.com/relaydb/redisconn/command"
)

// executeQueuedCommands implements spec §4.8, invoked on transport
// activation. It runs under the write lock for its entire body, including
// the recursive writeLocked calls in step 6 (Design Notes §9's
// "lock-already-held variant").
func (h *Handler) executeQueuedCommands() error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if h.currentTransport() == nil {
		return errActivationNoTransport
	}

	h.clearCachedErr()

	var replay []command.Command
	replay = h.stickyReplayCommands(replay)
	replay = h.h.drainInto(replay)
	replay = h.q.drainInto(replay)
	h.publishQueueMetrics()

	// The transport reference is re-read fresh by writeLocked below for
	// each replayed command; no separate refresh step is needed here.

	if u := h.upperHandler(); u != nil {
		h.lc.setIfNotClosed(Activating)
		h.opts.metrics.setState(h.lc.get())
		u.Activated()
		h.lc.setIfNotClosed(Active)
	} else {
		h.lc.setIfNotClosed(Active)
	}
	h.opts.metrics.setState(h.lc.get())
	h.logEntry().WithField("replay_count", len(replay)).Debug("replaying queued commands")

	for _, cmd := range replay {
		if cmd.IsCancelled() {
			continue
		}
		h.writeLocked(cmd)
	}
	return nil
}

// stickyReplayCommands prepends the supplemented AUTH/SELECT connection
// setup (spec SPEC_FULL §12), replayed ahead of H on every activation
// since Redis resets authentication and database selection per TCP
// connection.
func (h *Handler) stickyReplayCommands(dst []command.Command) []command.Command {
	if len(h.opts.authPassword) > 0 {
		out := &command.ValueOutput{}
		dst = append(dst, command.NewRedisBytes(out, []byte("AUTH"), h.opts.authPassword))
	}
	if h.opts.hasSelectDB {
		out := &command.ValueOutput{}
		dst = append(dst, command.NewRedis(out, "SELECT", strconv.FormatInt(h.opts.selectDB, 10)))
	}
	return dst
}
