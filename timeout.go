package redisconn

import (
	"errors"
	"time"

	"github.com/relaydb/redisconn/command"
)

// errCommandTimeout is the completion cause for the supplemented
// command-timeout feature (SPEC_FULL §12): a written command that has not
// received a reply within Options.commandTimeout is failed and the
// transport is forced to reconnect, to avoid commands piling up behind a
// silently stalled connection.
var errCommandTimeout = errors.New("redisconn: command timed out awaiting reply")

// armTimeout starts a timeout timer for a command just handed to the
// transport, if Options.commandTimeout is set and the command expects a
// reply. Fire-and-forget commands (nil Output) are completed by
// OnOutboundWrite and get no timer.
func (h *Handler) armTimeout(cmd command.Command) {
	if h.opts.commandTimeout <= 0 || cmd.Output() == nil {
		return
	}
	timer := time.AfterFunc(h.opts.commandTimeout, func() {
		h.expireTimeout(cmd)
	})

	h.timeoutMu.Lock()
	h.timeouts[cmd.ID()] = timer
	h.timeoutMu.Unlock()
}

// cancelTimeout stops and forgets cmd's timeout timer, if any. Called on
// the read, exception and at-most-once write-failure completion paths so a
// command that got its reply in time never fires the timeout callback.
// Commands cancelled by Reset or on close keep their timer; expireTimeout
// ignores them when it fires.
func (h *Handler) cancelTimeout(cmd command.Command) {
	h.timeoutMu.Lock()
	timer, ok := h.timeouts[cmd.ID()]
	if ok {
		delete(h.timeouts, cmd.ID())
	}
	h.timeoutMu.Unlock()
	if ok {
		timer.Stop()
	}
}

func (h *Handler) expireTimeout(cmd command.Command) {
	h.timeoutMu.Lock()
	_, ok := h.timeouts[cmd.ID()]
	if ok {
		delete(h.timeouts, cmd.ID())
	}
	h.timeoutMu.Unlock()
	if !ok || cmd.IsCancelled() {
		return
	}

	h.writeMu.Lock()
	h.q.removeByID(cmd.ID())
	h.writeMu.Unlock()
	h.publishQueueMetrics()

	cmd.Fail(errCommandTimeout)
	h.opts.metrics.incCompleted("exceptional")
	h.logEntry().WithField("cmd_id", cmd.ID()).Debug("command timed out, forcing reconnect")

	if t := h.currentTransport(); t != nil {
		go func() { <-t.Close() }()
	}
}
