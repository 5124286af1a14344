package redisconn

import "github.com/relaydb/redisconn/command"

// cmdQueue is an unbounded FIFO of commands with O(1) enqueue/dequeue and
// linear-time identity membership, the shared shape behind both the
// dispatch queue (Q) and the holding buffer (H) of spec §3. Identity, not
// structural equality, decides membership (Design Notes §9): two commands
// built from equal arguments remain distinct entries.
type cmdQueue struct {
	items []command.Command
}

func (q *cmdQueue) pushBack(c command.Command) {
	q.items = append(q.items, c)
}

func (q *cmdQueue) popFront() (command.Command, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	c := q.items[0]
	q.items = q.items[1:]
	return c, true
}

func (q *cmdQueue) front() (command.Command, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	return q.items[0], true
}

func (q *cmdQueue) len() int {
	return len(q.items)
}

func (q *cmdQueue) contains(c command.Command) bool {
	for _, item := range q.items {
		if item.ID() == c.ID() {
			return true
		}
	}
	return false
}

// removeByID removes the first command with the given identity, if
// present, preserving the relative order of the rest. Used by the
// AT_MOST_ONCE write-failure callback (spec §4.9), which must not leave a
// ghost entry in Q blocking subsequent responses.
func (q *cmdQueue) removeByID(id uint64) {
	for i, item := range q.items {
		if item.ID() == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// drainInto appends all items to dst in order and empties the queue,
// preserving relative order for a replay snapshot (spec §4.8).
func (q *cmdQueue) drainInto(dst []command.Command) []command.Command {
	dst = append(dst, q.items...)
	q.items = nil
	return dst
}

// cancelAll cancels every command still queued, after marking its output
// (if present) with errMsg, then empties the queue. Used by reset/close
// (spec §4.10).
func (q *cmdQueue) cancelAll(errMsg string) {
	for _, c := range q.items {
		if out := c.Output(); out != nil {
			out.SetErr(errMsg)
		}
		c.Cancel()
	}
	q.items = nil
}
