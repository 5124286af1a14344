package redisconn

import (
	"github.com/relaydb/redisconn/command"
	"github.com/relaydb/redisconn/resp"
)

// decoderAdapter is the thin wrapper over the external RESP state machine
// (spec §4.2): it owns the inbound byte buffer and forwards decode calls,
// translating the state machine's resumption contract into the single
// boolean the read path needs.
type decoderAdapter struct {
	machine *resp.StateMachine
	buf     *resp.Buffer
}

func newDecoderAdapter() *decoderAdapter {
	return &decoderAdapter{
		machine: resp.New(),
		buf:     &resp.Buffer{},
	}
}

// feed appends inbound bytes to the buffer.
func (d *decoderAdapter) feed(b []byte) {
	d.buf.Write(b)
}

// decode attempts to complete a reply for cmd. It returns true exactly
// once a full reply has been decoded, in which case the buffer's read
// cursor has advanced past it.
func (d *decoderAdapter) decode(cmd command.Command, out command.Output) (bool, error) {
	return d.machine.Decode(d.buf, cmd, out)
}

// compact discards already-consumed bytes from the buffer.
func (d *decoderAdapter) compact() {
	d.buf.Compact()
}

// reset discards resumption state in both the state machine and the
// buffer, required after every disconnect (spec §8 round-trip property).
func (d *decoderAdapter) reset() {
	d.machine.Reset()
	d.buf.Reset()
}
