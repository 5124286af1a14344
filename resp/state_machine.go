package resp

import (
	"fmt"
	"strconv"

	"github.com/relaydb/redisconn/command"
)

// stage names where the state machine may be resumed after a partial read.
type stage int

const (
	stageType stage = iota
	stageBulkHeader
	stageBulkBody
	stageArrayHeader
)

// StateMachine is the external RESP decoder the connection core's decoder
// adapter wraps (spec §4.2's RedisStateMachine). It decodes exactly one
// top-level reply per logical sequence of Decode calls, resuming across
// calls that run out of buffered bytes. It supports the RESP shapes Redis
// commands in this family produce: simple strings, errors, integers, bulk
// strings, and arrays of bulk strings.
type StateMachine struct {
	stage stage

	// pending bulk state, valid while stage is stageBulkHeader/stageBulkBody
	bulkSize int

	// array state; arrayRemaining counts elements still to decode
	inArray        bool
	arrayRemaining int
}

// New returns a StateMachine ready to decode the first reply.
func New() *StateMachine {
	return &StateMachine{}
}

// Reset discards any resumption state, as required after a disconnect so
// no partially decoded reply carries across reconnects.
func (m *StateMachine) Reset() {
	m.stage = stageType
	m.bulkSize = 0
	m.inArray = false
	m.arrayRemaining = 0
}

// Decode consumes bytes from buf and drives out through the token updates
// for one reply belonging to cmd. It returns true exactly once that reply
// is fully decoded, in which case buf's cursor has advanced past it. It
// returns false when more bytes are needed; headers and elements already
// decoded stay consumed from buf, and the machine's stage records where
// the next call with more bytes resumes. A non-nil error indicates a
// protocol violation.
func (m *StateMachine) Decode(buf *Buffer, cmd command.Command, out command.Output) (bool, error) {
	for {
		var elementDone bool
		var progressed bool
		var err error

		switch m.stage {
		case stageType:
			progressed, elementDone, err = m.decodeType(buf, out)
		case stageBulkHeader:
			progressed, elementDone, err = m.decodeBulkHeader(buf, out)
		case stageBulkBody:
			progressed, elementDone, err = m.decodeBulkBody(buf, out)
		case stageArrayHeader:
			progressed, elementDone, err = m.decodeArrayHeader(buf, out)
		}

		if err != nil {
			return false, err
		}
		if !progressed {
			return false, nil
		}
		if elementDone {
			if m.finishElement() {
				return true, nil
			}
		}
		// Otherwise the stage advanced (header parsed, body pending, or
		// array elements pending); loop to make progress on the new
		// stage with whatever bytes remain.
	}
}

// finishElement is called once a single RESP element (scalar, bulk, or an
// empty/nil array) has been fully applied to out. It advances array
// bookkeeping and reports whether the whole top-level reply is complete.
func (m *StateMachine) finishElement() bool {
	if !m.inArray {
		m.stage = stageType
		return true
	}
	m.arrayRemaining--
	m.stage = stageType
	if m.arrayRemaining <= 0 {
		m.inArray = false
		return true
	}
	return false
}

// decodeType reads the one-byte RESP type tag. For scalar types it decodes
// the full line in place and reports elementDone. For '$' and '*' it
// switches to the matching multi-step stage and reports progressed without
// elementDone.
func (m *StateMachine) decodeType(buf *Buffer, out command.Output) (progressed, elementDone bool, err error) {
	unread := buf.Unread()
	if len(unread) == 0 {
		return false, false, nil
	}

	switch unread[0] {
	case '+', '-', ':':
		idx := indexCRLF(unread, 1)
		if idx < 0 {
			return false, false, nil
		}
		line := unread[1:idx]
		buf.advance(idx + 2)
		switch unread[0] {
		case '+':
			out.SetStatus(string(line))
		case '-':
			out.SetErr(string(line))
		case ':':
			n, perr := strconv.ParseInt(string(line), 10, 64)
			if perr != nil {
				return false, false, fmt.Errorf("resp: malformed integer %q: %w", line, perr)
			}
			out.SetInt(n)
		}
		return true, true, nil

	case '$':
		m.stage = stageBulkHeader
		return true, false, nil

	case '*':
		m.stage = stageArrayHeader
		return true, false, nil

	default:
		return false, false, fmt.Errorf("resp: unexpected type byte %q", unread[0])
	}
}

func (m *StateMachine) decodeBulkHeader(buf *Buffer, out command.Output) (progressed, elementDone bool, err error) {
	unread := buf.Unread()
	// unread[0] is still '$'
	idx := indexCRLF(unread, 1)
	if idx < 0 {
		return false, false, nil
	}
	size, perr := strconv.Atoi(string(unread[1:idx]))
	if perr != nil {
		return false, false, fmt.Errorf("resp: malformed bulk length: %w", perr)
	}
	buf.advance(idx + 2)

	if size < 0 {
		out.SetBulk(nil, false)
		return true, true, nil
	}
	m.bulkSize = size
	m.stage = stageBulkBody
	return true, false, nil
}

func (m *StateMachine) decodeBulkBody(buf *Buffer, out command.Output) (progressed, elementDone bool, err error) {
	need := m.bulkSize + 2 // payload + trailing CRLF
	unread := buf.Unread()
	if len(unread) < need {
		return false, false, nil
	}
	payload := make([]byte, m.bulkSize)
	copy(payload, unread[:m.bulkSize])
	if unread[m.bulkSize] != '\r' || unread[m.bulkSize+1] != '\n' {
		return false, false, fmt.Errorf("resp: bulk string missing trailing CRLF")
	}
	buf.advance(need)
	out.SetBulk(payload, true)
	return true, true, nil
}

func (m *StateMachine) decodeArrayHeader(buf *Buffer, out command.Output) (progressed, elementDone bool, err error) {
	unread := buf.Unread()
	idx := indexCRLF(unread, 1)
	if idx < 0 {
		return false, false, nil
	}
	n, perr := strconv.Atoi(string(unread[1:idx]))
	if perr != nil {
		return false, false, fmt.Errorf("resp: malformed array length: %w", perr)
	}
	buf.advance(idx + 2)

	out.BeginArray(n)
	if n <= 0 {
		return true, true, nil
	}
	m.inArray = true
	m.arrayRemaining = n
	m.stage = stageType
	return true, false, nil
}
