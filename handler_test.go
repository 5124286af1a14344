package redisconn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydb/redisconn/command"
)

func waitDone(t *testing.T, cmd command.Command) {
	t.Helper()
	select {
	case <-cmd.Done():
	case <-time.After(time.Second):
		t.Fatal("command never completed")
	}
}

func TestWriteOnClosedHandlerFailsSynchronously(t *testing.T) {
	h := New()
	h.lc.set(Closed)

	cmd := command.NewRedis(&command.ValueOutput{}, "PING")
	_, err := h.Write(cmd)
	assert.Equal(t, ErrClosed, err)
}

func TestWriteBuffersWhenNoTransport(t *testing.T) {
	h := New(WithAutoReconnect(true))
	cmd := command.NewRedis(&command.ValueOutput{}, "GET", "key")

	_, err := h.Write(cmd)
	require.NoError(t, err)
	assert.Equal(t, 1, h.h.len())
	assert.Equal(t, 0, h.q.len())
}

func TestWriteFailsFastWithoutReconnect(t *testing.T) {
	h := New(WithAutoReconnect(false))
	cmd := command.NewRedis(&command.ValueOutput{}, "GET", "key")

	_, err := h.Write(cmd)
	require.NoError(t, err)
	waitDone(t, cmd)
	assert.Equal(t, errDisconnectedNoReconnect, cmd.Err())
}

func TestWriteThroughWhenActive(t *testing.T) {
	h := New()
	tr := newFakeTransport()
	h.OnRegistered(tr)
	h.lc.set(Active)

	cmd := command.NewRedis(&command.ValueOutput{}, "PING")
	_, err := h.Write(cmd)
	require.NoError(t, err)

	assert.Equal(t, 1, tr.writeCount())
	assert.Equal(t, 1, tr.flushes)
}

func TestWriteResubmissionIsIdempotent(t *testing.T) {
	h := New(WithAutoReconnect(true))
	out := &command.ValueOutput{}
	cmd := command.NewRedis(out, "GET", "key")

	h.Write(cmd)
	h.Write(cmd)

	assert.Equal(t, 1, h.h.len())
}

func TestOnOutboundWriteCompletesFireAndForget(t *testing.T) {
	h := New()
	cmd := command.NewRedis(nil, "SUBSCRIBE", "chan")

	err := h.OnOutboundWrite(cmd)
	require.NoError(t, err)
	waitDone(t, cmd)
	assert.Equal(t, 0, h.q.len())
}

func TestOnOutboundWriteExtendsDispatchQueue(t *testing.T) {
	h := New()
	cmd := command.NewRedis(&command.ValueOutput{}, "GET", "key")

	err := h.OnOutboundWrite(cmd)
	require.NoError(t, err)
	assert.Equal(t, 1, h.q.len())
}

func TestOnReadCompletesQueuedCommandInOrder(t *testing.T) {
	h := New()
	h.dec = newDecoderAdapter()

	outA := &command.ValueOutput{}
	outB := &command.ValueOutput{}
	cmdA := command.NewRedis(outA, "GET", "a")
	cmdB := command.NewRedis(outB, "GET", "b")
	h.q.pushBack(cmdA)
	h.q.pushBack(cmdB)

	h.OnRead([]byte("$1\r\nA\r\n$1\r\nB\r\n"), true)

	waitDone(t, cmdA)
	waitDone(t, cmdB)
	assert.Equal(t, []byte("A"), outA.Bulk)
	assert.Equal(t, []byte("B"), outB.Bulk)
	assert.Equal(t, 0, h.q.len())
}

func TestOnReadPartialChunkWaitsForMoreBytes(t *testing.T) {
	h := New()
	h.dec = newDecoderAdapter()
	out := &command.ValueOutput{}
	cmd := command.NewRedis(out, "GET", "a")
	h.q.pushBack(cmd)

	h.OnRead([]byte("$5\r\nhel"), true)
	assert.Equal(t, 1, h.q.len(), "command must stay queued until the reply is complete")

	h.OnRead([]byte("lo\r\n"), true)
	waitDone(t, cmd)
	assert.Equal(t, []byte("hello"), out.Bulk)
}

func TestOnExceptionAttributesToOldestUnacknowledged(t *testing.T) {
	h := New()
	cmd := command.NewRedis(&command.ValueOutput{}, "GET", "key")
	h.q.pushBack(cmd)

	propagate := h.OnException(assertErr)
	waitDone(t, cmd)
	assert.Equal(t, assertErr, cmd.Err())
	assert.False(t, propagate, "no transport attached: cause must be cached, not propagated")
}

func TestOnExceptionPropagatesWhenTransportActive(t *testing.T) {
	h := New()
	tr := newFakeTransport()
	h.OnRegistered(tr)
	h.lc.set(Active)

	propagate := h.OnException(assertErr)
	assert.True(t, propagate)
}

func TestAtMostOnceRemovesGhostEntryOnWriteFailure(t *testing.T) {
	h := New(WithAutoReconnect(false))
	cmd := command.NewRedis(&command.ValueOutput{}, "GET", "key")
	h.q.pushBack(cmd)

	h.atMostOnceCallback(cmd)(assertErr)

	waitDone(t, cmd)
	assert.Equal(t, assertErr, cmd.Err())
	assert.Equal(t, 0, h.q.len())
}

func TestResetIsIdempotent(t *testing.T) {
	h := New()
	cmd := command.NewRedis(&command.ValueOutput{}, "GET", "key")
	h.h.pushBack(cmd)

	h.Reset()
	waitDone(t, cmd)
	assert.True(t, cmd.IsCancelled())

	h.Reset() // second call: both queues already empty
	assert.Equal(t, 0, h.q.len())
	assert.Equal(t, 0, h.h.len())
}

func TestCloseIsIdempotentAndTransitionsToClosed(t *testing.T) {
	h := New()
	tr := newFakeTransport()
	h.OnRegistered(tr)
	h.lc.set(Active)

	h.Close()
	assert.True(t, h.IsClosed())
	h.Close() // second call must not block or panic
}

var assertErr = errCommandTimeout

func TestOnActiveWithoutTransportFailsAndResetsWhenConfigured(t *testing.T) {
	h := New(WithCancelOnReconnectFailure(true))
	cmd := command.NewRedis(&command.ValueOutput{}, "GET", "key")
	h.h.pushBack(cmd)

	h.OnActive() // no OnRegistered: currentTransport() is nil

	waitDone(t, cmd)
	assert.True(t, cmd.IsCancelled(), "Reset must cancel held commands when activation fails with no transport")
}
