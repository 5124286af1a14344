package redisconn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydb/redisconn/command"
)

func TestExecuteQueuedCommandsReplaysHeldCommands(t *testing.T) {
	h := New()
	tr := newFakeTransport()
	h.OnRegistered(tr)
	h.lc.set(Connected)

	held := command.NewRedis(&command.ValueOutput{}, "GET", "key")
	h.h.pushBack(held)

	err := h.executeQueuedCommands()
	require.NoError(t, err)

	assert.Equal(t, Active, h.lc.get())
	assert.Equal(t, 1, tr.writeCount())
	assert.Equal(t, 0, h.h.len())
}

func TestExecuteQueuedCommandsSkipsCancelled(t *testing.T) {
	h := New()
	tr := newFakeTransport()
	h.OnRegistered(tr)
	h.lc.set(Connected)

	cmd := command.NewRedis(&command.ValueOutput{}, "GET", "key")
	cmd.Cancel()
	h.h.pushBack(cmd)

	err := h.executeQueuedCommands()
	require.NoError(t, err)
	assert.Equal(t, 0, tr.writeCount())
}

func TestStickyReplayPrependsAuthAndSelect(t *testing.T) {
	h := New(WithAuth([]byte("s3cret")), WithSelectDB(3))
	replay := h.stickyReplayCommands(nil)
	require.Len(t, replay, 2)

	// Both synthetic commands must carry a non-nil Output so they do not
	// complete as fire-and-forget before the server replies.
	for _, cmd := range replay {
		assert.NotNil(t, cmd.Output())
	}
}

func TestStickyReplayOmittedWhenUnconfigured(t *testing.T) {
	h := New()
	replay := h.stickyReplayCommands(nil)
	assert.Len(t, replay, 0)
}

func TestExecuteQueuedCommandsOrdersStickyBeforeHeld(t *testing.T) {
	h := New(WithAuth([]byte("pw")))
	tr := newFakeTransport()
	h.OnRegistered(tr)
	h.lc.set(Connected)

	held := command.NewRedis(&command.ValueOutput{}, "GET", "key")
	h.h.pushBack(held)

	err := h.executeQueuedCommands()
	require.NoError(t, err)
	require.Equal(t, 2, tr.writeCount())
	assert.NotEqual(t, held.ID(), tr.writes[0].ID(), "AUTH must be written ahead of held commands")
	assert.Equal(t, held.ID(), tr.writes[1].ID())
}
