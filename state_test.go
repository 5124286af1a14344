package redisconn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLifecycleClosedIsTerminal(t *testing.T) {
	var lc lifecycle
	lc.set(Active)
	lc.setIfNotClosed(Closed)
	assert.Equal(t, Closed, lc.get())

	lc.setIfNotClosed(Registered)
	assert.Equal(t, Closed, lc.get(), "no transition may escape Closed")
	assert.True(t, lc.isClosed())
}

func TestLifecycleIsConnectedRange(t *testing.T) {
	var lc lifecycle
	cases := map[LifecycleState]bool{
		NotConnected: false,
		Registered:   false,
		Connected:    true,
		Activating:   true,
		Active:       true,
		Disconnected: true,
		Deactivating: false,
		Deactivated:  false,
		Closed:       false,
	}
	for state, want := range cases {
		lc.set(state)
		assert.Equal(t, want, lc.isConnected(), "state %s", state)
	}
}

func TestLifecycleTransportRoundTrip(t *testing.T) {
	var lc lifecycle
	assert.Nil(t, lc.getTransport())

	fake := &fakeTransport{}
	lc.setTransport(fake)
	assert.Same(t, fake, lc.getTransport())
}

func TestLifecycleStateStringKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "unknown", LifecycleState(99).String())
}
