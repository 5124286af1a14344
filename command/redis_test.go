package command

import (
	"bufio"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisEncode(t *testing.T) {
	cmd := NewRedis(&ValueOutput{}, "SET", "key", "value")
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, cmd.Encode(w))
	require.NoError(t, w.Flush())
	assert.Equal(t, "*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\nvalue\r\n", buf.String())
}

func TestRedisEncodeBytes(t *testing.T) {
	cmd := NewRedisBytes(&ValueOutput{}, []byte("AUTH"), []byte("s3cret"))
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, cmd.Encode(w))
	require.NoError(t, w.Flush())
	assert.Equal(t, "*2\r\n$4\r\nAUTH\r\n$6\r\ns3cret\r\n", buf.String())
}

func TestRedisCompletesExactlyOnce(t *testing.T) {
	cmd := NewRedis(&ValueOutput{})
	cmd.Complete()
	cmd.Fail(errors.New("too late"))
	cmd.Cancel()

	select {
	case <-cmd.Done():
	default:
		t.Fatal("Done channel not closed after Complete")
	}
	assert.NoError(t, cmd.Err())
	assert.False(t, cmd.IsCancelled())
}

func TestRedisFailRecordsCause(t *testing.T) {
	out := &ValueOutput{}
	cmd := NewRedis(out)
	cause := errors.New("boom")
	cmd.Fail(cause)

	assert.Equal(t, cause, cmd.Err())
	assert.Equal(t, KindErr, out.Kind)
	assert.Equal(t, "boom", out.ErrMsg)
}

func TestRedisCancelSetsFlag(t *testing.T) {
	cmd := NewRedis(&ValueOutput{})
	cmd.Cancel()
	assert.True(t, cmd.IsCancelled())
	assert.NoError(t, cmd.Err())
}

func TestNewIDMonotonic(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.Less(t, a, b)
}

func TestCommandIdentityNotStructural(t *testing.T) {
	a := NewRedis(&ValueOutput{}, "GET", "key")
	b := NewRedis(&ValueOutput{}, "GET", "key")
	assert.NotEqual(t, a.ID(), b.ID())
}
