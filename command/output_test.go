package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueOutputScalarKinds(t *testing.T) {
	var o ValueOutput
	o.SetStatus("OK")
	assert.Equal(t, KindStatus, o.Kind)

	o = ValueOutput{}
	o.SetInt(42)
	assert.Equal(t, KindInt, o.Kind)
	assert.EqualValues(t, 42, o.Int)

	o = ValueOutput{}
	o.SetBulk([]byte("hi"), true)
	assert.Equal(t, KindBulk, o.Kind)
	assert.True(t, o.BulkOK)
}

func TestValueOutputArrayAccumulates(t *testing.T) {
	var o ValueOutput
	o.BeginArray(2)
	o.SetBulk([]byte("a"), true)
	o.SetBulk(nil, false)

	assert.Equal(t, KindArray, o.Kind)
	if assert.Len(t, o.Array, 2) {
		assert.Equal(t, []byte("a"), o.Array[0])
		assert.Nil(t, o.Array[1])
	}
}

func TestValueOutputEmptyArray(t *testing.T) {
	var o ValueOutput
	o.BeginArray(0)
	assert.Equal(t, KindArray, o.Kind)
	assert.Len(t, o.Array, 0)
}

func TestValueOutputServerErr(t *testing.T) {
	var o ValueOutput
	assert.Nil(t, o.ServerErr())

	o.SetErr("WRONGTYPE Operation against a key holding the wrong kind of value")
	err := o.ServerErr()
	if assert.Error(t, err) {
		serr, ok := err.(ServerError)
		if assert.True(t, ok) {
			assert.Equal(t, "WRONGTYPE", serr.Prefix())
		}
	}
}
