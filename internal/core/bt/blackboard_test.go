package bt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	keyOne Key = iota + 1
	keyTwo
	keyThree
)

func TestBlackboardTypedAccess(t *testing.T) {
	bb := NewBlackboard()

	bb.SetFloat(keyOne, 123.456)
	assert.Equal(t, float32(123.456), bb.GetFloat(keyOne))

	bb.SetBool(keyTwo, true)
	assert.True(t, bb.GetBool(keyTwo))

	bb.SetInt(keyThree, 654321)
	assert.Equal(t, int32(654321), bb.GetInt(keyThree))

	bb.SetVector3(keyOne, Vector3{X: 1, Y: 2, Z: 3})
	assert.Equal(t, Vector3{X: 1, Y: 2, Z: 3}, bb.GetVector3(keyOne))

	obj := &struct{ name string }{name: "name"}
	bb.SetObject(keyThree, obj)
	assert.Same(t, obj, bb.GetObject(keyThree))
}

func TestBlackboardMissingKeysReadZero(t *testing.T) {
	bb := NewBlackboard()
	assert.Zero(t, bb.GetInt(42))
	assert.Zero(t, bb.GetFloat(42))
	assert.False(t, bb.GetBool(42))
	assert.Equal(t, Vector3{}, bb.GetVector3(42))
	assert.Nil(t, bb.GetObject(42))
}

func TestBlackboardCategoriesDoNotCollide(t *testing.T) {
	bb := NewBlackboard()
	bb.SetInt(keyOne, 7)
	bb.SetVector3(keyOne, Vector3{X: 9})
	bb.SetObject(keyOne, "handle")

	assert.Equal(t, int32(7), bb.GetInt(keyOne))
	assert.Equal(t, Vector3{X: 9}, bb.GetVector3(keyOne))
	assert.Equal(t, "handle", bb.GetObject(keyOne))

	bb.SetInt(keyOne, 8)
	assert.Equal(t, Vector3{X: 9}, bb.GetVector3(keyOne))
}

func TestBlackboardScalarsShareSlot(t *testing.T) {
	bb := NewBlackboard()
	bb.SetFloat(keyOne, 1)
	assert.Equal(t, int32(0x3f800000), bb.GetInt(keyOne))
	assert.False(t, bb.GetBool(keyOne), "low byte of 1.0f is zero")

	bb.SetInt(keyOne, 256)
	assert.False(t, bb.GetBool(keyOne))
	bb.SetInt(keyOne, 257)
	assert.True(t, bb.GetBool(keyOne))
	bb.SetInt(keyOne, -1)
	assert.True(t, bb.GetBool(keyOne))

	bb.SetBool(keyOne, false)
	assert.Zero(t, bb.GetInt(keyOne))
}

func TestBlackboardReservedBlock(t *testing.T) {
	bb := newReservedBlackboard(100, 3)

	bb.SetInt(101, 5)
	assert.Equal(t, int32(5), bb.GetInt(101))
	assert.Equal(t, uint32(5), bb.block[1])
	assert.NotContains(t, bb.scalars, Key(101))

	// just outside the block goes to the map
	bb.SetInt(103, 6)
	assert.Equal(t, int32(6), bb.GetInt(103))
	assert.Contains(t, bb.scalars, Key(103))

	bb.SetBool(99, true)
	assert.True(t, bb.GetBool(99))
	assert.Contains(t, bb.scalars, Key(99))
}
