package sdm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathConstructorsAndAccessors(t *testing.T) {
	root := RootPath()
	assert.Equal(t, DepthRoot, root.Depth())
	assert.Equal(t, "/", root.String())

	obj := ObjectPath(3303)
	assert.Equal(t, DepthObject, obj.Depth())
	assert.Equal(t, uint16(3303), obj.ObjectID())
	assert.Equal(t, "/3303", obj.String())

	inst := InstancePath(3303, 0)
	iid, ok := inst.InstanceID()
	assert.True(t, ok)
	assert.Equal(t, uint16(0), iid)
	assert.Equal(t, "/3303/0", inst.String())

	res := ResourcePath(3303, 0, 5700)
	rid, ok := res.ResourceID()
	assert.True(t, ok)
	assert.Equal(t, uint16(5700), rid)
	assert.Equal(t, "/3303/0/5700", res.String())

	ri := ResourceInstancePath(3303, 0, 5700, 1)
	riid, ok := ri.ResourceInstanceID()
	assert.True(t, ok)
	assert.Equal(t, uint16(1), riid)
	assert.Equal(t, "/3303/0/5700/1", ri.String())

	_, ok = obj.InstanceID()
	assert.False(t, ok)
}

func TestPathEqual(t *testing.T) {
	a := ResourcePath(3303, 0, 5700)
	b := ResourcePath(3303, 0, 5700)
	c := ResourcePath(3303, 1, 5700)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(ObjectPath(3303)))
}

func TestPathContains(t *testing.T) {
	obj := ObjectPath(3303)
	inst := InstancePath(3303, 0)
	res := ResourcePath(3303, 0, 5700)
	otherInst := InstancePath(3303, 1)

	assert.True(t, obj.Contains(inst))
	assert.True(t, obj.Contains(res))
	assert.True(t, inst.Contains(res))
	assert.False(t, otherInst.Contains(res))
	assert.True(t, res.Contains(res))
	assert.False(t, res.Contains(obj))
}
